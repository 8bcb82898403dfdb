// SPDX-License-Identifier: MPL-2.0

package stackfile

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"stackup-cli/pkg/cueutil"
)

// FileName is the canonical manifest file name searched for in a project.
const FileName = "stackfile.cue"

//go:embed stackfile_schema.cue
var schemaBytes []byte

// Parse loads and validates the stackfile at the given path.
func Parse(path string) (*Stackfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stackfile: %w", err)
	}
	return ParseBytes(data, path)
}

// ParseBytes validates manifest content against the embedded schema and the
// Go-level constraints CUE cannot express. The path parameter is recorded as
// FilePath and used in error messages.
func ParseBytes(data []byte, path string) (*Stackfile, error) {
	f, err := cueutil.Decode[Stackfile](schemaBytes, data, "#Stackfile",
		cueutil.WithFilename(path))
	if err != nil {
		return nil, err
	}

	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	f.FilePath = abs

	return f, nil
}

// Discover searches for a stackfile starting at dir and walking up to the
// filesystem root. Returns the path of the first manifest found, or an empty
// string when none exists.
func Discover(dir string) string {
	current, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(current, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(current)
		if parent == current {
			return ""
		}
		current = parent
	}
}

// BaseDir returns the directory the stackfile lives in, used as the base for
// resolving relative workdirs and dotenv paths. Falls back to "." when the
// manifest was not loaded from disk.
func (f *Stackfile) BaseDir() string {
	if f.FilePath == "" {
		return "."
	}
	return filepath.Dir(f.FilePath)
}
