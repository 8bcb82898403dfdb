// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"stackup-cli/pkg/stackfile"
	"stackup-cli/pkg/types"
)

// ErrDotenvSyntax indicates a malformed line in a dotenv file.
var ErrDotenvSyntax = errors.New("invalid dotenv syntax")

// DotenvSyntaxError carries the file position of a malformed dotenv line.
type DotenvSyntaxError struct {
	File string
	Line int
	Text string
}

func (e *DotenvSyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: invalid dotenv syntax: %q", e.File, e.Line, e.Text)
}

func (e *DotenvSyntaxError) Unwrap() error { return ErrDotenvSyntax }

// ParseDotenv reads KEY=VALUE pairs from r. Blank lines and lines whose
// first non-space character is '#' are skipped. An optional "export "
// prefix before the key is accepted. Values may be wrapped in single or
// double quotes; inside double quotes the escapes \\, \", \n and \t are
// interpreted, single quotes are taken literally. Unquoted values are
// trimmed and stripped of trailing inline comments.
func ParseDotenv(r io.Reader, name string) (map[string]string, error) {
	vars := make(map[string]string)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, rawValue, found := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !found || stackfile.EnvVarName(key).Validate() != nil {
			return nil, &DotenvSyntaxError{File: name, Line: lineNo, Text: scanner.Text()}
		}

		value, err := parseDotenvValue(strings.TrimSpace(rawValue))
		if err != nil {
			return nil, &DotenvSyntaxError{File: name, Line: lineNo, Text: scanner.Text()}
		}
		vars[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return vars, nil
}

func parseDotenvValue(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	switch raw[0] {
	case '"':
		return parseDoubleQuoted(raw)
	case '\'':
		if len(raw) < 2 || !strings.HasSuffix(raw, "'") {
			return "", ErrDotenvSyntax
		}
		return raw[1 : len(raw)-1], nil
	default:
		// Strip an inline comment that is separated from the value.
		if idx := strings.Index(raw, " #"); idx >= 0 {
			raw = strings.TrimSpace(raw[:idx])
		}
		return raw, nil
	}
}

func parseDoubleQuoted(raw string) (string, error) {
	var b strings.Builder
	escaped := false
	for i := 1; i < len(raw); i++ {
		c := raw[i]
		if escaped {
			switch c {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '"', '\\':
				b.WriteByte(c)
			default:
				b.WriteByte('\\')
				b.WriteByte(c)
			}
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = true
		case '"':
			if i != len(raw)-1 {
				return "", ErrDotenvSyntax
			}
			return b.String(), nil
		default:
			b.WriteByte(c)
		}
	}
	return "", ErrDotenvSyntax
}

// LoadDotenvFile parses the dotenv file at ref resolved against baseDir.
// A missing file is an error unless the reference carries the optional
// marker, in which case an empty map is returned.
func LoadDotenvFile(ref stackfile.DotenvFilePath, baseDir string) (map[string]string, error) {
	path := types.FilesystemPath(ref.Path()).Resolve(baseDir)
	f, err := os.Open(path)
	if err != nil {
		if ref.IsOptional() && errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("opening env file %s: %w", path, err)
	}
	defer f.Close()
	return ParseDotenv(f, path)
}
