// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	stderrors "errors"
	"fmt"
	"strings"

	"cuelang.org/go/cue/errors"
)

// ErrSchemaViolation is the sentinel error wrapped by SchemaViolationError,
// letting callers classify any FormatError result with errors.Is().
var ErrSchemaViolation = stderrors.New("schema violation")

// SchemaViolationError is the formatted form of a CUE validation failure.
type SchemaViolationError struct {
	msg string
}

func (e *SchemaViolationError) Error() string { return e.msg }

func (e *SchemaViolationError) Unwrap() error { return ErrSchemaViolation }

// FormatError rewrites a CUE error into the form
// "<file-path>: <json-path>: <message>" so users can locate the offending
// field without reading raw CUE diagnostics. Multiple errors are listed one
// per line.
func FormatError(err error, filePath string) error {
	if err == nil {
		return nil
	}

	cueErrors := errors.Errors(err)
	if len(cueErrors) == 0 {
		return &SchemaViolationError{msg: fmt.Sprintf("%s: %v", filePath, err)}
	}

	var lines []string
	for _, e := range cueErrors {
		pathStr := jsonPath(errors.Path(e))
		msg := e.Error()

		// CUE sometimes repeats the path inside the message itself.
		if pathStr != "" && strings.HasPrefix(msg, pathStr) {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, pathStr), ":"))
		}

		if pathStr != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", pathStr, msg))
		} else {
			lines = append(lines, msg)
		}
	}

	if len(lines) == 1 {
		return &SchemaViolationError{msg: fmt.Sprintf("%s: %s", filePath, lines[0])}
	}
	return &SchemaViolationError{msg: fmt.Sprintf("%s: validation failed:\n  %s", filePath, strings.Join(lines, "\n  "))}
}

// jsonPath converts a CUE error path like ["services", "0", "name"] into the
// JSON-path notation "services[0].name".
func jsonPath(path []string) string {
	if len(path) == 0 {
		return ""
	}

	var b strings.Builder
	for i, part := range path {
		if isIndex(part) && i > 0 {
			b.WriteString("[")
			b.WriteString(part)
			b.WriteString("]")
			continue
		}
		if i > 0 {
			b.WriteString(".")
		}
		b.WriteString(part)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
