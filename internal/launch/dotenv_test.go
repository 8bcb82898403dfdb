// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stackup-cli/pkg/stackfile"
)

func TestParseDotenv(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    map[string]string
		wantErr bool
	}{
		{
			name:  "simple pairs",
			input: "FOO=bar\nBAZ=qux\n",
			want:  map[string]string{"FOO": "bar", "BAZ": "qux"},
		},
		{
			name:  "comments and blanks skipped",
			input: "# comment\n\nFOO=bar\n  # indented comment\n",
			want:  map[string]string{"FOO": "bar"},
		},
		{
			name:  "export prefix",
			input: "export HTTP_PROXY=http://proxy:3128\n",
			want:  map[string]string{"HTTP_PROXY": "http://proxy:3128"},
		},
		{
			name:  "double quoted with escapes",
			input: `GREETING="hello\nworld \"quoted\""` + "\n",
			want:  map[string]string{"GREETING": "hello\nworld \"quoted\""},
		},
		{
			name:  "single quoted literal",
			input: `RAW='a \n literal'` + "\n",
			want:  map[string]string{"RAW": `a \n literal`},
		},
		{
			name:  "inline comment on unquoted value",
			input: "PORT=5001 # dev server\n",
			want:  map[string]string{"PORT": "5001"},
		},
		{
			name:  "empty value",
			input: "EMPTY=\n",
			want:  map[string]string{"EMPTY": ""},
		},
		{
			name:  "later key wins",
			input: "FOO=first\nFOO=second\n",
			want:  map[string]string{"FOO": "second"},
		},
		{
			name:    "missing equals",
			input:   "JUSTAKEY\n",
			wantErr: true,
		},
		{
			name:    "invalid key",
			input:   "1BAD=value\n",
			wantErr: true,
		},
		{
			name:    "unterminated double quote",
			input:   `BROKEN="no closing` + "\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseDotenv(strings.NewReader(tt.input), "test.env")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, ErrDotenvSyntax) {
					t.Errorf("expected ErrDotenvSyntax, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d vars, want %d: %v", len(got), len(tt.want), got)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("var %s = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestDotenvSyntaxErrorPosition(t *testing.T) {
	t.Parallel()

	_, err := ParseDotenv(strings.NewReader("GOOD=1\nbroken line\n"), "proj.env")
	var syntaxErr *DotenvSyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Fatalf("expected DotenvSyntaxError, got %v", err)
	}
	if syntaxErr.Line != 2 {
		t.Errorf("Line = %d, want 2", syntaxErr.Line)
	}
	if syntaxErr.File != "proj.env" {
		t.Errorf("File = %q, want %q", syntaxErr.File, "proj.env")
	}
}

func TestLoadDotenvFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("DB_HOST=localhost\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("relative path resolves against base", func(t *testing.T) {
		t.Parallel()

		vars, err := LoadDotenvFile(stackfile.DotenvFilePath(".env"), dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if vars["DB_HOST"] != "localhost" {
			t.Errorf("DB_HOST = %q, want %q", vars["DB_HOST"], "localhost")
		}
	})

	t.Run("missing required file fails", func(t *testing.T) {
		t.Parallel()

		_, err := LoadDotenvFile(stackfile.DotenvFilePath("absent.env"), dir)
		if err == nil {
			t.Fatal("expected error for missing required file")
		}
	})

	t.Run("missing optional file is skipped", func(t *testing.T) {
		t.Parallel()

		vars, err := LoadDotenvFile(stackfile.DotenvFilePath("absent.env?"), dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(vars) != 0 {
			t.Errorf("expected empty map, got %v", vars)
		}
	})
}
