package errors

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "main.py", false},
		{"valid nested", "src/app/main.py", false},
		{"valid with dash", "my-file.go", false},
		{"valid with dot", "file.test.ts", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 600), true},
		{"absolute", "/etc/passwd", true},
		{"path traversal", "foo/../bar", true},
		{"leading traversal", "../secret", true},
		{"backslash", `src\main.py`, true},
		{"null byte", "file\x00.py", true},
		{"control character", "file\x07.py", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("error code = %v, want %v", GetCode(err), ErrCodeInvalidPath)
			}
		})
	}
}

func TestValidateRepoPath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("existing directory", func(t *testing.T) {
		if err := ValidateRepoPath(dir); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("empty", func(t *testing.T) {
		err := ValidateRepoPath("")
		if !Is(err, ErrCodeInvalidInput) {
			t.Errorf("error = %v, want %v", err, ErrCodeInvalidInput)
		}
	})

	t.Run("missing", func(t *testing.T) {
		err := ValidateRepoPath(filepath.Join(dir, "nope"))
		if !Is(err, ErrCodeRepoNotFound) {
			t.Errorf("error = %v, want %v", err, ErrCodeRepoNotFound)
		}
	})

	t.Run("not a directory", func(t *testing.T) {
		err := ValidateRepoPath(file)
		if !Is(err, ErrCodeRepoNotFound) {
			t.Errorf("error = %v, want %v", err, ErrCodeRepoNotFound)
		}
	})
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid http", "http://example.com", false},
		{"valid https", "https://example.com/path", false},
		{"empty", "", true},
		{"no scheme", "example.com", true},
		{"file scheme", "file:///etc/passwd", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
