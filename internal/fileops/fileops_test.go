package fileops

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/quocvuong92/helios/internal/constants"
)

// createTestDir creates a temporary directory that is not under blocked paths.
// On macOS, t.TempDir() returns /var/folders/... which is blocked.
func createTestDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("/tmp", "helios-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestIsPathSafe(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		wantSafe bool
	}{
		{"safe relative path", "test.txt", true},
		{"safe absolute path in tmp", "/tmp/test.txt", true},
		{"blocked /etc path", "/etc/passwd", false},
		{"blocked /usr path", "/usr/bin/test", false},
		{"blocked /proc path", "/proc/1/status", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			safe, _ := IsPathSafe(tt.path)
			if safe != tt.wantSafe {
				t.Errorf("IsPathSafe(%q) = %v, want %v", tt.path, safe, tt.wantSafe)
			}
		})
	}
}

// =============================================================================
// ReadText Tests
// =============================================================================

func TestReadText(t *testing.T) {
	tmpDir := createTestDir(t)
	textFile := filepath.Join(tmpDir, "main.go")
	writeTestFile(t, textFile, "package main\n")

	t.Run("text file", func(t *testing.T) {
		got, err := ReadText(textFile)
		if err != nil {
			t.Fatalf("ReadText() error = %v", err)
		}
		if got != "package main\n" {
			t.Errorf("ReadText() = %q", got)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadText(filepath.Join(tmpDir, "missing.go"))
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("ReadText() error = %v, want ErrNotExist", err)
		}
	})

	t.Run("directory", func(t *testing.T) {
		_, err := ReadText(tmpDir)
		if !errors.Is(err, ErrIsDirectory) {
			t.Errorf("ReadText() error = %v, want ErrIsDirectory", err)
		}
	})

	t.Run("binary", func(t *testing.T) {
		bin := filepath.Join(tmpDir, "blob.dat")
		writeTestFile(t, bin, "abc\x00def")
		_, err := ReadText(bin)
		if !errors.Is(err, ErrBinary) {
			t.Errorf("ReadText() error = %v, want ErrBinary", err)
		}
	})

	t.Run("too large", func(t *testing.T) {
		large := filepath.Join(tmpDir, "large.txt")
		writeTestFile(t, large, strings.Repeat("x", constants.MaxContextFileSize+1))
		_, err := ReadText(large)
		if !errors.Is(err, ErrTooLarge) {
			t.Errorf("ReadText() error = %v, want ErrTooLarge", err)
		}
	})
}

// =============================================================================
// WriteFile Tests
// =============================================================================

func TestWriteFile(t *testing.T) {
	tmpDir := createTestDir(t)

	t.Run("creates parent directories", func(t *testing.T) {
		path := filepath.Join(tmpDir, "sub", "deep", "file.txt")
		if err := WriteFile(path, "deep"); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil || string(data) != "deep" {
			t.Errorf("content = %q, err = %v", data, err)
		}
	})

	t.Run("overwrites", func(t *testing.T) {
		path := filepath.Join(tmpDir, "over.txt")
		writeTestFile(t, path, "old")
		if err := WriteFile(path, "new"); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		data, _ := os.ReadFile(path)
		if string(data) != "new" {
			t.Errorf("content = %q, want %q", data, "new")
		}
	})

	t.Run("refuses directory", func(t *testing.T) {
		dir := filepath.Join(tmpDir, "adir")
		os.MkdirAll(dir, 0755)
		if err := WriteFile(dir, "x"); !errors.Is(err, ErrIsDirectory) {
			t.Errorf("WriteFile() error = %v, want ErrIsDirectory", err)
		}
	})

	t.Run("refuses protected path", func(t *testing.T) {
		if err := WriteFile("/etc/helios-test.txt", "x"); !errors.Is(err, ErrProtected) {
			t.Errorf("WriteFile() error = %v, want ErrProtected", err)
		}
	})
}

func TestCreateEmpty(t *testing.T) {
	tmpDir := createTestDir(t)
	path := filepath.Join(tmpDir, "pkg", "new.go")

	if err := CreateEmpty(path); err != nil {
		t.Fatalf("CreateEmpty() error = %v", err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() != 0 {
		t.Errorf("expected empty file, stat = %v, err = %v", info, err)
	}
	if err := CreateEmpty(path); !errors.Is(err, ErrExists) {
		t.Errorf("CreateEmpty() second call error = %v, want ErrExists", err)
	}
}

// =============================================================================
// WalkRepo Tests
// =============================================================================

func TestWalkRepo(t *testing.T) {
	root := createTestDir(t)
	writeTestFile(t, filepath.Join(root, "main.go"), "package main")
	writeTestFile(t, filepath.Join(root, "internal", "a", "a.go"), "package a")
	writeTestFile(t, filepath.Join(root, ".git", "HEAD"), "ref: refs/heads/main")
	writeTestFile(t, filepath.Join(root, "node_modules", "x", "index.js"), "x")
	writeTestFile(t, filepath.Join(root, "__pycache__", "m.pyc"), "x")
	writeTestFile(t, filepath.Join(root, "logo.png"), "png")

	files, err := WalkRepo(root)
	if err != nil {
		t.Fatalf("WalkRepo() error = %v", err)
	}

	want := []string{filepath.Join("internal", "a", "a.go"), "main.go"}
	if len(files) != len(want) {
		t.Fatalf("WalkRepo() = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("WalkRepo()[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestWalkRepo_MissingRoot(t *testing.T) {
	if _, err := WalkRepo("/tmp/helios-does-not-exist-xyz"); err == nil {
		t.Error("WalkRepo() should fail for a missing root")
	}
}

func TestLanguageFromExtension(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"main.go", "go"},
		{"src/app.py", "python"},
		{"web/App.TSX", "tsx"},
		{"Dockerfile", "dockerfile"},
		{"notes", "text"},
		{"weird.xyz", "text"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := LanguageFromExtension(tt.path); got != tt.want {
				t.Errorf("LanguageFromExtension(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
