// Package fileops holds the filesystem primitives shared by context loading
// and change application: protected-path checks, bounded text reads, writes
// that create parent directories, and the repository walk used by /refresh.
package fileops

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/quocvuong92/helios/internal/constants"
)

var (
	ErrIsDirectory = errors.New("is a directory")
	ErrTooLarge    = errors.New("file exceeds context size limit")
	ErrBinary      = errors.New("binary file")
	ErrExists      = errors.New("file already exists")
	ErrProtected   = errors.New("path is protected")
)

// blockedPaths are system directories that are never written
var blockedPaths = []string{
	"/etc/", "/usr/", "/bin/", "/sbin/", "/boot/",
	"/sys/", "/proc/", "/dev/", "/var/", "/lib/",
	"/System/", "/Library/",
}

// skipDirs are never descended into by WalkRepo
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"__pycache__":  true,
	"vendor":       true,
	".venv":        true,
	".idea":        true,
}

// binaryExts are skipped by WalkRepo without opening the file
var binaryExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true,
	".pdf": true, ".zip": true, ".gz": true, ".tar": true, ".exe": true,
	".so": true, ".dll": true, ".dylib": true, ".o": true, ".a": true,
	".pyc": true, ".class": true, ".jar": true, ".woff": true, ".woff2": true,
}

// IsPathSafe checks if a path is safe to write.
// Returns (safe, reason) where reason explains why the path is blocked.
func IsPathSafe(path string) (bool, string) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, "invalid path"
	}

	// /etc is /private/etc on macOS; resolve the parent when the file is new
	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		absPath = resolved
	} else if resolvedDir, err := filepath.EvalSymlinks(filepath.Dir(absPath)); err == nil {
		absPath = filepath.Join(resolvedDir, filepath.Base(absPath))
	}

	for _, blocked := range blockedPaths {
		if strings.HasPrefix(absPath, blocked) || strings.HasPrefix(absPath, "/private"+blocked) {
			return false, fmt.Sprintf("path %s is protected", blocked)
		}
	}
	return true, ""
}

// ReadText reads a UTF-8 text file of at most constants.MaxContextFileSize
// bytes. Directories, binary files and oversize files are rejected.
func ReadText(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s: %w", path, ErrIsDirectory)
	}
	if info.Size() > constants.MaxContextFileSize {
		return "", fmt.Errorf("%s (%d bytes): %w", path, info.Size(), ErrTooLarge)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if looksBinary(data) {
		return "", fmt.Errorf("%s: %w", path, ErrBinary)
	}
	return string(data), nil
}

// looksBinary reports a NUL byte in the first 8KB
func looksBinary(data []byte) bool {
	if len(data) > 8000 {
		data = data[:8000]
	}
	return bytes.IndexByte(data, 0) >= 0
}

// WriteFile creates or overwrites path, creating parent directories.
// Protected paths and existing directories are refused.
func WriteFile(path, content string) error {
	if safe, reason := IsPathSafe(path); !safe {
		return fmt.Errorf("%s: %w (%s)", path, ErrProtected, reason)
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("%s: %w", path, ErrIsDirectory)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return os.WriteFile(path, []byte(content), 0644)
}

// CreateEmpty creates an empty file, failing with ErrExists when path is
// already present.
func CreateEmpty(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s: %w", path, ErrExists)
	}
	return WriteFile(path, "")
}

// WalkRepo lists the files under root that are worth loading as context,
// relative to root and in lexical order. Well-known dependency and VCS
// directories, binary extensions and oversize files are skipped.
func WalkRepo(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			// Unreadable subtrees are skipped, not fatal
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && (skipDirs[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || binaryExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		if info, err := d.Info(); err != nil || info.Size() > constants.MaxContextFileSize {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	return files, err
}

var languages = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".jsx":  "jsx",
	".ts":   "typescript",
	".tsx":  "tsx",
	".rs":   "rust",
	".java": "java",
	".kt":   "kotlin",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".cc":   "cpp",
	".hpp":  "cpp",
	".cs":   "csharp",
	".rb":   "ruby",
	".php":  "php",
	".sh":   "bash",
	".sql":  "sql",
	".html": "html",
	".css":  "css",
	".json": "json",
	".yaml": "yaml",
	".yml":  "yaml",
	".toml": "toml",
	".md":   "markdown",
	".xml":  "xml",
}

// LanguageFromExtension maps a file name to a fence language, "text" when
// the extension is unknown.
func LanguageFromExtension(path string) string {
	if lang, ok := languages[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	switch filepath.Base(path) {
	case "Dockerfile":
		return "dockerfile"
	case "Makefile":
		return "makefile"
	}
	return "text"
}
