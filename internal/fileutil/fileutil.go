// Package fileutil provides file and path utility functions.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors for file utility operations.
var (
	ErrExtensionEmpty         = errors.New("extension cannot be empty")
	ErrExtensionPathTraversal = errors.New("extension contains path separator or null byte")
)

// OutputFileMode is the permission used for generated documents.
const OutputFileMode = 0o644

// SiblingTempPath returns "<dir>/<base>_temp.<extension>" for target, where
// base is target's file name without its extension.
func SiblingTempPath(target, extension string) string {
	return filepath.Join(filepath.Dir(target), Stem(target)+"_temp."+extension)
}

// WriteSiblingTemp writes content next to target (see SiblingTempPath) so
// relative resources resolve from the same directory as the final output.
// Returns the file path and a cleanup function to remove the file.
func WriteSiblingTemp(target, content, extension string) (path string, cleanup func(), err error) {
	if err := ValidateExtension(extension); err != nil {
		return "", nil, err
	}

	path = SiblingTempPath(target, extension)
	cleanup = func() { _ = os.Remove(path) }

	// #nosec G304 G306 -- path derives from the user's output path; the browser reads it as the same user
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("writing temp file: %w", err)
	}

	return path, cleanup, nil
}

// WriteFile writes content to path with OutputFileMode, replacing any
// existing file.
func WriteFile(path, content string) error {
	// #nosec G306 -- generated documents are meant to be world-readable
	if err := os.WriteFile(path, []byte(content), OutputFileMode); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ValidateExtension checks that the extension is safe for use in temp file names.
func ValidateExtension(extension string) error {
	if extension == "" {
		return ErrExtensionEmpty
	}
	if strings.ContainsAny(extension, "/\\\x00") {
		return ErrExtensionPathTraversal
	}
	return nil
}

// Stem returns the base name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ReplaceExtension swaps the extension of path for ext (given with its dot).
// A path without extension gets ext appended.
func ReplaceExtension(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// IsFilePath returns true if the string looks like a file path rather than a name.
// A string containing path separators (/, \) is treated as a path.
//
// Examples:
//   - "default" -> false (name)
//   - "./custom.css" -> true (relative path)
//   - "../shared/style.css" -> true (parent path)
//   - "/absolute/path.css" -> true (absolute)
//   - "C:\windows\path.css" -> true (Windows)
//   - "my-style" -> false (hyphenated name)
func IsFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}
