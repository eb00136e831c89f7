package fileops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolveWithin resolves relPath against rootDir and verifies that the
// resolved path remains inside rootDir. It returns the absolute path of the
// target on success.
//
// The check happens after resolution: a relative path built from traversal
// sequences ("../../etc/passwd") and an absolute path smuggled in as relPath
// are both rejected, regardless of how they are spelled.
//
// Usage example:
//
//	abs, err := fileops.ResolveWithin("/srv/protocols", "debug_protocol.md")
//	if err != nil {
//	    return err // path escapes the protocols root
//	}
func ResolveWithin(rootDir, relPath string) (string, error) {
	if strings.TrimSpace(relPath) == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return "", fmt.Errorf("cannot resolve root directory: %w", err)
	}

	resolved := filepath.Clean(filepath.Join(absRoot, relPath))

	rel, err := filepath.Rel(absRoot, resolved)
	if err != nil {
		return "", fmt.Errorf("cannot determine relative path: %w", err)
	}

	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("path escapes document root: %q", relPath)
	}

	return resolved, nil
}

// ValidateFileInDirectory validates that a file path is within a specified
// base directory, exists, and is a regular file. Symlinked files are resolved
// and the resolved target must also stay within the base directory.
func ValidateFileInDirectory(filePath, baseDir string) error {
	absFilePath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("cannot resolve file path: %w", err)
	}

	absBaseDir, err := filepath.Abs(baseDir)
	if err != nil {
		return fmt.Errorf("cannot resolve base directory: %w", err)
	}

	relPath, err := filepath.Rel(absBaseDir, absFilePath)
	if err != nil {
		return fmt.Errorf("cannot determine relative path: %w", err)
	}

	if strings.HasPrefix(relPath, "..") {
		return fmt.Errorf("file is not within base directory")
	}

	fileInfo, err := os.Lstat(absFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", filepath.Base(filePath))
		}
		return fmt.Errorf("cannot access file: %w", err)
	}

	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file")
	}

	if fileInfo.Mode()&os.ModeSymlink != 0 {
		resolved, err := filepath.EvalSymlinks(absFilePath)
		if err != nil {
			return fmt.Errorf("cannot resolve symlink: %w", err)
		}

		relResolved, err := filepath.Rel(absBaseDir, resolved)
		if err != nil {
			return fmt.Errorf("cannot determine resolved relative path: %w", err)
		}

		if strings.HasPrefix(relResolved, "..") {
			return fmt.Errorf("symlink resolves outside base directory")
		}
	}

	return nil
}

// ValidateFileAccess checks that a file exists, is a regular file, and is
// readable. It is used before handing file contents to external callers so
// failures surface as descriptive errors instead of a failed read.
func ValidateFileAccess(filePath string) error {
	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", filePath)
		}
		return fmt.Errorf("cannot access file: %w", err)
	}

	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("file is not readable: %w", err)
	}
	file.Close()

	return nil
}

// ValidateFileSizeLimit checks if a file size is within acceptable limits.
// This prevents memory exhaustion from very large documents.
func ValidateFileSizeLimit(filePath string, maxSize int64) error {
	if maxSize <= 0 {
		return fmt.Errorf("invalid size limit: %d", maxSize)
	}

	fileInfo, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", filepath.Base(filePath))
		}
		return fmt.Errorf("cannot access file: %w", err)
	}

	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	if fileInfo.Size() > maxSize {
		return fmt.Errorf("file size %d bytes exceeds limit %d bytes", fileInfo.Size(), maxSize)
	}

	return nil
}
