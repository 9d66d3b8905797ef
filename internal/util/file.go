package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// VideoExtensions is the list of video file extensions accepted for comparison.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".m4v":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
	".avi":  true,
	".ts":   true,
}

// TransformExtensions lists the extensions picked up from the incoming directory.
var TransformExtensions = map[string]bool{
	".mp4": true,
	".mov": true,
}

// IsVideoFile checks if the given path is an existing file with a video extension.
func IsVideoFile(path string) bool {
	return hasExtensionIn(path, VideoExtensions)
}

// IsTransformCandidate checks if path is an existing file the transform pipeline accepts.
func IsTransformCandidate(path string) bool {
	return hasExtensionIn(path, TransformExtensions)
}

func hasExtensionIn(path string, exts map[string]bool) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return exts[strings.ToLower(filepath.Ext(path))]
}

// GetFilename returns the filename from a path.
func GetFilename(path string) string {
	return filepath.Base(path)
}

// GetFileSize returns the size of a file in bytes.
func GetFileSize(path string) (uint64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return uint64(info.Size()), nil
}

// EnsureDirectory creates a directory if it doesn't exist.
func EnsureDirectory(path string) error {
	return os.MkdirAll(path, 0755)
}

// DirectoryExists checks if a directory exists.
func DirectoryExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// RandomOutputPath returns a path in outputDir named with nameLen random
// characters and ext, retrying on the unlikely event of a collision.
func RandomOutputPath(outputDir string, nameLen int, ext string) (string, error) {
	ext = "." + strings.TrimPrefix(ext, ".")
	for range 16 {
		name, err := RandomName(nameLen)
		if err != nil {
			return "", err
		}
		path := filepath.Join(outputDir, name+ext)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		}
	}
	return "", fmt.Errorf("could not find a free output name in %s", outputDir)
}

// ListFiles returns the set of regular file names directly inside dir.
func ListFiles(dir string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			files[entry.Name()] = struct{}{}
		}
	}
	return files, nil
}

// RemoveIfExists deletes path, ignoring a file that is already gone.
func RemoveIfExists(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
