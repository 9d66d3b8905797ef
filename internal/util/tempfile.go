package util

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

const randomAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// LowDiskSpaceThreshold triggers a warning in CheckDiskSpace.
const LowDiskSpaceThreshold = 1 * GiB

// TempDir is a temporary directory removed by Cleanup.
type TempDir struct {
	path string
}

// Path returns the directory path.
func (d *TempDir) Path() string {
	return d.path
}

// Cleanup removes the directory and its contents.
func (d *TempDir) Cleanup() error {
	return os.RemoveAll(d.path)
}

// EnsureDirectoryWritable verifies that path is an existing writable directory.
func EnsureDirectoryWritable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	probe, err := os.CreateTemp(path, ".vidsim_write_probe_*")
	if err != nil {
		return fmt.Errorf("directory %s is not writable: %w", path, err)
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(name)
}

// CreateTempDir creates a uniquely named directory prefix_<random> in baseDir.
func CreateTempDir(baseDir, prefix string) (*TempDir, error) {
	if err := EnsureDirectory(baseDir); err != nil {
		return nil, err
	}
	path, err := os.MkdirTemp(baseDir, prefix+"_")
	if err != nil {
		return nil, err
	}
	return &TempDir{path: path}, nil
}

// CreateTempFilePath returns a unique path prefix_<uuid>.ext in baseDir
// without creating the file.
func CreateTempFilePath(baseDir, prefix, ext string) (string, error) {
	if baseDir == "" {
		return "", fmt.Errorf("base directory is required")
	}
	name := fmt.Sprintf("%s_%s", prefix, uuid.NewString())
	if ext != "" {
		name += "." + strings.TrimPrefix(ext, ".")
	}
	return filepath.Join(baseDir, name), nil
}

// CleanupStaleTempFiles removes files in dir named prefix_* that are older
// than maxAge. A missing directory is not an error.
func CleanupStaleTempFiles(dir, prefix string, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix+"_") {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

// GetAvailableSpace returns free bytes available to unprivileged users on the
// filesystem holding path, or 0 when it cannot be determined.
func GetAvailableSpace(path string) uint64 {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0
	}
	return stat.Bavail * uint64(stat.Bsize)
}

// CheckDiskSpace warns through logf when free space at path is low.
// Returns false when the warning was issued.
func CheckDiskSpace(path string, logf func(format string, args ...any)) bool {
	available := GetAvailableSpace(path)
	if available == 0 || available >= LowDiskSpaceThreshold {
		return true
	}
	if logf != nil {
		logf("Low disk space at %s: %s available", path, FormatBytes(available))
	}
	return false
}

// EnsureFreeSpace fails when fewer than required bytes are free at path.
// Unknown free space is treated as sufficient.
func EnsureFreeSpace(path string, required uint64) error {
	available := GetAvailableSpace(path)
	if available == 0 || available >= required {
		return nil
	}
	return fmt.Errorf("insufficient disk space at %s: need %s, have %s",
		path, FormatBytes(required), FormatBytes(available))
}

// RandomName returns n random characters from [a-z0-9].
func RandomName(n int) (string, error) {
	return generateRandomString(n)
}

func generateRandomString(n int) (string, error) {
	limit := big.NewInt(int64(len(randomAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b[i] = randomAlphabet[idx.Int64()]
	}
	return string(b), nil
}
