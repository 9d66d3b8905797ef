// Package discovery finds the input videos a batch transform works on.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	vserrors "github.com/five82/vidsim/internal/errors"
	"github.com/five82/vidsim/internal/util"
)

// DiscoveryResult contains the results of file discovery with metadata.
type DiscoveryResult struct {
	Files        []string
	SkippedCount int
}

// Matcher decides whether a path is wanted.
type Matcher func(path string) bool

// FindTransformCandidates finds .mp4 and .mov files directly inside inputDir.
// Returns files sorted alphabetically by filename.
func FindTransformCandidates(inputDir string) ([]string, error) {
	result, err := scan(inputDir, util.IsTransformCandidate)
	if err != nil {
		return nil, err
	}
	return result.Files, nil
}

func scan(inputDir string, match Matcher) (*DiscoveryResult, error) {
	info, err := os.Stat(inputDir)
	if err != nil {
		return nil, vserrors.NewPathError(fmt.Sprintf("directory does not exist: %s", inputDir))
	}
	if !info.IsDir() {
		return nil, vserrors.NewPathError(fmt.Sprintf("%s is not a directory", inputDir))
	}

	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, vserrors.NewIOError(fmt.Sprintf("cannot read directory %s", inputDir), err)
	}

	result := &DiscoveryResult{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()

		// Skip hidden files
		if strings.HasPrefix(name, ".") {
			continue
		}

		fullPath := filepath.Join(inputDir, name)
		if match(fullPath) {
			result.Files = append(result.Files, fullPath)
		} else {
			result.SkippedCount++
		}
	}

	if len(result.Files) == 0 {
		return nil, vserrors.NewNoFilesFoundError(inputDir)
	}

	sort.Slice(result.Files, func(i, j int) bool {
		return strings.ToLower(filepath.Base(result.Files[i])) < strings.ToLower(filepath.Base(result.Files[j]))
	})

	return result, nil
}
