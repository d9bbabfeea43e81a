package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/MeKo-Tech/noteclean/internal/utils"
)

// DiscoveryOptions controls which files DiscoverImagesWith returns.
type DiscoveryOptions struct {
	Recursive bool
	// Include and Exclude are filepath.Match patterns applied to the base
	// name. Exclude wins; an empty Include accepts everything.
	Include []string
	Exclude []string
}

// DiscoverImages lists the supported image files in dir, sorted lexically.
func DiscoverImages(dir string, recursive bool) ([]string, error) {
	return DiscoverImagesWith(dir, DiscoveryOptions{Recursive: recursive})
}

// DiscoverImagesWith is DiscoverImages with include/exclude patterns. An
// unreadable directory is an error; an empty result is ErrNoImages.
func DiscoverImagesWith(dir string, opts DiscoveryOptions) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot access %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	var files []string
	walkFn := func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !opts.Recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if utils.IsSupportedImage(path) && shouldIncludeFile(path, opts.Include, opts.Exclude) {
			files = append(files, path)
		}
		return nil
	}
	if err := filepath.WalkDir(dir, walkFn); err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoImages, dir)
	}
	sort.Strings(files)
	return files, nil
}

func shouldIncludeFile(path string, include, exclude []string) bool {
	if matchesAnyPattern(path, exclude) {
		return false
	}
	if len(include) == 0 {
		return true
	}
	return matchesAnyPattern(path, include)
}

func matchesAnyPattern(path string, patterns []string) bool {
	base := filepath.Base(path)
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
