package utils

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

const (
	// MaxFileSize is the largest file discovery returns.
	MaxFileSize = 512 << 10
	sniffSize   = 8000
)

// DiscoverFiles walks root and returns the slash-separated relative paths
// of every text file that is not ignored and not larger than MaxFileSize.
func DiscoverFiles(root string) ([]string, error) {
	return discover(NewGitIgnoreCache(root), root)
}

// ResolveScanTargets turns command-line targets into relative file paths.
// Directories are walked like DiscoverFiles; files are taken as given
// unless ignored. No targets means the whole root.
func ResolveScanTargets(root string, targets []string) ([]string, error) {
	ignores := NewGitIgnoreCache(root)
	if len(targets) == 0 {
		return discover(ignores, ignores.Root())
	}

	seen := make(map[string]bool)
	var files []string
	for _, target := range targets {
		abs := target
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(ignores.Root(), target)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("cannot scan %s: %w", target, err)
		}

		var found []string
		if info.IsDir() {
			found, err = discover(ignores, abs)
			if err != nil {
				return nil, err
			}
		} else {
			rel, err := filepath.Rel(ignores.Root(), abs)
			if err != nil {
				return nil, fmt.Errorf("cannot scan %s: %w", target, err)
			}
			rel = filepath.ToSlash(rel)
			if !ignores.IsIgnored(rel) && info.Size() <= MaxFileSize {
				found = []string{rel}
			}
		}
		for _, f := range found {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

func discover(ignores *GitIgnoreCache, dir string) ([]string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	err = filepath.WalkDir(absDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != absDir {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(ignores.Root(), path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path != ignores.Root() && ignores.IsIgnored(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || ignores.IsIgnored(rel) {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() > MaxFileSize || isBinaryFile(path) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// isBinaryFile looks for a NUL byte in the first few kilobytes.
func isBinaryFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return true
	}
	defer f.Close()
	buf := make([]byte, sniffSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return true
	}
	return bytes.IndexByte(buf[:n], 0) >= 0
}
