package utils

import (
	"path/filepath"
	"strings"
	"sync"

	ignore "github.com/sabhiram/go-gitignore"
)

// ScanIgnoreFile holds extra ignore patterns for the scanner only, in
// .gitignore syntax.
const ScanIgnoreFile = ".codai-scan-ignore"

var defaultIgnoredNames = map[string]bool{
	"codai-scan-config.yml":  true,
	"codai-scan-config.json": true,
	".codai-scan":            true,
	ScanIgnoreFile:           true,
	".gitignore":             true,
	".git":                   true,
	".svn":                   true,
	".hg":                    true,
	".idea":                  true,
	".vscode":                true,
	".cache":                 true,
	"bin":                    true,
	"obj":                    true,
	"dist":                   true,
	"out":                    true,
	"build":                  true,
	"target":                 true,
	"vendor":                 true,
	"node_modules":           true,
	"__pycache__":            true,
	".venv":                  true,
	"venv":                   true,
	".next":                  true,
	".gradle":                true,
	".DS_Store":              true,
}

var defaultIgnoredSuffixes = []string{
	".sum", ".lock", ".tmp", ".tmpl",
	".exe", ".dll", ".so", ".dylib", ".a", ".o", ".class", ".jar", ".pyc",
	".log", ".bak", ".bkp",
	".mp3", ".wav", ".aac", ".flac", ".ogg",
	".jpg", ".jpeg", ".png", ".gif", ".ico", ".webp", ".pdf",
	".mkv", ".mp4", ".avi", ".mov", ".wmv",
	".zip", ".tar", ".gz", ".7z",
	".woff", ".woff2", ".ttf",
	".drawio", ".excalidraw",
	".min.js", ".min.css",
}

// IsDefaultIgnored reports whether any element of path is a directory or
// file the scanner never reads, or the file has an ignored extension.
func IsDefaultIgnored(path string) bool {
	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' })
	for _, part := range parts {
		if defaultIgnoredNames[part] {
			return true
		}
	}
	if len(parts) == 0 {
		return false
	}
	name := strings.ToLower(parts[len(parts)-1])
	for _, suffix := range defaultIgnoredSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// GitIgnoreCache applies nested .gitignore files, and the root's
// ScanIgnoreFile, to paths under root. Ignore files are compiled lazily
// the first time a directory is consulted.
type GitIgnoreCache struct {
	root    string
	mu      sync.Mutex
	ignores map[string]*ignore.GitIgnore
	visited map[string]bool
	scan    *ignore.GitIgnore
}

// NewGitIgnoreCache creates a cache rooted at root.
func NewGitIgnoreCache(root string) *GitIgnoreCache {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = filepath.Clean(root)
	}
	c := &GitIgnoreCache{
		root:    absRoot,
		ignores: make(map[string]*ignore.GitIgnore),
		visited: make(map[string]bool),
	}
	if gi, err := ignore.CompileIgnoreFile(filepath.Join(absRoot, ScanIgnoreFile)); err == nil {
		c.scan = gi
	}
	return c
}

func (c *GitIgnoreCache) load(dir string) *ignore.GitIgnore {
	if !c.visited[dir] {
		c.visited[dir] = true
		if gi, err := ignore.CompileIgnoreFile(filepath.Join(dir, ".gitignore")); err == nil {
			c.ignores[dir] = gi
		}
	}
	return c.ignores[dir]
}

// ShouldIgnore checks absPath against every ignore file between its
// directory and the root.
func (c *GitIgnoreCache) ShouldIgnore(absPath string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.scan != nil {
		if rel, err := filepath.Rel(c.root, absPath); err == nil && c.scan.MatchesPath(filepath.ToSlash(rel)) {
			return true
		}
	}

	dir := filepath.Dir(absPath)
	for {
		if gi := c.load(dir); gi != nil {
			rel, err := filepath.Rel(dir, absPath)
			if err == nil && gi.MatchesPath(filepath.ToSlash(rel)) {
				return true
			}
		}
		if dir == c.root {
			return false
		}
		parent := filepath.Dir(dir)
		if parent == dir || !strings.HasPrefix(dir, c.root) {
			return false
		}
		dir = parent
	}
}

// IsIgnored combines the default rules and the ignore files for a path
// relative to the cache root.
func (c *GitIgnoreCache) IsIgnored(relPath string) bool {
	if IsDefaultIgnored(relPath) {
		return true
	}
	return c.ShouldIgnore(filepath.Join(c.root, filepath.FromSlash(relPath)))
}

// Root returns the absolute root directory.
func (c *GitIgnoreCache) Root() string {
	return c.root
}
