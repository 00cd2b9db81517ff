package code_analyzer

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/meysamhadeli/codaiscan/code_analyzer/models"
)

// DependencyGraph is a symmetric adjacency relation over the scanned files:
// an import from A that resolves to B adds both A->B and B->A.
type DependencyGraph struct {
	adjacency map[string]map[string]struct{}
}

// NewDependencyGraph returns an empty graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{adjacency: make(map[string]map[string]struct{})}
}

// AddNode registers a file with no neighbors if it is not present yet.
func (g *DependencyGraph) AddNode(p string) {
	if _, ok := g.adjacency[p]; !ok {
		g.adjacency[p] = make(map[string]struct{})
	}
}

// AddEdge connects a and b in both directions. Self-edges are ignored.
func (g *DependencyGraph) AddEdge(a, b string) {
	if a == b {
		return
	}
	g.AddNode(a)
	g.AddNode(b)
	g.adjacency[a][b] = struct{}{}
	g.adjacency[b][a] = struct{}{}
}

// Neighbors returns the files connected to p, sorted.
func (g *DependencyGraph) Neighbors(p string) []string {
	set := g.adjacency[p]
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Degree is the number of files connected to p.
func (g *DependencyGraph) Degree(p string) int {
	return len(g.adjacency[p])
}

// Connected reports whether a and b share an edge.
func (g *DependencyGraph) Connected(a, b string) bool {
	_, ok := g.adjacency[a][b]
	return ok
}

// Has reports whether p is a node of the graph.
func (g *DependencyGraph) Has(p string) bool {
	_, ok := g.adjacency[p]
	return ok
}

// Nodes returns every file in the graph, sorted.
func (g *DependencyGraph) Nodes() []string {
	out := make([]string, 0, len(g.adjacency))
	for n := range g.adjacency {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// candidateSuffixes are tried, in order, after a resolved import path.
var candidateSuffixes = []string{
	"", ".go", ".py", ".js", ".jsx", ".ts", ".tsx", ".mjs", ".java", ".kt", ".rs", ".rb",
	".h", ".c", ".cpp", ".hpp", ".zig",
	"/index.js", "/index.ts", "/index.tsx", "/index.jsx", "/__init__.py", "/mod.rs",
}

// fileIndex provides lookups of known files by path, directory and suffix.
type fileIndex struct {
	byExact  map[string]string
	bySuffix map[string][]string
	goDirs   map[string][]string
}

func buildFileIndex(records []models.FileRecord) *fileIndex {
	idx := &fileIndex{
		byExact:  make(map[string]string, len(records)),
		bySuffix: make(map[string][]string),
		goDirs:   make(map[string][]string),
	}
	for _, rec := range records {
		p := rec.RelativePath
		idx.byExact[p] = p

		// "app/core/config.py" is reachable as "core/config.py" and "config.py",
		// with and without extension.
		parts := strings.Split(p, "/")
		for i := 1; i < len(parts); i++ {
			suffix := strings.Join(parts[i:], "/")
			idx.bySuffix[suffix] = append(idx.bySuffix[suffix], p)
			noExt := strings.TrimSuffix(suffix, path.Ext(suffix))
			if noExt != suffix {
				idx.bySuffix[noExt] = append(idx.bySuffix[noExt], p)
			}
		}

		if strings.HasSuffix(p, ".go") {
			dir := path.Dir(p)
			if dir == "." {
				dir = ""
			}
			idx.goDirs[dir] = append(idx.goDirs[dir], p)
		}
	}
	return idx
}

// withSuffixes tries the candidate suffixes after p and returns the first known file.
func (idx *fileIndex) withSuffixes(p string) (string, bool) {
	p = path.Clean(p)
	if p == "." || strings.HasPrefix(p, "../") || p == ".." {
		return "", false
	}
	for _, suffix := range candidateSuffixes {
		if f, ok := idx.byExact[p+suffix]; ok {
			return f, true
		}
	}
	// "./b.js" written in a TypeScript project refers to b.ts.
	if ext := path.Ext(p); ext != "" {
		base := strings.TrimSuffix(p, ext)
		for _, suffix := range candidateSuffixes[1:] {
			if f, ok := idx.byExact[base+suffix]; ok {
				return f, true
			}
		}
	}
	return "", false
}

// suffixMatch resolves a multi-segment import only when exactly one file ends with it.
func (idx *fileIndex) suffixMatch(p string) (string, bool) {
	for _, ext := range []string{"", ".py", ".java", ".kt", ".js", ".ts", ".tsx", ".rs", ".rb", ".go"} {
		if files := dedupe(idx.bySuffix[p+ext]); len(files) == 1 {
			return files[0], true
		}
	}
	if files := dedupe(idx.bySuffix[p+"/__init__.py"]); len(files) == 1 {
		return files[0], true
	}
	return "", false
}

// BuildDependencyGraph resolves every record's raw imports against the record
// set. Unresolved imports are dropped; every record is a node.
func BuildDependencyGraph(records []models.FileRecord, cwd string) *DependencyGraph {
	g := NewDependencyGraph()
	idx := buildFileIndex(records)
	goModule := detectGoModule(cwd)

	for _, rec := range records {
		g.AddNode(rec.RelativePath)
		for _, imp := range rec.Imports {
			for _, target := range resolveImport(imp, rec, idx, goModule) {
				g.AddEdge(rec.RelativePath, target)
			}
		}
	}
	return g
}

// resolveImport maps one raw import string from rec onto known files.
func resolveImport(imp string, rec models.FileRecord, idx *fileIndex, goModule string) []string {
	imp = strings.Trim(strings.TrimSpace(imp), "\"'`")
	if imp == "" {
		return nil
	}
	fromDir := rec.Dir
	if fromDir == "." {
		fromDir = ""
	}

	one := func(f string, ok bool) []string {
		if ok {
			return []string{f}
		}
		return nil
	}

	switch {
	case rec.Language == "go":
		if goModule == "" || (imp != goModule && !strings.HasPrefix(imp, goModule+"/")) {
			return nil
		}
		dir := strings.TrimPrefix(strings.TrimPrefix(imp, goModule), "/")
		return idx.goDirs[dir]

	case rec.Language == "rust":
		return one(resolveRust(imp, fromDir, idx))

	case rec.Language == "c" || rec.Language == "cpp":
		if f, ok := idx.withSuffixes(path.Join(fromDir, imp)); ok {
			return []string{f}
		}
		return one(idx.withSuffixes(imp))

	case rec.Language == "ruby":
		return one(idx.withSuffixes(path.Join(fromDir, imp)))

	case rec.Language == "python" && !strings.HasPrefix(imp, "."):
		module := strings.ReplaceAll(imp, ".", "/")
		if f, ok := idx.withSuffixes(module); ok {
			return []string{f}
		}
		// Scripts run from their own directory import siblings by bare name.
		if f, ok := idx.withSuffixes(path.Join(fromDir, module)); ok {
			return []string{f}
		}
		if strings.Contains(module, "/") {
			return one(idx.suffixMatch(module))
		}
		return nil

	case strings.HasPrefix(imp, "./") || strings.HasPrefix(imp, "../"):
		return one(idx.withSuffixes(path.Join(fromDir, imp)))

	case strings.HasPrefix(imp, "."):
		return one(resolvePythonRelative(imp, fromDir, idx))

	case strings.Contains(imp, ".") && !strings.Contains(imp, "/"):
		dotted := strings.ReplaceAll(imp, ".", "/")
		if f, ok := idx.withSuffixes(dotted); ok {
			return []string{f}
		}
		if f, ok := idx.suffixMatch(dotted); ok {
			return []string{f}
		}
		// "pkg.module.Name" may name a symbol inside pkg/module.
		if i := strings.LastIndex(dotted, "/"); i > 0 {
			if f, ok := idx.withSuffixes(dotted[:i]); ok {
				return []string{f}
			}
			return one(idx.suffixMatch(dotted[:i]))
		}
		return nil

	case strings.Contains(imp, "/"):
		if f, ok := idx.withSuffixes(imp); ok {
			return []string{f}
		}
		return one(idx.suffixMatch(imp))
	}
	return nil
}

// resolvePythonRelative handles "from .mod import x" and "from ..pkg.mod import y".
func resolvePythonRelative(imp, fromDir string, idx *fileIndex) (string, bool) {
	levels := 0
	for levels < len(imp) && imp[levels] == '.' {
		levels++
	}
	target := fromDir
	for i := 1; i < levels; i++ {
		target = path.Dir(target)
		if target == "." {
			target = ""
		}
	}
	rest := strings.ReplaceAll(imp[levels:], ".", "/")
	if rest == "" {
		return idx.withSuffixes(path.Join(target, "__init__.py"))
	}
	return idx.withSuffixes(path.Join(target, rest))
}

// resolveRust handles crate::, super:: and self:: paths, dropping trailing
// segments that name items rather than modules.
func resolveRust(imp, fromDir string, idx *fileIndex) (string, bool) {
	segments := strings.Split(imp, "::")
	var bases []string
	switch segments[0] {
	case "crate":
		bases = []string{"src", ""}
	case "super":
		parent := path.Dir(fromDir)
		if parent == "." {
			parent = ""
		}
		bases = []string{parent}
	case "self":
		bases = []string{fromDir}
	default:
		return "", false
	}
	rest := segments[1:]
	for n := len(rest); n > 0; n-- {
		rel := strings.Join(rest[:n], "/")
		for _, base := range bases {
			if f, ok := idx.withSuffixes(path.Join(base, rel)); ok {
				return f, true
			}
		}
	}
	return "", false
}

// detectGoModule reads the module path from cwd/go.mod, "" when absent.
func detectGoModule(cwd string) string {
	f, err := os.Open(filepath.Join(cwd, "go.mod"))
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "module ") {
			return strings.Trim(strings.TrimSpace(strings.TrimPrefix(line, "module ")), `"`)
		}
	}
	return ""
}
