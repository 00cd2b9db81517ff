package code_analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/meysamhadeli/codaiscan/code_analyzer/models"
)

const (
	maxManifestDirs        = 8
	manifestTruncateMarker = "\n... [manifest truncated]"
)

// renderManifests gives each chunk a header that places it in the run:
// its position, the directories it covers and the files in other chunks its
// members import or are imported by.
func renderManifests(chunks []models.Chunk, graph *DependencyGraph) {
	chunkOf := make(map[string]int)
	for _, c := range chunks {
		for _, f := range c.Files {
			chunkOf[f.RelativePath] = c.Index
		}
	}
	for i := range chunks {
		chunks[i].Manifest = truncateManifest(
			renderManifest(chunks[i], len(chunks), graph, chunkOf),
			ManifestReserve(chunks[i].Budget),
		)
	}
}

func renderManifest(chunk models.Chunk, total int, graph *DependencyGraph, chunkOf map[string]int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Chunk %d/%d (%d files)\n", chunk.Index+1, total, len(chunk.Files))

	counts := make(map[string]int)
	for _, f := range chunk.Files {
		counts[f.Dir]++
	}
	dirs := make([]string, 0, len(counts))
	for d := range counts {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	parts := make([]string, 0, maxManifestDirs)
	for i, d := range dirs {
		if i == maxManifestDirs {
			parts = append(parts, fmt.Sprintf("+%d more", len(dirs)-maxManifestDirs))
			break
		}
		parts = append(parts, fmt.Sprintf("%s (%d)", d, counts[d]))
	}
	b.WriteString("Directories: " + strings.Join(parts, ", ") + "\n")

	var related []string
	for _, f := range chunk.Files {
		for _, n := range graph.Neighbors(f.RelativePath) {
			other, ok := chunkOf[n]
			if !ok || other == chunk.Index {
				continue
			}
			related = append(related, fmt.Sprintf("- %s (chunk %d) <-> %s", n, other+1, f.RelativePath))
		}
	}
	if len(related) > 0 {
		b.WriteString("Related files in other chunks:\n")
		b.WriteString(strings.Join(related, "\n"))
	}
	return strings.TrimRight(b.String(), "\n")
}

// truncateManifest cuts a manifest at a line boundary so that it fits limit
// characters including the truncation marker.
func truncateManifest(manifest string, limit int) string {
	if len(manifest) <= limit {
		return manifest
	}
	if limit <= len(manifestTruncateMarker) {
		return cutAtRune(strings.TrimPrefix(manifestTruncateMarker, "\n"), limit)
	}
	cut := cutAtRune(manifest, limit-len(manifestTruncateMarker))
	if i := strings.LastIndex(cut, "\n"); i > 0 {
		cut = cut[:i]
	}
	return cut + manifestTruncateMarker
}
