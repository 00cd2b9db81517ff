package code_analyzer

import (
	"sort"

	"github.com/meysamhadeli/codaiscan/code_analyzer/models"
)

const (
	// FileHeaderOverhead is charged per file for its "### File:" header and fences.
	FileHeaderOverhead = 60
	// ManifestBudget is the largest manifest rendered for a chunk.
	ManifestBudget = 1200
	// minChunkBudget keeps a degenerate budget able to hold one file header.
	minChunkBudget = FileHeaderOverhead * 4
	// minFileContent is the least content a rebuilt file is compressed to.
	minFileContent = 120
)

// ManifestReserve is the part of budget set aside for the chunk manifest.
func ManifestReserve(budget int) int {
	reserve := budget / 10
	if reserve > ManifestBudget {
		reserve = ManifestBudget
	}
	return reserve
}

func packingCapacity(budget int) int {
	return budget - ManifestReserve(budget)
}

func fileCost(rec models.FileRecord) int {
	return len(rec.Content) + FileHeaderOverhead
}

// AssembleChunks packs records into chunks whose cost stays within the
// packing capacity of budget, keeping import neighbors and directory
// siblings together. Every record ends up in exactly one chunk.
func AssembleChunks(records []models.FileRecord, graph *DependencyGraph, budget int) []models.Chunk {
	if len(records) == 0 {
		return nil
	}
	if budget < minChunkBudget {
		budget = minChunkBudget
	}
	if graph == nil {
		graph = NewDependencyGraph()
	}
	capacity := packingCapacity(budget)

	files := make([]models.FileRecord, len(records))
	for i, rec := range records {
		if fileCost(rec) > capacity {
			rec = CompressRecord(rec, capacity-FileHeaderOverhead)
		}
		files[i] = rec
	}

	indexOf := make(map[string]int, len(files))
	byDir := make(map[string][]int)
	for i, f := range files {
		indexOf[f.RelativePath] = i
		byDir[f.Dir] = append(byDir[f.Dir], i)
	}

	bySize := func(idx []int) []int {
		out := append([]int(nil), idx...)
		sort.SliceStable(out, func(a, b int) bool {
			fa, fb := files[out[a]], files[out[b]]
			if len(fa.Content) != len(fb.Content) {
				return len(fa.Content) < len(fb.Content)
			}
			return fa.RelativePath < fb.RelativePath
		})
		return out
	}

	order := make([]int, len(files))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		fa, fb := files[order[a]], files[order[b]]
		da, db := graph.Degree(fa.RelativePath), graph.Degree(fb.RelativePath)
		if da != db {
			return da > db
		}
		if fa.Dir != fb.Dir {
			return fa.Dir < fb.Dir
		}
		if len(fa.Content) != len(fb.Content) {
			return len(fa.Content) > len(fb.Content)
		}
		return fa.RelativePath < fb.RelativePath
	})
	ascending := bySize(order)

	assigned := make([]bool, len(files))
	var chunks []models.Chunk

	for _, anchor := range order {
		if assigned[anchor] {
			continue
		}
		chunk := models.Chunk{Index: len(chunks), Budget: budget}
		add := func(i int) bool {
			if assigned[i] || chunk.Cost+fileCost(files[i]) > capacity {
				return false
			}
			assigned[i] = true
			chunk.Files = append(chunk.Files, files[i])
			chunk.Cost += fileCost(files[i])
			return true
		}
		add(anchor)

		// Grow along the import graph from every member added so far.
		for m := 0; m < len(chunk.Files); m++ {
			var neighbors []int
			for _, n := range graph.Neighbors(chunk.Files[m].RelativePath) {
				if i, ok := indexOf[n]; ok && !assigned[i] {
					neighbors = append(neighbors, i)
				}
			}
			for _, i := range bySize(neighbors) {
				add(i)
			}
		}

		for _, i := range bySize(byDir[files[anchor].Dir]) {
			add(i)
		}

		for _, i := range ascending {
			if assigned[i] {
				continue
			}
			if !add(i) {
				break
			}
		}

		chunks = append(chunks, chunk)
	}

	renderManifests(chunks, graph)
	return chunks
}

// RebuildChunk packs files into chunks for budget. Files that fit a single
// chunk when each keeps at least minFileContent characters are compressed to
// a fair share of the packing capacity; small files keep their content and the
// space they leave goes to larger ones. Otherwise the files are packed into as
// many chunks as they need. Every chunk carries manifest.
func RebuildChunk(files []models.FileRecord, budget int, manifest string) []models.Chunk {
	if len(files) == 0 {
		return nil
	}
	if budget < minChunkBudget {
		budget = minChunkBudget
	}
	capacity := packingCapacity(budget)
	manifest = truncateManifest(manifest, ManifestReserve(budget))

	if len(files)*(FileHeaderOverhead+minFileContent) > capacity {
		chunks := AssembleChunks(files, nil, budget)
		for i := range chunks {
			chunks[i].Manifest = manifest
		}
		return chunks
	}

	total := 0
	for _, f := range files {
		total += fileCost(f)
	}

	rebuilt := make([]models.FileRecord, len(files))
	copy(rebuilt, files)
	if total > capacity {
		order := make([]int, len(files))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return len(files[order[a]].Content) < len(files[order[b]].Content)
		})

		// remaining stays >= (files left) * (FileHeaderOverhead+minFileContent),
		// so no share drops below minFileContent.
		remaining := capacity
		for k, i := range order {
			share := remaining/(len(order)-k) - FileHeaderOverhead
			if len(rebuilt[i].Content) > share {
				rebuilt[i] = CompressRecord(rebuilt[i], share)
			}
			remaining -= fileCost(rebuilt[i])
		}
	}

	chunk := models.Chunk{Budget: budget, Manifest: manifest}
	for _, f := range rebuilt {
		chunk.Files = append(chunk.Files, f)
		chunk.Cost += fileCost(f)
	}
	return []models.Chunk{chunk}
}
