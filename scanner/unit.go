package scanner

import (
	"github.com/meysamhadeli/codaiscan/code_analyzer/contracts"
	"github.com/meysamhadeli/codaiscan/code_analyzer/models"
)

// workUnit is the content of one model request.
type workUnit struct {
	index        int
	depth        int
	strategy     models.ScanStrategy
	chunk        models.Chunk
	fingerprints models.FingerprintChunk
}

func deepUnits(chunks []models.Chunk) []workUnit {
	units := make([]workUnit, 0, len(chunks))
	for _, c := range chunks {
		units = append(units, workUnit{index: c.Index, strategy: models.StrategyDeep, chunk: c})
	}
	return units
}

func fingerprintUnits(chunks []models.FingerprintChunk) []workUnit {
	units := make([]workUnit, 0, len(chunks))
	for _, c := range chunks {
		units = append(units, workUnit{index: c.Index, strategy: models.StrategyFingerprint, fingerprints: c})
	}
	return units
}

func (u workUnit) files() []string {
	if u.strategy == models.StrategyFingerprint {
		return u.fingerprints.Paths()
	}
	return u.chunk.Paths()
}

// complete reports whether every file of a deep unit still carries content.
// Results for a file the model never saw are not worth caching.
func (u workUnit) complete() bool {
	if u.strategy != models.StrategyDeep {
		return true
	}
	for _, f := range u.chunk.Files {
		if f.Content == "" && f.OriginalSize > 0 {
			return false
		}
	}
	return true
}

// split halves a unit that was too large for the model. Several files are
// divided into two groups, each rebuilt for half the budget, which may yield
// more than one unit per group; a single file is rebuilt alone at half the
// budget.
func (u workUnit) split(analyzer contracts.ICodeAnalyzer) []workUnit {
	child := func() workUnit {
		return workUnit{index: u.index, depth: u.depth + 1, strategy: u.strategy}
	}

	if u.strategy == models.StrategyFingerprint {
		fps := u.fingerprints.Fingerprints
		half := u.fingerprints.Budget / 2
		if len(fps) == 0 {
			return nil
		}
		groups := [][]models.Fingerprint{fps}
		if len(fps) > 1 {
			groups = [][]models.Fingerprint{fps[:len(fps)/2], fps[len(fps)/2:]}
		}
		var units []workUnit
		for _, g := range groups {
			c := child()
			c.fingerprints = analyzer.RebuildFingerprintChunk(g, half)
			c.fingerprints.Index = u.index
			units = append(units, c)
		}
		return units
	}

	files := u.chunk.Files
	half := u.chunk.Budget / 2
	if len(files) == 0 {
		return nil
	}
	groups := [][]models.FileRecord{files}
	if len(files) > 1 {
		groups = [][]models.FileRecord{files[:len(files)/2], files[len(files)/2:]}
	}
	var units []workUnit
	for _, g := range groups {
		for _, chunk := range analyzer.RebuildChunk(g, half, u.chunk.Manifest) {
			c := child()
			c.chunk = chunk
			c.chunk.Index = u.index
			units = append(units, c)
		}
	}
	return units
}
