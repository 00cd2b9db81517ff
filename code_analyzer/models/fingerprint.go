package models

// Signature is a function, method, class or type declaration found by the
// pattern-based extractors.
type Signature struct {
	Kind       string
	Name       string
	Line       int
	Params     string
	ReturnType string
}

// Hotspot is a line that matched one of the risk patterns.
type Hotspot struct {
	Line    int
	Label   string
	Snippet string
}

// Fingerprint is the compact stand-in for a file's full content.
type Fingerprint struct {
	Path       string
	Lines      int
	Extension  string
	Imports    []string
	Signatures []Signature
	Hotspots   []Hotspot
	Text       string
	Tokens     int
}

// FingerprintChunk groups fingerprints under a token budget.
type FingerprintChunk struct {
	Index        int
	Fingerprints []Fingerprint
	Text         string
	Tokens       int
	Budget       int
}

// Paths returns the paths of the chunk's fingerprints in order.
func (c FingerprintChunk) Paths() []string {
	paths := make([]string, 0, len(c.Fingerprints))
	for _, fp := range c.Fingerprints {
		paths = append(paths, fp.Path)
	}
	return paths
}
