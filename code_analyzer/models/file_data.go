package models

// FileRecord holds one analyzed file. Records are values: shrinking a file
// produces a new record rather than mutating a shared one.
type FileRecord struct {
	RelativePath     string
	AbsolutePath     string
	Content          string
	OriginalSize     int
	Tokens           int
	Imports          []string
	Dir              string
	Language         string
	Compressed       bool
	CompressionLevel int
}

// Chunk is a budget-bounded group of files sent in one request.
// Cost is the sum of len(Content)+FileHeaderOverhead over Files and never
// exceeds Budget.
type Chunk struct {
	Index    int
	Files    []FileRecord
	Cost     int
	Budget   int
	Manifest string
}

// Paths returns the relative paths of the chunk's files in order.
func (c Chunk) Paths() []string {
	paths := make([]string, 0, len(c.Files))
	for _, f := range c.Files {
		paths = append(paths, f.RelativePath)
	}
	return paths
}
