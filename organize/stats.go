package organize

// Stats counts what a pass did.
type Stats struct {
	Dirs      int
	Scanned   int
	Relocated int
	Unchanged int
	Displaced int
	Fallbacks int // timestamped by modification time
	Failed    int
	DirErrors int
	Pruned    int // directories removed
	Kept      int // directories kept because they hold tracked files
	Bytes     int64
}

// Problems is the number of files and directories that could not be handled.
func (s Stats) Problems() int {
	return s.Failed + s.DirErrors
}
