package organize

import (
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

var (
	PhotoExtensions = []string{".jpg", ".jpeg", ".png"}
	VideoExtensions = []string{".mov", ".mp4", ".avi", ".wmv"}
)

// Extensions is a case-insensitive set of tracked file suffixes, stored
// lower-case with a leading dot.
type Extensions map[string]bool

// NewExtensions accepts suffixes with or without the leading dot, in any case.
func NewExtensions(list ...string) Extensions {
	e := make(Extensions, len(list))
	for _, s := range list {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || s == "." {
			continue
		}
		if !strings.HasPrefix(s, ".") {
			s = "." + s
		}
		e[s] = true
	}
	return e
}

// Match reports whether name carries a tracked extension.
func (e Extensions) Match(name string) bool {
	return e[strings.ToLower(filepath.Ext(name))]
}

// List returns the extensions sorted.
func (e Extensions) List() []string {
	out := make([]string, 0, len(e))
	for k := range e {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Source tells where a resolved timestamp came from.
type Source int

const (
	SourceModTime Source = iota
	SourceOriginal
	SourceSaved
)

func (s Source) String() string {
	switch s {
	case SourceOriginal:
		return "original"
	case SourceSaved:
		return "saved"
	default:
		return "modtime"
	}
}

// Resolved is the effective capture timestamp of a file.
type Resolved struct {
	Time   time.Time
	Source Source
}

// MediaFile is one tracked file found during a pass.
type MediaFile struct {
	Path    string
	Ext     string // lower-case, with dot
	Size    int64
	ModTime time.Time

	resolved *Resolved
}

func newMediaFile(path string, info fs.FileInfo) *MediaFile {
	return &MediaFile{
		Path:    path,
		Ext:     strings.ToLower(filepath.Ext(path)),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
}
