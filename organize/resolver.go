package organize

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// TagKind identifies which embedded timestamp a Tag carries.
type TagKind int

const (
	TagOriginal TagKind = iota + 1 // moment of capture (EXIF DateTimeOriginal)
	TagSaved                       // last save (EXIF DateTime)
)

// Tag is one timestamp read from embedded metadata.
type Tag struct {
	Kind TagKind
	Time time.Time
}

// MetadataReader reads the capture-time tags embedded in an open file.
// It reports whatever it finds; choosing between tags is left to TagPolicy.
type MetadataReader interface {
	ReadTags(f *os.File) ([]Tag, error)
}

// TagPolicy decides which tag wins when a file carries both.
type TagPolicy int

const (
	// PreferOriginal uses the capture time, and the last-saved time only
	// when no capture time is present.
	PreferOriginal TagPolicy = iota
	// PreferSaved uses the last-saved time when present.
	PreferSaved
)

func ParseTagPolicy(s string) (TagPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "original":
		return PreferOriginal, nil
	case "saved":
		return PreferSaved, nil
	}
	return 0, fmt.Errorf("unknown tag policy %q (want original or saved)", s)
}

func (p TagPolicy) String() string {
	if p == PreferSaved {
		return "saved"
	}
	return "original"
}

func (p TagPolicy) pick(tags []Tag) (Tag, bool) {
	first, second := TagOriginal, TagSaved
	if p == PreferSaved {
		first, second = TagSaved, TagOriginal
	}
	for _, kind := range []TagKind{first, second} {
		for _, t := range tags {
			if t.Kind == kind && !t.Time.IsZero() {
				return t, true
			}
		}
	}
	return Tag{}, false
}

// Resolver computes the effective capture timestamp of a MediaFile.
type Resolver struct {
	reader MetadataReader
	policy TagPolicy
	log    *slog.Logger
}

func NewResolver(reader MetadataReader, policy TagPolicy, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Resolver{reader: reader, policy: policy, log: log}
}

// Resolve never fails: unreadable metadata falls back to the file's
// modification time. The first result is cached on f for the rest of the
// pass.
func (r *Resolver) Resolve(f *MediaFile) Resolved {
	if f.resolved != nil {
		return *f.resolved
	}

	res := Resolved{Source: SourceModTime}
	if tag, err := r.readTag(f.Path); err != nil {
		r.log.Debug("using modification time", "path", f.Path, "err", err)
		res.Time = modTime(f)
	} else {
		res.Time = tag.Time
		if tag.Kind == TagSaved {
			res.Source = SourceSaved
		} else {
			res.Source = SourceOriginal
		}
	}

	f.resolved = &res
	return res
}

func (r *Resolver) readTag(path string) (tag Tag, err error) {
	if r.reader == nil {
		return Tag{}, fmt.Errorf("%w: no reader configured", ErrMetadataUnreadable)
	}

	fh, err := os.Open(path)
	if err != nil {
		return Tag{}, fmt.Errorf("%w: %w", ErrMetadataUnreadable, err)
	}
	defer fh.Close()

	// some third-party parsers panic on malformed input
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: parser panic: %v", ErrMetadataUnreadable, p)
		}
	}()

	tags, err := r.reader.ReadTags(fh)
	if err != nil {
		return Tag{}, fmt.Errorf("%w: %w", ErrMetadataUnreadable, err)
	}
	tag, ok := r.policy.pick(tags)
	if !ok {
		return Tag{}, fmt.Errorf("%w: no capture tag", ErrMetadataUnreadable)
	}
	return tag, nil
}

// modTime prefers a fresh stat over the value captured during the walk.
func modTime(f *MediaFile) time.Time {
	if info, err := os.Stat(f.Path); err == nil {
		return info.ModTime()
	}
	return f.ModTime
}
