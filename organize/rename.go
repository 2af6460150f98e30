package organize

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// PlanEntry assigns sequence number Seq to File.
type PlanEntry struct {
	File *MediaFile
	Seq  int
}

// BuildRenamePlan orders files by resolved time, ties kept in discovery
// order, and numbers them from 1.
func BuildRenamePlan(files []*MediaFile, r *Resolver) []PlanEntry {
	sorted := slices.Clone(files)
	slices.SortStableFunc(sorted, func(a, b *MediaFile) int {
		return r.Resolve(a).Time.Compare(r.Resolve(b).Time)
	})

	plan := make([]PlanEntry, len(sorted))
	for i, f := range sorted {
		plan[i] = PlanEntry{File: f, Seq: i + 1}
	}
	return plan
}

// Renamer renumbers the tracked files of every directory under a root by
// capture time. Each directory is numbered independently from 1.
type Renamer struct {
	opts      Options
	resolver  *Resolver
	relocator *Relocator
}

func NewRenamer(opts Options) *Renamer {
	opts = opts.withDefaults()
	return &Renamer{
		opts:      opts,
		resolver:  NewResolver(opts.Reader, opts.Policy, opts.Logger),
		relocator: NewRelocator(RelocateOptions{DryRun: opts.DryRun, Verify: opts.Verify}),
	}
}

func (r *Renamer) Run(root string) (Stats, error) {
	var st Stats
	root, err := checkRoot(root)
	if err != nil {
		return st, err
	}

	log := r.opts.Logger
	walker := NewWalker(r.opts.Extensions, r.opts.WalkOptions())
	for b := range walker.Dirs(root) {
		st.Dirs++
		if b.Err != nil {
			st.DirErrors++
			log.Warn("skipping directory", "dir", b.Dir, "err", b.Err)
			continue
		}
		if len(b.Files) == 0 {
			continue
		}
		log.Info(fmt.Sprintf("sorting %d files in folder '%s'", len(b.Files), b.Dir))
		r.renameBatch(b, &st)
	}
	return st, nil
}

func (r *Renamer) renameBatch(b Batch, st *Stats) {
	log := r.opts.Logger

	for _, f := range b.Files {
		st.Scanned++
		if r.resolver.Resolve(f).Source == SourceModTime {
			st.Fallbacks++
		}
	}

	// A target slot may hold a file that has not had its turn yet. It is
	// displaced to a temporary name, and current remembers where it went.
	current := make(map[string]string)
	failed := 0

	// On case-insensitive volumes the occupant of 00001.jpg may be listed
	// as 00001.JPG.
	exact := make(map[string]bool, len(b.Files))
	folded := make(map[string]string, len(b.Files))
	for _, f := range b.Files {
		exact[f.Path] = true
		folded[strings.ToLower(f.Path)] = f.Path
	}
	occupant := func(dst string) string {
		if exact[dst] {
			return dst
		}
		if p, ok := folded[strings.ToLower(dst)]; ok {
			return p
		}
		return dst
	}

	for _, e := range BuildRenamePlan(b.Files, r.resolver) {
		src := e.File.Path
		if moved, ok := current[src]; ok {
			src = moved
			delete(current, e.File.Path)
		}
		dst := filepath.Join(b.Dir, SeqName(e.Seq-failed, r.opts.Pad, e.File.Ext))

		out, err := r.relocator.Relocate(src, dst)
		if out.Displaced != "" {
			st.Displaced++
			current[occupant(dst)] = out.Displaced
			log.Debug("displaced occupant", "action", "displace", "path", dst, "to", out.Displaced)
		}
		if err != nil {
			failed++
			st.Failed++
			log.Error("rename failed", "path", src, "err", err)
			r.opts.OnFile(e.File, err)
			continue
		}
		if out.VerifyErr != nil {
			log.Warn("renamed but not verified", "path", dst, "err", out.VerifyErr)
		}
		if out.Unchanged {
			st.Unchanged++
		} else {
			st.Relocated++
			st.Bytes += e.File.Size
			log.Info(src+" -> "+dst, "action", actionTag("rename", r.opts.DryRun))
		}
		r.opts.OnFile(e.File, nil)
	}

	// Occupants that were not part of the plan keep their temporary name.
	for orig, tmp := range current {
		log.Warn("file left under temporary name", "was", orig, "now", tmp)
	}
}
