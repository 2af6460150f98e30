package organize

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Mover buckets tracked files into <outRoot>/<year>/<seq><ext>.
//
// Files are ordered by capture time within each source directory. Sequence
// numbers in a year follow the walk order of the directories, so a file
// from a later directory can get a higher number than a newer file from an
// earlier one.
//
// A run is not transactional: when it stops partway, files already moved
// stay moved and the rest stay where they were.
type Mover struct {
	outRoot   string
	opts      Options
	resolver  *Resolver
	planner   *Planner
	relocator *Relocator
}

func NewMover(outRoot string, opts Options) *Mover {
	opts = opts.withDefaults()
	return &Mover{
		outRoot:   outRoot,
		opts:      opts,
		resolver:  NewResolver(opts.Reader, opts.Policy, opts.Logger),
		planner:   NewPlanner(outRoot, opts.Extensions, opts.Pad, opts.DryRun),
		relocator: NewRelocator(RelocateOptions{DryRun: opts.DryRun, Verify: opts.Verify}),
	}
}

// Run moves everything under src. Only an unreadable src is returned as an
// error; per-file and per-directory failures are logged and counted.
func (m *Mover) Run(src string) (Stats, error) {
	var st Stats
	src, err := checkRoot(src)
	if err != nil {
		return st, err
	}
	out, err := filepath.Abs(m.outRoot)
	if err != nil {
		return st, fmt.Errorf("output root: %w", err)
	}
	if out == src || within(src, out) {
		return st, fmt.Errorf("source %s lies inside output %s", src, out)
	}

	log := m.opts.Logger
	walker := NewWalker(m.opts.Extensions, m.opts.WalkOptions(out))

	for b := range walker.Dirs(src) {
		st.Dirs++
		if b.Err != nil {
			st.DirErrors++
			log.Warn("skipping directory", "dir", b.Dir, "err", b.Err)
			continue
		}
		if len(b.Files) == 0 {
			continue
		}
		log.Info(fmt.Sprintf("scanning folder '%s': %d files", b.Dir, len(b.Files)))
		m.moveBatch(b, &st)
	}
	return st, nil
}

// moveBatch moves one directory's files, oldest first within each year.
func (m *Mover) moveBatch(b Batch, st *Stats) {
	log := m.opts.Logger

	files := slices.Clone(b.Files)
	for _, f := range files {
		st.Scanned++
		if m.resolver.Resolve(f).Source == SourceModTime {
			st.Fallbacks++
		}
	}
	slices.SortStableFunc(files, func(a, c *MediaFile) int {
		ta, tc := m.resolver.Resolve(a).Time, m.resolver.Resolve(c).Time
		if y := cmp.Compare(ta.Year(), tc.Year()); y != 0 {
			return y
		}
		return ta.Compare(tc)
	})

	for _, f := range files {
		res := m.resolver.Resolve(f)
		dst, err := m.planner.Plan(f, res.Time)
		if err != nil {
			st.Failed++
			log.Error("cannot plan destination", "path", f.Path, "err", err)
			m.opts.OnFile(f, err)
			continue
		}

		outcome, err := m.relocator.Relocate(f.Path, dst)
		if err != nil {
			m.planner.Release(dst)
			st.Failed++
			log.Error("move failed", "path", f.Path, "err", err)
			m.opts.OnFile(f, err)
			continue
		}
		if outcome.Displaced != "" {
			st.Displaced++
			log.Warn("destination was occupied", "action", "displace", "path", dst, "to", outcome.Displaced)
		}
		if outcome.VerifyErr != nil {
			log.Warn("moved but not verified", "path", dst, "err", outcome.VerifyErr)
		}

		st.Relocated++
		st.Bytes += f.Size
		log.Info(f.Path+" -> "+dst, "action", actionTag("move", m.opts.DryRun), "date", res.Source.String())
		m.opts.OnFile(f, nil)
	}
}

func checkRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return root, fmt.Errorf("%w: %w", ErrRootUnreadable, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return abs, fmt.Errorf("%w: %w", ErrRootUnreadable, err)
	}
	if !info.IsDir() {
		return abs, fmt.Errorf("%w: %s is not a directory", ErrRootUnreadable, abs)
	}
	if _, err := os.ReadDir(abs); err != nil {
		return abs, fmt.Errorf("%w: %w", ErrRootUnreadable, err)
	}
	return abs, nil
}

// within reports whether path is strictly below dir.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func actionTag(action string, dryRun bool) string {
	if dryRun {
		return "dry"
	}
	return action
}
