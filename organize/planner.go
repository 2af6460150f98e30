package organize

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const DefaultPad = 5

// FormatSeq zero-pads n to width digits.
func FormatSeq(n, width int) string {
	return fmt.Sprintf("%0*d", width, n)
}

// SeqName is the file name for sequence n: "00042.jpg".
func SeqName(n, width int, ext string) string {
	return FormatSeq(n, width) + strings.ToLower(ext)
}

// yearDir holds the sequence state of one destination directory.
type yearDir struct {
	next  int             // last assigned sequence number
	taken map[string]bool // lower-case stems present in the directory
}

// Planner maps files to <outRoot>/<year>/<seq><ext>. Its counters live for
// one pass and are rebuilt from the directory contents on the next run.
type Planner struct {
	outRoot string
	exts    Extensions
	pad     int
	dryRun  bool
	dirs    map[string]*yearDir
}

func NewPlanner(outRoot string, exts Extensions, pad int, dryRun bool) *Planner {
	if pad <= 0 {
		pad = DefaultPad
	}
	return &Planner{
		outRoot: outRoot,
		exts:    exts,
		pad:     pad,
		dryRun:  dryRun,
		dirs:    make(map[string]*yearDir),
	}
}

// Plan returns the destination path for f captured at t, creating the year
// directory if needed. The counter of a directory starts at the number of
// tracked files already in it; numbers whose name is already present (gaps
// left by deleted files) are skipped, so an existing file is never chosen.
func (p *Planner) Plan(f *MediaFile, t time.Time) (string, error) {
	dir := filepath.Join(p.outRoot, fmt.Sprintf("%04d", t.Year()))

	yd, ok := p.dirs[dir]
	if !ok {
		if !p.dryRun {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("create %s: %w", dir, err)
			}
		}
		var err error
		if yd, err = p.scan(dir); err != nil {
			return "", err
		}
		p.dirs[dir] = yd
	}

	for {
		yd.next++
		stem := FormatSeq(yd.next, p.pad)
		if yd.taken[stem] {
			continue
		}
		yd.taken[stem] = true
		return filepath.Join(dir, stem+f.Ext), nil
	}
}

// Release returns target's sequence number to its directory after a failed
// relocation. Only the most recent assignment can be released, which keeps
// the numbering contiguous.
func (p *Planner) Release(target string) {
	yd, ok := p.dirs[filepath.Dir(target)]
	if !ok {
		return
	}
	stem := strings.TrimSuffix(filepath.Base(target), filepath.Ext(target))
	if stem != FormatSeq(yd.next, p.pad) {
		return
	}
	delete(yd.taken, stem)
	yd.next--
}

func (p *Planner) scan(dir string) (*yearDir, error) {
	yd := &yearDir{taken: make(map[string]bool)}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return yd, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		yd.taken[strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))] = true
		if p.exts.Match(name) {
			yd.next++
		}
	}
	return yd, nil
}
