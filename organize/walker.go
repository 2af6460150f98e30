package organize

import (
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
)

type WalkOptions struct {
	FollowSymlinks bool
	IncludeHidden  bool     // entries whose name starts with a dot
	Exclude        []string // directories never entered
}

// Batch is the tracked content of one directory. Files holds only direct
// children, in directory listing order. A non-nil Err means the directory
// could not be read and its subtree was skipped.
type Batch struct {
	Dir   string
	Files []*MediaFile
	Err   error
}

// Walker enumerates tracked files depth-first, one directory at a time.
type Walker struct {
	exts    Extensions
	opts    WalkOptions
	exclude map[string]bool
}

func NewWalker(exts Extensions, opts WalkOptions) *Walker {
	w := &Walker{exts: exts, opts: opts, exclude: make(map[string]bool)}
	for _, dir := range opts.Exclude {
		if abs, err := filepath.Abs(dir); err == nil {
			w.exclude[abs] = true
		}
	}
	return w
}

// Dirs yields one Batch per directory under root (root first). A directory's
// own files are yielded before any of its subdirectories is visited, and
// subdirectories are visited in name order. The walk uses an explicit stack,
// so tree depth does not grow the call stack.
func (w *Walker) Dirs(root string) iter.Seq[Batch] {
	return func(yield func(Batch) bool) {
		root, err := filepath.Abs(root)
		if err != nil {
			yield(Batch{Dir: root, Err: fmt.Errorf("%w: %w", ErrDirectoryUnreadable, err)})
			return
		}

		visited := make(map[string]bool)
		stack := []string{root}
		for len(stack) > 0 {
			dir := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if w.opts.FollowSymlinks {
				if real, err := filepath.EvalSymlinks(dir); err == nil {
					if visited[real] {
						if !yield(Batch{Dir: dir, Err: fmt.Errorf("%w: %s -> %s", ErrSymlinkCycle, dir, real)}) {
							return
						}
						continue
					}
					visited[real] = true
				}
			}

			batch, subdirs := w.readDir(dir)
			if !yield(batch) {
				return
			}
			for i := len(subdirs) - 1; i >= 0; i-- {
				stack = append(stack, subdirs[i])
			}
		}
	}
}

// Files flattens Dirs. Unreadable directories are silently skipped; use
// Dirs to observe them.
func (w *Walker) Files(root string) iter.Seq[*MediaFile] {
	return func(yield func(*MediaFile) bool) {
		for b := range w.Dirs(root) {
			for _, f := range b.Files {
				if !yield(f) {
					return
				}
			}
		}
	}
}

func (w *Walker) readDir(dir string) (Batch, []string) {
	batch := Batch{Dir: dir}
	entries, err := os.ReadDir(dir)
	if err != nil {
		batch.Err = fmt.Errorf("%w: %w", ErrDirectoryUnreadable, err)
		return batch, nil
	}

	var subdirs []string
	for _, e := range entries {
		name := e.Name()
		if !w.opts.IncludeHidden && strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(dir, name)

		var info fs.FileInfo
		if e.Type()&fs.ModeSymlink != 0 {
			if !w.opts.FollowSymlinks {
				continue
			}
			if info, err = os.Stat(path); err != nil {
				continue // dangling
			}
		} else if info, err = e.Info(); err != nil {
			continue // removed since listing
		}

		if info.IsDir() {
			if !w.exclude[path] {
				subdirs = append(subdirs, path)
			}
			continue
		}
		if info.Mode().IsRegular() && w.exts.Match(name) {
			batch.Files = append(batch.Files, newMediaFile(path, info))
		}
	}
	return batch, subdirs
}
