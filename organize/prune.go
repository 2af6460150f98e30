package organize

import (
	"log/slog"
	"os"
	"path/filepath"
)

type PruneOptions struct {
	DryRun bool
	Logger *slog.Logger
}

// Pruner deletes directory trees that hold no tracked file anywhere below
// them. Untracked files inside such a tree are deleted with it.
type Pruner struct {
	exts Extensions
	opts PruneOptions
}

func NewPruner(exts Extensions, opts PruneOptions) *Pruner {
	if len(exts) == 0 {
		exts = NewExtensions(PhotoExtensions...)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Pruner{exts: exts, opts: opts}
}

type pruneNode struct {
	path    string
	parent  int
	tracked bool
}

// Prune removes every untracked subtree of root, and root itself when the
// whole tree is untracked. Children are evaluated before their parent, so a
// directory left empty by its children's removal goes too. A directory that
// cannot be listed is kept, along with its ancestors.
func (p *Pruner) Prune(root string) (Stats, error) {
	var st Stats
	root, err := checkRoot(root)
	if err != nil {
		return st, err
	}
	log := p.opts.Logger

	// Breadth-first worklist: every child lands after its parent.
	nodes := []pruneNode{{path: root, parent: -1}}
	for i := 0; i < len(nodes); i++ {
		entries, err := os.ReadDir(nodes[i].path)
		if err != nil {
			nodes[i].tracked = true
			st.DirErrors++
			log.Warn("cannot inspect directory, keeping it", "dir", nodes[i].path, "err", err)
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				nodes = append(nodes, pruneNode{path: filepath.Join(nodes[i].path, e.Name()), parent: i})
				continue
			}
			if p.exts.Match(e.Name()) {
				nodes[i].tracked = true
			}
		}
	}
	st.Dirs = len(nodes)

	for i := len(nodes) - 1; i > 0; i-- {
		if nodes[i].tracked {
			nodes[nodes[i].parent].tracked = true
		}
	}

	for _, n := range nodes {
		if n.tracked {
			st.Kept++
			continue
		}
		if n.parent >= 0 && !nodes[n.parent].tracked {
			continue // goes with its ancestor
		}
		if p.opts.DryRun {
			st.Pruned++
			log.Info(n.path, "action", "dry")
			continue
		}
		if err := os.RemoveAll(n.path); err != nil {
			st.DirErrors++
			log.Error("cannot remove directory", "dir", n.path, "err", err)
			continue
		}
		st.Pruned++
		log.Info(n.path, "action", "prune")
	}
	return st, nil
}
