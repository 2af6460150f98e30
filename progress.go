package main

import (
	"io"
	"path/filepath"

	"github.com/levmv/photomover/organize"
	"github.com/schollz/progressbar/v3"
)

// newProgress counts the tracked files under root and returns a bar sized
// to them. The count walks the tree once more, before any file is touched.
func newProgress(out io.Writer, desc string, exts organize.Extensions, opts organize.WalkOptions, root string) *progressbar.ProgressBar {
	total := 0
	for range organize.NewWalker(exts, opts).Files(root) {
		total++
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(desc+" "+filepath.Base(root)),
		progressbar.OptionSetWidth(20),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionClearOnFinish(),
	)
}

// tick advances bar once per handled file.
func tick(bar *progressbar.ProgressBar) func(*organize.MediaFile, error) {
	return func(*organize.MediaFile, error) {
		bar.Add(1)
	}
}
