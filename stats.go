package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/levmv/photomover/organize"
)

// printSummary writes the end-of-run table. Rows that are zero are left
// out, except the scan count.
func printSummary(out io.Writer, op string, st organize.Stats, dryRun bool, elapsed time.Duration) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(out, "----------------------------------------")
	if dryRun {
		fmt.Fprintln(w, "Dry run:\tnothing was changed")
	}

	row := func(label string, n int) {
		if n > 0 {
			fmt.Fprintf(w, "%s:\t%d\n", label, n)
		}
	}

	if op == "clean" {
		fmt.Fprintf(w, "Directories:\t%d\n", st.Dirs)
		row("Removed", st.Pruned)
		row("Kept", st.Kept)
	} else {
		fmt.Fprintf(w, "Total Scanned:\t%d\n", st.Scanned)
		if st.Relocated > 0 {
			label := "Moved"
			if op == "rename" {
				label = "Renamed"
			}
			fmt.Fprintf(w, "%s:\t%d\n", label, st.Relocated)
			fmt.Fprintf(w, "Data Volume:\t%s\n", formatBytes(st.Bytes))
		}
		row("Already in place", st.Unchanged)
		row("Displaced", st.Displaced)
		row("Dated by mtime", st.Fallbacks)
		row("Errors", st.Failed)
	}
	row("Unreadable dirs", st.DirErrors)

	fmt.Fprintf(w, "Duration:\t%s\n", elapsed.Round(time.Millisecond))
	w.Flush()
	fmt.Fprintln(out, "----------------------------------------")
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
