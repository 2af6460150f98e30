package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/levmv/photomover/organize"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 << 20, "5.0 MB"},
		{3 << 30, "3.0 GB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	st := organize.Stats{Scanned: 4, Relocated: 3, Bytes: 2048, Fallbacks: 1, Failed: 1}
	printSummary(&buf, "rename", st, false, 1500*time.Millisecond)
	out := buf.String()

	for _, want := range []string{"Total Scanned:", "Renamed:", "2.0 KB", "Dated by mtime:", "Errors:", "1.5s"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary lacks %q:\n%s", want, out)
		}
	}
	for _, absent := range []string{"Moved:", "Displaced:", "Dry run"} {
		if strings.Contains(out, absent) {
			t.Errorf("summary has %q:\n%s", absent, out)
		}
	}
}

func TestPrintSummary_Clean(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, "clean", organize.Stats{Dirs: 5, Pruned: 2, Kept: 3}, true, time.Second)
	out := buf.String()
	for _, want := range []string{"Dry run:", "Directories:", "Removed:", "Kept:"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary lacks %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Total Scanned") {
		t.Errorf("clean summary shows file counts:\n%s", out)
	}
}
