package organize

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRelocate_Moves(t *testing.T) {
	dir := t.TempDir()
	var zero time.Time
	src := writeFile(t, dir, "a.jpg", "payload", zero)
	dst := filepath.Join(dir, "00001.jpg")

	out, err := NewRelocator(RelocateOptions{Verify: true}).Relocate(src, dst)
	if err != nil {
		t.Fatal(err)
	}
	if out.Displaced != "" || out.Unchanged {
		t.Errorf("unexpected outcome %+v", out)
	}
	if exists(src) {
		t.Error("source still exists")
	}
	if got := readFile(t, dst); got != "payload" {
		t.Errorf("destination content = %q", got)
	}
}

func TestRelocate_DisplacesOccupant(t *testing.T) {
	dir := t.TempDir()
	var zero time.Time
	src := writeFile(t, dir, "a.jpg", "new", zero)
	dst := writeFile(t, dir, "00001.jpg", "occupant", zero)

	out, err := NewRelocator(RelocateOptions{}).Relocate(src, dst)
	if err != nil {
		t.Fatal(err)
	}
	if out.Displaced == "" {
		t.Fatal("occupant not reported as displaced")
	}
	if filepath.Dir(out.Displaced) != dir || !strings.HasPrefix(filepath.Base(out.Displaced), "tmp_") || filepath.Ext(out.Displaced) != ".jpg" {
		t.Errorf("displaced name %q", out.Displaced)
	}
	if got := readFile(t, out.Displaced); got != "occupant" {
		t.Errorf("displaced content = %q", got)
	}
	if got := readFile(t, dst); got != "new" {
		t.Errorf("destination content = %q", got)
	}
}

func TestRelocate_SamePath(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "00001.jpg", "x", time.Time{})
	out, err := NewRelocator(RelocateOptions{}).Relocate(src, src)
	if err != nil || !out.Unchanged {
		t.Errorf("out = %+v, err = %v", out, err)
	}
	if got := listDir(t, dir); !sliceEqual(got, []string{"00001.jpg"}) {
		t.Errorf("dir = %v", got)
	}
}

func TestRelocate_MissingSource(t *testing.T) {
	dir := t.TempDir()
	occupant := writeFile(t, dir, "00001.jpg", "keep", time.Time{})
	_, err := NewRelocator(RelocateOptions{}).Relocate(filepath.Join(dir, "gone.jpg"), occupant)
	if err == nil {
		t.Fatal("expected error")
	}
	if got := readFile(t, occupant); got != "keep" {
		t.Errorf("occupant content = %q", got)
	}
	if got := listDir(t, dir); !sliceEqual(got, []string{"00001.jpg"}) {
		t.Errorf("dir = %v", got)
	}
}

func TestRelocate_DryRun(t *testing.T) {
	dir := t.TempDir()
	var zero time.Time
	src := writeFile(t, dir, "a.jpg", "new", zero)
	dst := writeFile(t, dir, "00001.jpg", "occupant", zero)

	out, err := NewRelocator(RelocateOptions{DryRun: true}).Relocate(src, dst)
	if err != nil {
		t.Fatal(err)
	}
	if out.Displaced == "" {
		t.Error("dry run should report the displacement")
	}
	if got := listDir(t, dir); !sliceEqual(got, []string{"00001.jpg", "a.jpg"}) {
		t.Errorf("dry run changed the directory: %v", got)
	}
}

func TestRelocate_CrossVolume(t *testing.T) {
	shm, err := os.MkdirTemp("/dev/shm", "relocate")
	if err != nil {
		t.Skipf("no second volume: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(shm) })

	var zero time.Time
	src := writeFile(t, shm, "a.jpg", "new", zero)
	dir := t.TempDir()
	dst := writeFile(t, dir, "00001.jpg", "occupant", zero)

	out, err := NewRelocator(RelocateOptions{}).Relocate(src, dst)
	if err == nil {
		t.Skip("/dev/shm and the temp dir share a device")
	}
	if !errors.Is(err, ErrCrossVolumeMoveUnsupported) || !errors.Is(err, ErrRelocateFailed) {
		t.Errorf("err = %v, want ErrCrossVolumeMoveUnsupported", err)
	}
	if out.Displaced != "" {
		t.Errorf("occupant left at %s", out.Displaced)
	}
	if got := readFile(t, src); got != "new" {
		t.Errorf("source content = %q", got)
	}
	if got := listDir(t, dir); !sliceEqual(got, []string{"00001.jpg"}) {
		t.Errorf("target dir = %v", got)
	}
	if got := readFile(t, dst); got != "occupant" {
		t.Errorf("occupant content = %q", got)
	}
}

func TestRelocate_RestoresOccupantOnFailure(t *testing.T) {
	// A directory cannot be renamed into itself, so the rename fails after
	// the occupant was moved aside.
	album := mkdir(t, t.TempDir(), "album")
	dst := writeFile(t, album, "00001.jpg", "occupant", time.Time{})

	out, err := NewRelocator(RelocateOptions{}).Relocate(album, dst)
	if !errors.Is(err, ErrRelocateFailed) {
		t.Fatalf("err = %v, want ErrRelocateFailed", err)
	}
	if out.Displaced != "" {
		t.Errorf("occupant left at %s", out.Displaced)
	}
	if got := readFile(t, dst); got != "occupant" {
		t.Errorf("occupant content = %q", got)
	}
	if got := listDir(t, album); !sliceEqual(got, []string{"00001.jpg"}) {
		t.Errorf("album = %v", got)
	}
}

func TestRelocate_VerifyMismatchMovesBack(t *testing.T) {
	dir := t.TempDir()
	var zero time.Time
	src := writeFile(t, dir, "a.jpg", "new", zero)
	dst := writeFile(t, dir, "00001.jpg", "occupant", zero)

	r := NewRelocator(RelocateOptions{Verify: true})
	calls := 0
	r.digest = func(string) ([]byte, error) {
		calls++
		return []byte{byte(calls)}, nil
	}

	out, err := r.Relocate(src, dst)
	if !errors.Is(err, ErrRelocateFailed) {
		t.Fatalf("err = %v, want ErrRelocateFailed", err)
	}
	if out.Displaced != "" {
		t.Errorf("occupant left at %s", out.Displaced)
	}
	if got := readFile(t, src); got != "new" {
		t.Errorf("source content = %q", got)
	}
	if got := readFile(t, dst); got != "occupant" {
		t.Errorf("occupant content = %q", got)
	}
	if got := listDir(t, dir); !sliceEqual(got, []string{"00001.jpg", "a.jpg"}) {
		t.Errorf("dir = %v", got)
	}
}

func TestRelocate_UnverifiedTargetStillMoved(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "a.jpg", "new", time.Time{})
	dst := filepath.Join(dir, "00001.jpg")

	r := NewRelocator(RelocateOptions{Verify: true})
	r.digest = func(path string) ([]byte, error) {
		if path == dst {
			return nil, errors.New("read error")
		}
		return digest(path)
	}

	out, err := r.Relocate(src, dst)
	if err != nil {
		t.Fatalf("file reached its target, got err %v", err)
	}
	if out.VerifyErr == nil {
		t.Error("VerifyErr not set")
	}
	if exists(src) || readFile(t, dst) != "new" {
		t.Error("file not at target")
	}
}
