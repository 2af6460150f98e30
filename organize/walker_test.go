package organize

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func collect(w *Walker, root string) (dirs []string, files []string, errs []error) {
	for b := range w.Dirs(root) {
		if b.Err != nil {
			errs = append(errs, b.Err)
			continue
		}
		rel, _ := filepath.Rel(root, b.Dir)
		dirs = append(dirs, rel)
		for _, f := range b.Files {
			r, _ := filepath.Rel(root, f.Path)
			files = append(files, r)
		}
	}
	return dirs, files, errs
}

func TestWalker_LevelThenDescend(t *testing.T) {
	root := t.TempDir()
	var zero time.Time
	writeFile(t, root, "b/deep/x.jpg", "", zero)
	writeFile(t, root, "b/y.jpg", "", zero)
	writeFile(t, root, "a/z.png", "", zero)
	writeFile(t, root, "top2.jpeg", "", zero)
	writeFile(t, root, "top1.jpg", "", zero)

	dirs, files, errs := collect(NewWalker(NewExtensions(PhotoExtensions...), WalkOptions{}), root)
	if len(errs) != 0 {
		t.Fatalf("errors: %v", errs)
	}

	wantDirs := []string{".", "a", "b", filepath.Join("b", "deep")}
	if !sliceEqual(dirs, wantDirs) {
		t.Errorf("dirs = %v, want %v", dirs, wantDirs)
	}
	wantFiles := []string{
		"top1.jpg", "top2.jpeg",
		filepath.Join("a", "z.png"),
		filepath.Join("b", "y.jpg"),
		filepath.Join("b", "deep", "x.jpg"),
	}
	if !sliceEqual(files, wantFiles) {
		t.Errorf("files = %v, want %v", files, wantFiles)
	}
}

func TestWalker_ExtensionFilter(t *testing.T) {
	root := t.TempDir()
	var zero time.Time
	writeFile(t, root, "UPPER.JPG", "", zero)
	writeFile(t, root, "Mixed.Png", "", zero)
	writeFile(t, root, "clip.mov", "", zero)
	writeFile(t, root, "notes.txt", "", zero)
	writeFile(t, root, ".hidden.jpg", "", zero)

	_, files, _ := collect(NewWalker(NewExtensions("jpg", ".PNG"), WalkOptions{}), root)
	want := []string{"Mixed.Png", "UPPER.JPG"}
	if !sliceEqual(files, want) {
		t.Errorf("files = %v, want %v", files, want)
	}

	_, files, _ = collect(NewWalker(NewExtensions("jpg"), WalkOptions{IncludeHidden: true}), root)
	want = []string{".hidden.jpg", "UPPER.JPG"}
	if !sliceEqual(files, want) {
		t.Errorf("with hidden: files = %v, want %v", files, want)
	}
}

func TestWalker_Exclude(t *testing.T) {
	root := t.TempDir()
	var zero time.Time
	writeFile(t, root, "in/a.jpg", "", zero)
	writeFile(t, root, "out/2020/00001.jpg", "", zero)

	w := NewWalker(NewExtensions("jpg"), WalkOptions{Exclude: []string{filepath.Join(root, "out")}})
	_, files, _ := collect(w, root)
	want := []string{filepath.Join("in", "a.jpg")}
	if !sliceEqual(files, want) {
		t.Errorf("files = %v, want %v", files, want)
	}
}

func TestWalker_UnreadableDirectorySkipped(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	root := t.TempDir()
	var zero time.Time
	writeFile(t, root, "locked/a.jpg", "", zero)
	writeFile(t, root, "open/b.jpg", "", zero)
	locked := filepath.Join(root, "locked")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	_, files, errs := collect(NewWalker(NewExtensions("jpg"), WalkOptions{}), root)
	if len(errs) != 1 || !errors.Is(errs[0], ErrDirectoryUnreadable) {
		t.Errorf("errs = %v, want one ErrDirectoryUnreadable", errs)
	}
	want := []string{filepath.Join("open", "b.jpg")}
	if !sliceEqual(files, want) {
		t.Errorf("files = %v, want %v", files, want)
	}
}

func TestWalker_Symlinks(t *testing.T) {
	root := t.TempDir()
	var zero time.Time
	writeFile(t, root, "a/photo.jpg", "", zero)
	if err := os.Symlink(root, filepath.Join(root, "a", "loop")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	_, files, errs := collect(NewWalker(NewExtensions("jpg"), WalkOptions{}), root)
	if len(errs) != 0 || len(files) != 1 {
		t.Errorf("not following: files = %v, errs = %v", files, errs)
	}

	_, files, errs = collect(NewWalker(NewExtensions("jpg"), WalkOptions{FollowSymlinks: true}), root)
	if len(files) != 1 {
		t.Errorf("following: files = %v, want one", files)
	}
	if len(errs) != 1 || !errors.Is(errs[0], ErrSymlinkCycle) {
		t.Errorf("following: errs = %v, want one ErrSymlinkCycle", errs)
	}
}

func TestWalker_Files(t *testing.T) {
	root := t.TempDir()
	var zero time.Time
	writeFile(t, root, "a.jpg", "", zero)
	writeFile(t, root, "sub/b.jpg", "", zero)
	writeFile(t, root, "sub/c.jpg", "", zero)

	n := 0
	for f := range NewWalker(NewExtensions("jpg"), WalkOptions{}).Files(root) {
		if f.Ext != ".jpg" {
			t.Errorf("Ext = %q", f.Ext)
		}
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("stopped after %d files, want 2", n)
	}
}

func TestOptions_WalkOptions(t *testing.T) {
	o := Options{FollowSymlinks: true, IncludeHidden: true}
	got := o.WalkOptions("/out")
	if !got.FollowSymlinks || !got.IncludeHidden || !sliceEqual(got.Exclude, []string{"/out"}) {
		t.Errorf("WalkOptions = %+v", got)
	}
	if got := (Options{}).WalkOptions(); got.FollowSymlinks || got.IncludeHidden || len(got.Exclude) != 0 {
		t.Errorf("zero WalkOptions = %+v", got)
	}
}
