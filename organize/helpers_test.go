package organize

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"
)

// fakeReader serves tags by file base name.
type fakeReader struct {
	tags  map[string][]Tag
	errs  map[string]error
	calls map[string]int
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		tags:  make(map[string][]Tag),
		errs:  make(map[string]error),
		calls: make(map[string]int),
	}
}

func (r *fakeReader) ReadTags(f *os.File) ([]Tag, error) {
	name := filepath.Base(f.Name())
	r.calls[name]++
	if err := r.errs[name]; err != nil {
		return nil, err
	}
	if tags, ok := r.tags[name]; ok {
		return tags, nil
	}
	return nil, errors.New("no exif")
}

func (r *fakeReader) original(name string, t time.Time) {
	r.tags[name] = append(r.tags[name], Tag{Kind: TagOriginal, Time: t})
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.Local)
}

// writeFile creates dir/name with content and the given modification time.
func writeFile(t *testing.T, dir, name, content string, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if !mtime.IsZero() {
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func mkdir(t *testing.T, parts ...string) string {
	t.Helper()
	dir := filepath.Join(parts...)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	return dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// listDir returns the sorted names of the files in dir.
func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

// contents maps file content to file name for every file in dir.
func contents(t *testing.T, dir string) map[string]string {
	t.Helper()
	m := make(map[string]string)
	for _, name := range listDir(t, dir) {
		m[readFile(t, filepath.Join(dir, name))] = name
	}
	return m
}

func sliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
