package organize

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"lukechampine.com/blake3"
)

type RelocateOptions struct {
	DryRun bool
	Verify bool // compare content digests before and after the move
}

// Outcome describes what Relocate did.
type Outcome struct {
	Target    string
	Displaced string // new name of the file that occupied Target, if any
	Unchanged bool   // source already was the target

	// VerifyErr is set when the file is at Target but its content could
	// not be confirmed.
	VerifyErr error
}

// Relocator moves files with a single rename and never overwrites: a file
// already at the target is first renamed to a temporary name beside it.
type Relocator struct {
	opts   RelocateOptions
	digest func(path string) ([]byte, error)
}

func NewRelocator(opts RelocateOptions) *Relocator {
	return &Relocator{opts: opts, digest: digest}
}

// Relocate moves src to dst. On error src is left where it was; a displaced
// occupant is put back when possible.
func (r *Relocator) Relocate(src, dst string) (Outcome, error) {
	out := Outcome{Target: dst}
	if src == dst {
		out.Unchanged = true
		return out, nil
	}

	srcInfo, err := os.Lstat(src)
	if err != nil && !(r.opts.DryRun && errors.Is(err, fs.ErrNotExist)) {
		return out, fmt.Errorf("%w: %w", ErrRelocateFailed, err)
	}

	occupied := false
	dstInfo, err := os.Lstat(dst)
	switch {
	case err == nil:
		occupied = true
		if srcInfo != nil && os.SameFile(srcInfo, dstInfo) {
			// Same inode under another spelling. Only a case change is
			// worth a rename; anything else (hard link) is already done.
			if !strings.EqualFold(filepath.Base(src), filepath.Base(dst)) || filepath.Dir(src) != filepath.Dir(dst) {
				out.Unchanged = true
				return out, nil
			}
			occupied = false
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return out, fmt.Errorf("%w: %w", ErrRelocateFailed, err)
	}

	if r.opts.DryRun {
		if occupied {
			out.Displaced = tempPath(dst)
		}
		return out, nil
	}

	var before []byte
	if r.opts.Verify {
		if before, err = r.digest(src); err != nil {
			return out, fmt.Errorf("%w: %w", ErrRelocateFailed, err)
		}
	}

	if occupied {
		tmp := tempPath(dst)
		if err := os.Rename(dst, tmp); err != nil {
			return out, fmt.Errorf("%w: displace %s: %w", ErrRelocateFailed, dst, err)
		}
		out.Displaced = tmp
	}

	if err := os.Rename(src, dst); err != nil {
		if out.Displaced != "" && os.Rename(out.Displaced, dst) == nil {
			out.Displaced = ""
		}
		if errors.Is(err, syscall.EXDEV) {
			return out, fmt.Errorf("%w: %s -> %s", ErrCrossVolumeMoveUnsupported, src, dst)
		}
		return out, fmt.Errorf("%w: %w", ErrRelocateFailed, err)
	}

	if r.opts.Verify {
		after, err := r.digest(dst)
		if err != nil {
			out.VerifyErr = fmt.Errorf("verify %s: %w", dst, err)
			return out, nil
		}
		if !bytes.Equal(before, after) {
			mismatch := fmt.Errorf("content of %s changed during move", dst)
			if err := os.Rename(dst, src); err != nil {
				// still at dst, so it counts as moved
				out.VerifyErr = mismatch
				return out, nil
			}
			if out.Displaced != "" && os.Rename(out.Displaced, dst) == nil {
				out.Displaced = ""
			}
			return out, fmt.Errorf("%w: %w", ErrRelocateFailed, mismatch)
		}
	}
	return out, nil
}

// tempPath returns a free-looking name in dst's directory, keeping its
// extension so the file is still tracked.
func tempPath(dst string) string {
	name := "tmp_" + strings.ReplaceAll(uuid.NewString(), "-", "") + strings.ToLower(filepath.Ext(dst))
	return filepath.Join(filepath.Dir(dst), name)
}

func digest(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := blake3.New(32, nil)
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}
