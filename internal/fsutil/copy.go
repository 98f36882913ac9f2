package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/unkn0wn-root/create-rena-cleanarch/internal/errdef"
)

const dirPerm = 0o755

// VCSDir is the version-control metadata directory removed after copying.
const VCSDir = ".git"

type SkipReason string

const (
	SkipSymlink SkipReason = "symlink"
	SkipSpecial SkipReason = "special"
)

type Skipped struct {
	Path   string // relative to the source root
	Reason SkipReason
}

type CopyStats struct {
	Dirs    int
	Files   int
	Bytes   int64
	Skipped []Skipped
}

// CopyTree copies the directories and regular files under src into dst,
// keeping relative paths and permission bits. Symlinks and special files are
// not copied; they are reported in CopyStats.Skipped.
func CopyTree(src, dst string) (CopyStats, error) {
	var st CopyStats
	if err := os.MkdirAll(dst, dirPerm); err != nil {
		return st, errdef.Wrap(errdef.CodeFilesystem, err, "create %s", dst)
	}
	err := filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		target := filepath.Join(dst, rel)

		switch t := d.Type(); {
		case t.IsDir():
			info, err := d.Info()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(target, dirPerm|info.Mode().Perm()); err != nil {
				return err
			}
			st.Dirs++
		case t.IsRegular():
			info, err := d.Info()
			if err != nil {
				return err
			}
			n, err := copyFile(p, target, info.Mode().Perm())
			if err != nil {
				return err
			}
			st.Files++
			st.Bytes += n
		case t&fs.ModeSymlink != 0:
			st.Skipped = append(st.Skipped, Skipped{Path: filepath.ToSlash(rel), Reason: SkipSymlink})
		default:
			st.Skipped = append(st.Skipped, Skipped{Path: filepath.ToSlash(rel), Reason: SkipSpecial})
		}
		return nil
	})
	if err != nil {
		return st, errdef.Wrap(errdef.CodeFilesystem, err, "copy %s", src)
	}
	return st, nil
}

func copyFile(src, dst string, mode fs.FileMode) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, in)
	if err != nil {
		_ = out.Close()
		return n, err
	}
	if err := out.Close(); err != nil {
		return n, err
	}
	return n, os.Chmod(dst, mode)
}

// StripVCS removes dir/.git when present and reports whether it existed.
func StripVCS(dir string) (bool, error) {
	p := filepath.Join(dir, VCSDir)
	if _, err := os.Lstat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, errdef.Wrap(errdef.CodeVCS, err, "stat %s", p)
	}
	if err := os.RemoveAll(p); err != nil {
		return true, errdef.Wrap(errdef.CodeVCS, err, "remove %s", p)
	}
	return true, nil
}
