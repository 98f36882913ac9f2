// Package archive unpacks gzip-compressed tarballs such as the snapshot
// archives GitHub serves for a branch.
package archive

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/unkn0wn-root/create-rena-cleanarch/internal/errdef"
)

// MaxEntryBytes caps a single regular file inside the archive.
const MaxEntryBytes int64 = 512 << 20

const (
	dirPerm = 0o755
	maxHops = 40
)

var (
	ErrUnsafePath       = errors.New("entry escapes destination")
	ErrUnsupportedEntry = errors.New("unsupported entry type")
	ErrEntryTooLarge    = errors.New("entry too large")
)

type Stats struct {
	Dirs  int
	Files int
	Links int
	Bytes int64
}

// Extract unpacks the tar.gz at src into dst, which must already exist.
func Extract(ctx context.Context, src, dst string) (Stats, error) {
	f, err := os.Open(src)
	if err != nil {
		return Stats{}, errdef.Wrap(errdef.CodeExtract, err, "open %s", src)
	}
	defer func() {
		_ = f.Close()
	}()

	st, err := ExtractReader(ctx, f, dst)
	if err != nil {
		return st, errdef.Wrap(errdef.CodeExtract, err, "extract %s", filepath.Base(src))
	}
	return st, nil
}

// ExtractReader unpacks a tar.gz stream into dst. Errors are returned
// unwrapped so callers can attach their own context.
func ExtractReader(ctx context.Context, r io.Reader, dst string) (Stats, error) {
	var st Stats
	root, err := filepath.Abs(dst)
	if err != nil {
		return st, err
	}
	// Links are checked against the real root, not the path we were given.
	if root, err = filepath.EvalSymlinks(root); err != nil {
		return st, err
	}

	zr, err := gzip.NewReader(r)
	if err != nil {
		return st, fmt.Errorf("gzip: %w", err)
	}
	defer func() {
		_ = zr.Close()
	}()

	x := &extractor{root: root}
	tr := tar.NewReader(zr)
	for {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return st, fmt.Errorf("tar: %w", err)
		}
		if err := x.entry(tr, hdr, &st); err != nil {
			return st, err
		}
	}
	return st, x.verifyLinks()
}

type extractor struct {
	root  string
	links []string
}

func (x *extractor) entry(tr *tar.Reader, hdr *tar.Header, st *Stats) error {
	root := x.root
	if hdr.Typeflag == tar.TypeXGlobalHeader {
		// GitHub stores the commit id here; there is nothing to write.
		return nil
	}

	p, err := safeJoin(root, hdr.Name)
	if err != nil {
		return err
	}
	// Symlink entries replace whatever is at p; everything else must not
	// land on or pass through an existing link.
	if err := noLinks(root, p, hdr.Typeflag != tar.TypeSymlink); err != nil {
		return fmt.Errorf("%s: %w", hdr.Name, err)
	}

	switch hdr.Typeflag {
	case tar.TypeDir:
		if err := os.MkdirAll(p, dirPerm|hdr.FileInfo().Mode().Perm()); err != nil {
			return err
		}
		st.Dirs++
		return nil
	case tar.TypeReg:
		n, err := writeEntry(tr, p, hdr)
		if err != nil {
			return err
		}
		st.Files++
		st.Bytes += n
		return nil
	case tar.TypeSymlink:
		if err := writeSymlink(root, p, hdr.Linkname); err != nil {
			return fmt.Errorf("%s: %w", hdr.Name, err)
		}
		x.links = append(x.links, p)
		st.Links++
		return nil
	case tar.TypeLink:
		old, err := safeJoin(root, hdr.Linkname)
		if err != nil {
			return err
		}
		if err := noLinks(root, old, true); err != nil {
			return fmt.Errorf("%s: %w", hdr.Name, err)
		}
		if err := os.MkdirAll(filepath.Dir(p), dirPerm); err != nil {
			return err
		}
		if err := os.Link(old, p); err != nil {
			return err
		}
		st.Links++
		return nil
	default:
		return fmt.Errorf("%w %q for %s", ErrUnsupportedEntry, hdr.Typeflag, hdr.Name)
	}
}

func writeEntry(r io.Reader, p string, hdr *tar.Header) (int64, error) {
	if hdr.Size > MaxEntryBytes {
		return 0, fmt.Errorf("%w: %s", ErrEntryTooLarge, hdr.Name)
	}
	if err := os.MkdirAll(filepath.Dir(p), dirPerm); err != nil {
		return 0, err
	}
	mode := hdr.FileInfo().Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(p, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, io.LimitReader(r, MaxEntryBytes+1))
	if err != nil {
		_ = out.Close()
		return n, err
	}
	if err := out.Close(); err != nil {
		return n, err
	}
	if n > MaxEntryBytes {
		return n, fmt.Errorf("%w: %s", ErrEntryTooLarge, hdr.Name)
	}
	// OpenFile honours the umask; the archive mode wins.
	return n, os.Chmod(p, mode)
}

func writeSymlink(root, p, target string) error {
	if target == "" || filepath.IsAbs(target) {
		return fmt.Errorf("%w: link to %q", ErrUnsafePath, target)
	}
	resolved := filepath.Join(filepath.Dir(p), filepath.FromSlash(target))
	if !within(root, resolved) {
		return fmt.Errorf("%w: link to %q", ErrUnsafePath, target)
	}
	if err := os.MkdirAll(filepath.Dir(p), dirPerm); err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.Symlink(target, p)
}

// noLinks fails when a directory between root and p is a symlink, or when p
// itself is one and self is set. Missing components end the walk.
func noLinks(root, p string, self bool) error {
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == "." {
		return err
	}
	parts := strings.Split(rel, string(os.PathSeparator))
	if !self {
		parts = parts[:len(parts)-1]
	}
	cur := root
	for _, part := range parts {
		cur = filepath.Join(cur, part)
		fi, err := os.Lstat(cur)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		if fi.Mode()&fs.ModeSymlink != 0 {
			return fmt.Errorf("%w: %s is a link", ErrUnsafePath, filepath.ToSlash(rel))
		}
	}
	return nil
}

// verifyLinks resolves every extracted symlink once the tree is complete,
// since a link may only escape through links written after it.
func (x *extractor) verifyLinks() error {
	for _, p := range x.links {
		if _, err := resolve(x.root, p); err != nil {
			rel, _ := filepath.Rel(x.root, p)
			return fmt.Errorf("%s: %w", filepath.ToSlash(rel), err)
		}
	}
	return nil
}

// resolve follows p component by component the way the kernel would and
// fails as soon as the walk leaves root. Dangling tails are accepted.
func resolve(root, p string) (string, error) {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return "", err
	}
	queue := strings.Split(rel, string(os.PathSeparator))
	cur := root
	hops := 0
	for len(queue) > 0 {
		part := queue[0]
		queue = queue[1:]
		switch part {
		case "", ".":
			continue
		case "..":
			cur = filepath.Dir(cur)
			if !within(root, cur) {
				return "", fmt.Errorf("%w: link leaves destination", ErrUnsafePath)
			}
			continue
		}
		next := filepath.Join(cur, part)
		fi, err := os.Lstat(next)
		if errors.Is(err, fs.ErrNotExist) {
			cur = next
			continue
		}
		if err != nil {
			return "", err
		}
		if fi.Mode()&fs.ModeSymlink == 0 {
			cur = next
			continue
		}
		if hops++; hops > maxHops {
			return "", fmt.Errorf("%w: too many links", ErrUnsafePath)
		}
		target, err := os.Readlink(next)
		if err != nil {
			return "", err
		}
		if filepath.IsAbs(target) {
			return "", fmt.Errorf("%w: link to %q", ErrUnsafePath, target)
		}
		queue = append(strings.Split(filepath.FromSlash(target), string(os.PathSeparator)), queue...)
	}
	return cur, nil
}

func safeJoin(root, name string) (string, error) {
	rel := filepath.Clean(filepath.FromSlash(name))
	if rel == "." {
		return root, nil
	}
	if rel == "" || rel == ".." || filepath.IsAbs(rel) || filepath.VolumeName(rel) != "" {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	if strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	return filepath.Join(root, rel), nil
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}
