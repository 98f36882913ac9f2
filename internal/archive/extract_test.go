package archive

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/unkn0wn-root/create-rena-cleanarch/internal/errdef"
	"github.com/unkn0wn-root/create-rena-cleanarch/internal/testutil"
)

func TestExtractTree(t *testing.T) {
	data := testutil.Tarball(t,
		testutil.Dir("rena-cleanarch-main/"),
		testutil.File("rena-cleanarch-main/package.json", `{"name":"rena"}`),
		testutil.Dir("rena-cleanarch-main/src/"),
		testutil.File("rena-cleanarch-main/src/index.ts", "export {}\n"),
		testutil.File("rena-cleanarch-main/.gitkeep", ""),
		testutil.Entry{Name: "rena-cleanarch-main/bin/run.sh", Body: "#!/bin/sh\n", Mode: 0o755, Type: tar.TypeReg},
	)
	src := filepath.Join(t.TempDir(), "template.tgz")
	if err := os.WriteFile(src, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	dst := t.TempDir()

	st, err := Extract(context.Background(), src, dst)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if st.Files != 4 || st.Dirs != 2 {
		t.Fatalf("unexpected stats: %+v", st)
	}

	got, err := os.ReadFile(filepath.Join(dst, "rena-cleanarch-main", "src", "index.ts"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "export {}\n" {
		t.Fatalf("unexpected content %q", got)
	}
	if _, err := os.Stat(filepath.Join(dst, "pax_global_header")); !os.IsNotExist(err) {
		t.Fatalf("global header must not be written as a file")
	}
	if info, err := os.Stat(filepath.Join(dst, "rena-cleanarch-main", ".gitkeep")); err != nil || info.Size() != 0 {
		t.Fatalf("expected empty placeholder file: %v", err)
	}
	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Join(dst, "rena-cleanarch-main", "bin", "run.sh"))
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		if info.Mode().Perm() != 0o755 {
			t.Fatalf("expected 0755, got %v", info.Mode().Perm())
		}
	}
}

func TestExtractSymlinkInside(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	data := testutil.Tarball(t,
		testutil.File("root/a.txt", "a"),
		testutil.Symlink("root/b.txt", "a.txt"),
	)
	dst := t.TempDir()
	st, err := ExtractReader(context.Background(), bytes.NewReader(data), dst)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if st.Links != 1 {
		t.Fatalf("expected one link, got %+v", st)
	}
	target, err := os.Readlink(filepath.Join(dst, "root", "b.txt"))
	if err != nil || target != "a.txt" {
		t.Fatalf("unexpected link %q (%v)", target, err)
	}
}

func TestExtractRejectsTraversal(t *testing.T) {
	cases := map[string][]testutil.Entry{
		"dotdot":       {testutil.File("../evil.txt", "x")},
		"nested":       {testutil.File("root/../../evil.txt", "x")},
		"symlink out":  {testutil.Symlink("root/link", "../../etc/passwd")},
		"abs symlink":  {testutil.Symlink("root/link", "/etc/passwd")},
		"hardlink out": {{Name: "root/h", Type: tar.TypeLink, Linkname: "../outside"}},
	}
	for name, entries := range cases {
		t.Run(name, func(t *testing.T) {
			data := testutil.Tarball(t, entries...)
			parent := t.TempDir()
			dst := filepath.Join(parent, "extract")
			if err := os.Mkdir(dst, 0o755); err != nil {
				t.Fatalf("mkdir: %v", err)
			}
			_, err := ExtractReader(context.Background(), bytes.NewReader(data), dst)
			if !errors.Is(err, ErrUnsafePath) {
				t.Fatalf("expected ErrUnsafePath, got %v", err)
			}
			if _, err := os.Stat(filepath.Join(parent, "evil.txt")); !os.IsNotExist(err) {
				t.Fatalf("file escaped destination")
			}
		})
	}
}

func TestExtractRejectsLinkChains(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	cases := map[string][]testutil.Entry{
		"write through link": {
			testutil.Dir("d1/"),
			testutil.Symlink("d1/s", ".."),
			testutil.Symlink("d1/s/t", "../.."),
			testutil.File("d1/s/t/escaped.txt", "x"),
		},
		"file over link": {
			testutil.Symlink("up", "."),
			testutil.File("up", "x"),
		},
		"link resolved later": {
			testutil.Dir("d/"),
			testutil.Symlink("d/x", "y/../.."),
			testutil.Symlink("d/y", ".."),
		},
		"hardlink to link": {
			testutil.Symlink("d/s", "."),
			{Name: "h", Type: tar.TypeLink, Linkname: "d/s"},
		},
	}
	for name, entries := range cases {
		t.Run(name, func(t *testing.T) {
			data := testutil.Tarball(t, entries...)
			base := t.TempDir()
			dst := filepath.Join(base, "a", "b", "extract")
			if err := os.MkdirAll(dst, 0o755); err != nil {
				t.Fatalf("mkdir: %v", err)
			}
			_, err := ExtractReader(context.Background(), bytes.NewReader(data), dst)
			if !errors.Is(err, ErrUnsafePath) {
				t.Fatalf("expected ErrUnsafePath, got %v", err)
			}
			for _, p := range []string{
				filepath.Join(base, "a", "escaped.txt"),
				filepath.Join(base, "a", "b", "escaped.txt"),
				filepath.Join(base, "escaped.txt"),
			} {
				if _, err := os.Lstat(p); !os.IsNotExist(err) {
					t.Fatalf("file escaped destination: %s", p)
				}
			}
		})
	}
}

func TestExtractLinkedDirInside(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	data := testutil.Tarball(t,
		testutil.File("root/src/a.ts", "a"),
		testutil.Symlink("root/lib", "src"),
		testutil.Symlink("root/src/self", "../lib/a.ts"),
	)
	st, err := ExtractReader(context.Background(), bytes.NewReader(data), t.TempDir())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if st.Links != 2 {
		t.Fatalf("expected two links, got %+v", st)
	}
}

func TestExtractRejectsDevices(t *testing.T) {
	data := testutil.Tarball(t, testutil.Entry{Name: "root/fifo", Type: tar.TypeFifo, Mode: 0o644})
	_, err := ExtractReader(context.Background(), bytes.NewReader(data), t.TempDir())
	if !errors.Is(err, ErrUnsupportedEntry) {
		t.Fatalf("expected ErrUnsupportedEntry, got %v", err)
	}
}

func TestExtractCorrupt(t *testing.T) {
	src := filepath.Join(t.TempDir(), "template.tgz")
	if err := os.WriteFile(src, []byte("<html>not a tarball</html>"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := Extract(context.Background(), src, t.TempDir())
	if !errdef.Is(err, errdef.CodeExtract) {
		t.Fatalf("expected extraction error, got %v", err)
	}
}

func TestExtractTruncated(t *testing.T) {
	data := testutil.Tarball(t, testutil.File("root/big.txt", string(bytes.Repeat([]byte("z"), 8192))))
	src := filepath.Join(t.TempDir(), "template.tgz")
	if err := os.WriteFile(src, data[:len(data)/2], 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Extract(context.Background(), src, t.TempDir()); !errdef.Is(err, errdef.CodeExtract) {
		t.Fatalf("expected extraction error, got %v", err)
	}
}

func TestExtractMissingFile(t *testing.T) {
	_, err := Extract(context.Background(), filepath.Join(t.TempDir(), "nope.tgz"), t.TempDir())
	if !errdef.Is(err, errdef.CodeExtract) {
		t.Fatalf("expected extraction error, got %v", err)
	}
}

func TestExtractCancelled(t *testing.T) {
	data := testutil.Tarball(t, testutil.File("root/a.txt", "a"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ExtractReader(ctx, bytes.NewReader(data), t.TempDir()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
