package fsutil

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/unkn0wn-root/create-rena-cleanarch/internal/errdef"
)

func write(t *testing.T, p string, data []byte, mode os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, data, mode); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestCopyTree(t *testing.T) {
	src := t.TempDir()
	bin := []byte{0x00, 0xff, 0x10, 0x0a, 0x0d}
	write(t, filepath.Join(src, "package.json"), []byte(`{"name":"x"}`), 0o644)
	write(t, filepath.Join(src, "assets", "icon.png"), bin, 0o644)
	write(t, filepath.Join(src, "scripts", "run.sh"), []byte("#!/bin/sh\n"), 0o755)
	write(t, filepath.Join(src, "empty", ".gitkeep"), nil, 0o644)
	if err := os.MkdirAll(filepath.Join(src, "deep", "nested", "dir"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	dst := filepath.Join(t.TempDir(), "demo")
	st, err := CopyTree(src, dst)
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	if st.Files != 4 {
		t.Fatalf("expected 4 files, got %+v", st)
	}

	got, err := os.ReadFile(filepath.Join(dst, "assets", "icon.png"))
	if err != nil || !bytes.Equal(got, bin) {
		t.Fatalf("binary content differs: %v", err)
	}
	if info, err := os.Stat(filepath.Join(dst, "empty", ".gitkeep")); err != nil || info.Size() != 0 {
		t.Fatalf("expected empty file to be copied: %v", err)
	}
	if info, err := os.Stat(filepath.Join(dst, "deep", "nested", "dir")); err != nil || !info.IsDir() {
		t.Fatalf("expected empty directory to be copied: %v", err)
	}
	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Join(dst, "scripts", "run.sh"))
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		if info.Mode().Perm() != 0o755 {
			t.Fatalf("expected 0755, got %v", info.Mode().Perm())
		}
	}
}

func TestCopyTreeSkipsSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	src := t.TempDir()
	write(t, filepath.Join(src, "a.txt"), []byte("a"), 0o644)
	if err := os.Symlink("a.txt", filepath.Join(src, "link.txt")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	dst := t.TempDir()
	st, err := CopyTree(src, dst)
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	if len(st.Skipped) != 1 || st.Skipped[0].Path != "link.txt" || st.Skipped[0].Reason != SkipSymlink {
		t.Fatalf("unexpected skipped list %+v", st.Skipped)
	}
	if _, err := os.Lstat(filepath.Join(dst, "link.txt")); !os.IsNotExist(err) {
		t.Fatalf("symlink must not be copied")
	}
}

func TestCopyTreeMissingSource(t *testing.T) {
	_, err := CopyTree(filepath.Join(t.TempDir(), "missing"), t.TempDir())
	if !errdef.Is(err, errdef.CodeFilesystem) {
		t.Fatalf("expected filesystem error, got %v", err)
	}
}

func TestStripVCS(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, ".git", "objects", "ab", "cdef"), []byte("obj"), 0o444)
	write(t, filepath.Join(dir, ".gitignore"), []byte("node_modules\n"), 0o644)

	removed, err := StripVCS(dir)
	if err != nil {
		t.Fatalf("strip: %v", err)
	}
	if !removed {
		t.Fatalf("expected removal to be reported")
	}
	if _, err := os.Stat(filepath.Join(dir, ".git")); !os.IsNotExist(err) {
		t.Fatalf("expected .git to be gone")
	}
	if _, err := os.Stat(filepath.Join(dir, ".gitignore")); err != nil {
		t.Fatalf(".gitignore must be kept: %v", err)
	}
}

func TestStripVCSAbsent(t *testing.T) {
	removed, err := StripVCS(t.TempDir())
	if err != nil || removed {
		t.Fatalf("expected no-op, got removed=%v err=%v", removed, err)
	}
}
