// Package testutil builds template archives for tests.
package testutil

import (
	"archive/tar"
	"bytes"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
)

// Entry describes one member of a test tarball. Dirs end with "/".
type Entry struct {
	Name     string
	Body     string
	Mode     int64
	Type     byte
	Linkname string
}

// File is a regular file entry with 0644 permissions.
func File(name, body string) Entry {
	return Entry{Name: name, Body: body, Mode: 0o644, Type: tar.TypeReg}
}

// Dir is a directory entry.
func Dir(name string) Entry {
	return Entry{Name: name, Mode: 0o755, Type: tar.TypeDir}
}

// Symlink is a symbolic link entry.
func Symlink(name, target string) Entry {
	return Entry{Name: name, Mode: 0o777, Type: tar.TypeSymlink, Linkname: target}
}

// Tarball returns a gzip-compressed tar stream holding entries, prefixed with
// a pax global header the way GitHub snapshot archives are.
func Tarball(t testing.TB, entries ...Entry) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(zw)

	mtime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	global := &tar.Header{
		Typeflag:   tar.TypeXGlobalHeader,
		Name:       "pax_global_header",
		PAXRecords: map[string]string{"comment": "0123456789abcdef0123456789abcdef01234567"},
		Format:     tar.FormatPAX,
	}
	if err := tw.WriteHeader(global); err != nil {
		t.Fatalf("write global header: %v", err)
	}

	for _, e := range entries {
		typ := e.Type
		if typ == 0 {
			typ = tar.TypeReg
		}
		hdr := &tar.Header{
			Name:     e.Name,
			Mode:     e.Mode,
			Typeflag: typ,
			Linkname: e.Linkname,
			ModTime:  mtime,
		}
		if typ == tar.TypeReg {
			hdr.Size = int64(len(e.Body))
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("write header %s: %v", e.Name, err)
		}
		if typ == tar.TypeReg && e.Body != "" {
			if _, err := tw.Write([]byte(e.Body)); err != nil {
				t.Fatalf("write body %s: %v", e.Name, err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	return buf.Bytes()
}
