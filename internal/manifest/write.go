package manifest

import (
	"io/fs"
	"os"
	"path/filepath"
)

// writeAtomic replaces p with data through a temp file in the same
// directory, so readers never see a half written manifest.
func writeAtomic(p string, m fs.FileMode, data []byte) (err error) {
	f, err := os.CreateTemp(filepath.Dir(p), ".rena-manifest-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		_ = f.Close()
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()
	if err = f.Chmod(m); err != nil {
		return err
	}
	if _, err = f.Write(data); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}
