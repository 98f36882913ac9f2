// Package target resolves and prepares the directory a new project is
// materialized into.
package target

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/unkn0wn-root/create-rena-cleanarch/internal/errdef"
)

const dirPerm = 0o755

// Resolve returns the absolute project path for name under cwd. Absolute
// names are used as given.
func Resolve(cwd, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errdef.New(errdef.CodeUsage, "missing <project-name>")
	}
	if filepath.IsAbs(name) {
		return filepath.Clean(name), nil
	}
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", errdef.Wrap(errdef.CodeFilesystem, err, "resolve working directory")
		}
		cwd = wd
	}
	abs, err := filepath.Abs(filepath.Join(cwd, name))
	if err != nil {
		return "", errdef.Wrap(errdef.CodeFilesystem, err, "resolve %s", name)
	}
	return abs, nil
}

// Ensure makes dir usable as an empty project root. An existing directory
// must have no entries; a missing one is created with its parents.
//
// The emptiness check and the creation are two separate syscalls, so a
// concurrent writer can still slip an entry in between them.
func Ensure(dir string) error {
	info, err := os.Stat(dir)
	switch {
	case err == nil && !info.IsDir():
		return errdef.New(errdef.CodeTarget, "target exists and is not a directory: %s", dir)
	case err == nil:
		empty, err := isEmpty(dir)
		if err != nil {
			return errdef.Wrap(errdef.CodeFilesystem, err, "read %s", dir)
		}
		if !empty {
			return errdef.New(errdef.CodeTarget, "target directory is not empty: %s", dir)
		}
		return nil
	case !errors.Is(err, fs.ErrNotExist):
		return errdef.Wrap(errdef.CodeFilesystem, err, "stat %s", dir)
	}

	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "create %s", dir)
	}
	return nil
}

func isEmpty(dir string) (bool, error) {
	f, err := os.Open(dir)
	if err != nil {
		return false, err
	}
	defer func() {
		_ = f.Close()
	}()
	if _, err := f.Readdirnames(1); err != nil {
		if errors.Is(err, io.EOF) {
			return true, nil
		}
		return false, fmt.Errorf("list entries: %w", err)
	}
	return false, nil
}
