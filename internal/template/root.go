package template

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/unkn0wn-root/create-rena-cleanarch/internal/errdef"
)

// RootPrefix is the leading part of the directory GitHub creates when it
// packs a branch snapshot: "<repo>-<ref>/".
const RootPrefix = "rena-cleanarch-"

// Matcher decides whether an extracted top-level directory is the template root.
type Matcher interface {
	Match(name string) bool
}

// Prefix matches directory names starting with its value.
type Prefix string

func (p Prefix) Match(name string) bool {
	return p != "" && strings.HasPrefix(name, string(p))
}

// Default returns the matcher for the bundled template archive.
func Default() Matcher {
	return Prefix(RootPrefix)
}

type Root struct {
	Path string
	Name string
	// Candidates holds every matching name in listing order, Name included.
	Candidates []string
}

// Ambiguous reports whether more than one directory matched.
func (r Root) Ambiguous() bool {
	return len(r.Candidates) > 1
}

// FindRoot picks the first directory under dir accepted by m. Entries are
// visited in the order os.ReadDir returns them, which is sorted by name.
func FindRoot(dir string, m Matcher) (Root, error) {
	if m == nil {
		m = Default()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Root{}, errdef.Wrap(errdef.CodeTemplateRoot, err, "list %s", dir)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() || !m.Match(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return Root{}, errdef.New(errdef.CodeTemplateRoot, "could not find extracted template root folder in %s", dir)
	}
	return Root{
		Path:       filepath.Join(dir, names[0]),
		Name:       names[0],
		Candidates: names,
	}, nil
}
