package scaffold

import (
	"github.com/unkn0wn-root/create-rena-cleanarch/internal/archive"
	"github.com/unkn0wn-root/create-rena-cleanarch/internal/fetch"
	"github.com/unkn0wn-root/create-rena-cleanarch/internal/fsutil"
	"github.com/unkn0wn-root/create-rena-cleanarch/internal/manifest"
	"github.com/unkn0wn-root/create-rena-cleanarch/internal/template"
)

// Report collects what a run did. Fields are filled as stages complete, so
// a failed run returns whatever was reached.
type Report struct {
	Name   string
	Target string
	// Workspace is the temp directory holding the archive and its
	// extraction. It is left in place after the run.
	Workspace      string
	Download       fetch.Result
	Extract        archive.Stats
	Root           template.Root
	Copy           fsutil.CopyStats
	VCSRemoved     bool
	Manifests      []manifest.Result
	Installer      string
	InstallSkipped bool
	Warnings       []string
}

// Patched lists the manifest files rewritten during the run.
func (r Report) Patched() []string {
	var out []string
	for _, m := range r.Manifests {
		if m.Status == manifest.StatusPatched {
			out = append(out, m.File)
		}
	}
	return out
}
