package scaffold

import (
	"io"
	"strings"
)

// Opt describes one scaffold run.
// Fields are plain values so callers can map flags directly.
type Opt struct {
	// Name is the project name; it also names the target directory.
	Name      string
	NoInstall bool
	// Dir is the directory Name is resolved against. Empty means the
	// process working directory.
	Dir string
	// URL overrides the template archive location.
	URL     string
	Out     io.Writer
	Verbose bool
	// RunID tags logs and spans; one is generated when empty.
	RunID string
}

func withDefaults(o Opt) Opt {
	o.Name = strings.TrimSpace(o.Name)
	o.Dir = strings.TrimSpace(o.Dir)
	o.URL = strings.TrimSpace(o.URL)
	if o.URL == "" {
		o.URL = TemplateURL
	}
	if o.Out == nil {
		o.Out = io.Discard
	}
	return o
}
