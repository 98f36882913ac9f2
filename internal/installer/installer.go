package installer

import (
	"context"
	"errors"
	"strings"

	"github.com/unkn0wn-root/create-rena-cleanarch/internal/errdef"
)

const (
	PNPM = "pnpm"
	Yarn = "yarn"
	NPM  = "npm"
	Bun  = "bun"
)

// Candidate is one package manager the installer may choose. A nil Probe
// marks the fallback: it is selected without being checked.
type Candidate struct {
	Name    string
	Probe   []string
	Install []string
}

var known = map[string]Candidate{
	PNPM: {Name: PNPM, Probe: []string{"--version"}, Install: []string{"install"}},
	Yarn: {Name: Yarn, Probe: []string{"--version"}, Install: []string{"install"}},
	Bun:  {Name: Bun, Probe: []string{"--version"}, Install: []string{"install"}},
	NPM:  {Name: NPM, Install: []string{"install"}},
}

// DefaultOrder is the preference used when nothing is configured.
var DefaultOrder = []string{PNPM, Yarn, NPM}

// Runner executes package manager commands.
type Runner interface {
	// Probe reports whether "name args..." ran and exited zero.
	Probe(ctx context.Context, name string, args ...string) bool
	// Run executes "name args..." inside dir.
	Run(ctx context.Context, dir, name string, args ...string) error
}

type Installer struct {
	runner     Runner
	candidates []Candidate
}

// New builds an installer over the given preference list. Unknown names are
// dropped and npm is appended as the unprobed fallback when missing.
func New(r Runner, order []string) *Installer {
	return &Installer{runner: r, candidates: Candidates(order)}
}

func Candidates(order []string) []Candidate {
	if len(order) == 0 {
		order = DefaultOrder
	}
	seen := make(map[string]bool, len(order))
	out := make([]Candidate, 0, len(order)+1)
	for _, raw := range order {
		name := strings.ToLower(strings.TrimSpace(raw))
		c, ok := known[name]
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, c)
	}
	if !seen[NPM] {
		out = append(out, known[NPM])
	}
	return out
}

func (i *Installer) Candidates() []Candidate {
	return append([]Candidate(nil), i.candidates...)
}

// Select walks the candidates in order and stops at the first one that is
// available. Candidates after the fallback are never considered.
func (i *Installer) Select(ctx context.Context) (Candidate, error) {
	for _, c := range i.candidates {
		if c.Probe == nil || i.runner.Probe(ctx, c.Name, c.Probe...) {
			return c, nil
		}
	}
	return Candidate{}, errdef.New(errdef.CodeInstall, "no package manager available")
}

// Install selects a package manager and runs its install command in dir.
func (i *Installer) Install(ctx context.Context, dir string) (string, error) {
	c, err := i.Select(ctx)
	if err != nil {
		return "", err
	}
	return c.Name, i.Run(ctx, dir, c)
}

// Run executes c's install command in dir. A failed command yields an
// install_failed error whose exit status is the child's own, or 1 when it
// has none.
func (i *Installer) Run(ctx context.Context, dir string, c Candidate) error {
	if err := i.runner.Run(ctx, dir, c.Name, c.Install...); err != nil {
		wrapped := errdef.Wrap(errdef.CodeInstall, err, "%s %s", c.Name, strings.Join(c.Install, " "))
		return errdef.WithExit(wrapped, exitStatus(err))
	}
	return nil
}

// exitStatus reads the code from *exec.ExitError or anything shaped like it.
// Signals report -1 and map to 1.
func exitStatus(err error) int {
	var ce interface{ ExitCode() int }
	if errors.As(err, &ce) {
		if code := ce.ExitCode(); code > 0 {
			return code
		}
	}
	return errdef.ExitFailure
}
