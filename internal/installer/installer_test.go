package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"testing"

	"github.com/unkn0wn-root/create-rena-cleanarch/internal/errdef"
)

type call struct {
	dir  string
	name string
	args []string
}

type fakeRunner struct {
	available map[string]bool
	runErr    error
	probes    []string
	runs      []call
}

func (f *fakeRunner) Probe(_ context.Context, name string, args ...string) bool {
	f.probes = append(f.probes, name)
	return f.available[name]
}

func (f *fakeRunner) Run(_ context.Context, dir, name string, args ...string) error {
	f.runs = append(f.runs, call{dir: dir, name: name, args: args})
	return f.runErr
}

type codeErr int

func (c codeErr) Error() string { return fmt.Sprintf("exit status %d", int(c)) }
func (c codeErr) ExitCode() int { return int(c) }

func names(cs []Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}

func TestSelectFallbackOrder(t *testing.T) {
	cases := []struct {
		name      string
		available map[string]bool
		want      string
		probes    int
	}{
		{"pnpm first", map[string]bool{PNPM: true, Yarn: true}, PNPM, 1},
		{"yarn when no pnpm", map[string]bool{Yarn: true}, Yarn, 2},
		{"npm fallback", map[string]bool{}, NPM, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := &fakeRunner{available: tc.available}
			c, err := New(r, nil).Select(context.Background())
			if err != nil {
				t.Fatalf("select: %v", err)
			}
			if c.Name != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, c.Name)
			}
			if len(r.probes) != tc.probes {
				t.Fatalf("expected %d probes, got %v", tc.probes, r.probes)
			}
			for _, p := range r.probes {
				if p == NPM {
					t.Fatalf("npm must never be probed")
				}
			}
		})
	}
}

func TestCandidates(t *testing.T) {
	got := names(Candidates([]string{" Yarn", "deno", "bun", "yarn"}))
	want := []string{Yarn, Bun, NPM}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got := names(Candidates(nil)); fmt.Sprint(got) != fmt.Sprint(DefaultOrder) {
		t.Fatalf("expected default order, got %v", got)
	}
}

func TestCandidatesStopAtNPM(t *testing.T) {
	r := &fakeRunner{available: map[string]bool{PNPM: true}}
	c, err := New(r, []string{NPM, PNPM}).Select(context.Background())
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if c.Name != NPM || len(r.probes) != 0 {
		t.Fatalf("expected npm without probing, got %s after %v", c.Name, r.probes)
	}
}

func TestInstallRunsInTarget(t *testing.T) {
	r := &fakeRunner{available: map[string]bool{Yarn: true}}
	name, err := New(r, nil).Install(context.Background(), "/tmp/demo")
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if name != Yarn {
		t.Fatalf("expected yarn, got %s", name)
	}
	if len(r.runs) != 1 {
		t.Fatalf("expected one run, got %d", len(r.runs))
	}
	got := r.runs[0]
	if got.dir != "/tmp/demo" || got.name != Yarn || len(got.args) != 1 || got.args[0] != "install" {
		t.Fatalf("unexpected run %+v", got)
	}
}

func TestInstallPropagatesExitCode(t *testing.T) {
	r := &fakeRunner{runErr: codeErr(7)}
	_, err := New(r, nil).Install(context.Background(), t.TempDir())
	if !errdef.Is(err, errdef.CodeInstall) {
		t.Fatalf("expected install error, got %v", err)
	}
	if got := errdef.ExitCode(err); got != 7 {
		t.Fatalf("expected exit 7, got %d", got)
	}
}

func TestInstallUnknownExitCode(t *testing.T) {
	for _, runErr := range []error{errors.New("executable file not found"), codeErr(-1)} {
		r := &fakeRunner{runErr: runErr}
		_, err := New(r, nil).Install(context.Background(), t.TempDir())
		if got := errdef.ExitCode(err); got != 1 {
			t.Fatalf("%v: expected exit 1, got %d", runErr, got)
		}
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for i, a := range args {
		if a == "--" {
			args = args[i+1:]
			break
		}
	}
	code, _ := strconv.Atoi(args[0])
	os.Exit(code)
}

func TestExecRunnerExitStatus(t *testing.T) {
	t.Setenv("GO_WANT_HELPER_PROCESS", "1")
	e := Exec{}
	err := e.Run(context.Background(), t.TempDir(), os.Args[0], "-test.run=TestHelperProcess", "--", "5")
	if err == nil {
		t.Fatalf("expected failure")
	}
	if got := exitStatus(err); got != 5 {
		t.Fatalf("expected exit 5, got %d", got)
	}
	if !e.Probe(context.Background(), os.Args[0], "-test.run=TestHelperProcess", "--", "0") {
		t.Fatalf("expected successful probe")
	}
	if e.Probe(context.Background(), "create-rena-no-such-tool") {
		t.Fatalf("missing tool must not probe")
	}
}
