// Package ui prints the human facing progress of a scaffold run.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/aymanbagabas/go-udiff"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

const brand = "create-rena-cleanarch"

// Console writes step lines to a single writer. It is not safe for
// concurrent use.
type Console struct {
	w     io.Writer
	theme Theme
}

// NewConsole prepares a console for w. A nil color lets the renderer detect
// support from w; otherwise color is forced on or off.
func NewConsole(w io.Writer, color *bool) *Console {
	if w == nil {
		w = io.Discard
	}
	r := lipgloss.NewRenderer(w)
	if color != nil {
		if *color {
			r.SetColorProfile(termenv.TrueColor)
		} else {
			r.SetColorProfile(termenv.Ascii)
		}
	}
	return &Console{w: w, theme: NewTheme(r)}
}

// Discard returns a console that prints nothing.
func Discard() *Console {
	return NewConsole(io.Discard, nil)
}

func (c *Console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.w, format, args...)
}

// Header announces the project being created.
func (c *Console) Header(name, target string) {
	t := c.theme
	c.printf("\n%s %s %s\n", t.Brand.Render(brand), t.Title.Render("Creating project:"), t.Value.Render(name))
	c.printf("  %s %s\n\n", t.Label.Render("Target:"), t.Value.Render(target))
}

func (c *Console) Step(msg string) {
	c.printf("%s %s\n", c.theme.Step.Render("›"), msg)
}

func (c *Console) Info(msg string) {
	c.printf("  %s\n", c.theme.Hint.Render(msg))
}

func (c *Console) Warn(msg string) {
	c.printf("%s %s\n", c.theme.Warning.Render("!"), c.theme.Warning.Render(msg))
}

func (c *Console) Error(msg string) {
	c.printf("\n%s %s\n\n", c.theme.Error.Render("✗"), msg)
}

// Diff prints a unified diff between two versions of file. Nothing is
// printed when they are equal.
func (c *Console) Diff(file string, before, after []byte) {
	d := udiff.Unified("a/"+file, "b/"+file, string(before), string(after))
	if d == "" {
		return
	}
	t := c.theme
	for _, line := range strings.SplitAfter(d, "\n") {
		if line == "" {
			continue
		}
		body := strings.TrimSuffix(line, "\n")
		switch {
		case strings.HasPrefix(body, "+++"), strings.HasPrefix(body, "---"), strings.HasPrefix(body, "@@"):
			body = t.DiffHdr.Render(body)
		case strings.HasPrefix(body, "+"):
			body = t.DiffAdd.Render(body)
		case strings.HasPrefix(body, "-"):
			body = t.DiffDel.Render(body)
		}
		c.printf("    %s\n", body)
	}
}

// Done prints the closing summary with the commands to start the project.
// manager is the package manager used for install, or empty when skipped.
func (c *Console) Done(name, manager string) {
	t := c.theme
	run := manager
	if run == "" {
		run = "npm"
	}
	c.printf("\n%s\n\n", t.Success.Render("✓ Done!"))
	c.printf("%s\n", t.Label.Render("Next:"))
	c.printf("  cd %s\n", name)
	c.printf("  %s start\n", run)
	if manager == "" {
		c.printf("\n%s\n", t.Hint.Render("(Or: pnpm start / yarn start)"))
	}
	c.printf("\n")
}
