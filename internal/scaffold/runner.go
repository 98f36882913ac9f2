package scaffold

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/unkn0wn-root/create-rena-cleanarch/internal/errdef"
	"github.com/unkn0wn-root/create-rena-cleanarch/internal/fsutil"
	"github.com/unkn0wn-root/create-rena-cleanarch/internal/manifest"
	"github.com/unkn0wn-root/create-rena-cleanarch/internal/target"
	"github.com/unkn0wn-root/create-rena-cleanarch/internal/telemetry"
	"github.com/unkn0wn-root/create-rena-cleanarch/internal/template"
	"github.com/unkn0wn-root/create-rena-cleanarch/internal/ui"
)

type runner struct {
	c   *Command
	o   Opt
	log *slog.Logger
	con *ui.Console
	rep Report
}

func (r *runner) run(ctx context.Context) error {
	r.con = ui.NewConsole(r.o.Out, r.c.color)
	r.rep.Name = r.o.Name

	if err := r.stage(ctx, "target", r.prepareTarget); err != nil {
		return err
	}
	r.con.Header(r.o.Name, r.rep.Target)

	if err := r.stage(ctx, "workspace", r.prepareWorkspace); err != nil {
		return err
	}
	r.con.Step("Downloading template...")
	if err := r.stage(ctx, "download", r.download); err != nil {
		return err
	}
	r.con.Step("Extracting template...")
	if err := r.stage(ctx, "extract", r.extract); err != nil {
		return err
	}
	if err := r.stage(ctx, "template_root", r.findRoot); err != nil {
		return err
	}
	r.con.Step("Copying files...")
	if err := r.stage(ctx, "copy", r.copy); err != nil {
		return err
	}

	// Everything below is best effort except the installer.
	_ = r.stage(ctx, "vcs", r.stripVCS)
	r.con.Step("Patching project metadata...")
	_ = r.stage(ctx, "manifest", r.patch)

	if r.o.NoInstall {
		r.rep.InstallSkipped = true
		r.con.Step("Skipping install (--no-install).")
	} else if err := r.stage(ctx, "install", r.install); err != nil {
		return err
	}

	r.con.Done(r.o.Name, r.rep.Installer)
	return nil
}

// stage runs fn inside its own span.
func (r *runner) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := r.c.tracer.Start(ctx, name)
	err := fn(ctx)
	telemetry.End(span, err)
	if err != nil {
		r.log.Debug("stage failed", "stage", name, "error", err)
	}
	return err
}

func (r *runner) prepareTarget(context.Context) error {
	dir, err := target.Resolve(r.o.Dir, r.o.Name)
	if err != nil {
		return err
	}
	if err := target.Ensure(dir); err != nil {
		return err
	}
	r.rep.Target = dir
	return nil
}

func (r *runner) prepareWorkspace(context.Context) error {
	ws, err := os.MkdirTemp(r.c.tmpRoot, workspacePattern)
	if err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "create workspace")
	}
	extract := filepath.Join(ws, extractDirName)
	if err := os.MkdirAll(extract, 0o755); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "create %s", extract)
	}
	r.rep.Workspace = ws
	r.log.Debug("workspace ready", "path", ws)
	return nil
}

func (r *runner) archivePath() string {
	return filepath.Join(r.rep.Workspace, archiveName)
}

func (r *runner) extractDir() string {
	return filepath.Join(r.rep.Workspace, extractDirName)
}

func (r *runner) download(ctx context.Context) error {
	res, err := r.c.fetcher.Download(ctx, r.o.URL, r.archivePath())
	if err != nil {
		if !errdef.Is(err, errdef.CodeDownload) {
			err = errdef.Wrap(errdef.CodeDownload, err, "download %s", r.o.URL)
		}
		return err
	}
	r.rep.Download = res
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("download.hops", res.Hops),
		attribute.Int64("download.bytes", res.Bytes),
	)
	r.log.Debug("template downloaded", "url", res.URL, "hops", res.Hops, "bytes", res.Bytes)
	return nil
}

func (r *runner) extract(ctx context.Context) error {
	st, err := r.c.extractor.Extract(ctx, r.archivePath(), r.extractDir())
	if err != nil {
		if !errdef.Is(err, errdef.CodeExtract) {
			err = errdef.Wrap(errdef.CodeExtract, err, "extract %s", archiveName)
		}
		return err
	}
	r.rep.Extract = st
	r.log.Debug("template extracted", "files", st.Files, "dirs", st.Dirs, "links", st.Links)
	return nil
}

func (r *runner) findRoot(context.Context) error {
	root, err := template.FindRoot(r.extractDir(), r.c.matcher)
	if err != nil {
		return err
	}
	r.rep.Root = root
	if root.Ambiguous() {
		r.warn("several template roots found, using the first",
			"using", root.Name, "candidates", root.Candidates)
	}
	return nil
}

func (r *runner) copy(context.Context) error {
	st, err := fsutil.CopyTree(r.rep.Root.Path, r.rep.Target)
	r.rep.Copy = st
	if err != nil {
		return err
	}
	for _, s := range st.Skipped {
		r.warn("entry not copied", "path", s.Path, "reason", string(s.Reason))
	}
	r.log.Debug("files copied", "files", st.Files, "dirs", st.Dirs, "bytes", st.Bytes)
	return nil
}

func (r *runner) stripVCS(context.Context) error {
	removed, err := fsutil.StripVCS(r.rep.Target)
	r.rep.VCSRemoved = removed
	if err != nil {
		r.warn("could not remove version control metadata", "error", err)
	}
	return err
}

func (r *runner) patch(context.Context) error {
	results, err := manifest.PatchAll(r.rep.Target, r.o.Name, r.c.patchers)
	r.rep.Manifests = results
	for _, res := range results {
		switch res.Status {
		case manifest.StatusInvalid:
			r.warn("manifest skipped", "file", res.File, "error", res.Err)
		case manifest.StatusMissing:
			r.log.Debug("manifest not present", "file", res.File)
		case manifest.StatusPatched:
			if r.o.Verbose {
				r.con.Diff(res.File, res.Before, res.After)
			}
		}
	}
	if err != nil {
		r.warn("manifest not written", "error", err)
	}
	return err
}

func (r *runner) install(ctx context.Context) error {
	c, err := r.c.installer.Select(ctx)
	if err != nil {
		return err
	}
	r.rep.Installer = c.Name
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("install.manager", c.Name))
	r.con.Step(fmt.Sprintf("Installing dependencies (%s)...", c.Name))
	return r.c.installer.Run(ctx, r.rep.Target, c)
}

// warn logs a non-fatal condition and keeps it on the report.
func (r *runner) warn(msg string, args ...any) {
	r.log.Warn(msg, args...)
	r.rep.Warnings = append(r.rep.Warnings, formatWarning(msg, args...))
}

func formatWarning(msg string, args ...any) string {
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i+1 < len(args); i += 2 {
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	return b.String()
}
