package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/unkn0wn-root/create-rena-cleanarch/internal/config"
	"github.com/unkn0wn-root/create-rena-cleanarch/internal/errdef"
	"github.com/unkn0wn-root/create-rena-cleanarch/internal/fetch"
	"github.com/unkn0wn-root/create-rena-cleanarch/internal/installer"
	"github.com/unkn0wn-root/create-rena-cleanarch/internal/logging"
	"github.com/unkn0wn-root/create-rena-cleanarch/internal/scaffold"
	"github.com/unkn0wn-root/create-rena-cleanarch/internal/telemetry"
	"github.com/unkn0wn-root/create-rena-cleanarch/internal/ui"
)

const (
	appName              = "create-rena-cleanarch"
	flushTimeout         = 5 * time.Second
	flagNoInstall        = "no-install"
	flagVerbose          = "verbose"
	flagLogFormat        = "log-format"
	flagNoColor          = "no-color"
	usageHintAfterErrors = "Run '" + appName + " --help' for usage."
)

type flags struct {
	noInstall bool
	verbose   bool
	logFormat string
	noColor   bool
}

// cli wires settings, logging, tracing and the scaffold command together.
// It is the only place that turns errors into exit codes.
type cli struct {
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
	// cwd is where the project name is resolved; empty means os.Getwd.
	cwd string
	// extra options are appended after the defaults, for tests.
	extra []scaffold.Option
}

func newCLI() *cli {
	return &cli{stdout: os.Stdout, stderr: os.Stderr, getenv: os.Getenv}
}

func (c *cli) execute(ctx context.Context, args []string) int {
	if args == nil {
		// cobra falls back to os.Args on nil
		args = []string{}
	}
	cmd := c.command()
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return errdef.ExitOK
	}
	c.report(err)
	return errdef.ExitCode(err)
}

func (c *cli) command() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   appName + " <project-name>",
		Short: "Create a new app from the rena-cleanarch template",
		Long: heredoc.Doc(`
			Create a new app from the rena-cleanarch template.

			The template is downloaded from GitHub, copied into a new
			<project-name> directory, renamed, stripped of its git history and
			finally installed with pnpm, yarn or npm, whichever is found first.
		`),
		Example: heredoc.Doc(`
			create-rena-cleanarch my-app
			create-rena-cleanarch my-app --no-install
		`),
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Args:          usageArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				// Only a bare invocation is a request for help.
				if cmd.Flags().NFlag() == 0 {
					return cmd.Help()
				}
				return errdef.New(errdef.CodeUsage, "missing <project-name>")
			}
			return c.scaffold(cmd.Context(), args[0], f, cmd.Flags())
		},
	}
	cmd.SetOut(c.stdout)
	cmd.SetErr(c.stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errdef.Wrap(errdef.CodeUsage, err, "")
	})
	cmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	fs := cmd.Flags()
	fs.BoolVar(&f.noInstall, flagNoInstall, false, "skip installing dependencies")
	fs.BoolVarP(&f.verbose, flagVerbose, "v", false, "log every step and show manifest changes")
	fs.StringVar(&f.logFormat, flagLogFormat, config.DefaultLogFormat, "log output format: text or json")
	fs.BoolVar(&f.noColor, flagNoColor, false, "disable colored output")
	return cmd
}

func usageArgs(_ *cobra.Command, args []string) error {
	if len(args) > 1 {
		return errdef.New(errdef.CodeUsage, "expected one <project-name>, got %d arguments", len(args))
	}
	return nil
}

func (c *cli) scaffold(ctx context.Context, name string, f flags, fs *pflag.FlagSet) error {
	settings, err := c.settings(f, fs)
	if err != nil {
		return err
	}

	log := logging.New(settings.Log.Level, settings.Log.Format, c.stderr)
	runID := logging.NewRunID()

	tcfg := telemetry.ConfigFromEnv(c.getenv)
	tcfg.Version = version
	prov, err := telemetry.Setup(ctx, tcfg)
	if err != nil {
		log.Warn("tracing disabled", "error", err)
		prov = telemetry.Noop()
	}
	defer func() {
		if err := prov.Shutdown(context.WithoutCancel(ctx)); err != nil {
			log.Warn("trace flush failed", "error", err)
		}
	}()

	cmd := scaffold.New(c.options(settings, log, prov)...)
	_, err = cmd.Run(ctx, scaffold.Opt{
		Name:      name,
		NoInstall: f.noInstall,
		Dir:       c.cwd,
		Out:       c.stdout,
		Verbose:   f.verbose,
		RunID:     runID,
	})
	return err
}

// settings layers flags over env over the settings file over defaults.
func (c *cli) settings(f flags, fs *pflag.FlagSet) (config.Settings, error) {
	s, h, err := config.LoadSettings()
	if err != nil {
		return s, err
	}
	s = config.ApplyEnv(s, c.getenv)

	if f.verbose {
		s.Log.Level = "debug"
	}
	if fs.Changed(flagLogFormat) {
		s.Log.Format = f.logFormat
	}
	if f.noColor {
		off := false
		s.UI.Color = &off
	}
	if err := s.Validate(); err != nil {
		return s, errdef.Wrap(errdef.CodeConfig, err, "settings (%s)", h.Path)
	}
	return s, nil
}

func (c *cli) options(s config.Settings, log *slog.Logger, prov *telemetry.Provider) []scaffold.Option {
	client := fetch.NewClient(
		&http.Client{Timeout: time.Duration(s.Download.Timeout)},
		s.Download.MaxRedirects,
	).WithUserAgent(appName + "/" + version)

	opts := []scaffold.Option{
		scaffold.WithFetcher(client),
		scaffold.WithInstaller(installer.New(installer.NewExec(), s.Install.Managers)),
		scaffold.WithLogger(log),
		scaffold.WithTracer(prov.Tracer()),
		scaffold.WithColor(s.UI.Color),
	}
	return append(opts, c.extra...)
}

func (c *cli) report(err error) {
	con := ui.NewConsole(c.stderr, nil)
	con.Error(errdef.Message(err))
	if errdef.Is(err, errdef.CodeUsage) {
		con.Info(usageHintAfterErrors)
	}
}
