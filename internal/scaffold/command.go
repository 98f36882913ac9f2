package scaffold

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/unkn0wn-root/create-rena-cleanarch/internal/archive"
	"github.com/unkn0wn-root/create-rena-cleanarch/internal/fetch"
	"github.com/unkn0wn-root/create-rena-cleanarch/internal/installer"
	"github.com/unkn0wn-root/create-rena-cleanarch/internal/logging"
	"github.com/unkn0wn-root/create-rena-cleanarch/internal/manifest"
	"github.com/unkn0wn-root/create-rena-cleanarch/internal/telemetry"
	"github.com/unkn0wn-root/create-rena-cleanarch/internal/template"
)

const (
	// TemplateURL is the branch snapshot every project starts from.
	TemplateURL = "https://codeload.github.com/crosbydoo/rena-cleanarch/tar.gz/refs/heads/main"

	DefaultTimeout = 2 * time.Minute

	workspacePattern = "rena-cleanarch-*"
	archiveName      = "template.tgz"
	extractDirName   = "extract"
)

type Fetcher interface {
	Download(ctx context.Context, url, dst string) (fetch.Result, error)
}

type Extractor interface {
	Extract(ctx context.Context, src, dst string) (archive.Stats, error)
}

// ExtractFunc adapts a plain function to Extractor.
type ExtractFunc func(ctx context.Context, src, dst string) (archive.Stats, error)

func (f ExtractFunc) Extract(ctx context.Context, src, dst string) (archive.Stats, error) {
	return f(ctx, src, dst)
}

type Installer interface {
	Select(ctx context.Context) (installer.Candidate, error)
	Run(ctx context.Context, dir string, c installer.Candidate) error
}

// Command runs the scaffold pipeline with injectable dependencies.
type Command struct {
	fetcher   Fetcher
	extractor Extractor
	installer Installer
	matcher   template.Matcher
	patchers  []manifest.Patcher
	tmpRoot   string
	log       *slog.Logger
	tracer    trace.Tracer
	color     *bool
}

type Option func(*Command)

func WithFetcher(f Fetcher) Option { return func(c *Command) { c.fetcher = f } }
func WithExtractor(e Extractor) Option { return func(c *Command) { c.extractor = e } }
func WithInstaller(i Installer) Option { return func(c *Command) { c.installer = i } }
func WithMatcher(m template.Matcher) Option { return func(c *Command) { c.matcher = m } }
func WithLogger(l *slog.Logger) Option { return func(c *Command) { c.log = l } }
func WithTracer(t trace.Tracer) Option { return func(c *Command) { c.tracer = t } }

// WithTempRoot sets where the per-run workspace is created. Empty means
// the system temp directory.
func WithTempRoot(dir string) Option { return func(c *Command) { c.tmpRoot = dir } }

// WithPatchers replaces the manifest patchers applied after copying.
func WithPatchers(p []manifest.Patcher) Option {
	return func(c *Command) { c.patchers = p }
}

// WithColor forces console styling on or off; nil means detect.
func WithColor(color *bool) Option { return func(c *Command) { c.color = color } }

func New(opts ...Option) *Command {
	c := &Command{
		fetcher:   fetch.NewClient(&http.Client{Timeout: DefaultTimeout}, fetch.DefaultMaxRedirects),
		extractor: ExtractFunc(archive.Extract),
		installer: installer.New(installer.NewExec(), nil),
		matcher:   template.Default(),
		patchers:  manifest.Defaults(),
		tmpRoot:   os.TempDir(),
		log:       logging.Discard(),
		tracer:    telemetry.Noop().Tracer(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Run keeps a one-call API with default dependencies.
func Run(ctx context.Context, o Opt) (Report, error) {
	return New().Run(ctx, o)
}

func (c *Command) Run(ctx context.Context, o Opt) (rep Report, err error) {
	o = withDefaults(o)
	if o.RunID == "" {
		o.RunID = logging.NewRunID()
	}
	log := logging.WithRun(c.log, o.RunID)

	ctx, span := c.tracer.Start(ctx, "scaffold", trace.WithAttributes(
		telemetry.RunKey.String(o.RunID),
	))
	defer func() { telemetry.End(span, err) }()

	r := &runner{c: c, o: o, log: log}
	err = r.run(ctx)
	return r.rep, err
}
