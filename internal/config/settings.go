package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/unkn0wn-root/create-rena-cleanarch/internal/errdef"
	"github.com/unkn0wn-root/create-rena-cleanarch/internal/logging"
)

type Format string

const (
	FormatNone Format = ""
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

const (
	DefaultTimeout      = 2 * time.Minute
	DefaultMaxRedirects = 10
	DefaultLogLevel     = "warn"
	DefaultLogFormat    = "text"
)

// Duration decodes from strings such as "90s" in both TOML and YAML files.
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

type Settings struct {
	Download Download `toml:"download" yaml:"download"`
	Install  Install  `toml:"install" yaml:"install"`
	Log      Log      `toml:"log" yaml:"log"`
	UI       UI       `toml:"ui" yaml:"ui"`
}

type Download struct {
	Timeout      Duration `toml:"timeout" yaml:"timeout"`
	MaxRedirects int      `toml:"max_redirects" yaml:"max_redirects"`
}

type Install struct {
	Managers []string `toml:"managers" yaml:"managers"`
}

type Log struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

type UI struct {
	// Color forces styling on or off; nil leaves it to terminal detection.
	Color *bool `toml:"color" yaml:"color"`
}

// Handle records where settings were read from.
type Handle struct {
	Path   string
	Format Format
}

func Defaults() Settings {
	return Settings{
		Download: Download{
			Timeout:      Duration(DefaultTimeout),
			MaxRedirects: DefaultMaxRedirects,
		},
		Log: Log{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

var candidates = []struct {
	name   string
	format Format
}{
	{fileBase + ".toml", FormatTOML},
	{fileBase + ".yaml", FormatYAML},
	{fileBase + ".yml", FormatYAML},
}

// LoadSettings reads the first settings file found in Dir.
func LoadSettings() (Settings, Handle, error) {
	return Load(Dir())
}

// Load reads the first settings file present in dir, layered over the
// defaults. A missing file is not an error.
func Load(dir string) (Settings, Handle, error) {
	s := Defaults()
	for _, c := range candidates {
		p := filepath.Join(dir, c.name)
		data, err := os.ReadFile(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return s, Handle{Path: p}, errdef.Wrap(errdef.CodeConfig, err, "read %s", p)
		}
		h := Handle{Path: p, Format: c.format}
		if err := decode(data, c.format, &s); err != nil {
			return Defaults(), h, errdef.Wrap(errdef.CodeConfig, err, "parse %s", p)
		}
		if err := s.Validate(); err != nil {
			return Defaults(), h, errdef.Wrap(errdef.CodeConfig, err, "%s", p)
		}
		return s, h, nil
	}
	return s, Handle{Path: filepath.Join(dir, candidates[0].name)}, nil
}

func decode(data []byte, f Format, s *Settings) error {
	switch f {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(s)
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(s); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	default:
		return fmt.Errorf("unknown settings format %q", f)
	}
}

func (s Settings) Validate() error {
	if s.Download.Timeout <= 0 {
		return errors.New("download.timeout must be positive")
	}
	if s.Download.MaxRedirects < 0 {
		return errors.New("download.max_redirects must not be negative")
	}
	if _, ok := logging.ParseLevel(s.Log.Level); !ok {
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", s.Log.Level)
	}
	if _, ok := logging.ParseFormat(s.Log.Format); !ok {
		return fmt.Errorf("log.format %q is not one of text, json", s.Log.Format)
	}
	return nil
}
