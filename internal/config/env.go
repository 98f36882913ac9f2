package config

import (
	"strconv"
	"strings"
	"time"
)

const (
	envPrefix       = "CREATE_RENA_"
	envTimeout      = envPrefix + "DOWNLOAD_TIMEOUT"
	envMaxRedirects = envPrefix + "MAX_REDIRECTS"
	envManagers     = envPrefix + "PACKAGE_MANAGERS"
	envLogLevel     = envPrefix + "LOG_LEVEL"
	envLogFormat    = envPrefix + "LOG_FORMAT"
	envNoColor      = "NO_COLOR"
)

// ApplyEnv overlays environment overrides on s. Values that do not parse
// are ignored and the file or default value stays in effect.
func ApplyEnv(s Settings, getenv func(string) string) Settings {
	if getenv == nil {
		return s
	}

	if val := strings.TrimSpace(getenv(envTimeout)); val != "" {
		if dur, err := time.ParseDuration(val); err == nil && dur > 0 {
			s.Download.Timeout = Duration(dur)
		}
	}

	if val := strings.TrimSpace(getenv(envMaxRedirects)); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n >= 0 {
			s.Download.MaxRedirects = n
		}
	}

	if val := strings.TrimSpace(getenv(envManagers)); val != "" {
		if list := SplitList(val); len(list) > 0 {
			s.Install.Managers = list
		}
	}

	if val := strings.TrimSpace(getenv(envLogLevel)); val != "" {
		s.Log.Level = val
	}

	if val := strings.TrimSpace(getenv(envLogFormat)); val != "" {
		s.Log.Format = val
	}

	// https://no-color.org: any non-empty value disables color.
	if getenv(envNoColor) != "" {
		off := false
		s.UI.Color = &off
	}
	return s
}

// SplitList turns "pnpm, yarn" into its trimmed, non-empty parts.
func SplitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
