package telemetry

import (
	"strconv"
	"strings"
	"time"
)

const (
	envPrefix   = "CREATE_RENA_TRACE_OTEL_"
	envEndpoint = envPrefix + "ENDPOINT"
	envInsecure = envPrefix + "INSECURE"
	envHeaders  = envPrefix + "HEADERS"
	envService  = envPrefix + "SERVICE"
	envTimeout  = envPrefix + "TIMEOUT"
	envSample   = envPrefix + "SAMPLE"
)

// ServiceName is reported on every exported span unless overridden.
const ServiceName = "create-rena-cleanarch"

type Config struct {
	Endpoint    string
	Insecure    bool
	Headers     map[string]string
	ServiceName string
	Version     string
	// Timeout bounds each export and the final flush.
	Timeout time.Duration
	// Sample is the fraction of runs traced, in (0, 1].
	Sample float64
}

// Default returns the baseline telemetry config used when no overrides exist.
func Default() Config {
	return Config{
		ServiceName: ServiceName,
		Timeout:     5 * time.Second,
		Sample:      1,
	}
}

// Enabled reports whether an exporter endpoint is configured.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Endpoint) != ""
}

// ConfigFromEnv populates Config from environment variables, falling back to
// defaults when values are missing or invalid.
func ConfigFromEnv(getenv func(string) string) Config {
	cfg := Default()
	if getenv == nil {
		return cfg
	}

	cfg.Endpoint = strings.TrimSpace(getenv(envEndpoint))

	if val := strings.TrimSpace(getenv(envInsecure)); val != "" {
		if parsed, ok := parseBool(val); ok {
			cfg.Insecure = parsed
		}
	}

	if val := strings.TrimSpace(getenv(envService)); val != "" {
		cfg.ServiceName = val
	}

	if val := strings.TrimSpace(getenv(envTimeout)); val != "" {
		if dur, err := time.ParseDuration(val); err == nil && dur > 0 {
			cfg.Timeout = dur
		}
	}

	if val := strings.TrimSpace(getenv(envSample)); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil && f > 0 && f <= 1 {
			cfg.Sample = f
		}
	}

	cfg.Headers = ParseHeaders(getenv(envHeaders))
	return cfg
}

// ParseHeaders converts comma separated key=value pairs into a header map.
// Entries without a key are dropped; nil is returned when nothing remains.
func ParseHeaders(raw string) map[string]string {
	var headers map[string]string
	for _, entry := range strings.Split(raw, ",") {
		key, value, _ := strings.Cut(strings.TrimSpace(entry), "=")
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if headers == nil {
			headers = make(map[string]string)
		}
		headers[key] = strings.TrimSpace(value)
	}
	return headers
}

func parseBool(value string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
