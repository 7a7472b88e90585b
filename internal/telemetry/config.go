package telemetry

import (
	"strconv"
	"strings"
	"time"

	"github.com/unkn0wn-root/recurl/internal/errdef"
)

const (
	envEndpoint    = "RECURL_OTEL_ENDPOINT"
	envInsecure    = "RECURL_OTEL_INSECURE"
	envService     = "RECURL_OTEL_SERVICE"
	envDialTimeout = "RECURL_OTEL_DIAL_TIMEOUT"
	envHeaders     = "RECURL_OTEL_HEADERS"

	defaultServiceName = "recurl"
)

type Config struct {
	Endpoint    string
	Insecure    bool
	ServiceName string
	Version     string
	DialTimeout time.Duration
	Headers     map[string]string
}

func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Endpoint) != ""
}

// ConfigFromEnv reads exporter settings through lookup, usually
// os.Getenv. Malformed optional values fall back to defaults rather
// than failing the run.
func ConfigFromEnv(lookup func(string) string) Config {
	cfg := Config{
		Endpoint:    strings.TrimSpace(lookup(envEndpoint)),
		ServiceName: strings.TrimSpace(lookup(envService)),
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = defaultServiceName
	}
	if v, err := strconv.ParseBool(strings.TrimSpace(lookup(envInsecure))); err == nil {
		cfg.Insecure = v
	}
	if d, err := time.ParseDuration(strings.TrimSpace(lookup(envDialTimeout))); err == nil && d > 0 {
		cfg.DialTimeout = d
	}
	if headers, err := ParseHeaders(lookup(envHeaders)); err == nil {
		cfg.Headers = headers
	}
	return cfg
}

// ParseHeaders parses "key=value, key2=value2" exporter header lists.
func ParseHeaders(raw string) (map[string]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	headers := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, found := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !found || name == "" {
			return nil, errdef.New(errdef.CodeUnknown, "malformed telemetry header %q", pair)
		}
		headers[name] = strings.TrimSpace(value)
	}
	if len(headers) == 0 {
		return nil, nil
	}
	return headers, nil
}
