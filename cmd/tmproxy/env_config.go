package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alnah/go-tmproxy/internal/config"
)

// Environment variable names.
const (
	envConfig     = "TMPROXY_CONFIG"
	envOrigin     = "TMPROXY_ORIGIN"
	envHost       = "TMPROXY_HOST"
	envPort       = "TMPROXY_PORT"
	envMarker     = "TMPROXY_MARKER"
	envWorkers    = "TMPROXY_WORKERS"
	envLogLevel   = "TMPROXY_LOG_LEVEL"
	envLogFormat  = "TMPROXY_LOG_FORMAT"
	envVarsPrefix = "TMPROXY_"
)

// knownEnvVars lists every TMPROXY_* variable the CLI reads.
// TMPROXY_CONFIG_DIR is read by the config package during lookup.
var knownEnvVars = map[string]bool{
	envConfig:           true,
	config.EnvConfigDir: true,
	envOrigin:           true,
	envHost:             true,
	envPort:             true,
	envMarker:           true,
	envWorkers:          true,
	envLogLevel:         true,
	envLogFormat:        true,
}

// envSettings holds configuration read from TMPROXY_* variables.
// Zero values mean "not set"; Port and Workers use nil for that.
type envSettings struct {
	ConfigPath string
	Origin     string
	Host       string
	Port       *int
	Marker     string
	Workers    *int
	LogLevel   string
	LogFormat  string
}

// loadEnvConfig reads TMPROXY_* variables through getenv.
// Unparsable numbers are rejected with ErrInvalidEnv.
func loadEnvConfig(getenv func(string) string) (*envSettings, error) {
	env := &envSettings{
		ConfigPath: strings.TrimSpace(getenv(envConfig)),
		Origin:     strings.TrimSpace(getenv(envOrigin)),
		Host:       strings.TrimSpace(getenv(envHost)),
		Marker:     getenv(envMarker),
		LogLevel:   strings.TrimSpace(getenv(envLogLevel)),
		LogFormat:  strings.TrimSpace(getenv(envLogFormat)),
	}

	var err error
	if env.Port, err = envInt(getenv, envPort); err != nil {
		return nil, err
	}
	if env.Workers, err = envInt(getenv, envWorkers); err != nil {
		return nil, err
	}
	return env, nil
}

func envInt(getenv func(string) string, name string) (*int, error) {
	raw := strings.TrimSpace(getenv(name))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s=%q is not a number", ErrInvalidEnv, name, raw)
	}
	return &n, nil
}

// warnUnknownEnvVars logs warnings for unrecognized TMPROXY_* variables.
// Helps catch typos like TMPROXY_PROT instead of TMPROXY_PORT.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, env := range environ {
		if !strings.HasPrefix(env, envVarsPrefix) {
			continue
		}
		name, _, _ := strings.Cut(env, "=")
		if !knownEnvVars[name] {
			fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
		}
	}
}

// applyEnvConfig overrides cfg with every variable that is set.
// Called after the config file is loaded and before flags are merged,
// giving: CLI flags > env vars > config file > defaults.
func applyEnvConfig(env *envSettings, cfg *config.Config) {
	if env.Origin != "" {
		cfg.Origin = env.Origin
	}
	if env.Host != "" {
		cfg.Listen.Host = env.Host
	}
	if env.Port != nil {
		cfg.Listen.Port = *env.Port
	}
	if env.Marker != "" {
		cfg.Rewrite.Marker = env.Marker
	}
	if env.Workers != nil {
		cfg.Proxy.Workers = *env.Workers
	}
	if env.LogLevel != "" {
		cfg.Log.Level = env.LogLevel
	}
	if env.LogFormat != "" {
		cfg.Log.Format = env.LogFormat
	}
}
