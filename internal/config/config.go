package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-tmproxy/internal/fileutil"
	"github.com/alnah/go-tmproxy/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// EnvConfigDir names the directory searched for config names after the
// current directory.
const EnvConfigDir = "TMPROXY_CONFIG_DIR"

// appDir is the subdirectory of os.UserConfigDir searched last.
const appDir = "tmproxy"

// Field length limits.
const (
	MaxURLLength    = 2048 // Browser limit
	MaxHostLength   = 253  // RFC 1035
	MaxMarkerLength = 16   // A glyph or a short tag
	MaxTagLength    = 32   // HTML element name
	MaxExcludedTags = 32
)

// Defaults mirror the original habr proxy.
const (
	DefaultOrigin            = "https://habr.com"
	DefaultHost              = "127.0.0.1"
	DefaultPort              = 8080
	DefaultMarker            = "™"
	DefaultMaxBodyBytes      = 10 << 20
	DefaultReadHeaderTimeout = Duration(10 * time.Second)
	DefaultShutdownTimeout   = Duration(5 * time.Second)
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"
)

// Config holds all configuration for the proxy.
type Config struct {
	Origin  string        `yaml:"origin"`
	Listen  ListenConfig  `yaml:"listen"`
	Rewrite RewriteConfig `yaml:"rewrite"`
	Proxy   ProxyConfig   `yaml:"proxy"`
	Log     LogConfig     `yaml:"log"`
}

// ListenConfig defines where the proxy accepts connections. The same values
// build the replacement for rewritten links.
type ListenConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// RewriteConfig defines the rewrite rules.
type RewriteConfig struct {
	Marker              string   `yaml:"marker"`
	ExcludedTags        []string `yaml:"excludedTags"` // Empty list = nothing excluded
	CaseInsensitiveTags bool     `yaml:"caseInsensitiveTags"`
	WordMark            bool     `yaml:"wordMark"`
	LinkRewrite         bool     `yaml:"linkRewrite"`
}

// ProxyConfig defines HTTP serving limits.
type ProxyConfig struct {
	Workers           int      `yaml:"workers"`      // 0 = derive from GOMAXPROCS
	MaxBodyBytes      int64    `yaml:"maxBodyBytes"` // Larger bodies pass through unmodified
	ReadHeaderTimeout Duration `yaml:"readHeaderTimeout"`
	ShutdownTimeout   Duration `yaml:"shutdownTimeout"`
}

// LogConfig defines log output.
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "text", "json"
}

// Duration is a time.Duration written as "10s" in YAML.
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("%w: duration %q", ErrInvalidValue, text)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// DefaultConfig returns the configuration of the original habr proxy.
func DefaultConfig() *Config {
	return &Config{
		Origin: DefaultOrigin,
		Listen: ListenConfig{Host: DefaultHost, Port: DefaultPort},
		Rewrite: RewriteConfig{
			Marker:       DefaultMarker,
			ExcludedTags: []string{"script", "iframe"},
			WordMark:     true,
			LinkRewrite:  true,
		},
		Proxy: ProxyConfig{
			MaxBodyBytes:      DefaultMaxBodyBytes,
			ReadHeaderTimeout: DefaultReadHeaderTimeout,
			ShutdownTimeout:   DefaultShutdownTimeout,
		},
		Log: LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
	}
}

// Validate checks field lengths and value ranges.
// Called automatically by LoadConfig, but available for callers that
// build a Config from flags and environment variables.
func (c *Config) Validate() error {
	if err := validateFieldLength("origin", c.Origin, MaxURLLength); err != nil {
		return err
	}
	if err := validateOrigin(c.Origin); err != nil {
		return err
	}

	if err := validateFieldLength("listen.host", c.Listen.Host, MaxHostLength); err != nil {
		return err
	}
	if c.Listen.Port < 1 || c.Listen.Port > 65535 {
		return fmt.Errorf("%w: listen.port must be between 1 and 65535, got %d", ErrInvalidValue, c.Listen.Port)
	}

	if c.Rewrite.WordMark {
		if c.Rewrite.Marker == "" {
			return fmt.Errorf("%w: rewrite.marker is required when wordMark is enabled", ErrInvalidValue)
		}
		if err := validateFieldLength("rewrite.marker", c.Rewrite.Marker, MaxMarkerLength); err != nil {
			return err
		}
	}
	if len(c.Rewrite.ExcludedTags) > MaxExcludedTags {
		return fmt.Errorf("%w: rewrite.excludedTags has %d entries (max %d)", ErrInvalidValue, len(c.Rewrite.ExcludedTags), MaxExcludedTags)
	}
	for i, tag := range c.Rewrite.ExcludedTags {
		field := fmt.Sprintf("rewrite.excludedTags[%d]", i)
		if strings.TrimSpace(tag) == "" {
			return fmt.Errorf("%w: %s is empty", ErrInvalidValue, field)
		}
		if err := validateFieldLength(field, tag, MaxTagLength); err != nil {
			return err
		}
	}

	if c.Proxy.Workers < 0 {
		return fmt.Errorf("%w: proxy.workers must not be negative, got %d", ErrInvalidValue, c.Proxy.Workers)
	}
	if c.Proxy.MaxBodyBytes <= 0 {
		return fmt.Errorf("%w: proxy.maxBodyBytes must be positive, got %d", ErrInvalidValue, c.Proxy.MaxBodyBytes)
	}
	if c.Proxy.ReadHeaderTimeout < 0 || c.Proxy.ShutdownTimeout < 0 {
		return fmt.Errorf("%w: proxy timeouts must not be negative", ErrInvalidValue)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("%w: log.level %q (must be debug, info, warn, or error)", ErrInvalidValue, c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
		// valid
	default:
		return fmt.Errorf("%w: log.format %q (must be text or json)", ErrInvalidValue, c.Log.Format)
	}

	return nil
}

// OriginURL parses the origin. Call Validate first.
func (c *Config) OriginURL() (*url.URL, error) {
	u, err := url.Parse(c.Origin)
	if err != nil {
		return nil, fmt.Errorf("%w: origin: %v", ErrInvalidValue, err)
	}
	return u, nil
}

func validateOrigin(origin string) error {
	if origin == "" {
		return fmt.Errorf("%w: origin is required", ErrInvalidValue)
	}
	u, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("%w: origin: %v", ErrInvalidValue, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: origin must be an http or https URL, got %q", ErrInvalidValue, origin)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: origin has no host: %q", ErrInvalidValue, origin)
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Keys missing from the file keep their DefaultConfig values.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	f, err := os.Open(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	cfg := DefaultConfig()
	if err := yamlutil.DecodeStrict(f, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SearchPaths returns the candidate files for a config name in lookup order.
// Extensions are tried in order .yaml, .yml; locations in order: current
// directory, $TMPROXY_CONFIG_DIR, <user config dir>/tmproxy.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	dirs := []string{""}
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		dirs = append(dirs, dir)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(userConfigDir, appDir))
	}

	paths := make([]string, 0, len(dirs)*len(extensions))
	for _, dir := range dirs {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(dir, name+ext))
		}
	}
	return paths
}

// resolveConfigPath returns the first existing search path for name.
func resolveConfigPath(name string) (string, error) {
	tried := SearchPaths(name)
	for _, p := range tried {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}
