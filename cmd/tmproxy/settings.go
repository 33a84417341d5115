package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	tmproxy "github.com/alnah/go-tmproxy"
	"github.com/alnah/go-tmproxy/internal/config"
	"github.com/alnah/go-tmproxy/internal/fileutil"
	"github.com/alnah/go-tmproxy/internal/hints"
	"github.com/alnah/go-tmproxy/internal/logging"
)

// resolveConfig builds the effective configuration.
// Priority: CLI flags > env vars > config file > defaults.
func resolveConfig(f *settingsFlags, deps *Dependencies) (*config.Config, error) {
	if f.common.quiet && f.common.verbose {
		return nil, fmt.Errorf("%w: --quiet and --verbose cannot be combined", ErrUsage)
	}

	env, err := loadEnvConfig(deps.Getenv)
	if err != nil {
		return nil, err
	}

	cfg, err := loadConfigFile(f.common.config, env.ConfigPath)
	if err != nil {
		return nil, err
	}

	applyEnvConfig(env, cfg)
	mergeFlags(f, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadConfigFile loads the file named by the flag, else by TMPROXY_CONFIG.
// With neither set the defaults are returned.
func loadConfigFile(flagValue, envValue string) (*config.Config, error) {
	name := flagValue
	if name == "" {
		name = envValue
	}
	if name == "" {
		return config.DefaultConfig(), nil
	}

	cfg, err := config.LoadConfig(name)
	if errors.Is(err, config.ErrConfigNotFound) {
		paths := []string{name}
		if !fileutil.IsFilePath(name) {
			paths = config.SearchPaths(name)
		}
		return nil, fmt.Errorf("%w%s", err, hints.ForConfigNotFound(paths))
	}
	return cfg, err
}

// mergeFlags overrides cfg with flags given explicitly on the command line.
func mergeFlags(f *settingsFlags, cfg *config.Config) {
	changed := f.fs.Changed

	if changed("origin") {
		cfg.Origin = f.rules.origin
	}
	if changed("host") {
		cfg.Listen.Host = f.rules.host
	}
	if changed("port") {
		cfg.Listen.Port = f.rules.port
	}
	if changed("marker") {
		cfg.Rewrite.Marker = f.rules.marker
	}
	if changed("exclude") {
		cfg.Rewrite.ExcludedTags = f.rules.exclude
	}
	if f.rules.noWordMark {
		cfg.Rewrite.WordMark = false
	}
	if f.rules.noLinkRewrite {
		cfg.Rewrite.LinkRewrite = false
	}
	if changed("workers") {
		cfg.Proxy.Workers = f.workers
	}
	if changed("log-format") {
		cfg.Log.Format = f.log.format
	}

	switch {
	case changed("log-level"):
		cfg.Log.Level = f.log.level
	case f.common.verbose:
		cfg.Log.Level = "debug"
	case f.common.quiet:
		cfg.Log.Level = "error"
	}
}

// newLogger creates the logger described by cfg.Log.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	return logging.New(w, cfg.Log.Level, cfg.Log.Format)
}

// newRewriter builds a Rewriter from the effective configuration.
func newRewriter(cfg *config.Config, logger *slog.Logger) (*tmproxy.Rewriter, error) {
	opts := []tmproxy.Option{
		tmproxy.WithOrigin(cfg.Origin),
		tmproxy.WithListenAddr(cfg.Listen.Host, cfg.Listen.Port),
		tmproxy.WithMarker(cfg.Rewrite.Marker),
		tmproxy.WithExcludedTags(cfg.Rewrite.ExcludedTags...),
		tmproxy.WithLogger(logger),
	}
	if cfg.Rewrite.CaseInsensitiveTags {
		opts = append(opts, tmproxy.WithCaseInsensitiveTags())
	}
	if !cfg.Rewrite.WordMark {
		opts = append(opts, tmproxy.WithoutWordMark())
	}
	if !cfg.Rewrite.LinkRewrite {
		opts = append(opts, tmproxy.WithoutLinkRewrite())
	}

	rw, err := tmproxy.NewRewriter(opts...)
	if err != nil {
		return nil, fmt.Errorf("%w%s", err, hintFor(err))
	}
	return rw, nil
}

// hintFor returns the hint matching a rewriter construction error.
func hintFor(err error) string {
	switch {
	case errors.Is(err, tmproxy.ErrMissingListenPort):
		return hints.ForMissingPort()
	case errors.Is(err, tmproxy.ErrEmptyMarker), errors.Is(err, tmproxy.ErrInvalidMarker):
		return hints.ForInvalidMarker()
	case errors.Is(err, tmproxy.ErrMissingOrigin), errors.Is(err, tmproxy.ErrInvalidOrigin):
		return hints.ForOrigin()
	default:
		return ""
	}
}
