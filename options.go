package tmproxy

import (
	"log/slog"
	"strings"
)

// DefaultOrigin is the site the original proxy was built for.
const DefaultOrigin = "https://habr.com"

// DefaultHost is the listen host used when none is given.
const DefaultHost = "127.0.0.1"

// Option configures a Rewriter.
type Option func(*rewriterConfig)

// rewriterConfig holds the values NewRewriter validates and turns into rules.
type rewriterConfig struct {
	marker              string
	excludedTags        []string
	excludedSet         bool
	caseInsensitiveTags bool
	origin              string
	host                string
	port                int
	wordMark            bool
	linkRewrite         bool
	logger              *slog.Logger
}

func defaultRewriterConfig() rewriterConfig {
	return rewriterConfig{
		origin:      DefaultOrigin,
		host:        DefaultHost,
		wordMark:    true,
		linkRewrite: true,
	}
}

// WithMarker sets the glyph appended after six-letter words (default "™").
func WithMarker(marker string) Option {
	return func(c *rewriterConfig) {
		c.marker = marker
	}
}

// WithExcludedTags replaces the elements whose content is never marked
// (default script and iframe). Passing no tags disables exclusion.
func WithExcludedTags(tags ...string) Option {
	return func(c *rewriterConfig) {
		c.excludedTags = append([]string{}, tags...)
		c.excludedSet = true
	}
}

// WithCaseInsensitiveTags makes tag names match regardless of case,
// so <SCRIPT> is excluded like <script>.
func WithCaseInsensitiveTags() Option {
	return func(c *rewriterConfig) {
		c.caseInsensitiveTags = true
	}
}

// WithOrigin sets the origin whose anchor links are rewritten.
func WithOrigin(origin string) Option {
	return func(c *rewriterConfig) {
		c.origin = strings.TrimSpace(origin)
	}
}

// WithListenAddr sets the proxy's host and port, from which rewritten links
// are built. An empty host keeps DefaultHost.
func WithListenAddr(host string, port int) Option {
	return func(c *rewriterConfig) {
		if host != "" {
			c.host = host
		}
		c.port = port
	}
}

// WithoutWordMark disables the six-letter word rule.
func WithoutWordMark() Option {
	return func(c *rewriterConfig) {
		c.wordMark = false
	}
}

// WithoutLinkRewrite disables the link rule; no listen port is needed then.
func WithoutLinkRewrite() Option {
	return func(c *rewriterConfig) {
		c.linkRewrite = false
	}
}

// WithLogger sets the logger for per-document debug lines.
// Panics if l is nil (programmer error).
func WithLogger(l *slog.Logger) Option {
	if l == nil {
		panic("tmproxy: WithLogger logger must not be nil")
	}
	return func(c *rewriterConfig) {
		c.logger = l
	}
}
