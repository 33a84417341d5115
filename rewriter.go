package tmproxy

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/alnah/go-tmproxy/internal/logging"
	"github.com/alnah/go-tmproxy/internal/pipeline"
)

// Rewriter applies the proxy's rewrite rules to whole HTML documents.
// It is immutable after NewRewriter and safe for concurrent use.
type Rewriter struct {
	pipeline *pipeline.Pipeline
	logger   *slog.Logger
}

// NewRewriter builds a Rewriter running the word-mark rule and then the
// link rule. Options are validated here, so a Rewriter never fails on
// configuration while processing.
func NewRewriter(opts ...Option) (*Rewriter, error) {
	cfg := defaultRewriterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logging.Discard()
	}

	var rules []pipeline.Rule

	if cfg.wordMark {
		wmOpts := pipeline.WordMarkOptions{
			Marker:              cfg.marker,
			CaseInsensitiveTags: cfg.caseInsensitiveTags,
		}
		if cfg.excludedSet {
			wmOpts.ExcludedTags = cfg.excludedTags
		}
		wm, err := pipeline.NewWordMark(wmOpts)
		if err != nil {
			return nil, err
		}
		rules = append(rules, wm)
	}

	if cfg.linkRewrite {
		if err := validateOrigin(cfg.origin); err != nil {
			return nil, err
		}
		if cfg.port == 0 {
			return nil, ErrMissingListenPort
		}
		if cfg.port < 0 || cfg.port > 65535 {
			return nil, fmt.Errorf("%w: got %d", ErrInvalidListenPort, cfg.port)
		}
		lr, err := pipeline.NewLinkRewrite(pipeline.LinkRewriteOptions{
			Origin:              cfg.origin,
			Replacement:         ReplacementURL(cfg.host, cfg.port),
			CaseInsensitiveTags: cfg.caseInsensitiveTags,
		})
		if err != nil {
			return nil, err
		}
		rules = append(rules, lr)
	}

	return &Rewriter{pipeline: pipeline.New(rules...), logger: cfg.logger}, nil
}

// Process rewrites one document. The input is never modified; on error the
// returned string is empty and callers keep their original content.
func (r *Rewriter) Process(ctx context.Context, content string) (string, error) {
	start := time.Now()

	out, err := r.pipeline.Process(ctx, content)
	if err != nil {
		return "", err
	}

	logger := logging.FromContext(ctx, r.logger)
	if logger.Enabled(ctx, slog.LevelDebug) {
		logger.LogAttrs(ctx, slog.LevelDebug, "document rewritten",
			slog.Int("bytes_in", len(content)),
			slog.Int("bytes_out", len(out)),
			slog.Duration("duration", time.Since(start)),
		)
	}
	return out, nil
}

// Rules returns the active rule names in execution order.
func (r *Rewriter) Rules() []string {
	return r.pipeline.Names()
}

// ReplacementURL returns the base URL rewritten links point to.
// Empty and wildcard hosts (0.0.0.0, ::) are not browsable, so they
// become DefaultHost.
func ReplacementURL(host string, port int) string {
	if host == "" {
		host = DefaultHost
	} else if ip := net.ParseIP(host); ip != nil && ip.IsUnspecified() {
		host = DefaultHost
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port))
}

func validateOrigin(origin string) error {
	if origin == "" {
		return ErrMissingOrigin
	}
	u, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOrigin, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidOrigin, origin)
	}
	return nil
}
