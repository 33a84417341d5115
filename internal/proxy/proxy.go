// Package proxy forwards requests to an origin site and rewrites the HTML
// it returns. Rewriting is fail-open: when a body cannot be decoded or
// rewritten, the client receives it exactly as the origin sent it.
package proxy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/sync/semaphore"

	"github.com/alnah/go-tmproxy/internal/logging"
)

// Sentinel errors for proxy construction.
var (
	ErrMissingOrigin    = errors.New("proxy origin is required")
	ErrMissingProcessor = errors.New("proxy processor is required")
	ErrInvalidPublicURL = errors.New("invalid public URL")
)

// DefaultMaxBodyBytes is used when Config.MaxBodyBytes is not positive.
const DefaultMaxBodyBytes = 10 << 20

// Processor rewrites a whole decoded document. *tmproxy.Rewriter implements it.
type Processor interface {
	Process(ctx context.Context, content string) (string, error)
}

// Config holds proxy settings.
type Config struct {
	Origin       *url.URL          // Site being proxied, e.g. https://habr.com
	PublicURL    string            // Base the client uses to reach the proxy; redirects to Origin are moved here
	Workers      int               // Concurrent rewrites (minimum 1)
	MaxBodyBytes int64             // Larger HTML bodies pass through unmodified
	Transport    http.RoundTripper // nil = http.DefaultTransport
}

// Proxy is an http.Handler forwarding every request to the origin.
type Proxy struct {
	origin    *url.URL
	public    *url.URL
	processor Processor
	limiter   *semaphore.Weighted
	maxBody   int64
	logger    *slog.Logger
	handler   http.Handler
}

// New creates a Proxy. A nil logger discards output.
func New(cfg Config, processor Processor, logger *slog.Logger) (*Proxy, error) {
	if cfg.Origin == nil || cfg.Origin.Host == "" {
		return nil, ErrMissingOrigin
	}
	if processor == nil {
		return nil, ErrMissingProcessor
	}
	if logger == nil {
		logger = logging.Discard()
	}

	var public *url.URL
	if cfg.PublicURL != "" {
		u, err := url.Parse(cfg.PublicURL)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPublicURL, cfg.PublicURL)
		}
		public = u
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	p := &Proxy{
		origin:    cfg.Origin,
		public:    public,
		processor: processor,
		limiter:   semaphore.NewWeighted(int64(workers)),
		maxBody:   maxBody,
		logger:    logger,
	}

	rp := &httputil.ReverseProxy{
		Rewrite:        p.rewriteRequest,
		ModifyResponse: p.modifyResponse,
		ErrorHandler:   p.handleError,
		Transport:      cfg.Transport,
		ErrorLog:       slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
	p.handler = logging.Middleware(logger, rp)

	return p, nil
}

// ServeHTTP implements http.Handler.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.handler.ServeHTTP(w, r)
}

// rewriteRequest points the outbound request at the origin. Accept-Encoding
// is dropped so the transport negotiates gzip itself and hands back a
// decompressed body.
func (p *Proxy) rewriteRequest(pr *httputil.ProxyRequest) {
	pr.SetURL(p.origin)
	pr.Out.Header.Del("Accept-Encoding")
	pr.Out.Header.Del(logging.RequestIDHeader)
}

func (p *Proxy) handleError(w http.ResponseWriter, r *http.Request, err error) {
	logging.FromContext(r.Context(), p.logger).Warn("upstream request failed",
		"path", r.URL.Path, "error", err)
	w.WriteHeader(http.StatusBadGateway)
}

// modifyResponse rewrites redirects and HTML bodies. Only a failure to read
// the upstream body is returned as an error; every rewrite failure falls
// back to the original bytes.
func (p *Proxy) modifyResponse(res *http.Response) error {
	p.rewriteLocation(res)

	if !p.shouldRewrite(res) {
		return nil
	}

	ctx := res.Request.Context()
	logger := logging.FromContext(ctx, p.logger)
	start := time.Now()

	raw, err := io.ReadAll(io.LimitReader(res.Body, p.maxBody+1))
	if err != nil {
		return fmt.Errorf("reading upstream body: %w", err)
	}
	if int64(len(raw)) > p.maxBody {
		res.Body = &prefixedBody{Reader: io.MultiReader(bytes.NewReader(raw), res.Body), Closer: res.Body}
		logger.Info("html_rewrite skipped", "path", res.Request.URL.Path, "reason", "body exceeds limit", "limit", p.maxBody)
		return nil
	}
	if err := res.Body.Close(); err != nil {
		logger.Debug("closing upstream body", "error", err)
	}

	contentType := res.Header.Get("Content-Type")
	out, err := p.rewriteBody(ctx, raw, contentType)
	if err != nil {
		setBody(res, raw)
		logger.Warn("html_rewrite failed, forwarding original body",
			"path", res.Request.URL.Path, "error", err)
		return nil
	}

	setBody(res, out)
	res.Header.Set("Content-Type", withUTF8(contentType))
	res.Header.Del("ETag")

	logger.Info("html_rewrite",
		"path", res.Request.URL.Path,
		"bytes_in", len(raw),
		"bytes_out", len(out),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// rewriteBody decodes raw to UTF-8, waits for a worker slot and runs the
// processor. The result is UTF-8.
func (p *Proxy) rewriteBody(ctx context.Context, raw []byte, contentType string) ([]byte, error) {
	decoded, err := decodeUTF8(raw, contentType)
	if err != nil {
		return nil, err
	}

	if err := p.limiter.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.limiter.Release(1)

	out, err := p.processor.Process(ctx, string(decoded))
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// decodeUTF8 converts raw to UTF-8 using the declared or sniffed charset.
// Sniffing only looks at the first 1024 bytes and guesses windows-1252 for
// ASCII, so an undeclared body that is valid UTF-8 is kept as is.
func decodeUTF8(raw []byte, contentType string) ([]byte, error) {
	enc, name, certain := charset.DetermineEncoding(raw, contentType)
	if name == "utf-8" || (!certain && utf8.Valid(raw)) {
		return raw, nil
	}
	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	return decoded, nil
}

func (p *Proxy) shouldRewrite(res *http.Response) bool {
	if res.Request != nil && res.Request.Method == http.MethodHead {
		return false
	}
	if res.StatusCode == http.StatusNoContent || res.StatusCode == http.StatusNotModified {
		return false
	}
	if enc := res.Header.Get("Content-Encoding"); enc != "" && !strings.EqualFold(enc, "identity") {
		return false
	}
	return isHTML(res.Header.Get("Content-Type"))
}

// rewriteLocation moves redirects that target the origin onto the proxy.
func (p *Proxy) rewriteLocation(res *http.Response) {
	if p.public == nil {
		return
	}
	loc := res.Header.Get("Location")
	if loc == "" {
		return
	}
	u, err := url.Parse(loc)
	if err != nil || !strings.EqualFold(u.Host, p.origin.Host) {
		return
	}
	if u.Scheme != "" && u.Scheme != p.origin.Scheme {
		return
	}
	u.Scheme = p.public.Scheme
	u.Host = p.public.Host
	res.Header.Set("Location", u.String())
}

// isHTML reports whether the media type mentions html, so text/html and
// application/xhtml+xml are both rewritten.
func isHTML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(contentType)
	}
	return strings.Contains(mediaType, "html")
}

// withUTF8 returns contentType with its charset parameter set to utf-8.
func withUTF8(contentType string) string {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "text/html; charset=utf-8"
	}
	params["charset"] = "utf-8"
	return mime.FormatMediaType(mediaType, params)
}

func setBody(res *http.Response, body []byte) {
	res.Body = io.NopCloser(bytes.NewReader(body))
	res.ContentLength = int64(len(body))
	res.Header.Set("Content-Length", strconv.Itoa(len(body)))
}

// prefixedBody replays already-read bytes before the rest of the upstream body.
type prefixedBody struct {
	io.Reader
	io.Closer
}
