package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	tmproxy "github.com/alnah/go-tmproxy"
	"github.com/alnah/go-tmproxy/internal/hints"
	"github.com/alnah/go-tmproxy/internal/proxy"
)

// runServe starts the proxy and blocks until ctx is canceled.
func runServe(ctx context.Context, args []string, deps *Dependencies) error {
	f, rest, err := parseServeFlags(args, deps.Stderr)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return fmt.Errorf("%w: serve takes no arguments, got %q", ErrUsage, rest)
	}

	defer setMaxProcs(f.common.verbose, deps.Stderr)()

	cfg, err := resolveConfig(&f.settingsFlags, deps)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, deps.Stderr)
	if err != nil {
		return err
	}
	rw, err := newRewriter(cfg, logger)
	if err != nil {
		return err
	}
	origin, err := cfg.OriginURL()
	if err != nil {
		return err
	}

	publicURL := tmproxy.ReplacementURL(cfg.Listen.Host, cfg.Listen.Port)
	workers := tmproxy.ResolveWorkers(cfg.Proxy.Workers)
	handler, err := proxy.New(proxy.Config{
		Origin:       origin,
		PublicURL:    publicURL,
		Workers:      workers,
		MaxBodyBytes: cfg.Proxy.MaxBodyBytes,
	}, rw, logger)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(cfg.Listen.Host, strconv.Itoa(cfg.Listen.Port))
	ln, err := deps.Listen("tcp", addr)
	if err != nil {
		hint := hints.ForListen(cfg.Listen.Host, cfg.Listen.Port, errors.Is(err, syscall.EADDRINUSE))
		return fmt.Errorf("%w on %s: %w%s", ErrListen, addr, err, hint)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: cfg.Proxy.ReadHeaderTimeout.Std(),
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	logger.Info("listening",
		"addr", ln.Addr().String(),
		"origin", cfg.Origin,
		"public_url", publicURL,
		"workers", workers,
		"rules", rw.Rules(),
	)
	return serve(ctx, srv, ln, cfg.Proxy.ShutdownTimeout.Std(), logger)
}

// serve runs srv on ln until ctx is canceled or serving fails, then shuts
// it down. In-flight requests get shutdownTimeout to finish; zero waits
// for them indefinitely.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, shutdownTimeout time.Duration, logger *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx := context.WithoutCancel(ctx)
		if shutdownTimeout > 0 {
			var cancel context.CancelFunc
			shutdownCtx, cancel = context.WithTimeout(shutdownCtx, shutdownTimeout)
			defer cancel()
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	})

	return g.Wait()
}
