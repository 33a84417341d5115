package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"runtime"
	"strconv"
	"time"

	tmproxy "github.com/alnah/go-tmproxy"
	"github.com/alnah/go-tmproxy/internal/config"
	"github.com/alnah/go-tmproxy/internal/hints"
	"github.com/alnah/go-tmproxy/internal/logging"
)

// ErrDoctorFailed is returned when a diagnostic check reports an error.
var ErrDoctorFailed = errors.New("doctor found errors")

// doctorOriginTimeout bounds the request made to the origin.
const doctorOriginTimeout = 10 * time.Second

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"` // "ready", "warnings", "errors"
	Origin   originInfo `json:"origin"`
	Listen   listenInfo `json:"listen"`
	Rewrite  rulesInfo  `json:"rewrite"`
	Env      envInfo    `json:"environment"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

// originInfo holds the result of a GET on the origin.
type originInfo struct {
	URL         string `json:"url"`
	Reachable   bool   `json:"reachable"`
	StatusCode  int    `json:"status_code,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

// listenInfo holds listen address checks.
type listenInfo struct {
	Addr      string `json:"addr"`
	PublicURL string `json:"public_url"`
	Available bool   `json:"available"`
}

// rulesInfo holds the rewrite rules the configuration enables.
type rulesInfo struct {
	Rules   []string `json:"rules"`
	Workers int      `json:"workers"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	GOMAXPROCS    int    `json:"gomaxprocs"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
}

// runDoctor checks that serve would start with the effective configuration
// and reports what it found. Returns ErrDoctorFailed when any check errors.
func runDoctor(ctx context.Context, args []string, deps *Dependencies) error {
	f, rest, err := parseDoctorFlags(args, deps.Stderr)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return fmt.Errorf("%w: doctor takes no arguments, got %q", ErrUsage, rest)
	}

	cfg, err := resolveConfig(&f.settingsFlags, deps)
	if err != nil {
		return err
	}

	result := diagnose(ctx, cfg, deps)

	if f.json {
		enc := json.NewEncoder(deps.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("%w: %w", ErrWriteOutput, err)
		}
	} else {
		printDoctorResult(deps.Stdout, result)
	}

	if result.Status == "errors" {
		return ErrDoctorFailed
	}
	return nil
}

// diagnose performs all checks.
func diagnose(ctx context.Context, cfg *config.Config, deps *Dependencies) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			GOMAXPROCS: runtime.GOMAXPROCS(0),
		},
	}

	checkRules(result, cfg)
	checkListen(result, cfg, deps)
	checkOrigin(ctx, result, cfg)
	checkEnvironment(result, cfg, deps.Getenv)

	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}
	return result
}

func checkRules(result *doctorResult, cfg *config.Config) {
	result.Rewrite.Workers = tmproxy.ResolveWorkers(cfg.Proxy.Workers)

	rw, err := newRewriter(cfg, logging.Discard())
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Rewriter: %v", err))
		return
	}
	result.Rewrite.Rules = rw.Rules()
	if len(result.Rewrite.Rules) == 0 {
		result.Warnings = append(result.Warnings, "No rewrite rule enabled; pages pass through unchanged")
	}
}

// checkListen binds the listen address and releases it at once.
func checkListen(result *doctorResult, cfg *config.Config, deps *Dependencies) {
	addr := net.JoinHostPort(cfg.Listen.Host, strconv.Itoa(cfg.Listen.Port))
	result.Listen.Addr = addr
	result.Listen.PublicURL = tmproxy.ReplacementURL(cfg.Listen.Host, cfg.Listen.Port)

	ln, err := deps.Listen("tcp", addr)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot listen on %s: %v", addr, err))
		return
	}
	_ = ln.Close()
	result.Listen.Available = true
}

func checkOrigin(ctx context.Context, result *doctorResult, cfg *config.Config) {
	result.Origin.URL = cfg.Origin

	ctx, cancel := context.WithTimeout(ctx, doctorOriginTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.Origin, nil)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Origin: %v", err))
		return
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Origin unreachable: %v", err))
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 1<<20))
	_ = res.Body.Close()

	result.Origin.Reachable = true
	result.Origin.StatusCode = res.StatusCode
	result.Origin.ContentType = res.Header.Get("Content-Type")

	if res.StatusCode >= http.StatusBadRequest {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Origin answered %s", res.Status))
	}
}

// checkEnvironment detects containers, where a loopback listen host cannot
// be reached from outside.
func checkEnvironment(result *doctorResult, cfg *config.Config, getenv func(string) string) {
	result.Env.Container, result.Env.ContainerHint = isContainer(getenv)

	if result.Env.Container && isLoopbackHost(cfg.Listen.Host) {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Listening on %s inside a container; use --host 0.0.0.0 to accept outside connections", cfg.Listen.Host))
	}
}

func isLoopbackHost(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer(getenv func(string) string) (bool, string) {
	if hints.IsInContainer() {
		return true, "/.dockerenv"
	}
	// Podman / systemd-nspawn / general container indicator
	if v := getenv("container"); v != "" {
		return true, "container=" + v
	}
	if getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "tmproxy doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Origin")
	if r.Origin.Reachable {
		fmt.Fprintf(w, "  [OK] %s answered %d (%s)\n", r.Origin.URL, r.Origin.StatusCode, r.Origin.ContentType)
	} else {
		fmt.Fprintf(w, "  [ERROR] %s unreachable\n", r.Origin.URL)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Listen")
	if r.Listen.Available {
		fmt.Fprintf(w, "  [OK] %s is free\n", r.Listen.Addr)
	} else {
		fmt.Fprintf(w, "  [ERROR] %s is not available\n", r.Listen.Addr)
	}
	fmt.Fprintf(w, "  [OK] Links point to %s\n", r.Listen.PublicURL)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Rewrite")
	fmt.Fprintf(w, "  [OK] Rules: %v\n", r.Rewrite.Rules)
	fmt.Fprintf(w, "  [OK] Workers: %d\n", r.Rewrite.Workers)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s, GOMAXPROCS=%d\n", r.Env.OS, r.Env.Arch, r.Env.GOMAXPROCS)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to serve")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
