// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"net"
	"strconv"
	"strings"

	"github.com/alnah/go-tmproxy/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForListen returns hints for a listen failure on host:port.
// A busy port gets an alternative; a loopback host inside a container gets
// a reminder that it is unreachable from outside.
func ForListen(host string, port int, addrInUse bool) string {
	var hints []string

	if addrInUse {
		hints = append(hints, "port "+strconv.Itoa(port)+" is in use; pick another with --port or TMPROXY_PORT")
	}
	if IsInContainer() && isLoopback(host) {
		hints = append(hints, "inside a container, use --host 0.0.0.0 to accept outside connections")
	}

	return formatHints(hints)
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in the user config directory.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(p, "tmproxy") && strings.HasSuffix(p, ".yaml") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForMissingPort returns a hint for link rewriting without a listen port.
func ForMissingPort() string {
	return format("set --port, TMPROXY_PORT or listen.port, or pass --no-link-rewrite")
}

// ForInvalidMarker returns a hint for a marker that would break idempotence.
func ForInvalidMarker() string {
	return format("the marker must not start with whitespace, '<', a closing quote or bracket, or punctuation such as '.' or ','")
}

// ForOrigin returns a hint for a malformed origin.
func ForOrigin() string {
	return format("the origin must be an absolute URL such as https://habr.com")
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
