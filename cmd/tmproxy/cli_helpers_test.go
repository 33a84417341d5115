package main

import (
	"bytes"
	"net"
	"strings"
	"sync"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Injected dependencies
// ---------------------------------------------------------------------------

// syncBuffer is a bytes.Buffer safe for the concurrent writes of a server.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// newTestDeps returns dependencies reading env from a map and stdin from a
// string. Listen fails so tests never bind a real port by accident.
func newTestDeps(env map[string]string, stdin string) (*Dependencies, *syncBuffer, *syncBuffer) {
	stdout, stderr := &syncBuffer{}, &syncBuffer{}
	deps := &Dependencies{
		Stdin:  strings.NewReader(stdin),
		Stdout: stdout,
		Stderr: stderr,
		Getenv: func(name string) string { return env[name] },
		Environ: func() []string {
			out := make([]string, 0, len(env))
			for k, v := range env {
				out = append(out, k+"="+v)
			}
			return out
		},
		Listen: func(string, string) (net.Listener, error) {
			return nil, &net.OpError{Op: "listen", Net: "tcp", Err: net.UnknownNetworkError("disabled in tests")}
		},
	}
	return deps, stdout, stderr
}
