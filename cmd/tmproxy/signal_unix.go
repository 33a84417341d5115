//go:build !windows

package main

import (
	"os"
	"syscall"
)

// shutdownSignals start a graceful shutdown of the server.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
