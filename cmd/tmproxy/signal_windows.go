//go:build windows

package main

import "os"

// shutdownSignals start a graceful shutdown of the server.
// syscall.SIGTERM is not delivered on Windows.
var shutdownSignals = []os.Signal{os.Interrupt}
