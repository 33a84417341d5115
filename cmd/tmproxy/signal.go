package main

import (
	"context"
	"os/signal"
)

// notifyContext returns a context that is canceled when one of
// shutdownSignals arrives. Call stop() to restore default signal handling,
// so a second Ctrl-C kills a shutdown that hangs.
func notifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, shutdownSignals...)
}
