package serviceutil

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// Returns a context that will live until Ctrl+C is pressed
func SignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		cancel()
	}()

	return ctx
}

// Fatal logs err under message along with any extra key/value pairs and
// exits with status 1. Deferred functions do not run, flush telemetry first.
func Fatal(message string, err error, args ...any) {
	slog.Error(message, append([]any{"err", err.Error()}, args...)...)
	os.Exit(1)
}
