package lifecycle

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// interruptedExitCode is what shells report for a process stopped by SIGINT.
const interruptedExitCode = 130

// RunContext is the context of one CLI run. The first SIGINT or SIGTERM
// cancels it: pending regions of a crawl fail fast and the report of what
// was gathered is still saved. A second signal exits right away.
func RunContext() (context.Context, context.CancelFunc) {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := watch(sigs, os.Exit)
	return ctx, func() {
		signal.Stop(sigs)
		cancel()
	}
}

func watch(sigs <-chan os.Signal, exit func(code int)) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case sig, ok := <-sigs:
			if !ok {
				return
			}
			slog.Warn("interrupted, saving what was gathered", "signal", sig.String())
			cancel()
		case <-ctx.Done():
			return
		}
		sig, ok := <-sigs
		if !ok {
			return
		}
		slog.Error("interrupted twice, exiting", "signal", sig.String())
		exit(interruptedExitCode)
	}()
	return ctx, cancel
}
