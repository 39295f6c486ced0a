package lifecycle

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatch(t *testing.T) {
	sigs := make(chan os.Signal, 2)
	exited := make(chan int, 1)
	ctx, cancel := watch(sigs, func(code int) { exited <- code })
	defer cancel()

	require.NoError(t, ctx.Err())

	sigs <- syscall.SIGINT
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not canceled by the first signal")
	}
	require.Empty(t, exited)

	sigs <- syscall.SIGTERM
	select {
	case code := <-exited:
		require.Equal(t, interruptedExitCode, code)
	case <-time.After(time.Second):
		t.Fatal("second signal did not exit")
	}
}

func TestWatchCanceledWithoutSignal(t *testing.T) {
	sigs := make(chan os.Signal, 1)
	ctx, cancel := watch(sigs, func(int) { t.Error("unexpected exit") })
	cancel()
	<-ctx.Done()
	require.ErrorIs(t, ctx.Err(), context.Canceled)
}
