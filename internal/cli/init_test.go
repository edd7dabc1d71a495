package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/log"
)

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger("debug", log.ComponentWorker)
	assert.Equal(t, log.ComponentWorker, logger.Component())
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))

	logger = SetupLogger("nonsense", log.ComponentApp)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LEDGER_CLI_TEST=loaded\n"), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
		_ = os.Unsetenv("LEDGER_CLI_TEST")
	})

	LoadEnvFile()
	assert.Equal(t, "loaded", os.Getenv("LEDGER_CLI_TEST"))
}

func TestGracefulShutdown(t *testing.T) {
	logger := log.New(log.Config{Output: &discard{}})
	cleaned := make(chan struct{})
	ctx := GracefulShutdown(logger, time.Second, func(context.Context) { close(cleaned) })

	// Give signal.Notify time to register before raising the signal.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled after SIGTERM")
	}
	_, ok := <-cleaned
	assert.False(t, ok, "cleanup ran before cancellation")
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
