package cli

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendly/internal/config"
)

func TestSetupLogger(t *testing.T) {
	logger, err := SetupLogger("debug", "json")
	require.NoError(t, err)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))

	_, err = SetupLogger("loud", "text")
	assert.Error(t, err)

	_, err = SetupLogger("info", "xml")
	assert.Error(t, err)
}

func TestOpenStore_SQLite(t *testing.T) {
	cfg := &config.Config{
		DBDriver:     "sqlite",
		SQLiteDBPath: filepath.Join(t.TempDir(), "data", "spendly.db"),
	}

	store, err := OpenStore(context.Background(), cfg)
	require.NoError(t, err)
	defer store.Close()

	assert.NoError(t, store.Ping(context.Background()))
}

func TestOpenStore_BadDriver(t *testing.T) {
	_, err := OpenStore(context.Background(), &config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}

func TestGracefulShutdown_ParentCancel(t *testing.T) {
	logger, err := SetupLogger("error", "text")
	require.NoError(t, err)

	parent, cancel := context.WithCancel(context.Background())
	cleaned := make(chan struct{})
	ctx, done := GracefulShutdown(parent, logger, time.Second, func(context.Context) { close(cleaned) })

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not complete")
	}
	assert.Error(t, ctx.Err())
	_, open := <-cleaned
	assert.False(t, open)
}
