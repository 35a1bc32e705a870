package main

import (
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postvault/internal/config"
)

func loadTestConfig(t *testing.T, port int, logDir string) *config.Config {
	t.Helper()
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("SECRETS_FILE", "")
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", strconv.Itoa(port))
	t.Setenv("LOG_DIR", logDir)
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("RATE_LIMIT_ENABLED", "true")

	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestRun_ListenFailureReturnsError(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	logDir := t.TempDir()
	cfg := loadTestConfig(t, busy.Addr().(*net.TCPAddr).Port, logDir)

	err = run(context.Background(), cfg, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address already in use")

	files, err := filepath.Glob(filepath.Join(logDir, "postvault-*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "server failed")
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := loadTestConfig(t, 0, "")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg, io.Discard) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}
