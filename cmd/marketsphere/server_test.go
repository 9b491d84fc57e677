package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	clearEnv(t)
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = time.Second
	cfg.Storefront.Host = "127.0.0.1"
	cfg.Storefront.Port = 0
	cfg.Database.DSN = filepath.Join(t.TempDir(), "data", "marketsphere.db")
	return cfg
}

func TestNewServer(t *testing.T) {
	cfg := testConfig(t)

	srv, err := NewServer(context.Background(), cfg, slog.Default())
	require.NoError(t, err)
	defer srv.Shutdown(context.Background())

	assert.FileExists(t, cfg.Database.DSN)
	assert.Nil(t, srv.storefront)
	assert.Nil(t, srv.redis)
}

func TestNewServer_DatabaseError(t *testing.T) {
	cfg := testConfig(t)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	cfg.Database.DSN = filepath.Join(blocker, "marketsphere.db")

	_, err := NewServer(context.Background(), cfg, slog.Default())
	require.Error(t, err)

	var sErr *ServerError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, ExitDatabaseError, sErr.ExitCode)
}

func TestNewServer_StorefrontWithCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cfg := testConfig(t)
	cfg.Storefront.Enabled = true
	cfg.Cache.Enabled = true
	cfg.Cache.RedisAddr = mr.Addr()

	srv, err := NewServer(context.Background(), cfg, slog.Default())
	require.NoError(t, err)
	defer srv.Shutdown(context.Background())

	assert.NotNil(t, srv.storefront)
	assert.NotNil(t, srv.redis)
}

func TestNewServer_CacheUnavailable(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	cfg := testConfig(t)
	cfg.Cache.Enabled = true
	cfg.Cache.RedisAddr = "127.0.0.1:1"

	srv, err := NewServer(context.Background(), cfg, logger)
	require.NoError(t, err)
	defer srv.Shutdown(context.Background())

	assert.Nil(t, srv.redis)
	assert.Contains(t, buf.String(), "storefront cache unavailable")
}

func TestServer_Seed(t *testing.T) {
	cfg := testConfig(t)
	srv, err := NewServer(context.Background(), cfg, slog.Default())
	require.NoError(t, err)
	defer srv.Shutdown(context.Background())

	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
markets:
  - name: Gwangjang Market
    prefix: gwangjang
    stores:
      - name: kimbap
        category: FOOD
        phone: 02-123-4567
`), 0o644))

	require.NoError(t, srv.Seed(context.Background(), path))

	market, err := srv.store.GetMarketByPrefix(context.Background(), "gwangjang")
	require.NoError(t, err)
	st, err := srv.store.GetStoreBySubdomain(context.Background(), market.ID, "kimbap")
	require.NoError(t, err)
	assert.True(t, st.IsPublic())

	err = srv.Seed(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	var sErr *ServerError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, ExitSeedError, sErr.ExitCode)
}

func TestServer_StartStopsOnContextCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storefront.Enabled = true
	srv, err := NewServer(context.Background(), cfg, slog.Default())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServerError(t *testing.T) {
	inner := errors.New("address already in use")
	err := &ServerError{Op: "Start", Err: inner, ExitCode: ExitHTTPServerError}

	assert.Equal(t, "Start: address already in use", err.Error())
	assert.ErrorIs(t, err, inner)
}
