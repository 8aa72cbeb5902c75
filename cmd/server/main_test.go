package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"travel-wallet/internal/bot"
	"travel-wallet/internal/config"
	"travel-wallet/internal/countries"
	"travel-wallet/internal/handlers"
	"travel-wallet/internal/ledger"
	"travel-wallet/internal/rates"
	"travel-wallet/internal/render"
	"travel-wallet/internal/storage"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupRouter(t *testing.T) {
	// Setup dependencies
	db, err := storage.NewDB(":memory:")
	require.NoError(t, err, "failed to create database")
	defer db.Close()

	logger := log.NewNopLogger()
	resolver := countries.Default()
	l := ledger.New(db, logger)
	source := rates.NewSource(rates.NewService("http://127.0.0.1:1", "", time.Second), time.Second)
	router := bot.NewRouter(l, source, resolver, bot.NewMemoryStore(), bot.Options{PreferLiveRate: true}, logger)
	h := handlers.NewHandlers(router, l, render.New(resolver), logger, 20)

	mux := setupRouter(h)

	// Verify routes
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{
			name:       "Health check",
			method:     "GET",
			path:       "/healthz",
			wantStatus: http.StatusOK,
		},
		{
			name:       "List trips of unknown user",
			method:     "GET",
			path:       "/api/users/42/trips",
			wantStatus: http.StatusOK,
		},
		{
			name:       "Message",
			method:     "POST",
			path:       "/api/messages",
			body:       `{"user_id":"42","text":"/start"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "Message with bad body",
			method:     "POST",
			path:       "/api/messages",
			body:       `not json`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Messages only accept POST",
			method:     "GET",
			path:       "/api/messages",
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "Unknown path",
			method:     "GET",
			path:       "/expenses",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := http.NoBody
			req := httptest.NewRequest(tt.method, tt.path, body)
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			}
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code,
				"%s %s returned unexpected status", tt.method, tt.path)
		})
	}
}

func TestNewLoggerFiltersLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn")

	level.Info(logger).Log("msg", "hidden")
	level.Warn(logger).Log("msg", "shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "level=warn")
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, run(ctx, cfg, log.NewNopLogger()))
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DBPath = filepath.Join(t.TempDir(), "wallet.db")
	cfg.Port = "0"
	return cfg
}
