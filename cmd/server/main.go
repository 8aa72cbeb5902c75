package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
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
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "Path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		level.Error(logger).Log("msg", "server stopped", "err", err)
		os.Exit(1)
	}
}

func newLogger(w io.Writer, lvl string) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)

	var allow level.Option
	switch lvl {
	case "debug":
		allow = level.AllowDebug()
	case "warn":
		allow = level.AllowWarn()
	case "error":
		allow = level.AllowError()
	default:
		allow = level.AllowInfo()
	}
	return level.NewFilter(logger, allow)
}

func run(ctx context.Context, cfg config.Config, logger log.Logger) error {
	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if cfg.Rates.APIKey == "" {
		level.Warn(logger).Log("msg", "CURRENCY_API_KEY is not set, rate lookups will likely fail")
	}

	ratesService := rates.NewService(cfg.Rates.URL, cfg.Rates.APIKey, cfg.Rates.Timeout)
	ratesService = rates.NewLoggingService(log.With(logger, "component", "rates_http"), ratesService)
	ratesService = rates.NewCachingService(ctx, cfg.Rates.Refresh, log.With(logger, "component", "rates_cache"), ratesService)
	source := rates.NewSource(ratesService, cfg.Rates.Timeout)

	resolver := countries.Default()
	l := ledger.New(db, log.With(logger, "component", "ledger"))
	router := bot.NewRouter(l, source, resolver, bot.NewMemoryStore(), bot.Options{
		PreferLiveRate: cfg.PreferLiveRate,
		HistoryLimit:   cfg.HistoryLimit,
	}, log.With(logger, "component", "bot"))

	h := handlers.NewHandlers(router, l, render.New(resolver), log.With(logger, "component", "http"), cfg.HistoryLimit)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           setupRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		level.Info(logger).Log("msg", "server starting", "addr", srv.Addr, "db", cfg.DBPath, "prefer_live_rate", cfg.PreferLiveRate)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	level.Info(logger).Log("msg", "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func setupRouter(h *handlers.Handlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.Health)
	mux.HandleFunc("POST /api/messages", h.Message)
	mux.HandleFunc("POST /api/confirmations", h.Confirmation)
	mux.HandleFunc("GET /api/users/{id}/trips", h.ListTrips)
	mux.HandleFunc("GET /api/users/{id}/trips/{trip}/expenses", h.Statistics)

	return h.LoggingMiddleware(mux)
}
