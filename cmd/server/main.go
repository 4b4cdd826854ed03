package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/storelens/storelens/config"
	"github.com/storelens/storelens/internal/analytics"
	"github.com/storelens/storelens/internal/api"
	"github.com/storelens/storelens/internal/dataset"
	"github.com/storelens/storelens/internal/insights"
	"github.com/storelens/storelens/internal/registry"
	"github.com/storelens/storelens/internal/runtime"
	"github.com/storelens/storelens/internal/security"
	"github.com/storelens/storelens/internal/telemetry"
	"github.com/storelens/storelens/pkg/version"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var (
		addr       string
		configFile string
	)
	flag.StringVar(&addr, "addr", "", "Listen address (overrides config)")
	flag.StringVar(&configFile, "config", "", "Path to config file (yaml)")
	flag.Parse()

	v := viper.New()
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", config.DefaultShutdownTimeout)
	v.SetDefault("limits.max_concurrent_requests", config.DefaultMaxConcurrentRequests)
	v.SetDefault("limits.max_resident_datasets", config.DefaultMaxResidentDatasets)
	v.SetDefault("limits.max_upload_bytes", config.DefaultMaxUploadBytes)
	v.SetDefault("limits.max_rows_per_op", config.DefaultMaxRowsPerOp)
	v.SetDefault("store.idle_ttl", config.DefaultDatasetIdleTTL)
	v.SetDefault("store.cleanup_period", config.DefaultDatasetCleanupPeriod)
	v.SetEnvPrefix("STORELENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to read config %s: %v\n", configFile, err)
			os.Exit(1)
		}
	}
	if addr == "" {
		addr = v.GetString("server.addr")
	}

	logger := zlog.With().Str("service", "storelens-server").Logger()

	limits := runtime.NewLimits(
		v.GetInt("limits.max_concurrent_requests"),
		v.GetInt("limits.max_resident_datasets"),
	)
	if b := v.GetInt64("limits.max_upload_bytes"); b > 0 {
		limits.MaxUploadBytes = b
	}
	if n := v.GetInt("limits.max_rows_per_op"); n > 0 {
		limits.MaxRowsPerOp = n
	}

	controller := runtime.NewController(limits)
	middleware := runtime.NewMiddleware(controller)

	store := dataset.NewStore(
		v.GetDuration("store.idle_ttl"),
		v.GetDuration("store.cleanup_period"),
		controller,
		nil,
	)
	store.Start()

	secMgr, err := security.NewManagerFromEnv()
	if err != nil {
		logger.Error().Err(err).Msg("invalid STORELENS_ALLOWED_DIRS configuration")
		os.Exit(1)
	}
	if secMgr.ValidateConfig() != nil {
		logger.Info().Msg("no allowed directories configured; server-side loads disabled")
	} else {
		logger.Info().Strs("allowed_dirs", secMgr.AllowedDirectories()).Msg("security allow-list configured")
	}

	resolver := analytics.NewResolver(nil)
	metrics := telemetry.NewMetrics()
	hooks := telemetry.NewHooks(logger)

	srv := api.NewServer(
		logger,
		store,
		dataset.NewLoader(limits.MaxRowsPerOp),
		resolver,
		registry.Builtin(resolver),
		insights.NewGenerator(resolver, logger),
		metrics,
		hooks,
		secMgr,
		limits,
	)

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Router(middleware),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info().
		Str("version", version.Version()).
		Str("addr", addr).
		Int("max_concurrent_requests", limits.MaxConcurrentRequests).
		Int("max_resident_datasets", limits.MaxResidentDatasets).
		Int64("max_upload_bytes", limits.MaxUploadBytes).
		Msg("server bootstrap configured")

	errCh := make(chan error, 1)
	go func() {
		hooks.OnServerStart(addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server failed")
			os.Exit(1)
		}
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	}

	hooks.OnServerStop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), v.GetDuration("server.shutdown_timeout"))
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := store.Close(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("dataset store close failed")
	}
}
