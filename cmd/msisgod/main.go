package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/star/msisgo/internal/api"
	"github.com/star/msisgo/internal/auth"
	"github.com/star/msisgo/internal/drag"
	"github.com/star/msisgo/internal/metrics"
	"github.com/star/msisgo/internal/msis"
	"github.com/star/msisgo/internal/msis/expo"
	"github.com/star/msisgo/internal/msis/nrlmsise"
	"github.com/star/msisgo/internal/spaceweather"
	"github.com/star/msisgo/internal/spaceweather/archive"
)

// refreshBackoff spaces out scheduled refresh attempts after a failure.
const refreshBackoff = 5 * time.Minute

// archiveEpoch is the first day of the CelesTrak record.
var archiveEpoch = time.Date(1957, 10, 1, 0, 0, 0, 0, time.UTC)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	addr := os.Getenv("MSISGO_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	authCfg, err := loadAuthConfig(logger)
	if err != nil {
		logger.Error("invalid auth configuration", "error", err)
		os.Exit(1)
	}

	model, modelName, err := loadModel(logger)
	if err != nil {
		logger.Error("model unavailable", "model", modelName, "error", err)
		os.Exit(1)
	}
	eval := msis.NewEvaluator(model, modelName, logger)

	swCfg := loadSpaceWeatherConfig(logger)
	store := spaceweather.NewStore()
	swCache := spaceweather.NewCache(swCfg.CacheDir, swCfg.MaxFiles)
	fetcher := spaceweather.NewFetcher(swCfg.SourceURL, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loadInitialSpaceWeather(ctx, logger, swCfg, swCache, fetcher, store, loadArchiveConfig(logger))

	dragCfg := loadDragConfig(logger)
	profiler := drag.NewProfiler(eval, store, dragCfg, logger)

	srv := api.NewServer(api.Config{
		Addr:              addr,
		Auth:              authCfg,
		TrustProxy:        loadBool(logger, "MSISGO_TRUST_PROXY", false),
		DragMaxConcurrent: loadInt(logger, "MSISGO_DRAG_MAX_CONCURRENT", 4),
		SpaceWeather:      swCfg,
	}, api.Deps{
		Evaluator: eval,
		Store:     store,
		Profiler:  profiler,
		Fetcher:   fetcher,
		Cache:     swCache,
	}, logger)

	// Background goroutine to update the dataset age gauge and refresh
	// stale data.
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		var lastAttempt time.Time
		for {
			select {
			case <-ticker.C:
				age := store.AgeSeconds()
				if age >= 0 {
					metrics.SetSpaceWeatherAge(age)
				}
				stale := age < 0 || age > swCfg.MaxAge.Seconds()
				if swCfg.EnableFetch && stale && time.Since(lastAttempt) > refreshBackoff {
					lastAttempt = time.Now()
					if _, err := spaceweather.Refresh(ctx, fetcher, swCache, store, logger); err != nil {
						logger.Warn("scheduled space weather refresh failed", "error", err)
					}
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		logger.Info("starting server",
			"addr", addr,
			"model", modelName,
			"auth_enabled", authCfg.Enabled,
			"sw_fetch_enabled", swCfg.EnableFetch,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// loadInitialSpaceWeather tries the disk cache, then the ClickHouse archive,
// then the network. The server starts regardless; /readyz reports 503 until
// a dataset is installed.
func loadInitialSpaceWeather(ctx context.Context, logger *slog.Logger, cfg api.SpaceWeatherConfig,
	cache *spaceweather.Cache, fetcher *spaceweather.Fetcher, store *spaceweather.Store, archCfg *archive.Config) {
	ds, err := spaceweather.LoadCached(cache, logger)
	if err == nil {
		store.Install(ds)
		logger.Info("loaded space weather from cache", "records", len(ds.Records), "cached_at", ds.FetchedAt.Format(time.RFC3339))
		return
	}
	logger.Info("no space weather cache found", "error", err)

	if archCfg != nil {
		ds, err := loadFromArchive(ctx, logger, *archCfg)
		if err == nil {
			store.Install(ds)
			logger.Info("loaded space weather from archive", "records", len(ds.Records), "table", archCfg.TableFQN())
			return
		}
		logger.Warn("space weather archive load failed", "error", err)
	}

	if !cfg.EnableFetch {
		logger.Warn("starting without space weather data; fetch disabled")
		return
	}
	fetchCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()
	if _, err := spaceweather.Refresh(fetchCtx, fetcher, cache, store, logger); err != nil {
		logger.Warn("initial space weather fetch failed, starting without data", "error", err)
	}
}

func loadFromArchive(ctx context.Context, logger *slog.Logger, cfg archive.Config) (*spaceweather.Dataset, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	reader, err := archive.Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	records, err := reader.LoadRange(ctx, archiveEpoch, time.Now().UTC().AddDate(1, 0, 0))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: %w", cfg.TableFQN(), spaceweather.ErrEmpty)
	}
	return spaceweather.NewDataset("clickhouse:"+cfg.TableFQN(), time.Now().UTC(), records), nil
}

func loadModel(logger *slog.Logger) (msis.Model, string, error) {
	name := os.Getenv("MSISGO_MODEL")
	switch name {
	case "", expo.Name:
		return expo.New(), expo.Name, nil
	case nrlmsise.Name:
		m, err := nrlmsise.New()
		return m, nrlmsise.Name, err
	default:
		logger.Warn("unknown MSISGO_MODEL value, using default", "value", name, "default", expo.Name)
		return expo.New(), expo.Name, nil
	}
}

func loadAuthConfig(logger *slog.Logger) (auth.Config, error) {
	cfg := auth.Config{}

	enabledStr := os.Getenv("MSISGO_AUTH_ENABLED")
	if enabledStr != "" {
		enabled, err := strconv.ParseBool(enabledStr)
		if err != nil {
			return cfg, errors.New("MSISGO_AUTH_ENABLED must be a boolean value (true/false/1/0)")
		}
		cfg.Enabled = enabled
	}

	if cfg.Enabled {
		cfg.Token = os.Getenv("MSISGO_AUTH_TOKEN")
		if cfg.Token == "" {
			return cfg, errors.New("MSISGO_AUTH_TOKEN is required when auth is enabled")
		}
		logger.Info("auth enabled")
	}

	return cfg, nil
}

func loadSpaceWeatherConfig(logger *slog.Logger) api.SpaceWeatherConfig {
	cfg := api.SpaceWeatherConfig{
		EnableFetch: loadBool(logger, "MSISGO_ENABLE_SW_FETCH", true),
		SourceURL:   os.Getenv("MSISGO_SW_SOURCE_URL"),
		CacheDir:    "/tmp/msisgo/spaceweather",
		MaxFiles:    loadInt(logger, "MSISGO_SW_MAX_FILES", 5),
		MaxAge:      24 * time.Hour,
	}

	if v := os.Getenv("MSISGO_SW_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}

	if v := os.Getenv("MSISGO_SW_MAX_AGE"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil || seconds < 1 {
			logger.Warn("invalid MSISGO_SW_MAX_AGE value, defaulting to 86400", "value", v)
		} else {
			cfg.MaxAge = time.Duration(seconds) * time.Second
		}
	}

	logger.Info("space weather config",
		"source_url", cfg.SourceURL,
		"cache_dir", cfg.CacheDir,
		"max_files", cfg.MaxFiles,
		"max_age_seconds", cfg.MaxAge.Seconds(),
	)

	return cfg
}

func loadDragConfig(logger *slog.Logger) drag.Config {
	cfg := drag.Config{
		Workers:    loadInt(logger, "MSISGO_DRAG_WORKERS", runtime.NumCPU()),
		MaxSamples: loadInt(logger, "MSISGO_DRAG_MAX_SAMPLES", 10000),
	}

	logger.Info("drag config",
		"workers", cfg.Workers,
		"max_samples", cfg.MaxSamples,
	)

	return cfg
}

// loadArchiveConfig returns nil when MSISGO_CLICKHOUSE_ADDR is unset.
func loadArchiveConfig(logger *slog.Logger) *archive.Config {
	addr := os.Getenv("MSISGO_CLICKHOUSE_ADDR")
	if addr == "" {
		return nil
	}
	cfg := &archive.Config{
		Addr:     addr,
		Database: "msisgo",
		Table:    "space_weather",
		User:     os.Getenv("MSISGO_CLICKHOUSE_USER"),
		Password: os.Getenv("MSISGO_CLICKHOUSE_PASSWORD"),
	}
	if v := os.Getenv("MSISGO_CLICKHOUSE_DATABASE"); v != "" {
		cfg.Database = v
	}
	if v := os.Getenv("MSISGO_CLICKHOUSE_TABLE"); v != "" {
		cfg.Table = v
	}
	if cfg.User == "" {
		cfg.User = "default"
	}

	logger.Info("archive config", "addr", cfg.Addr, "table", cfg.TableFQN())
	return cfg
}

// loadInt reads a positive integer, warning and falling back to def on
// anything else.
func loadInt(logger *slog.Logger, name string, def int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		logger.Warn("invalid "+name+" value, using default", "value", v, "default", def)
		return def
	}
	return n
}

func loadBool(logger *slog.Logger, name string, def bool) bool {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logger.Warn("invalid "+name+" value, using default", "value", v, "default", def)
		return def
	}
	return b
}
