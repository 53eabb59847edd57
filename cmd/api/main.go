package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"netbilling-sim/internal/api"
	"netbilling-sim/internal/config"
	"netbilling-sim/internal/data"
	"netbilling-sim/internal/logging"
	"netbilling-sim/internal/simulate"
	"netbilling-sim/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	// .env is optional
	envErr := godotenv.Load()

	logger := logging.Setup(getenv("LOG_LEVEL", "INFO"))
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		logger.Warn("failed to load .env file", slog.Any("error", envErr))
	}

	port := getenv("API_PORT", "8080")
	dataDir := absPath(getenv("DATA_DIR", "./data"))
	presetDir := absPath(getenv("PRESET_DIR", "./examples/presets"))
	dbPath := getenv("DB_PATH", "./netbilling.db")

	// Tariff and column overrides come from an optional config file.
	opts := simulate.Options{}
	columns := data.DefaultColumns()
	delimiter := data.DefaultDelimiter
	if cfgPath := os.Getenv("CONFIG_PATH"); cfgPath != "" {
		cfg, err := config.LoadUnchecked(cfgPath)
		if err != nil {
			logger.Error("failed to load config", slog.String("path", cfgPath), slog.Any("error", err))
			os.Exit(1)
		}
		cfg.ApplyDefaults()
		opts = cfg.SimulateOptions()
		columns = cfg.Data.Columns
		delimiter = cfg.DelimiterRune()
	}
	opts.Columns = columns

	cacheTTL, err := time.ParseDuration(getenv("CACHE_TTL", "30m"))
	if err != nil {
		logger.Error("invalid CACHE_TTL", slog.Any("error", err))
		os.Exit(1)
	}
	cache := data.NewCache(cacheTTL)
	defer cache.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, dbPath)
	if err != nil {
		logger.Error("failed to open database", slog.String("path", dbPath), slog.Any("error", err))
		os.Exit(1)
	}
	defer st.Close()
	st.SetLogger(logger.With(slog.String("module", "store")))
	if v, err := st.Version(ctx); err == nil {
		logger.Info("database ready", slog.String("path", st.Path()), slog.Int("schema_version", v))
	}

	if getenv("API_ENV", "") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	var origins []string
	if s := os.Getenv("CORS_ORIGINS"); s != "" {
		for _, o := range strings.Split(s, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	router := api.NewRouter(api.Deps{
		DataDir:     dataDir,
		PresetDir:   presetDir,
		Delimiter:   delimiter,
		Columns:     columns,
		Options:     opts,
		Store:       st,
		Cache:       cache,
		CORSOrigins: origins,
		Logger:      logger.With(slog.String("module", "api")),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting API server",
			slog.String("addr", srv.Addr),
			slog.String("data_dir", dataDir),
			slog.String("preset_dir", presetDir))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
	}
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
