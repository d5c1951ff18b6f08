package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"spot-analytics/internal/api"
	"spot-analytics/internal/app"
	"spot-analytics/internal/config"
	"spot-analytics/internal/dataset"
	"spot-analytics/internal/logging"
	"spot-analytics/internal/metrics"
	"spot-analytics/internal/overlay"
	"spot-analytics/internal/scheduler"
)

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", os.Getenv("SPOT_CONFIG"), "Path to YAML config")
	refreshOnStart := flag.Bool("refresh-on-start", false, "Run an ingestion before serving when the store is missing")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	logger := logging.Must(cfg.Log.Level, cfg.Log.Development)
	defer logger.Sync() //nolint:errcheck

	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	pipeline, err := app.NewPipeline(cfg, app.NewClient(cfg, logger, m), logger, m)
	if err != nil {
		logger.Fatal("build pipeline", zap.Error(err))
	}

	ds := app.NewDataset(cfg)
	if err := ds.Load(); err != nil {
		if errors.Is(err, dataset.ErrNotLoaded) {
			logger.Warn("price store not found; serving 503 until the first refresh", zap.String("path", ds.Path))
		} else {
			logger.Error("load price store", zap.Error(err))
		}
	} else {
		logger.Info("price store loaded", zap.String("path", ds.Path), zap.Int("points", ds.Series().Len()))
	}

	job, err := app.NewRefreshJob(cfg, pipeline, ds, logger)
	if err != nil {
		logger.Fatal("build refresh job", zap.Error(err))
	}

	sched := scheduler.NewScheduler(ctx, job, logger)
	if err := sched.Register(cfg.Server.RefreshCron); err != nil {
		logger.Fatal("schedule refresh", zap.Error(err))
	}
	sched.Start()
	if *refreshOnStart && !ds.Loaded() {
		go sched.RunNow()
	}

	router := api.NewRouter(api.Deps{
		Dataset:     ds,
		Job:         job,
		Engine:      overlay.New(m),
		Metrics:     m,
		Location:    cfg.Location(),
		CORSOrigins: cfg.Server.CORSOrigins,
		Logger:      logger,
		Ctx:         ctx,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting API server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	sched.Stop()
}
