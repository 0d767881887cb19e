package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"yatube/internal/app"
	"yatube/internal/auth"
	"yatube/internal/db"
	httpx "yatube/internal/http"
	"yatube/internal/metrics"
	"yatube/internal/util"
)

func main() {
	cfg, err := app.LoadConfig()
	app.Must(err)
	log, err := app.NewLogger(cfg)
	app.Must(err)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Open(ctx, db.PoolConfig{URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL, cfg.MigrationsDir, log); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}

	views, err := util.NewRenderer()
	if err != nil {
		log.Fatal("templates", zap.Error(err))
	}

	srv := httpx.NewServer(db.NewStore(pool), auth.NewService(pool, log), cfg, log, metrics.NewCollector("yatube"), views)
	hs := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.String("env", cfg.Environment))
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}
