// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/blackjack/internal/auth"
	"github.com/jason-s-yu/blackjack/internal/cache"
	"github.com/jason-s-yu/blackjack/internal/config"
	"github.com/jason-s-yu/blackjack/internal/database"
	"github.com/jason-s-yu/blackjack/internal/handlers"
	"github.com/jason-s-yu/blackjack/internal/table"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	auth.Init()
	auth.SetTokenTTL(cfg.TokenExpire)

	if err := database.ConnectDB(ctx, cfg.PostgresURL()); err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer database.DB.Close()
	if err := database.Migrate(ctx); err != nil {
		logger.Fatalf("database: %v", err)
	}
	database.StartingExp = cfg.StartingExp

	tbl := table.New(database.NewLedger(database.DB), nil, cfg.Rules, logger)
	tbl.Recorder = database.NewRoundRecorder(database.DB)

	if err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB); err != nil {
		if cfg.SessionStore == "redis" {
			logger.Fatalf("redis: %v", err)
		}
		logger.Warnf("redis unavailable, round actions will not be logged: %v", err)
	} else {
		defer cache.Rdb.Close()
		tbl.Publish = cache.NewActionQueue(cache.Rdb, cfg.HistorianQueue).Publish
	}

	switch cfg.SessionStore {
	case "memory":
		tbl.Store = table.NewMemoryStore()
	default:
		tbl.Store = cache.NewRoundStore(cache.Rdb, cfg.RoundTTL)
	}
	logger.Infof("session store: %s, rules: %+v", cfg.SessionStore, cfg.Rules)

	srv := handlers.NewServer(tbl, database.Users{}, logger)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	logger.Infof("Running on %s", httpServer.Addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("server exited: %v", err)
	}
	logger.Info("server stopped")
}
