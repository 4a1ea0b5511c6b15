package main

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	walletapi "github.com/blockwin/blockwin-backend/internal/wallet-service/http"
	"github.com/blockwin/blockwin-backend/internal/wallet-service/repo"

	"github.com/blockwin/blockwin-backend/internal/shared/config"
	"github.com/blockwin/blockwin-backend/internal/shared/db"
	"github.com/blockwin/blockwin-backend/internal/shared/logger"
	"github.com/blockwin/blockwin-backend/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})

	api := walletapi.NewServer(log, repo.NewPostgres(pg))
	addr := ":" + cfg.HTTPPort
	log.Info("wallet-service listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, api.Router()); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
