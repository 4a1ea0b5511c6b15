package main

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/blockwin/blockwin-backend/internal/shared/cache"
	"github.com/blockwin/blockwin-backend/internal/shared/config"
	"github.com/blockwin/blockwin-backend/internal/shared/logger"
	"github.com/blockwin/blockwin-backend/internal/shared/metrics"
	sportsapi "github.com/blockwin/blockwin-backend/internal/sports-proxy/http"
	"github.com/blockwin/blockwin-backend/internal/sports-proxy/upstream"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	rds, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rds.Close()

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return rds.Ping(ctx).Err()
	})

	up := upstream.NewClient(cfg.SportsAPIBaseURL, cfg.SportsAPIKey)
	srv := sportsapi.NewServer(log, up, rds)

	addr := ":" + cfg.HTTPPort
	log.Info("sports-proxy-service running",
		zap.String("addr", addr),
		zap.String("upstream", cfg.SportsAPIBaseURL),
	)
	if err := http.ListenAndServe(addr, srv.Router()); err != nil {
		log.Fatal("http server", zap.Error(err))
	}
}
