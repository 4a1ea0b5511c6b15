package main

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/blockwin/blockwin-backend/internal/room-service/cache"
	"github.com/blockwin/blockwin-backend/internal/room-service/domain"
	"github.com/blockwin/blockwin-backend/internal/room-service/fair"
	httpapi "github.com/blockwin/blockwin-backend/internal/room-service/http"
	"github.com/blockwin/blockwin-backend/internal/room-service/producer"
	"github.com/blockwin/blockwin-backend/internal/room-service/repo"
	"github.com/blockwin/blockwin-backend/internal/room-service/wallet"
	sharedcache "github.com/blockwin/blockwin-backend/internal/shared/cache"
	"github.com/blockwin/blockwin-backend/internal/shared/config"
	"github.com/blockwin/blockwin-backend/internal/shared/db"
	"github.com/blockwin/blockwin-backend/internal/shared/kafka"
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

	rds, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rds.Close()

	stakeWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicStakePlaced)
	defer stakeWriter.Close()
	closedWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRoomClosed)
	defer closedWriter.Close()
	settledWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRoomSettled)
	defer settledWriter.Close()

	store := repo.NewPostgres(pg)
	ctl := domain.NewController(store, fair.StakeWeightedPicker)
	wcli := wallet.New(cfg.WalletURL)
	publ := producer.NewKafkaPublisher(stakeWriter, closedWriter, settledWriter)
	rcache := cache.New(rds)

	metrics.StartMetricsServer(cfg.MetricsPort, metrics.Combine(
		func(ctx context.Context) error { return pg.PingContext(ctx) },
		func(ctx context.Context) error { return rds.Ping(ctx).Err() },
	))

	api := httpapi.NewServer(log, store, ctl, wcli, publ, rcache)
	addr := ":" + cfg.HTTPPort
	log.Info("room-service listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, api.Router()); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
