package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/blockwin/blockwin-backend/internal/activity-feed/feed"
	"github.com/blockwin/blockwin-backend/internal/activity-feed/ws"
	"github.com/blockwin/blockwin-backend/internal/shared/config"
	"github.com/blockwin/blockwin-backend/internal/shared/logger"
	"github.com/blockwin/blockwin-backend/internal/shared/metrics"
)

const defaultRecentLimit = 20

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	hub := ws.NewHub(log)
	gen := feed.NewGenerator(cfg.FeedMinInterval, cfg.FeedMaxInterval, func(ev feed.Event) {
		hub.Broadcast(ev)
	})
	go gen.Run(context.Background())

	metrics.StartMetricsServer(cfg.MetricsPort, nil)

	r := chi.NewRouter()
	r.Get("/v1/activity/recent", func(w http.ResponseWriter, req *http.Request) {
		limit := defaultRecentLimit
		if raw := req.URL.Query().Get("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				limit = n
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(gen.Recent(limit))
	})
	r.Get("/ws", hub.Handler)

	addr := ":" + cfg.HTTPPort
	log.Info("activity-feed-service running",
		zap.String("addr", addr),
		zap.Duration("feed_min_interval", cfg.FeedMinInterval),
		zap.Duration("feed_max_interval", cfg.FeedMaxInterval),
	)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatal("http server", zap.Error(err))
	}
}
