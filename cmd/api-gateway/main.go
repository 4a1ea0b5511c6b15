package main

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"

	"go.uber.org/zap"

	"github.com/blockwin/blockwin-backend/internal/shared/config"
	"github.com/blockwin/blockwin-backend/internal/shared/logger"
)

func rp(to string) *httputil.ReverseProxy {
	u, _ := url.Parse(to)
	return httputil.NewSingleHostReverseProxy(u)
}

func target(env, fallback string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	return fallback
}

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	rooms := rp(target("ROOM_URL", "http://localhost:8083"))
	wallet := rp(target("WALLET_URL", "http://localhost:8082"))
	activity := rp(target("ACTIVITY_URL", "http://localhost:8084"))
	sports := rp(target("SPORTS_URL", "http://localhost:8085"))

	mux := http.NewServeMux()

	// salas (ex.: /api/rooms/* -> room-service)
	mux.Handle("/api/rooms/", http.StripPrefix("/api/rooms", rooms))

	// wallet (ex.: /api/wallet/* -> wallet-service)
	mux.Handle("/api/wallet/", http.StripPrefix("/api/wallet", wallet))

	// feed ao vivo (ex.: /api/activity/* -> activity-feed-service)
	mux.Handle("/api/activity/", http.StripPrefix("/api/activity", activity))

	// estatísticas esportivas (ex.: /api/sports/* -> sports-proxy-service)
	mux.Handle("/api/sports/", http.StripPrefix("/api/sports", sports))

	addr := ":" + cfg.HTTPPort
	log.Info("api-gateway listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, withCORS(mux)); err != nil && err != http.ErrServerClosed {
		log.Fatal("gateway failed", zap.Error(err))
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
