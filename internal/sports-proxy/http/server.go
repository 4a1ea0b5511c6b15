package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheTTL = 30 * time.Second

// Upstream é a API esportiva de terceiros (respostas JSON cruas)
type Upstream interface {
	Matches(ctx context.Context) ([]byte, error)
	MatchStats(ctx context.Context, matchID string) ([]byte, error)
}

// Server é o proxy cacheado sobre a API esportiva. Respostas ficam no
// Redis por um TTL curto; falha do upstream vira 502 pro cliente.
type Server struct {
	log   *zap.Logger
	up    Upstream
	redis *redis.Client // opcional; sem Redis o proxy só repassa
}

func NewServer(log *zap.Logger, up Upstream, r *redis.Client) *Server {
	return &Server{log: log, up: up, redis: r}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/matches", s.listMatches)
	r.Get("/v1/matches/{id}/stats", s.matchStats)
	return r
}

func (s *Server) listMatches(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, "sports:matches", func(ctx context.Context) ([]byte, error) {
		return s.up.Matches(ctx)
	})
}

func (s *Server) matchStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.serve(w, r, "sports:stats:"+id, func(ctx context.Context) ([]byte, error) {
		return s.up.MatchStats(ctx, id)
	})
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request, key string, fetch func(ctx context.Context) ([]byte, error)) {
	ctx := r.Context()

	if s.redis != nil {
		if body, err := s.redis.Get(ctx, key).Bytes(); err == nil {
			writeBody(w, body)
			return
		} else if err != redis.Nil {
			s.log.Warn("sports cache read", zap.String("key", key), zap.Error(err))
		}
	}

	body, err := fetch(ctx)
	if err != nil {
		s.log.Error("sports upstream call", zap.String("key", key), zap.Error(err))
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
		return
	}

	if s.redis != nil {
		if err := s.redis.Set(ctx, key, body, cacheTTL).Err(); err != nil {
			s.log.Warn("sports cache write", zap.String("key", key), zap.Error(err))
		}
	}
	writeBody(w, body)
}

func writeBody(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}
