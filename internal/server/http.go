// Package server assembles the HTTP surface: REST routes, health and
// metrics endpoints, and the WebSocket event push.
package server

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/quizduel/duel-platform/internal/auth"
	"github.com/quizduel/duel-platform/internal/auth/jwt"
	"github.com/quizduel/duel-platform/internal/config"
	"github.com/quizduel/duel-platform/internal/leaderboard"
	"github.com/quizduel/duel-platform/internal/match"
	"github.com/quizduel/duel-platform/internal/quota"
	"github.com/quizduel/duel-platform/internal/store"
	"github.com/quizduel/duel-platform/internal/tournament"
)

// Handlers bundles every per-package HTTP handler set.
type Handlers struct {
	Auth        *auth.HTTPHandlers
	Match       *match.HTTPHandlers
	Tournament  *tournament.HTTPHandlers
	Quota       *quota.HTTPHandlers
	Store       *store.HTTPHandlers
	Leaderboard *leaderboard.HTTPHandlers
	WS          http.HandlerFunc
}

// NewHTTPServer wires all routes behind the auth middleware.
func NewHTTPServer(cfg *config.App, tokens *jwt.Manager, h Handlers, pool *pgxpool.Pool, rdb *redis.Client, logger zerolog.Logger) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pingDependencies(r.Context(), pool, rdb); err != nil {
			logger.Error().Err(err).Msg("dependency ping failed")
			http.Error(w, `{"status":"degraded"}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /v1/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /v1/auth/login", h.Auth.Login)
	mux.HandleFunc("POST /v1/auth/refresh", h.Auth.Refresh)
	mux.HandleFunc("GET /v1/auth/me", h.Auth.Me)
	mux.HandleFunc("GET /v1/auth/google", h.Auth.GoogleLogin)
	mux.HandleFunc("GET /v1/auth/google/callback", h.Auth.GoogleCallback)

	mux.HandleFunc("POST /v1/matches", h.Match.Create)
	mux.HandleFunc("GET /v1/matches", h.Match.ListOpen)
	mux.HandleFunc("POST /v1/matches/join", h.Match.JoinByCode)
	mux.HandleFunc("POST /v1/matches/{id}/join", h.Match.Join)
	mux.HandleFunc("POST /v1/matches/{id}/answers", h.Match.SubmitAnswer)
	mux.HandleFunc("POST /v1/matches/{id}/leave", h.Match.Leave)
	mux.HandleFunc("POST /v1/matches/{id}/cancel", h.Match.Cancel)
	mux.HandleFunc("GET /v1/matches/{id}", h.Match.Details)
	mux.HandleFunc("GET /v1/matches/{id}/results", h.Match.Results)
	mux.HandleFunc("GET /v1/matches/{id}/partial", h.Match.Partial)
	mux.HandleFunc("POST /v1/matches/{id}/powerups/fifty-fifty", h.Store.FiftyFifty)
	mux.HandleFunc("POST /v1/matches/{id}/powerups/time-boost", h.Store.TimeBoost)

	mux.HandleFunc("POST /v1/tournaments", h.Tournament.Create)
	mux.HandleFunc("POST /v1/tournaments/{id}/join", h.Tournament.Join)
	mux.HandleFunc("POST /v1/tournaments/{id}/leave", h.Tournament.Leave)
	mux.HandleFunc("POST /v1/tournaments/{id}/cancel", h.Tournament.Cancel)
	mux.HandleFunc("GET /v1/tournaments/{id}", h.Tournament.Details)

	mux.HandleFunc("GET /v1/quota", h.Quota.Remaining)

	mux.HandleFunc("GET /v1/store", h.Store.Catalog)
	mux.HandleFunc("POST /v1/store/purchases", h.Store.Purchase)

	mux.HandleFunc("GET /v1/leaderboards/{window}", h.Leaderboard.Top)

	mux.HandleFunc("GET /ws/play", h.WS)

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: auth.Middleware(tokens, logger)(mux),
	}
}

func pingDependencies(ctx context.Context, pool *pgxpool.Pool, rdb *redis.Client) error {
	if err := pool.Ping(ctx); err != nil {
		return err
	}
	return rdb.Ping(ctx).Err()
}
