// Package app bootstraps infrastructure and wires every service together.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/quizduel/duel-platform/internal/auth"
	"github.com/quizduel/duel-platform/internal/auth/jwt"
	"github.com/quizduel/duel-platform/internal/config"
	"github.com/quizduel/duel-platform/internal/db/repository"
	"github.com/quizduel/duel-platform/internal/events"
	"github.com/quizduel/duel-platform/internal/leaderboard"
	"github.com/quizduel/duel-platform/internal/logging"
	"github.com/quizduel/duel-platform/internal/match"
	"github.com/quizduel/duel-platform/internal/question"
	"github.com/quizduel/duel-platform/internal/quota"
	"github.com/quizduel/duel-platform/internal/reward"
	"github.com/quizduel/duel-platform/internal/server"
	"github.com/quizduel/duel-platform/internal/store"
	"github.com/quizduel/duel-platform/internal/sweep"
	"github.com/quizduel/duel-platform/internal/tournament"
	"github.com/quizduel/duel-platform/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server) and
// the background workers.
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	sweeper        *sweep.Sweeper
	snapshotWorker *leaderboard.SnapshotWorker
}

// New bootstraps config, logger, Postgres, Redis and all domain services.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	connString := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=10",
		cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.SSLMode)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	profileRepo := repository.NewProfileRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	matchRepo := repository.NewMatchRepository(pool)
	tournamentRepo := repository.NewTournamentRepository(pool)
	purchaseRepo := repository.NewPurchaseRepository(pool)
	referralRepo := repository.NewReferralRepository(pool)
	leaderboardRepo := repository.NewLeaderboardRepository(pool)

	if cfg.Security.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be configured")
	}
	tokens := jwt.NewManager(jwt.TokenConfig{
		Secret: []byte(cfg.Security.JWTSecret),
		Issuer: cfg.Name,
	})

	bus := events.NewBus(logger)
	locker := match.NewLocker(redisClient, logger)
	questionSvc := question.NewService(questionRepo, cfg.Gameplay.QuestionsPerMatch, logger)

	quotaPolicy := quota.NewPolicy(matchRepo, tournamentRepo, purchaseRepo,
		cfg.Quota.MatchBaseLimit, cfg.Quota.TournamentBaseLimit, logger)

	matchSvc := match.NewService(matchRepo, questionSvc, profileRepo, quotaPolicy,
		locker, bus, cfg.Gameplay.MatchWindow, cfg.Sweep.BatchSize, logger)

	tournamentSvc := tournament.NewService(tournamentRepo, matchSvc, questionSvc,
		profileRepo, quotaPolicy, locker, bus,
		cfg.Gameplay.MatchWindow, cfg.Sweep.BatchSize, logger)

	rewards := reward.NewDispatcher(profileRepo, logger)
	storeSvc := store.NewService(profileRepo, purchaseRepo, matchRepo, questionSvc, logger)
	leaderboardSvc := leaderboard.NewService(redisClient, leaderboardRepo, profileRepo, logger)

	authSvc := auth.NewService(profileRepo, referralRepo, rewards, tokens, logger)
	var oauth *auth.GoogleOAuth
	if cfg.OAuth.GoogleClientID != "" && cfg.OAuth.GoogleClientSecret != "" {
		redirectURL := cfg.OAuth.GoogleRedirectURL
		if redirectURL == "" {
			redirectURL = fmt.Sprintf("http://%s/v1/auth/google/callback", cfg.HTTPAddr)
		}
		oauth = auth.NewGoogleOAuth(cfg.OAuth.GoogleClientID, cfg.OAuth.GoogleClientSecret, redirectURL, authSvc)
	} else {
		logger.Warn().Msg("google oauth not configured")
	}

	wsHub := ws.NewHub(logger)
	notifier := server.NewNotifier(wsHub, logger)

	bus.SubscribeMatchCompleted(rewards.HandleMatchCompleted)
	bus.SubscribeMatchCompleted(tournamentSvc.HandleMatchCompleted)
	bus.SubscribeMatchCompleted(leaderboardSvc.HandleMatchCompleted)
	bus.SubscribeMatchCompleted(notifier.HandleMatchCompleted)
	bus.SubscribeFinalStarted(notifier.HandleFinalStarted)
	bus.SubscribeTournamentCompleted(rewards.HandleTournamentCompleted)
	bus.SubscribeTournamentCompleted(leaderboardSvc.HandleTournamentCompleted)
	bus.SubscribeTournamentCompleted(notifier.HandleTournamentCompleted)

	sweeper, err := sweep.New(matchSvc, tournamentSvc, cfg.Sweep.Interval, logger)
	if err != nil {
		return nil, fmt.Errorf("init sweeper: %w", err)
	}
	snapshotWorker, err := leaderboard.NewSnapshotWorker(leaderboardSvc,
		cfg.Leaderboard.SnapshotInterval, cfg.Leaderboard.SnapshotTopN, logger)
	if err != nil {
		return nil, fmt.Errorf("init snapshot worker: %w", err)
	}

	handlers := server.Handlers{
		Auth:        auth.NewHTTPHandlers(authSvc, oauth, logger),
		Match:       match.NewHTTPHandlers(matchSvc, logger),
		Tournament:  tournament.NewHTTPHandlers(tournamentSvc, logger),
		Quota:       quota.NewHTTPHandlers(quotaPolicy, logger),
		Store:       store.NewHTTPHandlers(storeSvc, logger),
		Leaderboard: leaderboard.NewHTTPHandlers(leaderboardSvc, logger),
		WS:          server.NewWSHandler(wsHub, logger),
	}

	return &Application{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		http:           server.NewHTTPServer(cfg, tokens, handlers, pool, redisClient, logger),
		sweeper:        sweeper,
		snapshotWorker: snapshotWorker,
	}, nil
}

// Run starts the HTTP server and background workers, then waits for a
// termination signal.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	bgCtx, cancelBG := context.WithCancel(ctx)
	defer cancelBG()

	if err := a.sweeper.Start(bgCtx); err != nil {
		return fmt.Errorf("start sweeper: %w", err)
	}
	if err := a.snapshotWorker.Start(bgCtx); err != nil {
		return fmt.Errorf("start snapshot worker: %w", err)
	}

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}
	if err := a.sweeper.Stop(); err != nil {
		a.logger.Error().Err(err).Msg("sweeper shutdown error")
	}
	if err := a.snapshotWorker.Stop(); err != nil {
		a.logger.Error().Err(err).Msg("snapshot worker shutdown error")
	}

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}
