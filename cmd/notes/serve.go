package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/vedran77/notes/internal/auth"
	"github.com/vedran77/notes/internal/config"
	"github.com/vedran77/notes/internal/database"
	"github.com/vedran77/notes/internal/ratelimit"
	"github.com/vedran77/notes/internal/repository"
	"github.com/vedran77/notes/internal/repository/memory"
	postgresrepo "github.com/vedran77/notes/internal/repository/postgres"
	"github.com/vedran77/notes/internal/service"
	"github.com/vedran77/notes/internal/transport/http/router"
	"github.com/vedran77/notes/internal/transport/ws"
)

var autoMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Run: func(cmd *cobra.Command, args []string) {
		if err := serve(cmd.Context()); err != nil {
			fatal("Server failed", err)
		}
	},
}

func init() {
	serveCmd.Flags().BoolVar(&autoMigrate, "migrate", false, "Apply the schema before serving (postgres driver only)")
	rootCmd.AddCommand(serveCmd)
}

type stores struct {
	users repository.UserRepository
	notes repository.NoteRepository
	close func()
}

func openStores(ctx context.Context) (*stores, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn().Msg("using in-memory store, data is lost on exit")
		return &stores{users: memory.NewUserRepo(), notes: memory.NewNoteRepo(), close: func() {}}, nil
	}

	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info().Msg("connected to database")

	if autoMigrate {
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
	}

	return &stores{
		users: postgresrepo.NewUserRepo(pool),
		notes: postgresrepo.NewNoteRepo(pool),
		close: pool.Close,
	}, nil
}

func newLimiter(ctx context.Context) (ratelimit.Limiter, func(), error) {
	if cfg.RedisURL == "" {
		l := ratelimit.NewMemoryLimiter(cfg.RateLimit.Max, cfg.RateLimit.Window)
		return l, func() { l.Close() }, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("pinging redis: %w", err)
	}
	logger.Info().Msg("rate limiting through redis")

	l := ratelimit.NewRedisLimiter(&ratelimit.RedisConfig{
		Client: client,
		Rate:   cfg.RateLimit.Max,
		Window: cfg.RateLimit.Window,
	})
	return l, func() { client.Close() }, nil
}

func serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx)
	if err != nil {
		return err
	}
	defer st.close()

	if cfg.InsecureSecret() {
		logger.Warn().Msg("JWT_SECRET is the development default, set a real secret before exposing this server")
	}

	trusted, err := ratelimit.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return err
	}

	limiter, closeLimiter, err := newLimiter(ctx)
	if err != nil {
		return err
	}
	defer closeLimiter()

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	authService := service.NewAuthService(st.users, auth.NewPasswordHasher(), tokens)
	noteService := service.NewNoteService(st.notes, st.users)

	hub := ws.NewHub(logger)
	go hub.Run(ctx)
	noteService.SetNotifier(ws.NewHubNotifier(hub))

	handler := router.New(router.Deps{
		AuthService: authService,
		NoteService: noteService,
		Tokens:      tokens,
		Limiter:     limiter,
		Throttle: ratelimit.Throttle{
			After:    cfg.Throttle.DelayAfter,
			Step:     cfg.Throttle.DelayStep,
			MaxDelay: cfg.Throttle.MaxDelay,
		},
		ClientIP: ratelimit.ClientIPFunc(trusted),
		Hub:      hub,
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("store", cfg.StoreDriver).Msg("starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
