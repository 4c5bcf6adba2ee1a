package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/config"
	"classroom-quiz-service/internal/infra/memory"
	"classroom-quiz-service/internal/infra/postgres"
	infraredis "classroom-quiz-service/internal/infra/redis"
	transport "classroom-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

type stores struct {
	quizzes   app.QuizStore
	attempts  app.AttemptStore
	directory app.Directory
	sessions  app.SessionRepository
	close     func()
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Log.Env)
	slog.SetDefault(logger)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	st, err := buildStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	service := app.NewQuizService(st.quizzes, st.attempts, st.directory, st.sessions, app.Options{
		Policy:       app.ParsePolicy(cfg.Quiz.AttemptPolicy),
		LateGrace:    config.TTLDuration(cfg.Quiz.LateGrace, app.DefaultLateGrace),
		TickInterval: config.TTLDuration(cfg.Quiz.TickInterval, time.Second),
		Logger:       logger,
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(service, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting quiz service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server...")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildStores picks Postgres for durable state and Redis for caching and
// session markers when configured, falling back to seeded in-memory stores.
func buildStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (stores, error) {
	st := stores{close: func() {}}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	st.close = func() {
		if pool != nil {
			pool.Close()
		}
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}
	if cfg.Postgres.URL != "" {
		var err error
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			st.close()
			return stores{close: func() {}}, err
		}
	}

	var backing app.QuizStore
	switch {
	case pool != nil:
		backing = postgres.NewQuizStore(pool)
		st.directory = postgres.NewDirectory(pool)
		st.attempts = postgres.NewAttemptStore(pool)
		logger.Info("using postgres storage")
	default:
		quizzes, directory := sampleData(time.Now())
		backing = memory.NewQuizStore(quizzes)
		st.directory = directory
		if redisClient != nil {
			st.attempts = infraredis.NewAttemptStore(redisClient)
		} else {
			st.attempts = memory.NewAttemptStore()
		}
		logger.Warn("postgres not configured, serving seeded demo classroom")
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if redisClient != nil {
		st.quizzes = infraredis.NewQuizRepository(redisClient, backing, quizTTL)
		st.sessions = infraredis.NewSessionStore(redisClient, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
	} else {
		st.quizzes = memory.NewQuizRepository(backing, quizTTL)
		st.sessions = memory.NewSessionStore()
	}
	return st, nil
}
