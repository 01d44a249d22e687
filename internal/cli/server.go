package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"advent-calendar-service/internal/app"
	"advent-calendar-service/internal/config"
	"advent-calendar-service/internal/domain"
	"advent-calendar-service/internal/infra/file"
	"advent-calendar-service/internal/infra/memory"
	pgstore "advent-calendar-service/internal/infra/postgres"
	redisstore "advent-calendar-service/internal/infra/redis"
	"advent-calendar-service/internal/logging"
	"advent-calendar-service/internal/quiz"
	transport "advent-calendar-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the calendar server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func loadConfig(path string) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return cfg, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, logger, nil
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, logger, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

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

	start, err := cfg.CalendarStart()
	if err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = newRedisClient(cfg)
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.DayLoader
	switch {
	case pool != nil:
		loader = pgstore.NewDayLoader(pool)
	case cfg.Calendar.DaysFile != "":
		days, err := file.LoadDays(cfg.Calendar.DaysFile)
		if err != nil {
			return err
		}
		loader = memory.NewStaticDayLoader(days)
	default:
		logger.Warn("no day catalogue configured, serving the built-in sample")
		loader = memory.NewStaticDayLoader(sampleDays())
	}

	dayTTL := config.TTLDuration(cfg.Calendar.TTL, 10*time.Minute)
	var dayRepo app.DayRepository
	if redisClient != nil {
		dayRepo = redisstore.NewDayRepository(redisClient, loader, dayTTL, logger)
	} else {
		dayRepo = memory.NewDayRepository(loader, dayTTL)
	}

	var completions app.CompletionRepository
	switch {
	case pool != nil:
		completions = pgstore.NewCompletionStore(pool)
	case redisClient != nil:
		completions = redisstore.NewCompletionStore(redisClient)
	default:
		completions = memory.NewCompletionStore()
	}

	var store app.SessionRepository
	if redisClient != nil {
		store = redisstore.NewSessionStore(redisClient, redisTTL, logger)
	} else {
		store = memory.NewSessionStore()
	}

	service := app.NewCalendarService(dayRepo, completions, store,
		app.WithDelays(quiz.Delays{
			Success:    config.TTLDuration(cfg.Modal.SuccessDelay, quiz.DefaultSuccessDelay),
			WrongReset: config.TTLDuration(cfg.Modal.WrongResetDelay, quiz.DefaultWrongResetDelay),
		}),
		app.WithUnlockPolicy(app.UnlockPolicy{Start: start}),
		app.WithLogger(logger))

	info := transport.AppInfo{ID: cfg.App.ID, Name: cfg.App.Name, WebDir: cfg.App.WebDir}
	router := transport.NewRouter(
		transport.NewWSHandler(service, logger),
		transport.NewAPIHandler(service, info, logger),
		cfg.App.WebDir,
		logger)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting calendar service", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

// sampleDays keeps the server usable without a catalogue; real deployments
// set calendar.daysFile or seed Postgres.
func sampleDays() []domain.Day {
	return []domain.Day{
		{
			ID:            1,
			Title:         "Curiositat general",
			Content:       "The first printed advent calendar appeared in Germany in 1908.",
			Colors:        []string{"#b91c1c", "#15803d"},
			Question:      "Where was the first printed advent calendar made?",
			Options:       []string{"Austria", "Germany", "Denmark"},
			CorrectAnswer: 1,
		},
	}
}

func newRedisClient(cfg config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}
