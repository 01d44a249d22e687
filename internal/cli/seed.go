package cli

import (
	"context"
	"fmt"
	"time"

	"advent-calendar-service/internal/config"
	"advent-calendar-service/internal/infra/file"
	"advent-calendar-service/internal/infra/postgres"
	redisstore "advent-calendar-service/internal/infra/redis"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewSeedCmd loads the YAML day catalogue into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var daysFile string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert the day catalogue into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()

			path := daysFile
			if path == "" {
				path = cfg.Calendar.DaysFile
			}
			if path == "" {
				return fmt.Errorf("no days file: pass --days or set calendar.daysFile")
			}
			days, err := file.LoadDays(path)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
				return err
			}
			db, err := openBun(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := postgres.SeedDays(ctx, db, days)
			if err != nil {
				return err
			}
			logger.Info("days seeded", zap.String("file", path), zap.Int("rows", n))
			return invalidateDayCache(ctx, cfg, logger)
		},
	}
	cmd.Flags().StringVar(&daysFile, "days", "", "YAML day catalogue (defaults to calendar.daysFile)")
	return cmd
}

// invalidateDayCache drops the Redis copy of the catalogue after a reseed. It
// is a no-op without a Redis address.
func invalidateDayCache(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	if cfg.Redis.Addr == "" {
		return nil
	}
	client := newRedisClient(cfg)
	defer client.Close()

	ttl := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
	if err := redisstore.NewDayRepository(client, nil, ttl, logger).Invalidate(ctx); err != nil {
		logger.Error("day cache invalidation failed", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		return fmt.Errorf("invalidate day cache: %w", err)
	}
	logger.Info("day cache invalidated", zap.String("addr", cfg.Redis.Addr))
	return nil
}
