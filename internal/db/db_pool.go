package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PoolConfig struct {
	MaxConns          int
	MinConns          int
	HealthCheckPeriod time.Duration
	PoolTimeout       time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration
	ApplicationName   string
}

// DefaultPoolConfig настройки пула для сервисов и батчей
func DefaultPoolConfig(appName string, maxConns int) PoolConfig {
	if maxConns <= 0 {
		maxConns = 20
	}
	return PoolConfig{
		MaxConns:          maxConns,
		MinConns:          min(2, maxConns),
		HealthCheckPeriod: 30 * time.Second,
		PoolTimeout:       5 * time.Second,
		RetryAttempts:     5,
		RetryDelay:        1 * time.Second,
		ApplicationName:   appName,
	}
}

func NewPool(ctx context.Context, dsn string, cfg PoolConfig, log *slog.Logger) (*pgxpool.Pool, error) {
	conf, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось распарсить DSN: %w", err)
	}

	conf.MaxConns = int32(cfg.MaxConns)
	conf.MinConns = int32(cfg.MinConns)
	conf.HealthCheckPeriod = cfg.HealthCheckPeriod
	conf.MaxConnLifetime = 30 * time.Minute
	conf.MaxConnIdleTime = 5 * time.Minute
	if cfg.ApplicationName != "" {
		conf.ConnConfig.RuntimeParams["application_name"] = cfg.ApplicationName
	}
	conf.ConnConfig.ConnectTimeout = cfg.PoolTimeout

	var pool *pgxpool.Pool
	for i := 0; i < cfg.RetryAttempts; i++ {
		pool, err = pgxpool.NewWithConfig(ctx, conf)
		if err == nil {
			err = pool.Ping(ctx)
			if err == nil {
				log.Info("подключение к базе данных успешно", slog.String("application", cfg.ApplicationName))
				return pool, nil
			}
			pool.Close()
		}

		log.Warn("не удалось подключиться к базе данных",
			slog.Int("attempt", i+1),
			slog.Int("max_attempts", cfg.RetryAttempts),
			slog.String("error", err.Error()))

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("подключение к базе данных прервано: %w", ctx.Err())
		case <-time.After(cfg.RetryDelay * time.Duration(1<<i)):
		}
	}

	return nil, fmt.Errorf("не удалось создать пул соединений после %d попыток: %w", cfg.RetryAttempts, err)
}
