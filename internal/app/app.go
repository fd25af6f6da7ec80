package app

import (
	"bin-option/internal/api/middlew"
	"bin-option/internal/config"
	"bin-option/internal/db"
	"bin-option/internal/metrics"
	"bin-option/internal/server"
	"bin-option/pkg/logger"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
)

const shutdownTimeout = 30 * time.Second

// base общее для всех процессов: логгер, миграции, пул соединений
type base struct {
	log     *slog.Logger
	logFile *os.File
	pool    *pgxpool.Pool
}

func newBase(appName string, common config.CommonConfig) (*base, error) {
	loggerWithFile := logger.NewLoggerWithFile(common.LogFile, logger.ParseLevel(common.LogLevel))
	log := loggerWithFile.Logger.With(slog.String("app", appName))
	log.Info("инициализация приложения", slog.String("pair", common.CurrencyPair))

	log.Info("выполнение миграций базы данных")
	if err := db.RunMigrations(common.DB.MigrationURL(), common.MigrationsPath, log); err != nil {
		return nil, fmt.Errorf("ошибка выполнения миграций: %w", err)
	}

	pool, err := db.NewPool(context.Background(), common.DB.DSN(), db.DefaultPoolConfig(appName, common.DB.MaxConns), log)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к базе данных: %w", err)
	}
	log.Info("подключение к базе данных установлено")

	return &base{
		log:     log,
		logFile: loggerWithFile.LogFile,
		pool:    pool,
	}, nil
}

func (b *base) close() {
	b.log.Info("закрытие соединения с базой данных")
	b.pool.Close()

	b.log.Info("приложение остановлено")
	if b.logFile != nil {
		if err := b.logFile.Close(); err != nil {
			b.log.Error("ошибка при закрытии файла логов", slog.String("error", err.Error()))
		}
	}
}

// newHTTPServer роутер с общей цепочкой middleware, /health, /metrics и swagger
func newHTTPServer(port, swaggerHost, swaggerInstance string, recorder *metrics.PrometheusRecorder, log *slog.Logger) *server.Server {
	srv := server.NewServer(port)
	srv.Router.Use(middleware.RequestID)
	srv.Router.Use(middlew.WithLogger(log))
	srv.Router.Use(middleware.RealIP)
	srv.Router.Use(middleware.Recoverer)
	srv.Router.Use(recorder.Middleware)

	srv.RegisterHealth()
	srv.RegisterMetrics(recorder.Handler())
	srv.RegisterSwagger(swaggerHost, swaggerInstance)

	log.Info("сервер инициализирован", slog.String("port", port))
	return srv
}

// serveUntilSignal запускает сервер и ждет SIGINT/SIGTERM; onShutdown вызывается до остановки сервера
func serveUntilSignal(srv *server.Server, log *slog.Logger, onShutdown func(ctx context.Context)) error {
	log.Info("сервер запускается")

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("ошибка запуска сервера: %w", err)
		}
	}()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case sig := <-shutdownChan:
		log.Info("получен сигнал завершения", slog.String("signal", sig.String()))
	}

	log.Info("приложение останавливается")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("ошибка при остановке http сервера", slog.String("error", err.Error()))
	}
	if onShutdown != nil {
		onShutdown(ctx)
	}
	return nil
}
