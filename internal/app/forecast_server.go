package app

import (
	"bin-option/internal/api/handlers"
	"bin-option/internal/config"
	"bin-option/internal/kafka"
	"bin-option/internal/metrics"
	"bin-option/internal/server"
	"bin-option/internal/service"
	"bin-option/internal/storage/postgres"
	"context"
	"fmt"
	"log/slog"
)

const forecastServerName = "forecast-server"

type ForecastServerApp struct {
	*base
	cfg             *config.ForecastServerConfig
	server          *server.Server
	recorder        *metrics.PrometheusRecorder
	kafkaProducer   kafka.Producer
	forecastService *service.ForecastService
}

func NewForecastServerApp() (*ForecastServerApp, error) {
	cfg, err := config.NewForecastServerConfig()
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации конфига: %w", err)
	}

	b, err := newBase(forecastServerName, cfg.Common)
	if err != nil {
		return nil, err
	}

	producer, err := newProducer(cfg.Kafka, b.log)
	if err != nil {
		b.close()
		return nil, err
	}

	recorder := metrics.NewPrometheusRecorder(forecastServerName)
	srv := newHTTPServer(cfg.HTTPPort, cfg.SwaggerHost, "forecast", recorder, b.log)

	return &ForecastServerApp{
		base:          b,
		cfg:           cfg,
		server:        srv,
		recorder:      recorder,
		kafkaProducer: producer,
	}, nil
}

func (a *ForecastServerApp) BuildForecastLayer() {
	txManager := service.NewPgxTxManager(a.pool)
	historyRepo := postgres.NewHistoryRepository(a.pool)
	modelRepo := postgres.NewModelRepository(a.pool)
	resultRepo := postgres.NewResultRepository(a.pool)

	historyService := service.NewHistoryService(historyRepo, txManager, a.cfg.RateExpireHour, a.log)
	forecaster := service.NewForecaster(modelRepo, resultRepo, txManager, a.kafkaProducer, a.recorder, a.log)
	a.forecastService = service.NewForecastService(historyRepo, forecaster, a.cfg.Forecast, a.log)

	forecastHandler := handlers.NewForecastHandler(historyService, a.forecastService)

	a.server.Router.Post("/rates", forecastHandler.PostRateHistory)
	a.server.Router.Get("/forecast/after30min/{rateId}/{modelNo}", forecastHandler.GetForecastAfter30Min)

	a.log.Info("слой 'forecast' собран и маршруты зарегистрированы",
		slog.String("mode", a.cfg.Forecast.Mode),
		slog.Int("workers", a.cfg.Forecast.Workers))
}

func (a *ForecastServerApp) Run() error {
	defer a.close()
	return serveUntilSignal(a.server, a.log, func(ctx context.Context) {
		if a.forecastService != nil {
			a.log.Info("остановка пула прогнозов")
			if err := a.forecastService.Shutdown(ctx); err != nil {
				a.log.Error("ошибка при остановке пула прогнозов", slog.String("error", err.Error()))
			}
		}
		closeProducer(a.kafkaProducer, a.log)
	})
}

func newProducer(cfg config.KafkaConfig, log *slog.Logger) (kafka.Producer, error) {
	if !cfg.Enabled {
		log.Info("kafka отключен в конфигурации")
		return kafka.NewNoOpProducer(log), nil
	}

	log.Info("инициализация kafka producer", slog.Any("brokers", cfg.Brokers))
	producer, err := kafka.NewKafkaProducer(cfg.Brokers, cfg.Topic, log)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации kafka: %w", err)
	}
	return producer, nil
}

func closeProducer(producer kafka.Producer, log *slog.Logger) {
	if producer == nil {
		return
	}
	log.Info("закрытие kafka producer")
	if err := producer.Close(); err != nil {
		log.Error("ошибка при закрытии kafka producer", slog.String("error", err.Error()))
	}
}
