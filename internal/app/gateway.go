package app

import (
	"bin-option/internal/api/handlers"
	"bin-option/internal/api/middlew"
	"bin-option/internal/config"
	"bin-option/internal/metrics"
	"bin-option/internal/server"
	"bin-option/internal/service"
	"bin-option/internal/storage/postgres"
	"context"
	"fmt"
	"log/slog"

	"github.com/go-chi/chi/v5"
)

const gatewayName = "rate-gateway"

type GatewayApp struct {
	*base
	cfg      *config.GatewayConfig
	server   *server.Server
	recorder *metrics.PrometheusRecorder
}

func NewGatewayApp() (*GatewayApp, error) {
	cfg, err := config.NewGatewayConfig()
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации конфига: %w", err)
	}

	b, err := newBase(gatewayName, cfg.Common)
	if err != nil {
		return nil, err
	}

	recorder := metrics.NewPrometheusRecorder(gatewayName)
	srv := newHTTPServer(cfg.HTTPPort, cfg.SwaggerHost, "gateway", recorder, b.log)

	return &GatewayApp{
		base:     b,
		cfg:      cfg,
		server:   srv,
		recorder: recorder,
	}, nil
}

func (a *GatewayApp) BuildRateLayer() {
	txManager := service.NewPgxTxManager(a.pool)
	rateRepo := postgres.NewRateRepository(a.pool)
	rateService := service.NewRateService(rateRepo, txManager, a.recorder, a.log)
	rateHandler := handlers.NewRateHandler(rateService)

	a.server.Router.Group(func(r chi.Router) {
		if a.cfg.JWT.Secret != "" {
			r.Use(middlew.RequireToken(service.NewTokenService(a.cfg.JWT.Secret)))
		} else {
			a.log.Warn("GATEWAY_JWT_SECRET не задан, проверка токена отключена")
		}
		r.Post("/rates/{pair}", rateHandler.PostRates)
	})

	a.log.Info("слой 'rates' собран и маршруты зарегистрированы")
}

func (a *GatewayApp) Run() error {
	defer a.close()
	return serveUntilSignal(a.server, a.log, func(context.Context) {
		a.log.Info("шлюз котировок остановлен", slog.String("port", a.cfg.HTTPPort))
	})
}
