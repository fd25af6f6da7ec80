package main

import (
	_ "bin-option/docs/gateway"
	"bin-option/internal/app"
	"log"
)

// @title           Rate Gateway API
// @version         1.0
// @description     Прием котировок валютных пар для обучения моделей прогноза

// @host      localhost:8081
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app, err := app.NewGatewayApp()
	if err != nil {
		log.Fatalf("Ошибка создания приложения: %v", err)
	}

	app.BuildRateLayer()

	if err := app.Run(); err != nil {
		log.Fatalf("Ошибка при работе приложения: %v", err)
	}
}
