package main

import (
	_ "bin-option/docs/forecast"
	"bin-option/internal/app"
	"log"
)

// @title           Forecast Server API
// @version         1.0
// @description     Прием историй курса и выдача прогнозов через 30 минут

// @host      localhost:8082
// @BasePath  /
func main() {
	app, err := app.NewForecastServerApp()
	if err != nil {
		log.Fatalf("Ошибка создания приложения: %v", err)
	}

	app.BuildForecastLayer()

	if err := app.Run(); err != nil {
		log.Fatalf("Ошибка при работе приложения: %v", err)
	}
}
