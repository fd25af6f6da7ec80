package main

import (
	"bin-option/internal/app"
	"log"
)

func main() {
	app, err := app.NewDataCleanBatchApp()
	if err != nil {
		log.Fatalf("Ошибка создания приложения: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Fatalf("Ошибка при работе батча: %v", err)
	}
}
