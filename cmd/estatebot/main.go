package main

import (
	"log"

	"github.com/joho/godotenv"

	corecmd "github.com/m3rciful/estatebot/core/cmd"
	"github.com/m3rciful/estatebot/internal/app"
)

func main() {
	// .env is optional; real deployments rely on the environment.
	_ = godotenv.Load()

	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return app.LoadConfig(path)
		},
		Bootstrap: func(cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			return app.Bootstrap(cfg)
		},
	})
	if err != nil {
		log.Fatalf("estatebot: %v", err)
	}
}
