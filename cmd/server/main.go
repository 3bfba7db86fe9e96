package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"drift-and-draft/server/internal/app"
)

func main() {
	// A local .env is optional; the environment wins over the file.
	_ = godotenv.Load()

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := app.Run(context.Background(), cfg); err != nil {
		log.Fatalf("%v", err)
	}
}
