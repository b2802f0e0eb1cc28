package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/nottechincal/StuffedLamb-Final/internal/config"
	"github.com/nottechincal/StuffedLamb-Final/internal/db"
	"github.com/nottechincal/StuffedLamb-Final/internal/migrate"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[migrate] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		logger.Fatalf("apply migrations: %v", err)
	}

	logger.Println("migrations applied")
}
