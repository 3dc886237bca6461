package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/evgkirov/member-content-system/internal/auth"
	"github.com/evgkirov/member-content-system/internal/config"
	"github.com/evgkirov/member-content-system/internal/database"
	"github.com/evgkirov/member-content-system/internal/queue"
	"github.com/evgkirov/member-content-system/internal/repository"
	"github.com/evgkirov/member-content-system/internal/router"
	"github.com/evgkirov/member-content-system/internal/service"
	"github.com/evgkirov/member-content-system/internal/storage"
	"github.com/evgkirov/member-content-system/internal/token"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	if !cfg.IsProd() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := database.Migrate(ctx, db); err != nil {
			cancel()
			log.Fatalf("migrate: %v", err)
		}
		if err := database.SeedAdmin(ctx, db, cfg.BcryptCost); err != nil {
			cancel()
			log.Fatalf("seed: %v", err)
		}
		cancel()
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; login rate limiting disabled")
	}

	codec := token.New(cfg.JWTSecret, time.Duration(cfg.AccessTTLMin)*time.Minute)
	sessions := auth.NewService(repository.NewAuthStore(db), codec)

	blobs, err := storage.NewBlobStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("upload dir: %v", err)
	}

	events := service.NewAuditPublisher(cfg.RabbitURL)
	if events == nil {
		log.Println("RABBITMQ_URL not set; audit fan-out disabled")
	} else {
		go queue.StartAuditConsumer(cfg.RabbitURL)
	}

	e := router.New(router.Deps{
		Cfg:      cfg,
		DB:       db,
		Redis:    rdb,
		Sessions: sessions,
		Blobs:    blobs,
		Events:   events,
	})

	log.Printf("listening on :%s (env=%s)", cfg.Port, cfg.Env)
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
