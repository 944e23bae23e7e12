package main

import (
	"context"
	"log"

	"authcodelab/internal/config"
	"authcodelab/internal/db"
	"authcodelab/internal/model"
	"authcodelab/internal/repository"
	"authcodelab/internal/service"
)

func main() {
	log.Println("Starting admin seed...")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD must be set")
	}

	ctx := context.Background()

	var repo repository.UserRepository
	if cfg.DBDriver == "mongo" {
		client, err := db.NewMongo(ctx, cfg.MongoURI)
		if err != nil {
			log.Fatalf("Failed to connect to mongo: %v", err)
		}
		defer func() { _ = client.Disconnect(context.Background()) }()

		repo, err = repository.NewMongoUserRepository(ctx, client.Database(cfg.MongoDatabase))
		if err != nil {
			log.Fatalf("Failed to prepare users collection: %v", err)
		}
	} else {
		gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := gormDB.AutoMigrate(&model.User{}); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		repo = repository.NewUserRepository(gormDB)
	}
	log.Println("Connected to user store")

	user, created, err := service.EnsureAdmin(ctx, repo, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		log.Fatalf("Failed to seed admin: %v", err)
	}

	if created {
		log.Printf("Created admin %s (%s)", user.Email, user.ID)
	} else {
		log.Printf("Promoted existing account %s (%s) to admin", user.Email, user.ID)
	}
}
