package main

import (
	"log"

	"petitionsite/internal/config"
	"petitionsite/internal/db"
	"petitionsite/internal/router"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	gin.SetMode(cfg.Server.Mode)

	// Initialize Database
	database, err := db.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	r, err := router.New(database, cfg)
	if err != nil {
		log.Fatalf("Failed to build router: %v", err)
	}

	log.Printf("Petition server starting on :%s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatal(err)
	}
}
