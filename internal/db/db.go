package db

import (
	"fmt"
	"log"
	"time"

	"petitionsite/internal/config"
	"petitionsite/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the configured store. The returned handle is passed
// explicitly to every service; there is no package-level connection.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormLogger := logger.Default
	if !cfg.LogMode {
		gormLogger = gormLogger.LogMode(logger.Silent)
	}
	gormCfg := &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		dialector = postgres.Open(cfg.DSN)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// One long-lived connection: keeps :memory: databases alive and
		// serializes writers.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	} else {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	log.Println("Database connection established")
	return db, nil
}

// Migrate creates the schema and seeds the category directory.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Category{},
		&models.User{},
		&models.Petition{},
		&models.SupportTier{},
		&models.Supporter{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	log.Println("Database migration completed")

	return seedCategories(db)
}

// DefaultCategories is the reference data written on first start.
var DefaultCategories = []string{
	"Wildlife",
	"Environmental Causes",
	"Animal Rights",
	"Health and Wellness",
	"Education",
	"Human Rights",
	"Technology and Innovation",
	"Arts and Culture",
	"Community Development",
	"Economic Empowerment",
	"Science and Research",
	"Sports and Recreation",
}

func seedCategories(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Category{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if count > 0 {
		log.Println("Categories already seeded, skipping")
		return nil
	}

	categories := make([]models.Category, len(DefaultCategories))
	for i, name := range DefaultCategories {
		categories[i] = models.Category{Name: name}
	}
	if err := db.Create(&categories).Error; err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	log.Println("Initial categories created successfully")
	return nil
}
