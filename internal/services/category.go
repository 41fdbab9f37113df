package services

import (
	"context"
	"fmt"

	"petitionsite/internal/models"
	"petitionsite/internal/utils"

	"gorm.io/gorm"
)

const categoriesCacheKey = "categories:all"

// CategoryService is the read-only category directory.
type CategoryService struct {
	db    *gorm.DB
	cache *utils.TTLCache[[]models.Category]
}

func NewCategoryService(db *gorm.DB, cache *utils.TTLCache[[]models.Category]) *CategoryService {
	return &CategoryService{db: db, cache: cache}
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.load(s.db.WithContext(ctx))
}

// Exists checks id against the directory using the caller's store handle.
func (s *CategoryService) Exists(tx *gorm.DB, id uint) (bool, error) {
	categories, err := s.load(tx)
	if err != nil {
		return false, err
	}
	for _, c := range categories {
		if c.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (s *CategoryService) load(tx *gorm.DB) ([]models.Category, error) {
	if s.cache != nil {
		if categories, ok := s.cache.Get(categoriesCacheKey); ok {
			return categories, nil
		}
	}

	var categories []models.Category
	if err := tx.Order("id ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	if s.cache != nil {
		s.cache.Set(categoriesCacheKey, categories)
	}
	return categories, nil
}
