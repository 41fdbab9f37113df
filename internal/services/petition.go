package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"petitionsite/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxSupportTiers is the per-petition tier ceiling.
const MaxSupportTiers = 3

type NewSupportTier struct {
	Title       string
	Description string
	Cost        int
}

type NewPetition struct {
	Title        string
	Description  string
	CategoryID   uint
	SupportTiers []NewSupportTier
}

// PetitionPatch fields are applied only when non-nil.
type PetitionPatch struct {
	Title       *string
	Description *string
	CategoryID  *uint
}

// PetitionService owns petition rows and the search engine over them.
type PetitionService struct {
	db         *gorm.DB
	gate       *Gate
	categories *CategoryService
}

func NewPetitionService(db *gorm.DB, gate *Gate, categories *CategoryService) *PetitionService {
	return &PetitionService{db: db, gate: gate, categories: categories}
}

// lockPetition reads a petition row FOR UPDATE so concurrent mutations of the
// same petition run one after another.
func lockPetition(tx *gorm.DB, id uint) (*models.Petition, error) {
	var petition models.Petition
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&petition, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPetitionNotFound
		}
		return nil, fmt.Errorf("lock petition %d: %w", id, err)
	}
	return &petition, nil
}

func validateTierSet(tiers []NewSupportTier) error {
	if len(tiers) == 0 || len(tiers) > MaxSupportTiers {
		return ErrTierCount
	}
	seen := make(map[string]struct{}, len(tiers))
	for _, t := range tiers {
		if t.Cost < 0 {
			return ErrInvalidCost
		}
		if _, dup := seen[t.Title]; dup {
			return ErrDuplicateTierTitle
		}
		seen[t.Title] = struct{}{}
	}
	return nil
}

// TitleTaken reports whether a petition other than exceptID already uses
// exactly this title. Pass 0 to check against every petition.
func (s *PetitionService) TitleTaken(ctx context.Context, title string, exceptID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Petition{}).
		Where("title = ? AND id <> ?", title, exceptID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check petition title: %w", err)
	}
	return count > 0, nil
}

// Create stores a petition and its tiers as one unit; the caller becomes owner.
func (s *PetitionService) Create(ctx context.Context, credential string, p NewPetition) (uint, error) {
	var petitionID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ownerID, err := s.gate.Authenticate(tx, credential)
		if err != nil {
			return err
		}

		ok, err := s.categories.Exists(tx, p.CategoryID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrUnknownCategory
		}
		if err := validateTierSet(p.SupportTiers); err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.Petition{}).Where("title = ?", p.Title).Count(&existing).Error; err != nil {
			return fmt.Errorf("check petition title: %w", err)
		}
		if existing > 0 {
			return ErrDuplicatePetitionTitle
		}

		petition := models.Petition{
			Title:        p.Title,
			Description:  p.Description,
			CreationDate: time.Now(),
			OwnerID:      ownerID,
			CategoryID:   p.CategoryID,
		}
		if err := tx.Omit(clause.Associations).Create(&petition).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicatePetitionTitle
			}
			return fmt.Errorf("insert petition: %w", err)
		}

		tiers := make([]models.SupportTier, len(p.SupportTiers))
		for i, t := range p.SupportTiers {
			tiers[i] = models.SupportTier{
				PetitionID:  petition.ID,
				Title:       t.Title,
				Description: t.Description,
				Cost:        t.Cost,
			}
		}
		if err := tx.Omit(clause.Associations).Create(&tiers).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateTierTitle
			}
			return fmt.Errorf("insert support tiers: %w", err)
		}

		petitionID = petition.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	log.Printf("[petition] created petition %d", petitionID)
	return petitionID, nil
}

// Edit applies the present fields of patch. Title uniqueness across
// petitions is pre-checked by the caller; the unique index is the backstop.
func (s *PetitionService) Edit(ctx context.Context, credential string, id uint, patch PetitionPatch) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		petition, err := lockPetition(tx, id)
		if err != nil {
			return err
		}
		if err := s.gate.RequireOwner(tx, petition.OwnerID, credential); err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if patch.CategoryID != nil {
			ok, err := s.categories.Exists(tx, *patch.CategoryID)
			if err != nil {
				return err
			}
			if !ok {
				return ErrUnknownCategory
			}
			updates["category_id"] = *patch.CategoryID
		}
		if patch.Title != nil {
			updates["title"] = *patch.Title
		}
		if patch.Description != nil {
			updates["description"] = *patch.Description
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(petition).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicatePetitionTitle
			}
			return fmt.Errorf("update petition %d: %w", id, err)
		}
		return nil
	})
}

// Delete removes a petition and its tiers unless anyone supports it.
func (s *PetitionService) Delete(ctx context.Context, credential string, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		petition, err := lockPetition(tx, id)
		if err != nil {
			return err
		}
		if err := s.gate.RequireOwner(tx, petition.OwnerID, credential); err != nil {
			return err
		}

		var supporters int64
		if err := tx.Model(&models.Supporter{}).Where("petition_id = ?", id).Count(&supporters).Error; err != nil {
			return fmt.Errorf("count supporters of petition %d: %w", id, err)
		}
		if supporters > 0 {
			return ErrPetitionHasSupporters
		}

		if err := tx.Where("petition_id = ?", id).Delete(&models.SupportTier{}).Error; err != nil {
			return fmt.Errorf("delete tiers of petition %d: %w", id, err)
		}
		if err := tx.Delete(&models.Petition{}, id).Error; err != nil {
			return fmt.Errorf("delete petition %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("[petition] deleted petition %d", id)
	return nil
}
