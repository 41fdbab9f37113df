package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"petitionsite/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SupportTierPatch struct {
	Title       *string
	Description *string
	Cost        *int
}

// SupportTierService guards the 1..3 tiers of each petition.
type SupportTierService struct {
	db   *gorm.DB
	gate *Gate
}

func NewSupportTierService(db *gorm.DB, gate *Gate) *SupportTierService {
	return &SupportTierService{db: db, gate: gate}
}

func findTier(tiers []models.SupportTier, tierID uint) *models.SupportTier {
	for i := range tiers {
		if tiers[i].ID == tierID {
			return &tiers[i]
		}
	}
	return nil
}

func tierHasSupporters(tx *gorm.DB, tierID uint) (bool, error) {
	var count int64
	if err := tx.Model(&models.Supporter{}).Where("support_tier_id = ?", tierID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count supporters of tier %d: %w", tierID, err)
	}
	return count > 0, nil
}

// Add creates a tier unless the petition is at the ceiling or the title is
// already used by one of its tiers.
func (s *SupportTierService) Add(ctx context.Context, credential string, petitionID uint, t NewSupportTier) (uint, error) {
	var tierID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		petition, err := lockPetition(tx, petitionID)
		if err != nil {
			return err
		}
		if err := s.gate.RequireOwner(tx, petition.OwnerID, credential); err != nil {
			return err
		}
		if t.Cost < 0 {
			return ErrInvalidCost
		}

		tiers, err := tiersOf(tx, petitionID)
		if err != nil {
			return err
		}
		if len(tiers) >= MaxSupportTiers {
			return ErrTierCeiling
		}
		for _, existing := range tiers {
			if existing.Title == t.Title {
				return ErrDuplicateTierTitle
			}
		}

		tier := models.SupportTier{
			PetitionID:  petitionID,
			Title:       t.Title,
			Description: t.Description,
			Cost:        t.Cost,
		}
		if err := tx.Omit(clause.Associations).Create(&tier).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateTierTitle
			}
			return fmt.Errorf("insert support tier: %w", err)
		}
		tierID = tier.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	log.Printf("[tier] added tier %d to petition %d", tierID, petitionID)
	return tierID, nil
}

// Edit changes a tier that nobody supports yet. A pledged tier is frozen
// whatever the patch contains.
func (s *SupportTierService) Edit(ctx context.Context, credential string, petitionID, tierID uint, patch SupportTierPatch) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		petition, err := lockPetition(tx, petitionID)
		if err != nil {
			return err
		}
		tiers, err := tiersOf(tx, petitionID)
		if err != nil {
			return err
		}
		tier := findTier(tiers, tierID)
		if tier == nil {
			return ErrTierNotFound
		}
		if err := s.gate.RequireOwner(tx, petition.OwnerID, credential); err != nil {
			return err
		}

		pledged, err := tierHasSupporters(tx, tierID)
		if err != nil {
			return err
		}
		if pledged {
			return ErrTierHasSupporters
		}

		updates := map[string]interface{}{}
		if patch.Title != nil {
			for _, sibling := range tiers {
				if sibling.ID != tierID && sibling.Title == *patch.Title {
					return ErrDuplicateTierTitle
				}
			}
			updates["title"] = *patch.Title
		}
		if patch.Description != nil {
			updates["description"] = *patch.Description
		}
		if patch.Cost != nil {
			if *patch.Cost < 0 {
				return ErrInvalidCost
			}
			updates["cost"] = *patch.Cost
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(tier).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateTierTitle
			}
			return fmt.Errorf("update support tier %d: %w", tierID, err)
		}
		return nil
	})
}

// Delete removes a tier unless it is the petition's last one or is pledged.
func (s *SupportTierService) Delete(ctx context.Context, credential string, petitionID, tierID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		petition, err := lockPetition(tx, petitionID)
		if err != nil {
			return err
		}
		tiers, err := tiersOf(tx, petitionID)
		if err != nil {
			return err
		}
		if findTier(tiers, tierID) == nil {
			return ErrTierNotFound
		}
		if err := s.gate.RequireOwner(tx, petition.OwnerID, credential); err != nil {
			return err
		}

		if len(tiers) <= 1 {
			return ErrLastTier
		}
		pledged, err := tierHasSupporters(tx, tierID)
		if err != nil {
			return err
		}
		if pledged {
			return ErrTierHasSupporters
		}

		if err := tx.Delete(&models.SupportTier{}, tierID).Error; err != nil {
			return fmt.Errorf("delete support tier %d: %w", tierID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("[tier] deleted tier %d of petition %d", tierID, petitionID)
	return nil
}
