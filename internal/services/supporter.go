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

type NewPledge struct {
	SupportTierID uint
	Message       *string
}

type SupporterView struct {
	SupportID          uint      `json:"supportId"`
	SupportTierID      uint      `json:"supportTierId"`
	Message            *string   `json:"message"`
	SupporterID        uint      `json:"supporterId"`
	SupporterFirstName string    `json:"supporterFirstName"`
	SupporterLastName  string    `json:"supporterLastName"`
	Timestamp          time.Time `json:"timestamp"`
}

// SupporterService is the pledge ledger.
type SupporterService struct {
	db   *gorm.DB
	gate *Gate
	now  func() time.Time
}

func NewSupporterService(db *gorm.DB, gate *Gate) *SupporterService {
	return &SupporterService{db: db, gate: gate, now: time.Now}
}

// ListForPetition returns pledges newest first.
func (s *SupporterService) ListForPetition(ctx context.Context, petitionID uint) ([]SupporterView, error) {
	tx := s.db.WithContext(ctx)

	var exists int64
	if err := tx.Model(&models.Petition{}).Where("id = ?", petitionID).Count(&exists).Error; err != nil {
		return nil, fmt.Errorf("check petition %d: %w", petitionID, err)
	}
	if exists == 0 {
		return nil, ErrPetitionNotFound
	}

	views := []SupporterView{}
	err := tx.Table("supporter").
		Select("supporter.id AS support_id, supporter.support_tier_id, supporter.message, "+
			"supporter.user_id AS supporter_id, u.first_name AS supporter_first_name, "+
			"u.last_name AS supporter_last_name, supporter.timestamp").
		Joins("LEFT JOIN users AS u ON u.id = supporter.user_id").
		Where("supporter.petition_id = ?", petitionID).
		Order("supporter.timestamp DESC").
		Order("supporter.id DESC").
		Scan(&views).Error
	if err != nil {
		return nil, fmt.Errorf("list supporters of petition %d: %w", petitionID, err)
	}
	return views, nil
}

// Pledge records the caller's support for one tier of a petition.
func (s *SupporterService) Pledge(ctx context.Context, credential string, petitionID uint, p NewPledge) (uint, error) {
	var supporterID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		petition, err := lockPetition(tx, petitionID)
		if err != nil {
			return err
		}
		tiers, err := tiersOf(tx, petitionID)
		if err != nil {
			return err
		}
		if findTier(tiers, p.SupportTierID) == nil {
			return ErrTierNotFound
		}

		userID, err := s.gate.RequireNonOwner(tx, petition.OwnerID, credential)
		if err != nil {
			return err
		}

		var existing int64
		err = tx.Model(&models.Supporter{}).
			Where("user_id = ? AND support_tier_id = ?", userID, p.SupportTierID).
			Count(&existing).Error
		if err != nil {
			return fmt.Errorf("check existing pledge: %w", err)
		}
		if existing > 0 {
			return ErrDuplicatePledge
		}

		supporter := models.Supporter{
			PetitionID:    petitionID,
			SupportTierID: p.SupportTierID,
			UserID:        userID,
			Message:       p.Message,
			Timestamp:     s.now(),
		}
		if err := tx.Omit(clause.Associations).Create(&supporter).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicatePledge
			}
			return fmt.Errorf("insert supporter: %w", err)
		}
		supporterID = supporter.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	log.Printf("[supporter] pledge %d on petition %d tier %d", supporterID, petitionID, p.SupportTierID)
	return supporterID, nil
}
