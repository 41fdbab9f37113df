package models

import (
	"time"
)

// Supporter 一次支持(pledge). Deleting the referenced tier or petition is
// restricted rather than cascaded.
type Supporter struct {
	ID            uint        `gorm:"primaryKey" json:"supportId"`
	PetitionID    uint        `gorm:"not null;index" json:"-"`
	Petition      Petition    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	SupportTierID uint        `gorm:"not null;index;uniqueIndex:idx_supporter_user_tier" json:"supportTierId"`
	SupportTier   SupportTier `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	UserID        uint        `gorm:"not null;uniqueIndex:idx_supporter_user_tier" json:"supporterId"`
	User          User        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Message       *string     `gorm:"size:512" json:"message"`
	Timestamp     time.Time   `gorm:"not null;index" json:"timestamp"`
}

func (Supporter) TableName() string {
	return "supporter"
}
