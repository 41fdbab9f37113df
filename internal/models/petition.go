package models

import (
	"time"
)

// Petition 请愿 - the aggregate root; owns 1..3 SupportTier rows.
type Petition struct {
	ID            uint          `gorm:"primaryKey" json:"petitionId"`
	Title         string        `gorm:"size:128;not null;uniqueIndex" json:"title"`
	Description   string        `gorm:"type:text;not null" json:"description"`
	CreationDate  time.Time     `gorm:"not null;index" json:"creationDate"`
	ImageFilename *string       `gorm:"size:64" json:"-"`
	OwnerID       uint          `gorm:"not null;index" json:"ownerId"`
	Owner         User          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CategoryID    uint          `gorm:"not null;index" json:"categoryId"`
	Category      Category      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	SupportTiers  []SupportTier `gorm:"foreignKey:PetitionID" json:"supportTiers,omitempty"`
}

func (Petition) TableName() string {
	return "petition"
}
