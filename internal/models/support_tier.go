package models

type SupportTier struct {
	ID          uint     `gorm:"primaryKey" json:"supportTierId"`
	PetitionID  uint     `gorm:"not null;uniqueIndex:idx_tier_petition_title" json:"-"`
	Petition    Petition `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Title       string   `gorm:"size:128;not null;uniqueIndex:idx_tier_petition_title" json:"title"`
	Description string   `gorm:"size:1024;not null" json:"description"`
	Cost        int      `gorm:"not null" json:"cost"`
}

func (SupportTier) TableName() string {
	return "support_tier"
}
