package models

type User struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	Email         string  `gorm:"size:256;uniqueIndex;not null" json:"email,omitempty"`
	FirstName     string  `gorm:"size:64;not null" json:"firstName"`
	LastName      string  `gorm:"size:64;not null" json:"lastName"`
	Password      string  `gorm:"size:256;not null" json:"-"` // bcrypt hash
	AuthToken     *string `gorm:"size:512" json:"-"`          // current session token, nil when logged out
	ImageFilename *string `gorm:"size:64" json:"-"`
}

func (User) TableName() string {
	return "users"
}
