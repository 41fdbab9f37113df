package models

type Category struct {
	ID   uint   `gorm:"primaryKey" json:"categoryId"`
	Name string `gorm:"size:64;not null;unique" json:"name"`
}

func (Category) TableName() string {
	return "category"
}
