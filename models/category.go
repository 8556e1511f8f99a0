package models

import "time"

// Category groups a user's products. Names are free-form; uniqueness per
// user is a convention, not a constraint.
type Category struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	UserID    uint      `gorm:"index;not null" json:"-"`
}
