package models

import (
	"time"
)

// User model
type User struct {
	ID             uint `gorm:"primaryKey"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time `gorm:"index"`
	Email          string     `gorm:"size:255;not null;unique"`
	HashedPassword []byte     `gorm:"not null"`
	FullName       string     `gorm:"size:255;not null"`
	Products       []Product
	Categories     []Category
	Revenues       []Revenue
	Expenses       []Expense
	RoleID         *uint `gorm:"index"`
	Role           Role  `gorm:"foreignKey:RoleID;references:ID"`
}
