package models

import "time"

// Product is an inventory item belonging to a user. Prices map to
// decimal(10,2) columns; stock is a plain counter with no reservation.
type Product struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time  `json:"-"`
	UpdatedAt    time.Time  `json:"-"`
	Name         string     `gorm:"size:255;not null" json:"name"`
	Sku          string     `gorm:"size:100;not null" json:"sku"`
	Photo        string     `gorm:"size:255" json:"photo,omitempty"`
	CostPrice    float64    `gorm:"type:decimal(10,2);not null" json:"costPrice"`
	ValuePrice   float64    `gorm:"type:decimal(10,2);not null" json:"valuePrice"`
	SoldPrice    *float64   `gorm:"type:decimal(10,2)" json:"soldPrice,omitempty"`
	Stock        int        `gorm:"not null;default:1" json:"stock"`
	Comment      string     `gorm:"type:text" json:"comment,omitempty"`
	Description  string     `gorm:"type:text" json:"description,omitempty"`
	PurchaseDate time.Time  `gorm:"type:date;not null" json:"purchaseDate"`
	SoldDate     *time.Time `gorm:"type:date" json:"soldDate,omitempty"`
	CategoryID   uint       `gorm:"index;not null" json:"-"`
	Category     Category   `gorm:"foreignKey:CategoryID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"category"`
	UserID       uint       `gorm:"index;not null" json:"-"`
}
