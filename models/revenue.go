package models

import "time"

// Revenue is a single income entry. Category here is a free-text label,
// unrelated to the product Category table.
type Revenue struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"-"`
	UserID        uint      `gorm:"index;not null" json:"-"`
	Description   string    `gorm:"size:255;not null" json:"description"`
	Amount        float64   `gorm:"type:decimal(10,2);not null" json:"amount"`
	Category      string    `gorm:"size:100;not null" json:"category"`
	Date          time.Time `gorm:"type:date;not null" json:"date"`
	PaymentMethod string    `gorm:"size:100" json:"paymentMethod,omitempty"`
	Customer      string    `gorm:"size:255" json:"customer,omitempty"`
	InvoiceNumber string    `gorm:"size:100" json:"invoiceNumber,omitempty"`
	Notes         string    `gorm:"type:text" json:"notes,omitempty"`
}
