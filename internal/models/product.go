package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	MaxProductPrice       = "999.99"
	MinPreparationMinutes = 1
	MaxPreparationMinutes = 120
)

type Product struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	StoreID         uint            `gorm:"not null;index" json:"store_id"`
	CategoryID      uint            `gorm:"not null;index" json:"category_id"`
	Category        *Category       `json:"category,omitempty"`
	Name            string          `gorm:"size:255;not null" json:"name"`
	Description     string          `gorm:"type:text" json:"description"`
	Price           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	ImageURL        string          `gorm:"size:500" json:"image_url"`
	PreparationTime int             `gorm:"not null" json:"preparation_time"` // minutes
	IsAvailable     bool            `gorm:"not null" json:"is_available"`
	SortOrder       int             `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
