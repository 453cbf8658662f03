package models

import "time"

// Store is a single merchant location, looked up by customers through Code.
type Store struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Code        string    `gorm:"size:20;not null;uniqueIndex" json:"code"`
	Description string    `gorm:"type:text" json:"description"`
	Address     string    `gorm:"size:500" json:"address"`
	Phone       string    `gorm:"size:20" json:"phone"`
	OpeningTime string    `gorm:"size:5;not null;default:'08:00'" json:"opening_time"` // HH:MM
	ClosingTime string    `gorm:"size:5;not null;default:'22:00'" json:"closing_time"` // HH:MM
	IsActive    bool      `gorm:"not null;index" json:"is_active"`
	OwnerID     uint      `gorm:"not null;index" json:"owner_id"`
	Owner       *User     `gorm:"foreignKey:OwnerID;constraint:OnDelete:RESTRICT" json:"owner,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Categories []Category `gorm:"foreignKey:StoreID;constraint:OnDelete:CASCADE" json:"categories,omitempty"`
	Products   []Product  `gorm:"foreignKey:StoreID;constraint:OnDelete:CASCADE" json:"products,omitempty"`
	Orders     []Order    `gorm:"foreignKey:StoreID;constraint:OnDelete:RESTRICT" json:"orders,omitempty"`
}
