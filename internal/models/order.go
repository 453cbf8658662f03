package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// Statuses a customer still waits on.
var ActiveOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusReady,
}

// Statuses a cashier still has to act on.
var QueueOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

const (
	DefaultEstimatedCompletion = 15 // minutes
	MinItemQuantity            = 1
	MaxItemQuantity            = 10
)

// Order: a customer's order at one store. Items are created with the order and never mutated.
type Order struct {
	ID                      uint            `gorm:"primaryKey" json:"id"`
	OrderNumber             string          `gorm:"size:32;not null;uniqueIndex" json:"order_number"`
	TotalAmount             decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	Status                  OrderStatus     `gorm:"size:20;not null;index;index:idx_orders_store_status,priority:2" json:"status"`
	PaymentStatus           PaymentStatus   `gorm:"size:20;not null" json:"payment_status"`
	PaymentMethod           *string         `gorm:"size:50" json:"payment_method"`
	PaymentReference        *string         `gorm:"size:100" json:"payment_reference"`
	EstimatedCompletionTime *int            `json:"estimated_completion_time"` // minutes from order time
	CompletedAt             *time.Time      `json:"completed_at"`
	Notes                   *string         `gorm:"type:text" json:"notes"`
	CustomerID              uint            `gorm:"not null;index:idx_orders_customer_created,priority:1" json:"customer_id"`
	Customer                *User           `gorm:"foreignKey:CustomerID;constraint:OnDelete:RESTRICT" json:"customer,omitempty"`
	StoreID                 uint            `gorm:"not null;index:idx_orders_store_status,priority:1" json:"store_id"`
	Store                   *Store          `json:"store,omitempty"`
	CashierID               *uint           `gorm:"index" json:"cashier_id"`
	Cashier                 *User           `gorm:"foreignKey:CashierID;constraint:OnDelete:SET NULL" json:"cashier,omitempty"`
	CreatedAt               time.Time       `gorm:"index;index:idx_orders_customer_created,priority:2" json:"created_at"`
	UpdatedAt               time.Time       `json:"updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

type OrderItem struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	OrderID             uint            `gorm:"not null;index" json:"order_id"`
	ProductID           uint            `gorm:"not null;index" json:"product_id"`
	Product             *Product        `gorm:"constraint:OnDelete:RESTRICT" json:"product,omitempty"`
	Quantity            int             `gorm:"not null" json:"quantity"`
	UnitPrice           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`  // price snapshot at order time
	TotalPrice          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_price"` // Quantity * UnitPrice
	SpecialInstructions *string         `gorm:"size:255" json:"special_instructions"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}
