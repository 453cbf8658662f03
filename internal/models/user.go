package models

import "time"

type UserRole string

const (
	RoleCustomer   UserRole = "customer"
	RoleStoreOwner UserRole = "store_owner"
	RoleCashier    UserRole = "cashier"
)

// User has exactly one role. StoreID is required for cashiers.
// The users.store_id -> stores.id foreign key is added by the database package
// because users and stores reference each other.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	StoreID      *uint     `gorm:"index:idx_users_role_store,priority:2" json:"store_id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Email        string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         UserRole  `gorm:"size:20;not null;default:customer;index;index:idx_users_role_store,priority:1" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
