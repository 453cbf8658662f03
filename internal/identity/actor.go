// Package identity holds the authenticated caller and the pure authorization
// predicates shared by the order engine, catalog and dashboards.
package identity

import (
	"slices"

	"scanorder-backend/internal/models"
)

// Actor is the already-authenticated caller. It is passed explicitly into
// every core operation.
type Actor struct {
	ID            uint
	Name          string
	Role          models.UserRole
	StoreID       *uint  // cashier only
	OwnedStoreIDs []uint // store_owner only
}

func ValidRole(r models.UserRole) bool {
	switch r {
	case models.RoleCustomer, models.RoleStoreOwner, models.RoleCashier:
		return true
	}
	return false
}

func (a Actor) IsCustomer() bool   { return a.Role == models.RoleCustomer }
func (a Actor) IsStoreOwner() bool { return a.Role == models.RoleStoreOwner }
func (a Actor) IsCashier() bool    { return a.Role == models.RoleCashier }

// OwnsStore is true only for store owners owning storeID.
func (a Actor) OwnsStore(storeID uint) bool {
	return a.IsStoreOwner() && slices.Contains(a.OwnedStoreIDs, storeID)
}

// WorksAt is true only for cashiers assigned to storeID.
func (a Actor) WorksAt(storeID uint) bool {
	return a.IsCashier() && a.StoreID != nil && *a.StoreID == storeID
}

func (a Actor) CanCreateOrder() bool {
	return a.IsCustomer()
}

// CanManageOrder gates status transitions and deletion.
func (a Actor) CanManageOrder(o *models.Order) bool {
	return a.WorksAt(o.StoreID) || a.OwnsStore(o.StoreID)
}

func (a Actor) CanViewOrder(o *models.Order) bool {
	if a.IsCustomer() {
		return o.CustomerID == a.ID
	}
	return a.CanManageOrder(o)
}

// CanManageStore gates store updates, deletion, categories and cashier accounts.
func (a Actor) CanManageStore(storeID uint) bool {
	return a.OwnsStore(storeID)
}

// CanManageProducts: the store's owner or one of its cashiers.
func (a Actor) CanManageProducts(storeID uint) bool {
	return a.OwnsStore(storeID) || a.WorksAt(storeID)
}

// Scope is the set of orders an actor may see. The zero value matches nothing.
type Scope struct {
	CustomerID *uint
	StoreIDs   []uint
}

func (s Scope) Empty() bool {
	return s.CustomerID == nil && len(s.StoreIDs) == 0
}

func (s Scope) Matches(o *models.Order) bool {
	if s.CustomerID != nil {
		return o.CustomerID == *s.CustomerID
	}
	return slices.Contains(s.StoreIDs, o.StoreID)
}

// OrderScope derives the visibility boundary for list queries.
func OrderScope(a Actor) Scope {
	switch a.Role {
	case models.RoleCustomer:
		id := a.ID
		return Scope{CustomerID: &id}
	case models.RoleCashier:
		if a.StoreID != nil {
			return Scope{StoreIDs: []uint{*a.StoreID}}
		}
	case models.RoleStoreOwner:
		if len(a.OwnedStoreIDs) > 0 {
			return Scope{StoreIDs: slices.Clone(a.OwnedStoreIDs)}
		}
	}
	return Scope{}
}
