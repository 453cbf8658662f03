package memrepo

import (
	"context"
	"fmt"
	"testing"

	"scanorder-backend/internal/audit"
	"scanorder-backend/internal/auth"
	"scanorder-backend/internal/catalog"
	"scanorder-backend/internal/identity"
	"scanorder-backend/internal/models"
	"scanorder-backend/internal/order"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	_ catalog.Repository  = (*DB)(nil)
	_ auth.UserRepository = (*DB)(nil)
	_ auth.StoreLookup    = (*DB)(nil)
	_ audit.Repository    = (*DB)(nil)
	_ order.Catalog       = (*DB)(nil)
	_ order.Repository    = (*OrderRepo)(nil)
)

func (d *DB) User(t testing.TB, role models.UserRole, storeID *uint) models.User {
	t.Helper()
	d.mu.Lock()
	n := len(d.users) + 1
	d.mu.Unlock()
	u := models.User{
		Name:         fmt.Sprintf("%s %d", role, n),
		Email:        fmt.Sprintf("%s%d@example.com", role, n),
		PasswordHash: "x",
		Role:         role,
		StoreID:      storeID,
	}
	require.NoError(t, d.CreateUser(context.Background(), &u))
	return u
}

func (d *DB) Store(t testing.TB, ownerID uint, code string, active bool) models.Store {
	t.Helper()
	s := models.Store{
		Name:        "Store " + code,
		Code:        code,
		OpeningTime: "08:00",
		ClosingTime: "22:00",
		IsActive:    active,
		OwnerID:     ownerID,
	}
	require.NoError(t, d.CreateStore(context.Background(), &s))
	return s
}

func (d *DB) Category(t testing.TB, storeID uint, name string, sortOrder int, active bool) models.Category {
	t.Helper()
	c := models.Category{StoreID: storeID, Name: name, SortOrder: sortOrder, IsActive: active}
	require.NoError(t, d.CreateCategory(context.Background(), &c))
	return c
}

func (d *DB) Product(t testing.TB, cat models.Category, name, price string, sortOrder int, available bool) models.Product {
	t.Helper()
	p := models.Product{
		StoreID:         cat.StoreID,
		CategoryID:      cat.ID,
		Name:            name,
		Price:           decimal.RequireFromString(price),
		PreparationTime: 10,
		IsAvailable:     available,
		SortOrder:       sortOrder,
	}
	require.NoError(t, d.CreateProduct(context.Background(), &p))
	return p
}

// Actor builds the request actor for a stored user the way the auth
// middleware resolves it.
func (d *DB) Actor(t testing.TB, u models.User) identity.Actor {
	t.Helper()
	a := identity.Actor{ID: u.ID, Name: u.Name, Role: u.Role, StoreID: u.StoreID}
	if u.Role == models.RoleStoreOwner {
		ids, err := d.OwnedStoreIDs(context.Background(), u.ID)
		require.NoError(t, err)
		a.OwnedStoreIDs = ids
	}
	return a
}
