package memrepo

import (
	"context"
	"sort"

	"scanorder-backend/internal/models"

	"gorm.io/gorm"
)

func (d *DB) CreateUser(_ context.Context, u *models.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, existing := range d.users {
		if existing.Email == u.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if u.StoreID != nil {
		if _, ok := d.stores[*u.StoreID]; !ok {
			return gorm.ErrForeignKeyViolated
		}
	}
	u.ID = d.id("users")
	d.stamp(&u.CreatedAt, &u.UpdatedAt)
	d.users[u.ID] = *u
	return nil
}

func (d *DB) FindUser(_ context.Context, id uint) (*models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (d *DB) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (d *DB) ListCashiers(_ context.Context, storeID uint) ([]models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []models.User
	for _, id := range sortedKeys(d.users) {
		u := d.users[id]
		if u.Role == models.RoleCashier && u.StoreID != nil && *u.StoreID == storeID {
			out = append(out, u)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
