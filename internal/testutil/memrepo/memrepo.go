// Package memrepo is an in-memory stand-in for the gorm repositories. It
// reports the same gorm sentinel errors the postgres-backed repositories
// produce with TranslateError enabled.
package memrepo

import (
	"sort"
	"sync"
	"time"

	"scanorder-backend/internal/models"
)

type DB struct {
	mu sync.Mutex

	nextID    map[string]uint
	orderSeq  int64
	failNext  int
	now       func() time.Time
	users     map[uint]models.User
	stores    map[uint]models.Store
	cats      map[uint]models.Category
	products  map[uint]models.Product
	orders    map[uint]models.Order
	items     map[uint]models.OrderItem
	auditLogs []models.AuditLog
}

func New() *DB {
	return &DB{
		nextID:   map[string]uint{},
		now:      time.Now,
		users:    map[uint]models.User{},
		stores:   map[uint]models.Store{},
		cats:     map[uint]models.Category{},
		products: map[uint]models.Product{},
		orders:   map[uint]models.Order{},
		items:    map[uint]models.OrderItem{},
	}
}

// SetClock controls the timestamps given to new rows.
func (d *DB) SetClock(now func() time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.now = now
}

// SetOrderSequence makes the next allocated order number n+1.
func (d *DB) SetOrderSequence(n int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.orderSeq = n
}

// FailNextOrderCreates makes the next n order inserts fail with a
// duplicate key error.
func (d *DB) FailNextOrderCreates(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failNext = n
}

func (d *DB) id(table string) uint {
	d.nextID[table]++
	return d.nextID[table]
}

func (d *DB) stamp(created, updated *time.Time) {
	now := d.now()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

func sortedKeys[V any](m map[uint]V) []uint {
	keys := make([]uint, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func page[T any](rows []T, limit, offset int) []T {
	if limit <= 0 {
		return rows
	}
	if offset >= len(rows) {
		return []T{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
