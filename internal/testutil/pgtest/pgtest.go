//go:build integration

// Package pgtest starts a throwaway Postgres for repository tests.
package pgtest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"scanorder-backend/internal/config"
	"scanorder-backend/internal/database"
	"scanorder-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// Open starts a Postgres container, migrates the schema and returns a
// connection. The container is removed when the test ends.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	pg, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("scanorder"),
		postgres.WithUsername("scanorder"),
		postgres.WithPassword("scanorder"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pg.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres: %v", err)
		}
	})

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.Open(&config.Config{DatabaseDSN: dsn})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

// Seed inserts rows directly, bypassing services.
type Seed struct {
	t  *testing.T
	db *gorm.DB
	n  int
}

func NewSeed(t *testing.T, db *gorm.DB) *Seed {
	return &Seed{t: t, db: db}
}

func (s *Seed) User(role models.UserRole, storeID *uint) models.User {
	s.t.Helper()
	s.n++
	u := models.User{
		Name:         fmt.Sprintf("%s %d", role, s.n),
		Email:        fmt.Sprintf("%s%d@example.com", role, s.n),
		PasswordHash: "x",
		Role:         role,
		StoreID:      storeID,
	}
	require.NoError(s.t, s.db.Create(&u).Error)
	return u
}

func (s *Seed) Store(ownerID uint, code string, active bool) models.Store {
	s.t.Helper()
	st := models.Store{
		Name:        "Store " + code,
		Code:        code,
		OpeningTime: "08:00",
		ClosingTime: "22:00",
		IsActive:    active,
		OwnerID:     ownerID,
	}
	require.NoError(s.t, s.db.Omit("Owner").Create(&st).Error)
	return st
}

func (s *Seed) Category(storeID uint, name string, sortOrder int) models.Category {
	s.t.Helper()
	c := models.Category{StoreID: storeID, Name: name, SortOrder: sortOrder, IsActive: true}
	require.NoError(s.t, s.db.Create(&c).Error)
	return c
}

func (s *Seed) Product(cat models.Category, name, price string, sortOrder int) models.Product {
	s.t.Helper()
	p := models.Product{
		StoreID:         cat.StoreID,
		CategoryID:      cat.ID,
		Name:            name,
		Price:           decimal.RequireFromString(price),
		PreparationTime: 10,
		IsAvailable:     true,
		SortOrder:       sortOrder,
	}
	require.NoError(s.t, s.db.Omit("Category", "Store").Create(&p).Error)
	return p
}
