package scan_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"scanorder-backend/internal/apperr"
	"scanorder-backend/internal/models"
	"scanorder-backend/internal/scan"
	"scanorder-backend/internal/testutil"
	"scanorder-backend/internal/testutil/memrepo"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	mu      sync.Mutex
	entries map[string]*models.Store
	hits    int
	fail    bool
}

func newMapCache() *mapCache { return &mapCache{entries: map[string]*models.Store{}} }

func (c *mapCache) Get(_ context.Context, code string) (*models.Store, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return nil, false, errors.New("cache down")
	}
	m, ok := c.entries[code]
	if ok {
		c.hits++
	}
	return m, ok, nil
}

func (c *mapCache) Set(_ context.Context, code string, m *models.Store) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("cache down")
	}
	c.entries[code] = m
	return nil
}

func (c *mapCache) Delete(_ context.Context, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, code)
	return nil
}

func seedMenu(t *testing.T) *memrepo.DB {
	db := memrepo.New()
	owner := db.User(t, models.RoleStoreOwner, nil)
	store := db.Store(t, owner.ID, "PIZZA01", true)
	db.Store(t, owner.ID, "CLOSED01", false)

	drinks := db.Category(t, store.ID, "Drinks", 2, true)
	pizzas := db.Category(t, store.ID, "Pizzas", 1, true)
	hidden := db.Category(t, store.ID, "Secret", 0, false)

	db.Product(t, pizzas, "Pepperoni", "12.00", 2, true)
	db.Product(t, pizzas, "Margherita", "10.00", 1, true)
	db.Product(t, pizzas, "Sold out", "9.00", 0, false)
	db.Product(t, drinks, "Cola", "2.50", 1, true)
	db.Product(t, hidden, "Off menu", "1.00", 1, true)
	return db
}

func TestResolveStoreCodeBuildsMenu(t *testing.T) {
	g := scan.NewGateway(seedMenu(t), nil, zerolog.Nop())

	menu, err := g.ResolveStoreCode(context.Background(), "  PIZZA01 ")
	require.NoError(t, err)
	assert.Equal(t, "PIZZA01", menu.Code)

	require.Len(t, menu.Categories, 2)
	assert.Equal(t, "Pizzas", menu.Categories[0].Name)
	assert.Equal(t, "Drinks", menu.Categories[1].Name)

	pizzas := menu.Categories[0].Products
	require.Len(t, pizzas, 2)
	assert.Equal(t, "Margherita", pizzas[0].Name)
	assert.Equal(t, "Pepperoni", pizzas[1].Name)
}

func TestResolveStoreCodeRejections(t *testing.T) {
	g := scan.NewGateway(seedMenu(t), nil, zerolog.Nop())
	ctx := context.Background()

	_, err := g.ResolveStoreCode(ctx, "   ")
	assert.True(t, apperr.IsValidation(err))

	for _, code := range []string{"NOPE", "CLOSED01", "pizza01"} {
		_, err := g.ResolveStoreCode(ctx, code)
		require.Error(t, err, code)
		assert.True(t, apperr.IsNotFound(err), code)
		assert.Contains(t, err.Error(), "Store not found or is currently closed.")
	}
}

func TestResolveStoreCodeUsesCache(t *testing.T) {
	db := seedMenu(t)
	cache := newMapCache()
	g := scan.NewGateway(db, cache, zerolog.Nop())
	ctx := context.Background()

	first, err := g.ResolveStoreCode(ctx, "PIZZA01")
	require.NoError(t, err)

	second, err := g.ResolveStoreCode(ctx, "PIZZA01")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)
	assert.Same(t, first, second)

	require.NoError(t, cache.Delete(ctx, "PIZZA01"))
	_, err = g.ResolveStoreCode(ctx, "PIZZA01")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)

	_, err = g.ResolveStoreCode(ctx, "CLOSED01")
	require.Error(t, err)
	assert.NotContains(t, cache.entries, "CLOSED01")
}

func TestResolveStoreCodeSurvivesCacheFailure(t *testing.T) {
	cache := newMapCache()
	cache.fail = true
	g := scan.NewGateway(seedMenu(t), cache, zerolog.Nop())

	menu, err := g.ResolveStoreCode(context.Background(), "PIZZA01")
	require.NoError(t, err)
	assert.Len(t, menu.Categories, 2)
}

func TestScanHandlers(t *testing.T) {
	g := scan.NewGateway(seedMenu(t), nil, zerolog.Nop())
	app := testutil.App(nil)
	app.Post("/api/scan", scan.ScanHandler(g))
	app.Get("/api/scan/:code", scan.LookupHandler(g))

	status, body := testutil.Do(t, app, http.MethodPost, "/api/scan", fiber.Map{"store_code": "PIZZA01"})
	require.Equal(t, http.StatusOK, status, body)
	store := body["store"].(map[string]any)
	assert.Equal(t, "PIZZA01", store["code"])

	status, body = testutil.Do(t, app, http.MethodPost, "/api/scan", fiber.Map{})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body["fields"], "store_code")

	status, body = testutil.Do(t, app, http.MethodGet, "/api/scan/CLOSED01", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Store not found or is currently closed.", body["error"])
}
