//go:build integration

package order_test

import (
	"context"
	"testing"
	"time"

	"scanorder-backend/internal/audit"
	"scanorder-backend/internal/catalog"
	"scanorder-backend/internal/identity"
	"scanorder-backend/internal/models"
	"scanorder-backend/internal/order"
	"scanorder-backend/internal/paging"
	"scanorder-backend/internal/testutil/pgtest"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func TestGormOrderLifecycle(t *testing.T) {
	ctx := context.Background()
	db := pgtest.Open(t)
	seed := pgtest.NewSeed(t, db)

	ownerUser := seed.User(models.RoleStoreOwner, nil)
	store := seed.Store(ownerUser.ID, "PG01", true)
	cat := seed.Category(store.ID, "Mains", 1)
	burger := seed.Product(cat, "Burger", "8.50", 1)
	fries := seed.Product(cat, "Fries", "3.25", 2)
	customerUser := seed.User(models.RoleCustomer, nil)
	cashierUser := seed.User(models.RoleCashier, &store.ID)

	owner := identity.Actor{ID: ownerUser.ID, Role: models.RoleStoreOwner, OwnedStoreIDs: []uint{store.ID}}
	customer := identity.Actor{ID: customerUser.ID, Role: models.RoleCustomer}
	cashier := identity.Actor{ID: cashierUser.ID, Role: models.RoleCashier, StoreID: &store.ID}

	repo := order.NewGormRepository(db)
	auditRepo := audit.NewGormRepository(db)
	engine := order.NewEngine(repo, catalog.NewGormRepository(db), audit.NewService(auditRepo, nil, zerolog.Nop()), zerolog.Nop())

	o, err := engine.Create(ctx, customer, order.CreateInput{
		StoreID: store.ID,
		Items: []order.ItemInput{
			{ProductID: burger.ID, Quantity: 2},
			{ProductID: fries.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "ORD-0001", o.OrderNumber)
	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("20.25")))

	loaded, err := engine.Get(ctx, cashier, o.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 2)
	assert.NotNil(t, loaded.Items[0].Product)
	assert.NotNil(t, loaded.Customer)

	paid := string(models.PaymentStatusPaid)
	_, err = engine.Transition(ctx, cashier, o.ID, order.TransitionInput{Status: "confirmed"})
	require.NoError(t, err)
	done, err := engine.Transition(ctx, owner, o.ID, order.TransitionInput{Status: "completed", PaymentStatus: &paid})
	require.NoError(t, err)

	reloaded, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.CashierID)
	assert.Equal(t, cashier.ID, *reloaded.CashierID)
	require.NotNil(t, reloaded.CompletedAt)
	assert.WithinDuration(t, *done.CompletedAt, *reloaded.CompletedAt, time.Millisecond)
	assert.Equal(t, models.PaymentStatusPaid, reloaded.PaymentStatus)

	logs, total, err := auditRepo.ListAuditLogs(ctx, audit.Filter{StoreIDs: []uint{store.ID}, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, logs, 3)

	require.NoError(t, engine.Delete(ctx, owner, o.ID))
	_, err = repo.FindByID(ctx, o.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	var items int64
	require.NoError(t, db.Model(&models.OrderItem{}).Where("order_id = ?", o.ID).Count(&items).Error)
	assert.Zero(t, items)
}

func TestGormOrderNumbersUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	db := pgtest.Open(t)
	seed := pgtest.NewSeed(t, db)

	ownerUser := seed.User(models.RoleStoreOwner, nil)
	store := seed.Store(ownerUser.ID, "PG02", true)
	burger := seed.Product(seed.Category(store.ID, "Mains", 1), "Burger", "5.00", 1)
	customer := identity.Actor{ID: seed.User(models.RoleCustomer, nil).ID, Role: models.RoleCustomer}

	engine := order.NewEngine(order.NewGormRepository(db), catalog.NewGormRepository(db), nil, zerolog.Nop())

	const n = 20
	numbers := make([]string, n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			o, err := engine.Create(ctx, customer, order.CreateInput{
				StoreID: store.ID,
				Items:   []order.ItemInput{{ProductID: burger.ID, Quantity: 1}},
			})
			if err != nil {
				return err
			}
			numbers[i] = o.OrderNumber
			return nil
		})
	}
	require.NoError(t, g.Wait())

	seen := map[string]bool{}
	for _, num := range numbers {
		assert.False(t, seen[num], "duplicate %s", num)
		seen[num] = true
	}
	assert.Len(t, seen, n)
}

func TestGormOrderQueries(t *testing.T) {
	ctx := context.Background()
	db := pgtest.Open(t)
	seed := pgtest.NewSeed(t, db)

	ownerUser := seed.User(models.RoleStoreOwner, nil)
	store := seed.Store(ownerUser.ID, "PG03", true)
	other := seed.Store(ownerUser.ID, "PG04", true)
	customerUser := seed.User(models.RoleCustomer, nil)

	repo := order.NewGormRepository(db)
	day := time.Date(2026, 3, 18, 0, 0, 0, 0, time.Local)
	insert := func(storeID uint, status models.OrderStatus, payment models.PaymentStatus, total string, at time.Time) {
		t.Helper()
		n, err := repo.NextOrderNumber(ctx)
		require.NoError(t, err)
		o := &models.Order{
			OrderNumber:   order.FormatOrderNumber(n),
			TotalAmount:   decimal.RequireFromString(total),
			Status:        status,
			PaymentStatus: payment,
			CustomerID:    customerUser.ID,
			StoreID:       storeID,
			CreatedAt:     at,
		}
		require.NoError(t, repo.Create(ctx, o))
	}
	insert(store.ID, models.OrderStatusCompleted, models.PaymentStatusPaid, "10.00", day.Add(12*time.Hour))
	insert(store.ID, models.OrderStatusPending, models.PaymentStatusPending, "5.50", day.Add(13*time.Hour))
	insert(store.ID, models.OrderStatusCancelled, models.PaymentStatusPending, "7.00", day.Add(-2*time.Hour))
	insert(other.ID, models.OrderStatusReady, models.PaymentStatusPaid, "99.00", day.Add(10*time.Hour))

	from, to := day, day.AddDate(0, 0, 1)
	scope := identity.Scope{StoreIDs: []uint{store.ID}}

	count, err := repo.Count(ctx, order.Query{Scope: scope, CreatedFrom: &from, CreatedTo: &to})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	sum, err := repo.SumTotal(ctx, order.Query{Scope: scope, CreatedFrom: &from, CreatedTo: &to})
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.RequireFromString("15.50")), sum.String())

	pending, err := repo.List(ctx, order.Query{Scope: scope, Statuses: []models.OrderStatus{models.OrderStatusPending}})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.True(t, pending[0].TotalAmount.Equal(decimal.RequireFromString("5.50")))

	empty, err := repo.List(ctx, order.Query{})
	require.NoError(t, err)
	assert.Empty(t, empty)

	start := day.AddDate(0, 0, -1)
	totals, err := repo.DailyTotals(ctx, order.Query{
		Scope:       scope,
		Statuses:    []models.OrderStatus{models.OrderStatusPending, models.OrderStatusCompleted},
		CreatedFrom: &start,
		CreatedTo:   &to,
	})
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.EqualValues(t, 2, totals[0].Orders)
	assert.True(t, totals[0].Revenue.Equal(decimal.RequireFromString("15.50")))
	assert.True(t, totals[0].Paid.Equal(decimal.RequireFromString("10.00")))

	engine := order.NewEngine(repo, catalog.NewGormRepository(db), nil, zerolog.Nop())
	owner := identity.Actor{ID: ownerUser.ID, Role: models.RoleStoreOwner, OwnedStoreIDs: []uint{store.ID, other.ID}}
	page, err := engine.List(ctx, owner, order.ListFilter{}, paging.Params{Page: 1, PerPage: 3})
	require.NoError(t, err)
	assert.EqualValues(t, 4, page.Total)
	assert.Len(t, page.Data, 3)
	assert.Equal(t, 2, page.LastPage)
}
