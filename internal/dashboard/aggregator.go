package dashboard

import (
	"context"
	"time"

	"scanorder-backend/internal/catalog"
	"scanorder-backend/internal/identity"
	"scanorder-backend/internal/models"
	"scanorder-backend/internal/order"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	customerRecentLimit = 5
	todayListLimit      = 10
)

// Orders is the read side of the order repository.
type Orders interface {
	List(ctx context.Context, q order.Query) ([]models.Order, error)
	Count(ctx context.Context, q order.Query) (int64, error)
	SumTotal(ctx context.Context, q order.Query) (decimal.Decimal, error)
	DailyTotals(ctx context.Context, q order.Query) ([]order.DayTotal, error)
}

type Stores interface {
	ListStores(ctx context.Context, f catalog.StoreFilter) ([]models.Store, int64, error)
	LoadStoreDetail(ctx context.Context, id uint) (*models.Store, error)
}

type Aggregator struct {
	orders Orders
	stores Stores
	now    func() time.Time
	logger zerolog.Logger
}

func NewAggregator(orders Orders, stores Stores, logger zerolog.Logger) *Aggregator {
	return &Aggregator{orders: orders, stores: stores, now: time.Now, logger: logger}
}

// WithClock replaces the clock used to find "today".
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	cp := *a
	cp.now = now
	return &cp
}

// today returns server-local midnight and the following midnight.
func (a *Aggregator) today() (time.Time, time.Time) {
	now := a.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 1)
}

// ----------------------------------------
// READ MODELS
// ----------------------------------------

type CustomerStats struct {
	TotalOrders     int64 `json:"total_orders"`
	ActiveOrders    int64 `json:"active_orders"`
	CompletedOrders int64 `json:"completed_orders"`
}

type CustomerDashboard struct {
	Role         models.UserRole `json:"role"`
	Stats        CustomerStats   `json:"stats"`
	RecentOrders []models.Order  `json:"recent_orders"`
	ActiveOrders []models.Order  `json:"active_orders"`
}

type OwnerStats struct {
	TotalStores   int64           `json:"total_stores"`
	TotalOrders   int64           `json:"total_orders"`
	TodayOrders   int64           `json:"today_orders"`
	PendingOrders int64           `json:"pending_orders"`
	TodayRevenue  decimal.Decimal `json:"today_revenue"`
}

// StoreOrders is a store with every order placed at it.
type StoreOrders struct {
	models.Store
	Orders []models.Order `json:"orders"`
}

type OwnerDashboard struct {
	Role          models.UserRole `json:"role"`
	Stats         OwnerStats      `json:"stats"`
	Stores        []StoreOrders   `json:"stores"`
	TodayOrders   []models.Order  `json:"today_orders"`
	PendingOrders []models.Order  `json:"pending_orders"`
}

type CashierStats struct {
	TodayOrders    int64           `json:"today_orders"`
	QueueOrders    int64           `json:"queue_orders"`
	CompletedToday int64           `json:"completed_today"`
	TodayRevenue   decimal.Decimal `json:"today_revenue"`
}

type CashierDashboard struct {
	Role         models.UserRole `json:"role"`
	Stats        CashierStats    `json:"stats"`
	Store        *models.Store   `json:"store"`
	QueueOrders  []models.Order  `json:"queue_orders"`
	RecentOrders []models.Order  `json:"recent_orders"`
}

// Unassigned is what a cashier without a store sees.
type Unassigned struct {
	Role  models.UserRole `json:"role"`
	Error string          `json:"error"`
}

type Empty struct {
	Role models.UserRole `json:"role"`
}

func nonNil(orders []models.Order) []models.Order {
	if orders == nil {
		return []models.Order{}
	}
	return orders
}

// ----------------------------------------
// BUILD
// ----------------------------------------

// Build returns the read model for the actor's role.
func (a *Aggregator) Build(ctx context.Context, actor identity.Actor) (any, error) {
	switch {
	case actor.IsCustomer():
		return a.Customer(ctx, actor)
	case actor.IsStoreOwner():
		return a.Owner(ctx, actor)
	case actor.IsCashier():
		if actor.StoreID == nil {
			return Unassigned{Role: models.RoleCashier, Error: "No store assigned"}, nil
		}
		return a.Cashier(ctx, actor)
	default:
		return Empty{Role: actor.Role}, nil
	}
}

func (a *Aggregator) Customer(ctx context.Context, actor identity.Actor) (*CustomerDashboard, error) {
	scope := identity.OrderScope(actor)
	d := &CustomerDashboard{Role: models.RoleCustomer}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Stats.TotalOrders, err = a.orders.Count(ctx, order.Query{Scope: scope})
		return err
	})
	g.Go(func() (err error) {
		d.Stats.CompletedOrders, err = a.orders.Count(ctx, order.Query{
			Scope:    scope,
			Statuses: []models.OrderStatus{models.OrderStatusCompleted},
		})
		return err
	})
	g.Go(func() (err error) {
		d.RecentOrders, err = a.orders.List(ctx, order.Query{Scope: scope, Limit: customerRecentLimit})
		return err
	})
	g.Go(func() (err error) {
		d.ActiveOrders, err = a.orders.List(ctx, order.Query{Scope: scope, Statuses: models.ActiveOrderStatuses})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.Stats.ActiveOrders = int64(len(d.ActiveOrders))
	d.RecentOrders = nonNil(d.RecentOrders)
	d.ActiveOrders = nonNil(d.ActiveOrders)
	return d, nil
}

func (a *Aggregator) Owner(ctx context.Context, actor identity.Actor) (*OwnerDashboard, error) {
	ownerID := actor.ID
	stores, total, err := a.stores.ListStores(ctx, catalog.StoreFilter{OwnerID: &ownerID})
	if err != nil {
		return nil, err
	}

	scope := identity.OrderScope(actor)
	from, to := a.today()
	today := order.Query{Scope: scope, CreatedFrom: &from, CreatedTo: &to}
	pending := order.Query{Scope: scope, Statuses: []models.OrderStatus{models.OrderStatusPending}}

	d := &OwnerDashboard{
		Role:   models.RoleStoreOwner,
		Stats:  OwnerStats{TotalStores: total},
		Stores: make([]StoreOrders, len(stores)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Stats.TotalOrders, err = a.orders.Count(gctx, order.Query{Scope: scope})
		return err
	})
	g.Go(func() (err error) {
		d.Stats.TodayOrders, err = a.orders.Count(gctx, today)
		return err
	})
	g.Go(func() (err error) {
		d.Stats.TodayRevenue, err = a.orders.SumTotal(gctx, today)
		return err
	})
	g.Go(func() error {
		q := today
		q.Limit = todayListLimit
		orders, err := a.orders.List(gctx, q)
		d.TodayOrders = nonNil(orders)
		return err
	})
	g.Go(func() error {
		orders, err := a.orders.List(gctx, pending)
		d.PendingOrders = nonNil(orders)
		d.Stats.PendingOrders = int64(len(orders))
		return err
	})
	for i := range stores {
		g.Go(func() error {
			orders, err := a.orders.List(gctx, order.Query{Scope: identity.Scope{StoreIDs: []uint{stores[i].ID}}})
			d.Stores[i] = StoreOrders{Store: stores[i], Orders: nonNil(orders)}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

func (a *Aggregator) Cashier(ctx context.Context, actor identity.Actor) (*CashierDashboard, error) {
	scope := identity.OrderScope(actor)
	from, to := a.today()
	today := order.Query{Scope: scope, CreatedFrom: &from, CreatedTo: &to}
	d := &CashierDashboard{Role: models.RoleCashier}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Store, err = a.stores.LoadStoreDetail(gctx, *actor.StoreID)
		return err
	})
	g.Go(func() (err error) {
		d.Stats.TodayOrders, err = a.orders.Count(gctx, today)
		return err
	})
	g.Go(func() (err error) {
		q := today
		q.Statuses = []models.OrderStatus{models.OrderStatusCompleted}
		d.Stats.CompletedToday, err = a.orders.Count(gctx, q)
		return err
	})
	g.Go(func() (err error) {
		d.Stats.TodayRevenue, err = a.orders.SumTotal(gctx, today)
		return err
	})
	g.Go(func() error {
		q := today
		q.Limit = todayListLimit
		orders, err := a.orders.List(gctx, q)
		d.RecentOrders = nonNil(orders)
		return err
	})
	g.Go(func() error {
		orders, err := a.orders.List(gctx, order.Query{
			Scope:       scope,
			Statuses:    models.QueueOrderStatuses,
			OldestFirst: true,
		})
		d.QueueOrders = nonNil(orders)
		d.Stats.QueueOrders = int64(len(orders))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}
