package dashboard_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"scanorder-backend/internal/apperr"
	"scanorder-backend/internal/dashboard"
	"scanorder-backend/internal/identity"
	"scanorder-backend/internal/models"
	"scanorder-backend/internal/testutil"
	"scanorder-backend/internal/testutil/memrepo"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type DashboardTestSuite struct {
	suite.Suite
	ctx context.Context
	db  *memrepo.DB
	agg *dashboard.Aggregator
	now time.Time

	owner, customer, cashier, idleCashier identity.Actor
	store, second                         models.Store
}

func TestDashboardSuite(t *testing.T) {
	suite.Run(t, new(DashboardTestSuite))
}

func (s *DashboardTestSuite) SetupTest() {
	t := s.T()
	s.ctx = context.Background()
	s.db = memrepo.New()
	// a Wednesday
	s.now = time.Date(2026, 3, 18, 15, 0, 0, 0, time.Local)

	ownerUser := s.db.User(t, models.RoleStoreOwner, nil)
	s.store = s.db.Store(t, ownerUser.ID, "MAIN01", true)
	s.second = s.db.Store(t, ownerUser.ID, "SIDE01", true)
	s.owner = s.db.Actor(t, ownerUser)
	s.customer = s.db.Actor(t, s.db.User(t, models.RoleCustomer, nil))
	s.cashier = s.db.Actor(t, s.db.User(t, models.RoleCashier, &s.store.ID))
	s.idleCashier = s.db.Actor(t, s.db.User(t, models.RoleCashier, nil))

	cat := s.db.Category(t, s.store.ID, "Food", 1, true)
	s.db.Product(t, cat, "Soup", "6.00", 1, true)

	s.agg = dashboard.NewAggregator(s.db.Orders(), s.db, zerolog.Nop()).
		WithClock(func() time.Time { return s.now })
}

func (s *DashboardTestSuite) seed(store models.Store, status models.OrderStatus, total string, at time.Time) models.Order {
	o := models.Order{
		TotalAmount:   decimal.RequireFromString(total),
		Status:        status,
		PaymentStatus: models.PaymentStatusPending,
		CustomerID:    s.customer.ID,
		StoreID:       store.ID,
		CreatedAt:     at,
	}
	if status == models.OrderStatusCompleted {
		o.PaymentStatus = models.PaymentStatusPaid
	}
	s.db.InsertOrder(&o)
	return o
}

func (s *DashboardTestSuite) seedDay() {
	yesterday := s.now.AddDate(0, 0, -1)
	s.seed(s.store, models.OrderStatusPending, "10.00", s.now.Add(-3*time.Hour))
	s.seed(s.store, models.OrderStatusPreparing, "5.50", s.now.Add(-2*time.Hour))
	s.seed(s.store, models.OrderStatusCompleted, "20.00", s.now.Add(-time.Hour))
	s.seed(s.store, models.OrderStatusReady, "7.00", s.now.Add(-30*time.Minute))
	s.seed(s.store, models.OrderStatusPending, "4.00", yesterday)
	s.seed(s.second, models.OrderStatusCancelled, "3.00", s.now.Add(-10*time.Minute))
}

func (s *DashboardTestSuite) TestCustomerDashboard() {
	s.seedDay()
	d, err := s.agg.Customer(s.ctx, s.customer)
	s.Require().NoError(err)

	s.EqualValues(6, d.Stats.TotalOrders)
	s.EqualValues(4, d.Stats.ActiveOrders)
	s.EqualValues(1, d.Stats.CompletedOrders)
	s.Len(d.RecentOrders, 5)
	s.Len(d.ActiveOrders, 4)
	s.True(d.RecentOrders[0].CreatedAt.After(d.RecentOrders[1].CreatedAt))
}

func (s *DashboardTestSuite) TestOwnerDashboard() {
	s.seedDay()
	d, err := s.agg.Owner(s.ctx, s.owner)
	s.Require().NoError(err)

	s.EqualValues(2, d.Stats.TotalStores)
	s.EqualValues(6, d.Stats.TotalOrders)
	s.EqualValues(5, d.Stats.TodayOrders)
	s.EqualValues(2, d.Stats.PendingOrders)
	s.True(d.Stats.TodayRevenue.Equal(decimal.RequireFromString("45.50")), d.Stats.TodayRevenue.String())

	s.Len(d.TodayOrders, 5)
	s.Len(d.PendingOrders, 2)
	s.Require().Len(d.Stores, 2)
	byCode := map[string]int{}
	for _, st := range d.Stores {
		byCode[st.Code] = len(st.Orders)
	}
	s.Equal(map[string]int{"MAIN01": 5, "SIDE01": 1}, byCode)
}

func (s *DashboardTestSuite) TestOwnerTodayListIsCapped() {
	for i := 0; i < 12; i++ {
		s.seed(s.store, models.OrderStatusPending, "1.00", s.now.Add(-time.Duration(i+1)*time.Minute))
	}
	d, err := s.agg.Owner(s.ctx, s.owner)
	s.Require().NoError(err)
	s.EqualValues(12, d.Stats.TodayOrders)
	s.Len(d.TodayOrders, 10)
	s.Len(d.PendingOrders, 12)
}

func (s *DashboardTestSuite) TestCashierDashboard() {
	s.seedDay()
	d, err := s.agg.Cashier(s.ctx, s.cashier)
	s.Require().NoError(err)

	s.EqualValues(4, d.Stats.TodayOrders)
	s.EqualValues(1, d.Stats.CompletedToday)
	s.EqualValues(3, d.Stats.QueueOrders)
	s.True(d.Stats.TodayRevenue.Equal(decimal.RequireFromString("42.50")))

	s.Require().Len(d.QueueOrders, 3)
	s.Equal(models.OrderStatusPending, d.QueueOrders[0].Status)
	s.True(d.QueueOrders[0].CreatedAt.Before(d.QueueOrders[1].CreatedAt))
	s.Len(d.RecentOrders, 4)

	s.Require().NotNil(d.Store)
	s.Equal("MAIN01", d.Store.Code)
	s.Require().Len(d.Store.Categories, 1)
	s.Len(d.Store.Categories[0].Products, 1)
}

func (s *DashboardTestSuite) TestTodayStartsAtLocalMidnight() {
	midnight := time.Date(2026, 3, 18, 0, 0, 0, 0, time.Local)
	s.seed(s.store, models.OrderStatusPending, "1.00", midnight)
	s.seed(s.store, models.OrderStatusPending, "1.00", midnight.Add(-time.Nanosecond))

	d, err := s.agg.Cashier(s.ctx, s.cashier)
	s.Require().NoError(err)
	s.EqualValues(1, d.Stats.TodayOrders)
	s.EqualValues(2, d.Stats.QueueOrders)
}

func (s *DashboardTestSuite) TestBuildDispatchesOnRole() {
	got, err := s.agg.Build(s.ctx, s.idleCashier)
	s.Require().NoError(err)
	s.Equal(dashboard.Unassigned{Role: models.RoleCashier, Error: "No store assigned"}, got)

	got, err = s.agg.Build(s.ctx, s.customer)
	s.Require().NoError(err)
	s.IsType(&dashboard.CustomerDashboard{}, got)

	got, err = s.agg.Build(s.ctx, identity.Actor{ID: 99, Role: "auditor"})
	s.Require().NoError(err)
	s.IsType(dashboard.Empty{}, got)
}

func (s *DashboardTestSuite) TestEmptyListsRenderAsArrays() {
	d, err := s.agg.Cashier(s.ctx, s.cashier)
	s.Require().NoError(err)
	raw, err := json.Marshal(d)
	s.Require().NoError(err)
	s.Contains(string(raw), `"queue_orders":[]`)
	s.Contains(string(raw), `"recent_orders":[]`)
}

// ----------------------------------------
// REVENUE CHART
// ----------------------------------------

func (s *DashboardTestSuite) TestDailyRevenueChart() {
	s.seedDay()
	s.seed(s.store, models.OrderStatusCompleted, "8.00", s.now.AddDate(0, 0, -6))
	s.seed(s.store, models.OrderStatusCompleted, "99.00", s.now.AddDate(0, 0, -7))

	chart, err := s.agg.RevenueChart(s.ctx, s.owner, dashboard.ChartRequest{})
	s.Require().NoError(err)

	s.Equal(dashboard.PeriodDaily, chart.Period)
	s.Equal("2026-03-12", chart.From)
	s.Equal("2026-03-18", chart.To)
	s.Require().Len(chart.Points, 7)

	first, yesterday, today := chart.Points[0], chart.Points[5], chart.Points[6]
	s.Equal("2026-03-12", first.Label)
	s.EqualValues(1, first.Orders)
	s.True(first.Paid.Equal(decimal.RequireFromString("8")))
	s.EqualValues(1, yesterday.Orders)
	s.EqualValues(4, today.Orders)
	s.True(today.Revenue.Equal(decimal.RequireFromString("42.50")), today.Revenue.String())
	s.True(today.Paid.Equal(decimal.RequireFromString("20")))

	s.EqualValues(6, chart.GrandTotals.Orders)
	s.True(chart.GrandTotals.Revenue.Equal(decimal.RequireFromString("54.50")))
}

func (s *DashboardTestSuite) TestWeeklyAndMonthlyBuckets() {
	s.seed(s.store, models.OrderStatusCompleted, "2.00", s.now)                                          // Wed 18th
	s.seed(s.store, models.OrderStatusCompleted, "3.00", time.Date(2026, 3, 16, 9, 0, 0, 0, time.Local)) // Mon 16th
	s.seed(s.store, models.OrderStatusCompleted, "4.00", time.Date(2026, 3, 15, 9, 0, 0, 0, time.Local)) // Sun 15th
	s.seed(s.store, models.OrderStatusCompleted, "5.00", time.Date(2026, 2, 10, 9, 0, 0, 0, time.Local)) // February

	weekly, err := s.agg.RevenueChart(s.ctx, s.owner, dashboard.ChartRequest{Period: dashboard.PeriodWeekly, Count: 2})
	s.Require().NoError(err)
	s.Require().Len(weekly.Points, 2)
	s.Equal("2026-03-09", weekly.Points[0].Label)
	s.Equal("2026-03-16", weekly.Points[1].Label)
	s.True(weekly.Points[0].Revenue.Equal(decimal.RequireFromString("4")))
	s.True(weekly.Points[1].Revenue.Equal(decimal.RequireFromString("5")))

	monthly, err := s.agg.RevenueChart(s.ctx, s.owner, dashboard.ChartRequest{Period: dashboard.PeriodMonthly, Count: 3})
	s.Require().NoError(err)
	s.Require().Len(monthly.Points, 3)
	s.Equal("2026-01-01", monthly.Points[0].Label)
	s.True(monthly.Points[1].Revenue.Equal(decimal.RequireFromString("5")))
	s.True(monthly.Points[2].Revenue.Equal(decimal.RequireFromString("9")))
}

func (s *DashboardTestSuite) TestRevenueChartScope() {
	s.seedDay()

	chart, err := s.agg.RevenueChart(s.ctx, s.owner, dashboard.ChartRequest{StoreID: &s.second.ID})
	s.Require().NoError(err)
	s.Equal([]uint{s.second.ID}, chart.StoreIDs)
	s.Zero(chart.GrandTotals.Orders)

	chart, err = s.agg.RevenueChart(s.ctx, s.cashier, dashboard.ChartRequest{})
	s.Require().NoError(err)
	s.Equal([]uint{s.store.ID}, chart.StoreIDs)

	_, err = s.agg.RevenueChart(s.ctx, s.cashier, dashboard.ChartRequest{StoreID: &s.second.ID})
	s.True(apperr.IsForbidden(err))
	_, err = s.agg.RevenueChart(s.ctx, s.customer, dashboard.ChartRequest{})
	s.True(apperr.IsForbidden(err))
	_, err = s.agg.RevenueChart(s.ctx, s.idleCashier, dashboard.ChartRequest{})
	s.True(apperr.IsForbidden(err))

	_, err = s.agg.RevenueChart(s.ctx, s.owner, dashboard.ChartRequest{Period: "yearly"})
	s.True(apperr.IsValidation(err))
}

func (s *DashboardTestSuite) TestHandlers() {
	s.seedDay()
	current := s.idleCashier
	app := testutil.App(&current)
	app.Get("/api/dashboard", dashboard.DashboardHandler(s.agg))
	app.Get("/api/dashboard/revenue-chart", dashboard.RevenueChartHandler(s.agg))

	status, body := testutil.Do(s.T(), app, http.MethodGet, "/api/dashboard", nil)
	s.Equal(http.StatusOK, status)
	s.Equal("cashier", body["role"])
	s.Equal("No store assigned", body["error"])

	current = s.owner
	status, body = testutil.Do(s.T(), app, http.MethodGet, "/api/dashboard", nil)
	s.Equal(http.StatusOK, status)
	stats := body["stats"].(map[string]any)
	s.EqualValues(2, stats["total_stores"])
	s.Equal("45.5", stats["today_revenue"])

	status, body = testutil.Do(s.T(), app, http.MethodGet, "/api/dashboard/revenue-chart?period=weekly&count=4", nil)
	s.Equal(http.StatusOK, status)
	s.Len(body["points"], 4)

	status, _ = testutil.Do(s.T(), app, http.MethodGet, "/api/dashboard/revenue-chart?count=abc", nil)
	s.Equal(http.StatusBadRequest, status)
}
