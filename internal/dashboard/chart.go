package dashboard

import (
	"context"
	"time"

	"scanorder-backend/internal/apperr"
	"scanorder-backend/internal/identity"
	"scanorder-backend/internal/models"
	"scanorder-backend/internal/order"

	"github.com/shopspring/decimal"
)

type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"

	maxChartPoints = 90
)

func (p Period) defaultCount() int {
	switch p {
	case PeriodWeekly:
		return 8
	case PeriodMonthly:
		return 12
	default:
		return 7
	}
}

type ChartRequest struct {
	Period  Period
	Count   int   // 0 picks the period default
	StoreID *uint // owners may narrow to one store
}

type ChartPoint struct {
	Label   string          `json:"label"` // day, week start or month start
	Orders  int64           `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
	Paid    decimal.Decimal `json:"paid"`
}

type ChartTotals struct {
	Orders  int64           `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
	Paid    decimal.Decimal `json:"paid"`
}

type ChartResponse struct {
	StoreIDs    []uint       `json:"store_ids"`
	Period      Period       `json:"period"`
	From        string       `json:"from"`
	To          string       `json:"to"`
	Points      []ChartPoint `json:"points"`
	GrandTotals ChartTotals  `json:"grand_totals"`
}

// chartStatuses leaves cancelled orders out of revenue.
var chartStatuses = []models.OrderStatus{
	models.OrderStatusPending,
	models.OrderStatusConfirmed,
	models.OrderStatusPreparing,
	models.OrderStatusReady,
	models.OrderStatusCompleted,
}

func (a *Aggregator) chartScope(actor identity.Actor, storeID *uint) (identity.Scope, error) {
	switch {
	case actor.IsStoreOwner():
		if storeID == nil {
			return identity.OrderScope(actor), nil
		}
		if !actor.OwnsStore(*storeID) {
			return identity.Scope{}, apperr.Forbidden("This action is unauthorized.")
		}
		return identity.Scope{StoreIDs: []uint{*storeID}}, nil
	case actor.IsCashier() && actor.StoreID != nil:
		if storeID != nil && *storeID != *actor.StoreID {
			return identity.Scope{}, apperr.Forbidden("This action is unauthorized.")
		}
		return identity.OrderScope(actor), nil
	default:
		return identity.Scope{}, apperr.Forbidden("This action is unauthorized.")
	}
}

// bucketStart maps a day onto the start of its period bucket. Weeks start
// on Monday.
func bucketStart(p Period, day time.Time) time.Time {
	switch p {
	case PeriodWeekly:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case PeriodMonthly:
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
	default:
		return day
	}
}

func step(p Period, t time.Time, n int) time.Time {
	switch p {
	case PeriodWeekly:
		return t.AddDate(0, 0, 7*n)
	case PeriodMonthly:
		return t.AddDate(0, n, 0)
	default:
		return t.AddDate(0, 0, n)
	}
}

// RevenueChart buckets non-cancelled order revenue per day, week or month,
// ending with the current bucket. Empty buckets are reported as zero.
func (a *Aggregator) RevenueChart(ctx context.Context, actor identity.Actor, req ChartRequest) (*ChartResponse, error) {
	fe := apperr.FieldErrors{}
	switch req.Period {
	case "":
		req.Period = PeriodDaily
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
	default:
		fe.Add("period", "Period must be daily, weekly or monthly.")
	}
	if req.Count < 0 || req.Count > maxChartPoints {
		fe.Add("count", "Count must be between 1 and 90.")
	}
	if err := fe.Err("The given data was invalid."); err != nil {
		return nil, err
	}
	if req.Count == 0 {
		req.Count = req.Period.defaultCount()
	}

	scope, err := a.chartScope(actor, req.StoreID)
	if err != nil {
		return nil, err
	}

	today, end := a.today()
	last := bucketStart(req.Period, today)
	start := step(req.Period, last, -(req.Count - 1))

	days, err := a.orders.DailyTotals(ctx, order.Query{
		Scope:       scope,
		Statuses:    chartStatuses,
		CreatedFrom: &start,
		CreatedTo:   &end,
	})
	if err != nil {
		return nil, err
	}

	points := make([]ChartPoint, req.Count)
	index := make(map[string]int, req.Count)
	for i := range points {
		label := step(req.Period, start, i).Format(time.DateOnly)
		points[i] = ChartPoint{Label: label, Revenue: decimal.Zero, Paid: decimal.Zero}
		index[label] = i
	}

	totals := ChartTotals{Revenue: decimal.Zero, Paid: decimal.Zero}
	for _, d := range days {
		day := d.Day.In(today.Location())
		day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, today.Location())
		i, ok := index[bucketStart(req.Period, day).Format(time.DateOnly)]
		if !ok {
			continue
		}
		points[i].Orders += d.Orders
		points[i].Revenue = points[i].Revenue.Add(d.Revenue)
		points[i].Paid = points[i].Paid.Add(d.Paid)

		totals.Orders += d.Orders
		totals.Revenue = totals.Revenue.Add(d.Revenue)
		totals.Paid = totals.Paid.Add(d.Paid)
	}

	storeIDs := scope.StoreIDs
	if storeIDs == nil {
		storeIDs = []uint{}
	}
	return &ChartResponse{
		StoreIDs:    storeIDs,
		Period:      req.Period,
		From:        start.Format(time.DateOnly),
		To:          today.Format(time.DateOnly),
		Points:      points,
		GrandTotals: totals,
	}, nil
}
