package memrepo

import (
	"context"
	"sort"
	"time"

	"scanorder-backend/internal/models"
	"scanorder-backend/internal/order"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderRepo implements the order repository over the shared DB.
type OrderRepo struct {
	d *DB
}

func (d *DB) Orders() *OrderRepo { return &OrderRepo{d: d} }

func (r *OrderRepo) NextOrderNumber(_ context.Context) (int64, error) {
	d := r.d
	d.mu.Lock()
	defer d.mu.Unlock()
	d.orderSeq++
	return d.orderSeq, nil
}

func (r *OrderRepo) Create(_ context.Context, o *models.Order) error {
	d := r.d
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failNext > 0 {
		d.failNext--
		return gorm.ErrDuplicatedKey
	}
	for _, existing := range d.orders {
		if existing.OrderNumber == o.OrderNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	if _, ok := d.stores[o.StoreID]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	if _, ok := d.users[o.CustomerID]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	for _, it := range o.Items {
		if _, ok := d.products[it.ProductID]; !ok {
			return gorm.ErrForeignKeyViolated
		}
	}

	o.ID = d.id("orders")
	d.stamp(&o.CreatedAt, &o.UpdatedAt)
	for i := range o.Items {
		it := &o.Items[i]
		it.ID = d.id("order_items")
		it.OrderID = o.ID
		d.stamp(&it.CreatedAt, &it.UpdatedAt)
		stored := *it
		stored.Product = nil
		d.items[it.ID] = stored
	}
	d.orders[o.ID] = bareOrder(*o)
	return nil
}

// InsertOrder stores a fully formed order as-is, keeping its timestamps.
// Used to seed fixtures at fixed points in time.
func (d *DB) InsertOrder(o *models.Order) {
	d.mu.Lock()
	defer d.mu.Unlock()
	o.ID = d.id("orders")
	if o.OrderNumber == "" {
		d.orderSeq++
		o.OrderNumber = order.FormatOrderNumber(d.orderSeq)
	}
	d.stamp(&o.CreatedAt, &o.UpdatedAt)
	for i := range o.Items {
		it := &o.Items[i]
		it.ID = d.id("order_items")
		it.OrderID = o.ID
		stored := *it
		stored.Product = nil
		d.items[it.ID] = stored
	}
	d.orders[o.ID] = bareOrder(*o)
}

func bareOrder(o models.Order) models.Order {
	o.Customer = nil
	o.Store = nil
	o.Cashier = nil
	o.Items = nil
	return o
}

// hydrate attaches relations the way the gorm preloads do.
func (d *DB) hydrate(o models.Order) models.Order {
	if u, ok := d.users[o.CustomerID]; ok {
		o.Customer = &u
	}
	if s, ok := d.stores[o.StoreID]; ok {
		o.Store = &s
	}
	if o.CashierID != nil {
		if u, ok := d.users[*o.CashierID]; ok {
			o.Cashier = &u
		}
	}
	for _, id := range sortedKeys(d.items) {
		it := d.items[id]
		if it.OrderID != o.ID {
			continue
		}
		if p, ok := d.products[it.ProductID]; ok {
			if c, ok := d.cats[p.CategoryID]; ok {
				p.Category = &c
			}
			it.Product = &p
		}
		o.Items = append(o.Items, it)
	}
	return o
}

func (r *OrderRepo) FindByID(_ context.Context, id uint) (*models.Order, error) {
	d := r.d
	d.mu.Lock()
	defer d.mu.Unlock()
	o, ok := d.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	o = d.hydrate(o)
	return &o, nil
}

func (r *OrderRepo) UpdateLifecycle(_ context.Context, o *models.Order) error {
	d := r.d
	d.mu.Lock()
	defer d.mu.Unlock()
	stored, ok := d.orders[o.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Status = o.Status
	stored.PaymentStatus = o.PaymentStatus
	stored.CashierID = o.CashierID
	stored.CompletedAt = o.CompletedAt
	stored.EstimatedCompletionTime = o.EstimatedCompletionTime
	stored.Notes = o.Notes
	stored.UpdatedAt = d.now()
	d.orders[o.ID] = stored
	return nil
}

// Delete removes the order and cascades to its items.
func (r *OrderRepo) Delete(_ context.Context, id uint) error {
	d := r.d
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.orders[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	for itemID, it := range d.items {
		if it.OrderID == id {
			delete(d.items, itemID)
		}
	}
	delete(d.orders, id)
	return nil
}

func (d *DB) match(q order.Query) []models.Order {
	var out []models.Order
	for _, id := range sortedKeys(d.orders) {
		o := d.orders[id]
		if !q.Scope.Matches(&o) {
			continue
		}
		if len(q.Statuses) > 0 && !hasStatus(q.Statuses, o.Status) {
			continue
		}
		if q.CreatedFrom != nil && o.CreatedAt.Before(*q.CreatedFrom) {
			continue
		}
		if q.CreatedTo != nil && !o.CreatedAt.Before(*q.CreatedTo) {
			continue
		}
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if q.OldestFirst {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
		if q.OldestFirst {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})
	return out
}

func hasStatus(statuses []models.OrderStatus, s models.OrderStatus) bool {
	for _, v := range statuses {
		if v == s {
			return true
		}
	}
	return false
}

func (r *OrderRepo) List(_ context.Context, q order.Query) ([]models.Order, error) {
	d := r.d
	d.mu.Lock()
	defer d.mu.Unlock()
	rows := page(d.match(q), q.Limit, q.Offset)
	out := make([]models.Order, 0, len(rows))
	for _, o := range rows {
		out = append(out, d.hydrate(o))
	}
	return out, nil
}

func (r *OrderRepo) Count(_ context.Context, q order.Query) (int64, error) {
	d := r.d
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.match(q))), nil
}

func (r *OrderRepo) SumTotal(_ context.Context, q order.Query) (decimal.Decimal, error) {
	d := r.d
	d.mu.Lock()
	defer d.mu.Unlock()
	sum := decimal.Zero
	for _, o := range d.match(q) {
		sum = sum.Add(o.TotalAmount)
	}
	return sum, nil
}

// OrderCount is the number of stored orders regardless of scope.
func (d *DB) OrderCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.orders)
}

// ItemCount is the number of stored order items.
func (d *DB) ItemCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.items)
}

func (r *OrderRepo) DailyTotals(_ context.Context, q order.Query) ([]order.DayTotal, error) {
	d := r.d
	d.mu.Lock()
	defer d.mu.Unlock()
	q.OldestFirst = true
	var out []order.DayTotal
	for _, o := range d.match(q) {
		t := o.CreatedAt.In(time.Local)
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
		if len(out) == 0 || !out[len(out)-1].Day.Equal(day) {
			out = append(out, order.DayTotal{Day: day, Revenue: decimal.Zero, Paid: decimal.Zero})
		}
		last := &out[len(out)-1]
		last.Orders++
		last.Revenue = last.Revenue.Add(o.TotalAmount)
		if o.PaymentStatus == models.PaymentStatusPaid {
			last.Paid = last.Paid.Add(o.TotalAmount)
		}
	}
	return out, nil
}
