package order

import (
	"context"
	"fmt"
	"time"

	"scanorder-backend/internal/database"
	"scanorder-backend/internal/identity"
	"scanorder-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Query selects orders inside a visibility scope. An empty scope matches
// nothing; it is never treated as "no filter".
type Query struct {
	Scope       identity.Scope
	Statuses    []models.OrderStatus
	CreatedFrom *time.Time // inclusive
	CreatedTo   *time.Time // exclusive
	OldestFirst bool
	Limit       int
	Offset      int
}

type Repository interface {
	// NextOrderNumber returns the next value of the order number sequence.
	NextOrderNumber(ctx context.Context) (int64, error)
	// Create inserts the order and its items atomically. A taken order number
	// is reported as gorm.ErrDuplicatedKey.
	Create(ctx context.Context, o *models.Order) error
	FindByID(ctx context.Context, id uint) (*models.Order, error)
	// UpdateLifecycle writes the mutable columns of an order.
	UpdateLifecycle(ctx context.Context, o *models.Order) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, q Query) ([]models.Order, error)
	Count(ctx context.Context, q Query) (int64, error)
	SumTotal(ctx context.Context, q Query) (decimal.Decimal, error)
	// DailyTotals groups matching orders by local calendar day, oldest first.
	DailyTotals(ctx context.Context, q Query) ([]DayTotal, error)
}

type DayTotal struct {
	Day     time.Time       `gorm:"column:day"`
	Orders  int64           `gorm:"column:orders"`
	Revenue decimal.Decimal `gorm:"column:revenue"`
	Paid    decimal.Decimal `gorm:"column:paid"`
}

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) NextOrderNumber(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Raw(fmt.Sprintf("SELECT nextval('%s')", database.OrderNumberSequence)).
		Scan(&n).Error
	return n, err
}

func (r *GormRepository) Create(ctx context.Context, o *models.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := o.Items
		o.Items = nil
		if err := tx.Omit("Customer", "Store", "Cashier").Create(o).Error; err != nil {
			o.Items = items
			return err
		}
		for i := range items {
			items[i].OrderID = o.ID
		}
		if err := tx.Omit("Product").Create(&items).Error; err != nil {
			o.Items = items
			return err
		}
		o.Items = items
		return nil
	})
}

func (r *GormRepository) FindByID(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Store").
		Preload("Cashier").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Product.Category").
		First(&o, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormRepository) UpdateLifecycle(ctx context.Context, o *models.Order) error {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", o.ID).
		Updates(map[string]interface{}{
			"status":                    o.Status,
			"payment_status":            o.PaymentStatus,
			"cashier_id":                o.CashierID,
			"completed_at":              o.CompletedAt,
			"estimated_completion_time": o.EstimatedCompletionTime,
			"notes":                     o.Notes,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Order{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// scoped applies the visibility boundary first; filters come after it.
func (r *GormRepository) scoped(ctx context.Context, q Query) *gorm.DB {
	dbq := r.db.WithContext(ctx).Model(&models.Order{})
	switch {
	case q.Scope.CustomerID != nil:
		dbq = dbq.Where("orders.customer_id = ?", *q.Scope.CustomerID)
	case len(q.Scope.StoreIDs) > 0:
		dbq = dbq.Where("orders.store_id IN ?", q.Scope.StoreIDs)
	default:
		dbq = dbq.Where("1 = 0")
	}

	if len(q.Statuses) > 0 {
		dbq = dbq.Where("orders.status IN ?", q.Statuses)
	}
	if q.CreatedFrom != nil {
		dbq = dbq.Where("orders.created_at >= ?", *q.CreatedFrom)
	}
	if q.CreatedTo != nil {
		dbq = dbq.Where("orders.created_at < ?", *q.CreatedTo)
	}
	return dbq
}

func (r *GormRepository) List(ctx context.Context, q Query) ([]models.Order, error) {
	dbq := r.scoped(ctx, q).
		Preload("Customer").
		Preload("Store").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Product")

	if q.OldestFirst {
		dbq = dbq.Order("orders.created_at ASC, orders.id ASC")
	} else {
		dbq = dbq.Order("orders.created_at DESC, orders.id DESC")
	}
	if q.Limit > 0 {
		dbq = dbq.Limit(q.Limit).Offset(q.Offset)
	}

	var orders []models.Order
	err := dbq.Find(&orders).Error
	return orders, err
}

func (r *GormRepository) Count(ctx context.Context, q Query) (int64, error) {
	var n int64
	err := r.scoped(ctx, q).Count(&n).Error
	return n, err
}

func (r *GormRepository) SumTotal(ctx context.Context, q Query) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.scoped(ctx, q).
		Select("COALESCE(SUM(orders.total_amount), 0)").
		Row().
		Scan(&sum)
	return sum, err
}

func (r *GormRepository) DailyTotals(ctx context.Context, q Query) ([]DayTotal, error) {
	var rows []DayTotal
	err := r.scoped(ctx, q).
		Select(`date_trunc('day', orders.created_at) AS day,
			COUNT(*) AS orders,
			COALESCE(SUM(orders.total_amount), 0) AS revenue,
			COALESCE(SUM(CASE WHEN orders.payment_status = ? THEN orders.total_amount ELSE 0 END), 0) AS paid`,
			models.PaymentStatusPaid).
		Group("day").
		Order("day ASC").
		Scan(&rows).Error
	return rows, err
}
