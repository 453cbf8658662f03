package order

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"scanorder-backend/internal/apperr"
	"scanorder-backend/internal/audit"
	"scanorder-backend/internal/database"
	"scanorder-backend/internal/identity"
	"scanorder-backend/internal/models"
	"scanorder-backend/internal/paging"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	invalidData    = "The given data was invalid."
	unauthorized   = "This action is unauthorized."
	orderNotFound  = "Order not found."
	maxNotesLength = 500
	maxInstrLength = 255
)

// Catalog is the read-only catalog view the engine prices orders from.
type Catalog interface {
	FindStore(ctx context.Context, id uint) (*models.Store, error)
	FindProducts(ctx context.Context, ids []uint) ([]models.Product, error)
}

type Engine struct {
	orders   Repository
	catalog  Catalog
	policy   TransitionPolicy
	audit    audit.Recorder
	logger   zerolog.Logger
	attempts int
	now      func() time.Time
}

type Option func(*Engine)

func WithPolicy(p TransitionPolicy) Option { return func(e *Engine) { e.policy = p } }

func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithNumberAttempts bounds order number allocation retries.
func WithNumberAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.attempts = n
		}
	}
}

func NewEngine(orders Repository, catalog Catalog, recorder audit.Recorder, logger zerolog.Logger, opts ...Option) *Engine {
	if recorder == nil {
		recorder = audit.Discard{}
	}
	e := &Engine{
		orders:   orders,
		catalog:  catalog,
		policy:   PermissivePolicy{},
		audit:    recorder,
		logger:   logger,
		attempts: 5,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FormatOrderNumber renders ORD- followed by at least four digits.
func FormatOrderNumber(n int64) string {
	return fmt.Sprintf("ORD-%04d", n)
}

// ----------------------------------------
// CREATE
// ----------------------------------------

type ItemInput struct {
	ProductID           uint             `json:"product_id"`
	Quantity            int              `json:"quantity"`
	UnitPrice           *decimal.Decimal `json:"unit_price"`
	SpecialInstructions *string          `json:"special_instructions"`
}

type CreateInput struct {
	StoreID                 uint        `json:"store_id"`
	Items                   []ItemInput `json:"items"`
	EstimatedCompletionTime *int        `json:"estimated_completion_time"`
	Notes                   *string     `json:"notes"`
	// Accepted for compatibility with older clients; never used for pricing.
	TotalAmount *decimal.Decimal `json:"total_amount"`
}

func (in CreateInput) validate() error {
	fe := apperr.FieldErrors{}
	if in.StoreID == 0 {
		fe.Add("store_id", "Please select a store.")
	}
	if len(in.Items) == 0 {
		fe.Add("items", "Please add at least one item to your order.")
	}
	for i, it := range in.Items {
		key := fmt.Sprintf("items.%d", i)
		if it.ProductID == 0 {
			fe.Add(key+".product_id", "Product selection is required.")
		}
		if it.Quantity < models.MinItemQuantity {
			fe.Add(key+".quantity", "Quantity must be at least 1.")
		} else if it.Quantity > models.MaxItemQuantity {
			fe.Add(key+".quantity", "Maximum quantity is 10 per item.")
		}
		if it.UnitPrice != nil && it.UnitPrice.IsNegative() {
			fe.Add(key+".unit_price", "Unit price cannot be negative.")
		}
		if it.SpecialInstructions != nil && utf8.RuneCountInString(*it.SpecialInstructions) > maxInstrLength {
			fe.Add(key+".special_instructions", "Special instructions may not be greater than 255 characters.")
		}
	}
	validateETA(fe, in.EstimatedCompletionTime)
	validateNotes(fe, in.Notes)
	return fe.Err(invalidData)
}

func validateETA(fe apperr.FieldErrors, eta *int) {
	if eta == nil {
		return
	}
	if *eta < 1 {
		fe.Add("estimated_completion_time", "Completion time must be at least 1 minute.")
	} else if *eta > 120 {
		fe.Add("estimated_completion_time", "Completion time cannot exceed 2 hours.")
	}
}

func validateNotes(fe apperr.FieldErrors, notes *string) {
	if notes != nil && utf8.RuneCountInString(*notes) > maxNotesLength {
		fe.Add("notes", "Notes may not be greater than 500 characters.")
	}
}

// Create validates the cart against the catalog, prices it from catalog
// prices and persists order and items in one transaction.
func (e *Engine) Create(ctx context.Context, actor identity.Actor, in CreateInput) (*models.Order, error) {
	if !actor.CanCreateOrder() {
		return nil, apperr.Forbidden(unauthorized)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	store, err := e.catalog.FindStore(ctx, in.StoreID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("Store not found.")
		}
		return nil, err
	}

	items, total, err := e.priceItems(ctx, store, in.Items)
	if err != nil {
		return nil, err
	}
	if in.TotalAmount != nil && !in.TotalAmount.Equal(total) {
		e.logger.Debug().
			Str("client_total", in.TotalAmount.String()).
			Str("computed_total", total.String()).
			Uint("customer_id", actor.ID).
			Msg("client supplied total ignored")
	}

	eta := models.DefaultEstimatedCompletion
	if in.EstimatedCompletionTime != nil {
		eta = *in.EstimatedCompletionTime
	}
	o := &models.Order{
		TotalAmount:             total,
		Status:                  models.OrderStatusPending,
		PaymentStatus:           models.PaymentStatusPending,
		EstimatedCompletionTime: &eta,
		Notes:                   trimmedOrNil(in.Notes),
		CustomerID:              actor.ID,
		StoreID:                 store.ID,
		Items:                   items,
	}

	if err := e.insertWithNumber(ctx, o); err != nil {
		return nil, err
	}

	e.audit.Record(ctx, audit.Entry{
		StoreID:     &o.StoreID,
		Actor:       actor,
		EntityType:  "order",
		EntityID:    o.ID,
		Action:      models.AuditActionCreate,
		Description: fmt.Sprintf("Order placed: %s, %d items, total %s", o.OrderNumber, len(o.Items), o.TotalAmount.StringFixed(2)),
		After:       o,
	})
	return o, nil
}

func (e *Engine) priceItems(ctx context.Context, store *models.Store, in []ItemInput) ([]models.OrderItem, decimal.Decimal, error) {
	ids := make([]uint, 0, len(in))
	for _, it := range in {
		ids = append(ids, it.ProductID)
	}
	products, err := e.catalog.FindProducts(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, err
	}
	byID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	fe := apperr.FieldErrors{}
	items := make([]models.OrderItem, 0, len(in))
	total := decimal.Zero
	for i, it := range in {
		key := fmt.Sprintf("items.%d", i)
		p, ok := byID[it.ProductID]
		if !ok {
			return nil, decimal.Zero, apperr.NotFound(fmt.Sprintf("Product %d not found.", it.ProductID))
		}
		if p.StoreID != store.ID {
			fe.Add(key+".product_id", "The selected product does not belong to this store.")
			continue
		}
		if !p.IsAvailable {
			fe.Add(key+".product_id", "The selected product is currently unavailable.")
			continue
		}
		if it.UnitPrice != nil && !it.UnitPrice.Equal(p.Price) {
			fe.Add(key+".unit_price", "The price of this product has changed. Please refresh the menu.")
			continue
		}

		lineTotal := p.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		total = total.Add(lineTotal)
		items = append(items, models.OrderItem{
			ProductID:           p.ID,
			Quantity:            it.Quantity,
			UnitPrice:           p.Price,
			TotalPrice:          lineTotal,
			SpecialInstructions: trimmedOrNil(it.SpecialInstructions),
		})
	}
	if err := fe.Err(invalidData); err != nil {
		return nil, decimal.Zero, err
	}
	return items, total, nil
}

// insertWithNumber allocates an order number and inserts, retrying with a
// fresh number whenever the unique constraint reports a collision.
func (e *Engine) insertWithNumber(ctx context.Context, o *models.Order) error {
	var lastErr error
	for attempt := 1; attempt <= e.attempts; attempt++ {
		n, err := e.orders.NextOrderNumber(ctx)
		if err != nil {
			return fmt.Errorf("allocate order number: %w", err)
		}
		o.OrderNumber = FormatOrderNumber(n)

		err = e.orders.Create(ctx, o)
		if err == nil {
			return nil
		}
		if !database.IsDuplicate(err) {
			return fmt.Errorf("create order: %w", err)
		}
		lastErr = err
		e.logger.Warn().Str("order_number", o.OrderNumber).Int("attempt", attempt).Msg("order number taken, retrying")
	}
	return apperr.Conflict("Could not allocate an order number. Please try again.", lastErr)
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// ----------------------------------------
// READ
// ----------------------------------------

// Get hides orders outside the actor's visibility behind NotFound.
func (e *Engine) Get(ctx context.Context, actor identity.Actor, id uint) (*models.Order, error) {
	o, err := e.orders.FindByID(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound(orderNotFound)
		}
		return nil, err
	}
	if !actor.CanViewOrder(o) {
		return nil, apperr.NotFound(orderNotFound)
	}
	return o, nil
}

type ListFilter struct {
	Status string
}

// List returns the actor's visible orders, most recent first.
func (e *Engine) List(ctx context.Context, actor identity.Actor, f ListFilter, p paging.Params) (paging.Result[models.Order], error) {
	q := Query{Scope: identity.OrderScope(actor), Limit: p.Limit(), Offset: p.Offset()}
	if f.Status != "" {
		status := models.OrderStatus(f.Status)
		if !status.Valid() {
			return paging.Result[models.Order]{}, apperr.Validation(invalidData, map[string]string{"status": "Invalid order status."})
		}
		q.Statuses = []models.OrderStatus{status}
	}
	if q.Scope.Empty() {
		return paging.NewResult[models.Order](nil, 0, p), nil
	}

	total, err := e.orders.Count(ctx, q)
	if err != nil {
		return paging.Result[models.Order]{}, err
	}
	orders, err := e.orders.List(ctx, q)
	if err != nil {
		return paging.Result[models.Order]{}, err
	}
	return paging.NewResult(orders, total, p), nil
}

// ----------------------------------------
// TRANSITION
// ----------------------------------------

type TransitionInput struct {
	Status                  string  `json:"status"`
	PaymentStatus           *string `json:"payment_status"`
	EstimatedCompletionTime *int    `json:"estimated_completion_time"`
	Notes                   *string `json:"notes"`
}

func (in TransitionInput) validate() error {
	fe := apperr.FieldErrors{}
	if in.Status == "" {
		fe.Add("status", "Order status is required.")
	} else if !models.OrderStatus(in.Status).Valid() {
		fe.Add("status", "Invalid order status.")
	}
	if in.PaymentStatus != nil && !models.PaymentStatus(*in.PaymentStatus).Valid() {
		fe.Add("payment_status", "Invalid payment status.")
	}
	validateETA(fe, in.EstimatedCompletionTime)
	validateNotes(fe, in.Notes)
	return fe.Err(invalidData)
}

func (e *Engine) loadForManagement(ctx context.Context, actor identity.Actor, id uint) (*models.Order, error) {
	o, err := e.orders.FindByID(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound(orderNotFound)
		}
		return nil, err
	}
	if !actor.CanManageOrder(o) {
		return nil, apperr.Forbidden(unauthorized)
	}
	return o, nil
}

// Transition moves an order to a new status. The first move away from
// pending assigns the acting cashier or owner; entering completed stamps
// completed_at once. Writes are last-writer-wins.
func (e *Engine) Transition(ctx context.Context, actor identity.Actor, id uint, in TransitionInput) (*models.Order, error) {
	o, err := e.loadForManagement(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	to := models.OrderStatus(in.Status)
	from := o.Status
	if !e.policy.Allowed(from, to) {
		return nil, apperr.Validation(invalidData, map[string]string{
			"status": fmt.Sprintf("An order cannot move from %s to %s.", from, to),
		})
	}

	before := *o
	before.Items = nil

	if from == models.OrderStatusPending && to != models.OrderStatusPending && o.CashierID == nil &&
		(actor.IsCashier() || actor.IsStoreOwner()) {
		cashierID := actor.ID
		o.CashierID = &cashierID
		o.Cashier = nil
	}
	if to == models.OrderStatusCompleted && o.CompletedAt == nil {
		now := e.now()
		o.CompletedAt = &now
	}
	o.Status = to
	if in.PaymentStatus != nil {
		o.PaymentStatus = models.PaymentStatus(*in.PaymentStatus)
	}
	if in.EstimatedCompletionTime != nil {
		eta := *in.EstimatedCompletionTime
		o.EstimatedCompletionTime = &eta
	}
	if in.Notes != nil {
		o.Notes = trimmedOrNil(in.Notes)
	}

	if err := e.orders.UpdateLifecycle(ctx, o); err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound(orderNotFound)
		}
		return nil, err
	}

	after := *o
	after.Items = nil
	e.audit.Record(ctx, audit.Entry{
		StoreID:     &o.StoreID,
		Actor:       actor,
		EntityType:  "order",
		EntityID:    o.ID,
		Action:      models.AuditActionUpdate,
		Description: fmt.Sprintf("Order %s: %s -> %s", o.OrderNumber, from, to),
		Before:      before,
		After:       after,
	})
	return o, nil
}

// ----------------------------------------
// DELETE
// ----------------------------------------

// Delete removes an order and its items. Same authorization as Transition.
func (e *Engine) Delete(ctx context.Context, actor identity.Actor, id uint) error {
	o, err := e.loadForManagement(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := e.orders.Delete(ctx, o.ID); err != nil {
		if database.IsNotFound(err) {
			return apperr.NotFound(orderNotFound)
		}
		return err
	}

	e.audit.Record(ctx, audit.Entry{
		StoreID:     &o.StoreID,
		Actor:       actor,
		EntityType:  "order",
		EntityID:    o.ID,
		Action:      models.AuditActionDelete,
		Description: fmt.Sprintf("Order deleted: %s", o.OrderNumber),
		Before:      o,
	})
	return nil
}
