package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"scanorder-backend/internal/apperr"
	"scanorder-backend/internal/identity"
	"scanorder-backend/internal/models"
	"scanorder-backend/internal/paging"

	"github.com/rs/zerolog"
)

type Entry struct {
	StoreID     *uint
	Actor       identity.Actor
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// Recorder is what services depend on. Recording never fails the caller's
// operation: the mutation has already committed when Record runs.
type Recorder interface {
	Record(ctx context.Context, e Entry)
}

type Filter struct {
	StoreIDs   []uint
	EntityType string
	EntityID   uint
	UserID     uint
	Limit      int
	Offset     int
}

type Repository interface {
	CreateAuditLog(ctx context.Context, l *models.AuditLog) error
	ListAuditLogs(ctx context.Context, f Filter) ([]models.AuditLog, int64, error)
}

const defaultPublishTimeout = time.Second

type Service struct {
	repo           Repository
	publisher      Publisher
	publishTimeout time.Duration
	logger         zerolog.Logger
}

func NewService(repo Repository, publisher Publisher, logger zerolog.Logger) *Service {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &Service{repo: repo, publisher: publisher, publishTimeout: defaultPublishTimeout, logger: logger}
}

// WithPublishTimeout bounds how long Record waits on the event stream.
func (s *Service) WithPublishTimeout(d time.Duration) *Service {
	if d > 0 {
		s.publishTimeout = d
	}
	return s
}

func (s *Service) Record(ctx context.Context, e Entry) {
	// the mutation is committed; a client hanging up must not drop its trail
	ctx = context.WithoutCancel(ctx)

	l, err := buildLog(e)
	if err != nil {
		s.logger.Error().Err(err).Str("entity_type", e.EntityType).Uint("entity_id", e.EntityID).Msg("audit log build failed")
		return
	}

	if err := s.repo.CreateAuditLog(ctx, l); err != nil {
		s.logger.Error().Err(err).Str("entity_type", e.EntityType).Uint("entity_id", e.EntityID).Msg("audit log not saved")
	}

	pctx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pctx, eventFromLog(l)); err != nil {
		s.logger.Warn().Err(err).Str("entity_type", e.EntityType).Uint("entity_id", e.EntityID).Msg("audit event not published")
	}
}

func (s *Service) List(ctx context.Context, f Filter) ([]models.AuditLog, int64, error) {
	return s.repo.ListAuditLogs(ctx, f)
}

type ListQuery struct {
	StoreID    *uint
	EntityType string
	EntityID   uint
	UserID     uint
}

// ListForActor returns the audit trail of the stores a store owner owns.
func (s *Service) ListForActor(ctx context.Context, actor identity.Actor, q ListQuery, p paging.Params) (paging.Result[models.AuditLog], error) {
	if !actor.IsStoreOwner() {
		return paging.Result[models.AuditLog]{}, apperr.Forbidden("This action is unauthorized.")
	}

	f := Filter{
		StoreIDs:   actor.OwnedStoreIDs,
		EntityType: q.EntityType,
		EntityID:   q.EntityID,
		UserID:     q.UserID,
		Limit:      p.Limit(),
		Offset:     p.Offset(),
	}
	if q.StoreID != nil {
		if !actor.OwnsStore(*q.StoreID) {
			return paging.Result[models.AuditLog]{}, apperr.Forbidden("This action is unauthorized.")
		}
		f.StoreIDs = []uint{*q.StoreID}
	}
	if len(f.StoreIDs) == 0 {
		return paging.NewResult[models.AuditLog](nil, 0, p), nil
	}

	logs, total, err := s.repo.ListAuditLogs(ctx, f)
	if err != nil {
		return paging.Result[models.AuditLog]{}, err
	}
	return paging.NewResult(logs, total, p), nil
}

func buildLog(e Entry) (*models.AuditLog, error) {
	// jsonb columns need the JSON literal null, not an empty string
	beforeStr := "null"
	afterStr := "null"

	if e.Before != nil {
		b, err := json.Marshal(e.Before)
		if err != nil {
			return nil, fmt.Errorf("marshal before: %w", err)
		}
		beforeStr = string(b)
	}
	if e.After != nil {
		b, err := json.Marshal(e.After)
		if err != nil {
			return nil, fmt.Errorf("marshal after: %w", err)
		}
		afterStr = string(b)
	}

	return &models.AuditLog{
		StoreID:     e.StoreID,
		UserID:      e.Actor.ID,
		UserName:    e.Actor.Name,
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
		Action:      e.Action,
		Description: e.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
	}, nil
}

// Discard drops every entry.
type Discard struct{}

func (Discard) Record(context.Context, Entry) {}
