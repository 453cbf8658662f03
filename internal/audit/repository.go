package audit

import (
	"context"

	"scanorder-backend/internal/models"

	"gorm.io/gorm"
)

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) CreateAuditLog(ctx context.Context, l *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *GormRepository) ListAuditLogs(ctx context.Context, f Filter) ([]models.AuditLog, int64, error) {
	dbq := r.db.WithContext(ctx).Model(&models.AuditLog{}).Where("store_id IN ?", f.StoreIDs)

	if f.UserID > 0 {
		dbq = dbq.Where("user_id = ?", f.UserID)
	}
	if f.EntityType != "" {
		dbq = dbq.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID > 0 {
		dbq = dbq.Where("entity_id = ?", f.EntityID)
	}

	var total int64
	if err := dbq.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.AuditLog
	if f.Limit > 0 {
		dbq = dbq.Limit(f.Limit).Offset(f.Offset)
	}
	if err := dbq.Order("created_at DESC, id DESC").Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
