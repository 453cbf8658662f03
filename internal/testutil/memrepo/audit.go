package memrepo

import (
	"context"
	"sort"

	"scanorder-backend/internal/audit"
	"scanorder-backend/internal/models"
)

func (d *DB) CreateAuditLog(_ context.Context, l *models.AuditLog) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	l.ID = d.id("audit_logs")
	if l.CreatedAt.IsZero() {
		l.CreatedAt = d.now()
	}
	d.auditLogs = append(d.auditLogs, *l)
	return nil
}

func (d *DB) ListAuditLogs(_ context.Context, f audit.Filter) ([]models.AuditLog, int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []models.AuditLog
	for _, l := range d.auditLogs {
		if l.StoreID == nil || !containsID(f.StoreIDs, *l.StoreID) {
			continue
		}
		if f.UserID > 0 && l.UserID != f.UserID {
			continue
		}
		if f.EntityType != "" && l.EntityType != f.EntityType {
			continue
		}
		if f.EntityID > 0 && l.EntityID != f.EntityID {
			continue
		}
		out = append(out, l)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, f.Limit, f.Offset), int64(len(out)), nil
}

// AuditLogs returns every recorded row, oldest first.
func (d *DB) AuditLogs() []models.AuditLog {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.AuditLog(nil), d.auditLogs...)
}
