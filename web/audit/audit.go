// Package audit records administrative actions both as structured log
// lines and as rows in the audit_entries table.
package audit

import (
	"log/slog"

	"license-portal/web/db"

	"gorm.io/gorm"
)

type Recorder struct {
	DB     *gorm.DB
	Logger *slog.Logger
}

func NewRecorder(gdb *gorm.DB, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{DB: gdb, Logger: logger}
}

// Record stores an audit entry. Failures are logged, never propagated:
// an audit write must not fail the action it describes.
func (r *Recorder) Record(actor, action, entity string, entityID uint, detail string) {
	r.Logger.Info("audit",
		slog.String("actor", actor),
		slog.String("action", action),
		slog.String("entity", entity),
		slog.Uint64("entity_id", uint64(entityID)),
		slog.String("detail", detail),
	)

	entry := db.AuditEntry{
		Actor:    actor,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Detail:   detail,
	}
	if err := r.DB.Create(&entry).Error; err != nil {
		r.Logger.Error("audit write failed", slog.String("error", err.Error()))
	}
}

// Recent returns the latest audit entries, newest first.
func (r *Recorder) Recent(limit int) ([]db.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var entries []db.AuditEntry
	err := r.DB.Order("id DESC").Limit(limit).Find(&entries).Error
	return entries, err
}
