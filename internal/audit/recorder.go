// Package audit — append-only журнал действий и его экспорт.
package audit

import (
	"context"

	"quarters/internal/logs"
	"quarters/internal/models"
	"quarters/internal/repo"
)

type Recorder struct {
	store *repo.AuditStore
}

func NewRecorder(store *repo.AuditStore) *Recorder { return &Recorder{store: store} }

// Record — best-effort: недоступность журнала не должна блокировать
// операции по договорам и платежам, сбой только логируется.
func (r *Recorder) Record(ctx context.Context, actor models.Actor, action, objectType string, objectID uint, origin models.Origin) {
	if r == nil || r.store == nil {
		return
	}
	e := &models.AuditEvent{
		UserID:     actor.UserID,
		Email:      actor.Email,
		Action:     action,
		ObjectType: objectType,
		ObjectID:   objectID,
		IPAddress:  origin.IP,
		UserAgent:  origin.UserAgent,
	}
	if err := r.store.Insert(ctx, e); err != nil {
		logs.Logger.Errorf("audit: record failed action=%q object=%s/%d: %v", action, objectType, objectID, err)
	}
}
