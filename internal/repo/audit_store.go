package repo

import (
	"context"

	"gorm.io/gorm"

	"quarters/internal/models"
)

// Журнал ограничиваем последними записями — это экспорт, не архив.
const auditExportLimit = 500

type AuditStore struct{ db *gorm.DB }

func NewAuditStore(db *gorm.DB) *AuditStore { return &AuditStore{db: db} }

func (s *AuditStore) Insert(ctx context.Context, e *models.AuditEvent) error {
	return s.db.WithContext(ctx).Create(e).Error
}

// ListAll — полный журнал (admin).
func (s *AuditStore) ListAll(ctx context.Context) ([]models.AuditEvent, error) {
	var out []models.AuditEvent
	err := s.db.WithContext(ctx).
		Order("created_at desc").
		Limit(auditExportLimit).
		Find(&out).Error
	return out, err
}

// ListForObjects — события по объектам из ownership-набора landlord.
func (s *AuditStore) ListForObjects(ctx context.Context, objectIDs []uint) ([]models.AuditEvent, error) {
	if len(objectIDs) == 0 {
		return nil, nil
	}
	var out []models.AuditEvent
	err := s.db.WithContext(ctx).
		Where("object_type IN ?", []string{"property", "unit", "lease", "payment"}).
		Where("object_id IN ?", objectIDs).
		Order("created_at desc").
		Limit(auditExportLimit).
		Find(&out).Error
	return out, err
}

// ListForUser — только собственные события (tenant и прочие).
func (s *AuditStore) ListForUser(ctx context.Context, userID uint) ([]models.AuditEvent, error) {
	var out []models.AuditEvent
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(auditExportLimit).
		Find(&out).Error
	return out, err
}
