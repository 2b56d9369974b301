package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"quarters/internal/models"
)

type SignatureStore struct{ db *gorm.DB }

func NewSignatureStore(db *gorm.DB) *SignatureStore { return &SignatureStore{db: db} }

// Create — вставка подписи; уникальный индекс (lease_id, signer_id)
// превращает повторную подпись в ErrConflict, а не в перезапись.
func (s *SignatureStore) Create(ctx context.Context, sig *models.Signature) error {
	err := s.db.WithContext(ctx).Create(sig).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	return err
}

func (s *SignatureStore) ListByLease(ctx context.Context, leaseID uint) ([]models.Signature, error) {
	var out []models.Signature
	err := s.db.WithContext(ctx).
		Where("lease_id = ?", leaseID).
		Order("signed_at asc").
		Find(&out).Error
	return out, err
}
