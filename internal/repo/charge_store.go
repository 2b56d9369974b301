package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"quarters/internal/models"
)

type ChargeStore struct{ db *gorm.DB }

func NewChargeStore(db *gorm.DB) *ChargeStore { return &ChargeStore{db: db} }

// Create — conflict-tolerant вставка: нарушение уникального
// (lease_id, due_date, description) возвращается как ErrConflict,
// никакой предварительной проверки существования.
func (s *ChargeStore) Create(ctx context.Context, c *models.Charge) error {
	err := s.db.WithContext(ctx).Create(c).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	return err
}

func (s *ChargeStore) GetByID(ctx context.Context, id uint) (*models.Charge, error) {
	var c models.Charge
	err := s.db.WithContext(ctx).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *ChargeStore) ListByLease(ctx context.Context, leaseID uint) ([]models.Charge, error) {
	var out []models.Charge
	err := s.db.WithContext(ctx).
		Where("lease_id = ?", leaseID).
		Order("due_date desc").
		Find(&out).Error
	return out, err
}

// MarkPaid идемпотентно помечает платёж оплаченным.
// Возвращает already=true, если платёж уже был оплачен (повторная доставка
// события шлюза — no-op, не ошибка).
func (s *ChargeStore) MarkPaid(ctx context.Context, chargeID uint) (already bool, err error) {
	res := s.db.WithContext(ctx).Model(&models.Charge{}).
		Where("id = ? AND paid = ?", chargeID, false).
		Updates(map[string]any{
			"paid":    true,
			"paid_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return false, nil
	}
	// 0 строк: либо уже оплачен, либо не существует
	c, err := s.GetByID(ctx, chargeID)
	if err != nil {
		return false, err
	}
	if c.Paid {
		return true, nil
	}
	return false, ErrNotFound
}
