package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"quarters/internal/models"
)

type TemplateStore struct{ db *gorm.DB }

func NewTemplateStore(db *gorm.DB) *TemplateStore { return &TemplateStore{db: db} }

func (s *TemplateStore) List(ctx context.Context) ([]models.LeaseTemplate, error) {
	var tpls []models.LeaseTemplate
	if err := s.db.WithContext(ctx).
		Order("name asc, id asc").
		Find(&tpls).Error; err != nil {
		return nil, err
	}
	return tpls, nil
}

func (s *TemplateStore) GetByID(ctx context.Context, id uint) (*models.LeaseTemplate, error) {
	var t models.LeaseTemplate
	err := s.db.WithContext(ctx).First(&t, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *TemplateStore) Create(ctx context.Context, t *models.LeaseTemplate) error {
	return s.db.WithContext(ctx).Create(t).Error
}

func (s *TemplateStore) Update(ctx context.Context, t *models.LeaseTemplate) error {
	return s.db.WithContext(ctx).Save(t).Error
}

func (s *TemplateStore) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&models.LeaseTemplate{}, id).Error
}
