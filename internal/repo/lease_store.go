package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"quarters/internal/models"
)

type LeaseStore struct{ db *gorm.DB }

func NewLeaseStore(db *gorm.DB) *LeaseStore { return &LeaseStore{db: db} }

func (s *LeaseStore) GetByID(ctx context.Context, id uint) (*models.Lease, error) {
	var l models.Lease
	err := s.db.WithContext(ctx).First(&l, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// List — последние договоры для admin-обзора.
func (s *LeaseStore) List(ctx context.Context, limit int) ([]models.Lease, error) {
	if limit <= 0 {
		limit = 200
	}
	var out []models.Lease
	err := s.db.WithContext(ctx).
		Order("updated_at desc").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListExecuted — полностью подписанные договоры с артефактом документа.
func (s *LeaseStore) ListExecuted(ctx context.Context) ([]models.Lease, error) {
	var out []models.Lease
	err := s.db.WithContext(ctx).
		Where("executed_at IS NOT NULL AND document_path <> ''").
		Order("id asc").
		Find(&out).Error
	return out, err
}

// -------- Приглашение / одобрение --------

// InviteData — минимум для письма-приглашения: lease + unit/property.
// Шаблон и primary tenant не требуются: приглашение идёт раньше
// привязки арендатора.
type InviteData struct {
	Lease           models.Lease
	UnitNumber      string
	PropertyAddress string
}

func (s *LeaseStore) LoadInviteData(ctx context.Context, leaseID uint) (*InviteData, error) {
	l, err := s.GetByID(ctx, leaseID)
	if err != nil {
		return nil, err
	}
	var unit models.Unit
	if err := s.db.WithContext(ctx).First(&unit, l.UnitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var prop models.Property
	if err := s.db.WithContext(ctx).First(&prop, unit.PropertyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &InviteData{Lease: *l, UnitNumber: unit.UnitNumber, PropertyAddress: prop.Address}, nil
}

// SetApprovalToken сохраняет выданный токен и срок на договоре (состояние Invited).
func (s *LeaseStore) SetApprovalToken(ctx context.Context, leaseID uint, token string, expires time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.Lease{}).
		Where("id = ?", leaseID).
		Updates(map[string]any{
			"approval_token":         token,
			"approval_token_expires": expires,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindForApproval — договор по (id, сохранённый токен, ещё не одобрен).
// Повторная проверка сохранённого токена реализует отзыв-перезаписью.
func (s *LeaseStore) FindForApproval(ctx context.Context, leaseID uint, token string) (*models.Lease, error) {
	var l models.Lease
	err := s.db.WithContext(ctx).
		Where("id = ? AND approval_token = ? AND approved = ?", leaseID, token, false).
		First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// ApplyApproval атомарно переводит договор в Approved: очищает токен,
// ставит флаг/дату и фиксирует артефакты. Guard по (token, approved=false)
// гарантирует, что при гонке выигрывает ровно один вызов.
func (s *LeaseStore) ApplyApproval(ctx context.Context, leaseID uint, token, snapshot, docPath, docHash string) (bool, error) {
	now := time.Now().UTC()
	res := s.db.WithContext(ctx).Model(&models.Lease{}).
		Where("id = ? AND approval_token = ? AND approved = ?", leaseID, token, false).
		Updates(map[string]any{
			"approved":               true,
			"approval_date":          now,
			"approval_token":         nil,
			"approval_token_expires": nil,
			"template_snapshot":      snapshot,
			"document_path":          docPath,
			"document_hash":          docHash,
		})
	return res.RowsAffected == 1, res.Error
}

// ApplyDecline — терминальный отказ: токен затирается под тем же guard.
func (s *LeaseStore) ApplyDecline(ctx context.Context, leaseID uint, token string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Lease{}).
		Where("id = ? AND approval_token = ? AND approved = ?", leaseID, token, false).
		Updates(map[string]any{
			"approval_token":         nil,
			"approval_token_expires": nil,
		})
	return res.RowsAffected == 1, res.Error
}

// -------- Кворум подписей --------

// Signer — участник обязательного набора подписантов.
type Signer struct {
	UserID uint
	Role   string // tenant|landlord
}

// RequiredSigners — все арендаторы договора плюс landlord.
func (s *LeaseStore) RequiredSigners(ctx context.Context, leaseID uint) ([]Signer, error) {
	l, err := s.GetByID(ctx, leaseID)
	if err != nil {
		return nil, err
	}
	var lts []models.LeaseTenant
	if err := s.db.WithContext(ctx).Where("lease_id = ?", leaseID).Find(&lts).Error; err != nil {
		return nil, err
	}
	signers := make([]Signer, 0, len(lts)+1)
	for _, lt := range lts {
		signers = append(signers, Signer{UserID: lt.TenantID, Role: models.RoleTenant})
	}
	signers = append(signers, Signer{UserID: l.LandlordID, Role: models.RoleLandlord})
	return signers, nil
}

// MarkExecuted ставит executed_at, если он ещё пуст. RowsAffected==1
// выбирает единственного отправителя completion-уведомления при гонке.
func (s *LeaseStore) MarkExecuted(ctx context.Context, leaseID uint) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Lease{}).
		Where("id = ? AND executed_at IS NULL", leaseID).
		Update("executed_at", time.Now().UTC())
	return res.RowsAffected == 1, res.Error
}

// -------- Биллинг --------

// ActiveOn — договоры, чей срок покрывает дату.
func (s *LeaseStore) ActiveOn(ctx context.Context, date time.Time) ([]models.Lease, error) {
	var out []models.Lease
	err := s.db.WithContext(ctx).
		Where("start_date <= ? AND end_date >= ?", date, date).
		Order("id asc").
		Find(&out).Error
	return out, err
}

// PrimaryTenant — основной арендатор договора (для уведомлений и рендера).
func (s *LeaseStore) PrimaryTenant(ctx context.Context, leaseID uint) (*models.User, error) {
	var lt models.LeaseTenant
	err := s.db.WithContext(ctx).
		Where("lease_id = ? AND is_primary = ?", leaseID, true).
		First(&lt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var u models.User
	err = s.db.WithContext(ctx).First(&u, lt.TenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// AssignTenant привязывает арендатора; дубликат (lease, tenant) → ErrConflict.
func (s *LeaseStore) AssignTenant(ctx context.Context, leaseID, tenantID uint, isPrimary bool) error {
	lt := models.LeaseTenant{LeaseID: leaseID, TenantID: tenantID, IsPrimary: isPrimary}
	err := s.db.WithContext(ctx).Create(&lt).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	return err
}

// -------- Данные для рендера документа --------

// RenderData — договор со всеми связями, нужными шаблону.
type RenderData struct {
	Lease           models.Lease
	TemplateContent string
	UnitNumber      string
	PropertyAddress string
	TenantName      string
	TenantEmail     string
}

// LoadRenderData собирает lease + template + unit/property + primary tenant.
// Любое отсутствующее звено → ErrNotFound.
func (s *LeaseStore) LoadRenderData(ctx context.Context, leaseID uint) (*RenderData, error) {
	d, err := s.LoadInviteData(ctx, leaseID)
	if err != nil {
		return nil, err
	}

	var tpl models.LeaseTemplate
	if err := s.db.WithContext(ctx).First(&tpl, d.Lease.TemplateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	tenant, err := s.PrimaryTenant(ctx, leaseID)
	if err != nil {
		return nil, err
	}

	return &RenderData{
		Lease:           d.Lease,
		TemplateContent: tpl.Content,
		UnitNumber:      d.UnitNumber,
		PropertyAddress: d.PropertyAddress,
		TenantName:      tenant.Name,
		TenantEmail:     tenant.Email,
	}, nil
}

// OwnedObjectIDs — id объектов (property/unit/lease), принадлежащих landlord.
// Используется для scoping аудита.
func (s *LeaseStore) OwnedObjectIDs(ctx context.Context, ownerID uint) ([]uint, error) {
	var propIDs []uint
	if err := s.db.WithContext(ctx).Model(&models.Property{}).
		Where("owner_id = ?", ownerID).Pluck("id", &propIDs).Error; err != nil {
		return nil, err
	}
	if len(propIDs) == 0 {
		return nil, nil
	}
	var unitIDs []uint
	if err := s.db.WithContext(ctx).Model(&models.Unit{}).
		Where("property_id IN ?", propIDs).Pluck("id", &unitIDs).Error; err != nil {
		return nil, err
	}
	ids := append(append([]uint{}, propIDs...), unitIDs...)
	if len(unitIDs) > 0 {
		var leaseIDs []uint
		if err := s.db.WithContext(ctx).Model(&models.Lease{}).
			Where("unit_id IN ?", unitIDs).Pluck("id", &leaseIDs).Error; err != nil {
			return nil, err
		}
		ids = append(ids, leaseIDs...)
	}
	return ids, nil
}
