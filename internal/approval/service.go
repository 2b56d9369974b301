// Package approval — жизненный цикл одобрения договора:
// Invited → Approved | Declined (оба состояния терминальные).
package approval

import (
	"context"
	"fmt"
	"time"

	"quarters/internal/audit"
	"quarters/internal/logs"
	"quarters/internal/models"
	"quarters/internal/notify"
	"quarters/internal/render"
	"quarters/internal/repo"
	"quarters/internal/seal"
	"quarters/internal/token"
)

type Service struct {
	leases   *repo.LeaseStore
	users    *repo.UserStore
	tokens   *token.Service
	renderer *render.Renderer
	sealer   *seal.Sealer
	audit    *audit.Recorder
	mailer   notify.Mailer
	events   notify.Broadcaster

	inviteTTL time.Duration
	now       func() time.Time
}

func New(
	leases *repo.LeaseStore,
	users *repo.UserStore,
	tokens *token.Service,
	renderer *render.Renderer,
	sealer *seal.Sealer,
	rec *audit.Recorder,
	mailer notify.Mailer,
	events notify.Broadcaster,
	inviteTTL time.Duration,
) *Service {
	if inviteTTL <= 0 {
		inviteTTL = 48 * time.Hour
	}
	return &Service{
		leases: leases, users: users, tokens: tokens,
		renderer: renderer, sealer: sealer, audit: rec,
		mailer: mailer, events: events,
		inviteTTL: inviteTTL,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Invite выдаёт approval-токен, сохраняет его на договоре (состояние
// Invited) и отправляет приглашение арендатору. Достаточно самого
// договора с адресом: шаблон и привязка арендатора нужны позже, на
// этапе render/approve.
func (s *Service) Invite(ctx context.Context, leaseID uint, tenantEmail string, actor models.Actor, origin models.Origin) error {
	d, err := s.leases.LoadInviteData(ctx, leaseID)
	if err != nil {
		return err
	}

	// tenantId в claims — если пользователь уже зарегистрирован
	var tenantID uint
	if u, err := s.users.GetByEmail(ctx, tenantEmail); err == nil {
		tenantID = u.ID
	}

	tok, err := s.tokens.Issue(token.KindLeaseApproval, token.Claims{
		LeaseID:     leaseID,
		TenantID:    tenantID,
		TenantEmail: tenantEmail,
	}, s.inviteTTL)
	if err != nil {
		return fmt.Errorf("approval: issue token: %w", err)
	}

	expires := s.now().Add(s.inviteTTL)
	if err := s.leases.SetApprovalToken(ctx, leaseID, tok, expires); err != nil {
		return err
	}

	// сбой почты не откатывает приглашение — токен уже сохранён
	if err := s.mailer.LeaseInvite(ctx, tenantEmail, leaseID, tok, d.PropertyAddress, d.UnitNumber); err != nil {
		logs.Logger.Warnf("approval: invite mail failed lease=%d to=%s: %v", leaseID, tenantEmail, err)
	}

	s.audit.Record(ctx, actor, "sent lease invite", "lease", leaseID, origin)
	return nil
}

// AssignTenant привязывает зарегистрированного арендатора к договору и
// выдаёт tenant-invite токен (ссылку для onboarding). Повторная привязка
// той же пары — repo.ErrConflict.
func (s *Service) AssignTenant(ctx context.Context, leaseID uint, email string, isPrimary bool, actor models.Actor, origin models.Origin) (string, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if u.Role != models.RoleTenant {
		return "", repo.ErrNotFound
	}
	if err := s.leases.AssignTenant(ctx, leaseID, u.ID, isPrimary); err != nil {
		return "", err
	}
	tok, err := s.tokens.Issue(token.KindTenantInvite, token.Claims{
		TenantID: u.ID,
		Email:    email,
		LeaseID:  leaseID,
	}, s.inviteTTL)
	if err != nil {
		return "", fmt.Errorf("approval: issue invite token: %w", err)
	}
	s.audit.Record(ctx, actor, "assigned tenant", "lease", leaseID, origin)
	s.events.Publish(notify.Event{Name: notify.EventStatsUpdated, LeaseID: leaseID})
	return tok, nil
}

// Details — данные договора для страницы одобрения по токену.
type Details struct {
	LeaseID         uint      `json:"lease_id"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	RentAmount      int64     `json:"rent_amount"`
	UnitNumber      string    `json:"unit_number"`
	PropertyAddress string    `json:"property_address"`
	TenantEmail     string    `json:"tenant_email"`
}

func (s *Service) Details(ctx context.Context, rawToken string) (*Details, error) {
	claims, err := s.tokens.Verify(token.KindLeaseApproval, rawToken)
	if err != nil {
		return nil, err
	}
	d, err := s.leases.LoadInviteData(ctx, claims.LeaseID)
	if err != nil {
		return nil, err
	}
	return &Details{
		LeaseID:         d.Lease.ID,
		StartDate:       d.Lease.StartDate,
		EndDate:         d.Lease.EndDate,
		RentAmount:      d.Lease.RentAmount,
		UnitNumber:      d.UnitNumber,
		PropertyAddress: d.PropertyAddress,
		TenantEmail:     claims.TenantEmail,
	}, nil
}

// Result — итог успешного одобрения.
type Result struct {
	DocumentPath string `json:"document_path"`
	DocumentHash string `json:"document_hash"`
}

// Approve: verify → authz → render → seal → атомарный переход.
// Флаг Approved не переключается, пока артефакты не записаны; при сбое
// после частичной записи договор остаётся Invited (осиротевший артефакт
// допустим, рассинхрон полей Lease — нет).
func (s *Service) Approve(ctx context.Context, rawToken string, actor models.Actor, origin models.Origin) (*Result, error) {
	claims, err := s.tokens.Verify(token.KindLeaseApproval, rawToken)
	if err != nil {
		return nil, err
	}
	if claims.TenantEmail != actor.Email {
		return nil, repo.ErrUnauthorized
	}

	// сохранённый токен должен совпадать: старый, но ещё валидный JWT
	// отклоняется здесь (revocation-by-overwrite)
	if _, err := s.leases.FindForApproval(ctx, claims.LeaseID, rawToken); err != nil {
		return nil, err
	}

	snapshot, err := s.renderer.Render(ctx, claims.LeaseID)
	if err != nil {
		return nil, err
	}

	date := s.now().Format("2006-01-02")
	path, hash, err := s.sealer.Seal(ctx, claims.LeaseID, actor.Name, date)
	if err != nil {
		return nil, err
	}

	ok, err := s.leases.ApplyApproval(ctx, claims.LeaseID, rawToken, snapshot, path, hash)
	if err != nil {
		return nil, err
	}
	if !ok {
		// параллельный approve/decline успел раньше
		return nil, repo.ErrNotFound
	}

	s.audit.Record(ctx, actor, "approved lease", "lease", claims.LeaseID, origin)
	s.events.Publish(notify.Event{Name: notify.EventStatsUpdated, LeaseID: claims.LeaseID})
	return &Result{DocumentPath: path, DocumentHash: hash}, nil
}

// Decline терминален: токен очищается, повторное одобрение тем же
// токеном невозможно. Артефакты не создаются.
func (s *Service) Decline(ctx context.Context, rawToken string, actor models.Actor, origin models.Origin) error {
	claims, err := s.tokens.Verify(token.KindLeaseApproval, rawToken)
	if err != nil {
		return err
	}
	if claims.TenantEmail != actor.Email {
		return repo.ErrUnauthorized
	}

	ok, err := s.leases.ApplyDecline(ctx, claims.LeaseID, rawToken)
	if err != nil {
		return err
	}
	if !ok {
		return repo.ErrNotFound
	}

	s.audit.Record(ctx, actor, "declined lease", "lease", claims.LeaseID, origin)
	return nil
}
