package approval

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"quarters/internal/audit"
	"quarters/internal/models"
	"quarters/internal/notify"
	"quarters/internal/render"
	"quarters/internal/repo"
	"quarters/internal/seal"
	"quarters/internal/token"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Property{}, &models.Unit{},
		&models.LeaseTemplate{}, &models.Lease{}, &models.LeaseTenant{},
		&models.AuditEvent{},
	))
	return db
}

type fixture struct {
	db     *gorm.DB
	svc    *Service
	tokens *token.Service
	sealer *seal.Sealer
	hub    *notify.Hub
	tenant models.User
	lease  models.Lease
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := openTestDB(t)
	ctx := context.Background()

	tenant := models.User{Email: "alice@example.com", Name: "Alice", Role: models.RoleTenant, Verified: true}
	require.NoError(t, db.Create(&tenant).Error)
	prop := models.Property{OwnerID: 7, Address: "12 Main St"}
	require.NoError(t, db.Create(&prop).Error)
	unit := models.Unit{PropertyID: prop.ID, UnitNumber: "4B"}
	require.NoError(t, db.Create(&unit).Error)
	tpl := models.LeaseTemplate{Name: "standard", Content: "Lease for {{tenant_name}}, rent {{rent_amount}}"}
	require.NoError(t, db.Create(&tpl).Error)
	lease := models.Lease{
		UnitID: unit.ID, LandlordID: 7, TemplateID: tpl.ID,
		StartDate:  time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC),
		RentAmount: 125000, DueDay: 5,
	}
	require.NoError(t, db.Create(&lease).Error)
	require.NoError(t, db.Create(&models.LeaseTenant{LeaseID: lease.ID, TenantID: tenant.ID, IsPrimary: true}).Error)

	blobs := seal.FSStore{Root: t.TempDir()}
	require.NoError(t, blobs.Put(ctx, "templates/base.txt", []byte("BASE DOCUMENT")))

	leases := repo.NewLeaseStore(db)
	tokens := token.New("test-secret")
	hub := notify.NewHub()
	sealer := seal.New(seal.TextStamper{}, blobs, "templates/base.txt")
	svc := New(leases, repo.NewUserStore(db), tokens, render.New(leases), sealer,
		audit.NewRecorder(repo.NewAuditStore(db)), notify.LogMailer{}, hub, time.Hour)

	return &fixture{db: db, svc: svc, tokens: tokens, sealer: sealer, hub: hub, tenant: tenant, lease: lease}
}

func (f *fixture) storedToken(t *testing.T) string {
	t.Helper()
	var l models.Lease
	require.NoError(t, f.db.First(&l, f.lease.ID).Error)
	require.NotNil(t, l.ApprovalToken)
	return *l.ApprovalToken
}

func (f *fixture) reload(t *testing.T) models.Lease {
	t.Helper()
	var l models.Lease
	require.NoError(t, f.db.First(&l, f.lease.ID).Error)
	return l
}

func auditActions(t *testing.T, db *gorm.DB) []string {
	t.Helper()
	var rows []models.AuditEvent
	require.NoError(t, db.Order("id asc").Find(&rows).Error)
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Action)
	}
	return out
}

func TestInviteAndApprove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := models.Actor{UserID: f.tenant.ID, Email: f.tenant.Email, Name: f.tenant.Name, Role: models.RoleTenant}

	require.NoError(t, f.svc.Invite(ctx, f.lease.ID, f.tenant.Email, models.Actor{UserID: 7, Role: models.RoleLandlord}, models.Origin{IP: "10.0.0.1"}))
	raw := f.storedToken(t)

	l := f.reload(t)
	require.NotNil(t, l.ApprovalTokenExpires)
	assert.WithinDuration(t, time.Now().UTC().Add(time.Hour), *l.ApprovalTokenExpires, time.Minute)

	res, err := f.svc.Approve(ctx, raw, actor, models.Origin{IP: "10.0.0.2"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.DocumentPath)
	assert.Len(t, res.DocumentHash, 64)

	l = f.reload(t)
	assert.True(t, l.Approved)
	assert.Nil(t, l.ApprovalToken)
	assert.NotNil(t, l.ApprovalDate)
	assert.Contains(t, l.TemplateSnapshot, "Lease for Alice, rent 1250.00")
	assert.Equal(t, res.DocumentPath, l.DocumentPath)

	// артефакт на месте и хэш сходится
	require.NoError(t, f.sealer.Verify(ctx, l.DocumentPath, l.DocumentHash))

	// повторное одобрение тем же токеном невозможно
	_, err = f.svc.Approve(ctx, raw, actor, models.Origin{})
	assert.ErrorIs(t, err, repo.ErrNotFound)

	assert.Equal(t, []string{"sent lease invite", "approved lease"}, auditActions(t, f.db))
}

func TestInviteBeforeTenantAssigned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// свежий договор: ни привязанных арендаторов, ни шаблона
	bare := models.Lease{
		UnitID: f.lease.UnitID, LandlordID: 7,
		StartDate:  time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC),
		RentAmount: 90000, DueDay: 1,
	}
	require.NoError(t, f.db.Create(&bare).Error)

	require.NoError(t, f.svc.Invite(ctx, bare.ID, "carol@example.com",
		models.Actor{UserID: 7, Role: models.RoleLandlord}, models.Origin{}))

	var l models.Lease
	require.NoError(t, f.db.First(&l, bare.ID).Error)
	require.NotNil(t, l.ApprovalToken)

	claims, err := f.tokens.Verify(token.KindLeaseApproval, *l.ApprovalToken)
	require.NoError(t, err)
	assert.Equal(t, "carol@example.com", claims.TenantEmail)
	assert.Zero(t, claims.TenantID) // ещё не зарегистрирована

	// страница одобрения открывается по токену до привязки
	d, err := f.svc.Details(ctx, *l.ApprovalToken)
	require.NoError(t, err)
	assert.Equal(t, "4B", d.UnitNumber)
	assert.Equal(t, "12 Main St", d.PropertyAddress)
}

func TestApproveWrongEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Invite(ctx, f.lease.ID, f.tenant.Email, models.Actor{}, models.Origin{}))
	raw := f.storedToken(t)

	_, err := f.svc.Approve(ctx, raw, models.Actor{Email: "mallory@example.com"}, models.Origin{})
	assert.ErrorIs(t, err, repo.ErrUnauthorized)

	// состояние не изменилось: договор всё ещё Invited
	l := f.reload(t)
	assert.False(t, l.Approved)
	assert.NotNil(t, l.ApprovalToken)
}

func TestDeclineIsTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := models.Actor{UserID: f.tenant.ID, Email: f.tenant.Email, Role: models.RoleTenant}

	require.NoError(t, f.svc.Invite(ctx, f.lease.ID, f.tenant.Email, models.Actor{}, models.Origin{}))
	raw := f.storedToken(t)

	require.NoError(t, f.svc.Decline(ctx, raw, actor, models.Origin{}))

	l := f.reload(t)
	assert.False(t, l.Approved)
	assert.Nil(t, l.ApprovalToken)
	assert.Empty(t, l.DocumentPath)

	// токен затёрт — approve после decline невозможен
	_, err := f.svc.Approve(ctx, raw, actor, models.Origin{})
	assert.ErrorIs(t, err, repo.ErrNotFound)

	assert.Contains(t, auditActions(t, f.db), "declined lease")
}

func TestApproveExpiredToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	raw, err := f.tokens.Issue(token.KindLeaseApproval, token.Claims{
		LeaseID: f.lease.ID, TenantEmail: f.tenant.Email,
	}, -time.Second)
	require.NoError(t, err)
	require.NoError(t, repo.NewLeaseStore(f.db).SetApprovalToken(ctx, f.lease.ID, raw, time.Now().Add(-time.Second)))

	_, err = f.svc.Approve(ctx, raw, models.Actor{Email: f.tenant.Email}, models.Origin{})
	assert.ErrorIs(t, err, token.ErrExpired)
}

func TestReinviteRevokesOldToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := models.Actor{UserID: f.tenant.ID, Email: f.tenant.Email, Role: models.RoleTenant}

	require.NoError(t, f.svc.Invite(ctx, f.lease.ID, f.tenant.Email, models.Actor{}, models.Origin{}))
	old := f.storedToken(t)

	time.Sleep(1100 * time.Millisecond) // iat меняется посекундно
	require.NoError(t, f.svc.Invite(ctx, f.lease.ID, f.tenant.Email, models.Actor{}, models.Origin{}))
	fresh := f.storedToken(t)
	require.NotEqual(t, old, fresh)

	// старый JWT криптографически валиден, но сохранённый токен — другой
	_, err := f.svc.Approve(ctx, old, actor, models.Origin{})
	assert.ErrorIs(t, err, repo.ErrNotFound)

	_, err = f.svc.Approve(ctx, fresh, actor, models.Origin{})
	require.NoError(t, err)
}

func TestAssignTenant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bob := models.User{Email: "bob@example.com", Name: "Bob", Role: models.RoleTenant}
	require.NoError(t, f.db.Create(&bob).Error)

	tok, err := f.svc.AssignTenant(ctx, f.lease.ID, bob.Email, false, models.Actor{Role: models.RoleLandlord}, models.Origin{})
	require.NoError(t, err)

	claims, err := f.tokens.Verify(token.KindTenantInvite, tok)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, claims.TenantID)
	assert.Equal(t, f.lease.ID, claims.LeaseID)

	// повторная привязка той же пары
	_, err = f.svc.AssignTenant(ctx, f.lease.ID, bob.Email, false, models.Actor{}, models.Origin{})
	assert.ErrorIs(t, err, repo.ErrConflict)

	// не-tenant назначить нельзя
	_, err = f.svc.AssignTenant(ctx, f.lease.ID, "nobody@example.com", false, models.Actor{}, models.Origin{})
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestDetails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Invite(ctx, f.lease.ID, f.tenant.Email, models.Actor{}, models.Origin{}))
	raw := f.storedToken(t)

	d, err := f.svc.Details(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, f.lease.ID, d.LeaseID)
	assert.Equal(t, "4B", d.UnitNumber)
	assert.Equal(t, "12 Main St", d.PropertyAddress)
	assert.Equal(t, f.tenant.Email, d.TenantEmail)
	assert.EqualValues(t, 125000, d.RentAmount)

	_, err = f.svc.Details(ctx, "garbage")
	assert.ErrorIs(t, err, token.ErrInvalid)
}
