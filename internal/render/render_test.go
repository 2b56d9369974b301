package render

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"quarters/internal/models"
	"quarters/internal/repo"
)

func TestInterpolate(t *testing.T) {
	vars := map[string]string{"tenant_name": "Alice", "rent_amount": "1250.00"}

	got := Interpolate("Hi {{tenant_name}}, rent is {{ rent_amount }} for {{unit_number}}.", vars)
	assert.Equal(t, "Hi Alice, rent is 1250.00 for .", got)
}

func TestInterpolateNotRecursive(t *testing.T) {
	// значение с плейсхолдером не раскрывается повторно
	vars := map[string]string{"a": "{{b}}", "b": "boom"}

	got := Interpolate("x {{a}} y", vars)
	assert.Equal(t, "x {{b}} y", got)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Property{}, &models.Unit{},
		&models.LeaseTemplate{}, &models.Lease{}, &models.LeaseTenant{},
	))
	return db
}

func TestRenderLease(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	tenant := models.User{Email: "alice@example.com", Name: "Alice", Role: models.RoleTenant}
	require.NoError(t, db.Create(&tenant).Error)
	prop := models.Property{OwnerID: 99, Address: "12 Main St"}
	require.NoError(t, db.Create(&prop).Error)
	unit := models.Unit{PropertyID: prop.ID, UnitNumber: "4B"}
	require.NoError(t, db.Create(&unit).Error)
	tpl := models.LeaseTemplate{Name: "standard", Content: "Lease for {{tenant_name}} at {{property_address}} unit {{unit_number}}, {{lease_start}}..{{lease_end}}, rent {{rent_amount}}"}
	require.NoError(t, db.Create(&tpl).Error)
	lease := models.Lease{
		UnitID: unit.ID, LandlordID: 99, TemplateID: tpl.ID,
		StartDate:  time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC),
		RentAmount: 125000, DueDay: 5,
	}
	require.NoError(t, db.Create(&lease).Error)
	require.NoError(t, db.Create(&models.LeaseTenant{LeaseID: lease.ID, TenantID: tenant.ID, IsPrimary: true}).Error)

	r := New(repo.NewLeaseStore(db))
	got, err := r.Render(ctx, lease.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lease for Alice at 12 Main St unit 4B, 2024-05-01..2025-04-30, rent 1250.00", got)
}

func TestRenderMissingLinks(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	r := New(repo.NewLeaseStore(db))

	_, err := r.Render(ctx, 12345)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	// договор есть, но нет шаблона/unit/tenant
	lease := models.Lease{UnitID: 1, LandlordID: 1, TemplateID: 1,
		StartDate: time.Now(), EndDate: time.Now(), RentAmount: 1}
	require.NoError(t, db.Create(&lease).Error)
	_, err = r.Render(ctx, lease.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}
