package audit

import (
	"bytes"
	"context"
	"encoding/csv"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"quarters/internal/models"
	"quarters/internal/repo"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Property{}, &models.Unit{},
		&models.Lease{}, &models.AuditEvent{},
	))
	return db
}

func exportRows(t *testing.T, e *Exporter, actor models.Actor) [][]string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, e.WriteCSV(context.Background(), actor, &buf))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestRecordAndExport(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	rec := NewRecorder(repo.NewAuditStore(db))

	rec.Record(ctx, models.Actor{UserID: 5, Email: "l@example.com"}, "sent lease invite", "lease", 10,
		models.Origin{IP: "10.0.0.1", UserAgent: "curl/8"})
	rec.Record(ctx, models.Actor{UserID: 6, Email: "t@example.com"}, "signed lease", "lease", 10, models.Origin{})

	e := NewExporter(repo.NewAuditStore(db), repo.NewLeaseStore(db))
	rows := exportRows(t, e, models.Actor{Role: models.RoleAdmin})

	require.Len(t, rows, 3) // header + 2
	assert.Equal(t, []string{
		"id", "user_id", "email", "action", "object_type", "object_id",
		"ip_address", "user_agent", "created_at",
	}, rows[0])

	actions := []string{rows[1][3], rows[2][3]}
	assert.ElementsMatch(t, []string{"sent lease invite", "signed lease"}, actions)
}

func TestExportScopedByRole(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	rec := NewRecorder(repo.NewAuditStore(db))

	// landlord 5 владеет property→unit→lease цепочкой
	prop := models.Property{OwnerID: 5, Address: "12 Main St"}
	require.NoError(t, db.Create(&prop).Error)
	unit := models.Unit{PropertyID: prop.ID, UnitNumber: "4B"}
	require.NoError(t, db.Create(&unit).Error)
	lease := models.Lease{UnitID: unit.ID, LandlordID: 5, RentAmount: 1}
	require.NoError(t, db.Create(&lease).Error)

	rec.Record(ctx, models.Actor{UserID: 6}, "signed lease", "lease", lease.ID, models.Origin{})
	// чужой объект с таким же типом
	rec.Record(ctx, models.Actor{UserID: 7}, "signed lease", "lease", lease.ID+100, models.Origin{})
	// действие самого tenant 6
	rec.Record(ctx, models.Actor{UserID: 6}, "logged in", "user", 6, models.Origin{})

	e := NewExporter(repo.NewAuditStore(db), repo.NewLeaseStore(db))

	// admin видит всё
	assert.Len(t, exportRows(t, e, models.Actor{Role: models.RoleAdmin}), 4)

	// landlord — только события по своим объектам
	rows := exportRows(t, e, models.Actor{UserID: 5, Role: models.RoleLandlord})
	require.Len(t, rows, 2)
	assert.Equal(t, "signed lease", rows[1][3])

	// tenant — только собственные действия
	rows = exportRows(t, e, models.Actor{UserID: 6, Role: models.RoleTenant})
	require.Len(t, rows, 3)

	// landlord без объектов
	var buf bytes.Buffer
	err := e.WriteCSV(ctx, models.Actor{UserID: 99, Role: models.RoleLandlord}, &buf)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestRecorderBestEffort(t *testing.T) {
	// nil-recorder и recorder без store не паникуют
	var r *Recorder
	r.Record(context.Background(), models.Actor{}, "x", "lease", 1, models.Origin{})
	NewRecorder(nil).Record(context.Background(), models.Actor{}, "x", "lease", 1, models.Origin{})
}
