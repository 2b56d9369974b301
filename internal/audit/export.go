package audit

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"quarters/internal/models"
	"quarters/internal/repo"
)

// Exporter — ролевой срез журнала: admin видит всё, landlord — события
// по своим объектам, остальные — только собственные.
type Exporter struct {
	audits *repo.AuditStore
	leases *repo.LeaseStore
}

func NewExporter(audits *repo.AuditStore, leases *repo.LeaseStore) *Exporter {
	return &Exporter{audits: audits, leases: leases}
}

func (e *Exporter) rowsFor(ctx context.Context, actor models.Actor) ([]models.AuditEvent, error) {
	switch actor.Role {
	case models.RoleAdmin:
		return e.audits.ListAll(ctx)
	case models.RoleLandlord:
		ids, err := e.leases.OwnedObjectIDs(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return nil, repo.ErrNotFound
		}
		return e.audits.ListForObjects(ctx, ids)
	default:
		return e.audits.ListForUser(ctx, actor.UserID)
	}
}

// WriteCSV пишет табличный экспорт журнала для актора.
func (e *Exporter) WriteCSV(ctx context.Context, actor models.Actor, w io.Writer) error {
	rows, err := e.rowsFor(ctx, actor)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"id", "user_id", "email", "action", "object_type", "object_id",
		"ip_address", "user_agent", "created_at",
	}); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			strconv.FormatUint(uint64(r.ID), 10),
			strconv.FormatUint(uint64(r.UserID), 10),
			r.Email,
			r.Action,
			r.ObjectType,
			strconv.FormatUint(uint64(r.ObjectID), 10),
			r.IPAddress,
			r.UserAgent,
			r.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
