// Package signatures — сбор подписей по договору и детект кворума.
// Обязательный набор: все арендаторы договора плюс landlord.
package signatures

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"quarters/internal/audit"
	"quarters/internal/models"
	"quarters/internal/notify"
	"quarters/internal/repo"
)

type Collector struct {
	leases *repo.LeaseStore
	sigs   *repo.SignatureStore
	audit  *audit.Recorder
	events notify.Broadcaster
	now    func() time.Time
}

func NewCollector(leases *repo.LeaseStore, sigs *repo.SignatureStore, rec *audit.Recorder, events notify.Broadcaster) *Collector {
	return &Collector{
		leases: leases, sigs: sigs, audit: rec, events: events,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// integrityHash — sha256 артефакта вместе с метаданными размещения;
// map в Go сериализуется с сортированными ключами, порядок стабилен.
func integrityHash(artifactRef string, placement []byte) string {
	h := sha256.New()
	h.Write([]byte(artifactRef))
	h.Write(placement)
	return hex.EncodeToString(h.Sum(nil))
}

// Submit записывает подпись подписанта. Повторная подпись той же стороны —
// repo.ErrConflict (идемпотентный отказ, не перезапись).
func (c *Collector) Submit(ctx context.Context, leaseID uint, actor models.Actor, artifactRef string, placement map[string]any, origin models.Origin) (*models.Signature, error) {
	roster, err := c.leases.RequiredSigners(ctx, leaseID)
	if err != nil {
		return nil, err
	}
	role := ""
	for _, s := range roster {
		if s.UserID == actor.UserID {
			role = s.Role
			break
		}
	}
	if role == "" {
		return nil, repo.ErrUnauthorized
	}

	placementJSON, err := json.Marshal(placement)
	if err != nil {
		return nil, err
	}
	sig := &models.Signature{
		LeaseID:     leaseID,
		SignerID:    actor.UserID,
		Role:        role,
		ArtifactRef: artifactRef,
		Placement:   datatypes.JSON(placementJSON),
		Hash:        integrityHash(artifactRef, placementJSON),
		SignedAt:    c.now(),
	}
	if err := c.sigs.Create(ctx, sig); err != nil {
		return nil, err
	}

	c.audit.Record(ctx, actor, "signed lease", "lease", leaseID, origin)
	c.events.Publish(notify.Event{Name: notify.EventSignatureUpdated, LeaseID: leaseID})

	// кворум пересчитывается по свежему набору: и roster, и подписи
	// читаются заново после записи, иначе арендатор, привязанный между
	// чтениями, исказил бы проверку; MarkExecuted выбирает единственного
	// отправителя completion-события
	complete, err := c.isComplete(ctx, leaseID)
	if err != nil {
		return sig, err
	}
	if complete {
		flipped, err := c.leases.MarkExecuted(ctx, leaseID)
		if err != nil {
			return sig, err
		}
		if flipped {
			c.audit.Record(ctx, actor, "lease fully executed", "lease", leaseID, origin)
			c.events.Publish(notify.Event{Name: notify.EventLeaseExecuted, LeaseID: leaseID})
			c.events.Publish(notify.Event{Name: notify.EventStatsUpdated, LeaseID: leaseID})
		}
	}
	return sig, nil
}

func (c *Collector) isComplete(ctx context.Context, leaseID uint) (bool, error) {
	roster, err := c.leases.RequiredSigners(ctx, leaseID)
	if err != nil {
		return false, err
	}
	recorded, err := c.sigs.ListByLease(ctx, leaseID)
	if err != nil {
		return false, err
	}
	signed := make(map[uint]bool, len(recorded))
	for _, s := range recorded {
		signed[s.SignerID] = true
	}
	for _, s := range roster {
		if !signed[s.UserID] {
			return false, nil
		}
	}
	return true, nil
}

// SignerStatus — строка сводки по подписанту.
type SignerStatus struct {
	SignerID uint       `json:"signer_id"`
	Role     string     `json:"role"`
	Signed   bool       `json:"signed"`
	SignedAt *time.Time `json:"signed_at,omitempty"`
}

// Status сливает обязательный набор с записанными подписями;
// неподписавшие получают signed=false, signed_at=null.
func (c *Collector) Status(ctx context.Context, leaseID uint) ([]SignerStatus, error) {
	roster, err := c.leases.RequiredSigners(ctx, leaseID)
	if err != nil {
		return nil, err
	}
	recorded, err := c.sigs.ListByLease(ctx, leaseID)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Signature, len(recorded))
	for _, s := range recorded {
		byID[s.SignerID] = s
	}
	out := make([]SignerStatus, 0, len(roster))
	for _, s := range roster {
		st := SignerStatus{SignerID: s.UserID, Role: s.Role}
		if rec, ok := byID[s.UserID]; ok {
			st.Signed = true
			t := rec.SignedAt
			st.SignedAt = &t
		}
		out = append(out, st)
	}
	return out, nil
}
