// Package payments — сверка событий платёжного шлюза с платежами.
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"quarters/internal/audit"
	"quarters/internal/logs"
	"quarters/internal/models"
	"quarters/internal/repo"
)

// Тип события завершённой оплаты.
const eventCheckoutCompleted = "checkout.session.completed"

// gatewayEvent — интересующая нас часть payload'а шлюза.
type gatewayEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			Metadata map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

type Reconciler struct {
	charges   *repo.ChargeStore
	audit     *audit.Recorder
	secret    string
	tolerance time.Duration
	now       func() time.Time
}

func NewReconciler(charges *repo.ChargeStore, rec *audit.Recorder, secret string, tolerance time.Duration) *Reconciler {
	if tolerance <= 0 {
		tolerance = 5 * time.Minute
	}
	return &Reconciler{
		charges: charges, audit: rec, secret: secret, tolerance: tolerance,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// HandleEvent обрабатывает одно событие шлюза (at-least-once доставка).
//   - подпись не сошлась → repo.ErrUnauthorized, состояние не меняется;
//   - неизвестный тип → принять и игнорировать (ack, чтобы шлюз не
//     зациклился на redelivery);
//   - повтор для уже оплаченного платежа → no-op, не ошибка.
func (rc *Reconciler) HandleEvent(ctx context.Context, payload []byte, sigHeader string, origin models.Origin) error {
	if err := verifySignature(rc.secret, payload, sigHeader, rc.tolerance, rc.now()); err != nil {
		logs.Logger.Warnf("payments: webhook signature rejected ip=%s: %v", origin.IP, err)
		return repo.ErrUnauthorized
	}

	var ev gatewayEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		logs.Logger.Warnf("payments: malformed event payload: %v", err)
		return nil // подпись валидна, мусор внутри — ack и забыть
	}

	if ev.Type != eventCheckoutCompleted {
		logs.Logger.Debugf("payments: ignoring event type=%q", ev.Type)
		return nil
	}

	raw := ev.Data.Object.Metadata["charge_id"]
	chargeID, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || chargeID == 0 {
		logs.Logger.Warnf("payments: completed checkout without charge_id metadata=%q", raw)
		return nil
	}

	already, err := rc.charges.MarkPaid(ctx, uint(chargeID))
	if errors.Is(err, repo.ErrNotFound) {
		logs.Logger.Warnf("payments: charge %d not found for completed checkout", chargeID)
		return nil
	}
	if err != nil {
		return err
	}
	if already {
		logs.Logger.Debugf("payments: charge %d already paid (redelivery)", chargeID)
		return nil
	}

	logs.Logger.Infof("payments: charge %d marked as paid", chargeID)
	rc.audit.Record(ctx, models.Actor{Email: "payment-gateway"}, "charge paid", "payment", uint(chargeID), origin)
	return nil
}
