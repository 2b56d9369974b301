// Package billing — периодические платежи аренды и ручные начисления.
package billing

import (
	"context"
	"errors"
	"time"

	"quarters/internal/logs"
	"quarters/internal/models"
	"quarters/internal/notify"
	"quarters/internal/repo"
)

// Generator создаёт платёж "Monthly Rent" не более одного раза на
// (договор, due date, описание). Идемпотентность обеспечивает уникальный
// индекс в БД, а не предварительная проверка: гонка двух запусков
// разрешается как ErrConflict на второй вставке.
type Generator struct {
	leases  *repo.LeaseStore
	charges *repo.ChargeStore
	mailer  notify.Mailer
}

func NewGenerator(leases *repo.LeaseStore, charges *repo.ChargeStore, mailer notify.Mailer) *Generator {
	return &Generator{leases: leases, charges: charges, mailer: mailer}
}

// Summary — итог одного прогона.
type Summary struct {
	Created  int `json:"created"`
	Existing int `json:"existing"`
	Skipped  int `json:"skipped"` // due date ещё впереди
	Planned  int `json:"planned"` // только в dry-run
}

// dueDateFor — due date текущего периода: месяц refDate, день due_day
// (обрезается по длине месяца: 31-е в феврале → 28/29-е).
func dueDateFor(ref time.Time, dueDay int) time.Time {
	y, m, _ := ref.UTC().Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	day := dueDay
	if day < 1 {
		day = 1
	}
	if day > last {
		day = last
	}
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Generate — батч по всем договорам, чей срок покрывает refDate.
// Платёж будущего периода не создаётся: due date строго позже refDate — skip.
func (g *Generator) Generate(ctx context.Context, refDate time.Time, dryRun bool) (*Summary, error) {
	ref := dateOnly(refDate)
	active, err := g.leases.ActiveOn(ctx, ref)
	if err != nil {
		return nil, err
	}
	logs.Logger.Infof("billing: run ref=%s leases=%d dry_run=%v", ref.Format("2006-01-02"), len(active), dryRun)

	sum := &Summary{}
	for _, l := range active {
		due := dueDateFor(ref, l.DueDay)
		if due.After(ref) {
			sum.Skipped++
			continue
		}

		if dryRun {
			logs.Logger.Infof("billing: would create charge lease=%d due=%s amount=%d",
				l.ID, due.Format("2006-01-02"), l.RentAmount)
			sum.Planned++
			continue
		}

		c := &models.Charge{
			LeaseID:     l.ID,
			Description: models.ChargeDescriptionRent,
			Amount:      l.RentAmount,
			DueDate:     due,
		}
		err := g.charges.Create(ctx, c)
		if errors.Is(err, repo.ErrConflict) {
			// уже есть — no-op, побочных эффектов нет
			logs.Logger.Debugf("billing: rent already exists lease=%d due=%s", l.ID, due.Format("2006-01-02"))
			sum.Existing++
			continue
		}
		if err != nil {
			return sum, err
		}
		sum.Created++
		logs.Logger.Infof("billing: created charge id=%d lease=%d due=%s", c.ID, l.ID, due.Format("2006-01-02"))

		// уведомление — best-effort, платёж уже создан
		if tenant, err := g.leases.PrimaryTenant(ctx, l.ID); err == nil {
			if err := g.mailer.RentReminder(ctx, tenant.Email, tenant.Name, l.RentAmount, due); err != nil {
				logs.Logger.Warnf("billing: rent reminder failed lease=%d to=%s: %v", l.ID, tenant.Email, err)
			}
		} else {
			logs.Logger.Warnf("billing: no primary tenant for lease=%d: %v", l.ID, err)
		}
	}
	logs.Logger.Infof("billing: done created=%d existing=%d skipped=%d", sum.Created, sum.Existing, sum.Skipped)
	return sum, nil
}
