// Package render — подстановка переменных договора в сохранённый шаблон.
package render

import (
	"context"
	"regexp"

	"quarters/internal/models"
	"quarters/internal/repo"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

// Interpolate — один проход по {{name}}; отсутствующий ключ → пустая строка.
// Значение подстановки никогда не сканируется повторно.
func Interpolate(content string, vars map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(content, func(m string) string {
		key := placeholderRe.FindStringSubmatch(m)[1]
		return vars[key]
	})
}

type Renderer struct {
	leases *repo.LeaseStore
}

func New(leases *repo.LeaseStore) *Renderer { return &Renderer{leases: leases} }

// Render собирает снапшот документа договора. Отсутствие договора,
// шаблона, unit/property или primary-арендатора → repo.ErrNotFound.
func (r *Renderer) Render(ctx context.Context, leaseID uint) (string, error) {
	d, err := r.leases.LoadRenderData(ctx, leaseID)
	if err != nil {
		return "", err
	}
	vars := map[string]string{
		"tenant_name":      d.TenantName,
		"tenant_email":     d.TenantEmail,
		"lease_start":      d.Lease.StartDate.Format("2006-01-02"),
		"lease_end":        d.Lease.EndDate.Format("2006-01-02"),
		"rent_amount":      models.FormatAmount(d.Lease.RentAmount),
		"unit_number":      d.UnitNumber,
		"property_address": d.PropertyAddress,
	}
	return Interpolate(d.TemplateContent, vars), nil
}
