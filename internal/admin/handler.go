package admin

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"quarters/internal/middleware"
	"quarters/internal/models"
	"quarters/internal/tarball"
)

type Handler struct {
	d Dependencies
	t pageTemplates // наборы шаблонов по страницам
}

// действия из панели идут от имени служебного актёра
func uiActor() models.Actor {
	return models.Actor{Email: "admin-ui", Name: "Admin UI", Role: models.RoleAdmin}
}

func (h *Handler) redirect(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, path, http.StatusFound)
	}
}

func (h *Handler) render(w http.ResponseWriter, page string, data any) {
	t, ok := h.t[page]
	if !ok {
		http.Error(w, "template not found: "+page, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, "layout", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// ---------- Pages ----------

type leaseRow struct {
	Lease  models.Lease
	Rent   string
	Status string
}

func leaseStatus(l models.Lease) string {
	switch {
	case l.ExecutedAt != nil:
		return "executed"
	case l.Approved:
		return "approved"
	case l.ApprovalToken != nil:
		return "invited"
	default:
		return "draft"
	}
}

func (h *Handler) LeasesList(w http.ResponseWriter, r *http.Request) {
	leases, _ := h.d.Leases.List(r.Context(), 200)
	rows := make([]leaseRow, 0, len(leases))
	q := strings.TrimSpace(r.URL.Query().Get("status"))
	for _, l := range leases {
		st := leaseStatus(l)
		if q != "" && st != q {
			continue
		}
		rows = append(rows, leaseRow{Lease: l, Rent: models.FormatAmount(l.RentAmount), Status: st})
	}
	h.render(w, "leases_list.tmpl", map[string]any{
		"Title":  "Leases",
		"Rows":   rows,
		"Status": q,
	})
}

func (h *Handler) LeaseDetail(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	l, err := h.d.Leases.GetByID(r.Context(), uint(id))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	signers, _ := h.d.Collector.Status(r.Context(), l.ID)
	charges, _ := h.d.Charges.ListByLease(r.Context(), l.ID)

	type chargeRow struct {
		Charge models.Charge
		Amount string
	}
	crs := make([]chargeRow, 0, len(charges))
	for _, c := range charges {
		crs = append(crs, chargeRow{Charge: c, Amount: models.FormatAmount(c.Amount)})
	}

	h.render(w, "lease_detail.tmpl", map[string]any{
		"Title":   fmt.Sprintf("Lease #%d", l.ID),
		"Lease":   l,
		"Status":  leaseStatus(*l),
		"Rent":    models.FormatAmount(l.RentAmount),
		"Signers": signers,
		"Charges": crs,
	})
}

func (h *Handler) TemplatesList(w http.ResponseWriter, r *http.Request) {
	tpls, _ := h.d.Templates.List(r.Context())
	h.render(w, "templates_list.tmpl", map[string]any{
		"Title": "Lease Templates", "Rows": tpls,
	})
}

func (h *Handler) TemplateNew(w http.ResponseWriter, r *http.Request) {
	h.render(w, "template_edit.tmpl", map[string]any{
		"Title": "Create Template", "IsNew": true,
	})
}

func (h *Handler) TemplateEdit(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	t, err := h.d.Templates.GetByID(r.Context(), uint(id))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	h.render(w, "template_edit.tmpl", map[string]any{
		"Title": "Edit Template", "Tpl": t, "IsNew": false,
	})
}

// ---------- API ----------

func (h *Handler) APISendInvite(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	email := strings.TrimSpace(r.FormValue("email"))
	if err := h.d.Approval.Invite(r.Context(), uint(id), email, uiActor(), middleware.OriginFrom(r)); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

func (h *Handler) APIAssignTenant(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	email := strings.TrimSpace(r.FormValue("email"))
	primary := r.FormValue("primary") == "1"
	tok, err := h.d.Approval.AssignTenant(r.Context(), uint(id), email, primary, uiActor(), middleware.OriginFrom(r))
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, map[string]any{"ok": true, "invite_token": tok})
}

func (h *Handler) APIGenerateCharges(w http.ResponseWriter, r *http.Request) {
	ref := time.Now().UTC()
	if s := r.FormValue("date"); s != "" {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			http.Error(w, "bad date", 400)
			return
		}
		ref = d
	}
	sum, err := h.d.Generator.Generate(r.Context(), ref, r.FormValue("dry_run") == "1")
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, sum)
}

// APIDocumentsArchive отдаёт tar.gz всех исполненных договоров
// с manifest.csv (lease_id, path, sha256).
func (h *Handler) APIDocumentsArchive(w http.ResponseWriter, r *http.Request) {
	leases, err := h.d.Leases.ListExecuted(r.Context())
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	var files []tarball.File
	manifest := strings.Builder{}
	manifest.WriteString("lease_id,path,sha256\n")
	for _, l := range leases {
		data, err := h.d.Docs.Get(r.Context(), l.DocumentPath)
		if err != nil {
			continue // артефакт мог быть перемещён; в manifest не попадает
		}
		files = append(files, tarball.File{Name: l.DocumentPath, Data: data})
		fmt.Fprintf(&manifest, "%d,%s,%s\n", l.ID, l.DocumentPath, l.DocumentHash)
	}
	blob, sum, err := tarball.Build(files, map[string][]byte{"manifest.csv": []byte(manifest.String())})
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Disposition", `attachment; filename="signed-leases.tar.gz"`)
	w.Header().Set("X-Archive-Checksum", sum)
	_, _ = w.Write(blob)
}

func (h *Handler) APITemplateCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", 400)
		return
	}
	t := models.LeaseTemplate{
		Name:    strings.TrimSpace(r.FormValue("name")),
		Content: r.FormValue("content"),
	}
	if t.Name == "" {
		http.Error(w, "name required", 400)
		return
	}
	if err := h.d.Templates.Create(r.Context(), &t); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	http.Redirect(w, r, "/admin/templates", http.StatusFound)
}

func (h *Handler) APITemplateUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", 400)
		return
	}
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	t, err := h.d.Templates.GetByID(r.Context(), uint(id))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	t.Name = strings.TrimSpace(r.FormValue("name"))
	t.Content = r.FormValue("content")
	if err := h.d.Templates.Update(r.Context(), t); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	http.Redirect(w, r, "/admin/templates", http.StatusFound)
}

func (h *Handler) APITemplateDelete(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	_ = h.d.Templates.Delete(r.Context(), uint(id))
	http.Redirect(w, r, "/admin/templates", http.StatusFound)
}

// ---------- utils ----------

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
