package admin

import (
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"quarters/config"
	"quarters/internal/approval"
	"quarters/internal/billing"
	"quarters/internal/repo"
	"quarters/internal/seal"
	"quarters/internal/signatures"
)

type Dependencies struct {
	DB        *gorm.DB
	Leases    *repo.LeaseStore
	Charges   *repo.ChargeStore
	Templates *repo.TemplateStore
	Approval  *approval.Service
	Collector *signatures.Collector
	Generator *billing.Generator
	Docs      seal.BlobStore
	CFG       *config.Config
}

// Attach монтирует ops-панель под /admin. Панель не ходит через session
// JWT — как и остальные служебные ручки, она живёт за bind-адресом сервера.
func Attach(r *mux.Router, d Dependencies) {
	h := &Handler{d: d, t: parseTemplates()}
	sub := r.PathPrefix("/admin").Subrouter()

	// pages
	sub.HandleFunc("", h.redirect("/admin/leases")).Methods("GET")
	sub.HandleFunc("/", h.redirect("/admin/leases")).Methods("GET")
	sub.HandleFunc("/leases", h.LeasesList).Methods("GET")
	sub.HandleFunc("/leases/{id:[0-9]+}", h.LeaseDetail).Methods("GET")
	sub.HandleFunc("/templates", h.TemplatesList).Methods("GET")
	sub.HandleFunc("/templates/new", h.TemplateNew).Methods("GET")
	sub.HandleFunc("/templates/{id:[0-9]+}/edit", h.TemplateEdit).Methods("GET")

	// api (JSON or redirect back)
	sub.HandleFunc("/api/leases/{id:[0-9]+}/invite", h.APISendInvite).Methods("POST")
	sub.HandleFunc("/api/leases/{id:[0-9]+}/tenants", h.APIAssignTenant).Methods("POST")
	sub.HandleFunc("/api/charges/generate", h.APIGenerateCharges).Methods("POST")
	sub.HandleFunc("/api/documents/archive", h.APIDocumentsArchive).Methods("GET")

	sub.HandleFunc("/api/templates", h.APITemplateCreate).Methods("POST")
	sub.HandleFunc("/api/templates/{id:[0-9]+}", h.APITemplateUpdate).Methods("POST")
	sub.HandleFunc("/api/templates/{id:[0-9]+}/delete", h.APITemplateDelete).Methods("POST")

	// static (very small)
	sub.HandleFunc("/static/style.css", serveCSS).Methods("GET")
	sub.HandleFunc("/static/app.js", serveJS).Methods("GET")
}
