package billing

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"quarters/internal/audit"
	"quarters/internal/middleware"
	"quarters/internal/models"
	"quarters/internal/repo"
	"quarters/internal/token"
)

type Handler struct {
	gen     *Generator
	charges *repo.ChargeStore
	audit   *audit.Recorder
}

func NewHandler(gen *Generator, charges *repo.ChargeStore, rec *audit.Recorder) *Handler {
	return &Handler{gen: gen, charges: charges, audit: rec}
}

// POST /admin/charges/generate?date=YYYY-MM-DD&dry_run=1
// Ручной триггер того же батча, что и cron-команда.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	ref := time.Now().UTC()
	if d := r.URL.Query().Get("date"); d != "" {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			models.WriteProblem(w, http.StatusBadRequest, "Validation Error", "bad date (want YYYY-MM-DD)", nil)
			return
		}
		ref = t
	}
	dryRun := r.URL.Query().Get("dry_run") == "1"

	sum, err := h.gen.Generate(r.Context(), ref, dryRun)
	if err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "charge generation failed", nil)
		return
	}
	models.WriteJSON(w, http.StatusOK, sum)
}

// POST /charges — разовое начисление landlord'а; своё описание выводит
// его из пространства ключей "Monthly Rent".
func (h *Handler) CreateManual(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LeaseID     uint   `json:"lease_id"`
		Description string `json:"description"`
		Amount      int64  `json:"amount"`
		DueDate     string `json:"due_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		req.LeaseID == 0 || req.Description == "" || req.Amount <= 0 || req.DueDate == "" {
		models.WriteProblem(w, http.StatusBadRequest, "Validation Error", "missing lease_id, description, amount or due_date", nil)
		return
	}
	due, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		models.WriteProblem(w, http.StatusBadRequest, "Validation Error", "bad due_date (want YYYY-MM-DD)", nil)
		return
	}

	c := &models.Charge{LeaseID: req.LeaseID, Description: req.Description, Amount: req.Amount, DueDate: due}
	if err := h.charges.Create(r.Context(), c); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			models.WriteProblem(w, http.StatusConflict, "Conflict", "charge already exists for this lease/date/description", nil)
			return
		}
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to create charge", nil)
		return
	}

	actor, _ := middleware.ActorFrom(r)
	h.audit.Record(r.Context(), actor, "created charge", "charge", c.ID, middleware.OriginFrom(r))
	models.WriteJSON(w, http.StatusCreated, c)
}

// GET /leases/{id}/charges
func (h *Handler) ListByLease(w http.ResponseWriter, r *http.Request) {
	leaseID, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		models.WriteProblem(w, http.StatusBadRequest, "Validation Error", "bad lease id", nil)
		return
	}
	out, err := h.charges.ListByLease(r.Context(), leaseID)
	if err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to list charges", nil)
		return
	}
	models.WriteJSON(w, http.StatusOK, out)
}

func parseID(s string) (uint, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	return uint(v), err
}

func RegisterRoutes(r *mux.Router, h *Handler, tokens *token.Service) {
	admin := r.NewRoute().Subrouter()
	admin.Use(middleware.Authenticate(tokens),
		middleware.RequireRole(models.RoleAdmin, models.RoleLandlord, models.RoleManager))
	admin.HandleFunc("/admin/charges/generate", h.Generate).Methods(http.MethodPost)
	admin.HandleFunc("/charges", h.CreateManual).Methods(http.MethodPost)

	authed := r.NewRoute().Subrouter()
	authed.Use(middleware.Authenticate(tokens))
	authed.HandleFunc("/leases/{id:[0-9]+}/charges", h.ListByLease).Methods(http.MethodGet)
}
