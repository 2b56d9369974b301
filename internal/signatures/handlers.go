package signatures

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"quarters/internal/middleware"
	"quarters/internal/models"
	"quarters/internal/repo"
	"quarters/internal/token"
)

type Handler struct{ col *Collector }

func NewHandler(col *Collector) *Handler { return &Handler{col: col} }

func leaseIDVar(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	return uint(id), err == nil && id > 0
}

// POST /leases/{id}/signatures  {artifact_ref, placement}
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	leaseID, ok := leaseIDVar(r)
	if !ok {
		models.WriteProblem(w, http.StatusBadRequest, "Validation Error", "bad lease id", nil)
		return
	}
	var req struct {
		ArtifactRef string         `json:"artifact_ref"`
		Placement   map[string]any `json:"placement"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ArtifactRef == "" {
		models.WriteProblem(w, http.StatusBadRequest, "Validation Error", "missing artifact_ref", nil)
		return
	}
	actor, _ := middleware.ActorFrom(r)

	sig, err := h.col.Submit(r.Context(), leaseID, actor, req.ArtifactRef, req.Placement, middleware.OriginFrom(r))
	switch {
	case errors.Is(err, repo.ErrConflict):
		models.WriteProblem(w, http.StatusConflict, "Conflict", "signature already recorded for this signer", nil)
	case errors.Is(err, repo.ErrUnauthorized):
		models.WriteProblem(w, http.StatusForbidden, "Forbidden", "not a required signer on this lease", nil)
	case errors.Is(err, repo.ErrNotFound):
		models.WriteProblem(w, http.StatusNotFound, "Not Found", "lease not found", nil)
	case err != nil:
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to record signature", nil)
	default:
		models.WriteJSON(w, http.StatusCreated, sig)
	}
}

// GET /leases/{id}/signatures
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	leaseID, ok := leaseIDVar(r)
	if !ok {
		models.WriteProblem(w, http.StatusBadRequest, "Validation Error", "bad lease id", nil)
		return
	}
	st, err := h.col.Status(r.Context(), leaseID)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		models.WriteProblem(w, http.StatusNotFound, "Not Found", "lease not found", nil)
	case err != nil:
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to load signature status", nil)
	default:
		models.WriteJSON(w, http.StatusOK, st)
	}
}

func RegisterRoutes(r *mux.Router, h *Handler, tokens *token.Service) {
	sub := r.PathPrefix("/leases/{id:[0-9]+}/signatures").Subrouter()
	sub.Use(middleware.Authenticate(tokens))
	sub.HandleFunc("", h.Submit).Methods(http.MethodPost)
	sub.HandleFunc("", h.Status).Methods(http.MethodGet)
}
