package approval

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"quarters/internal/middleware"
	"quarters/internal/models"
	"quarters/internal/repo"
	"quarters/internal/token"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func writeTokenErr(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, token.ErrExpired):
		models.WriteProblem(w, http.StatusBadRequest, "Token Expired", "the approval link has expired", nil)
	case errors.Is(err, token.ErrInvalid):
		models.WriteProblem(w, http.StatusBadRequest, "Token Invalid", "invalid approval token", nil)
	case errors.Is(err, repo.ErrUnauthorized):
		models.WriteProblem(w, http.StatusForbidden, "Forbidden", "you are not authorized for this lease", nil)
	case errors.Is(err, repo.ErrNotFound):
		models.WriteProblem(w, http.StatusNotFound, "Not Found", "invalid or expired lease token", nil)
	default:
		return false
	}
	return true
}

// POST /lease-invites/send  {lease_id, tenant_email}
func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LeaseID     uint   `json:"lease_id"`
		TenantEmail string `json:"tenant_email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.LeaseID == 0 || strings.TrimSpace(req.TenantEmail) == "" {
		models.WriteProblem(w, http.StatusBadRequest, "Validation Error", "missing lease_id or tenant_email", nil)
		return
	}
	actor, _ := middleware.ActorFrom(r)

	if err := h.svc.Invite(r.Context(), req.LeaseID, req.TenantEmail, actor, middleware.OriginFrom(r)); err != nil {
		if !writeTokenErr(w, err) {
			models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to send lease invite", nil)
		}
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]string{"message": "lease invite sent"})
}

// POST /lease-tenants  {lease_id, email, is_primary}
func (h *Handler) AssignTenant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LeaseID   uint   `json:"lease_id"`
		Email     string `json:"email"`
		IsPrimary bool   `json:"is_primary"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.LeaseID == 0 || strings.TrimSpace(req.Email) == "" {
		models.WriteProblem(w, http.StatusBadRequest, "Validation Error", "missing lease_id or email", nil)
		return
	}
	actor, _ := middleware.ActorFrom(r)

	tok, err := h.svc.AssignTenant(r.Context(), req.LeaseID, req.Email, req.IsPrimary, actor, middleware.OriginFrom(r))
	switch {
	case errors.Is(err, repo.ErrConflict):
		models.WriteProblem(w, http.StatusConflict, "Conflict", "tenant already assigned to this lease", nil)
	case errors.Is(err, repo.ErrNotFound):
		models.WriteProblem(w, http.StatusNotFound, "Not Found", "tenant not found", nil)
	case err != nil:
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to assign tenant", nil)
	default:
		models.WriteJSON(w, http.StatusCreated, map[string]string{
			"message":      "tenant assigned",
			"invite_token": tok,
		})
	}
}

// GET /lease-approval/details?token=...
func (h *Handler) Details(w http.ResponseWriter, r *http.Request) {
	tok := r.URL.Query().Get("token")
	if tok == "" {
		models.WriteProblem(w, http.StatusBadRequest, "Validation Error", "missing token", nil)
		return
	}
	d, err := h.svc.Details(r.Context(), tok)
	if err != nil {
		if !writeTokenErr(w, err) {
			models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to load lease", nil)
		}
		return
	}
	models.WriteJSON(w, http.StatusOK, d)
}

// POST /lease-approval/approve  {token}
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		models.WriteProblem(w, http.StatusBadRequest, "Validation Error", "missing token", nil)
		return
	}
	actor, _ := middleware.ActorFrom(r)

	res, err := h.svc.Approve(r.Context(), req.Token, actor, middleware.OriginFrom(r))
	if err != nil {
		if !writeTokenErr(w, err) {
			models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "lease approval failed", nil)
		}
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"message":       "lease approved and sealed",
		"document_path": res.DocumentPath,
		"document_hash": res.DocumentHash,
	})
}

// POST /lease-approval/decline  {token}
func (h *Handler) Decline(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		models.WriteProblem(w, http.StatusBadRequest, "Validation Error", "missing token", nil)
		return
	}
	actor, _ := middleware.ActorFrom(r)

	if err := h.svc.Decline(r.Context(), req.Token, actor, middleware.OriginFrom(r)); err != nil {
		if !writeTokenErr(w, err) {
			models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "lease decline failed", nil)
		}
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]string{"message": "lease declined"})
}
