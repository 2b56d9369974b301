package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"quarters/internal/middleware"
	"quarters/internal/models"
	"quarters/internal/repo"
	"quarters/internal/throttle"
	"quarters/internal/token"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// POST /auth/login  {email, password}
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		models.WriteProblem(w, http.StatusBadRequest, "Validation Error", "missing email or password", nil)
		return
	}

	sess, err := h.svc.Login(r.Context(), req.Email, req.Password, middleware.OriginFrom(r))
	switch {
	case errors.Is(err, throttle.ErrThrottled):
		models.WriteProblem(w, http.StatusTooManyRequests, "Too Many Requests", "too many login attempts, try again later", nil)
	case errors.Is(err, ErrBadCredentials):
		models.WriteProblem(w, http.StatusUnauthorized, "Unauthorized", "invalid email or password", nil)
	case errors.Is(err, ErrUnverified):
		models.WriteProblem(w, http.StatusForbidden, "Forbidden", "email not verified, please check your inbox", nil)
	case err != nil:
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "login failed", nil)
	default:
		models.WriteJSON(w, http.StatusOK, map[string]string{"token": sess})
	}
}

// GET /auth/verify-email?token=...
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	tok := r.URL.Query().Get("token")
	if tok == "" {
		models.WriteProblem(w, http.StatusBadRequest, "Validation Error", "missing token", nil)
		return
	}
	err := h.svc.VerifyEmail(r.Context(), tok)
	switch {
	case errors.Is(err, token.ErrExpired), errors.Is(err, token.ErrInvalid):
		models.WriteProblem(w, http.StatusBadRequest, "Token Invalid", "invalid or expired token", nil)
	case errors.Is(err, repo.ErrNotFound):
		models.WriteProblem(w, http.StatusNotFound, "Not Found", "user not found", nil)
	case err != nil:
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "verification failed", nil)
	default:
		models.WriteJSON(w, http.StatusOK, map[string]string{"message": "email verified"})
	}
}

func RegisterRoutes(r *mux.Router, h *Handler) {
	r.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/auth/verify-email", h.VerifyEmail).Methods(http.MethodGet)
}
