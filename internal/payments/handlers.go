package payments

import (
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"quarters/internal/middleware"
	"quarters/internal/models"
	"quarters/internal/repo"
)

// Лимит на тело webhook-запроса.
const maxPayloadBytes = 1 << 20

type Handler struct{ rc *Reconciler }

func NewHandler(rc *Reconciler) *Handler { return &Handler{rc: rc} }

// POST /webhooks/payments — сырое тело, подпись в заголовке.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		models.WriteProblem(w, http.StatusBadRequest, "Validation Error", "cannot read payload", nil)
		return
	}
	sig := r.Header.Get("Gateway-Signature")

	err = h.rc.HandleEvent(r.Context(), payload, sig, middleware.OriginFrom(r))
	if errors.Is(err, repo.ErrUnauthorized) {
		models.WriteProblem(w, http.StatusBadRequest, "Webhook Error", "signature verification failed", nil)
		return
	}
	if err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "event processing failed", nil)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// Webhook аутентифицируется подписью payload'а, не сессией.
func RegisterRoutes(r *mux.Router, h *Handler) {
	r.HandleFunc("/webhooks/payments", h.Webhook).Methods(http.MethodPost)
}
