package audit

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"quarters/internal/middleware"
	"quarters/internal/models"
	"quarters/internal/repo"
	"quarters/internal/token"
)

type Handler struct{ exp *Exporter }

func NewHandler(exp *Exporter) *Handler { return &Handler{exp: exp} }

// GET /audit/export/csv — ролевой срез журнала.
// Экспорт собирается в буфер: заголовки и статус уходят клиенту
// только после успешной выборки, ошибка отдаётся чистым problem+json.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFrom(r)

	var buf bytes.Buffer
	if err := h.exp.WriteCSV(r.Context(), actor, &buf); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			models.WriteProblem(w, http.StatusNotFound, "Not Found", "no properties found for landlord", nil)
			return
		}
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "could not export logs", nil)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="audit_logs.csv"`)
	_, _ = w.Write(buf.Bytes())
}

func RegisterRoutes(r *mux.Router, h *Handler, tokens *token.Service) {
	sub := r.NewRoute().Subrouter()
	sub.Use(middleware.Authenticate(tokens))
	sub.HandleFunc("/audit/export/csv", h.ExportCSV).Methods(http.MethodGet)
}
