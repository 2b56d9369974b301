package approval

import (
	"net/http"

	"github.com/gorilla/mux"

	"quarters/internal/middleware"
	"quarters/internal/models"
	"quarters/internal/token"
)

func RegisterRoutes(r *mux.Router, h *Handler, tokens *token.Service) {
	// страница одобрения открывается по ссылке из письма — без сессии
	r.HandleFunc("/lease-approval/details", h.Details).Methods(http.MethodGet)

	authed := r.NewRoute().Subrouter()
	authed.Use(middleware.Authenticate(tokens))
	authed.HandleFunc("/lease-approval/approve", h.Approve).Methods(http.MethodPost)
	authed.HandleFunc("/lease-approval/decline", h.Decline).Methods(http.MethodPost)

	invites := r.NewRoute().Subrouter()
	invites.Use(middleware.Authenticate(tokens),
		middleware.RequireRole(models.RoleLandlord, models.RoleManager, models.RoleAdmin))
	invites.HandleFunc("/lease-invites/send", h.Invite).Methods(http.MethodPost)
	invites.HandleFunc("/lease-tenants", h.AssignTenant).Methods(http.MethodPost)
}
