package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"quarters/internal/models"
	"quarters/internal/token"
)

const actorKey ctxKey = "actor"

// Authenticate — Bearer session-JWT → models.Actor в контексте запроса.
func Authenticate(tokens *token.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const p = "Bearer "
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, p) {
				models.WriteProblem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token", nil)
				return
			}
			claims, err := tokens.Verify(token.KindSession, strings.TrimPrefix(auth, p))
			if err != nil {
				models.WriteProblem(w, http.StatusUnauthorized, "Unauthorized", "invalid or expired session", nil)
				return
			}
			actor := models.Actor{
				UserID: claims.UserID,
				Email:  claims.Email,
				Name:   claims.Name,
				Role:   claims.Role,
			}
			ctx := context.WithValue(r.Context(), actorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole пропускает только перечисленные роли.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := map[string]bool{}
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, ok := ActorFrom(r)
			if !ok || !allowed[a.Role] {
				models.WriteProblem(w, http.StatusForbidden, "Forbidden", "insufficient role", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func ActorFrom(r *http.Request) (models.Actor, bool) {
	a, ok := r.Context().Value(actorKey).(models.Actor)
	return a, ok
}

// OriginFrom — сетевое происхождение запроса для журнала аудита.
func OriginFrom(r *http.Request) models.Origin {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i > 0 {
			ip = strings.TrimSpace(fwd[:i])
		} else {
			ip = strings.TrimSpace(fwd)
		}
	}
	return models.Origin{IP: ip, UserAgent: r.UserAgent()}
}
