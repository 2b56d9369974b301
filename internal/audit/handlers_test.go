package audit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quarters/internal/models"
	"quarters/internal/repo"
	"quarters/internal/token"
)

func exportRequest(t *testing.T, h *Handler, tokens *token.Service, actor models.Actor) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := tokens.Issue(token.KindSession, token.Claims{
		UserID: actor.UserID, Email: actor.Email, Name: actor.Name, Role: actor.Role,
	}, time.Minute)
	require.NoError(t, err)

	r := mux.NewRouter()
	RegisterRoutes(r, h, tokens)

	req := httptest.NewRequest(http.MethodGet, "/audit/export/csv", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestExportCSVHandler(t *testing.T) {
	db := openTestDB(t)
	rec := NewRecorder(repo.NewAuditStore(db))
	rec.Record(context.Background(), models.Actor{UserID: 5, Email: "a@example.com"}, "logged in", "user", 5, models.Origin{})

	tokens := token.New("test-secret")
	h := NewHandler(NewExporter(repo.NewAuditStore(db), repo.NewLeaseStore(db)))

	w := exportRequest(t, h, tokens, models.Actor{UserID: 1, Role: models.RoleAdmin})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "id,user_id,email,"))
}

func TestExportCSVHandlerErrorIsCleanProblem(t *testing.T) {
	db := openTestDB(t)
	tokens := token.New("test-secret")
	h := NewHandler(NewExporter(repo.NewAuditStore(db), repo.NewLeaseStore(db)))

	// landlord без объектов: ошибка обнаруживается до отправки заголовков,
	// в теле — только problem+json, без CSV-префикса
	w := exportRequest(t, h, tokens, models.Actor{UserID: 99, Role: models.RoleLandlord})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.Empty(t, w.Header().Get("Content-Disposition"))
	assert.NotContains(t, w.Body.String(), "id,user_id")
	assert.Contains(t, w.Body.String(), "no properties found for landlord")
}
