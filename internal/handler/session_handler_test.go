package handler

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradepro-api/internal/middleware"
	"github.com/noah-isme/gradepro-api/internal/models"
	"github.com/noah-isme/gradepro-api/internal/service"
)

type mapSessionStore map[string]*models.SessionRecord

func (m mapSessionStore) Get(_ context.Context, key string) (*models.SessionRecord, error) {
	if record, ok := m[key]; ok {
		return record, nil
	}
	return nil, sql.ErrNoRows
}

func (m mapSessionStore) Upsert(_ context.Context, key string, payload []byte, updatedAt time.Time) error {
	m[key] = &models.SessionRecord{Key: key, Payload: payload, UpdatedAt: updatedAt}
	return nil
}

func (m mapSessionStore) Delete(_ context.Context, key string) error {
	delete(m, key)
	return nil
}

func newSessionRouter(store mapSessionStore, studentID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewSessionHandler(service.NewSessionService(store, nil, nil, nil))
	r := gin.New()
	group := r.Group("/sessions", func(c *gin.Context) {
		if studentID != "" {
			c.Set(middleware.ContextStudentKey, &models.JWTClaims{StudentID: studentID})
		}
		c.Next()
	})
	group.GET("/me", h.Get)
	group.PUT("/me", h.Put)
	group.DELETE("/me", h.Delete)
	group.GET("/me/export", h.Export)
	return r
}

const handlerSession = `{"student": {"name": "Asha", "semester": 5, "current_average": 7.4}, "subjects": [], "progress": [{"subject_name": "Cloud Computing", "credit_weight": 3, "components": [{"name": "midterm", "earned": 20, "max": 30}, {"name": "internal", "earned": 20, "max": 30}], "final_max": 40, "target_grade": "B"}], "advice": []}`

func TestSessionHandlerRequiresStudent(t *testing.T) {
	r := newSessionRouter(mapSessionStore{}, "")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionHandlerLifecycle(t *testing.T) {
	store := mapSessionStore{}
	r := newSessionRouter(store, "s1")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/me", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/sessions/me", bytes.NewBufferString(handlerSession)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, store, "s1")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/me", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(decodeEnvelope(t, rec).Data), "Cloud Computing")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/me/export?format=csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="grade-plan.csv"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Subject,Credits"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/sessions/me", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, store)
}

func TestSessionHandlerRejectsInvalidSnapshot(t *testing.T) {
	r := newSessionRouter(mapSessionStore{}, "s1")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/sessions/me", bytes.NewBufferString(`{"student": {"name": "", "semester": 0}}`)))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "INVALID_SNAPSHOT", decodeEnvelope(t, rec).Error.Code)
}

func TestSessionHandlerExportRejectsUnknownFormat(t *testing.T) {
	r := newSessionRouter(mapSessionStore{}, "s1")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/me/export?format=docx", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
