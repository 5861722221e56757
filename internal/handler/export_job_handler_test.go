package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradepro-api/internal/middleware"
	"github.com/noah-isme/gradepro-api/internal/models"
	"github.com/noah-isme/gradepro-api/internal/service"
	appErrors "github.com/noah-isme/gradepro-api/pkg/errors"
)

type exportJobServiceMock struct {
	createFormat string
	createKey    string
	createErr    error
	statusErr    error
	download     *service.ExportDownload
	downloadErr  error
}

func (m *exportJobServiceMock) CreateJob(_ context.Context, sessionKey, format string) (*service.ExportJobStatus, error) {
	m.createKey, m.createFormat = sessionKey, format
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &service.ExportJobStatus{ID: "job-1", Format: format, Status: models.ExportStatusQueued}, nil
}

func (m *exportJobServiceMock) GetStatus(_ context.Context, id, _ string) (*service.ExportJobStatus, error) {
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	return &service.ExportJobStatus{ID: id, Format: "csv", Status: models.ExportStatusFinished, Progress: 100}, nil
}

func (m *exportJobServiceMock) ResolveDownload(_ context.Context, _ string) (*service.ExportDownload, error) {
	return m.download, m.downloadErr
}

func newExportRouter(svc *exportJobServiceMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewExportJobHandler(svc)
	r := gin.New()
	authed := r.Group("/sessions/me", func(c *gin.Context) {
		c.Set(middleware.ContextStudentKey, &models.JWTClaims{StudentID: "student-1"})
		c.Next()
	})
	authed.POST("/exports", h.Create)
	authed.GET("/exports/:id", h.Status)
	r.GET("/exports/download/:token", h.Download)
	return r
}

func TestExportJobHandlerCreate(t *testing.T) {
	svc := &exportJobServiceMock{}
	r := newExportRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sessions/me/exports", strings.NewReader(`{"format":"pdf"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"job-1"`)
	assert.Equal(t, "student-1", svc.createKey)
	assert.Equal(t, "pdf", svc.createFormat)
}

func TestExportJobHandlerCreateWithoutBody(t *testing.T) {
	svc := &exportJobServiceMock{}
	r := newExportRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/sessions/me/exports", nil))

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Empty(t, svc.createFormat)
}

func TestExportJobHandlerCreateMissingSession(t *testing.T) {
	svc := &exportJobServiceMock{createErr: appErrors.Clone(appErrors.ErrNotFound, "planning session not found")}
	r := newExportRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sessions/me/exports", strings.NewReader(`{"format":"csv"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportJobHandlerStatus(t *testing.T) {
	r := newExportRouter(&exportJobServiceMock{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sessions/me/exports/job-9", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"FINISHED"`)
}

func TestExportJobHandlerDownload(t *testing.T) {
	file, err := os.CreateTemp(t.TempDir(), "grade-plan*.csv")
	require.NoError(t, err)
	_, err = file.WriteString("Subject,Target\n")
	require.NoError(t, err)
	_, err = file.Seek(0, 0)
	require.NoError(t, err)

	r := newExportRouter(&exportJobServiceMock{download: &service.ExportDownload{
		File:        file,
		Filename:    "grade-plan.csv",
		ContentType: "text/csv",
		ExpiresAt:   time.Now().Add(time.Hour),
	}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/exports/download/token", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Subject,Target\n", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "grade-plan.csv")
}

func TestExportJobHandlerDownloadForbidden(t *testing.T) {
	r := newExportRouter(&exportJobServiceMock{downloadErr: appErrors.Clone(appErrors.ErrForbidden, "invalid download token")})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/exports/download/bad", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
}
