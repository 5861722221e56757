package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradepro-api/internal/service"
	appErrors "github.com/noah-isme/gradepro-api/pkg/errors"
	"github.com/noah-isme/gradepro-api/pkg/response"
)

type exportJobService interface {
	CreateJob(ctx context.Context, sessionKey, format string) (*service.ExportJobStatus, error)
	GetStatus(ctx context.Context, id, sessionKey string) (*service.ExportJobStatus, error)
	ResolveDownload(ctx context.Context, token string) (*service.ExportDownload, error)
}

type createExportRequest struct {
	Format string `json:"format"`
}

// ExportJobHandler exposes asynchronous planning-session exports.
type ExportJobHandler struct {
	service exportJobService
}

// NewExportJobHandler constructs the handler.
func NewExportJobHandler(svc exportJobService) *ExportJobHandler {
	return &ExportJobHandler{service: svc}
}

// Create godoc
// @Summary Queue a planning session export
// @Tags Exports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body createExportRequest false "Export format, csv or pdf"
// @Success 202 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sessions/me/exports [post]
func (h *ExportJobHandler) Create(c *gin.Context) {
	studentID, err := studentIDFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req createExportRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid export payload"))
			return
		}
	}

	job, err := h.service.CreateJob(c.Request.Context(), studentID, req.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job)
}

// Status godoc
// @Summary Export job status
// @Tags Exports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sessions/me/exports/{id} [get]
func (h *ExportJobHandler) Status(c *gin.Context) {
	studentID, err := studentIDFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	job, err := h.service.GetStatus(c.Request.Context(), c.Param("id"), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job)
}

// Download godoc
// @Summary Download a finished export via signed token
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /exports/download/{token} [get]
func (h *ExportJobHandler) Download(c *gin.Context) {
	download, err := h.service.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close() //nolint:errcheck

	size := int64(-1)
	if info, statErr := download.File.Stat(); statErr == nil {
		size = info.Size()
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", download.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, size, download.ContentType, download.File, nil)
}
