package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradepro-api/internal/dto"
	"github.com/noah-isme/gradepro-api/internal/service"
	appErrors "github.com/noah-isme/gradepro-api/pkg/errors"
	"github.com/noah-isme/gradepro-api/pkg/response"
)

// AdviceHandler serves study advice.
type AdviceHandler struct {
	service *service.AdviceService
}

// NewAdviceHandler creates a new handler.
func NewAdviceHandler(svc *service.AdviceService) *AdviceHandler {
	return &AdviceHandler{service: svc}
}

// Generate godoc
// @Summary Study advice
// @Description Generate study advice for a subject and target grade
// @Tags Advice
// @Accept json
// @Produce json
// @Param payload body dto.AdviceRequest true "Subject and target grade"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /advice [post]
func (h *AdviceHandler) Generate(c *gin.Context) {
	var req dto.AdviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	advice, err := h.service.Advise(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, advice)
}
