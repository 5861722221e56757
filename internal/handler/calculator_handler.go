package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradepro-api/internal/dto"
	"github.com/noah-isme/gradepro-api/internal/middleware"
	"github.com/noah-isme/gradepro-api/internal/service"
	appErrors "github.com/noah-isme/gradepro-api/pkg/errors"
	"github.com/noah-isme/gradepro-api/pkg/response"
)

// CalculatorHandler exposes the grade calculator over HTTP.
type CalculatorHandler struct {
	service *service.CalculatorService
}

// NewCalculatorHandler creates a new handler.
func NewCalculatorHandler(svc *service.CalculatorService) *CalculatorHandler {
	return &CalculatorHandler{service: svc}
}

// GradeScale godoc
// @Summary Grade scale
// @Description List letter grades with points and minimum percentage
// @Tags Calculator
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /calculator/grade-scale [get]
func (h *CalculatorHandler) GradeScale(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.GradeScale())
}

// Grade godoc
// @Summary Grade for percentage
// @Tags Calculator
// @Produce json
// @Param percentage query number true "Percentage between 0 and 100"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /calculator/grade [get]
func (h *CalculatorHandler) Grade(c *gin.Context) {
	raw := c.Query("percentage")
	percentage, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "percentage must be a number"))
		return
	}

	res, err := h.service.GradeForPercentage(percentage)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// DistributeTargets godoc
// @Summary Distribute target grades
// @Description Assign a target grade to every subject so the semester reaches the target average
// @Tags Calculator
// @Accept json
// @Produce json
// @Param payload body dto.DistributeTargetsRequest true "Subjects and target average"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /calculator/targets [post]
func (h *CalculatorHandler) DistributeTargets(c *gin.Context) {
	var req dto.DistributeTargetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	res, hit, err := h.service.DistributeTargets(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, res, middleware.ExtractMeta(c))
}

// CheckAchievability godoc
// @Summary Check achievability
// @Description Report whether a target grade can still be reached
// @Tags Calculator
// @Accept json
// @Produce json
// @Param payload body dto.ProgressRequest true "Subject progress"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /calculator/achievability [post]
func (h *CalculatorHandler) CheckAchievability(c *gin.Context) {
	var req dto.ProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	res, err := h.service.CheckAchievability(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// RequiredMarks godoc
// @Summary Required final marks
// @Description Compute the final-component score needed for a target grade
// @Tags Calculator
// @Accept json
// @Produce json
// @Param payload body dto.ProgressRequest true "Subject progress"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /calculator/required-marks [post]
func (h *CalculatorHandler) RequiredMarks(c *gin.Context) {
	var req dto.ProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	res, hit, err := h.service.SolveRequiredMarks(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, res, middleware.ExtractMeta(c))
}

// RequiredMarksBatch godoc
// @Summary Required final marks for several subjects
// @Description Validate every subject, then solve each one
// @Tags Calculator
// @Accept json
// @Produce json
// @Param payload body dto.BatchProgressRequest true "Subjects"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /calculator/required-marks/batch [post]
func (h *CalculatorHandler) RequiredMarksBatch(c *gin.Context) {
	var req dto.BatchProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	res, err := h.service.SolveAll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}
