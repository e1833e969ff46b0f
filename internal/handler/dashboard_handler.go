package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bagrut-dashboard-api/internal/dto"
	"github.com/noah-isme/bagrut-dashboard-api/internal/middleware"
	appErrors "github.com/noah-isme/bagrut-dashboard-api/pkg/errors"
	"github.com/noah-isme/bagrut-dashboard-api/pkg/response"
)

type dashboardService interface {
	Summary(ctx context.Context, query dto.DashboardQuery) (*dto.DashboardSummary, bool, error)
	Mapping(ctx context.Context) (*dto.GradeMapping, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Summary godoc
// @Summary Dashboard statistics and distributions
// @Description Each distribution can be narrowed to one grade with its own filter.
// @Tags Dashboard
// @Produce json
// @Param math_grade query string false "Grade filter for the math distribution"
// @Param english_grade query string false "Grade filter for the English distribution"
// @Param spec1_grade query string false "Grade filter for the technology track distribution"
// @Param spec2_grade query string false "Grade filter for the science track distribution"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var query dto.DashboardQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid dashboard query"))
		return
	}

	start := time.Now()
	summary, cacheHit, err := h.service.Summary(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, summary, nil, middleware.ExtractMeta(c, start))
}

// Mapping godoc
// @Summary Per-grade mapping of math and eligibility rates
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /dashboard/mapping [get]
func (h *DashboardHandler) Mapping(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	mapping, cacheHit, err := h.service.Mapping(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, mapping, nil, middleware.ExtractMeta(c, start))
}
