package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lingua-crm-api/internal/dto"
	"github.com/noah-isme/lingua-crm-api/internal/middleware"
	appErrors "github.com/noah-isme/lingua-crm-api/pkg/errors"
	"github.com/noah-isme/lingua-crm-api/pkg/response"
	"github.com/noah-isme/lingua-crm-api/pkg/timewindow"
)

type dashboardService interface {
	Summary(ctx context.Context, window timewindow.Window, custom *timewindow.Range) (*dto.DashboardSummary, bool, error)
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
// @Summary Period-over-period business overview
// @Tags Dashboard
// @Produce json
// @Param window query string false "all, 24h, 7d, 1m, 3m, 6m, 1y or custom"
// @Param from query string false "Custom range start (YYYY-MM-DD)"
// @Param to query string false "Custom range end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	window, custom, err := windowQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	summary, cacheHit, err := h.service.Summary(c.Request.Context(), window, custom)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, summary, nil, middleware.ExtractMeta(c))
}
