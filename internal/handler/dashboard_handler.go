package handler

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/study-planner/internal/dto"
	"github.com/noah-isme/study-planner/internal/middleware"
	"github.com/noah-isme/study-planner/internal/models"
	"github.com/noah-isme/study-planner/internal/service"
	appErrors "github.com/noah-isme/study-planner/pkg/errors"
	"github.com/noah-isme/study-planner/pkg/response"
)

type dashboardService interface {
	Dashboard(ctx context.Context) (dto.DashboardResponse, error)
}

type statsService interface {
	Stats(ctx context.Context) (*models.RecordStats, error)
}

type exportService interface {
	Export(ctx context.Context, format service.ExportFormat) (*service.ExportResult, error)
}

// DashboardHandler wires the dashboard, remote stats and export endpoints.
type DashboardHandler struct {
	dashboard dashboardService
	stats     statsService
	exporter  exportService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(dashboard dashboardService, stats statsService, exporter exportService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, stats: stats, exporter: exporter}
}

// Dashboard godoc
// @Summary Deadline dashboard
// @Description Stats cards, the nearest deadlines and the first subjects, recomputed against the current time
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	if h.dashboard == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	resp, err := h.dashboard.Dashboard(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetStale(c, resp.Stale)
	middleware.SetProcessingTime(c, start)
	response.OK(c, resp, middleware.ExtractMeta(c))
}

// Stats godoc
// @Summary Record counters
// @Description Counters as computed by the records service
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /stats [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	if h.stats == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	stats, err := h.stats.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats)
}

// Export godoc
// @Summary Export upcoming deadlines
// @Tags Dashboard
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /dashboard/export [get]
func (h *DashboardHandler) Export(c *gin.Context) {
	if h.exporter == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	format := service.ExportFormat(strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", "csv"))))
	result, err := h.exporter.Export(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Body)
}
