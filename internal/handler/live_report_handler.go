package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/reporting-engine/internal/dto"
	"github.com/noah-isme/reporting-engine/internal/middleware"
	"github.com/noah-isme/reporting-engine/internal/models"
	"github.com/noah-isme/reporting-engine/internal/service"
	appErrors "github.com/noah-isme/reporting-engine/pkg/errors"
	"github.com/noah-isme/reporting-engine/pkg/export"
	"github.com/noah-isme/reporting-engine/pkg/response"
)

type liveStatsService interface {
	QuizStats(ctx context.Context, quizID string, query dto.LiveStatsQuery) (*models.LiveQuizStats, error)
	SessionStats(ctx context.Context, sessionID string) (*models.LiveQuizStats, error)
}

type datasetRenderer interface {
	Render(data export.Dataset, title string, format models.ExportFormat) ([]byte, error)
}

// LiveReportHandler exposes live quiz statistics.
type LiveReportHandler struct {
	stats    liveStatsService
	renderer datasetRenderer
}

// NewLiveReportHandler constructs handler. renderer may be nil when exports are disabled.
func NewLiveReportHandler(stats liveStatsService, renderer datasetRenderer) *LiveReportHandler {
	return &LiveReportHandler{stats: stats, renderer: renderer}
}

// QuizReport godoc
// @Summary Live quiz attempt statistics
// @Tags Live Reports
// @Produce json
// @Param quiz_id path string true "Quiz ID"
// @Param start_date query string false "YYYY-MM-DD"
// @Param end_date query string false "YYYY-MM-DD"
// @Param format query string false "json, csv or xlsx"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/live_quiz_report/{quiz_id} [get]
func (h *LiveReportHandler) QuizReport(c *gin.Context) {
	var query dto.LiveStatsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	stats, err := h.stats.QuizStats(c.Request.Context(), c.Param("quiz_id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.write(c, stats, query.Format)
}

// SessionReport godoc
// @Summary Live statistics for a scheduled quiz session
// @Tags Live Reports
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /reports/live_session_report/{session_id} [get]
func (h *LiveReportHandler) SessionReport(c *gin.Context) {
	stats, err := h.stats.SessionStats(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.write(c, stats, c.Query("format"))
}

func (h *LiveReportHandler) write(c *gin.Context, stats *models.LiveQuizStats, format string) {
	if format == "" || format == "json" {
		response.JSON(c, http.StatusOK, stats, middleware.ExtractMeta(c))
		return
	}
	exportFormat := models.ExportFormat(format)
	if h.renderer == nil || (exportFormat != models.ExportFormatCSV && exportFormat != models.ExportFormatXLSX) {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be json, csv or xlsx"))
		return
	}
	payload, err := h.renderer.Render(service.LiveStatsDataset(stats), stats.QuizTitle, exportFormat)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render live report"))
		return
	}
	response.Attachment(c, service.LiveStatsFilename(stats, format), exportFormat.ContentType(), payload)
}
