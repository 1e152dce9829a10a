package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/reporting-engine/internal/middleware"
	"github.com/noah-isme/reporting-engine/internal/models"
	appErrors "github.com/noah-isme/reporting-engine/pkg/errors"
	"github.com/noah-isme/reporting-engine/pkg/response"
)

type studentReportService interface {
	StudentReport(ctx context.Context, sessionID, userID string, stream models.Stream) (*models.ReportView, error)
	StudentReportPDF(ctx context.Context, sessionID, userID string, stream models.Stream) ([]byte, string, error)
	StudentTests(ctx context.Context, userID string) ([]models.StudentTest, error)
}

// ReportHandler exposes student report endpoints.
type ReportHandler struct {
	reports      studentReportService
	cacheEnabled bool
}

// NewReportHandler constructs handler.
func NewReportHandler(reports studentReportService, cacheEnabled bool) *ReportHandler {
	return &ReportHandler{reports: reports, cacheEnabled: cacheEnabled}
}

// StudentReport godoc
// @Summary Student quiz report
// @Tags Reports
// @Produce json
// @Param session_id path string true "Session ID"
// @Param user_id path string true "Student ID"
// @Param stream query string false "JEE or NEET"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /reports/student_reports/{session_id}/{user_id} [get]
func (h *ReportHandler) StudentReport(c *gin.Context) {
	stream, err := streamParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.reports.StudentReport(c.Request.Context(), c.Param("session_id"), c.Param("user_id"), stream)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheEnabled(c, h.cacheEnabled)
	response.JSON(c, http.StatusOK, view, middleware.ExtractMeta(c))
}

// StudentReportPDF godoc
// @Summary Student quiz report as PDF
// @Tags Reports
// @Produce application/pdf
// @Param session_id path string true "Session ID"
// @Param user_id path string true "Student ID"
// @Param stream query string false "JEE or NEET"
// @Success 200 {file} file
// @Router /reports/student_reports/{session_id}/{user_id}/pdf [get]
func (h *ReportHandler) StudentReportPDF(c *gin.Context) {
	stream, err := streamParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, filename, err := h.reports.StudentReportPDF(c.Request.Context(), c.Param("session_id"), c.Param("user_id"), stream)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, filename, models.ExportFormatPDF.ContentType(), payload)
}

// StudentTests godoc
// @Summary Tests taken by a student
// @Tags Reports
// @Produce json
// @Param user_id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /reports/students/{user_id} [get]
func (h *ReportHandler) StudentTests(c *gin.Context) {
	tests, err := h.reports.StudentTests(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tests, middleware.ExtractMeta(c))
}

func streamParam(c *gin.Context) (models.Stream, error) {
	raw := c.Query("stream")
	if raw == "" {
		return "", nil
	}
	stream := models.ParseStream(raw)
	if stream == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "stream must be JEE or NEET")
	}
	return stream, nil
}
