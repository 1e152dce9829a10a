package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/reporting-engine/internal/middleware"
	"github.com/noah-isme/reporting-engine/internal/models"
	"github.com/noah-isme/reporting-engine/pkg/response"
)

type formResponseService interface {
	Report(ctx context.Context, sessionID, userID string) (*models.FormResponseReport, error)
}

// FormResponseHandler exposes per-student form answers.
type FormResponseHandler struct {
	forms formResponseService
}

// NewFormResponseHandler constructs handler.
func NewFormResponseHandler(forms formResponseService) *FormResponseHandler {
	return &FormResponseHandler{forms: forms}
}

// Report godoc
// @Summary Form responses of a student
// @Tags Reports
// @Produce json
// @Param session_id path string true "Session ID"
// @Param user_id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /reports/form_responses/{session_id}/{user_id} [get]
func (h *FormResponseHandler) Report(c *gin.Context) {
	report, err := h.forms.Report(c.Request.Context(), c.Param("session_id"), c.Param("user_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, middleware.ExtractMeta(c))
}
