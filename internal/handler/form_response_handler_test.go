package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/reporting-engine/internal/models"
	appErrors "github.com/noah-isme/reporting-engine/pkg/errors"
)

type formResponseServiceFunc func(ctx context.Context, sessionID, userID string) (*models.FormResponseReport, error)

func (f formResponseServiceFunc) Report(ctx context.Context, sessionID, userID string) (*models.FormResponseReport, error) {
	return f(ctx, sessionID, userID)
}

func TestFormResponseHandlerReport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewFormResponseHandler(formResponseServiceFunc(func(_ context.Context, sessionID, userID string) (*models.FormResponseReport, error) {
		return &models.FormResponseReport{
			SessionID:      sessionID,
			UserID:         userID,
			TestName:       "Feedback",
			Responses:      []models.FormResponseRow{{QuestionNumber: 1, QuestionText: "How was it?", UserResponse: "Good"}},
			TotalQuestions: 1,
		}, nil
	}))

	c, w := newGinContext(http.MethodGet, "/reports/form_responses/s-1/u-1", nil)
	c.Params = gin.Params{{Key: "session_id", Value: "s-1"}, {Key: "user_id", Value: "u-1"}}
	handler.Report(c)

	require.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, "s-1", envelope.Data["session_id"])
	assert.EqualValues(t, 1, envelope.Data["total_questions"])
}

func TestFormResponseHandlerNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewFormResponseHandler(formResponseServiceFunc(func(context.Context, string, string) (*models.FormResponseReport, error) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no form responses")
	}))

	c, w := newGinContext(http.MethodGet, "/reports/form_responses/s-1/u-1", nil)
	handler.Report(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
