package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/reporting-engine/internal/models"
	appErrors "github.com/noah-isme/reporting-engine/pkg/errors"
)

const (
	defaultFormTestName = "Form Response"
	unansweredResponse  = "None"
)

type formResponseStore interface {
	ListBySessionUser(ctx context.Context, sessionID, userID string) ([]models.FormResponse, error)
}

// FormResponseService lists a student's answers to a form session.
type FormResponseService struct {
	repo    formResponseStore
	metrics *MetricsService
	timeout time.Duration
	logger  *zap.Logger
}

// NewFormResponseService constructs the service.
func NewFormResponseService(repo formResponseStore, metrics *MetricsService, timeout time.Duration, logger *zap.Logger) *FormResponseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &FormResponseService{repo: repo, metrics: metrics, timeout: timeout, logger: logger}
}

// Report returns numbered responses in question order.
func (s *FormResponseService) Report(ctx context.Context, sessionID, userID string) (*models.FormResponseReport, error) {
	if sessionID == "" || userID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "session_id and user_id are required")
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	responses, err := s.repo.ListBySessionUser(ctx, sessionID, userID)
	s.metrics.ObserveDBQuery("form_responses_by_session_user", time.Since(start))
	if err != nil {
		s.metrics.RecordUpstreamFailure("form_response_store")
		s.logger.Error("form response query failed", zap.String("session_id", sessionID), zap.Error(err))
		return nil, appErrors.Upstream(err, "form response store unavailable")
	}
	if len(responses) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no form responses found")
	}

	first := responses[0]
	report := &models.FormResponseReport{
		SessionID:      sessionID,
		UserID:         userID,
		TestName:       firstNonEmpty(first.TestName, defaultFormTestName),
		StartDate:      first.StartDate,
		Responses:      make([]models.FormResponseRow, 0, len(responses)),
		TotalQuestions: len(responses),
	}
	for i, r := range responses {
		answer := unansweredResponse
		if r.IsAnswered && r.UserResponseLabels != "" {
			answer = r.UserResponseLabels
		}
		report.Responses = append(report.Responses, models.FormResponseRow{
			QuestionNumber:   i + 1,
			QuestionSetTitle: r.QuestionSetTitle,
			QuestionText:     r.QuestionText,
			UserResponse:     answer,
		})
	}
	s.metrics.RecordReport("form_response")
	return report, nil
}
