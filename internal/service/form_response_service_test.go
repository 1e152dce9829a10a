package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/reporting-engine/internal/models"
	appErrors "github.com/noah-isme/reporting-engine/pkg/errors"
)

type formResponseStub struct {
	responses []models.FormResponse
	err       error
}

func (s formResponseStub) ListBySessionUser(ctx context.Context, sessionID, userID string) ([]models.FormResponse, error) {
	return s.responses, s.err
}

func TestFormResponseServiceReport(t *testing.T) {
	svc := NewFormResponseService(formResponseStub{responses: []models.FormResponse{
		{QuestionPositionIndex: 0, QuestionText: "Favourite subject?", UserResponseLabels: "Physics", IsAnswered: true, StartDate: "2024-01-01"},
		{QuestionPositionIndex: 1, QuestionText: "Hours studied?", IsAnswered: false},
	}}, nil, 0, nil)

	report, err := svc.Report(context.Background(), "s1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "Form Response", report.TestName)
	assert.Equal(t, "2024-01-01", report.StartDate)
	assert.Equal(t, 2, report.TotalQuestions)
	assert.Equal(t, models.FormResponseRow{QuestionNumber: 1, QuestionText: "Favourite subject?", UserResponse: "Physics"}, report.Responses[0])
	assert.Equal(t, 2, report.Responses[1].QuestionNumber)
	assert.Equal(t, "None", report.Responses[1].UserResponse)
}

func TestFormResponseServiceErrors(t *testing.T) {
	_, err := NewFormResponseService(formResponseStub{}, nil, 0, nil).Report(context.Background(), "s1", "u1")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = NewFormResponseService(formResponseStub{err: errors.New("dynamo")}, nil, 0, nil).Report(context.Background(), "s1", "u1")
	assert.True(t, errors.Is(err, appErrors.ErrUpstreamUnavailable))

	_, err = NewFormResponseService(formResponseStub{}, nil, 0, nil).Report(context.Background(), "", "u1")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}
