package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/noah-isme/reporting-engine/internal/dto"
	"github.com/noah-isme/reporting-engine/internal/idcodec"
	"github.com/noah-isme/reporting-engine/internal/models"
	"github.com/noah-isme/reporting-engine/internal/repository"
	appErrors "github.com/noah-isme/reporting-engine/pkg/errors"
)

type catalogStub struct {
	title string
	err   error
}

func (s catalogStub) QuizTitle(ctx context.Context, quizID string) (string, error) {
	return s.title, s.err
}

type activityStub struct {
	records []models.ActivityRecord
	err     error
	window  idcodec.IdentifierRange
	called  bool
}

func (s *activityStub) ListByQuiz(ctx context.Context, quizID string, window idcodec.IdentifierRange) ([]models.ActivityRecord, error) {
	s.called = true
	s.window = window
	return s.records, s.err
}

type sessionDirectoryStub struct {
	session *models.QuizSession
	err     error
}

func (s sessionDirectoryStub) QuizSession(ctx context.Context, sessionID string) (*models.QuizSession, error) {
	return s.session, s.err
}

func strPtr(v string) *string { return &v }

func newLiveStatsService(catalog quizCatalog, activity activityStore, sessions quizSessionDirectory) *LiveStatsService {
	svc := NewLiveStatsService(catalog, activity, sessions, idcodec.ObjectIDCodec{}, nil, nil, time.Second, nil)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestLiveStatsServiceQuizStats(t *testing.T) {
	day1 := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	activity := &activityStub{records: []models.ActivityRecord{
		activityAt(day1, "user1", false),
		activityAt(day1.Add(time.Minute), "user1", true),
		activityAt(day1.AddDate(0, 0, 1), "user2", false),
	}}
	svc := newLiveStatsService(catalogStub{title: "Weekly Quiz"}, activity, nil)

	stats, err := svc.QuizStats(context.Background(), "Q1", dto.LiveStatsQuery{
		StartDate: strPtr("2024-01-01"),
		EndDate:   strPtr("2024-01-02"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Weekly Quiz", stats.QuizTitle)
	assert.Equal(t, "Q1", stats.QuizID)
	require.Len(t, stats.Daywise, 2)
	assert.Equal(t, 2, stats.TotalUniqueUsers)
	assert.Equal(t, 1, stats.TotalFinishedSessions)

	require.NotNil(t, activity.window.Lower)
	require.NotNil(t, activity.window.Upper)
	lower, err := primitive.ObjectIDFromHex(*activity.window.Lower)
	require.NoError(t, err)
	assert.Equal(t, day1.Truncate(24*time.Hour), lower.Timestamp().UTC())
	upper, err := primitive.ObjectIDFromHex(*activity.window.Upper)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 23, 59, 59, 0, time.UTC), upper.Timestamp().UTC())
}

func TestLiveStatsServiceUnboundedWindow(t *testing.T) {
	activity := &activityStub{}
	svc := newLiveStatsService(catalogStub{title: "Live"}, activity, nil)

	stats, err := svc.QuizStats(context.Background(), "Q1", dto.LiveStatsQuery{})
	require.NoError(t, err)
	assert.True(t, activity.window.Unbounded())
	assert.Equal(t, "Live", stats.QuizTitle)
	assert.Empty(t, stats.Daywise)
	assert.Zero(t, stats.TotalSessions)
}

func TestLiveStatsServiceQuizNotFound(t *testing.T) {
	activity := &activityStub{}
	svc := newLiveStatsService(catalogStub{err: repository.ErrQuizNotFound}, activity, nil)

	_, err := svc.QuizStats(context.Background(), "missing", dto.LiveStatsQuery{})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.False(t, activity.called)
}

func TestLiveStatsServiceUpstreamFailures(t *testing.T) {
	svc := newLiveStatsService(catalogStub{err: errors.New("mongo down")}, &activityStub{}, nil)
	_, err := svc.QuizStats(context.Background(), "Q1", dto.LiveStatsQuery{})
	assert.True(t, errors.Is(err, appErrors.ErrUpstreamUnavailable))

	svc = newLiveStatsService(catalogStub{title: "t"}, &activityStub{err: errors.New("cursor")}, nil)
	_, err = svc.QuizStats(context.Background(), "Q1", dto.LiveStatsQuery{})
	assert.True(t, errors.Is(err, appErrors.ErrUpstreamUnavailable))
}

func TestLiveStatsServiceValidatesWindow(t *testing.T) {
	svc := newLiveStatsService(catalogStub{title: "t"}, &activityStub{}, nil)

	_, err := svc.QuizStats(context.Background(), "Q1", dto.LiveStatsQuery{StartDate: strPtr("01/02/2024")})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.QuizStats(context.Background(), "Q1", dto.LiveStatsQuery{
		StartDate: strPtr("2024-02-02"),
		EndDate:   strPtr("2024-02-01"),
	})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.QuizStats(context.Background(), " ", dto.LiveStatsQuery{})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestLiveStatsServiceSessionStats(t *testing.T) {
	activity := &activityStub{}
	sessions := sessionDirectoryStub{session: &models.QuizSession{
		SessionID: "sess",
		QuizID:    "Q9",
		StartDate: "2024-03-01T10:00:00",
		EndDate:   "2024-03-05",
	}}
	svc := newLiveStatsService(catalogStub{title: "Scheduled"}, activity, sessions)

	stats, err := svc.SessionStats(context.Background(), "sess")
	require.NoError(t, err)
	assert.Equal(t, "Q9", stats.QuizID)
	require.NotNil(t, stats.StartDate)
	assert.Equal(t, "2024-03-01", *stats.StartDate)
	assert.Equal(t, "2024-03-05", *stats.EndDate)
	assert.False(t, activity.window.Unbounded())
}

type deadlineSessionStub struct {
	session     *models.QuizSession
	hadDeadline bool
}

func (s *deadlineSessionStub) QuizSession(ctx context.Context, sessionID string) (*models.QuizSession, error) {
	_, s.hadDeadline = ctx.Deadline()
	return s.session, nil
}

func TestLiveStatsServiceSessionLookupIsBounded(t *testing.T) {
	sessions := &deadlineSessionStub{session: &models.QuizSession{
		SessionID: "sess",
		QuizID:    "Q9",
		StartDate: "2024-03-01",
		EndDate:   "2024-03-02",
	}}
	svc := newLiveStatsService(catalogStub{title: "Scheduled"}, &activityStub{}, sessions)

	_, err := svc.SessionStats(context.Background(), "sess")
	require.NoError(t, err)
	assert.True(t, sessions.hadDeadline)
}

func TestLiveStatsServiceSessionWithoutScheduleFails(t *testing.T) {
	cases := map[string]models.QuizSession{
		"missing start":     {SessionID: "sess", QuizID: "Q9", EndDate: "2024-03-05"},
		"missing end":       {SessionID: "sess", QuizID: "Q9", StartDate: "2024-03-01"},
		"unparseable start": {SessionID: "sess", QuizID: "Q9", StartDate: "next tuesday", EndDate: "2024-03-05"},
	}
	for name, session := range cases {
		session := session
		t.Run(name, func(t *testing.T) {
			activity := &activityStub{}
			svc := newLiveStatsService(catalogStub{title: "Scheduled"}, activity, sessionDirectoryStub{session: &session})

			_, err := svc.SessionStats(context.Background(), "sess")
			assert.True(t, errors.Is(err, appErrors.ErrUpstreamUnavailable))
			assert.False(t, activity.called)
		})
	}
}

func TestLiveStatsServiceSessionNotFound(t *testing.T) {
	svc := newLiveStatsService(catalogStub{}, &activityStub{}, sessionDirectoryStub{err: repository.ErrSessionNotFound})
	_, err := svc.SessionStats(context.Background(), "nope")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	svc = newLiveStatsService(catalogStub{}, &activityStub{}, sessionDirectoryStub{err: errors.New("firestore")})
	_, err = svc.SessionStats(context.Background(), "nope")
	assert.True(t, errors.Is(err, appErrors.ErrUpstreamUnavailable))
}
