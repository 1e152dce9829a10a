package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/reporting-engine/internal/dto"
	"github.com/noah-isme/reporting-engine/internal/idcodec"
	"github.com/noah-isme/reporting-engine/internal/models"
	"github.com/noah-isme/reporting-engine/internal/repository"
	appErrors "github.com/noah-isme/reporting-engine/pkg/errors"
	"github.com/noah-isme/reporting-engine/pkg/export"
)

type quizCatalog interface {
	QuizTitle(ctx context.Context, quizID string) (string, error)
}

type activityStore interface {
	ListByQuiz(ctx context.Context, quizID string, window idcodec.IdentifierRange) ([]models.ActivityRecord, error)
}

type quizSessionDirectory interface {
	QuizSession(ctx context.Context, sessionID string) (*models.QuizSession, error)
}

// LiveStatsService aggregates quiz activity into daily attempt statistics.
type LiveStatsService struct {
	catalog   quizCatalog
	activity  activityStore
	sessions  quizSessionDirectory
	codec     idcodec.Codec
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	timeout   time.Duration
	now       func() time.Time
}

// NewLiveStatsService wires the live statistics pipeline.
func NewLiveStatsService(catalog quizCatalog, activity activityStore, sessions quizSessionDirectory, codec idcodec.Codec, validate *validator.Validate, metrics *MetricsService, timeout time.Duration, logger *zap.Logger) *LiveStatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if codec == nil {
		codec = idcodec.ObjectIDCodec{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &LiveStatsService{
		catalog:   catalog,
		activity:  activity,
		sessions:  sessions,
		codec:     codec,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		timeout:   timeout,
		now:       time.Now,
	}
}

// QuizStats returns the daily series for a quiz within the optional window.
func (s *LiveStatsService) QuizStats(ctx context.Context, quizID string, query dto.LiveStatsQuery) (*models.LiveQuizStats, error) {
	if strings.TrimSpace(quizID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "quiz_id is required")
	}
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_date and end_date must be YYYY-MM-DD")
	}
	start, err := optionalDate(query.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := optionalDate(query.EndDate)
	if err != nil {
		return nil, err
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must not be after end_date")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	title, err := s.catalog.QuizTitle(ctx, quizID)
	if err != nil {
		if errors.Is(err, repository.ErrQuizNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "quiz not found")
		}
		s.metrics.RecordUpstreamFailure("quiz_catalog")
		return nil, appErrors.Upstream(err, "quiz catalog unavailable")
	}

	window := idcodec.ResolveRange(s.codec, start, end, s.now())
	begin := time.Now()
	records, err := s.activity.ListByQuiz(ctx, quizID, window)
	s.metrics.ObserveDBQuery("activity_by_quiz", time.Since(begin))
	if err != nil {
		s.metrics.RecordUpstreamFailure("activity_store")
		s.logger.Error("activity query failed", zap.String("quiz_id", quizID), zap.Error(err))
		return nil, appErrors.Upstream(err, "activity store unavailable")
	}

	stats := BuildDailyStats(records, s.codec, s.logger)
	stats.QuizID = quizID
	stats.QuizTitle = title
	stats.StartDate = query.StartDate
	stats.EndDate = query.EndDate
	s.metrics.RecordReport("live_quiz")
	return &stats, nil
}

// SessionStats resolves a scheduled session to its quiz and window. A session
// without a parseable start and end date is reported as malformed upstream data.
func (s *LiveStatsService) SessionStats(ctx context.Context, sessionID string) (*models.LiveQuizStats, error) {
	if s.sessions == nil {
		return nil, appErrors.Clone(appErrors.ErrUpstreamUnavailable, "session directory not configured")
	}
	lookupCtx, cancel := context.WithTimeout(ctx, s.timeout)
	session, err := s.sessions.QuizSession(lookupCtx, sessionID)
	cancel()
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		s.metrics.RecordUpstreamFailure("session_directory")
		return nil, appErrors.Upstream(err, "session directory unavailable")
	}

	start, startOK := sessionDate(session.StartDate)
	end, endOK := sessionDate(session.EndDate)
	if !startOK || !endOK {
		s.metrics.RecordUpstreamFailure("session_directory")
		s.logger.Warn("session schedule malformed",
			zap.String("session_id", sessionID),
			zap.String("start_date", session.StartDate),
			zap.String("end_date", session.EndDate),
		)
		return nil, appErrors.Clone(appErrors.ErrUpstreamUnavailable, "session schedule is malformed")
	}
	return s.QuizStats(ctx, session.QuizID, dto.LiveStatsQuery{StartDate: start, EndDate: end})
}

// LiveStatsDataset flattens stats into a tabular export.
func LiveStatsDataset(stats *models.LiveQuizStats) export.Dataset {
	data := export.Dataset{Headers: []string{"Date", "Unique Sessions", "Unique Users", "Finished Sessions"}}
	for _, day := range stats.Daywise {
		data.Rows = append(data.Rows, map[string]string{
			"Date":              day.Date.String(),
			"Unique Sessions":   strconv.Itoa(day.UniqueSessions),
			"Unique Users":      strconv.Itoa(day.UniqueUsers),
			"Finished Sessions": strconv.Itoa(day.FinishedSessions),
		})
	}
	data.Rows = append(data.Rows, map[string]string{
		"Date":              "Total",
		"Unique Sessions":   strconv.Itoa(stats.TotalSessions),
		"Unique Users":      strconv.Itoa(stats.TotalUniqueUsers),
		"Finished Sessions": strconv.Itoa(stats.TotalFinishedSessions),
	})
	return data
}

// LiveStatsFilename names a rendered live stats export.
func LiveStatsFilename(stats *models.LiveQuizStats, format string) string {
	return fmt.Sprintf("live_quiz_%s.%s", sanitizeFilename(stats.QuizID), format)
}

func optionalDate(raw *string) (*idcodec.Date, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	d, err := idcodec.ParseDate(*raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid date %q", *raw))
	}
	return &d, nil
}

// sessionDate keeps the calendar part of a scheduled session timestamp.
func sessionDate(raw string) (*string, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) < len(idcodec.DateLayout) {
		return nil, false
	}
	day := raw[:len(idcodec.DateLayout)]
	if _, err := idcodec.ParseDate(day); err != nil {
		return nil, false
	}
	return &day, true
}
