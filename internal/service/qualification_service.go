package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/reporting-engine/internal/models"
	"github.com/noah-isme/reporting-engine/internal/repository"
)

type qualificationStore interface {
	Get(ctx context.Context, userID, testID string) (*models.Qualification, error)
}

// QualificationService reads cutoff standings from the analytics warehouse.
// Every failure degrades to models.DefaultQualification.
type QualificationService struct {
	repo    qualificationStore
	metrics *MetricsService
	timeout time.Duration
	logger  *zap.Logger
}

// NewQualificationService constructs the service. A nil repo always yields the default.
func NewQualificationService(repo qualificationStore, metrics *MetricsService, timeout time.Duration, logger *zap.Logger) *QualificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &QualificationService{repo: repo, metrics: metrics, timeout: timeout, logger: logger}
}

// Lookup returns the student's qualification for a test.
func (s *QualificationService) Lookup(ctx context.Context, userID, testID string) models.Qualification {
	if s == nil || s.repo == nil || testID == "" {
		return models.DefaultQualification
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	q, err := s.repo.Get(ctx, userID, testID)
	s.metrics.ObserveDBQuery("qualification", time.Since(start))
	if err != nil {
		if !errors.Is(err, repository.ErrQualificationNotFound) {
			s.metrics.RecordEnrichmentFallback("qualification")
			s.logger.Warn("qualification lookup failed",
				zap.String("user_id", userID),
				zap.String("test_id", testID),
				zap.Error(err),
			)
		}
		return models.DefaultQualification
	}
	if q == nil || q.Status == "" {
		return models.DefaultQualification
	}
	return *q
}

// QualificationMessage renders the student facing cutoff message.
func QualificationMessage(q models.Qualification) string {
	if q.Status != models.StatusNotQualified {
		return "Congratulations! You have cleared the cutoff for this test."
	}
	if q.Margin != nil && *q.Margin > 0 {
		return fmt.Sprintf("You need %s more marks to qualify.", strconv.FormatFloat(*q.Margin, 'f', -1, 64))
	}
	return "You have not cleared the cutoff for this test yet. Keep practising."
}
