package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/reporting-engine/internal/models"
	appErrors "github.com/noah-isme/reporting-engine/pkg/errors"
	"github.com/noah-isme/reporting-engine/pkg/export"
)

type studentRecordStore interface {
	ListBySessionUser(ctx context.Context, sessionID, userID string) ([]models.SectionRecord, error)
	ListByUser(ctx context.Context, userID string) ([]models.SectionRecord, error)
}

type qualificationLookup interface {
	Lookup(ctx context.Context, userID, testID string) models.Qualification
}

type chapterMetadataLoader interface {
	LoadAll(ctx context.Context) (models.ChapterMetadataMap, error)
}

type documentRenderer interface {
	RenderDocument(doc export.Document) ([]byte, error)
}

// ReportServiceConfig tunes student report assembly.
type ReportServiceConfig struct {
	StoreTimeout  time.Duration
	CacheTTL      time.Duration
	QuizEngineURL string
	QuizAPIKey    string
}

// ReportService serves assembled student reports.
type ReportService struct {
	records       studentRecordStore
	qualification qualificationLookup
	chapters      models.ChapterMetadataMap
	cache         *CacheService
	metrics       *MetricsService
	pdf           documentRenderer
	logger        *zap.Logger
	cfg           ReportServiceConfig
}

// NewReportService constructs the report service. chapters is read-only after construction.
func NewReportService(records studentRecordStore, qualification qualificationLookup, chapters models.ChapterMetadataMap, cache *CacheService, metrics *MetricsService, pdf documentRenderer, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 5 * time.Second
	}
	if chapters == nil {
		chapters = models.ChapterMetadataMap{}
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ReportService{
		records:       records,
		qualification: qualification,
		chapters:      chapters,
		cache:         cache,
		metrics:       metrics,
		pdf:           pdf,
		logger:        logger,
		cfg:           cfg,
	}
}

// LoadChapterMetadata reads the chapter map once. Failures yield an empty map.
func LoadChapterMetadata(ctx context.Context, loader chapterMetadataLoader, logger *zap.Logger) models.ChapterMetadataMap {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loader == nil {
		return models.ChapterMetadataMap{}
	}
	meta, err := loader.LoadAll(ctx)
	if err != nil {
		logger.Warn("chapter metadata unavailable, recommendations disabled", zap.Error(err))
		return models.ChapterMetadataMap{}
	}
	logger.Info("chapter metadata loaded", zap.Int("chapters", len(meta)))
	return meta
}

// StudentReport assembles one student's report for a session.
func (s *ReportService) StudentReport(ctx context.Context, sessionID, userID string, stream models.Stream) (*models.ReportView, error) {
	if sessionID == "" || userID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "session_id and user_id are required")
	}

	cacheKey := fmt.Sprintf("report:%s:%s:%s", sessionID, userID, stream)
	var cached models.ReportView
	if s.cache.Get(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	records, err := s.fetch(ctx, "section_records_by_session_user", func(ctx context.Context) ([]models.SectionRecord, error) {
		return s.records.ListBySessionUser(ctx, sessionID, userID)
	})
	if err != nil {
		return nil, err
	}

	view, err := AssembleReport(records, AssembleOptions{
		Stream:        stream,
		QuizEngineURL: s.cfg.QuizEngineURL,
		QuizAPIKey:    s.cfg.QuizAPIKey,
		Logger:        s.logger,
	})
	if err != nil {
		return nil, err
	}

	s.enrich(ctx, view)
	view.SectionReports = PrioritizeChapters(view.SectionReports, s.chapters, view.Stream)

	s.cache.Set(ctx, cacheKey, view, s.cfg.CacheTTL)
	s.metrics.RecordReport("student")
	return view, nil
}

// enrich attaches the qualification message and revision recommendation.
func (s *ReportService) enrich(ctx context.Context, view *models.ReportView) {
	q := models.DefaultQualification
	if s.qualification != nil {
		q = s.qualification.Lookup(ctx, view.StudentID, view.TestID)
	}
	view.QualificationMessage = QualificationMessage(q)

	if q.RecommendedChapter != nil && *q.RecommendedChapter != "" {
		rec := &models.Recommendation{Chapter: *q.RecommendedChapter}
		if q.RecommendedLink != nil {
			rec.Link = *q.RecommendedLink
		}
		view.Recommendation = rec
		return
	}

	if chapter, link := SelectRevisionChapter(view.SectionReports, s.chapters, view.Stream); chapter != "" {
		view.Recommendation = &models.Recommendation{Chapter: chapter, Link: link}
	}
}

// StudentTests lists every test a student sat, most recent first.
func (s *ReportService) StudentTests(ctx context.Context, userID string) ([]models.StudentTest, error) {
	if userID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user_id is required")
	}
	records, err := s.fetch(ctx, "section_records_by_user", func(ctx context.Context) ([]models.SectionRecord, error) {
		return s.records.ListByUser(ctx, userID)
	})
	if err != nil {
		return nil, err
	}

	tests := make([]models.StudentTest, 0, len(records))
	for _, rec := range records {
		if !rec.IsOverall() {
			continue
		}
		tests = append(tests, models.StudentTest{
			SessionID:  rec.SessionID,
			TestID:     rec.TestID,
			TestName:   rec.TestName,
			TestDate:   rec.StartDate,
			Percentage: rec.Percentage,
		})
	}
	if len(tests) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no tests found for student")
	}
	sort.SliceStable(tests, func(i, j int) bool {
		return tests[i].TestDate > tests[j].TestDate
	})
	return tests, nil
}

// StudentReportPDF renders the assembled report as a PDF document.
func (s *ReportService) StudentReportPDF(ctx context.Context, sessionID, userID string, stream models.Stream) ([]byte, string, error) {
	view, err := s.StudentReport(ctx, sessionID, userID, stream)
	if err != nil {
		return nil, "", err
	}
	payload, err := s.pdf.RenderDocument(ReportDocument(view))
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report pdf")
	}
	filename := fmt.Sprintf("report_%s_%s.pdf", sanitizeFilename(sessionID), sanitizeFilename(userID))
	return payload, filename, nil
}

// ReportDocument lays a report view out as printable sections.
func ReportDocument(view *models.ReportView) export.Document {
	doc := export.Document{
		Title: view.TestName,
		Summary: []string{
			"Student: " + firstNonEmpty(view.StudentName, view.StudentID),
			"Test date: " + view.TestDate,
			"Stream: " + string(view.Stream),
		},
	}
	if view.QualificationMessage != "" {
		doc.Summary = append(doc.Summary, view.QualificationMessage)
	}
	if view.Recommendation != nil {
		doc.Summary = append(doc.Summary, "Revise: "+view.Recommendation.Chapter)
	}

	doc.Sections = append(doc.Sections, tableSections("Overall Performance", view.OverallPerformance)...)
	for _, section := range view.SectionReports {
		doc.Sections = append(doc.Sections, tableSections(section.Section, section)...)
	}
	return doc
}

func tableSections(heading string, data models.TableData) []export.Section {
	metrics := export.Dataset{Headers: []string{"Metric", "Value"}}
	for _, row := range data.Rows {
		metrics.Rows = append(metrics.Rows, map[string]string{"Metric": row.Label, "Value": row.Value})
	}
	out := []export.Section{{Heading: heading, Table: metrics}}
	if len(data.Chapters) == 0 {
		return out
	}

	chapters := export.Dataset{Headers: []string{"Chapter", "Marks", "Max", "Questions", "Accuracy", "Attempt", "Priority"}}
	for _, ch := range data.Chapters {
		chapters.Rows = append(chapters.Rows, map[string]string{
			"Chapter":   ch.Name,
			"Marks":     optionalMetric(ch.MarksScored, false),
			"Max":       optionalMetric(ch.MaxScore, false),
			"Questions": optionalMetric(ch.TotalQuestions, false),
			"Accuracy":  optionalMetric(ch.Accuracy, true),
			"Attempt":   optionalMetric(ch.AttemptPercentage, true),
			"Priority":  string(ch.Priority),
		})
	}
	return append(out, export.Section{Heading: heading + " - Chapters", Table: chapters})
}

// fetch runs a primary store query under the store timeout. Failures
// surface as UpstreamUnavailable so they never read as an empty report.
func (s *ReportService) fetch(ctx context.Context, label string, query func(context.Context) ([]models.SectionRecord, error)) ([]models.SectionRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	start := time.Now()
	records, err := query(ctx)
	s.metrics.ObserveDBQuery(label, time.Since(start))
	if err != nil {
		s.metrics.RecordUpstreamFailure("record_store")
		s.logger.Error("record store query failed", zap.String("query", label), zap.Error(err))
		return nil, appErrors.Upstream(err, "record store unavailable")
	}
	return records, nil
}

func optionalMetric(v *float64, percent bool) string {
	if v == nil {
		return ""
	}
	return formatMetric(*v, percent)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
