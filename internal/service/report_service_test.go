package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/reporting-engine/internal/models"
	appErrors "github.com/noah-isme/reporting-engine/pkg/errors"
)

type recordStoreStub struct {
	bySessionUser []models.SectionRecord
	byUser        []models.SectionRecord
	err           error
	calls         int
}

func (s *recordStoreStub) ListBySessionUser(ctx context.Context, sessionID, userID string) ([]models.SectionRecord, error) {
	s.calls++
	return s.bySessionUser, s.err
}

func (s *recordStoreStub) ListByUser(ctx context.Context, userID string) ([]models.SectionRecord, error) {
	s.calls++
	return s.byUser, s.err
}

type qualificationStub struct {
	result models.Qualification
}

func (s qualificationStub) Lookup(ctx context.Context, userID, testID string) models.Qualification {
	return s.result
}

type memoryCache struct {
	items map[string]interface{}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	v, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*(dest.(*models.ReportView)) = *(v.(*models.ReportView))
	return nil
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.items[key] = value
	return nil
}

func sessionRecords() []models.SectionRecord {
	physics := models.SectionRecord{
		SessionID:   "s1",
		UserID:      "u-1",
		Section:     "physics",
		MarksScored: f(20),
		ChapterWiseData: []models.ChapterStat{
			{ChapterName: "P1 - Motion", Accuracy: f(90), AttemptPercentage: f(90)},
			{ChapterName: "P2 - Optics", Accuracy: f(20), AttemptPercentage: f(30)},
		},
	}
	return []models.SectionRecord{overallRecord(), physics}
}

func chapterMeta() models.ChapterMetadataMap {
	return models.ChapterMetadataMap{
		"P1": {Code: "P1", NEETPriority: models.PriorityHigh},
		"P2": {Code: "P2", NEETLink: "https://revise/p2", NEETPriority: models.PriorityMedium},
	}
}

func TestReportServiceStudentReport(t *testing.T) {
	store := &recordStoreStub{bySessionUser: sessionRecords()}
	svc := NewReportService(store, qualificationStub{result: models.DefaultQualification}, chapterMeta(), nil, nil, nil, nil, ReportServiceConfig{})

	view, err := svc.StudentReport(context.Background(), "s1", "u-1", "")
	require.NoError(t, err)
	assert.Equal(t, models.StreamNEET, view.Stream)
	assert.Equal(t, QualificationMessage(models.DefaultQualification), view.QualificationMessage)
	require.NotNil(t, view.Recommendation)
	assert.Equal(t, "Optics", view.Recommendation.Chapter)
	assert.Equal(t, "https://revise/p2", view.Recommendation.Link)

	require.Len(t, view.SectionReports, 1)
	chapters := view.SectionReports[0].Chapters
	assert.Equal(t, "P1", chapters[0].Code)
	assert.Equal(t, models.PriorityHigh, chapters[0].Priority)
}

func TestReportServicePrefersWarehouseRecommendation(t *testing.T) {
	chapter, link := "Thermodynamics", "https://revise/thermo"
	margin := 12.5
	store := &recordStoreStub{bySessionUser: sessionRecords()}
	qual := qualificationStub{result: models.Qualification{
		Status:             models.StatusNotQualified,
		Margin:             &margin,
		RecommendedChapter: &chapter,
		RecommendedLink:    &link,
	}}
	svc := NewReportService(store, qual, chapterMeta(), nil, nil, nil, nil, ReportServiceConfig{})

	view, err := svc.StudentReport(context.Background(), "s1", "u-1", models.StreamJEE)
	require.NoError(t, err)
	assert.Equal(t, "You need 12.5 more marks to qualify.", view.QualificationMessage)
	assert.Equal(t, &models.Recommendation{Chapter: chapter, Link: link}, view.Recommendation)
}

func TestReportServiceDistinguishesNotFoundFromUpstream(t *testing.T) {
	empty := NewReportService(&recordStoreStub{}, nil, nil, nil, nil, nil, nil, ReportServiceConfig{})
	_, err := empty.StudentReport(context.Background(), "s1", "u-1", "")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.False(t, errors.Is(err, appErrors.ErrUpstreamUnavailable))

	failing := NewReportService(&recordStoreStub{err: errors.New("throttled")}, nil, nil, nil, nil, nil, nil, ReportServiceConfig{})
	_, err = failing.StudentReport(context.Background(), "s1", "u-1", "")
	assert.True(t, errors.Is(err, appErrors.ErrUpstreamUnavailable))
	assert.False(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestReportServiceRequiresIdentifiers(t *testing.T) {
	svc := NewReportService(&recordStoreStub{}, nil, nil, nil, nil, nil, nil, ReportServiceConfig{})
	_, err := svc.StudentReport(context.Background(), "", "u-1", "")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestReportServiceUsesCache(t *testing.T) {
	store := &recordStoreStub{bySessionUser: sessionRecords()}
	cache := NewCacheService(&memoryCache{items: map[string]interface{}{}}, NewMetricsService(), time.Minute, nil, true)
	svc := NewReportService(store, nil, chapterMeta(), cache, nil, nil, nil, ReportServiceConfig{})

	first, err := svc.StudentReport(context.Background(), "s1", "u-1", "")
	require.NoError(t, err)
	second, err := svc.StudentReport(context.Background(), "s1", "u-1", "")
	require.NoError(t, err)

	assert.Equal(t, 1, store.calls)
	assert.Equal(t, first.TestName, second.TestName)
}

func TestReportServiceStudentTests(t *testing.T) {
	older := overallRecord()
	older.SessionID, older.StartDate = "s0", "2023-12-01"
	newer := overallRecord()
	newer.SessionID, newer.StartDate = "s2", "2024-02-01"
	store := &recordStoreStub{byUser: []models.SectionRecord{
		older,
		{SessionID: "s2", Section: "physics"},
		newer,
	}}
	svc := NewReportService(store, nil, nil, nil, nil, nil, nil, ReportServiceConfig{})

	tests, err := svc.StudentTests(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, tests, 2)
	assert.Equal(t, "s2", tests[0].SessionID)
	assert.Equal(t, "s0", tests[1].SessionID)

	_, err = NewReportService(&recordStoreStub{}, nil, nil, nil, nil, nil, nil, ReportServiceConfig{}).StudentTests(context.Background(), "u-1")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestReportServiceStudentReportPDF(t *testing.T) {
	store := &recordStoreStub{bySessionUser: sessionRecords()}
	svc := NewReportService(store, nil, chapterMeta(), nil, nil, nil, nil, ReportServiceConfig{})

	payload, filename, err := svc.StudentReportPDF(context.Background(), "s1", "u-1", "")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(payload, []byte("%PDF")))
	assert.Equal(t, "report_s1_u-1.pdf", filename)
}

func TestReportDocumentIncludesChapterTables(t *testing.T) {
	view, err := AssembleReport(sessionRecords(), AssembleOptions{})
	require.NoError(t, err)

	doc := ReportDocument(view)
	require.Len(t, doc.Sections, 3)
	assert.Equal(t, "Overall Performance", doc.Sections[0].Heading)
	assert.Equal(t, "physics - Chapters", doc.Sections[2].Heading)
	assert.Equal(t, "Optics", doc.Sections[2].Table.Rows[1]["Chapter"])
}

type chapterLoaderStub struct {
	meta models.ChapterMetadataMap
	err  error
}

func (s chapterLoaderStub) LoadAll(ctx context.Context) (models.ChapterMetadataMap, error) {
	return s.meta, s.err
}

func TestLoadChapterMetadataFallsBackToEmpty(t *testing.T) {
	meta := LoadChapterMetadata(context.Background(), chapterLoaderStub{err: errors.New("down")}, nil)
	assert.NotNil(t, meta)
	assert.Empty(t, meta)

	meta = LoadChapterMetadata(context.Background(), chapterLoaderStub{meta: chapterMeta()}, nil)
	assert.Len(t, meta, 2)
}
