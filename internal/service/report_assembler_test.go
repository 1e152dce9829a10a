package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/reporting-engine/internal/models"
	appErrors "github.com/noah-isme/reporting-engine/pkg/errors"
)

func f(v float64) *float64 { return &v }

func overallRecord() models.SectionRecord {
	return models.SectionRecord{
		SessionID:   "s1",
		UserID:      "u-1",
		Section:     models.OverallSection,
		TestID:      "t1",
		TestName:    "NEET Major Test 3",
		StartDate:   "2024-01-02",
		MarksScored: f(120),
		Percentage:  f(60),
	}
}

func rowValue(t *testing.T, data models.TableData, key string) string {
	t.Helper()
	row, ok := data.Row(key)
	require.True(t, ok, "row %s missing", key)
	return row.Value
}

func TestBuildTableDataDerivesAccuracy(t *testing.T) {
	data := BuildTableData(models.SectionRecord{Section: "physics", NumCorrect: f(30), NumWrong: f(15)})
	assert.Equal(t, "66.67%", rowValue(t, data, "accuracy"))

	zero := BuildTableData(models.SectionRecord{Section: "physics", NumCorrect: f(0), NumWrong: f(0)})
	assert.Equal(t, "0%", rowValue(t, zero, "accuracy"))
}

func TestBuildTableDataPrefersStoredAccuracy(t *testing.T) {
	data := BuildTableData(models.SectionRecord{NumCorrect: f(1), NumWrong: f(1), Accuracy: f(80)})
	assert.Equal(t, "80%", rowValue(t, data, "accuracy"))
}

func TestBuildTableDataFollowsTaxonomyAndSkipsAbsentFields(t *testing.T) {
	data := BuildTableData(models.SectionRecord{
		Rank:        f(4),
		MarksScored: f(40),
		NumSkipped:  f(2),
		Percentage:  f(55.556),
	})
	labels := make([]string, 0, len(data.Rows))
	for _, row := range data.Rows {
		labels = append(labels, row.Label)
	}
	assert.Equal(t, []string{"Marks", "Skipped", "Percentage", "Rank"}, labels)
	assert.Equal(t, "55.56%", rowValue(t, data, "percentage"))
	_, ok := data.Row("accuracy")
	assert.False(t, ok)
}

func TestParseChapterName(t *testing.T) {
	code, name := ParseChapterName("PHY01 - Kinematics ")
	assert.Equal(t, "PHY01", code)
	assert.Equal(t, "Kinematics", name)

	code, name = ParseChapterName(" Optics")
	assert.Equal(t, "Optics", code)
	assert.Equal(t, "Optics", name)
}

func TestBuildTableDataAttachesChapters(t *testing.T) {
	data := BuildTableData(models.SectionRecord{ChapterWiseData: []models.ChapterStat{
		{ChapterName: "C1 - Motion", Accuracy: f(50)},
		{ChapterName: "C2 -   "},
	}})
	require.Len(t, data.Chapters, 1)
	assert.Equal(t, "C1", data.Chapters[0].Code)
	assert.Equal(t, "Motion", data.Chapters[0].Name)
}

func TestAssembleReport(t *testing.T) {
	records := []models.SectionRecord{
		{SessionID: "s1", UserID: "u-1", Section: "chemistry", MarksScored: f(40)},
		overallRecord(),
		{SessionID: "s1", UserID: "u-1", Section: "biology", MarksScored: f(80)},
	}
	view, err := AssembleReport(records, AssembleOptions{})
	require.NoError(t, err)

	assert.Equal(t, "u-1", view.StudentID)
	assert.Equal(t, "NEET Major Test 3", view.TestName)
	assert.Equal(t, "2024-01-02", view.TestDate)
	assert.Equal(t, models.StreamNEET, view.Stream)
	assert.Equal(t, 60.0, *view.Percentage)
	assert.Equal(t, "120", rowValue(t, view.OverallPerformance, "marks_scored"))
	require.Len(t, view.SectionReports, len(records)-1)
	assert.Equal(t, "chemistry", view.SectionReports[0].Section)
	assert.Equal(t, "biology", view.SectionReports[1].Section)
	assert.Empty(t, view.QuizLink)
}

func TestAssembleReportNotFound(t *testing.T) {
	_, err := AssembleReport(nil, AssembleOptions{})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = AssembleReport([]models.SectionRecord{{Section: "physics"}}, AssembleOptions{})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.False(t, errors.Is(err, appErrors.ErrUpstreamUnavailable))
}

func TestAssembleReportQuizLink(t *testing.T) {
	overall := overallRecord()
	overall.Platform = models.PlatformQuiz
	view, err := AssembleReport([]models.SectionRecord{overall}, AssembleOptions{
		Stream:        models.StreamJEE,
		QuizEngineURL: "https://quiz.example.org/",
		QuizAPIKey:    "key",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StreamJEE, view.Stream)
	assert.Equal(t, "https://quiz.example.org/quiz/t1?apiKey=key&userId=u-1", view.QuizLink)
}

func chapterSections(chapters ...models.ChapterRow) []models.TableData {
	return []models.TableData{{Section: "physics", Chapters: chapters}}
}

func TestSelectRevisionChapterPicksLowestScore(t *testing.T) {
	meta := models.ChapterMetadataMap{
		"A": {Code: "A", JEELink: "jee/a", NEETLink: "neet/a"},
		"B": {Code: "B", JEELink: "jee/b"},
	}
	sections := chapterSections(
		models.ChapterRow{Code: "B", Name: "Beta", Accuracy: f(30), AttemptPercentage: f(25)},
		models.ChapterRow{Code: "A", Name: "Alpha", Accuracy: f(20), AttemptPercentage: f(20)},
	)
	chapter, link := SelectRevisionChapter(sections, meta, models.StreamNEET)
	assert.Equal(t, "Alpha", chapter)
	assert.Equal(t, "neet/a", link)
}

func TestSelectRevisionChapterIgnoresUnknownChapters(t *testing.T) {
	meta := models.ChapterMetadataMap{"K": {Code: "K", JEELink: "jee/k"}}
	sections := chapterSections(
		models.ChapterRow{Code: "X", Name: "Weakest", Accuracy: f(0), AttemptPercentage: f(0)},
		models.ChapterRow{Code: "K", Name: "Known", Accuracy: f(70), AttemptPercentage: f(90)},
	)
	chapter, link := SelectRevisionChapter(sections, meta, models.StreamJEE)
	assert.Equal(t, "Known", chapter)
	assert.Equal(t, "jee/k", link)
}

func TestSelectRevisionChapterNoCandidates(t *testing.T) {
	meta := models.ChapterMetadataMap{"A": {Code: "A"}}
	sections := chapterSections(
		models.ChapterRow{Code: "A", Name: "Alpha", Accuracy: f(90), AttemptPercentage: f(90)},
		models.ChapterRow{Code: "A", Name: "Alpha", Accuracy: nil, AttemptPercentage: f(10)},
	)
	chapter, link := SelectRevisionChapter(sections, meta, models.StreamJEE)
	assert.Empty(t, chapter)
	assert.Empty(t, link)
}

func TestSelectRevisionChapterTieKeepsFirst(t *testing.T) {
	meta := models.ChapterMetadataMap{"A": {Code: "A"}, "B": {Code: "B"}}
	sections := chapterSections(
		models.ChapterRow{Code: "A", Name: "First", Accuracy: f(30), AttemptPercentage: f(30)},
		models.ChapterRow{Code: "B", Name: "Second", Accuracy: f(40), AttemptPercentage: f(20)},
	)
	chapter, _ := SelectRevisionChapter(sections, meta, models.StreamJEE)
	assert.Equal(t, "First", chapter)
}

func TestPrioritizeChaptersIsStable(t *testing.T) {
	meta := models.ChapterMetadataMap{
		"H":  {Code: "H", JEEPriority: models.PriorityHigh, NEETPriority: models.PriorityLow},
		"M1": {Code: "M1", JEEPriority: models.PriorityMedium},
		"M2": {Code: "M2", JEEPriority: models.PriorityMedium},
	}
	sections := chapterSections(
		models.ChapterRow{Code: "M1"},
		models.ChapterRow{Code: "U"},
		models.ChapterRow{Code: "M2"},
		models.ChapterRow{Code: "H"},
	)

	out := PrioritizeChapters(sections, meta, models.StreamJEE)
	codes := make([]string, 0, 4)
	for _, ch := range out[0].Chapters {
		codes = append(codes, ch.Code)
	}
	assert.Equal(t, []string{"H", "M1", "M2", "U"}, codes)
	assert.Equal(t, models.PriorityLow, out[0].Chapters[3].Priority)
	assert.Equal(t, "M1", sections[0].Chapters[0].Code, "input must not be reordered")
	assert.Empty(t, sections[0].Chapters[0].Priority)
}

func TestInferStream(t *testing.T) {
	assert.Equal(t, models.StreamNEET, InferStream("neet mock"))
	assert.Equal(t, models.StreamJEE, InferStream("Weekly Test"))
}
