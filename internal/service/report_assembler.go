package service

import (
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/reporting-engine/internal/models"
	appErrors "github.com/noah-isme/reporting-engine/pkg/errors"
)

// Chapter revision thresholds, in percent.
const (
	revisionAccuracyThreshold = 75
	revisionAttemptThreshold  = 50
)

// ErrReportNotFound is returned when a session holds no usable report for a user.
var ErrReportNotFound = appErrors.Clone(appErrors.ErrNotFound, "no report available")

// rowSpec is one entry of the fixed table taxonomy.
type rowSpec struct {
	key     string
	label   string
	value   func(models.SectionRecord) *float64
	percent bool
}

var rowTaxonomy = []rowSpec{
	{key: "marks_scored", label: "Marks", value: func(r models.SectionRecord) *float64 { return r.MarksScored }},
	{key: "num_skipped", label: "Skipped", value: func(r models.SectionRecord) *float64 { return r.NumSkipped }},
	{key: "num_wrong", label: "Wrong", value: func(r models.SectionRecord) *float64 { return r.NumWrong }},
	{key: "num_correct", label: "Correct", value: func(r models.SectionRecord) *float64 { return r.NumCorrect }},
	{key: "num_partially_correct", label: "Partially Correct", value: func(r models.SectionRecord) *float64 { return r.NumPartiallyCorrect }},
	{key: "percentage", label: "Percentage", value: func(r models.SectionRecord) *float64 { return r.Percentage }, percent: true},
	{key: "accuracy", label: "Accuracy", value: accuracyOf, percent: true},
	{key: "highest_test_score", label: "Topper Marks", value: func(r models.SectionRecord) *float64 { return r.HighestTestScore }},
	{key: "percentile", label: "Percentile", value: func(r models.SectionRecord) *float64 { return r.Percentile }},
	{key: "rank", label: "Rank", value: func(r models.SectionRecord) *float64 { return r.Rank }},
	{key: "weightage", label: "Weightage", value: func(r models.SectionRecord) *float64 { return r.Weightage }},
}

// accuracyOf prefers the stored accuracy and otherwise derives it from the
// correct and wrong counts. A zero denominator yields 0.
func accuracyOf(r models.SectionRecord) *float64 {
	if r.Accuracy != nil {
		return r.Accuracy
	}
	if r.NumCorrect == nil || r.NumWrong == nil {
		return nil
	}
	var acc float64
	if denom := *r.NumCorrect + *r.NumWrong; denom != 0 {
		acc = 100 * *r.NumCorrect / denom
	}
	return &acc
}

func formatMetric(v float64, percent bool) string {
	s := strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
	if percent {
		s += "%"
	}
	return s
}

// ParseChapterName splits "CODE - Name" into its trimmed parts. Without a
// hyphen the whole string is both code and name.
func ParseChapterName(raw string) (code, name string) {
	if before, after, found := strings.Cut(raw, "-"); found {
		return strings.TrimSpace(before), strings.TrimSpace(after)
	}
	trimmed := strings.TrimSpace(raw)
	return trimmed, trimmed
}

// BuildTableData renders a record through the row taxonomy. Rows whose field
// is absent are left out, as are chapters without a name.
func BuildTableData(record models.SectionRecord) models.TableData {
	data := models.TableData{Section: record.Section, Rows: make([]models.TableRow, 0, len(rowTaxonomy))}
	for _, row := range rowTaxonomy {
		v := row.value(record)
		if v == nil {
			continue
		}
		data.Rows = append(data.Rows, models.TableRow{
			Key:   row.key,
			Label: row.label,
			Value: formatMetric(*v, row.percent),
			Raw:   *v,
		})
	}

	for _, ch := range record.ChapterWiseData {
		code, name := ParseChapterName(ch.ChapterName)
		if name == "" {
			continue
		}
		data.Chapters = append(data.Chapters, models.ChapterRow{
			Code:              code,
			Name:              name,
			MarksScored:       ch.MarksScored,
			MaxScore:          ch.MaxScore,
			TotalQuestions:    ch.TotalQuestions,
			Accuracy:          ch.Accuracy,
			AttemptPercentage: ch.AttemptPercentage,
		})
	}
	return data
}

// AssembleOptions carries request scoped inputs for AssembleReport.
type AssembleOptions struct {
	Stream        models.Stream
	QuizEngineURL string
	QuizAPIKey    string
	Logger        *zap.Logger
}

// AssembleReport shapes one user's section records into a report view. The
// first "overall" record supplies test metadata; remaining records become
// section reports in arrival order.
func AssembleReport(records []models.SectionRecord, opts AssembleOptions) (*models.ReportView, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(records) == 0 {
		return nil, ErrReportNotFound
	}

	var overall *models.SectionRecord
	sections := make([]models.TableData, 0, len(records))
	for i := range records {
		rec := records[i]
		if rec.IsOverall() {
			if overall == nil {
				overall = &records[i]
			} else {
				logger.Warn("duplicate overall record ignored",
					zap.String("session_id", rec.SessionID),
					zap.String("user_id", rec.UserID),
				)
			}
			continue
		}
		sections = append(sections, BuildTableData(rec))
	}
	if overall == nil {
		logger.Warn("report has no overall record",
			zap.String("session_id", records[0].SessionID),
			zap.String("user_id", records[0].UserID),
		)
		return nil, ErrReportNotFound
	}

	stream := opts.Stream
	if stream == "" {
		stream = InferStream(overall.TestName)
	}

	view := &models.ReportView{
		SessionID:          overall.SessionID,
		StudentID:          overall.UserID,
		StudentName:        overall.StudentName,
		TestID:             overall.TestID,
		TestName:           overall.TestName,
		TestDate:           overall.StartDate,
		Stream:             stream,
		Percentage:         overall.Percentage,
		OverallPerformance: BuildTableData(*overall),
		SectionReports:     sections,
	}
	if overall.Platform == models.PlatformQuiz {
		view.QuizLink = QuizLink(opts.QuizEngineURL, overall.TestID, overall.UserID, opts.QuizAPIKey)
	}
	return view, nil
}

// InferStream reads the stream from a test name, defaulting to JEE.
func InferStream(testName string) models.Stream {
	if strings.Contains(strings.ToUpper(testName), string(models.StreamNEET)) {
		return models.StreamNEET
	}
	return models.StreamJEE
}

// QuizLink deep-links a student back into the quiz engine. Empty when the
// base URL or test id is missing.
func QuizLink(baseURL, testID, userID, apiKey string) string {
	if baseURL == "" || testID == "" {
		return ""
	}
	q := url.Values{}
	q.Set("userId", userID)
	q.Set("apiKey", apiKey)
	return strings.TrimRight(baseURL, "/") + "/quiz/" + url.PathEscape(testID) + "?" + q.Encode()
}

// SelectRevisionChapter picks the weakest known chapter across all sections.
// A chapter is eligible when its accuracy or attempt rate is at or below the
// revision threshold and its code is in meta. The lowest accuracy plus
// attempt score wins; ties go to the first seen.
func SelectRevisionChapter(sections []models.TableData, meta models.ChapterMetadataMap, stream models.Stream) (chapter, link string) {
	var (
		best      *models.ChapterRow
		bestScore float64
	)
	for i := range sections {
		for j := range sections[i].Chapters {
			ch := &sections[i].Chapters[j]
			if ch.Accuracy == nil || ch.AttemptPercentage == nil {
				continue
			}
			if *ch.Accuracy > revisionAccuracyThreshold && *ch.AttemptPercentage > revisionAttemptThreshold {
				continue
			}
			if _, known := meta[ch.Code]; !known {
				continue
			}
			score := *ch.Accuracy + *ch.AttemptPercentage
			if best == nil || score < bestScore {
				best, bestScore = ch, score
			}
		}
	}
	if best == nil {
		return "", ""
	}
	return best.Name, meta[best.Code].Link(stream)
}

// PrioritizeChapters returns copies of sections with each chapter list
// stable-sorted from High to Low tier. Unknown chapters rank Low.
func PrioritizeChapters(sections []models.TableData, meta models.ChapterMetadataMap, stream models.Stream) []models.TableData {
	out := make([]models.TableData, len(sections))
	for i, section := range sections {
		out[i] = section
		if len(section.Chapters) == 0 {
			continue
		}
		chapters := make([]models.ChapterRow, len(section.Chapters))
		copy(chapters, section.Chapters)
		for j := range chapters {
			chapters[j].Priority = models.PriorityLow
			if m, ok := meta[chapters[j].Code]; ok {
				chapters[j].Priority = m.Priority(stream)
			}
		}
		sort.SliceStable(chapters, func(a, b int) bool {
			return chapters[a].Priority.Rank() > chapters[b].Priority.Rank()
		})
		out[i].Chapters = chapters
	}
	return out
}
