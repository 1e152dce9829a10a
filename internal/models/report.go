package models

// TableRow is one labelled metric of a section table.
type TableRow struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Value string  `json:"value"`
	Raw   float64 `json:"raw"`
}

// ChapterRow is one parsed chapter line of a section.
type ChapterRow struct {
	Code              string   `json:"chapter_code"`
	Name              string   `json:"chapter_name"`
	MarksScored       *float64 `json:"marks_scored,omitempty"`
	MaxScore          *float64 `json:"max_score,omitempty"`
	TotalQuestions    *float64 `json:"total_questions,omitempty"`
	Accuracy          *float64 `json:"accuracy,omitempty"`
	AttemptPercentage *float64 `json:"attempt_percentage,omitempty"`
	Priority          Priority `json:"priority,omitempty"`
}

// TableData is the rendered view of one section record.
type TableData struct {
	Section  string       `json:"section"`
	Rows     []TableRow   `json:"rows"`
	Chapters []ChapterRow `json:"chapters,omitempty"`
}

// Row returns the row with key, if present.
func (t TableData) Row(key string) (TableRow, bool) {
	for _, row := range t.Rows {
		if row.Key == key {
			return row, true
		}
	}
	return TableRow{}, false
}

// Recommendation points a student at one chapter to revise.
type Recommendation struct {
	Chapter string `json:"chapter"`
	Link    string `json:"link,omitempty"`
}

// ReportView is the assembled student report. Built per request.
type ReportView struct {
	SessionID            string          `json:"session_id"`
	StudentID            string          `json:"student_id"`
	StudentName          string          `json:"student_name,omitempty"`
	TestID               string          `json:"test_id,omitempty"`
	TestName             string          `json:"test_name"`
	TestDate             string          `json:"test_date"`
	Stream               Stream          `json:"stream"`
	Percentage           *float64        `json:"percentage,omitempty"`
	OverallPerformance   TableData       `json:"overall_performance"`
	SectionReports       []TableData     `json:"section_reports"`
	QuizLink             string          `json:"quiz_link,omitempty"`
	QualificationMessage string          `json:"qualification_message,omitempty"`
	Recommendation       *Recommendation `json:"revision_recommendation,omitempty"`
}

// StudentTest summarises one test a student sat.
type StudentTest struct {
	SessionID  string   `json:"session_id"`
	TestID     string   `json:"test_id,omitempty"`
	TestName   string   `json:"test_name"`
	TestDate   string   `json:"test_date"`
	Percentage *float64 `json:"percentage,omitempty"`
}
