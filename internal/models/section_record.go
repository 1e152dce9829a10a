package models

import (
	"fmt"
	"strings"
)

// OverallSection is the synthetic section carrying test level totals.
const OverallSection = "overall"

// RangeKeySeparator joins user id and section in the table sort key.
const RangeKeySeparator = "-"

// PlatformQuiz tags records produced by the quiz engine.
const PlatformQuiz = "quiz"

// SectionRecord is one (session, user, section) row of the reports table.
// Numeric fields are optional since older ingestion runs did not emit them.
type SectionRecord struct {
	SessionID string `dynamodbav:"session_id" json:"session_id"`
	RangeKey  string `dynamodbav:"user_id-section" json:"user_id-section"`
	UserID    string `dynamodbav:"user_id" json:"user_id"`
	Section   string `dynamodbav:"section" json:"section"`

	StudentName string `dynamodbav:"student_name,omitempty" json:"student_name,omitempty"`
	TestID      string `dynamodbav:"test_id,omitempty" json:"test_id,omitempty"`
	TestName    string `dynamodbav:"test_name,omitempty" json:"test_name,omitempty"`
	StartDate   string `dynamodbav:"start_date,omitempty" json:"start_date,omitempty"`
	Platform    string `dynamodbav:"platform,omitempty" json:"platform,omitempty"`

	MarksScored         *float64 `dynamodbav:"marks_scored,omitempty" json:"marks_scored,omitempty"`
	NumCorrect          *float64 `dynamodbav:"num_correct,omitempty" json:"num_correct,omitempty"`
	NumWrong            *float64 `dynamodbav:"num_wrong,omitempty" json:"num_wrong,omitempty"`
	NumPartiallyCorrect *float64 `dynamodbav:"num_partially_correct,omitempty" json:"num_partially_correct,omitempty"`
	NumSkipped          *float64 `dynamodbav:"num_skipped,omitempty" json:"num_skipped,omitempty"`
	Percentage          *float64 `dynamodbav:"percentage,omitempty" json:"percentage,omitempty"`
	Percentile          *float64 `dynamodbav:"percentile,omitempty" json:"percentile,omitempty"`
	Rank                *float64 `dynamodbav:"rank,omitempty" json:"rank,omitempty"`
	Accuracy            *float64 `dynamodbav:"accuracy,omitempty" json:"accuracy,omitempty"`
	HighestTestScore    *float64 `dynamodbav:"highest_test_score,omitempty" json:"highest_test_score,omitempty"`
	Weightage           *float64 `dynamodbav:"weightage,omitempty" json:"weightage,omitempty"`

	ChapterWiseData []ChapterStat `dynamodbav:"chapter_wise_data,omitempty" json:"chapter_wise_data,omitempty"`
}

// IsOverall reports whether the record holds test level totals.
func (r SectionRecord) IsOverall() bool {
	return r.Section == OverallSection
}

// ChapterStat is one chapter entry nested in a section record.
type ChapterStat struct {
	ChapterName       string   `dynamodbav:"chapter_name" json:"chapter_name"`
	MarksScored       *float64 `dynamodbav:"marks_scored,omitempty" json:"marks_scored,omitempty"`
	MaxScore          *float64 `dynamodbav:"max_score,omitempty" json:"max_score,omitempty"`
	TotalQuestions    *float64 `dynamodbav:"total_questions,omitempty" json:"total_questions,omitempty"`
	Accuracy          *float64 `dynamodbav:"accuracy,omitempty" json:"accuracy,omitempty"`
	AttemptPercentage *float64 `dynamodbav:"attempt_percentage,omitempty" json:"attempt_percentage,omitempty"`
}

// RangeKey is the decoded form of the table sort key.
type RangeKey struct {
	UserID  string
	Section string
}

// String renders the sort key as stored.
func (k RangeKey) String() string {
	return k.UserID + RangeKeySeparator + k.Section
}

// RangeKeyPrefix is the sort key prefix shared by every section of a user.
func RangeKeyPrefix(userID string) string {
	return userID + RangeKeySeparator
}

// ResolveRangeKey decodes a sort key using the record's stored user id when
// it has one, so sections may contain the separator. Without a stored user id
// it falls back to ParseRangeKey.
func ResolveRangeKey(raw, userID string) (RangeKey, error) {
	if userID == "" {
		return ParseRangeKey(raw)
	}
	prefix := RangeKeyPrefix(userID)
	if !strings.HasPrefix(raw, prefix) || len(raw) == len(prefix) {
		return RangeKey{}, fmt.Errorf("range key %q does not belong to user %q", raw, userID)
	}
	return RangeKey{UserID: userID, Section: raw[len(prefix):]}, nil
}

// ParseRangeKey splits on the last separator so hyphenated user ids survive.
// Only safe for keys whose section has no separator.
func ParseRangeKey(raw string) (RangeKey, error) {
	idx := strings.LastIndex(raw, RangeKeySeparator)
	if idx <= 0 || idx == len(raw)-len(RangeKeySeparator) {
		return RangeKey{}, fmt.Errorf("malformed range key %q", raw)
	}
	return RangeKey{UserID: raw[:idx], Section: raw[idx+len(RangeKeySeparator):]}, nil
}
