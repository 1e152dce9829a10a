package models

import "github.com/noah-isme/reporting-engine/internal/idcodec"

// ActivityRecord is one quiz attempt event. ID is a time-ordered identifier.
type ActivityRecord struct {
	ID           string `bson:"_id" json:"id"`
	QuizID       string `bson:"quiz_id,omitempty" json:"quiz_id,omitempty"`
	UserID       string `bson:"user_id" json:"user_id"`
	HasQuizEnded bool   `bson:"has_quiz_ended" json:"has_quiz_ended"`
}

// DailyStat aggregates one calendar day of activity.
type DailyStat struct {
	Date             idcodec.Date `json:"date"`
	UniqueSessions   int          `json:"unique_sessions"`
	UniqueUsers      int          `json:"unique_users"`
	FinishedSessions int          `json:"finished_sessions"`
}

// LiveQuizStats is the daily series plus window totals.
type LiveQuizStats struct {
	QuizID                string      `json:"quiz_id"`
	QuizTitle             string      `json:"quiz_title"`
	StartDate             *string     `json:"start_date,omitempty"`
	EndDate               *string     `json:"end_date,omitempty"`
	Daywise               []DailyStat `json:"daywise"`
	TotalSessions         int         `json:"total_sessions"`
	TotalUniqueUsers      int         `json:"total_unique_users"`
	TotalFinishedSessions int         `json:"total_finished_sessions"`
}

// QuizSession links a scheduled session to the quiz it runs.
type QuizSession struct {
	SessionID string
	QuizID    string
	StartDate string
	EndDate   string
}
