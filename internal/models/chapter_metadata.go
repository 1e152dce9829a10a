package models

import "strings"

// Stream is the exam track a report is read against.
type Stream string

const (
	StreamJEE  Stream = "JEE"
	StreamNEET Stream = "NEET"
)

// ParseStream normalises a user supplied stream. Unknown values yield "".
func ParseStream(raw string) Stream {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(StreamJEE):
		return StreamJEE
	case string(StreamNEET):
		return StreamNEET
	}
	return ""
}

// Priority is a chapter revision tier.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Rank orders tiers; unknown tiers rank as Low.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	default:
		return 1
	}
}

// ChapterMetadata holds per-stream revision links and priority tiers.
type ChapterMetadata struct {
	Code         string   `db:"chapter_code" json:"chapter_code"`
	Name         string   `db:"chapter_name" json:"chapter_name"`
	JEELink      string   `db:"jee_link" json:"jee_link"`
	NEETLink     string   `db:"neet_link" json:"neet_link"`
	JEEPriority  Priority `db:"jee_priority" json:"jee_priority"`
	NEETPriority Priority `db:"neet_priority" json:"neet_priority"`
}

// Link returns the revision link for the stream.
func (m ChapterMetadata) Link(stream Stream) string {
	if stream == StreamNEET {
		return m.NEETLink
	}
	return m.JEELink
}

// Priority returns the stream's tier, Low when unset.
func (m ChapterMetadata) Priority(stream Stream) Priority {
	p := m.JEEPriority
	if stream == StreamNEET {
		p = m.NEETPriority
	}
	if p == "" {
		return PriorityLow
	}
	return p
}

// ChapterMetadataMap is keyed by chapter code.
type ChapterMetadataMap map[string]ChapterMetadata
