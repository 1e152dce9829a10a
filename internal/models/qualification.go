package models

// QualificationStatus is the cutoff outcome from the analytics warehouse.
type QualificationStatus string

const (
	StatusQualified    QualificationStatus = "Qualified"
	StatusNotQualified QualificationStatus = "NotQualified"
)

// Qualification is a student's cutoff standing for one test.
type Qualification struct {
	Status             QualificationStatus `json:"status"`
	Margin             *float64            `json:"margin,omitempty"`
	RecommendedChapter *string             `json:"recommended_chapter,omitempty"`
	RecommendedLink    *string             `json:"recommended_link,omitempty"`
}

// DefaultQualification is returned whenever the warehouse cannot answer, so
// students never see a shortfall that was not computed.
var DefaultQualification = Qualification{Status: StatusQualified}
