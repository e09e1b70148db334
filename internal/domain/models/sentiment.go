package models

import "time"

// Label is a classifier output category.
type Label string

const (
	LabelPositive Label = "POSITIVE"
	LabelNegative Label = "NEGATIVE"
	LabelNeutral  Label = "NEUTRAL"
)

// Valid reports whether l is a known label.
func (l Label) Valid() bool {
	switch l {
	case LabelPositive, LabelNegative, LabelNeutral:
		return true
	}
	return false
}

// Classification is the raw classifier adapter output for one text.
type Classification struct {
	Label      Label
	Confidence float64 // [0,1]
}

// ClassificationResult is one scored record as retained in the rolling
// history. Immutable once created.
type ClassificationResult struct {
	Label      Label     `json:"label"`
	Confidence float64   `json:"confidence"`
	ObservedAt time.Time `json:"observed_at"`
}

// Comment is one raw text item pulled from the upstream source.
type Comment struct {
	ID        string
	Author    string
	Body      string
	Score     int
	CreatedAt time.Time
}
