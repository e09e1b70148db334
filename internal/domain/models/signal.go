package models

import "time"

// Signal is the three-way classification of aggregate recent sentiment.
type Signal string

const (
	SignalBullish Signal = "BULLISH"
	SignalBearish Signal = "BEARISH"
	SignalNeutral Signal = "NEUTRAL"
)

// MarketSignal is a derived view over the current sentiment history.
// It is computed on demand and never stored.
type MarketSignal struct {
	Signal        Signal  `json:"signal"`
	Strength      float64 `json:"strength"`
	PositiveRatio float64 `json:"positive_ratio"`
	NegativeRatio float64 `json:"negative_ratio"`
	SampleSize    int     `json:"sample_size"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// MetricsSnapshot is a consistent point-in-time copy of the cumulative
// process counters. Counters never decrease while the process runs.
type MetricsSnapshot struct {
	RequestsTotal int64   `json:"requests_total"`
	PositiveTotal int64   `json:"positive_total"`
	NegativeTotal int64   `json:"negative_total"`
	CurrentScore  float64 `json:"current_score"` // [-1,1]
}

// ClassificationEvent is the payload published to the downstream events
// topic for each classification, when event publishing is enabled.
type ClassificationEvent struct {
	Source     string    `json:"source"` // "api" or "ingest"
	Label      Label     `json:"label"`
	Confidence float64   `json:"confidence"`
	ObservedAt time.Time `json:"observed_at"`
}
