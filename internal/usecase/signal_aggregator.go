package usecase

import (
	"math"

	"SentiPull/internal/domain/models"
)

// Default thresholds on the net positive-minus-negative ratio. The boundary
// value itself resolves to NEUTRAL, so net must strictly exceed the threshold
// to flip the signal. Operators can retune via config (signal.* keys).
const (
	BullishThreshold = 0.2
	BearishThreshold = -0.2
)

// SignalAggregator derives a MarketSignal from a history snapshot. Compute is
// a pure function of its input; the aggregator holds no mutable state.
type SignalAggregator struct {
	bullish float64
	bearish float64
}

// AggregatorOption configures SignalAggregator.
type AggregatorOption func(*SignalAggregator)

// WithThresholds overrides the default signal thresholds.
func WithThresholds(bullish, bearish float64) AggregatorOption {
	return func(a *SignalAggregator) {
		if bullish > 0 {
			a.bullish = bullish
		}
		if bearish < 0 {
			a.bearish = bearish
		}
	}
}

// NewSignalAggregator creates an aggregator with the default thresholds.
func NewSignalAggregator(opts ...AggregatorOption) *SignalAggregator {
	a := &SignalAggregator{bullish: BullishThreshold, bearish: BearishThreshold}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Compute aggregates a history snapshot into a market signal.
//
// NEUTRAL-labeled entries count toward the sample size and the confidence
// mean but toward neither ratio. An empty history yields the NEUTRAL/zero
// default rather than an error.
func (a *SignalAggregator) Compute(history []models.ClassificationResult) models.MarketSignal {
	if len(history) == 0 {
		return models.MarketSignal{Signal: models.SignalNeutral}
	}

	var positive, negative int
	var confSum float64
	for _, r := range history {
		switch r.Label {
		case models.LabelPositive:
			positive++
		case models.LabelNegative:
			negative++
		}
		confSum += r.Confidence
	}

	n := len(history)
	positiveRatio := float64(positive) / float64(n)
	negativeRatio := float64(negative) / float64(n)
	net := positiveRatio - negativeRatio

	signal := models.SignalNeutral
	switch {
	case net > a.bullish:
		signal = models.SignalBullish
	case net < a.bearish:
		signal = models.SignalBearish
	}

	strength := math.Abs(net)
	if strength > 1 {
		strength = 1
	}

	return models.MarketSignal{
		Signal:        signal,
		Strength:      strength,
		PositiveRatio: positiveRatio,
		NegativeRatio: negativeRatio,
		SampleSize:    n,
		AvgConfidence: confSum / float64(n),
	}
}
