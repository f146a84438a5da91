package service

import (
	"math"

	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/domain"
)

// ConfidenceEstimator turns generation metadata and retrieval quality
// into a single calibrated confidence value in [0, 1].
type ConfidenceEstimator struct {
	baseline float64
}

// NewConfidenceEstimator creates an estimator with the given fallback
// confidence, used when neither signal is available.
func NewConfidenceEstimator(baseline float64) (*ConfidenceEstimator, error) {
	if baseline < 0 || baseline > 1 {
		return nil, domain.ErrInvalidConfidenceBaseline
	}
	return &ConfidenceEstimator{baseline: baseline}, nil
}

// Estimate combines two independent signals: the model's own certainty
// (mean token log probability through a logistic) and the relevance of
// the retrieved passages (mean score on the 1-5 scale, normalized).
// Available signals are averaged; with none, the baseline applies.
func (e *ConfidenceEstimator) Estimate(logProbs []float64, passages []*domain.ScoredPassage) float64 {
	var signals []float64

	if s, ok := logProbSignal(logProbs); ok {
		signals = append(signals, s)
	}
	if s, ok := relevanceSignal(passages); ok {
		signals = append(signals, s)
	}

	if len(signals) == 0 {
		return e.baseline
	}

	var sum float64
	for _, s := range signals {
		sum += s
	}
	return clamp01(sum / float64(len(signals)))
}

func logProbSignal(logProbs []float64) (float64, bool) {
	if len(logProbs) == 0 {
		return 0, false
	}

	var sum float64
	for _, lp := range logProbs {
		sum += lp
	}
	avg := sum / float64(len(logProbs))

	return 1 / (1 + math.Exp(-avg)), true
}

func relevanceSignal(passages []*domain.ScoredPassage) (float64, bool) {
	var sum float64
	var count int
	for _, p := range passages {
		if p == nil || !p.Scored {
			continue
		}
		sum += clamp01(p.RelevanceScore / domain.RelevanceMax)
		count++
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
