package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/domain"
)

func scoredPassages(scores ...float64) []*domain.ScoredPassage {
	var out []*domain.ScoredPassage
	for _, s := range scores {
		out = append(out, &domain.ScoredPassage{
			Passage:        &domain.RetrievedPassage{Content: "текст"},
			RelevanceScore: s,
			Scored:         true,
		})
	}
	return out
}

func TestNewConfidenceEstimator_InvalidBaseline(t *testing.T) {
	_, err := NewConfidenceEstimator(-0.1)
	assert.ErrorIs(t, err, domain.ErrInvalidConfidenceBaseline)

	_, err = NewConfidenceEstimator(1.1)
	assert.ErrorIs(t, err, domain.ErrInvalidConfidenceBaseline)
}

func TestConfidence_BaselineWhenNoSignals(t *testing.T) {
	e, err := NewConfidenceEstimator(0.5)
	require.NoError(t, err)

	assert.Equal(t, 0.5, e.Estimate(nil, nil))
}

func TestConfidence_UnscoredPassagesGiveNoRetrievalSignal(t *testing.T) {
	e, err := NewConfidenceEstimator(0.4)
	require.NoError(t, err)

	unscored := []*domain.ScoredPassage{
		{Passage: &domain.RetrievedPassage{Content: "текст"}},
	}
	assert.Equal(t, 0.4, e.Estimate(nil, unscored))
}

func TestConfidence_LogProbSignalOnly(t *testing.T) {
	e, err := NewConfidenceEstimator(0.5)
	require.NoError(t, err)

	// Mean logprob -0.2 through the logistic.
	expected := 1 / (1 + math.Exp(0.2))
	assert.InDelta(t, expected, e.Estimate([]float64{-0.1, -0.3}, nil), 1e-9)
}

func TestConfidence_RelevanceSignalOnly(t *testing.T) {
	e, err := NewConfidenceEstimator(0.5)
	require.NoError(t, err)

	// Scores 5 and 4 normalize to 1.0 and 0.8.
	assert.InDelta(t, 0.9, e.Estimate(nil, scoredPassages(5, 4)), 1e-9)
}

func TestConfidence_CombinesBothSignals(t *testing.T) {
	e, err := NewConfidenceEstimator(0.5)
	require.NoError(t, err)

	logprobSignal := 1 / (1 + math.Exp(0.2))
	relevanceSignal := 0.9
	expected := (logprobSignal + relevanceSignal) / 2

	got := e.Estimate([]float64{-0.1, -0.3}, scoredPassages(5, 4))
	assert.InDelta(t, expected, got, 1e-9)
	assert.GreaterOrEqual(t, got, 0.0)
	assert.LessOrEqual(t, got, 1.0)
}

func TestConfidence_HighCertaintyApproachesOne(t *testing.T) {
	e, err := NewConfidenceEstimator(0.5)
	require.NoError(t, err)

	got := e.Estimate([]float64{-0.0001, -0.0001}, scoredPassages(5, 5, 5))
	assert.Greater(t, got, 0.7)
	assert.LessOrEqual(t, got, 1.0)
}
