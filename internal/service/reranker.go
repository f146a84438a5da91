package service

import (
	"context"
	"log"
	"sort"
	"strconv"

	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/cache"
	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/domain"
)

// RelevanceScorer rates how well a passage answers a query on the 1-5
// relevance scale.
type RelevanceScorer interface {
	ScoreRelevance(ctx context.Context, query, passage string) (float64, error)
}

// RerankConfig controls LLM reranking of retrieved passages.
type RerankConfig struct {
	MinScore  float64
	MaxChunks int
}

// DefaultRerankConfig provides sane defaults for reranking.
func DefaultRerankConfig() RerankConfig {
	return RerankConfig{
		MinScore:  4.0,
		MaxChunks: 3,
	}
}

// Reranker orders retrieved passages by LLM-judged relevance, drops the
// ones below the score floor and keeps the best few. Scores are cached
// per query-passage pair since the same passages recur across queries.
type Reranker struct {
	scorer RelevanceScorer
	cache  cache.Store
	cfg    RerankConfig
}

func NewReranker(scorer RelevanceScorer, scoreCache cache.Store, cfg RerankConfig) *Reranker {
	if cfg.MaxChunks <= 0 {
		cfg.MaxChunks = DefaultRerankConfig().MaxChunks
	}
	return &Reranker{scorer: scorer, cache: scoreCache, cfg: cfg}
}

// Rerank scores and orders passages, best first. It never fails: a scorer
// error leaves that passage at the neutral score so one flaky upstream
// call cannot drop the whole result set.
func (r *Reranker) Rerank(ctx context.Context, query string, passages []*domain.RetrievedPassage) []*domain.ScoredPassage {
	if len(passages) == 0 {
		return nil
	}

	scored := make([]*domain.ScoredPassage, 0, len(passages))
	for _, p := range passages {
		scored = append(scored, &domain.ScoredPassage{
			Passage:        p,
			RelevanceScore: r.score(ctx, query, p.Content),
			Scored:         true,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RelevanceScore > scored[j].RelevanceScore
	})

	kept := scored[:0]
	for _, s := range scored {
		if s.RelevanceScore >= r.cfg.MinScore {
			kept = append(kept, s)
		}
	}
	if len(kept) > r.cfg.MaxChunks {
		kept = kept[:r.cfg.MaxChunks]
	}

	return kept
}

func (r *Reranker) score(ctx context.Context, query, passage string) float64 {
	key := cache.Key("rerank", query, passage)
	if r.cache != nil {
		if cached, ok := r.cache.Get(ctx, key); ok {
			if score, err := strconv.ParseFloat(cached, 64); err == nil {
				return domain.ClampRelevance(score)
			}
		}
	}

	score, err := r.scorer.ScoreRelevance(ctx, query, passage)
	if err != nil {
		log.Printf("rerank: scoring failed, using neutral score: %v", err)
		return domain.RelevanceDefault
	}
	score = domain.ClampRelevance(score)

	if r.cache != nil {
		r.cache.Set(ctx, key, strconv.FormatFloat(score, 'f', -1, 64))
	}

	return score
}
