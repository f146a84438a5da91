package service

import (
	"context"
	"fmt"

	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/domain"
)

// Embedder turns text into a vector for similarity search.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// PassageSearcher finds passages near an embedding, nearest first.
type PassageSearcher interface {
	Nearest(ctx context.Context, embedding []float32, k int) ([]*domain.RetrievedPassage, error)
}

// RetrievalConfig controls how many passages retrieval fetches.
type RetrievalConfig struct {
	// TopK is the number of passages returned when reranking is off.
	TopK int
	// InitialK is the over-fetch size fed into the reranker.
	InitialK         int
	RerankingEnabled bool
}

// DefaultRetrievalConfig provides sane defaults for retrieval.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		TopK:             3,
		InitialK:         10,
		RerankingEnabled: true,
	}
}

// Retriever fetches knowledge-base passages relevant to a query. With
// reranking on it over-fetches and lets the reranker pick the best few;
// with reranking off it returns the nearest passages unscored.
type Retriever struct {
	embedder Embedder
	searcher PassageSearcher
	reranker *Reranker
	cfg      RetrievalConfig
}

func NewRetriever(embedder Embedder, searcher PassageSearcher, reranker *Reranker, cfg RetrievalConfig) *Retriever {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultRetrievalConfig().TopK
	}
	if cfg.InitialK <= 0 {
		cfg.InitialK = DefaultRetrievalConfig().InitialK
	}
	if reranker == nil {
		cfg.RerankingEnabled = false
	}
	return &Retriever{embedder: embedder, searcher: searcher, reranker: reranker, cfg: cfg}
}

// Retrieve returns passages relevant to the query, best first.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]*domain.ScoredPassage, error) {
	embedding, err := r.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	if r.cfg.RerankingEnabled {
		passages, err := r.searcher.Nearest(ctx, embedding, r.cfg.InitialK)
		if err != nil {
			return nil, fmt.Errorf("failed to search passages: %w", err)
		}
		return r.reranker.Rerank(ctx, query, passages), nil
	}

	passages, err := r.searcher.Nearest(ctx, embedding, r.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("failed to search passages: %w", err)
	}

	scored := make([]*domain.ScoredPassage, 0, len(passages))
	for _, p := range passages {
		scored = append(scored, &domain.ScoredPassage{Passage: p})
	}
	return scored, nil
}
