package domain

import (
	"fmt"
	"time"
)

// Chunk is a fixed-size window of a source document, created at ingestion
// time and immutable afterwards. Chunks are deleted in bulk when their
// source document is removed or re-ingested.
type Chunk struct {
	ID         string
	Source     string
	ChunkIndex int
	Content    string
	Restricted bool
	Embedding  []float32
	CreatedAt  time.Time
}

// FAQEntry is a short canonical question kept in a separate partition of
// the embedding store, used for "related questions" suggestions.
type FAQEntry struct {
	ID       string
	Question string
}

// PassageMetadata carries the provenance of a retrieved passage.
type PassageMetadata struct {
	Source     string
	Restricted bool
}

// RetrievedPassage is a transient per-query result from the embedding
// store, ordered by similarity rank.
type RetrievedPassage struct {
	Content  string
	Metadata PassageMetadata
}

// Relevance scale bounds for reranked passages.
const (
	RelevanceMin = 1.0
	RelevanceMax = 5.0
	// RelevanceDefault is used when the upstream scorer fails or returns
	// something unparseable.
	RelevanceDefault = 3.0
)

// ScoredPassage is a RetrievedPassage annotated with an LLM relevance
// score. Scored is false when reranking was disabled for the request.
type ScoredPassage struct {
	Passage        *RetrievedPassage
	RelevanceScore float64
	Scored         bool
}

// ClampRelevance forces a relevance score into the [RelevanceMin, RelevanceMax] scale.
func ClampRelevance(score float64) float64 {
	if score < RelevanceMin {
		return RelevanceMin
	}
	if score > RelevanceMax {
		return RelevanceMax
	}
	return score
}

// ValidateChunk validates a Chunk instance.
func ValidateChunk(c *Chunk) error {
	if c == nil {
		return fmt.Errorf("chunk cannot be nil")
	}

	if c.ID == "" {
		return fmt.Errorf("chunk ID is required")
	}

	if c.Source == "" {
		return fmt.Errorf("chunk Source is required")
	}

	if c.ChunkIndex < 0 {
		return fmt.Errorf("chunk ChunkIndex cannot be negative")
	}

	if c.Content == "" {
		return fmt.Errorf("chunk Content is required")
	}

	return nil
}

// ValidateFAQEntry validates a FAQEntry instance.
func ValidateFAQEntry(e *FAQEntry) error {
	if e == nil {
		return fmt.Errorf("faq entry cannot be nil")
	}

	if e.ID == "" {
		return fmt.Errorf("faq entry ID is required")
	}

	if e.Question == "" {
		return fmt.Errorf("faq entry Question is required")
	}

	return nil
}
