package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/domain"
	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/telemetry"
)

// DocumentStore persists raw knowledge-base sources.
type DocumentStore interface {
	Upsert(ctx context.Context, d *domain.Document) error
	Get(ctx context.Context, source string) (*domain.Document, error)
	Delete(ctx context.Context, source string) error
	List(ctx context.Context) ([]*domain.Document, error)
	ListStale(ctx context.Context, indexedBefore time.Time) ([]*domain.Document, error)
	MarkIndexed(ctx context.Context, source string) error
}

// ChunkStore persists embedded document chunks.
type ChunkStore interface {
	ReplaceForSource(ctx context.Context, source string, chunks []domain.Chunk) error
}

// FAQStore persists canonical questions with embeddings.
type FAQStore interface {
	Upsert(ctx context.Context, e *domain.FAQEntry, embedding []float32) error
	Delete(ctx context.Context, id string) error
	Nearest(ctx context.Context, embedding []float32, k int) ([]string, error)
}

// DocumentArchiver keeps a copy of raw ingested documents in object
// storage. Archiving is best effort and never blocks ingestion.
type DocumentArchiver interface {
	ArchiveDocument(ctx context.Context, source, content string) error
}

// KnowledgeService owns the knowledge base: document ingestion and
// indexing, FAQ entries and related-question lookups.
type KnowledgeService struct {
	docs     DocumentStore
	chunks   ChunkStore
	faq      FAQStore
	embedder Embedder
	archiver DocumentArchiver
	chunkCfg ChunkConfig
}

func NewKnowledgeService(docs DocumentStore, chunks ChunkStore, faq FAQStore, embedder Embedder, archiver DocumentArchiver, chunkCfg ChunkConfig) *KnowledgeService {
	if chunkCfg.Size <= 0 {
		chunkCfg = DefaultChunkConfig()
	}
	return &KnowledgeService{
		docs:     docs,
		chunks:   chunks,
		faq:      faq,
		embedder: embedder,
		archiver: archiver,
		chunkCfg: chunkCfg,
	}
}

// IngestDocument stores a document, chunks and embeds it and replaces its
// passages in the embedding store. Returns the number of chunks indexed.
func (s *KnowledgeService) IngestDocument(ctx context.Context, doc *domain.Document) (int, error) {
	if err := domain.ValidateDocument(doc); err != nil {
		return 0, err
	}

	ctx, span := telemetry.StartSpan(ctx, "KnowledgeService.IngestDocument", telemetry.SpanAttributes{
		Source:    doc.Source,
		Operation: "ingest",
	})
	defer span.End()

	if err := s.docs.Upsert(ctx, doc); err != nil {
		span.SetError(err)
		return 0, fmt.Errorf("failed to store document: %w", err)
	}

	count, err := s.index(ctx, doc)
	if err != nil {
		span.SetError(err)
		return 0, err
	}

	if s.archiver != nil {
		if err := s.archiver.ArchiveDocument(ctx, doc.Source, doc.Content); err != nil {
			log.Printf("knowledge: archive of %s failed: %v", doc.Source, err)
		}
	}

	return count, nil
}

// ReindexDocument rebuilds the embedded chunks for an already stored
// document. Used by the background indexer.
func (s *KnowledgeService) ReindexDocument(ctx context.Context, doc *domain.Document) (int, error) {
	if err := domain.ValidateDocument(doc); err != nil {
		return 0, err
	}

	ctx, span := telemetry.StartSpan(ctx, "KnowledgeService.ReindexDocument", telemetry.SpanAttributes{
		Source:    doc.Source,
		Operation: "reindex",
	})
	defer span.End()

	count, err := s.index(ctx, doc)
	if err != nil {
		span.SetError(err)
	}
	return count, err
}

func (s *KnowledgeService) index(ctx context.Context, doc *domain.Document) (int, error) {
	texts := ChunkText(doc.Content, s.chunkCfg)

	chunks := make([]domain.Chunk, 0, len(texts))
	for i, text := range texts {
		embedding, err := s.embedder.GenerateEmbedding(ctx, text)
		if err != nil {
			return 0, fmt.Errorf("failed to embed chunk %d of %s: %w", i, doc.Source, err)
		}
		chunks = append(chunks, domain.Chunk{
			ID:         uuid.NewString(),
			Source:     doc.Source,
			ChunkIndex: i,
			Content:    text,
			Restricted: doc.Restricted,
			Embedding:  embedding,
		})
	}

	if err := s.chunks.ReplaceForSource(ctx, doc.Source, chunks); err != nil {
		return 0, fmt.Errorf("failed to replace chunks for %s: %w", doc.Source, err)
	}

	if err := s.docs.MarkIndexed(ctx, doc.Source); err != nil {
		return 0, fmt.Errorf("failed to mark %s indexed: %w", doc.Source, err)
	}

	return len(chunks), nil
}

// DeleteDocument removes a document; its chunks go with it.
func (s *KnowledgeService) DeleteDocument(ctx context.Context, source string) error {
	ctx, span := telemetry.StartSpan(ctx, "KnowledgeService.DeleteDocument", telemetry.SpanAttributes{
		Source:    source,
		Operation: "delete",
	})
	defer span.End()

	if err := s.docs.Delete(ctx, source); err != nil {
		if err != domain.ErrDocumentNotFound {
			span.SetError(err)
		}
		return err
	}
	return nil
}

// ListDocuments returns all stored documents without content.
func (s *KnowledgeService) ListDocuments(ctx context.Context) ([]*domain.Document, error) {
	return s.docs.List(ctx)
}

// ListStaleDocuments returns documents due for reindexing.
func (s *KnowledgeService) ListStaleDocuments(ctx context.Context, indexedBefore time.Time) ([]*domain.Document, error) {
	return s.docs.ListStale(ctx, indexedBefore)
}

// AddFAQ stores a canonical question for related-question suggestions.
func (s *KnowledgeService) AddFAQ(ctx context.Context, question string) (*domain.FAQEntry, error) {
	entry := &domain.FAQEntry{ID: uuid.NewString(), Question: question}
	if err := domain.ValidateFAQEntry(entry); err != nil {
		return nil, err
	}

	embedding, err := s.embedder.GenerateEmbedding(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed faq question: %w", err)
	}

	if err := s.faq.Upsert(ctx, entry, embedding); err != nil {
		return nil, fmt.Errorf("failed to store faq entry: %w", err)
	}
	return entry, nil
}

// DeleteFAQ removes a canonical question by id.
func (s *KnowledgeService) DeleteFAQ(ctx context.Context, id string) error {
	return s.faq.Delete(ctx, id)
}

// RelatedQuestions returns up to k stored questions similar to the query.
// Failures degrade to no suggestions.
func (s *KnowledgeService) RelatedQuestions(ctx context.Context, query string, k int) []string {
	embedding, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		log.Printf("knowledge: embedding for related questions failed: %v", err)
		return nil
	}

	questions, err := s.faq.Nearest(ctx, embedding, k)
	if err != nil {
		log.Printf("knowledge: related questions lookup failed: %v", err)
		return nil
	}
	return questions
}
