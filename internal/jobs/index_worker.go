package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/domain"
)

// KnowledgeIndexer reindexes stored documents.
type KnowledgeIndexer interface {
	ListStaleDocuments(ctx context.Context, indexedBefore time.Time) ([]*domain.Document, error)
	ReindexDocument(ctx context.Context, doc *domain.Document) (int, error)
}

// IndexWorker periodically rebuilds embeddings for documents that were
// re-uploaded or whose index has aged out. One failing document does not
// stop the rest of the batch.
type IndexWorker struct {
	indexer KnowledgeIndexer
	maxAge  time.Duration
}

// NewIndexWorker creates an IndexWorker that considers a document stale
// once its last indexing pass is older than maxAge.
func NewIndexWorker(indexer KnowledgeIndexer, maxAge time.Duration) *IndexWorker {
	return &IndexWorker{indexer: indexer, maxAge: maxAge}
}

// ProcessJobs implements the JobProcessor interface
func (w *IndexWorker) ProcessJobs(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-w.maxAge)

	docs, err := w.indexer.ListStaleDocuments(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to list stale documents: %w", err)
	}

	if len(docs) == 0 {
		return nil
	}

	log.Printf("index worker: reindexing %d stale documents", len(docs))

	var failed int
	for _, doc := range docs {
		count, err := w.indexer.ReindexDocument(ctx, doc)
		if err != nil {
			failed++
			log.Printf("index worker: reindex of %s failed: %v", doc.Source, err)
			continue
		}
		log.Printf("index worker: reindexed %s into %d chunks", doc.Source, count)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed to reindex", failed, len(docs))
	}
	return nil
}
