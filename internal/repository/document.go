package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/domain"
)

// DocumentRepository stores raw knowledge-base sources so the indexer can
// rebuild chunks without re-uploading.
type DocumentRepository struct {
	db dbtx
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: pool}
}

func NewDocumentRepositoryWithTx(tx dbtx) *DocumentRepository {
	return &DocumentRepository{db: tx}
}

// Upsert inserts or replaces a document by source name and flags it for
// indexing.
func (r *DocumentRepository) Upsert(ctx context.Context, d *domain.Document) error {
	if err := domain.ValidateDocument(d); err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err := r.db.Exec(ctx,
		`INSERT INTO documents (source, content, restricted, needs_index, updated_at)
		 VALUES ($1, $2, $3, TRUE, $4)
		 ON CONFLICT (source) DO UPDATE
		 SET content = EXCLUDED.content, restricted = EXCLUDED.restricted,
		     needs_index = TRUE, updated_at = EXCLUDED.updated_at`,
		d.Source, d.Content, d.Restricted, now,
	)
	if err != nil {
		return err
	}

	d.NeedsIndex = true
	d.UpdatedAt = now
	return nil
}

// Get fetches a document by source name.
func (r *DocumentRepository) Get(ctx context.Context, source string) (*domain.Document, error) {
	var d domain.Document
	err := r.db.QueryRow(ctx,
		`SELECT source, content, restricted, needs_index, indexed_at, updated_at
		 FROM documents WHERE source = $1`,
		source,
	).Scan(&d.Source, &d.Content, &d.Restricted, &d.NeedsIndex, &d.IndexedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	return &d, nil
}

// Delete removes a document by source name. Chunks go with it via the
// foreign key cascade.
func (r *DocumentRepository) Delete(ctx context.Context, source string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM documents WHERE source = $1`, source)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// List returns all documents ordered by source name, without content.
func (r *DocumentRepository) List(ctx context.Context) ([]*domain.Document, error) {
	rows, err := r.db.Query(ctx,
		`SELECT source, restricted, needs_index, indexed_at, updated_at
		 FROM documents ORDER BY source`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*domain.Document
	for rows.Next() {
		var d domain.Document
		if err := rows.Scan(&d.Source, &d.Restricted, &d.NeedsIndex, &d.IndexedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, &d)
	}

	return docs, rows.Err()
}

// ListStale returns documents that need indexing or were last indexed
// before the cutoff.
func (r *DocumentRepository) ListStale(ctx context.Context, indexedBefore time.Time) ([]*domain.Document, error) {
	rows, err := r.db.Query(ctx,
		`SELECT source, content, restricted, needs_index, indexed_at, updated_at
		 FROM documents
		 WHERE needs_index OR indexed_at IS NULL OR indexed_at < $1
		 ORDER BY updated_at`,
		indexedBefore,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*domain.Document
	for rows.Next() {
		var d domain.Document
		if err := rows.Scan(&d.Source, &d.Content, &d.Restricted, &d.NeedsIndex, &d.IndexedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, &d)
	}

	return docs, rows.Err()
}

// MarkIndexed records a successful indexing pass for a source document.
func (r *DocumentRepository) MarkIndexed(ctx context.Context, source string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE documents SET needs_index = FALSE, indexed_at = $1 WHERE source = $2`,
		time.Now().UTC(), source,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}
