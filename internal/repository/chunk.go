package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/domain"
)

// ChunkRepository handles persistence of chunked document embeddings.
type ChunkRepository struct {
	db dbtx
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: pool}
}

func NewChunkRepositoryWithTx(tx dbtx) *ChunkRepository {
	return &ChunkRepository{db: tx}
}

// ReplaceForSource deletes existing chunks for a source document and
// inserts the new set, so re-ingestion never leaves stale passages behind.
func (r *ChunkRepository) ReplaceForSource(ctx context.Context, source string, chunks []domain.Chunk) error {
	_, err := r.db.Exec(ctx, `DELETE FROM chunks WHERE source = $1`, source)
	if err != nil {
		return err
	}

	if len(chunks) == 0 {
		return nil
	}

	for _, c := range chunks {
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		_, err := r.db.Exec(ctx,
			`INSERT INTO chunks
				(id, source, chunk_index, content, restricted, embedding, created_at)
			 VALUES
				($1, $2, $3, $4, $5, $6, $7)`,
			c.ID,
			c.Source,
			c.ChunkIndex,
			c.Content,
			c.Restricted,
			pgvector.NewVector(c.Embedding),
			createdAt,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// DeleteBySource removes all chunks belonging to a source document.
func (r *ChunkRepository) DeleteBySource(ctx context.Context, source string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM chunks WHERE source = $1`, source)
	return err
}

// CountBySource returns the number of stored chunks for a source document.
func (r *ChunkRepository) CountBySource(ctx context.Context, source string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM chunks WHERE source = $1`, source).Scan(&count)
	return count, err
}

// Nearest returns up to k passages ordered by cosine distance to the
// query embedding, nearest first.
func (r *ChunkRepository) Nearest(ctx context.Context, embedding []float32, k int) ([]*domain.RetrievedPassage, error) {
	if k <= 0 {
		return nil, nil
	}

	vec := pgvector.NewVector(embedding)

	rows, err := r.db.Query(ctx,
		`SELECT content, source, restricted
		 FROM chunks
		 WHERE embedding IS NOT NULL
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		vec, k,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var passages []*domain.RetrievedPassage
	for rows.Next() {
		var p domain.RetrievedPassage
		if err := rows.Scan(&p.Content, &p.Metadata.Source, &p.Metadata.Restricted); err != nil {
			return nil, err
		}
		passages = append(passages, &p)
	}

	return passages, rows.Err()
}
