package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/domain"
)

// FAQRepository stores canonical questions in their own partition of the
// embedding store, used for related-questions suggestions.
type FAQRepository struct {
	db dbtx
}

func NewFAQRepository(pool *pgxpool.Pool) *FAQRepository {
	return &FAQRepository{db: pool}
}

func NewFAQRepositoryWithTx(tx dbtx) *FAQRepository {
	return &FAQRepository{db: tx}
}

// Upsert inserts or replaces a canonical question with its embedding.
func (r *FAQRepository) Upsert(ctx context.Context, e *domain.FAQEntry, embedding []float32) error {
	if err := domain.ValidateFAQEntry(e); err != nil {
		return err
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO faq_entries (id, question, embedding)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE
		 SET question = EXCLUDED.question, embedding = EXCLUDED.embedding`,
		e.ID, e.Question, pgvector.NewVector(embedding),
	)
	return err
}

// Delete removes a canonical question by id.
func (r *FAQRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM faq_entries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrFAQEntryNotFound
	}
	return nil
}

// Nearest returns up to k canonical questions closest to the query
// embedding, nearest first.
func (r *FAQRepository) Nearest(ctx context.Context, embedding []float32, k int) ([]string, error) {
	if k <= 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT question
		 FROM faq_entries
		 WHERE embedding IS NOT NULL
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(embedding), k,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}

	return questions, rows.Err()
}
