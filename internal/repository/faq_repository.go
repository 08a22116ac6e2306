package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/goldenticket/goldenticket/internal/domain"
)

// FAQRepository encapsulates FAQ persistence.
type FAQRepository interface {
	Create(ctx context.Context, faq *domain.FAQ) error
	Update(ctx context.Context, faq *domain.FAQ) error
	ListAll(ctx context.Context) ([]domain.FAQ, error)
}

type faqRepository struct {
	pool *pgxpool.Pool
}

// NewFAQRepository instantiates repository.
func NewFAQRepository(pool *pgxpool.Pool) FAQRepository {
	return &faqRepository{pool: pool}
}

func (r *faqRepository) Create(ctx context.Context, faq *domain.FAQ) error {
	if faq.ID == "" {
		faq.ID = uuid.NewString()
	}
	const query = `
        INSERT INTO faqs (id, title, description, solution, main_tag, sub_tag, is_archived)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		faq.ID,
		faq.Title,
		faq.Description,
		faq.Solution,
		faq.MainTag,
		faq.SubTag,
		faq.Archived,
	).Scan(&faq.CreatedAt, &faq.UpdatedAt)
}

func (r *faqRepository) Update(ctx context.Context, faq *domain.FAQ) error {
	const query = `
        UPDATE faqs SET title=$1, description=$2, solution=$3, main_tag=$4, sub_tag=$5,
            is_archived=$6, updated_at=NOW()
        WHERE id=$7`
	cmd, err := r.pool.Exec(ctx, query,
		faq.Title,
		faq.Description,
		faq.Solution,
		faq.MainTag,
		faq.SubTag,
		faq.Archived,
		faq.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *faqRepository) ListAll(ctx context.Context) ([]domain.FAQ, error) {
	const query = `
        SELECT id, title, description, solution, main_tag, sub_tag, is_archived, created_at, updated_at
        FROM faqs ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.FAQ
	for rows.Next() {
		var faq domain.FAQ
		if err := rows.Scan(
			&faq.ID,
			&faq.Title,
			&faq.Description,
			&faq.Solution,
			&faq.MainTag,
			&faq.SubTag,
			&faq.Archived,
			&faq.CreatedAt,
			&faq.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, faq)
	}
	return result, rows.Err()
}
