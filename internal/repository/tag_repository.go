package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/goldenticket/goldenticket/internal/domain"
)

// ErrDuplicateName signals a tag name collision. Callers turn this
// into an admission rejection event, not an error response.
var ErrDuplicateName = errors.New("tag name already exists")

// TagRepository encapsulates the classification tag catalog.
type TagRepository interface {
	CreateMain(ctx context.Context, name string) error
	CreateSub(ctx context.Context, name, mainTagName string) error
	ListCatalog(ctx context.Context) ([]domain.MainTag, error)
}

type tagRepository struct {
	pool *pgxpool.Pool
}

// NewTagRepository instantiates repository.
func NewTagRepository(pool *pgxpool.Pool) TagRepository {
	return &tagRepository{pool: pool}
}

func (r *tagRepository) CreateMain(ctx context.Context, name string) error {
	const query = `INSERT INTO main_tags (id, name) VALUES ($1,$2)`
	_, err := r.pool.Exec(ctx, query, uuid.NewString(), name)
	return mapDuplicate(err)
}

func (r *tagRepository) CreateSub(ctx context.Context, name, mainTagName string) error {
	const lookup = `SELECT id FROM main_tags WHERE name=$1`
	var mainTagID string
	if err := r.pool.QueryRow(ctx, lookup, mainTagName).Scan(&mainTagID); err != nil {
		return err
	}
	const query = `INSERT INTO sub_tags (id, name, main_tag_id) VALUES ($1,$2,$3)`
	_, err := r.pool.Exec(ctx, query, uuid.NewString(), name, mainTagID)
	return mapDuplicate(err)
}

func (r *tagRepository) ListCatalog(ctx context.Context) ([]domain.MainTag, error) {
	const query = `
        SELECT mt.id, mt.name, st.id, st.name
        FROM main_tags mt
        LEFT JOIN sub_tags st ON st.main_tag_id = mt.id
        ORDER BY mt.name, st.name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCatalog(rows)
}

func scanCatalog(rows pgx.Rows) ([]domain.MainTag, error) {
	var result []domain.MainTag
	index := make(map[string]int)
	for rows.Next() {
		var (
			mainID, mainName string
			subID, subName   *string
		)
		if err := rows.Scan(&mainID, &mainName, &subID, &subName); err != nil {
			return nil, err
		}
		pos, ok := index[mainID]
		if !ok {
			pos = len(result)
			index[mainID] = pos
			result = append(result, domain.MainTag{ID: mainID, Name: mainName})
		}
		if subID != nil && subName != nil {
			result[pos].SubTags = append(result[pos].SubTags, domain.SubTag{ID: *subID, Name: *subName})
		}
	}
	return result, rows.Err()
}

func mapDuplicate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateName
	}
	return err
}
