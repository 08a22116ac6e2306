package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/goldenticket/goldenticket/internal/domain"
)

// UserRepository encapsulates user persistence.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	Upsert(ctx context.Context, user *domain.User) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository instantiates repository.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
        SELECT id, name, email, role, created_at
        FROM users WHERE id=$1`
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ListUsers(ctx context.Context) ([]domain.User, error) {
	const query = `
        SELECT id, name, email, role, created_at
        FROM users ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func (r *userRepository) Upsert(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	const query = `
        INSERT INTO users (id, name, email, role)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, email=EXCLUDED.email, role=EXCLUDED.role
        RETURNING created_at`
	return r.pool.QueryRow(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Role,
	).Scan(&user.CreatedAt)
}

func scanUsers(rows pgx.Rows) ([]domain.User, error) {
	var result []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.Role,
			&user.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}
