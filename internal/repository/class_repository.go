package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/gramtest-backend/internal/model"
)

// ClassRepository handles class data access.
type ClassRepository struct {
	pool *pgxpool.Pool
}

// NewClassRepository creates a new ClassRepository.
func NewClassRepository(pool *pgxpool.Pool) *ClassRepository {
	return &ClassRepository{pool: pool}
}

// GetByName retrieves a class by its unique name.
func (r *ClassRepository) GetByName(ctx context.Context, name string) (*model.Class, error) {
	c := &model.Class{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM classes WHERE name = $1`, name,
	).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return c, nil
}

// EnsureByName returns the class with the given name, creating it when missing.
func (r *ClassRepository) EnsureByName(ctx context.Context, name string) (*model.Class, error) {
	c := &model.Class{Name: name}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO classes (name) VALUES ($1)
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id, created_at`,
		name,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return c, nil
}
