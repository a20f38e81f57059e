package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/parkwise/parkwise/internal/model"
	"github.com/parkwise/parkwise/internal/repository"
)

// GarageRepo provides access to the garages table.
type GarageRepo struct {
	db *sql.DB
}

// NewGarageRepo constructs a GarageRepo with the given DB handle.
func NewGarageRepo(db *sql.DB) *GarageRepo {
	return &GarageRepo{db: db}
}

// Create inserts a garage.  The id is a caller-chosen slug, so a
// duplicate insert maps to ErrDuplicate.
func (r *GarageRepo) Create(ctx context.Context, g *model.Garage) error {
	const q = `INSERT INTO garages (id, name) VALUES (?, ?)`
	if _, err := r.db.ExecContext(ctx, q, g.ID, g.Name); err != nil {
		if isDuplicateKey(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

// FindByID retrieves one garage.
func (r *GarageRepo) FindByID(ctx context.Context, id string) (*model.Garage, error) {
	const q = `SELECT id, name, created_at, updated_at FROM garages WHERE id = ?`
	var g model.Garage
	err := r.db.QueryRowContext(ctx, q, id).Scan(&g.ID, &g.Name, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

// List returns all garages ordered by id.
func (r *GarageRepo) List(ctx context.Context) ([]model.Garage, error) {
	const q = `SELECT id, name, created_at, updated_at FROM garages ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Garage
	for rows.Next() {
		var g model.Garage
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
