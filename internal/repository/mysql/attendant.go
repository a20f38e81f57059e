package mysql

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/parkwise/parkwise/internal/model"
	"github.com/parkwise/parkwise/internal/repository"
)

// AttendantRepo provides access to the attendants table.
type AttendantRepo struct {
	db *sql.DB
}

// NewAttendantRepo constructs an AttendantRepo with the given DB handle.
func NewAttendantRepo(db *sql.DB) *AttendantRepo {
	return &AttendantRepo{db: db}
}

// Create inserts an attendant and returns its id.  Emails are stored
// lower-cased; a re-registration maps to ErrDuplicate.
func (r *AttendantRepo) Create(ctx context.Context, email, passwordHash string) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO attendants (email, password_hash) VALUES (?, ?)",
		email, passwordHash)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, repository.ErrDuplicate
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// FindByEmail fetches an attendant by normalized email.
func (r *AttendantRepo) FindByEmail(ctx context.Context, email string) (*model.Attendant, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var a model.Attendant
	err := r.db.QueryRowContext(ctx,
		"SELECT id, email, password_hash, is_active, created_at, updated_at FROM attendants WHERE email = ? LIMIT 1",
		email).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}
