package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/parkwise/parkwise/internal/model"
	"github.com/parkwise/parkwise/internal/repository"
)

// SessionRepo provides access to the sessions table.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo constructs a SessionRepo with the given DB handle.
func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

const sessionColumns = `id, garage_id, plate, vehicle_id, spot_id, status, rate_type,
                        entry_time, exit_time, expected_exit, notes, duration_minutes,
                        created_at, updated_at`

// Create inserts a new active session.
func (r *SessionRepo) Create(ctx context.Context, s *model.Session) error {
	const q = `INSERT INTO sessions
               (id, garage_id, plate, vehicle_id, spot_id, status, rate_type, entry_time, expected_exit, notes)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		s.ID, s.GarageID, s.Plate, s.VehicleID, s.SpotID, s.Status, s.RateType,
		s.EntryTime, s.ExpectedExit, s.Notes)
	if err != nil && isDuplicateKey(err) {
		return repository.ErrDuplicate
	}
	return err
}

// Close completes an active session in one conditional UPDATE.  When
// two check-outs race, RowsAffected picks the single winner; the loser
// gets ErrNotFound.
func (r *SessionRepo) Close(ctx context.Context, sessionID string, exit time.Time) (*model.Session, error) {
	const q = `UPDATE sessions
               SET status = 'completed',
                   exit_time = ?,
                   duration_minutes = TIMESTAMPDIFF(MINUTE, entry_time, ?),
                   updated_at = NOW()
               WHERE id = ? AND status = 'active'`
	res, err := r.db.ExecContext(ctx, q, exit, exit, sessionID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, repository.ErrNotFound
	}
	return r.findByID(ctx, sessionID)
}

// Reopen reverts a completed session back to active.  Used only by
// check-out compensation.
func (r *SessionRepo) Reopen(ctx context.Context, sessionID string) error {
	const q = `UPDATE sessions
               SET status = 'active', exit_time = NULL, duration_minutes = NULL, updated_at = NOW()
               WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, sessionID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// FindActiveByPlate retrieves the single active session for a plate.
func (r *SessionRepo) FindActiveByPlate(ctx context.Context, garageID, plate string) (*model.Session, error) {
	const q = `SELECT ` + sessionColumns + `
               FROM sessions
               WHERE garage_id = ? AND plate = ? AND status = 'active'`
	s, err := scanSessionRows(r.db.QueryRowContext(ctx, q, garageID, plate))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNoActiveSession
		}
		return nil, err
	}
	return s, nil
}

// ListByGarage returns sessions newest first, optionally only active
// ones.
func (r *SessionRepo) ListByGarage(ctx context.Context, garageID string, activeOnly bool) ([]model.Session, error) {
	q := `SELECT ` + sessionColumns + `
          FROM sessions
          WHERE garage_id = ?`
	if activeOnly {
		q += ` AND status = 'active'`
	}
	q += ` ORDER BY entry_time DESC, id`

	rows, err := r.db.QueryContext(ctx, q, garageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Session
	for rows.Next() {
		s, err := scanSessionRows(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes a session outright.  Used only by check-in
// compensation, where the session was created moments earlier and
// nothing references it yet.
func (r *SessionRepo) Delete(ctx context.Context, sessionID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *SessionRepo) findByID(ctx context.Context, id string) (*model.Session, error) {
	const q = `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ?`
	s, err := scanSessionRows(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func scanSessionRows(row rowScanner) (*model.Session, error) {
	var (
		s        model.Session
		exit     sql.NullTime
		expected sql.NullTime
		notes    sql.NullString
		duration sql.NullInt64
	)
	if err := row.Scan(
		&s.ID, &s.GarageID, &s.Plate, &s.VehicleID, &s.SpotID, &s.Status, &s.RateType,
		&s.EntryTime, &exit, &expected, &notes, &duration,
		&s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if exit.Valid {
		t := exit.Time
		s.ExitTime = &t
	}
	if expected.Valid {
		t := expected.Time
		s.ExpectedExit = &t
	}
	s.Notes = notes.String
	if duration.Valid {
		d := duration.Int64
		s.DurationMinutes = &d
	}
	return &s, nil
}
