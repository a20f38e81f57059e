// Package mysql implements the repository contracts over MySQL using
// database/sql.  Concurrency-sensitive writes are single conditional
// UPDATE statements checked via RowsAffected, so correctness does not
// depend on transactions spanning multiple tables.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/parkwise/parkwise/internal/model"
	"github.com/parkwise/parkwise/internal/repository"
)

// SpotRepo provides access to the spots table.
type SpotRepo struct {
	db *sql.DB
}

// NewSpotRepo constructs a SpotRepo with the given DB handle.
func NewSpotRepo(db *sql.DB) *SpotRepo {
	return &SpotRepo{db: db}
}

const spotColumns = `garage_id, floor, bay, number, spot_type, features, status, occupant_plate, created_at, updated_at`

// Create inserts a single spot.  The (garage_id, floor, bay, number)
// unique key turns re-inserts into ErrDuplicate.
func (r *SpotRepo) Create(ctx context.Context, s *model.Spot) error {
	const q = `INSERT INTO spots (garage_id, floor, bay, number, spot_type, features, status)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
	status := s.Status
	if status == "" {
		status = model.SpotAvailable
	}
	_, err := r.db.ExecContext(ctx, q,
		s.GarageID, s.Floor, s.Bay, s.Number, s.Type, joinFeatures(s.Features), status)
	if err != nil {
		if isDuplicateKey(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	s.Status = status
	return nil
}

// FindByID retrieves one spot by its composite id string.
func (r *SpotRepo) FindByID(ctx context.Context, garageID, spotID string) (*model.Spot, error) {
	floor, bay, number, err := model.ParseSpotID(spotID)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	const q = `SELECT ` + spotColumns + `
               FROM spots
               WHERE garage_id = ? AND floor = ? AND bay = ? AND number = ?`
	row := r.db.QueryRowContext(ctx, q, garageID, floor, bay, number)
	return scanSpot(row)
}

// FindAvailable lists available spots, optionally narrowed to a set of
// spot types, ordered by floor, bay, number.
func (r *SpotRepo) FindAvailable(ctx context.Context, garageID string, types []model.SpotType) ([]model.Spot, error) {
	q := `SELECT ` + spotColumns + `
          FROM spots
          WHERE garage_id = ? AND status = 'available'`
	args := []interface{}{garageID}
	if len(types) > 0 {
		q += ` AND spot_type IN (` + placeholders(len(types)) + `)`
		for _, t := range types {
			args = append(args, t)
		}
	}
	q += ` ORDER BY floor, bay, number`
	return r.querySpots(ctx, q, args...)
}

// Reserve atomically claims an available spot for a plate.  The
// conditional UPDATE lets MySQL arbitrate concurrent claims: exactly
// one caller sees RowsAffected = 1, everyone else gets false.
func (r *SpotRepo) Reserve(ctx context.Context, garageID, spotID, plate string) (bool, error) {
	floor, bay, number, err := model.ParseSpotID(spotID)
	if err != nil {
		return false, repository.ErrNotFound
	}
	const q = `UPDATE spots
               SET status = 'occupied', occupant_plate = ?, updated_at = NOW()
               WHERE garage_id = ? AND floor = ? AND bay = ? AND number = ?
                 AND status = 'available'`
	res, err := r.db.ExecContext(ctx, q, plate, garageID, floor, bay, number)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Either the spot does not exist or someone else holds it;
		// disambiguate so missing spots surface as ErrNotFound.
		if _, ferr := r.FindByID(ctx, garageID, spotID); ferr != nil {
			return false, ferr
		}
		return false, nil
	}
	return true, nil
}

// Release frees an occupied spot.  Releasing a spot that is already
// free is a no-op; releasing an unknown spot is ErrNotFound.
func (r *SpotRepo) Release(ctx context.Context, garageID, spotID string) error {
	floor, bay, number, err := model.ParseSpotID(spotID)
	if err != nil {
		return repository.ErrNotFound
	}
	const q = `UPDATE spots
               SET status = 'available', occupant_plate = NULL, updated_at = NOW()
               WHERE garage_id = ? AND floor = ? AND bay = ? AND number = ?
                 AND status = 'occupied'`
	res, err := r.db.ExecContext(ctx, q, garageID, floor, bay, number)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, ferr := r.FindByID(ctx, garageID, spotID); ferr != nil {
			return ferr
		}
	}
	return nil
}

// SetStatus moves a spot between available and out_of_service.  An
// occupied spot is refused with ErrSpotOccupied.
func (r *SpotRepo) SetStatus(ctx context.Context, garageID, spotID string, status model.SpotStatus) error {
	floor, bay, number, err := model.ParseSpotID(spotID)
	if err != nil {
		return repository.ErrNotFound
	}
	const q = `UPDATE spots
               SET status = ?, updated_at = NOW()
               WHERE garage_id = ? AND floor = ? AND bay = ? AND number = ?
                 AND status <> 'occupied'`
	res, err := r.db.ExecContext(ctx, q, status, garageID, floor, bay, number)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		sp, ferr := r.FindByID(ctx, garageID, spotID)
		if ferr != nil {
			return ferr
		}
		if sp.Status == model.SpotOccupied {
			return repository.ErrSpotOccupied
		}
	}
	return nil
}

// ListByGarage returns every spot of a garage in position order.
func (r *SpotRepo) ListByGarage(ctx context.Context, garageID string) ([]model.Spot, error) {
	const q = `SELECT ` + spotColumns + `
               FROM spots
               WHERE garage_id = ?
               ORDER BY floor, bay, number`
	return r.querySpots(ctx, q, garageID)
}

// Stats aggregates spot counts in one query so the snapshot is a
// single consistent read.
func (r *SpotRepo) Stats(ctx context.Context, garageID string, types []model.SpotType) (*model.AvailabilitySnapshot, error) {
	q := `SELECT spot_type, status, COUNT(*)
          FROM spots
          WHERE garage_id = ?`
	args := []interface{}{garageID}
	if len(types) > 0 {
		q += ` AND spot_type IN (` + placeholders(len(types)) + `)`
		for _, t := range types {
			args = append(args, t)
		}
	}
	q += ` GROUP BY spot_type, status`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snap := &model.AvailabilitySnapshot{
		GarageID:   garageID,
		BySpotType: make(map[model.SpotType]model.SpotTypeCount),
	}
	for rows.Next() {
		var (
			st     model.SpotType
			status model.SpotStatus
			n      int
		)
		if err := rows.Scan(&st, &status, &n); err != nil {
			return nil, err
		}
		snap.Total += n
		c := snap.BySpotType[st]
		c.Total += n
		switch status {
		case model.SpotAvailable:
			snap.Available += n
			c.Available += n
		case model.SpotOccupied:
			snap.Occupied += n
		case model.SpotOutOfService:
			snap.OutOfService += n
		}
		snap.BySpotType[st] = c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return snap, nil
}

func (r *SpotRepo) querySpots(ctx context.Context, q string, args ...interface{}) ([]model.Spot, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Spot
	for rows.Next() {
		sp, err := scanSpotRows(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *sp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSpot(row *sql.Row) (*model.Spot, error) {
	sp, err := scanSpotRows(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return sp, nil
}

func scanSpotRows(row rowScanner) (*model.Spot, error) {
	var (
		sp       model.Spot
		features sql.NullString
		occupant sql.NullString
	)
	if err := row.Scan(
		&sp.GarageID, &sp.Floor, &sp.Bay, &sp.Number, &sp.Type,
		&features, &sp.Status, &occupant, &sp.CreatedAt, &sp.UpdatedAt,
	); err != nil {
		return nil, err
	}
	sp.Features = splitFeatures(features.String)
	if occupant.Valid {
		p := occupant.String
		sp.OccupantPlate = &p
	}
	return &sp, nil
}

// joinFeatures flattens the feature list for the VARCHAR column.
func joinFeatures(features []model.SpotFeature) string {
	parts := make([]string, 0, len(features))
	for _, f := range features {
		parts = append(parts, string(f))
	}
	return strings.Join(parts, ",")
}

func splitFeatures(s string) []model.SpotFeature {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]model.SpotFeature, 0, len(parts))
	for _, p := range parts {
		out = append(out, model.SpotFeature(p))
	}
	return out
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// isDuplicateKey reports whether err is a MySQL duplicate-key error
// (1062).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
