package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/parkwise/parkwise/internal/model"
	"github.com/parkwise/parkwise/internal/repository"
)

// VehicleRepo provides access to the vehicles table.
type VehicleRepo struct {
	db *sql.DB
}

// NewVehicleRepo constructs a VehicleRepo with the given DB handle.
func NewVehicleRepo(db *sql.DB) *VehicleRepo {
	return &VehicleRepo{db: db}
}

const vehicleColumns = `id, garage_id, plate, vehicle_type, rate_type, status, spot_id, created_at, updated_at`

// FindByPlate retrieves one vehicle by its normalized plate.
func (r *VehicleRepo) FindByPlate(ctx context.Context, garageID, plate string) (*model.Vehicle, error) {
	const q = `SELECT ` + vehicleColumns + `
               FROM vehicles
               WHERE garage_id = ? AND plate = ?`
	v, err := scanVehicle(r.db.QueryRowContext(ctx, q, garageID, plate))
	if err != nil {
		return nil, err
	}
	return v, nil
}

// CreateOrReactivate records a vehicle as parked.  It first tries the
// conditional UPDATE of an existing departed record; if no record
// exists it INSERTs one, and the (garage_id, plate) unique key turns a
// concurrent insert race into ErrVehicleParked.  A record that exists
// and is already parked is ErrVehicleParked as well.  Exactly one of
// two concurrent calls for the same plate can succeed.
func (r *VehicleRepo) CreateOrReactivate(ctx context.Context, garageID, plate, spotID string, vt model.VehicleType, rate model.RateType) (*model.Vehicle, error) {
	const reactivate = `UPDATE vehicles
                        SET status = 'parked', spot_id = ?, vehicle_type = ?, rate_type = ?, updated_at = NOW()
                        WHERE garage_id = ? AND plate = ? AND status = 'departed'`
	res, err := r.db.ExecContext(ctx, reactivate, spotID, vt, rate, garageID, plate)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return r.FindByPlate(ctx, garageID, plate)
	}

	const insert = `INSERT INTO vehicles (garage_id, plate, vehicle_type, rate_type, status, spot_id)
                    VALUES (?, ?, ?, ?, 'parked', ?)`
	ins, err := r.db.ExecContext(ctx, insert, garageID, plate, vt, rate, spotID)
	if err != nil {
		if isDuplicateKey(err) {
			// The record exists and the reactivation above did not
			// match, so it is parked.
			return nil, repository.ErrVehicleParked
		}
		return nil, err
	}
	id, err := ins.LastInsertId()
	if err != nil {
		return nil, err
	}
	sid := spotID
	return &model.Vehicle{
		ID:       uint64(id),
		GarageID: garageID,
		Plate:    plate,
		Type:     vt,
		RateType: rate,
		Status:   model.VehicleParked,
		SpotID:   &sid,
	}, nil
}

// MarkDeparted clears a vehicle's parked state.
func (r *VehicleRepo) MarkDeparted(ctx context.Context, garageID, plate string) error {
	const q = `UPDATE vehicles
               SET status = 'departed', spot_id = NULL, updated_at = NOW()
               WHERE garage_id = ? AND plate = ?`
	res, err := r.db.ExecContext(ctx, q, garageID, plate)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, ferr := r.FindByPlate(ctx, garageID, plate); ferr != nil {
			return ferr
		}
	}
	return nil
}

func scanVehicle(row *sql.Row) (*model.Vehicle, error) {
	var (
		v      model.Vehicle
		spotID sql.NullString
	)
	err := row.Scan(&v.ID, &v.GarageID, &v.Plate, &v.Type, &v.RateType, &v.Status, &spotID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if spotID.Valid {
		sid := spotID.String
		v.SpotID = &sid
	}
	return &v, nil
}
