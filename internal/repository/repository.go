package repository

import (
	"context"
	"time"

	"github.com/parkwise/parkwise/internal/model"
)

// SpotRepository is the contract for the spot store.  Reserve is the
// atomic reservation primitive: a single conditional state transition
// from available to occupied that succeeds for exactly one caller.
// The orchestrator never performs a separate read-then-write on spot
// status; every implementation must make Reserve atomic (a conditional
// UPDATE in MySQL, a mutex-guarded check-and-set in memory).
type SpotRepository interface {
	// Create inserts a new spot.  ErrDuplicate when the composite id
	// already exists in the garage.
	Create(ctx context.Context, spot *model.Spot) error

	// FindByID loads one spot by its composite id.  ErrNotFound when
	// absent.
	FindByID(ctx context.Context, garageID, spotID string) (*model.Spot, error)

	// FindAvailable returns a snapshot of available spots restricted
	// to the given spot types.  An empty type filter means all types.
	// The snapshot is read-only; winning the spot is decided by
	// Reserve, not by this query.
	FindAvailable(ctx context.Context, garageID string, types []model.SpotType) ([]model.Spot, error)

	// Reserve atomically transitions the spot from available to
	// occupied and records the occupant plate.  It returns (true, nil)
	// for the single winner, (false, nil) when the spot was not
	// available (typically lost to a concurrent check-in), and
	// ErrNotFound when the spot does not exist.
	Reserve(ctx context.Context, garageID, spotID, plate string) (bool, error)

	// Release transitions the spot back to available and clears the
	// occupant.  Releasing a spot that is already available is a
	// harmless no-op so that rollback stays idempotent.
	Release(ctx context.Context, garageID, spotID string) error

	// SetStatus switches a spot between available and out_of_service.
	// ErrSpotOccupied when the spot currently holds a vehicle.
	SetStatus(ctx context.Context, garageID, spotID string, status model.SpotStatus) error

	// ListByGarage returns every spot of a garage.
	ListByGarage(ctx context.Context, garageID string) ([]model.Spot, error)

	// Stats aggregates spot counts in one consistent snapshot,
	// restricted to the given spot types when the filter is non-empty.
	Stats(ctx context.Context, garageID string, types []model.SpotType) (*model.AvailabilitySnapshot, error)
}

// VehicleRepository is the contract for the vehicle store.  It owns
// the plate-uniqueness invariant: at most one parked record per
// normalized plate per garage.
type VehicleRepository interface {
	// FindByPlate loads a vehicle by normalized plate.  ErrNotFound
	// when the plate has never checked in.
	FindByPlate(ctx context.Context, garageID, plate string) (*model.Vehicle, error)

	// CreateOrReactivate atomically creates a parked vehicle record,
	// or flips an existing departed record back to parked.  When the
	// record exists and is already parked it returns ErrVehicleParked,
	// so two concurrent check-ins for the same plate resolve with
	// exactly one winner.
	CreateOrReactivate(ctx context.Context, garageID, plate, spotID string, vt model.VehicleType, rate model.RateType) (*model.Vehicle, error)

	// MarkDeparted sets the vehicle's status to departed and clears
	// its spot reference.  Also used as the rollback inverse of
	// CreateOrReactivate.
	MarkDeparted(ctx context.Context, garageID, plate string) error
}

// SessionRepository is the contract for the parking-session store.
// Delete and Reopen exist only for the orchestrators' compensation
// paths and are never part of a successful flow.
type SessionRepository interface {
	// Create inserts a new active session.
	Create(ctx context.Context, sess *model.Session) error

	// Close completes an active session: sets the exit time, computes
	// the duration and flips the status to completed.  ErrNotFound
	// when no active session has this id.
	Close(ctx context.Context, sessionID string, exit time.Time) (*model.Session, error)

	// Reopen reverts a completed session back to active, clearing the
	// exit time.  Used only to roll back a failed check-out.
	Reopen(ctx context.Context, sessionID string) error

	// FindActiveByPlate returns the single active session for a plate.
	// ErrNoActiveSession when there is none.
	FindActiveByPlate(ctx context.Context, garageID, plate string) (*model.Session, error)

	// ListByGarage returns sessions of a garage, newest first,
	// optionally restricted to active ones.
	ListByGarage(ctx context.Context, garageID string, activeOnly bool) ([]model.Session, error)

	// Delete removes a session outright.  Used only to roll back a
	// failed check-in.
	Delete(ctx context.Context, sessionID string) error
}

// GarageRepository manages garage records themselves.  Garages and
// their spots are provisioned by attendants before any check-in.
type GarageRepository interface {
	Create(ctx context.Context, g *model.Garage) error
	FindByID(ctx context.Context, id string) (*model.Garage, error)
	List(ctx context.Context) ([]model.Garage, error)
}

// AttendantRepository manages operator accounts for the auth layer.
type AttendantRepository interface {
	// Create inserts an attendant and returns the generated id.
	// ErrDuplicate when the email is taken.
	Create(ctx context.Context, email, passwordHash string) (uint64, error)
	FindByEmail(ctx context.Context, email string) (*model.Attendant, error)
}

// Stores bundles every repository behind one value so wiring code can
// pass a single dependency around.
type Stores struct {
	Garages    GarageRepository
	Spots      SpotRepository
	Vehicles   VehicleRepository
	Sessions   SessionRepository
	Attendants AttendantRepository
}
