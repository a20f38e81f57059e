package model

import "time"

// SessionStatus is the lifecycle state of a parking session.  A
// session is created active together with the spot reservation at
// check-in, becomes completed at check-out, and is cancelled only when
// a check-in is rolled back before it finished.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

// Session links a parked vehicle to the spot it occupies for one stay.
// For a given plate at most one session is active at any time, and an
// active session always references a spot that is occupied.
type Session struct {
	ID              string        // sessions.id (UUID, generated at check-in)
	GarageID        string        // sessions.garage_id
	Plate           string        // sessions.plate (normalized)
	VehicleID       uint64        // sessions.vehicle_id
	SpotID          string        // sessions.spot_id
	Status          SessionStatus // sessions.status
	RateType        RateType      // sessions.rate_type
	EntryTime       time.Time     // sessions.entry_time (UTC)
	ExitTime        *time.Time    // sessions.exit_time (nullable while active)
	ExpectedExit    *time.Time    // sessions.expected_exit (from the duration hint, nullable)
	Notes           string        // sessions.notes
	DurationMinutes *int64        // sessions.duration_minutes (set at close)
	CreatedAt       time.Time     // sessions.created_at
	UpdatedAt       time.Time     // sessions.updated_at
}

// Garage identifies one physical garage.  Every operation in the
// service takes an explicit garage id; there is no implicit default
// garage.
type Garage struct {
	ID        string    // garages.id (short slug chosen at creation)
	Name      string    // garages.name
	CreatedAt time.Time // garages.created_at
	UpdatedAt time.Time // garages.updated_at
}

// Attendant is an operator account allowed to provision garages and
// record check-ins and check-outs.
type Attendant struct {
	ID           uint64    // attendants.id
	Email        string    // attendants.email (lower-cased)
	PasswordHash string    // attendants.password_hash (bcrypt)
	IsActive     bool      // attendants.is_active
	CreatedAt    time.Time // attendants.created_at
	UpdatedAt    time.Time // attendants.updated_at
}
