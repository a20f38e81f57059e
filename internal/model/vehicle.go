package model

import "time"

// VehicleType classifies a vehicle for spot assignment.  Each vehicle
// type maps to a fixed set of compatible spot types.
type VehicleType string

const (
	VehicleMotorcycle VehicleType = "motorcycle"
	VehicleCompact    VehicleType = "compact"
	VehicleStandard   VehicleType = "standard"
	VehicleOversized  VehicleType = "oversized"
	VehicleElectric   VehicleType = "electric"
)

// Valid reports whether t is a member of the vehicle type enumeration.
func (t VehicleType) Valid() bool {
	switch t {
	case VehicleMotorcycle, VehicleCompact, VehicleStandard, VehicleOversized, VehicleElectric:
		return true
	}
	return false
}

// VehicleStatus tracks whether a vehicle is currently inside the
// garage.  At most one record per normalized plate may be parked at
// any time; that invariant is enforced by the vehicle store's
// conditional create-or-reactivate.
type VehicleStatus string

const (
	VehicleParked   VehicleStatus = "parked"
	VehicleDeparted VehicleStatus = "departed"
)

// RateType names the tariff class recorded at check-in.  Pricing
// itself is settled outside this service; the rate type is carried on
// the vehicle and session for the billing layer.
type RateType string

const (
	RateHourly  RateType = "hourly"
	RateDaily   RateType = "daily"
	RateMonthly RateType = "monthly"
)

// Valid reports whether r is a member of the rate type enumeration.
func (r RateType) Valid() bool {
	switch r {
	case RateHourly, RateDaily, RateMonthly:
		return true
	}
	return false
}

// Vehicle is a vehicle known to a garage, keyed by its normalized
// license plate (upper-cased, trimmed).  The plate normalization is
// the canonical identity comparison used everywhere; raw user input is
// never stored.  SpotID mirrors the spot's occupant pointer and is
// non-nil exactly while the vehicle is parked.
type Vehicle struct {
	ID        uint64        // vehicles.id
	GarageID  string        // vehicles.garage_id
	Plate     string        // vehicles.plate (normalized)
	Type      VehicleType   // vehicles.vehicle_type
	RateType  RateType      // vehicles.rate_type (as of the latest check-in)
	Status    VehicleStatus // vehicles.status
	SpotID    *string       // vehicles.spot_id (nullable)
	CreatedAt time.Time     // vehicles.created_at
	UpdatedAt time.Time     // vehicles.updated_at
}
