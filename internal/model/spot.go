package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SpotType classifies a physical parking spot.  Vehicles may only
// occupy spots whose type is compatible with the vehicle type; the
// compatibility table lives in the garage package.
type SpotType string

const (
	SpotCompact    SpotType = "compact"
	SpotStandard   SpotType = "standard"
	SpotOversized  SpotType = "oversized"
	SpotElectric   SpotType = "electric"
	SpotMotorcycle SpotType = "motorcycle"
)

// Valid reports whether t is a member of the spot type enumeration.
func (t SpotType) Valid() bool {
	switch t {
	case SpotCompact, SpotStandard, SpotOversized, SpotElectric, SpotMotorcycle:
		return true
	}
	return false
}

// SpotStatus is the occupancy state of a spot.  Transitions between
// available and occupied happen only through the spot store's reserve
// and release primitives; out_of_service is set by an attendant.
type SpotStatus string

const (
	SpotAvailable    SpotStatus = "available"
	SpotOccupied     SpotStatus = "occupied"
	SpotOutOfService SpotStatus = "out_of_service"
)

// SpotFeature is an optional attribute of a spot, such as an EV
// charger or handicap accessibility.  Features do not affect spot
// selection order; they are informational.
type SpotFeature string

const (
	FeatureEVCharging SpotFeature = "ev_charging"
	FeatureHandicap   SpotFeature = "handicap"
)

// Spot describes a single physical parking location.  Its identity is
// the composite of floor, bay and number within a garage, rendered as
// a stable human-readable id like "F1-A-001".
//
// Invariant: OccupantPlate is non-nil if and only if Status is
// occupied.  A spot never has more than one occupant.
type Spot struct {
	GarageID      string        // spots.garage_id
	Floor         int           // spots.floor
	Bay           string        // spots.bay (single letter or short label, upper-cased)
	Number        int           // spots.number within the bay
	Type          SpotType      // spots.spot_type
	Features      []SpotFeature // spots.features (comma-joined in MySQL)
	Status        SpotStatus    // spots.status
	OccupantPlate *string       // spots.occupant_plate (nullable; normalized plate)
	CreatedAt     time.Time     // spots.created_at
	UpdatedAt     time.Time     // spots.updated_at
}

// ID renders the composite spot identity, e.g. floor 1, bay "A",
// number 1 becomes "F1-A-001".
func (s Spot) ID() string {
	return FormatSpotID(s.Floor, s.Bay, s.Number)
}

// FormatSpotID builds the canonical spot id string from its parts.
func FormatSpotID(floor int, bay string, number int) string {
	return fmt.Sprintf("F%d-%s-%03d", floor, strings.ToUpper(strings.TrimSpace(bay)), number)
}

// ParseSpotID splits a canonical spot id back into floor, bay and
// number.  It accepts the same form FormatSpotID produces and returns
// an error for anything else.
func ParseSpotID(id string) (floor int, bay string, number int, err error) {
	parts := strings.Split(strings.ToUpper(strings.TrimSpace(id)), "-")
	if len(parts) != 3 || !strings.HasPrefix(parts[0], "F") {
		return 0, "", 0, fmt.Errorf("invalid spot id %q", id)
	}
	floor, err = strconv.Atoi(strings.TrimPrefix(parts[0], "F"))
	if err != nil {
		return 0, "", 0, fmt.Errorf("invalid spot id %q: bad floor", id)
	}
	bay = parts[1]
	if bay == "" {
		return 0, "", 0, fmt.Errorf("invalid spot id %q: empty bay", id)
	}
	number, err = strconv.Atoi(parts[2])
	if err != nil || number <= 0 {
		return 0, "", 0, fmt.Errorf("invalid spot id %q: bad number", id)
	}
	return floor, bay, number, nil
}

// SpotTypeCount pairs the total and currently available spot counts
// for one spot type inside an availability snapshot.
type SpotTypeCount struct {
	Total     int `json:"total"`
	Available int `json:"available"`
}

// AvailabilitySnapshot is a read-only aggregate over the spot store,
// taken as a single consistent view.  When produced for a specific
// vehicle type it only counts compatible spot types.
type AvailabilitySnapshot struct {
	GarageID     string                     `json:"garage_id"`
	Total        int                        `json:"total"`
	Available    int                        `json:"available"`
	Occupied     int                        `json:"occupied"`
	OutOfService int                        `json:"out_of_service"`
	BySpotType   map[SpotType]SpotTypeCount `json:"by_spot_type"`
}
