package garage

import (
	"context"

	"github.com/parkwise/parkwise/internal/model"
)

// Availability returns the current spot counts for a garage.  When a
// vehicle type is given the snapshot covers only the spot types that
// vehicle could use, which is the number a driver at the gate actually
// cares about.  The snapshot is one consistent read, not a merge of
// several queries.
func (s *Service) Availability(ctx context.Context, garageID string, vt *model.VehicleType) (*model.AvailabilitySnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if garageID == "" {
		return nil, errValidation("garage id is required")
	}
	var types []model.SpotType
	if vt != nil {
		if !vt.Valid() {
			return nil, errValidation("unknown vehicle type")
		}
		types = CompatibleSpotTypes(*vt)
	}
	snap, err := s.spots.Stats(ctx, garageID, types)
	if err != nil {
		return nil, errStore("reading availability", true, err)
	}
	return snap, nil
}

// Sessions lists the sessions recorded for a garage, newest entry
// first.  activeOnly narrows the list to vehicles currently inside.
func (s *Service) Sessions(ctx context.Context, garageID string, activeOnly bool) ([]model.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if garageID == "" {
		return nil, errValidation("garage id is required")
	}
	list, err := s.sessions.ListByGarage(ctx, garageID, activeOnly)
	if err != nil {
		return nil, errStore("listing sessions", true, err)
	}
	return list, nil
}
