package garage

import (
	"sort"

	"github.com/parkwise/parkwise/internal/model"
)

// compatibleSpotTypes maps each vehicle type to the spot types it may
// park in.  Oversized vehicles have no fallback, and nothing falls
// back INTO oversized or electric spots.
var compatibleSpotTypes = map[model.VehicleType][]model.SpotType{
	model.VehicleMotorcycle: {model.SpotMotorcycle, model.SpotCompact, model.SpotStandard},
	model.VehicleCompact:    {model.SpotCompact, model.SpotStandard},
	model.VehicleStandard:   {model.SpotStandard},
	model.VehicleOversized:  {model.SpotOversized},
	model.VehicleElectric:   {model.SpotElectric, model.SpotStandard},
}

// CompatibleSpotTypes returns the spot types a vehicle of type vt may
// occupy.  Unknown vehicle types get an empty slice.  The result is a
// copy; callers may reorder it freely.
func CompatibleSpotTypes(vt model.VehicleType) []model.SpotType {
	return append([]model.SpotType(nil), compatibleSpotTypes[vt]...)
}

// Preferences carries the optional placement wishes a driver may state
// at check-in.  A nil field means no preference.
type Preferences struct {
	PreferredFloor *int
}

// SelectSpot picks the best spot for a vehicle from a snapshot of
// available spots.  It is a pure function: same inputs, same answer.
//
// Ranking: all compatible available spots are ordered by a single
// total order, lowest floor first, then bay, then number, so the
// allocator fills low floors first and walks each bay in sequence
// regardless of spot type.  When a preferred floor is given the whole
// search runs against that floor first; only if the preferred floor
// has no compatible spot does the search widen to the full garage, so
// a stated preference never turns a satisfiable check-in into a
// failure.  A nil return means no compatible spot exists in the
// snapshot.
func SelectSpot(available []model.Spot, vt model.VehicleType, prefs Preferences) *model.Spot {
	compatible := compatibleSpotTypes[vt]
	if len(compatible) == 0 {
		return nil
	}
	if prefs.PreferredFloor != nil {
		var onFloor []model.Spot
		for _, sp := range available {
			if sp.Floor == *prefs.PreferredFloor {
				onFloor = append(onFloor, sp)
			}
		}
		if sp := pickLowest(onFloor, compatible); sp != nil {
			return sp
		}
	}
	return pickLowest(available, compatible)
}

func pickLowest(available []model.Spot, compatible []model.SpotType) *model.Spot {
	allowed := make(map[model.SpotType]bool, len(compatible))
	for _, st := range compatible {
		allowed[st] = true
	}
	var candidates []model.Spot
	for _, sp := range available {
		if sp.Status != model.SpotAvailable || !allowed[sp.Type] {
			continue
		}
		candidates = append(candidates, sp)
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Floor != b.Floor {
			return a.Floor < b.Floor
		}
		if a.Bay != b.Bay {
			return a.Bay < b.Bay
		}
		return a.Number < b.Number
	})
	return &candidates[0]
}
