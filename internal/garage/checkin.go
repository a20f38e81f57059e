package garage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/parkwise/parkwise/internal/model"
	"github.com/parkwise/parkwise/internal/repository"
)

// CheckInRequest carries everything a check-in needs.  RateType
// defaults to hourly and ExpectedMinutes is an optional duration hint;
// zero means the driver gave no estimate.
type CheckInRequest struct {
	GarageID        string
	Plate           string
	VehicleType     model.VehicleType
	RateType        model.RateType
	ExpectedMinutes int
	Notes           string
	Preferences     Preferences
}

// CheckInResult reports a committed check-in.
type CheckInResult struct {
	Vehicle *model.Vehicle
	Spot    *model.Spot
	Session *model.Session
}

// CheckIn admits a vehicle: it refuses duplicates, selects and
// atomically reserves a compatible spot, records the vehicle and opens
// a session.  If any step after the reservation fails, every committed
// step is compensated in reverse order before the error is returned,
// so a failed check-in leaves no trace.
//
// Two concurrent check-ins may select the same spot; only one Reserve
// wins and the loser re-snapshots availability, up to a bounded number
// of attempts.  Two concurrent check-ins for the SAME plate are
// resolved by the vehicle store's conditional write: exactly one
// creates the parked record, the other rolls back its reservation and
// reports the duplicate.
func (s *Service) CheckIn(ctx context.Context, req CheckInRequest) (*CheckInResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	plate := NormalizePlate(req.Plate)
	if req.GarageID == "" {
		return nil, errValidation("garage id is required")
	}
	if !validPlate(plate) {
		return nil, errValidation("plate must be 2-12 characters of A-Z, 0-9 or '-'")
	}
	if !req.VehicleType.Valid() {
		return nil, errValidation("unknown vehicle type")
	}
	rate := req.RateType
	if rate == "" {
		rate = model.RateHourly
	}
	if !rate.Valid() {
		return nil, errValidation("unknown rate type")
	}
	if req.ExpectedMinutes < 0 {
		return nil, errValidation("expected minutes must not be negative")
	}

	// Cheap pre-check.  The authoritative duplicate guard is the
	// conditional write in CreateOrReactivate below; this one just
	// refuses the common case before burning a reservation.
	if existing, err := s.vehicles.FindByPlate(ctx, req.GarageID, plate); err == nil {
		if existing.Status == model.VehicleParked {
			spotID := ""
			if existing.SpotID != nil {
				spotID = *existing.SpotID
			}
			return nil, errAlreadyCheckedIn(plate, spotID)
		}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, errStore("looking up vehicle", true, err)
	}

	spot, err := s.reserveSpot(ctx, req.GarageID, plate, req.VehicleType, req.Preferences)
	if err != nil {
		return nil, err
	}

	comp := &compensationStack{}
	comp.push("release spot", func(ctx context.Context) error {
		return s.spots.Release(ctx, req.GarageID, spot.ID())
	})

	vehicle, err := s.vehicles.CreateOrReactivate(ctx, req.GarageID, plate, spot.ID(), req.VehicleType, rate)
	if err != nil {
		s.rollback("check-in", comp)
		if errors.Is(err, repository.ErrVehicleParked) {
			// Lost a same-plate race after the pre-check.  Re-read the
			// winner's record so the refusal still names the spot.
			spotID := ""
			if parked, ferr := s.vehicles.FindByPlate(ctx, req.GarageID, plate); ferr == nil && parked.SpotID != nil {
				spotID = *parked.SpotID
			}
			return nil, errAlreadyCheckedIn(plate, spotID)
		}
		return nil, errStore("recording vehicle", true, err)
	}
	comp.push("mark vehicle departed", func(ctx context.Context) error {
		return s.vehicles.MarkDeparted(ctx, req.GarageID, plate)
	})

	now := time.Now().UTC()
	sess := &model.Session{
		ID:        uuid.NewString(),
		GarageID:  req.GarageID,
		Plate:     plate,
		VehicleID: vehicle.ID,
		SpotID:    spot.ID(),
		Status:    model.SessionActive,
		RateType:  rate,
		EntryTime: now,
		Notes:     req.Notes,
	}
	if req.ExpectedMinutes > 0 {
		expected := now.Add(time.Duration(req.ExpectedMinutes) * time.Minute)
		sess.ExpectedExit = &expected
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		s.rollback("check-in", comp)
		return nil, errStore("opening session", true, err)
	}

	spot.Status = model.SpotOccupied
	spot.OccupantPlate = &plate

	s.log.Infow("vehicle checked in",
		"garage", req.GarageID, "plate", plate, "spot", spot.ID(), "session", sess.ID)
	if s.events != nil {
		s.events.SessionStarted(ctx, sess, spot)
	}
	return &CheckInResult{Vehicle: vehicle, Spot: spot, Session: sess}, nil
}

// reserveSpot snapshots availability, lets the allocator pick, and
// tries to win the conditional reservation.  Losing a race is not an
// error until the attempt budget runs out or the garage is genuinely
// full.
func (s *Service) reserveSpot(ctx context.Context, garageID, plate string, vt model.VehicleType, prefs Preferences) (*model.Spot, error) {
	types := CompatibleSpotTypes(vt)
	for attempt := 0; attempt < s.reserveAttempts; attempt++ {
		available, err := s.spots.FindAvailable(ctx, garageID, types)
		if err != nil {
			return nil, errStore("listing available spots", true, err)
		}
		spot := SelectSpot(available, vt, prefs)
		if spot == nil {
			snap, serr := s.spots.Stats(ctx, garageID, types)
			if serr != nil {
				s.log.Warnw("availability snapshot failed", "garage", garageID, "error", serr)
			}
			return nil, errNoSpots(plate, snap)
		}
		won, err := s.spots.Reserve(ctx, garageID, spot.ID(), plate)
		if err != nil {
			return nil, errStore("reserving spot", true, err)
		}
		if won {
			return spot, nil
		}
		s.log.Debugw("lost reservation race, retrying",
			"garage", garageID, "spot", spot.ID(), "attempt", attempt+1)
	}
	snap, serr := s.spots.Stats(ctx, garageID, types)
	if serr != nil {
		s.log.Warnw("availability snapshot failed", "garage", garageID, "error", serr)
	}
	return nil, errNoSpots(plate, snap)
}
