package garage

import (
	"context"
	"errors"
	"time"

	"github.com/parkwise/parkwise/internal/model"
	"github.com/parkwise/parkwise/internal/repository"
)

// CheckOutRequest identifies the departing vehicle.
type CheckOutRequest struct {
	GarageID string
	Plate    string
}

// CheckOutResult reports a committed check-out.  Session carries the
// final exit time and duration; Spot reflects its released state.
type CheckOutResult struct {
	Vehicle       *model.Vehicle
	Spot          *model.Spot
	Session       *model.Session
	TotalDuration time.Duration
}

// CheckOut closes a vehicle's active session, marks the vehicle
// departed and releases its spot, in that order.  The spot release
// runs last so a half-finished check-out can never hand the spot to a
// new arrival while the old session still references it; earlier steps
// are compensated in reverse if a later one fails.
func (s *Service) CheckOut(ctx context.Context, req CheckOutRequest) (*CheckOutResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	plate := NormalizePlate(req.Plate)
	if req.GarageID == "" {
		return nil, errValidation("garage id is required")
	}
	if !validPlate(plate) {
		return nil, errValidation("plate must be 2-12 characters of A-Z, 0-9 or '-'")
	}

	sess, err := s.sessions.FindActiveByPlate(ctx, req.GarageID, plate)
	if err != nil {
		if errors.Is(err, repository.ErrNoActiveSession) || errors.Is(err, repository.ErrNotFound) {
			return nil, errNotCheckedIn(plate)
		}
		return nil, errStore("looking up session", true, err)
	}

	vehicle, err := s.vehicles.FindByPlate(ctx, req.GarageID, plate)
	if err != nil {
		return nil, errStore("looking up vehicle", true, err)
	}
	// Read the spot before the first write so the result and any
	// rollback work from a consistent picture.
	spot, err := s.spots.FindByID(ctx, req.GarageID, sess.SpotID)
	if err != nil {
		return nil, errStore("looking up spot", true, err)
	}

	exit := time.Now().UTC()
	if exit.Before(sess.EntryTime) {
		exit = sess.EntryTime
	}

	closed, err := s.sessions.Close(ctx, sess.ID, exit)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Another check-out for the same plate won the close.
			return nil, errNotCheckedIn(plate)
		}
		return nil, errStore("closing session", true, err)
	}
	comp := &compensationStack{}
	comp.push("reopen session", func(ctx context.Context) error {
		return s.sessions.Reopen(ctx, sess.ID)
	})

	if err := s.vehicles.MarkDeparted(ctx, req.GarageID, plate); err != nil {
		s.rollback("check-out", comp)
		return nil, errStore("marking vehicle departed", true, err)
	}
	comp.push("re-park vehicle", func(ctx context.Context) error {
		_, err := s.vehicles.CreateOrReactivate(ctx, req.GarageID, plate, sess.SpotID, vehicle.Type, vehicle.RateType)
		return err
	})

	if err := s.spots.Release(ctx, req.GarageID, sess.SpotID); err != nil {
		s.rollback("check-out", comp)
		return nil, errStore("releasing spot", true, err)
	}

	spot.Status = model.SpotAvailable
	spot.OccupantPlate = nil
	vehicle.Status = model.VehicleDeparted
	vehicle.SpotID = nil

	dur := exit.Sub(closed.EntryTime)
	s.log.Infow("vehicle checked out",
		"garage", req.GarageID, "plate", plate, "spot", sess.SpotID,
		"session", sess.ID, "duration", dur)
	if s.events != nil {
		s.events.SessionClosed(ctx, closed, spot)
	}
	return &CheckOutResult{Vehicle: vehicle, Spot: spot, Session: closed, TotalDuration: dur}, nil
}
