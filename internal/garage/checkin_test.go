package garage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/parkwise/parkwise/internal/model"
	"github.com/parkwise/parkwise/internal/repository"
	"github.com/parkwise/parkwise/internal/repository/memory"
)

func TestCheckInHappyPath(t *testing.T) {
	svc, stores := newTestService(t)
	seedSpot(t, stores, 1, "A", 1, model.SpotStandard)
	seedSpot(t, stores, 1, "A", 2, model.SpotStandard)

	res, err := svc.CheckIn(context.Background(), CheckInRequest{
		GarageID:        testGarage,
		Plate:           "abc-123",
		VehicleType:     model.VehicleStandard,
		ExpectedMinutes: 120,
	})
	if err != nil {
		t.Fatalf("check-in failed: %v", err)
	}
	if res.Spot.ID() != "F1-A-001" {
		t.Errorf("expected spot F1-A-001, got %s", res.Spot.ID())
	}
	if res.Session.Plate != "ABC-123" {
		t.Errorf("expected normalized plate ABC-123, got %s", res.Session.Plate)
	}
	if res.Session.Status != model.SessionActive {
		t.Errorf("expected active session, got %s", res.Session.Status)
	}
	if res.Session.RateType != model.RateHourly {
		t.Errorf("expected hourly default rate, got %s", res.Session.RateType)
	}
	if res.Session.ExpectedExit == nil {
		t.Error("expected ExpectedExit to be set from the duration hint")
	}

	spot, err := stores.Spots.FindByID(context.Background(), testGarage, "F1-A-001")
	if err != nil {
		t.Fatalf("reading spot back: %v", err)
	}
	if spot.Status != model.SpotOccupied {
		t.Errorf("expected occupied spot, got %s", spot.Status)
	}
	if spot.OccupantPlate == nil || *spot.OccupantPlate != "ABC-123" {
		t.Errorf("expected occupant ABC-123, got %v", spot.OccupantPlate)
	}
	vehicle, err := stores.Vehicles.FindByPlate(context.Background(), testGarage, "ABC-123")
	if err != nil {
		t.Fatalf("reading vehicle back: %v", err)
	}
	if vehicle.Status != model.VehicleParked {
		t.Errorf("expected parked vehicle, got %s", vehicle.Status)
	}
}

func TestCheckInValidation(t *testing.T) {
	svc, stores := newTestService(t)
	seedSpot(t, stores, 1, "A", 1, model.SpotStandard)

	cases := []struct {
		name string
		req  CheckInRequest
	}{
		{"missing garage", CheckInRequest{Plate: "ABC-123", VehicleType: model.VehicleStandard}},
		{"empty plate", CheckInRequest{GarageID: testGarage, VehicleType: model.VehicleStandard}},
		{"plate with spaces", CheckInRequest{GarageID: testGarage, Plate: "AB C", VehicleType: model.VehicleStandard}},
		{"plate too long", CheckInRequest{GarageID: testGarage, Plate: "ABCDEFGHIJKLM", VehicleType: model.VehicleStandard}},
		{"unknown vehicle type", CheckInRequest{GarageID: testGarage, Plate: "ABC-123", VehicleType: "hovercraft"}},
		{"unknown rate type", CheckInRequest{GarageID: testGarage, Plate: "ABC-123", VehicleType: model.VehicleStandard, RateType: "weekly"}},
		{"negative minutes", CheckInRequest{GarageID: testGarage, Plate: "ABC-123", VehicleType: model.VehicleStandard, ExpectedMinutes: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CheckIn(context.Background(), tc.req)
			mustKind(t, err, KindValidationFailed)
		})
	}

	// Validation failures must not consume the spot.
	spot, _ := stores.Spots.FindByID(context.Background(), testGarage, "F1-A-001")
	if spot.Status != model.SpotAvailable {
		t.Errorf("expected spot untouched after validation failures, got %s", spot.Status)
	}
}

func TestCheckInDuplicatePlate(t *testing.T) {
	svc, stores := newTestService(t)
	seedSpot(t, stores, 1, "A", 1, model.SpotStandard)
	seedSpot(t, stores, 1, "A", 2, model.SpotStandard)

	if _, err := svc.CheckIn(context.Background(), CheckInRequest{
		GarageID: testGarage, Plate: "abc-123", VehicleType: model.VehicleStandard,
	}); err != nil {
		t.Fatalf("first check-in failed: %v", err)
	}

	// The same plate in a different spelling must be refused and must
	// reference the existing spot.
	_, err := svc.CheckIn(context.Background(), CheckInRequest{
		GarageID: testGarage, Plate: " ABC-123 ", VehicleType: model.VehicleStandard,
	})
	ge := mustKind(t, err, KindAlreadyCheckedIn)
	if ge.SpotID != "F1-A-001" {
		t.Errorf("expected duplicate error to reference F1-A-001, got %q", ge.SpotID)
	}

	// The refused attempt must not have touched the second spot.
	spot, _ := stores.Spots.FindByID(context.Background(), testGarage, "F1-A-002")
	if spot.Status != model.SpotAvailable {
		t.Errorf("expected F1-A-002 still available, got %s", spot.Status)
	}
}

func TestCheckInNoSpotsAvailable(t *testing.T) {
	svc, stores := newTestService(t)
	seedSpot(t, stores, 1, "A", 1, model.SpotCompact)

	// A standard car cannot use a compact spot.
	_, err := svc.CheckIn(context.Background(), CheckInRequest{
		GarageID: testGarage, Plate: "ABC-123", VehicleType: model.VehicleStandard,
	})
	ge := mustKind(t, err, KindNoSpotsAvailable)
	if ge.Availability == nil {
		t.Fatal("expected availability snapshot on no-spots error")
	}
	if ge.Availability.Available != 0 {
		t.Errorf("expected 0 compatible available, got %d", ge.Availability.Available)
	}

	// The compact spot itself stays free for someone who can use it.
	spot, _ := stores.Spots.FindByID(context.Background(), testGarage, "F1-A-001")
	if spot.Status != model.SpotAvailable {
		t.Errorf("expected compact spot untouched, got %s", spot.Status)
	}
}

// blindVehicles wraps a real vehicle store and reports ErrNotFound for
// a set number of FindByPlate calls before delegating, to slip a
// duplicate check-in past the advisory pre-check and into the
// conditional write.
type blindVehicles struct {
	repository.VehicleRepository
	misses int
}

func (b *blindVehicles) FindByPlate(ctx context.Context, garageID, plate string) (*model.Vehicle, error) {
	if b.misses > 0 {
		b.misses--
		return nil, repository.ErrNotFound
	}
	return b.VehicleRepository.FindByPlate(ctx, garageID, plate)
}

func TestCheckInDuplicateRaceLoserNamesSpot(t *testing.T) {
	svc, stores := newTestService(t)
	seedSpot(t, stores, 1, "A", 1, model.SpotStandard)
	seedSpot(t, stores, 1, "A", 2, model.SpotStandard)

	if _, err := svc.CheckIn(context.Background(), CheckInRequest{
		GarageID: testGarage, Plate: "ABC-123", VehicleType: model.VehicleStandard,
	}); err != nil {
		t.Fatalf("first check-in failed: %v", err)
	}

	// The loser of a same-plate race never sees the parked vehicle in
	// its pre-check; it reserves a spot and only the conditional write
	// refuses it.  The refusal must still name the occupied spot.
	blind := &blindVehicles{VehicleRepository: stores.Vehicles, misses: 1}
	racer := NewService(repository.Stores{
		Garages:  stores.Garages,
		Spots:    stores.Spots,
		Vehicles: blind,
		Sessions: stores.Sessions,
	}, Options{})

	_, err := racer.CheckIn(context.Background(), CheckInRequest{
		GarageID: testGarage, Plate: "ABC-123", VehicleType: model.VehicleStandard,
	})
	ge := mustKind(t, err, KindAlreadyCheckedIn)
	if ge.SpotID != "F1-A-001" {
		t.Errorf("expected refusal to reference F1-A-001, got %q", ge.SpotID)
	}

	// The loser's reserved spot must have been rolled back.
	spot, _ := stores.Spots.FindByID(context.Background(), testGarage, "F1-A-002")
	if spot.Status != model.SpotAvailable {
		t.Errorf("expected F1-A-002 released after refusal, got %s", spot.Status)
	}
}

// failingSessions wraps a real session store and fails Create on
// demand, to force the check-in rollback path.
type failingSessions struct {
	repository.SessionRepository
	failCreate bool
}

func (f *failingSessions) Create(ctx context.Context, sess *model.Session) error {
	if f.failCreate {
		return errors.New("session store down")
	}
	return f.SessionRepository.Create(ctx, sess)
}

func TestCheckInRollbackOnSessionFailure(t *testing.T) {
	stores := memory.New().Stores()
	if err := stores.Garages.Create(context.Background(), &model.Garage{ID: testGarage, Name: "Downtown Garage"}); err != nil {
		t.Fatalf("seeding garage: %v", err)
	}
	broken := &failingSessions{SessionRepository: stores.Sessions, failCreate: true}
	svc := NewService(repository.Stores{
		Garages:  stores.Garages,
		Spots:    stores.Spots,
		Vehicles: stores.Vehicles,
		Sessions: broken,
	}, Options{})
	seedSpot(t, stores, 1, "A", 1, model.SpotStandard)

	_, err := svc.CheckIn(context.Background(), CheckInRequest{
		GarageID: testGarage, Plate: "ABC-123", VehicleType: model.VehicleStandard,
	})
	mustKind(t, err, KindStoreFailure)

	// Every committed step must have been undone: spot free, vehicle
	// not parked, no session.
	spot, _ := stores.Spots.FindByID(context.Background(), testGarage, "F1-A-001")
	if spot.Status != model.SpotAvailable {
		t.Errorf("expected spot released after rollback, got %s", spot.Status)
	}
	if spot.OccupantPlate != nil {
		t.Errorf("expected no occupant after rollback, got %s", *spot.OccupantPlate)
	}
	if v, err := stores.Vehicles.FindByPlate(context.Background(), testGarage, "ABC-123"); err == nil {
		if v.Status == model.VehicleParked {
			t.Error("expected vehicle not parked after rollback")
		}
	}
	if _, err := stores.Sessions.FindActiveByPlate(context.Background(), testGarage, "ABC-123"); !errors.Is(err, repository.ErrNoActiveSession) {
		t.Errorf("expected no active session after rollback, got %v", err)
	}

	// Once the session store recovers the same plate checks in fine.
	broken.failCreate = false
	if _, err := svc.CheckIn(context.Background(), CheckInRequest{
		GarageID: testGarage, Plate: "ABC-123", VehicleType: model.VehicleStandard,
	}); err != nil {
		t.Fatalf("check-in after recovery failed: %v", err)
	}
}

func TestCheckInConcurrentDistinctPlates(t *testing.T) {
	svc, stores := newTestService(t)
	// 10 spots, 10 vehicles: everyone fits, nobody shares a spot.
	for i := 1; i <= 10; i++ {
		seedSpot(t, stores, 1, "A", i, model.SpotStandard)
	}
	// All racers initially pick the lowest spot, so allow more retries
	// than the default before declaring the garage full.
	svc = NewService(repository.Stores{
		Garages: stores.Garages, Spots: stores.Spots,
		Vehicles: stores.Vehicles, Sessions: stores.Sessions,
	}, Options{ReserveAttempts: 20})

	plates := make([]string, 10)
	for i := range plates {
		plates[i] = fmt.Sprintf("CAR-%02d", i)
	}

	var wg sync.WaitGroup
	results := make([]*CheckInResult, len(plates))
	errs := make([]error, len(plates))
	for i, plate := range plates {
		wg.Add(1)
		go func(i int, plate string) {
			defer wg.Done()
			results[i], errs[i] = svc.CheckIn(context.Background(), CheckInRequest{
				GarageID: testGarage, Plate: plate, VehicleType: model.VehicleStandard,
			})
		}(i, plate)
	}
	wg.Wait()

	seen := make(map[string]string)
	for i, err := range errs {
		if err != nil {
			t.Fatalf("check-in for %s failed: %v", plates[i], err)
		}
		id := results[i].Spot.ID()
		if prev, dup := seen[id]; dup {
			t.Fatalf("spot %s assigned to both %s and %s", id, prev, plates[i])
		}
		seen[id] = plates[i]
	}
}

func TestCheckInConcurrentSamePlate(t *testing.T) {
	svc, stores := newTestService(t)
	seedSpot(t, stores, 1, "A", 1, model.SpotStandard)
	seedSpot(t, stores, 1, "A", 2, model.SpotStandard)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CheckIn(context.Background(), CheckInRequest{
				GarageID: testGarage, Plate: "ABC-123", VehicleType: model.VehicleStandard,
			})
		}(i)
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case KindOf(err) == KindAlreadyCheckedIn:
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || dup != 1 {
		t.Fatalf("expected exactly one winner and one duplicate, got %d winners, %d duplicates", ok, dup)
	}

	// The loser's reservation must have been released: exactly one
	// spot occupied.
	snap, err := stores.Spots.Stats(context.Background(), testGarage, nil)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if snap.Occupied != 1 {
		t.Errorf("expected exactly 1 occupied spot, got %d", snap.Occupied)
	}
}
