package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/parkwise/parkwise/internal/model"
	"github.com/parkwise/parkwise/internal/repository"
)

func seedSpot(t *testing.T, stores repository.Stores, garageID string) string {
	t.Helper()
	spot := &model.Spot{
		GarageID: garageID,
		Floor:    1,
		Bay:      "A",
		Number:   1,
		Type:     model.SpotStandard,
		Status:   model.SpotAvailable,
	}
	if err := stores.Spots.Create(context.Background(), spot); err != nil {
		t.Fatalf("seeding spot: %v", err)
	}
	return spot.ID()
}

func TestReserveExactlyOneWinner(t *testing.T) {
	stores := New().Stores()
	spotID := seedSpot(t, stores, "g1")

	const racers = 32
	var wg sync.WaitGroup
	wins := make([]bool, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			won, err := stores.Spots.Reserve(context.Background(), "g1", spotID, fmt.Sprintf("CAR-%02d", i))
			if err != nil {
				t.Errorf("reserve: %v", err)
				return
			}
			wins[i] = won
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, w := range wins {
		if w {
			winners++
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly 1 winner, got %d", winners)
	}
	spot, err := stores.Spots.FindByID(context.Background(), "g1", spotID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if spot.Status != model.SpotOccupied || spot.OccupantPlate == nil {
		t.Fatalf("expected occupied spot with occupant, got %s %v", spot.Status, spot.OccupantPlate)
	}
}

func TestReserveUnknownSpot(t *testing.T) {
	stores := New().Stores()
	if _, err := stores.Spots.Reserve(context.Background(), "g1", "F9-Z-999", "ABC-123"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSetStatusRefusesOccupied(t *testing.T) {
	stores := New().Stores()
	spotID := seedSpot(t, stores, "g1")
	if _, err := stores.Spots.Reserve(context.Background(), "g1", spotID, "ABC-123"); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	err := stores.Spots.SetStatus(context.Background(), "g1", spotID, model.SpotOutOfService)
	if !errors.Is(err, repository.ErrSpotOccupied) {
		t.Errorf("expected ErrSpotOccupied, got %v", err)
	}
}

func TestCreateOrReactivateGuardsParked(t *testing.T) {
	stores := New().Stores()
	ctx := context.Background()

	v, err := stores.Vehicles.CreateOrReactivate(ctx, "g1", "ABC-123", "F1-A-001", model.VehicleStandard, model.RateHourly)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if v.Status != model.VehicleParked {
		t.Fatalf("expected parked, got %s", v.Status)
	}

	if _, err := stores.Vehicles.CreateOrReactivate(ctx, "g1", "ABC-123", "F1-A-002", model.VehicleStandard, model.RateHourly); !errors.Is(err, repository.ErrVehicleParked) {
		t.Fatalf("expected ErrVehicleParked, got %v", err)
	}

	if err := stores.Vehicles.MarkDeparted(ctx, "g1", "ABC-123"); err != nil {
		t.Fatalf("mark departed: %v", err)
	}
	v2, err := stores.Vehicles.CreateOrReactivate(ctx, "g1", "ABC-123", "F1-A-002", model.VehicleCompact, model.RateDaily)
	if err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if v2.ID != v.ID {
		t.Errorf("expected reactivation to keep id %d, got %d", v.ID, v2.ID)
	}
	if v2.Type != model.VehicleCompact || v2.RateType != model.RateDaily {
		t.Errorf("expected refreshed type and rate, got %s %s", v2.Type, v2.RateType)
	}
}

func TestCreateOrReactivateConcurrentSamePlate(t *testing.T) {
	stores := New().Stores()

	const racers = 16
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = stores.Vehicles.CreateOrReactivate(context.Background(), "g1", "ABC-123", "F1-A-001", model.VehicleStandard, model.RateHourly)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, repository.ErrVehicleParked):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly 1 winner, got %d", winners)
	}
}

func TestSessionCloseAndReopen(t *testing.T) {
	stores := New().Stores()
	ctx := context.Background()

	entry := time.Now().UTC().Add(-90 * time.Minute)
	sess := &model.Session{
		ID:        "sess-1",
		GarageID:  "g1",
		Plate:     "ABC-123",
		SpotID:    "F1-A-001",
		Status:    model.SessionActive,
		RateType:  model.RateHourly,
		EntryTime: entry,
	}
	if err := stores.Sessions.Create(ctx, sess); err != nil {
		t.Fatalf("create: %v", err)
	}

	closed, err := stores.Sessions.Close(ctx, "sess-1", entry.Add(90*time.Minute))
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed.Status != model.SessionCompleted || closed.DurationMinutes == nil || *closed.DurationMinutes != 90 {
		t.Fatalf("unexpected closed session: %+v", closed)
	}

	// Closing twice must fail, the session is no longer active.
	if _, err := stores.Sessions.Close(ctx, "sess-1", time.Now().UTC()); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second close, got %v", err)
	}

	if err := stores.Sessions.Reopen(ctx, "sess-1"); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := stores.Sessions.FindActiveByPlate(ctx, "g1", "ABC-123")
	if err != nil {
		t.Fatalf("expected active session after reopen, got %v", err)
	}
	if got.ExitTime != nil || got.DurationMinutes != nil {
		t.Errorf("expected cleared exit data after reopen, got %+v", got)
	}
}

func TestStoreHandsOutCopies(t *testing.T) {
	stores := New().Stores()
	spotID := seedSpot(t, stores, "g1")

	spot, err := stores.Spots.FindByID(context.Background(), "g1", spotID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	spot.Status = model.SpotOutOfService

	again, err := stores.Spots.FindByID(context.Background(), "g1", spotID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if again.Status != model.SpotAvailable {
		t.Error("mutating a returned spot leaked into the store")
	}
}
