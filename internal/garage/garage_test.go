package garage

import (
	"context"
	"errors"
	"testing"

	"github.com/parkwise/parkwise/internal/model"
	"github.com/parkwise/parkwise/internal/repository"
	"github.com/parkwise/parkwise/internal/repository/memory"
)

const testGarage = "downtown"

// newTestService builds a Service over a fresh in-memory store and
// returns both so tests can seed and inspect state directly.
func newTestService(t *testing.T) (*Service, repository.Stores) {
	t.Helper()
	stores := memory.New().Stores()
	if err := stores.Garages.Create(context.Background(), &model.Garage{ID: testGarage, Name: "Downtown Garage"}); err != nil {
		t.Fatalf("seeding garage: %v", err)
	}
	svc := NewService(stores, Options{})
	return svc, stores
}

// seedSpot inserts one available spot.
func seedSpot(t *testing.T, stores repository.Stores, floor int, bay string, number int, st model.SpotType) {
	t.Helper()
	spot := &model.Spot{
		GarageID: testGarage,
		Floor:    floor,
		Bay:      bay,
		Number:   number,
		Type:     st,
		Status:   model.SpotAvailable,
	}
	if err := stores.Spots.Create(context.Background(), spot); err != nil {
		t.Fatalf("seeding spot %s: %v", spot.ID(), err)
	}
}

// mustKind asserts err is a garage error of the given kind and returns
// it for further field checks.
func mustKind(t *testing.T, err error, kind FailureKind) *Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	var ge *Error
	if !errors.As(err, &ge) {
		t.Fatalf("expected *garage.Error, got %T: %v", err, err)
	}
	if ge.Kind != kind {
		t.Fatalf("expected kind %s, got %s (%v)", kind, ge.Kind, err)
	}
	return ge
}
