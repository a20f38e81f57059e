package garage

import (
	"testing"

	"github.com/parkwise/parkwise/internal/model"
)

func spot(floor int, bay string, number int, st model.SpotType) model.Spot {
	return model.Spot{
		GarageID: testGarage,
		Floor:    floor,
		Bay:      bay,
		Number:   number,
		Type:     st,
		Status:   model.SpotAvailable,
	}
}

func TestSelectSpotOrdering(t *testing.T) {
	available := []model.Spot{
		spot(2, "A", 1, model.SpotStandard),
		spot(1, "B", 1, model.SpotStandard),
		spot(1, "A", 3, model.SpotStandard),
		spot(1, "A", 1, model.SpotStandard),
	}
	got := SelectSpot(available, model.VehicleStandard, Preferences{})
	if got == nil {
		t.Fatal("expected a spot, got nil")
	}
	if got.ID() != "F1-A-001" {
		t.Errorf("expected F1-A-001, got %s", got.ID())
	}
}

func TestSelectSpotTotalOrderAcrossTypes(t *testing.T) {
	// Position, not spot type, decides the winner: a compact car takes
	// the standard spot at F1-A-001 over its dedicated compact spot at
	// F3-C-009 because the lower position sorts first.
	available := []model.Spot{
		spot(3, "C", 9, model.SpotCompact),
		spot(1, "A", 1, model.SpotStandard),
	}
	got := SelectSpot(available, model.VehicleCompact, Preferences{})
	if got == nil {
		t.Fatal("expected a spot, got nil")
	}
	if got.ID() != "F1-A-001" {
		t.Errorf("expected F1-A-001, got %s %s", got.Type, got.ID())
	}
}

func TestSelectSpotSkipsIncompatibleLowerSpot(t *testing.T) {
	// An incompatible spot never wins on position alone.
	available := []model.Spot{
		spot(1, "A", 1, model.SpotCompact),
		spot(2, "B", 5, model.SpotStandard),
	}
	got := SelectSpot(available, model.VehicleStandard, Preferences{})
	if got == nil {
		t.Fatal("expected a spot, got nil")
	}
	if got.ID() != "F2-B-005" {
		t.Errorf("expected F2-B-005, got %s %s", got.Type, got.ID())
	}
}

func TestSelectSpotFallbackChain(t *testing.T) {
	cases := []struct {
		name      string
		vt        model.VehicleType
		available []model.Spot
		wantType  model.SpotType
		wantNil   bool
	}{
		{"motorcycle falls back to compact", model.VehicleMotorcycle,
			[]model.Spot{spot(1, "A", 1, model.SpotCompact)}, model.SpotCompact, false},
		{"motorcycle falls back to standard", model.VehicleMotorcycle,
			[]model.Spot{spot(1, "A", 1, model.SpotStandard)}, model.SpotStandard, false},
		{"electric falls back to standard", model.VehicleElectric,
			[]model.Spot{spot(1, "A", 1, model.SpotStandard)}, model.SpotStandard, false},
		{"oversized never falls back", model.VehicleOversized,
			[]model.Spot{spot(1, "A", 1, model.SpotStandard)}, "", true},
		{"standard cannot take compact", model.VehicleStandard,
			[]model.Spot{spot(1, "A", 1, model.SpotCompact)}, "", true},
		{"nothing falls back into electric", model.VehicleCompact,
			[]model.Spot{spot(1, "A", 1, model.SpotElectric)}, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SelectSpot(tc.available, tc.vt, Preferences{})
			if tc.wantNil {
				if got != nil {
					t.Errorf("expected nil, got %s %s", got.Type, got.ID())
				}
				return
			}
			if got == nil {
				t.Fatal("expected a spot, got nil")
			}
			if got.Type != tc.wantType {
				t.Errorf("expected type %s, got %s", tc.wantType, got.Type)
			}
		})
	}
}

func TestSelectSpotPreferredFloor(t *testing.T) {
	available := []model.Spot{
		spot(1, "A", 1, model.SpotStandard),
		spot(3, "A", 1, model.SpotStandard),
	}
	three := 3
	got := SelectSpot(available, model.VehicleStandard, Preferences{PreferredFloor: &three})
	if got == nil || got.Floor != 3 {
		t.Fatalf("expected spot on floor 3, got %+v", got)
	}

	// A preference for a floor with no compatible spot widens back to
	// the whole garage instead of failing.
	five := 5
	got = SelectSpot(available, model.VehicleStandard, Preferences{PreferredFloor: &five})
	if got == nil || got.ID() != "F1-A-001" {
		t.Fatalf("expected fallback to F1-A-001, got %+v", got)
	}
}

func TestSelectSpotDeterministic(t *testing.T) {
	available := []model.Spot{
		spot(2, "B", 2, model.SpotStandard),
		spot(1, "A", 2, model.SpotStandard),
		spot(1, "A", 1, model.SpotStandard),
	}
	first := SelectSpot(available, model.VehicleStandard, Preferences{})
	for i := 0; i < 50; i++ {
		got := SelectSpot(available, model.VehicleStandard, Preferences{})
		if got.ID() != first.ID() {
			t.Fatalf("selection not deterministic: %s vs %s", got.ID(), first.ID())
		}
	}
}

func TestSelectSpotUnknownVehicleType(t *testing.T) {
	available := []model.Spot{spot(1, "A", 1, model.SpotStandard)}
	if got := SelectSpot(available, model.VehicleType("hovercraft"), Preferences{}); got != nil {
		t.Errorf("expected nil for unknown vehicle type, got %s", got.ID())
	}
}

func TestCompatibleSpotTypesCopy(t *testing.T) {
	a := CompatibleSpotTypes(model.VehicleMotorcycle)
	a[0] = model.SpotOversized
	b := CompatibleSpotTypes(model.VehicleMotorcycle)
	if b[0] != model.SpotMotorcycle {
		t.Error("CompatibleSpotTypes returned shared backing array")
	}
}
