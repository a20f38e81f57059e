package garage

import (
	"context"
	"testing"

	"github.com/parkwise/parkwise/internal/model"
)

func TestAvailabilitySnapshot(t *testing.T) {
	svc, stores := newTestService(t)
	seedSpot(t, stores, 1, "A", 1, model.SpotStandard)
	seedSpot(t, stores, 1, "A", 2, model.SpotStandard)
	seedSpot(t, stores, 1, "B", 1, model.SpotCompact)
	seedSpot(t, stores, 2, "A", 1, model.SpotOversized)

	if err := stores.Spots.SetStatus(context.Background(), testGarage, "F2-A-001", model.SpotOutOfService); err != nil {
		t.Fatalf("setting spot out of service: %v", err)
	}
	if _, err := svc.CheckIn(context.Background(), CheckInRequest{
		GarageID: testGarage, Plate: "ABC-123", VehicleType: model.VehicleStandard,
	}); err != nil {
		t.Fatalf("check-in failed: %v", err)
	}

	snap, err := svc.Availability(context.Background(), testGarage, nil)
	if err != nil {
		t.Fatalf("availability failed: %v", err)
	}
	if snap.Total != 4 || snap.Available != 2 || snap.Occupied != 1 || snap.OutOfService != 1 {
		t.Errorf("unexpected counts: total=%d available=%d occupied=%d oos=%d",
			snap.Total, snap.Available, snap.Occupied, snap.OutOfService)
	}
	std := snap.BySpotType[model.SpotStandard]
	if std.Total != 2 || std.Available != 1 {
		t.Errorf("unexpected standard counts: %+v", std)
	}
}

func TestAvailabilityFilteredByVehicleType(t *testing.T) {
	svc, stores := newTestService(t)
	seedSpot(t, stores, 1, "A", 1, model.SpotStandard)
	seedSpot(t, stores, 1, "B", 1, model.SpotCompact)
	seedSpot(t, stores, 2, "A", 1, model.SpotOversized)

	vt := model.VehicleOversized
	snap, err := svc.Availability(context.Background(), testGarage, &vt)
	if err != nil {
		t.Fatalf("availability failed: %v", err)
	}
	// Oversized vehicles only fit oversized spots.
	if snap.Total != 1 || snap.Available != 1 {
		t.Errorf("expected 1/1 for oversized, got %d/%d", snap.Available, snap.Total)
	}

	vt = model.VehicleCompact
	snap, err = svc.Availability(context.Background(), testGarage, &vt)
	if err != nil {
		t.Fatalf("availability failed: %v", err)
	}
	if snap.Total != 2 {
		t.Errorf("expected compact+standard = 2 spots, got %d", snap.Total)
	}

	bad := model.VehicleType("hovercraft")
	if _, err := svc.Availability(context.Background(), testGarage, &bad); KindOf(err) != KindValidationFailed {
		t.Errorf("expected validation error for unknown vehicle type, got %v", err)
	}
}

func TestSessionsListing(t *testing.T) {
	svc, stores := newTestService(t)
	seedSpot(t, stores, 1, "A", 1, model.SpotStandard)
	seedSpot(t, stores, 1, "A", 2, model.SpotStandard)

	for _, plate := range []string{"AAA-111", "BBB-222"} {
		if _, err := svc.CheckIn(context.Background(), CheckInRequest{
			GarageID: testGarage, Plate: plate, VehicleType: model.VehicleStandard,
		}); err != nil {
			t.Fatalf("check-in %s failed: %v", plate, err)
		}
	}
	if _, err := svc.CheckOut(context.Background(), CheckOutRequest{GarageID: testGarage, Plate: "AAA-111"}); err != nil {
		t.Fatalf("check-out failed: %v", err)
	}

	all, err := svc.Sessions(context.Background(), testGarage, false)
	if err != nil {
		t.Fatalf("listing sessions: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(all))
	}

	active, err := svc.Sessions(context.Background(), testGarage, true)
	if err != nil {
		t.Fatalf("listing active sessions: %v", err)
	}
	if len(active) != 1 || active[0].Plate != "BBB-222" {
		t.Fatalf("expected only BBB-222 active, got %+v", active)
	}
}
