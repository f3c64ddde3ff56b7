package usecases_test

import (
	"context"
	"testing"

	"github.com/ryanwparks/georeach/internal/core/domain"
	"github.com/ryanwparks/georeach/internal/core/usecases"
)

func TestFacilityService_Create_Validation(t *testing.T) {
	svc := usecases.NewFacilityService(&mockFacilityRepo{}, nil)

	err := svc.Create(context.Background(), &domain.Facility{Name: ""})
	if err == nil {
		t.Error("expected error for missing name")
	}

	err = svc.Create(context.Background(), &domain.Facility{
		Name:     "Store",
		Location: domain.GeoPoint{Lat: 95, Lon: 0},
	})
	if err == nil {
		t.Error("expected error for out-of-range latitude")
	}

	err = svc.Create(context.Background(), &domain.Facility{
		Name:     "Store",
		Location: domain.GeoPoint{Lat: 34.05, Lon: -117.18},
	})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFacilityService_FindNearby_ClampsInputs(t *testing.T) {
	var gotRadius float64
	var gotLimit int
	repo := &mockFacilityRepo{
		findNearbyFn: func(ctx context.Context, lat, lon, radius float64, limit int) ([]domain.Facility, error) {
			gotRadius = radius
			gotLimit = limit
			return []domain.Facility{{ID: "f-1", Name: "Store"}}, nil
		},
	}
	svc := usecases.NewFacilityService(repo, nil)

	facilities, err := svc.FindNearby(context.Background(), 34.05, -117.18, -1, 9999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(facilities) != 1 {
		t.Fatalf("expected 1 facility, got %d", len(facilities))
	}
	if gotRadius != 5000 {
		t.Errorf("expected default radius 5000, got %g", gotRadius)
	}
	if gotLimit != 20 {
		t.Errorf("expected default limit 20, got %d", gotLimit)
	}
}

func TestFacilityService_FindNearby_UsesCache(t *testing.T) {
	calls := 0
	repo := &mockFacilityRepo{
		findNearbyFn: func(ctx context.Context, lat, lon, radius float64, limit int) ([]domain.Facility, error) {
			calls++
			return []domain.Facility{{ID: "f-1", Name: "Store"}}, nil
		},
	}
	svc := usecases.NewFacilityService(repo, newMockCache())

	for i := 0; i < 2; i++ {
		if _, err := svc.FindNearby(context.Background(), 34.05, -117.18, 500, 10); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("expected 1 repository call, got %d", calls)
	}
}

func TestDemandService_Create_DefaultsWeight(t *testing.T) {
	svc := usecases.NewDemandService(&mockDemandRepo{})

	point := &domain.DemandPoint{Location: domain.GeoPoint{Lat: 1, Lon: 1}}
	if err := svc.Create(context.Background(), point); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if point.Weight != 1 {
		t.Errorf("expected weight defaulted to 1, got %g", point.Weight)
	}

	if err := svc.Create(context.Background(), &domain.DemandPoint{
		Location: domain.GeoPoint{Lat: 1, Lon: 1},
		Weight:   -2,
	}); err == nil {
		t.Error("expected error for negative weight")
	}
}
