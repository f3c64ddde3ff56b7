package usecases_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/ryanwparks/georeach/internal/core/domain"
	"github.com/ryanwparks/georeach/internal/core/usecases"
)

// --- Mock NetworkSolver ---

type mockSolver struct {
	solveServiceAreaFn func(ctx context.Context, facilities domain.FeatureSet, params domain.ServiceAreaParams) (*domain.ServiceAreaResult, error)
	submitFn           func(ctx context.Context, facilities, demand domain.FeatureSet, params domain.AllocationParams) (string, error)
	jobStatusFn        func(ctx context.Context, jobID string) (string, []string, error)
	fetchFn            func(ctx context.Context, jobID string) (*domain.AllocationResult, error)
	cancelFn           func(ctx context.Context, jobID string) error
	travelModesFn      func(ctx context.Context) ([]domain.TravelMode, error)
}

func (m *mockSolver) SolveServiceArea(ctx context.Context, facilities domain.FeatureSet, params domain.ServiceAreaParams) (*domain.ServiceAreaResult, error) {
	if m.solveServiceAreaFn != nil {
		return m.solveServiceAreaFn(ctx, facilities, params)
	}
	return &domain.ServiceAreaResult{}, nil
}

func (m *mockSolver) SubmitAllocationJob(ctx context.Context, facilities, demand domain.FeatureSet, params domain.AllocationParams) (string, error) {
	if m.submitFn != nil {
		return m.submitFn(ctx, facilities, demand, params)
	}
	return "j-1", nil
}

func (m *mockSolver) JobStatus(ctx context.Context, jobID string) (string, []string, error) {
	if m.jobStatusFn != nil {
		return m.jobStatusFn(ctx, jobID)
	}
	return domain.JobSucceeded, nil, nil
}

func (m *mockSolver) FetchAllocationResult(ctx context.Context, jobID string) (*domain.AllocationResult, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, jobID)
	}
	return &domain.AllocationResult{SolveSucceeded: true}, nil
}

func (m *mockSolver) CancelJob(ctx context.Context, jobID string) error {
	if m.cancelFn != nil {
		return m.cancelFn(ctx, jobID)
	}
	return nil
}

func (m *mockSolver) TravelModes(ctx context.Context) ([]domain.TravelMode, error) {
	if m.travelModesFn != nil {
		return m.travelModesFn(ctx)
	}
	return nil, nil
}

// --- Mock FacilityRepository ---

type mockFacilityRepo struct {
	getByIDsFn   func(ctx context.Context, ids []string) ([]domain.Facility, error)
	getByIDFn    func(ctx context.Context, id string) (*domain.Facility, error)
	findNearbyFn func(ctx context.Context, lat, lon, radius float64, limit int) ([]domain.Facility, error)
	createFn     func(ctx context.Context, facility *domain.Facility) error
}

func (m *mockFacilityRepo) Create(ctx context.Context, facility *domain.Facility) error {
	if m.createFn != nil {
		return m.createFn(ctx, facility)
	}
	return nil
}
func (m *mockFacilityRepo) UpsertBatch(ctx context.Context, facilities []domain.Facility) error {
	return nil
}

func (m *mockFacilityRepo) GetByID(ctx context.Context, id string) (*domain.Facility, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockFacilityRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.Facility, error) {
	if m.getByIDsFn != nil {
		return m.getByIDsFn(ctx, ids)
	}
	return nil, nil
}

func (m *mockFacilityRepo) List(ctx context.Context, category string, limit, offset int) ([]domain.Facility, error) {
	return nil, nil
}

func (m *mockFacilityRepo) Count(ctx context.Context, category string) (int, error) {
	return 0, nil
}

func (m *mockFacilityRepo) FindNearby(ctx context.Context, lat, lon, radius float64, limit int) ([]domain.Facility, error) {
	if m.findNearbyFn != nil {
		return m.findNearbyFn(ctx, lat, lon, radius, limit)
	}
	return nil, nil
}

func (m *mockFacilityRepo) Delete(ctx context.Context, id string) error { return nil }

// --- Mock AnalysisRepository ---

type mockAnalysisRepo struct {
	createFn  func(ctx context.Context, analysis *domain.Analysis) error
	getByIDFn func(ctx context.Context, id string) (*domain.Analysis, error)
}

func (m *mockAnalysisRepo) Create(ctx context.Context, analysis *domain.Analysis) error {
	if m.createFn != nil {
		return m.createFn(ctx, analysis)
	}
	analysis.ID = "a-1"
	return nil
}

func (m *mockAnalysisRepo) GetByID(ctx context.Context, id string) (*domain.Analysis, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockAnalysisRepo) List(ctx context.Context, kind string, limit, offset int) ([]domain.Analysis, error) {
	return nil, nil
}

func (m *mockAnalysisRepo) Count(ctx context.Context, kind string) (int, error) {
	return 0, nil
}

func (m *mockAnalysisRepo) SetResult(ctx context.Context, id string, result map[string]any) error {
	return nil
}

func (m *mockAnalysisRepo) Delete(ctx context.Context, id string) error { return nil }

// --- Mock CacheService ---

type mockCache struct {
	mu    sync.Mutex
	store map[string][]byte
}

func newMockCache() *mockCache {
	return &mockCache{store: map[string][]byte{}}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if data, ok := m.store[key]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("cache miss")
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, key)
	return nil
}

// --- Tests ---

func testServiceAreaResult() *domain.ServiceAreaResult {
	return &domain.ServiceAreaResult{
		Polygons: domain.FeatureSet{
			GeometryType: domain.GeometryPolygon,
			Features: []domain.Feature{
				{Attributes: map[string]any{domain.AttrFromBreak: 0.0, domain.AttrToBreak: 5.0}},
			},
		},
	}
}

func TestServiceAreaService_Solve(t *testing.T) {
	var gotFacilities domain.FeatureSet
	solver := &mockSolver{
		solveServiceAreaFn: func(ctx context.Context, facilities domain.FeatureSet, params domain.ServiceAreaParams) (*domain.ServiceAreaResult, error) {
			gotFacilities = facilities
			return testServiceAreaResult(), nil
		},
	}
	repo := &mockFacilityRepo{
		getByIDsFn: func(ctx context.Context, ids []string) ([]domain.Facility, error) {
			return []domain.Facility{
				{ID: "f-1", Name: "Depot", Location: domain.GeoPoint{Lat: 34.05, Lon: -117.18}, Required: true},
			}, nil
		},
	}
	analyses := &mockAnalysisRepo{}

	svc := usecases.NewServiceAreaService(solver, repo, analyses, nil, 10, 300, 0)

	analysis, err := svc.Solve(context.Background(), domain.ServiceAreaParams{
		FacilityIDs: []string{"f-1"},
		Points:      []domain.GeoPoint{{Lat: 34.06, Lon: -117.19}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if analysis.Kind != domain.AnalysisServiceArea {
		t.Errorf("unexpected kind %s", analysis.Kind)
	}
	if gotFacilities.Len() != 2 {
		t.Fatalf("expected 2 solver facilities, got %d", gotFacilities.Len())
	}
	if gotFacilities.Features[0].AttrInt(domain.AttrFacilityType) != domain.FacilityRequired {
		t.Error("stored required facility should carry the required type")
	}
	if gotFacilities.Features[1].AttrString(domain.AttrName) != "Location 1" {
		t.Errorf("unexpected literal point name %q", gotFacilities.Features[1].AttrString(domain.AttrName))
	}
}

func TestServiceAreaService_Solve_UnknownFacility(t *testing.T) {
	repo := &mockFacilityRepo{
		getByIDsFn: func(ctx context.Context, ids []string) ([]domain.Facility, error) {
			return nil, nil // nothing found
		},
	}
	svc := usecases.NewServiceAreaService(&mockSolver{}, repo, &mockAnalysisRepo{}, nil, 10, 300, 0)

	_, err := svc.Solve(context.Background(), domain.ServiceAreaParams{FacilityIDs: []string{"missing"}})
	if err == nil {
		t.Error("expected error for unknown facility id")
	}
}

func TestServiceAreaService_Solve_InvalidBreaks(t *testing.T) {
	called := false
	solver := &mockSolver{
		solveServiceAreaFn: func(ctx context.Context, facilities domain.FeatureSet, params domain.ServiceAreaParams) (*domain.ServiceAreaResult, error) {
			called = true
			return testServiceAreaResult(), nil
		},
	}
	svc := usecases.NewServiceAreaService(solver, &mockFacilityRepo{}, &mockAnalysisRepo{}, nil, 10, 300, 0)

	_, err := svc.Solve(context.Background(), domain.ServiceAreaParams{
		Points: []domain.GeoPoint{{Lat: 1, Lon: 1}},
		Breaks: []float64{10, 5},
	})
	if err == nil {
		t.Error("expected validation error")
	}
	if called {
		t.Error("solver must not be called for invalid params")
	}
}

func TestServiceAreaService_Solve_CachesResult(t *testing.T) {
	calls := 0
	solver := &mockSolver{
		solveServiceAreaFn: func(ctx context.Context, facilities domain.FeatureSet, params domain.ServiceAreaParams) (*domain.ServiceAreaResult, error) {
			calls++
			return testServiceAreaResult(), nil
		},
	}
	svc := usecases.NewServiceAreaService(solver, &mockFacilityRepo{}, &mockAnalysisRepo{}, newMockCache(), 10, 300, 600)

	params := domain.ServiceAreaParams{Points: []domain.GeoPoint{{Lat: 1, Lon: 1}}}
	if _, err := svc.Solve(context.Background(), params); err != nil {
		t.Fatalf("first solve failed: %v", err)
	}
	params = domain.ServiceAreaParams{Points: []domain.GeoPoint{{Lat: 1, Lon: 1}}}
	if _, err := svc.Solve(context.Background(), params); err != nil {
		t.Fatalf("second solve failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 remote solve, got %d", calls)
	}
}

func TestServiceAreaService_TravelModes_Cached(t *testing.T) {
	calls := 0
	solver := &mockSolver{
		travelModesFn: func(ctx context.Context) ([]domain.TravelMode, error) {
			calls++
			return []domain.TravelMode{{ID: "tm-1", Name: "Trucking Time"}}, nil
		},
	}
	svc := usecases.NewServiceAreaService(solver, &mockFacilityRepo{}, &mockAnalysisRepo{}, newMockCache(), 10, 300, 0)

	for i := 0; i < 3; i++ {
		modes, err := svc.TravelModes(context.Background())
		if err != nil {
			t.Fatalf("travel modes failed: %v", err)
		}
		if len(modes) != 1 || modes[0].Name != "Trucking Time" {
			t.Fatalf("unexpected modes %+v", modes)
		}
	}
	if calls != 1 {
		t.Errorf("expected 1 remote listing, got %d", calls)
	}
}
