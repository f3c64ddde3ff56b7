package domain

import (
	"fmt"
	"sort"
)

// Travel directions accepted by the network analysis services.
const (
	TravelFromFacility = "esriNATravelDirectionFromFacility"
	TravelToFacility   = "esriNATravelDirectionToFacility"
)

// Location-allocation problem types, named exactly as the remote
// contract names them.
const (
	ProblemMaximizeCoverage    = "Maximize Coverage"
	ProblemTargetMarketShare   = "Target Market Share"
	ProblemMinimizeImpedance   = "Minimize Impedance"
	ProblemCapacitatedCoverage = "Maximize Capacitated Coverage"
)

// Facility types carried on output facilities of an allocation solve.
const (
	FacilityCandidate  = 0
	FacilityRequired   = 1
	FacilityCompetitor = 2
	FacilityChosen     = 3
)

// Well-known attribute names on solver output features.
const (
	AttrFromBreak    = "FromBreak"
	AttrToBreak      = "ToBreak"
	AttrName         = "Name"
	AttrFacilityType = "FacilityType"
	AttrDemandCount  = "DemandCount"
	AttrDemandWeight = "DemandWeight"
	AttrDemandOID    = "DemandOID"
	AttrFacilityOID  = "FacilityOID"
	AttrWeight       = "Weight"
)

// ServiceAreaParams describes one service-area solve. Facilities may be
// referenced by stored ID or given as literal points; at least one source
// is required.
type ServiceAreaParams struct {
	Name            string     `json:"name,omitempty"`
	FacilityIDs     []string   `json:"facility_ids,omitempty"`
	Points          []GeoPoint `json:"points,omitempty"`
	Breaks          []float64  `json:"breaks"` // minutes, ascending
	TravelMode      string     `json:"travel_mode"`
	TravelDirection string     `json:"travel_direction,omitempty"`
	DetailPolygons  bool       `json:"detail_polygons,omitempty"`
	OverlapPolygons bool       `json:"overlap_polygons,omitempty"`
}

// Validate checks the parameters against local invariants before anything
// is sent to the remote service.
func (p *ServiceAreaParams) Validate(maxBreaks int, maxBreakMinutes float64) error {
	if len(p.FacilityIDs) == 0 && len(p.Points) == 0 {
		return fmt.Errorf("at least one facility or point is required")
	}
	if len(p.Breaks) == 0 {
		p.Breaks = []float64{5, 10, 15}
	}
	if len(p.Breaks) > maxBreaks {
		return fmt.Errorf("too many break values: %d (max %d)", len(p.Breaks), maxBreaks)
	}
	if !sort.Float64sAreSorted(p.Breaks) {
		return fmt.Errorf("break values must be ascending")
	}
	for i, b := range p.Breaks {
		if b <= 0 {
			return fmt.Errorf("break value %d must be positive, got %g", i, b)
		}
		if b > maxBreakMinutes {
			return fmt.Errorf("break value %g exceeds maximum of %g minutes", b, maxBreakMinutes)
		}
		if i > 0 && p.Breaks[i] == p.Breaks[i-1] {
			return fmt.Errorf("duplicate break value %g", b)
		}
	}
	switch p.TravelDirection {
	case "":
		p.TravelDirection = TravelFromFacility
	case TravelFromFacility, TravelToFacility:
	default:
		return fmt.Errorf("unknown travel direction %q", p.TravelDirection)
	}
	return nil
}

// ServiceAreaResult is the reshaped response of a service-area solve.
type ServiceAreaResult struct {
	Polygons   FeatureSet `json:"polygons"`
	Facilities FeatureSet `json:"facilities"`
	Messages   []string   `json:"messages,omitempty"`
}

// Rings summarizes the polygons by break interval, ordered as returned.
func (r *ServiceAreaResult) Rings() []BreakRing {
	rings := make([]BreakRing, 0, len(r.Polygons.Features))
	for _, f := range r.Polygons.Features {
		rings = append(rings, BreakRing{
			FromBreak: f.AttrFloat(AttrFromBreak),
			ToBreak:   f.AttrFloat(AttrToBreak),
			Name:      f.AttrString(AttrName),
		})
	}
	return rings
}

// BreakRing is one service-area ring boundary pair.
type BreakRing struct {
	FromBreak float64 `json:"from_break"`
	ToBreak   float64 `json:"to_break"`
	Name      string  `json:"name,omitempty"`
}

// AllocationParams describes one location-allocation solve.
type AllocationParams struct {
	Name              string     `json:"name,omitempty"`
	ProblemType       string     `json:"problem_type"`
	FacilityIDs       []string   `json:"facility_ids,omitempty"`
	FacilityPoints    []GeoPoint `json:"facility_points,omitempty"`
	DemandPointIDs    []string   `json:"demand_point_ids,omitempty"`
	DemandPoints      []GeoPoint `json:"demand_points,omitempty"`
	FacilitiesToFind  int        `json:"facilities_to_find"`
	ImpedanceCutoff   float64    `json:"impedance_cutoff,omitempty"`
	TargetMarketShare float64    `json:"target_market_share,omitempty"`
	MeasurementUnits  string     `json:"measurement_units,omitempty"`
	TravelMode        string     `json:"travel_mode"`
	TravelDirection   string     `json:"travel_direction,omitempty"`
}

// Validate checks allocation parameters against local invariants.
func (p *AllocationParams) Validate() error {
	switch p.ProblemType {
	case ProblemMaximizeCoverage, ProblemMinimizeImpedance, ProblemCapacitatedCoverage:
		if p.TargetMarketShare != 0 {
			return fmt.Errorf("target_market_share is only valid for %q", ProblemTargetMarketShare)
		}
	case ProblemTargetMarketShare:
		if p.TargetMarketShare <= 0 || p.TargetMarketShare > 100 {
			return fmt.Errorf("target_market_share must be in (0, 100], got %g", p.TargetMarketShare)
		}
	case "":
		return fmt.Errorf("problem_type is required")
	default:
		return fmt.Errorf("unknown problem type %q", p.ProblemType)
	}

	nFacilities := len(p.FacilityIDs) + len(p.FacilityPoints)
	if nFacilities == 0 {
		return fmt.Errorf("at least one candidate facility is required")
	}
	if len(p.DemandPointIDs)+len(p.DemandPoints) == 0 {
		return fmt.Errorf("at least one demand point is required")
	}
	if p.FacilitiesToFind < 1 {
		p.FacilitiesToFind = 1
	}
	if p.FacilitiesToFind > nFacilities {
		return fmt.Errorf("facilities_to_find %d exceeds candidate count %d", p.FacilitiesToFind, nFacilities)
	}
	if p.ImpedanceCutoff < 0 {
		return fmt.Errorf("impedance_cutoff must not be negative")
	}
	if p.MeasurementUnits == "" {
		p.MeasurementUnits = "Minutes"
	}
	switch p.TravelDirection {
	case "":
		p.TravelDirection = TravelFromFacility
	case TravelFromFacility, TravelToFacility:
	default:
		return fmt.Errorf("unknown travel direction %q", p.TravelDirection)
	}
	return nil
}

// AllocationResult is the reshaped response of a location-allocation solve.
type AllocationResult struct {
	SolveSucceeded  bool       `json:"solve_succeeded"`
	Facilities      FeatureSet `json:"facilities"`
	DemandPoints    FeatureSet `json:"demand_points"`
	AllocationLines FeatureSet `json:"allocation_lines"`
	Messages        []string   `json:"messages,omitempty"`
}

// ChosenFacilities returns the facilities the solver selected.
func (r *AllocationResult) ChosenFacilities() []Feature {
	var chosen []Feature
	for _, f := range r.Facilities.Features {
		if f.AttrInt(AttrFacilityType) == FacilityChosen {
			chosen = append(chosen, f)
		}
	}
	return chosen
}

// TotalAllocatedWeight sums DemandWeight across chosen facilities.
func (r *AllocationResult) TotalAllocatedWeight() float64 {
	var total float64
	for _, f := range r.ChosenFacilities() {
		total += f.AttrFloat(AttrDemandWeight)
	}
	return total
}
