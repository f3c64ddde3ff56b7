package http

import (
	"github.com/nats-io/nats.go"
	"github.com/ryanwparks/georeach/internal/adapters/postgres"
	"github.com/ryanwparks/georeach/internal/adapters/valkey"
	"github.com/ryanwparks/georeach/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	ServiceAreas *usecases.ServiceAreaService
	Allocations  *usecases.AllocationService
	Facilities   *usecases.FacilityService
	Demand       *usecases.DemandService
	Jobs         *usecases.JobService
	Analyses     *usecases.AnalysisService
	NATS         *nats.Conn
	DB           *postgres.DB
	Cache        *valkey.Cache
}
