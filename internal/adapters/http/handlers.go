package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/ryanwparks/georeach/internal/core/domain"
)

// SolveServiceAreaHandler runs a synchronous service-area solve.
// POST /v1/service-areas
func SolveServiceAreaHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var params domain.ServiceAreaParams
		if err := c.BodyParser(&params); err != nil {
			return errBadRequest(c, "invalid request body: "+err.Error())
		}

		ctx := c.UserContext()
		LoggerFromCtx(ctx).Info("service area solve requested",
			"facilities", len(params.FacilityIDs)+len(params.Points),
			"breaks", len(params.Breaks))

		analysis, err := deps.ServiceAreas.Solve(ctx, params)
		if err != nil {
			return solveError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(analysis)
	}
}

// SolveAllocationHandler runs a location-allocation solve. Small problems
// answer with the finished analysis; larger ones queue a job and answer
// 202 with the job to poll.
// POST /v1/allocations
func SolveAllocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var params domain.AllocationParams
		if err := c.BodyParser(&params); err != nil {
			return errBadRequest(c, "invalid request body: "+err.Error())
		}

		ctx := c.UserContext()
		log := LoggerFromCtx(ctx)
		log.Info("allocation solve requested", "problem_type", params.ProblemType)

		outcome, err := deps.Allocations.Solve(ctx, params)
		if err != nil {
			return solveError(c, err)
		}
		if outcome.Job != nil {
			log.Info("allocation solve queued", "job_id", outcome.Job.ID)
			c.Set("Location", "/v1/jobs/"+outcome.Job.ID)
			return c.Status(fiber.StatusAccepted).JSON(outcome)
		}
		return c.Status(fiber.StatusCreated).JSON(outcome)
	}
}

// ListTravelModesHandler lists the travel modes the routing service offers.
// GET /v1/travel-modes
func ListTravelModesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		modes, err := deps.ServiceAreas.TravelModes(c.UserContext())
		if err != nil {
			return errUpstream(c, err.Error())
		}
		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(fiber.Map{"travel_modes": modes})
	}
}

// CreateFacilityHandler stores a candidate facility.
// POST /v1/facilities
func CreateFacilityHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var facility domain.Facility
		if err := c.BodyParser(&facility); err != nil {
			return errBadRequest(c, "invalid request body: "+err.Error())
		}
		if err := deps.Facilities.Create(c.UserContext(), &facility); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(facility)
	}
}

// ListFacilitiesHandler lists facilities with offset pagination.
// GET /v1/facilities?category=&limit=&offset=
func ListFacilitiesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 50)

		category := c.Query("category")
		facilities, err := deps.Facilities.List(c.UserContext(), category, limit, offset)
		if err != nil {
			return errInternal(c, err.Error())
		}
		total, err := deps.Facilities.Count(c.UserContext(), category)
		if err != nil {
			return errInternal(c, err.Error())
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: facilities, Pagination: pg})
	}
}

// NearbyFacilitiesHandler returns facilities within a radius of a point.
// GET /v1/facilities/nearby?lat=&lon=&radius=&limit=
func NearbyFacilitiesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat := c.QueryFloat("lat", 0)
		lon := c.QueryFloat("lon", 0)
		if lat == 0 && lon == 0 {
			return errBadRequest(c, "lat and lon are required")
		}

		facilities, err := deps.Facilities.FindNearby(c.UserContext(),
			lat, lon, c.QueryFloat("radius", 5000), c.QueryInt("limit", 20))
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.JSON(fiber.Map{"facilities": facilities})
	}
}

// GetFacilityHandler returns a single facility by ID.
// GET /v1/facilities/:id
func GetFacilityHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		facility, err := deps.Facilities.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return errNotFound(c, "facility not found")
		}
		return c.JSON(facility)
	}
}

// DeleteFacilityHandler removes a facility.
// DELETE /v1/facilities/:id
func DeleteFacilityHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Facilities.Delete(c.UserContext(), c.Params("id")); err != nil {
			return errNotFound(c, "facility not found")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// CreateDemandPointHandler stores a demand point.
// POST /v1/demand-points
func CreateDemandPointHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var point domain.DemandPoint
		if err := c.BodyParser(&point); err != nil {
			return errBadRequest(c, "invalid request body: "+err.Error())
		}
		if err := deps.Demand.Create(c.UserContext(), &point); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(point)
	}
}

// DeleteDemandPointHandler removes a demand point.
// DELETE /v1/demand-points/:id
func DeleteDemandPointHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Demand.Delete(c.UserContext(), c.Params("id")); err != nil {
			return errNotFound(c, "demand point not found")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ListDemandPointsHandler lists demand points, optionally by group.
// GET /v1/demand-points?group=&limit=&offset=
func ListDemandPointsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		group := c.Query("group")
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 100)

		points, err := deps.Demand.ListByGroup(c.UserContext(), group, limit, offset)
		if err != nil {
			return errInternal(c, err.Error())
		}
		total, err := deps.Demand.CountByGroup(c.UserContext(), group)
		if err != nil {
			return errInternal(c, err.Error())
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: points, Pagination: pg})
	}
}

// ListJobsHandler returns jobs that are still in flight.
// GET /v1/jobs
func ListJobsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		jobs, err := deps.Jobs.ListActive(c.UserContext(), c.QueryInt("limit", 50))
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(fiber.Map{"jobs": jobs})
	}
}

// GetJobHandler returns a solve job by ID.
// GET /v1/jobs/:id
func GetJobHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		job, err := deps.Jobs.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return errNotFound(c, "job not found")
		}
		return c.JSON(job)
	}
}

// CancelJobHandler cancels a running solve job.
// POST /v1/jobs/:id/cancel
func CancelJobHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		job, err := deps.Jobs.Cancel(c.UserContext(), c.Params("id"))
		if err != nil {
			return errConflict(c, err.Error())
		}
		return c.JSON(job)
	}
}

// ListAnalysesHandler lists stored analyses.
// GET /v1/analyses?kind=&limit=&offset=
func ListAnalysesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 50)

		kind := c.Query("kind")
		analyses, err := deps.Analyses.List(c.UserContext(), kind, limit, offset)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		total, err := deps.Analyses.Count(c.UserContext(), kind)
		if err != nil {
			return errInternal(c, err.Error())
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: analyses, Pagination: pg})
	}
}

// GetAnalysisHandler returns a stored analysis with its full result.
// GET /v1/analyses/:id
func GetAnalysisHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		analysis, err := deps.Analyses.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return errNotFound(c, "analysis not found")
		}
		return c.JSON(analysis)
	}
}

// GetAnalysisOfKindHandler returns a stored analysis of one kind, for
// the per-kind read routes under /v1/service-areas and /v1/allocations.
// Analyses of another kind 404 so the routes stay disjoint.
func GetAnalysisOfKindHandler(deps *Dependencies, kind string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		analysis, err := deps.Analyses.Get(c.UserContext(), c.Params("id"))
		if err != nil || analysis.Kind != kind {
			return errNotFound(c, "analysis not found")
		}
		return c.JSON(analysis)
	}
}

// AnalysisGeoJSONHandler exports an analysis result as GeoJSON.
// GET /v1/analyses/:id/geojson
func AnalysisGeoJSONHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fc, err := deps.Analyses.GeoJSON(c.UserContext(), c.Params("id"))
		if err != nil {
			return errNotFound(c, err.Error())
		}
		return c.JSON(fc, "application/geo+json")
	}
}

// DeleteAnalysisHandler removes a stored analysis.
// DELETE /v1/analyses/:id
func DeleteAnalysisHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Analyses.Delete(c.UserContext(), c.Params("id")); err != nil {
			return errNotFound(c, "analysis not found")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
