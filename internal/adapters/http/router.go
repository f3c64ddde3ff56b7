package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"
	"github.com/ryanwparks/georeach/internal/core/domain"
	"github.com/ryanwparks/georeach/internal/pkg/metrics"
)

// Remote solves can take a while; everything else answers fast.
const (
	apiTimeout   = 15 * time.Second
	solveTimeout = 120 * time.Second
)

const apiVersion = "1.0.0"

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 60 requests per minute per IP. Solves burn remote
	// service credits, so the ceiling is lower than a read-only API's.
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
		SkipFailedRequests: false,
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", apiVersion)
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// The pre-release /v1/coverage endpoint was renamed; keep signaling
	// its sunset until clients move over.
	app.Use(DeprecationMiddleware([]DeprecatedRoute{
		{
			Path:        "/v1/coverage",
			SunsetDate:  time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
			Alternative: "/v1/service-areas",
		},
	}))

	// Health and readiness skip the timeout wrapper, the checks are local
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")

	// Solve operations talk to the remote platform and get a longer budget
	v1.Post("/service-areas", timeout.NewWithContext(SolveServiceAreaHandler(deps), solveTimeout))
	v1.Get("/service-areas/:id", timeout.NewWithContext(GetAnalysisOfKindHandler(deps, domain.AnalysisServiceArea), apiTimeout))
	v1.Post("/allocations", timeout.NewWithContext(SolveAllocationHandler(deps), solveTimeout))
	v1.Get("/allocations/:id", timeout.NewWithContext(GetAnalysisOfKindHandler(deps, domain.AnalysisAllocation), apiTimeout))
	v1.Post("/coverage", timeout.NewWithContext(SolveServiceAreaHandler(deps), solveTimeout))
	v1.Get("/travel-modes", timeout.NewWithContext(ListTravelModesHandler(deps), apiTimeout))

	// Facilities
	v1.Post("/facilities", timeout.NewWithContext(CreateFacilityHandler(deps), apiTimeout))
	v1.Get("/facilities", timeout.NewWithContext(ListFacilitiesHandler(deps), apiTimeout))
	v1.Get("/facilities/nearby", timeout.NewWithContext(NearbyFacilitiesHandler(deps), apiTimeout))
	v1.Get("/facilities/:id", timeout.NewWithContext(GetFacilityHandler(deps), apiTimeout))
	v1.Delete("/facilities/:id", timeout.NewWithContext(DeleteFacilityHandler(deps), apiTimeout))

	// Demand points
	v1.Post("/demand-points", timeout.NewWithContext(CreateDemandPointHandler(deps), apiTimeout))
	v1.Get("/demand-points", timeout.NewWithContext(ListDemandPointsHandler(deps), apiTimeout))
	v1.Delete("/demand-points/:id", timeout.NewWithContext(DeleteDemandPointHandler(deps), apiTimeout))

	// Jobs
	v1.Get("/jobs", timeout.NewWithContext(ListJobsHandler(deps), apiTimeout))
	v1.Get("/jobs/:id", timeout.NewWithContext(GetJobHandler(deps), apiTimeout))
	v1.Post("/jobs/:id/cancel", timeout.NewWithContext(CancelJobHandler(deps), apiTimeout))

	// Analyses
	v1.Get("/analyses", timeout.NewWithContext(ListAnalysesHandler(deps), apiTimeout))
	v1.Get("/analyses/:id", timeout.NewWithContext(GetAnalysisHandler(deps), apiTimeout))
	v1.Get("/analyses/:id/geojson", timeout.NewWithContext(AnalysisGeoJSONHandler(deps), apiTimeout))
	v1.Delete("/analyses/:id", timeout.NewWithContext(DeleteAnalysisHandler(deps), apiTimeout))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket job status relay
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
