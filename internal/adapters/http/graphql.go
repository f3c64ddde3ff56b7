package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/ryanwparks/georeach/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	facilityType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Facility",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.String},
			"name":     &graphql.Field{Type: graphql.String},
			"category": &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{Type: geoPointType},
			"capacity": &graphql.Field{Type: graphql.Float},
			"distance": &graphql.Field{Type: graphql.Float},
		},
	})

	demandPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "DemandPoint",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"name":       &graphql.Field{Type: graphql.String},
			"group_name": &graphql.Field{Type: graphql.String},
			"location":   &graphql.Field{Type: geoPointType},
			"weight":     &graphql.Field{Type: graphql.Float},
		},
	})

	analysisType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Analysis",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"kind":       &graphql.Field{Type: graphql.String},
			"created_at": &graphql.Field{Type: graphql.String},
		},
	})

	jobType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SolveJob",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"kind":          &graphql.Field{Type: graphql.String},
			"status":        &graphql.Field{Type: graphql.String},
			"remote_job_id": &graphql.Field{Type: graphql.String},
			"analysis_id":   &graphql.Field{Type: graphql.String},
			"error":         &graphql.Field{Type: graphql.String},
		},
	})

	travelModeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TravelMode",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"type":        &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"facilities": &graphql.Field{
				Type:        graphql.NewList(facilityType),
				Description: "List facilities, optionally filtered by category",
				Args: graphql.FieldConfigArgument{
					"category": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"limit":    &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
					"offset":   &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					category := p.Args["category"].(string)
					limit := p.Args["limit"].(int)
					offset := p.Args["offset"].(int)
					return deps.Facilities.List(p.Context, category, limit, offset)
				},
			},
			"facilitiesNearby": &graphql.Field{
				Type:        graphql.NewList(facilityType),
				Description: "Find facilities near a location",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 1000.0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat := p.Args["lat"].(float64)
					lon := p.Args["lon"].(float64)
					radius := p.Args["radius"].(float64)
					limit := p.Args["limit"].(int)
					return deps.Facilities.FindNearby(p.Context, lat, lon, radius, limit)
				},
			},
			"facility": &graphql.Field{
				Type:        facilityType,
				Description: "Get a facility by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.Facilities.Get(p.Context, id)
				},
			},
			"demandPoints": &graphql.Field{
				Type:        graphql.NewList(demandPointType),
				Description: "List demand points, optionally filtered by group",
				Args: graphql.FieldConfigArgument{
					"group":  &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					group := p.Args["group"].(string)
					limit := p.Args["limit"].(int)
					offset := p.Args["offset"].(int)
					return deps.Demand.ListByGroup(p.Context, group, limit, offset)
				},
			},
			"analyses": &graphql.Field{
				Type:        graphql.NewList(analysisType),
				Description: "List completed analyses by kind",
				Args: graphql.FieldConfigArgument{
					"kind":   &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					kind := p.Args["kind"].(string)
					limit := p.Args["limit"].(int)
					offset := p.Args["offset"].(int)
					return deps.Analyses.List(p.Context, kind, limit, offset)
				},
			},
			"analysis": &graphql.Field{
				Type:        analysisType,
				Description: "Get an analysis by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.Analyses.Get(p.Context, id)
				},
			},
			"job": &graphql.Field{
				Type:        jobType,
				Description: "Get a solve job by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.Jobs.Get(p.Context, id)
				},
			},
			"activeJobs": &graphql.Field{
				Type:        graphql.NewList(jobType),
				Description: "List jobs that have not reached a terminal state",
				Args: graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					limit := p.Args["limit"].(int)
					return deps.Jobs.ListActive(p.Context, limit)
				},
			},
			"travelModes": &graphql.Field{
				Type:        graphql.NewList(travelModeType),
				Description: "Travel modes supported by the routing platform",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.ServiceAreas.TravelModes(p.Context)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}

// Ensure domain types implement field resolvers for graphql-go via struct tags
var _ = domain.Facility{}
var _ = domain.SolveJob{}
var _ = domain.TravelMode{}
