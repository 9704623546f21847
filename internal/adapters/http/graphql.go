package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	companyType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Company",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.String},
			"slug":     &graphql.Field{Type: graphql.String},
			"name":     &graphql.Field{Type: graphql.String},
			"timezone": &graphql.Field{Type: graphql.String},
		},
	})

	vehicleType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Vehicle",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"company_id": &graphql.Field{Type: graphql.String},
			"plate":      &graphql.Field{Type: graphql.String},
			"label":      &graphql.Field{Type: graphql.String},
			"driver_id":  &graphql.Field{Type: graphql.String},
			"active":     &graphql.Field{Type: graphql.Boolean},
		},
	})

	positionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Position",
		Fields: graphql.Fields{
			"trip_id":     &graphql.Field{Type: graphql.String},
			"vehicle_id":  &graphql.Field{Type: graphql.String},
			"location":    &graphql.Field{Type: geoPointType},
			"speed_kmh":   &graphql.Field{Type: graphql.Float},
			"captured_at": &graphql.Field{Type: graphql.String},
		},
	})

	tripType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Trip",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"vehicle_id": &graphql.Field{Type: graphql.String},
			"driver_id":  &graphql.Field{Type: graphql.String},
			"status":     &graphql.Field{Type: graphql.String},
			"started_at": &graphql.Field{Type: graphql.String},
		},
	})

	stopIntervalType := graphql.NewObject(graphql.ObjectConfig{
		Name: "StopInterval",
		Fields: graphql.Fields{
			"location":   &graphql.Field{Type: geoPointType},
			"started_at": &graphql.Field{Type: graphql.String},
			"duration":   &graphql.Field{Type: graphql.String},
		},
	})

	summaryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TripSummary",
		Fields: graphql.Fields{
			"trip_id":       &graphql.Field{Type: graphql.String},
			"max_speed_kmh": &graphql.Field{Type: graphql.Float},
			"avg_speed_kmh": &graphql.Field{Type: graphql.Float},
			"sample_count":  &graphql.Field{Type: graphql.Int},
			"stops":         &graphql.Field{Type: graphql.NewList(stopIntervalType)},
		},
	})

	safetyReportType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SafetyReport",
		Fields: graphql.Fields{
			"index":           &graphql.Field{Type: graphql.Int},
			"event_count":     &graphql.Field{Type: graphql.Int},
			"critical_24h":    &graphql.Field{Type: graphql.Int},
			"active_vehicles": &graphql.Field{Type: graphql.Int},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"companies": &graphql.Field{
				Type:        graphql.NewList(companyType),
				Description: "List all fleet operator companies",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Companies.List(p.Context)
				},
			},
			"fleet": &graphql.Field{
				Type:        graphql.NewList(vehicleType),
				Description: "A company's vehicle roster",
				Args: graphql.FieldConfigArgument{
					"company_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					companyID := p.Args["company_id"].(string)
					return deps.Vehicles.ListByCompany(p.Context, companyID)
				},
			},
			"livePositions": &graphql.Field{
				Type:        graphql.NewList(positionType),
				Description: "Latest position per vehicle for a company",
				Args: graphql.FieldConfigArgument{
					"company_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					companyID := p.Args["company_id"].(string)
					return deps.Vehicles.LatestPositions(p.Context, companyID)
				},
			},
			"trip": &graphql.Field{
				Type:        tripType,
				Description: "Get a trip by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.Trips.GetByID(p.Context, id)
				},
			},
			"tripSummary": &graphql.Field{
				Type:        summaryType,
				Description: "Derived analytics for a trip",
				Args: graphql.FieldConfigArgument{
					"trip_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					tripID := p.Args["trip_id"].(string)
					summary, err := deps.Trips.Summary(p.Context, tripID)
					if err != nil {
						return nil, err
					}
					// Durations rendered as strings for GraphQL
					stops := make([]map[string]interface{}, 0, len(summary.Stops))
					for _, s := range summary.Stops {
						stops = append(stops, map[string]interface{}{
							"location":   s.Location,
							"started_at": s.StartedAt.Format(time.RFC3339),
							"duration":   s.Duration.String(),
						})
					}
					return map[string]interface{}{
						"trip_id":       summary.TripID,
						"max_speed_kmh": summary.MaxSpeedKmh,
						"avg_speed_kmh": summary.AvgSpeedKmh,
						"sample_count":  summary.SampleCount,
						"stops":         stops,
					}, nil
				},
			},
			"safetyReport": &graphql.Field{
				Type:        safetyReportType,
				Description: "Fleet safety index for the trailing window",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Safety.Report(p.Context, 0)
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
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
