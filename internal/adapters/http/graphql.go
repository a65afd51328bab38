package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/pointlab/poinavi/internal/core/domain"
	"github.com/pointlab/poinavi/internal/core/usecases"
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

	placeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Place",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.String},
			"name":     &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{Type: geoPointType},
			"address":  &graphql.Field{Type: graphql.String},
			"rating":   &graphql.Field{Type: graphql.Float},
			"types":    &graphql.Field{Type: graphql.NewList(graphql.String)},
		},
	})

	availabilityType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Availability",
		Fields: graphql.Fields{
			"state": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					a, _ := p.Source.(domain.AvailabilityResult)
					return a.State.String(), nil
				},
			},
			"status_text": &graphql.Field{Type: graphql.String},
		},
	})

	resultType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RankedResult",
		Fields: graphql.Fields{
			"place":           &graphql.Field{Type: placeType},
			"distance_meters": &graphql.Field{Type: graphql.Float},
			"relevance_rank":  &graphql.Field{Type: graphql.Int},
			"availability":    &graphql.Field{Type: availabilityType},
			"walk_minutes": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					r, _ := p.Source.(domain.RankedResult)
					return r.TravelMinutes["walk"], nil
				},
			},
			"car_minutes": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					r, _ := p.Source.(domain.RankedResult)
					return r.TravelMinutes["car"], nil
				},
			},
		},
	})

	tagType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Tag",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"name":       &graphql.Field{Type: graphql.String},
			"place_type": &graphql.Field{Type: graphql.String},
			"is_custom":  &graphql.Field{Type: graphql.Boolean},
		},
	})

	searchArgs := graphql.FieldConfigArgument{
		"lat":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		"lon":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		"radius":    &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
		"limit":     &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
		"open_only": &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
	}

	paramsFromArgs := func(p graphql.ResolveParams) usecases.SearchParams {
		return usecases.SearchParams{
			Origin: domain.GeoPoint{
				Lat: p.Args["lat"].(float64),
				Lon: p.Args["lon"].(float64),
			},
			RadiusMeters: p.Args["radius"].(float64),
			Limit:        p.Args["limit"].(int),
			OpenOnly:     p.Args["open_only"].(bool),
		}
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"searchPlaces": &graphql.Field{
				Type:        graphql.NewList(resultType),
				Description: "Search places by free text around a location",
				Args: mergeArgs(searchArgs, graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				}),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					params := paramsFromArgs(p)
					params.Query = p.Args["query"].(string)
					resp, err := deps.Places.SearchByText(p.Context, params)
					if err != nil {
						return nil, err
					}
					return resp.Results, nil
				},
			},
			"nearbyPlaces": &graphql.Field{
				Type:        graphql.NewList(resultType),
				Description: "Search places by tag around a location",
				Args: mergeArgs(searchArgs, graphql.FieldConfigArgument{
					"tag": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				}),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					tag, err := deps.Tags.Find(p.Context, p.Args["tag"].(string))
					if err != nil {
						return nil, err
					}
					resp, err := deps.Places.SearchByCategory(p.Context, *tag, paramsFromArgs(p))
					if err != nil {
						return nil, err
					}
					return resp.Results, nil
				},
			},
			"tags": &graphql.Field{
				Type:        graphql.NewList(tagType),
				Description: "List the active search tags",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Tags.List(p.Context)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

func mergeArgs(base, extra graphql.FieldConfigArgument) graphql.FieldConfigArgument {
	merged := graphql.FieldConfigArgument{}
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
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
