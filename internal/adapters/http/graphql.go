package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/abgtour/planttour/internal/core/domain"
	"github.com/abgtour/planttour/internal/core/usecases"
)

// plantFields maps a plant onto the GraphQL Plant object.
func plantFields(p domain.PlantRecord, distance *float64) map[string]interface{} {
	m := map[string]interface{}{
		"id":            p.ID,
		"title":         p.DisplayName(),
		"common_name_1": p.CommonName1,
		"common_name_2": p.CommonName2,
		"common_name_3": p.CommonName3,
		"genus":         p.Genus,
		"species":       p.Species,
		"cultivar":      p.Cultivar,
		"height":        p.Height,
		"model":         usecases.ModelForHeight(p.Height),
		"location":      map[string]interface{}{"lat": p.Location.Lat, "lon": p.Location.Lon},
	}
	if distance != nil {
		m["distance"] = *distance
	}
	return m
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	plantType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Plant",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"title":         &graphql.Field{Type: graphql.String},
			"common_name_1": &graphql.Field{Type: graphql.String},
			"common_name_2": &graphql.Field{Type: graphql.String},
			"common_name_3": &graphql.Field{Type: graphql.String},
			"genus":         &graphql.Field{Type: graphql.String},
			"species":       &graphql.Field{Type: graphql.String},
			"cultivar":      &graphql.Field{Type: graphql.String},
			"height":        &graphql.Field{Type: graphql.Float},
			"model":         &graphql.Field{Type: graphql.String},
			"location":      &graphql.Field{Type: geoPointType},
			"distance":      &graphql.Field{Type: graphql.Float},
		},
	})

	catalogStatusType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CatalogStatus",
		Fields: graphql.Fields{
			"source":    &graphql.Field{Type: graphql.String},
			"loaded_at": &graphql.Field{Type: graphql.String},
			"rows":      &graphql.Field{Type: graphql.Int},
			"accepted":  &graphql.Field{Type: graphql.Int},
			"dropped":   &graphql.Field{Type: graphql.Int},
		},
	})

	calibrationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Calibration",
		Fields: graphql.Fields{
			"device":         &graphql.Field{Type: graphql.String},
			"offset_degrees": &graphql.Field{Type: graphql.Float},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"plantsNearby": &graphql.Field{
				Type:        graphql.NewList(plantType),
				Description: "Plants near a location, nearest first",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: usecases.DefaultMaxRadiusMeters},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: usecases.DefaultNearbyLimit},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat := p.Args["lat"].(float64)
					lon := p.Args["lon"].(float64)
					radius := p.Args["radius"].(float64)
					limit := p.Args["limit"].(int)
					if radius > maxNearbyRadius {
						radius = maxNearbyRadius
					}
					plants, err := deps.Plants.FindNearby(p.Context, lat, lon, radius, limit)
					if err != nil {
						return nil, err
					}
					out := make([]map[string]interface{}, 0, len(plants))
					for i := range plants {
						out = append(out, plantFields(plants[i].PlantRecord, &plants[i].DistanceMeters))
					}
					return out, nil
				},
			},
			"plant": &graphql.Field{
				Type:        plantType,
				Description: "Get a plant by catalog id",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					plant, err := deps.Plants.GetByID(p.Context, p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					return plantFields(*plant, nil), nil
				},
			},
			"catalogStatus": &graphql.Field{
				Type:        catalogStatusType,
				Description: "Outcome of the last catalog parse",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					st := deps.Catalog.Status()
					m := map[string]interface{}{
						"source":   st.Source,
						"rows":     st.Rows,
						"accepted": st.Accepted,
						"dropped":  st.Dropped,
					}
					if !st.LoadedAt.IsZero() {
						m["loaded_at"] = st.LoadedAt.UTC().Format("2006-01-02T15:04:05Z")
					}
					return m, nil
				},
			},
			"calibration": &graphql.Field{
				Type:        calibrationType,
				Description: "Heading offset for a device",
				Args: graphql.FieldConfigArgument{
					"device": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					device := p.Args["device"].(string)
					v, err := deps.Calibration.Get(p.Context, device)
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{"device": device, "offset_degrees": v}, nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"setCalibration": &graphql.Field{
				Type:        calibrationType,
				Description: "Store the heading offset for a device",
				Args: graphql.FieldConfigArgument{
					"device":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"degrees": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					device := p.Args["device"].(string)
					v, err := deps.Calibration.Set(p.Context, device, p.Args["degrees"].(float64))
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{"device": device, "offset_degrees": v}, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
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
			return errBadRequest(c, "invalid request body")
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
