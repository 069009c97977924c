package http

import (
	"errors"
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/abgtour/planttour/internal/core/domain"
	"github.com/abgtour/planttour/internal/core/usecases"
)

const (
	maxNearbyRadius = 1000.0
	maxNearbyLimit  = 50
)

// ListPlantsHandler returns the parsed catalog in file order, paginated.
func ListPlantsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		plants, err := deps.Plants.List(c.UserContext())
		if err != nil {
			return serviceError(c, err, "catalog")
		}

		pg := parsePagination(c, 100, 500)
		start, end := pg.window(len(plants))

		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: plants[start:end], Pagination: pg})
	}
}

// NearbyPlantsHandler returns plants within a radius of a point, nearest first.
func NearbyPlantsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat, latErr := queryCoord(c, "lat", 90)
		lon, lonErr := queryCoord(c, "lon", 180)
		if latErr != nil || lonErr != nil {
			return errBadRequest(c, "lat and lon are required and must be valid WGS 84 degrees")
		}

		radius := c.QueryFloat("radius", usecases.DefaultMaxRadiusMeters)
		if radius < 1 || radius > maxNearbyRadius {
			return errBadRequest(c, "radius must be between 1 and 1000 meters")
		}
		limit := c.QueryInt("limit", usecases.DefaultNearbyLimit)
		if limit <= 0 || limit > maxNearbyLimit {
			limit = usecases.DefaultNearbyLimit
		}

		plants, err := deps.Plants.FindNearby(c.UserContext(), lat, lon, radius, limit)
		if err != nil {
			return serviceError(c, err, "plants")
		}
		return c.JSON(plants)
	}
}

// GetPlantHandler returns a single plant by catalog id.
func GetPlantHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "plant id is required")
		}
		plant, err := deps.Plants.GetByID(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err, "plant")
		}
		return c.JSON(plant)
	}
}

// CatalogStatusHandler reports the outcome of the last catalog parse.
func CatalogStatusHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Catalog.Status())
	}
}

// CreateSessionHandler starts a tour session and returns its id.
func CreateSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s := deps.Sessions.Create(deps.Renderer)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": s.ID()})
	}
}

type positionRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// SessionPositionHandler feeds one position into a session and returns the
// resulting instruction batch. ?force=true bypasses the throttle. A failed
// catalog load answers 502 with the batch in the body: the user marker has
// moved even though the plant markers have not.
func SessionPositionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := deps.Sessions.Get(c.Params("id"))
		if err != nil {
			return serviceError(c, err, "session")
		}

		var req positionRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Latitude == nil || req.Longitude == nil {
			return errBadRequest(c, "latitude and longitude are required")
		}
		pos := domain.GeoPoint{Lat: *req.Latitude, Lon: *req.Longitude}

		var batch domain.InstructionBatch
		if c.QueryBool("force", false) {
			batch, err = session.Force(c.UserContext(), pos)
		} else {
			batch, err = session.HandlePosition(c.UserContext(), pos)
		}
		if errors.Is(err, domain.ErrFetch) {
			return errPassFailed(c, err.Error(), batch)
		}
		if err != nil {
			return serviceError(c, err, "session")
		}
		return c.JSON(batch)
	}
}

// DeleteSessionHandler ends a tour session.
func DeleteSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !deps.Sessions.Remove(c.Params("id")) {
			return errNotFound(c, "session not found")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

type calibrationBody struct {
	Device        string   `json:"device"`
	OffsetDegrees *float64 `json:"offset_degrees"`
}

// GetCalibrationHandler returns the heading offset stored for a device.
func GetCalibrationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		device := c.Params("device")
		v, err := deps.Calibration.Get(c.UserContext(), device)
		if err != nil {
			return serviceError(c, err, "calibration")
		}
		return c.JSON(calibrationBody{Device: device, OffsetDegrees: &v})
	}
}

// PutCalibrationHandler stores the heading offset for a device.
func PutCalibrationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		device := c.Params("device")

		var req calibrationBody
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.OffsetDegrees == nil {
			return errBadRequest(c, "offset_degrees is required")
		}

		v, err := deps.Calibration.Set(c.UserContext(), device, *req.OffsetDegrees)
		if err != nil {
			if errors.Is(err, usecases.ErrCalibrationUnavailable) {
				return serviceError(c, err, "calibration")
			}
			return errBadRequest(c, err.Error())
		}
		return c.JSON(calibrationBody{Device: device, OffsetDegrees: &v})
	}
}

// queryCoord parses a required coordinate query parameter within ±limit.
func queryCoord(c *fiber.Ctx, key string, limit float64) (float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, errors.New(key + " is required")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || v < -limit || v > limit {
		return 0, errors.New(key + " out of range")
	}
	return v, nil
}
