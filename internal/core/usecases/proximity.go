package usecases

import (
	"sort"

	"github.com/abgtour/planttour/internal/core/domain"
	"github.com/abgtour/planttour/internal/pkg/geospatial"
)

const (
	// DefaultMaxRadiusMeters is how close a plant must be to get a marker.
	DefaultMaxRadiusMeters = 10.0
	// DefaultNearbyLimit is the most markers drawn at once.
	DefaultNearbyLimit = 10
)

// SelectOptions bounds a proximity selection. Zero values select the defaults.
type SelectOptions struct {
	MaxRadiusMeters float64
	Limit           int
}

func (o SelectOptions) withDefaults() SelectOptions {
	if o.MaxRadiusMeters <= 0 {
		o.MaxRadiusMeters = DefaultMaxRadiusMeters
	}
	if o.Limit <= 0 {
		o.Limit = DefaultNearbyLimit
	}
	return o
}

// SelectNearby ranks records by great-circle distance from user, keeps
// those within the radius and returns at most Limit of them, nearest first.
// Equal distances keep their catalog order.
func SelectNearby(user domain.GeoPoint, records []domain.PlantRecord, opts SelectOptions) []domain.RankedPlant {
	opts = opts.withDefaults()

	box, boxed := searchBounds(user, opts.MaxRadiusMeters)

	ranked := make([]domain.RankedPlant, 0, len(records))
	for _, rec := range records {
		if boxed && !box.Contains(rec.Location) {
			continue
		}
		d := geospatial.Haversine(user.Lat, user.Lon, rec.Location.Lat, rec.Location.Lon)
		if d <= opts.MaxRadiusMeters {
			ranked = append(ranked, domain.RankedPlant{PlantRecord: rec, DistanceMeters: d})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceMeters < ranked[j].DistanceMeters
	})

	if len(ranked) > opts.Limit {
		ranked = ranked[:opts.Limit]
	}
	return ranked
}

// searchBounds returns a box holding every point within radius of user,
// spanning every longitude when the radius reaches a pole.
// It reports false when the box would wrap the antimeridian; callers then
// check every record.
func searchBounds(user domain.GeoPoint, radius float64) (domain.Bounds, bool) {
	minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(user.Lat, user.Lon, radius)
	if minLon < -180 || maxLon > 180 {
		return domain.Bounds{}, false
	}
	return domain.Bounds{MinLat: minLat, MinLon: minLon, MaxLat: maxLat, MaxLon: maxLon}, true
}
