package usecases

import (
	"math"
	"strconv"
	"strings"

	"github.com/abgtour/planttour/internal/core/domain"
)

// CSVLayout fixes which column holds which field. Columns are matched by
// position only; the header row is never inspected.
type CSVLayout struct {
	ID          int
	CommonName1 int
	CommonName2 int
	CommonName3 int
	Genus       int
	Species     int
	Cultivar    int
	Longitude   int
	Latitude    int
	Height      int
}

// DefaultLayout is the catalog export layout: longitude before latitude,
// height in column 10 (column 9 is unused).
var DefaultLayout = CSVLayout{
	ID:          0,
	CommonName1: 1,
	CommonName2: 2,
	CommonName3: 3,
	Genus:       4,
	Species:     5,
	Cultivar:    6,
	Longitude:   7,
	Latitude:    8,
	Height:      10,
}

// MinColumns is the number of columns every row is padded to.
func (l CSVLayout) MinColumns() int {
	widest := 0
	for _, c := range []int{l.ID, l.CommonName1, l.CommonName2, l.CommonName3, l.Genus,
		l.Species, l.Cultivar, l.Longitude, l.Latitude, l.Height} {
		if c > widest {
			widest = c
		}
	}
	return widest + 1
}

// ParseStats summarises one parse.
type ParseStats struct {
	Rows     int `json:"rows"`
	Accepted int `json:"accepted"`
	Dropped  int `json:"dropped"`
}

const defaultHeight = 1.0

// ParseCatalog parses raw catalog text with DefaultLayout.
func ParseCatalog(raw string) []domain.PlantRecord {
	records, _ := ParseCatalogStats(raw, DefaultLayout)
	return records
}

// ParseCatalogStats parses raw catalog text into validated records.
//
// The first line is a header and is always discarded. Rows are split on ','
// without quote handling, so a value containing a comma shifts every later
// column. Malformed rows are dropped, never reported: a row survives only if
// it has an id and at least one non-zero coordinate. Blank lines are not
// rows and are not counted.
func ParseCatalogStats(raw string, layout CSVLayout) ([]domain.PlantRecord, ParseStats) {
	var stats ParseStats
	if raw == "" {
		return []domain.PlantRecord{}, stats
	}

	lines := strings.Split(raw, "\n")
	records := make([]domain.PlantRecord, 0, len(lines))
	width := layout.MinColumns()

	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		stats.Rows++

		cols := strings.Split(line, ",")
		for len(cols) < width {
			cols = append(cols, "")
		}

		rec := domain.PlantRecord{
			ID:          field(cols, layout.ID),
			CommonName1: orDefault(field(cols, layout.CommonName1), "Unknown"),
			CommonName2: field(cols, layout.CommonName2),
			CommonName3: field(cols, layout.CommonName3),
			Genus:       orDefault(field(cols, layout.Genus), "Unknown"),
			Species:     field(cols, layout.Species),
			Cultivar:    field(cols, layout.Cultivar),
			Location: domain.GeoPoint{
				Lat: parseCoord(field(cols, layout.Latitude)),
				Lon: parseCoord(field(cols, layout.Longitude)),
			},
			Height: parseHeight(field(cols, layout.Height)),
		}

		if rec.ID == "" || rec.Location.IsZero() {
			stats.Dropped++
			continue
		}
		records = append(records, rec)
		stats.Accepted++
	}

	return records, stats
}

func field(cols []string, idx int) string {
	if idx < 0 || idx >= len(cols) {
		return ""
	}
	return strings.TrimSpace(cols[idx])
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// parseCoord returns 0 for anything that is not a finite number.
func parseCoord(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// parseHeight falls back to 1 m for missing, invalid or zero heights.
func parseHeight(s string) float64 {
	v := parseCoord(s)
	if v == 0 {
		return defaultHeight
	}
	return v
}
