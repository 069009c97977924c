package usecases_test

import (
	"strings"
	"testing"

	"github.com/abgtour/planttour/internal/core/usecases"
)

func TestParseCatalog_RoundTrip(t *testing.T) {
	raw := "s_id,cname1,cname2,cname3,genus,species,cultivar,lon,lat,spread,height\n" +
		"  A-17 , Red Maple ,Swamp Maple, Scarlet Maple ,Acer,rubrum,October Glory,-76.94123,38.98201,4,7.25\n"

	records := usecases.ParseCatalog(raw)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]

	checks := map[string][2]string{
		"id":       {r.ID, "A-17"},
		"cname1":   {r.CommonName1, "Red Maple"},
		"cname2":   {r.CommonName2, "Swamp Maple"},
		"cname3":   {r.CommonName3, "Scarlet Maple"},
		"genus":    {r.Genus, "Acer"},
		"species":  {r.Species, "rubrum"},
		"cultivar": {r.Cultivar, "October Glory"},
	}
	for name, c := range checks {
		if c[0] != c[1] {
			t.Errorf("%s: expected %q, got %q", name, c[1], c[0])
		}
	}
	if r.Location.Lon != -76.94123 {
		t.Errorf("expected lon -76.94123, got %v", r.Location.Lon)
	}
	if r.Location.Lat != 38.98201 {
		t.Errorf("expected lat 38.98201, got %v", r.Location.Lat)
	}
	if r.Height != 7.25 {
		t.Errorf("expected height 7.25, got %v", r.Height)
	}
}

func TestParseCatalog_HeaderAlwaysDiscarded(t *testing.T) {
	// A header that looks like data is still skipped.
	raw := "H1,Oak,,,Quercus,,,-76.9,38.9,,2\nP1,Oak,,,Quercus,,,-76.9,38.9,,2"
	records := usecases.ParseCatalog(raw)
	if len(records) != 1 || records[0].ID != "P1" {
		t.Fatalf("expected only P1, got %+v", records)
	}
}

func TestParseCatalog_InvalidRowsExcluded(t *testing.T) {
	raw := strings.Join([]string{
		"header",
		",NoID,,,Genus,,,-76.9,38.9,,1",       // empty id
		"   ,Blank,,,Genus,,,-76.9,38.9,,1",   // whitespace id
		"Z1,Zero,,,Genus,,,0,0,,1",            // both zero
		"Z2,Junk,,,Genus,,,abc,xyz,,1",        // both unparseable
		"OK1,Kept,,,Genus,,,0,38.9,,1",        // lon zero only
		"OK2,Kept,,,Genus,,,-76.9,0,,1",       // lat zero only
		"",                                    // blank line
	}, "\n")

	records, stats := usecases.ParseCatalogStats(raw, usecases.DefaultLayout)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d: %+v", len(records), records)
	}
	for _, r := range records {
		if r.ID == "" {
			t.Error("record with empty id survived")
		}
		if r.Location.Lat == 0 && r.Location.Lon == 0 {
			t.Errorf("record %s with zero coordinates survived", r.ID)
		}
	}
	if stats.Rows != 6 || stats.Accepted != 2 || stats.Dropped != 4 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestParseCatalogStats_BlankLinesNotCounted(t *testing.T) {
	raw := "header\nP1,Oak,,,Quercus,alba,,-76.9440,38.9820,,5\n\n  \r\n"
	records, stats := usecases.ParseCatalogStats(raw, usecases.DefaultLayout)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if stats.Rows != 1 || stats.Dropped != 0 {
		t.Errorf("expected 1 row and nothing dropped, got %+v", stats)
	}
}

func TestParseCatalog_ShortRowsPaddedWithDefaults(t *testing.T) {
	raw := "header\nP9,,,,,,,-76.9,38.9"
	records := usecases.ParseCatalog(raw)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.CommonName1 != "Unknown" {
		t.Errorf("expected cname1 Unknown, got %q", r.CommonName1)
	}
	if r.Genus != "Unknown" {
		t.Errorf("expected genus Unknown, got %q", r.Genus)
	}
	if r.CommonName2 != "" || r.Species != "" || r.Cultivar != "" {
		t.Errorf("expected empty optional fields, got %+v", r)
	}
	if r.Height != 1.0 {
		t.Errorf("expected default height 1.0, got %v", r.Height)
	}
}

func TestParseCatalog_HeightFallbacks(t *testing.T) {
	cases := map[string]float64{
		"":     1.0,
		"tall": 1.0,
		"0":    1.0,
		"NaN":  1.0,
		"2.5":  2.5,
		" 3 ":  3.0,
	}
	for in, want := range cases {
		raw := "header\nP1,Oak,,,Quercus,,,-76.9,38.9,," + in
		records := usecases.ParseCatalog(raw)
		if len(records) != 1 {
			t.Fatalf("height %q: expected 1 record, got %d", in, len(records))
		}
		if records[0].Height != want {
			t.Errorf("height %q: expected %v, got %v", in, want, records[0].Height)
		}
	}
}

func TestParseCatalog_CRLF(t *testing.T) {
	raw := "header\r\nP1,Oak,,,Quercus,,,-76.9,38.9,,2\r\nP2,Elm,,,Ulmus,,,-76.8,38.8,,3\r\n"
	records := usecases.ParseCatalog(raw)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[1].Height != 3 {
		t.Errorf("expected trailing CR trimmed from height, got %v", records[1].Height)
	}
}

func TestParseCatalog_EmbeddedCommaShiftsColumns(t *testing.T) {
	// No quote handling: the comma inside the name pushes every later column right.
	raw := "header\nP1,\"Oak, White\",,,Quercus,alba,,-76.9,38.9,,2"
	records := usecases.ParseCatalog(raw)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].CommonName1 != `"Oak` {
		t.Errorf("expected split name, got %q", records[0].CommonName1)
	}
	if records[0].Location.Lon != 0 || records[0].Location.Lat != -76.9 {
		t.Errorf("expected shifted coordinates, got %+v", records[0].Location)
	}
}

func TestParseCatalog_Empty(t *testing.T) {
	if got := usecases.ParseCatalog(""); len(got) != 0 {
		t.Errorf("expected empty result, got %d", len(got))
	}
	if got := usecases.ParseCatalog("header only"); len(got) != 0 {
		t.Errorf("expected empty result for header-only input, got %d", len(got))
	}
}

func TestParseCatalogStats_CustomHeightColumn(t *testing.T) {
	layout := usecases.DefaultLayout
	layout.Height = 9

	records, _ := usecases.ParseCatalogStats(scenarioCSV, layout)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Height != 5 {
		t.Errorf("expected P1 height 5, got %v", records[0].Height)
	}
	if layout.MinColumns() != 10 {
		t.Errorf("expected 10 min columns, got %d", layout.MinColumns())
	}
}

func TestDefaultLayout_MinColumns(t *testing.T) {
	if got := usecases.DefaultLayout.MinColumns(); got != 11 {
		t.Errorf("expected 11, got %d", got)
	}
}
