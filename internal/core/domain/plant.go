package domain

// PlantRecord is one validated row of the plant catalog.
type PlantRecord struct {
	ID          string   `json:"id"`
	CommonName1 string   `json:"common_name_1"`
	CommonName2 string   `json:"common_name_2,omitempty"`
	CommonName3 string   `json:"common_name_3,omitempty"`
	Genus       string   `json:"genus"`
	Species     string   `json:"species,omitempty"`
	Cultivar    string   `json:"cultivar,omitempty"`
	Location    GeoPoint `json:"location"`
	Height      float64  `json:"height"` // meters
}

// DisplayName joins the secondary and primary common names the way the
// detail panel shows them: "Red Oak, Oak", or just "Oak".
func (p PlantRecord) DisplayName() string {
	name := p.CommonName1
	if name == "" {
		name = "Unknown"
	}
	if p.CommonName2 != "" {
		return p.CommonName2 + ", " + name
	}
	return name
}

// RankedPlant is a PlantRecord with its distance from the user.
type RankedPlant struct {
	PlantRecord
	DistanceMeters float64 `json:"distance_meters"`
}

// DisplayInfo is everything the renderer needs to draw a plant marker and
// fill its detail panel when tapped.
type DisplayInfo struct {
	Title          string   `json:"title"`
	CommonNames    []string `json:"common_names,omitempty"`
	Genus          string   `json:"genus"`
	Species        string   `json:"species"`
	Cultivar       string   `json:"cultivar,omitempty"`
	DistanceMeters float64  `json:"distance_meters"`
	Height         float64  `json:"height"`
	Model          string   `json:"model"`
	Scale          float64  `json:"scale"`
	OffsetY        float64  `json:"offset_y"`
}
