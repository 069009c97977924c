package usecases

import (
	"math"
	"strings"

	"github.com/abgtour/planttour/internal/core/domain"
)

// adjustedHeights maps a plant height (rounded to 0.1 m) to the model height
// used for vertical placement.
var adjustedHeights = map[float64]float64{
	0.5: 0.2,
	1:   0.3,
	1.5: 0.45,
	2:   0.6,
	2.5: 0.8,
	3:   1.1,
	4.5: 1.5,
}

const (
	defaultAdjustedHeight = 0.4
	markerScale           = 2.0
)

// AdjustedHeight returns the model height for a plant height.
func AdjustedHeight(h float64) float64 {
	rounded := math.Round(h*10) / 10
	if v, ok := adjustedHeights[rounded]; ok {
		return v
	}
	return defaultAdjustedHeight
}

// ModelForHeight picks the GLB model name for a plant height.
func ModelForHeight(h float64) string {
	switch {
	case h <= 1:
		return "Shrub.glb"
	case h <= 1.5:
		return "Bush.glb"
	case h < 3:
		return "SmallTree.glb"
	case h <= 4.5:
		return "Tree.glb"
	default:
		return "BigTree.glb"
	}
}

// Appearance turns ranked plants into renderer display data.
type Appearance struct {
	ModelBaseURL string
}

// Display builds the DisplayInfo for one ranked plant.
func (a Appearance) Display(rp domain.RankedPlant) *domain.DisplayInfo {
	base := a.ModelBaseURL
	if base == "" {
		base = "./models/"
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	var names []string
	for _, n := range []string{rp.CommonName1, rp.CommonName2, rp.CommonName3} {
		if n != "" {
			names = append(names, n)
		}
	}

	return &domain.DisplayInfo{
		Title:          rp.DisplayName(),
		CommonNames:    names,
		Genus:          orDefault(rp.Genus, "N/A"),
		Species:        orDefault(rp.Species, "N/A"),
		Cultivar:       rp.Cultivar,
		DistanceMeters: rp.DistanceMeters,
		Height:         rp.Height,
		Model:          base + ModelForHeight(rp.Height),
		Scale:          markerScale,
		OffsetY:        AdjustedHeight(rp.Height) / 2,
	}
}

// Decorate attaches display data to every Create instruction for a plant.
// With duplicate ids the first ranked row wins, matching the row Reconcile
// placed the marker at.
func (a Appearance) Decorate(instructions []domain.Instruction, ranked []domain.RankedPlant) {
	byID := make(map[string]domain.RankedPlant, len(ranked))
	for _, rp := range ranked {
		if _, seen := byID[rp.ID]; !seen {
			byID[rp.ID] = rp
		}
	}
	for i := range instructions {
		in := &instructions[i]
		if in.User || in.Kind != domain.InstructionCreate {
			continue
		}
		if rp, ok := byID[in.PlantID]; ok {
			in.Display = a.Display(rp)
		}
	}
}
