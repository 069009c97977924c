package usecases

import (
	"sort"

	"github.com/abgtour/planttour/internal/core/domain"
	"github.com/abgtour/planttour/internal/pkg/geospatial"
)

// headingMinMoveMeters is how far the user must move before a new heading
// is derived; GPS jitter below this would spin the heading arrow.
const headingMinMoveMeters = 1.0

// MarkerState records what is currently drawn for one tour: at most one
// marker per plant id, plus the user's own marker. The zero value is an
// empty state. Reconcile and TrackUser never modify the state they are
// given; they return the successor.
type MarkerState struct {
	markers    map[string]domain.Marker
	user       *domain.Marker
	heading    *float64
	nextHandle domain.MarkerHandle
}

// NewMarkerState returns an empty state.
func NewMarkerState() MarkerState {
	return MarkerState{markers: make(map[string]domain.Marker)}
}

// Len returns the number of plant markers.
func (s MarkerState) Len() int { return len(s.markers) }

// Lookup returns the marker drawn for a plant id.
func (s MarkerState) Lookup(id string) (domain.Marker, bool) {
	m, ok := s.markers[id]
	return m, ok
}

// IDs returns the plant ids with a live marker, sorted.
func (s MarkerState) IDs() []string {
	ids := make([]string, 0, len(s.markers))
	for id := range s.markers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// UserMarker returns the user's marker once it has been created.
func (s MarkerState) UserMarker() (domain.Marker, bool) {
	if s.user == nil {
		return domain.Marker{}, false
	}
	return *s.user, true
}

func (s MarkerState) clone() MarkerState {
	out := MarkerState{
		markers:    make(map[string]domain.Marker, len(s.markers)),
		nextHandle: s.nextHandle,
	}
	for id, m := range s.markers {
		out.markers[id] = m
	}
	if s.user != nil {
		u := *s.user
		out.user = &u
	}
	if s.heading != nil {
		h := *s.heading
		out.heading = &h
	}
	return out
}

func (s *MarkerState) mint() domain.MarkerHandle {
	s.nextHandle++
	return s.nextHandle
}

// Reconcile brings the drawn plant markers in line with ranked.
//
// Ids new to the state get a Create, ids already drawn get an Update when
// their location changed, and drawn ids missing from ranked get a Delete.
// Creates and Updates follow ranked order; Deletes come last, sorted by id.
// When ranked repeats an id, the later entry moves the same marker.
func Reconcile(ranked []domain.RankedPlant, state MarkerState) (MarkerState, []domain.Instruction) {
	next := state.clone()
	var out []domain.Instruction

	keep := make(map[string]struct{}, len(ranked))
	for _, rp := range ranked {
		keep[rp.ID] = struct{}{}

		m, ok := next.markers[rp.ID]
		if !ok {
			m = domain.Marker{Handle: next.mint(), Location: rp.Location}
			next.markers[rp.ID] = m
			out = append(out, domain.Instruction{
				Kind:     domain.InstructionCreate,
				PlantID:  rp.ID,
				Handle:   m.Handle,
				Location: rp.Location,
			})
			continue
		}

		if m.Location == rp.Location {
			continue
		}
		m.Location = rp.Location
		next.markers[rp.ID] = m
		out = append(out, domain.Instruction{
			Kind:     domain.InstructionUpdate,
			PlantID:  rp.ID,
			Handle:   m.Handle,
			Location: rp.Location,
		})
	}

	for _, id := range next.IDs() {
		if _, ok := keep[id]; ok {
			continue
		}
		m := next.markers[id]
		delete(next.markers, id)
		out = append(out, domain.Instruction{
			Kind:     domain.InstructionDelete,
			PlantID:  id,
			Handle:   m.Handle,
			Location: m.Location,
		})
	}

	return next, out
}

// TrackUser moves the user's marker to pos, creating it on the first call.
// The user marker is never deleted. Once the user has moved far enough from
// the previous sample, the instruction carries a derived heading.
func TrackUser(state MarkerState, pos domain.GeoPoint) (MarkerState, domain.Instruction) {
	next := state.clone()

	if next.user == nil {
		next.user = &domain.Marker{Handle: next.mint(), Location: pos}
		return next, domain.Instruction{
			Kind:     domain.InstructionCreate,
			Handle:   next.user.Handle,
			Location: pos,
			User:     true,
		}
	}

	prev := next.user.Location
	if geospatial.Haversine(prev.Lat, prev.Lon, pos.Lat, pos.Lon) >= headingMinMoveMeters {
		h := geospatial.InitialBearing(prev.Lat, prev.Lon, pos.Lat, pos.Lon)
		next.heading = &h
	}
	next.user.Location = pos

	in := domain.Instruction{
		Kind:     domain.InstructionUpdate,
		Handle:   next.user.Handle,
		Location: pos,
		User:     true,
	}
	if next.heading != nil {
		h := *next.heading
		in.Heading = &h
	}
	return next, in
}
