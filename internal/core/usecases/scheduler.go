package usecases

import (
	"time"

	"github.com/abgtour/planttour/internal/core/domain"
	"github.com/abgtour/planttour/internal/pkg/geospatial"
)

// DefaultUpdateInterval is how often a tour refreshes its plant markers.
const DefaultUpdateInterval = 10 * time.Second

// ThrottlePolicy decides how often a position update triggers a full
// fetch + select + reconcile pass.
type ThrottlePolicy struct {
	// MinInterval is the minimum time between passes.
	MinInterval time.Duration
	// MinMoveMeters, when positive, also makes a pass due as soon as the
	// user has moved this far since the last pass.
	MinMoveMeters float64
}

// Scheduler owns the throttle state of one tour. It is not safe for
// concurrent use; TourSession serialises access.
type Scheduler struct {
	policy  ThrottlePolicy
	now     func() time.Time
	ran     bool
	lastRun time.Time
	lastPos domain.GeoPoint
}

// NewScheduler creates a Scheduler. A nil clock means time.Now.
func NewScheduler(policy ThrottlePolicy, clock func() time.Time) *Scheduler {
	if policy.MinInterval < 0 {
		policy.MinInterval = 0
	}
	if clock == nil {
		clock = time.Now
	}
	return &Scheduler{policy: policy, now: clock}
}

// Due reports whether a pass should run for a user at pos.
func (s *Scheduler) Due(pos domain.GeoPoint) bool {
	if !s.ran {
		return true
	}
	if s.now().Sub(s.lastRun) > s.policy.MinInterval {
		return true
	}
	if s.policy.MinMoveMeters > 0 {
		moved := geospatial.Haversine(s.lastPos.Lat, s.lastPos.Lon, pos.Lat, pos.Lon)
		return moved >= s.policy.MinMoveMeters
	}
	return false
}

// MarkRan records that a pass started at pos. It is called before the
// catalog fetch, so a failed fetch still waits for the next window.
func (s *Scheduler) MarkRan(pos domain.GeoPoint) {
	s.ran = true
	s.lastRun = s.now()
	s.lastPos = pos
}
