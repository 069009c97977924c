package usecases

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/abgtour/planttour/internal/core/domain"
	"github.com/abgtour/planttour/internal/core/ports"
	"github.com/abgtour/planttour/internal/pkg/logging"
	"github.com/abgtour/planttour/internal/pkg/metrics"
	"github.com/abgtour/planttour/internal/pkg/telemetry"
)

// TourOptions configures every session started by a TourService.
type TourOptions struct {
	Select     SelectOptions
	Throttle   ThrottlePolicy
	Appearance Appearance
	// Clock overrides time.Now for throttling and session bookkeeping.
	Clock func() time.Time
}

// TourService starts tour sessions: one per device, each with its own
// marker state and throttle.
type TourService struct {
	catalog  *CatalogService
	renderer ports.SceneRenderer
	opts     TourOptions
}

// NewTourService creates a new TourService. renderer is the default
// renderer for sessions that do not bring their own and may be nil.
func NewTourService(catalog *CatalogService, renderer ports.SceneRenderer, opts TourOptions) *TourService {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &TourService{catalog: catalog, renderer: renderer, opts: opts}
}

// NewSession starts a session. A nil renderer means the service default.
func (s *TourService) NewSession(id string, renderer ports.SceneRenderer) *TourSession {
	if renderer == nil {
		renderer = s.renderer
	}
	return &TourSession{
		id:       id,
		svc:      s,
		renderer: renderer,
		state:    NewMarkerState(),
		sched:    NewScheduler(s.opts.Throttle, s.opts.Clock),
		lastSeen: s.opts.Clock(),
	}
}

// TourSession turns a stream of position updates into marker instructions.
// Calls are serialised: interleaved passes against one marker state would
// corrupt the create/update/delete accounting.
type TourSession struct {
	id       string
	svc      *TourService
	renderer ports.SceneRenderer

	mu       sync.Mutex
	state    MarkerState
	sched    *Scheduler
	seq      uint64
	position *domain.UserPosition
	lastSeen time.Time
}

// ID returns the session id.
func (t *TourSession) ID() string { return t.id }

// HandlePosition moves the user marker and, when the throttle allows it,
// refreshes the plant markers around pos.
//
// A catalog fetch failure returns the batch holding only the user marker
// update together with a *domain.FetchError; plant markers stay as they were.
func (t *TourSession) HandlePosition(ctx context.Context, pos domain.GeoPoint) (domain.InstructionBatch, error) {
	return t.handle(ctx, pos, false)
}

// Refresh runs a full pass at the last known position regardless of the
// throttle.
func (t *TourSession) Refresh(ctx context.Context) (domain.InstructionBatch, error) {
	t.mu.Lock()
	if t.position == nil {
		t.mu.Unlock()
		return domain.InstructionBatch{}, fmt.Errorf("session %s has no position yet", t.id)
	}
	pos := t.position.Location
	t.mu.Unlock()

	return t.handle(ctx, pos, true)
}

// Force handles pos and always runs a full pass.
func (t *TourSession) Force(ctx context.Context, pos domain.GeoPoint) (domain.InstructionBatch, error) {
	return t.handle(ctx, pos, true)
}

func (t *TourSession) handle(ctx context.Context, pos domain.GeoPoint, force bool) (domain.InstructionBatch, error) {
	if err := validatePosition(pos); err != nil {
		return domain.InstructionBatch{}, err
	}

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanHandlePosition)
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.AttrSession, t.id))

	t.mu.Lock()
	defer t.mu.Unlock()

	log := logging.FromContext(ctx).With("session", t.id)
	t.lastSeen = t.svc.opts.Clock()

	state, userIn := TrackUser(t.state, pos)
	t.state = state
	t.position = &domain.UserPosition{Location: pos, Heading: userIn.Heading}

	instructions := []domain.Instruction{userIn}

	var passErr error
	if force || t.sched.Due(pos) {
		t.sched.MarkRan(pos)

		records, err := t.svc.catalog.Records(ctx)
		if err != nil {
			log.Error("catalog load failed", "error", err)
			span.RecordError(err)
			passErr = err
		} else {
			ranked := SelectNearby(pos, records, t.svc.opts.Select)
			next, plantIns := Reconcile(ranked, t.state)
			t.svc.opts.Appearance.Decorate(plantIns, ranked)
			t.state = next
			instructions = append(instructions, plantIns...)

			metrics.SelectionSize.Observe(float64(len(ranked)))
			span.SetAttributes(attribute.Int(telemetry.AttrSelected, len(ranked)))
			log.Debug("markers reconciled", "selected", len(ranked), "instructions", len(plantIns))
		}
	}

	t.seq++
	batch := domain.InstructionBatch{Session: t.id, Seq: t.seq, Instructions: instructions}
	for _, in := range instructions {
		metrics.MarkerInstructions.WithLabelValues(in.Kind.String()).Inc()
	}
	span.SetAttributes(attribute.Int(telemetry.AttrInstructions, len(instructions)))

	if t.renderer != nil {
		if err := t.renderer.Apply(ctx, batch); err != nil {
			metrics.RenderErrors.Inc()
			log.Warn("renderer apply failed", "seq", batch.Seq, "error", err)
		}
	}

	return batch, passErr
}

// State returns a snapshot of the session's marker state.
func (t *TourSession) State() MarkerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.clone()
}

// Position returns the last reported position.
func (t *TourSession) Position() (domain.UserPosition, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.position == nil {
		return domain.UserPosition{}, false
	}
	return *t.position, true
}

// LastSeen returns when the session last handled a position.
func (t *TourSession) LastSeen() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastSeen
}

func validatePosition(p domain.GeoPoint) error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) ||
		p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%w: (%v, %v)", domain.ErrInvalidPosition, p.Lat, p.Lon)
	}
	return nil
}
