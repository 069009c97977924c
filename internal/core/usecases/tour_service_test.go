package usecases_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/abgtour/planttour/internal/core/domain"
	"github.com/abgtour/planttour/internal/core/usecases"
)

func newTour(src *mockSource, r *recordingRenderer, clock *fakeClock) *usecases.TourSession {
	catalog := usecases.NewCatalogService(src, nil, usecases.DefaultLayout, 0)
	svc := usecases.NewTourService(catalog, r, usecases.TourOptions{
		Throttle: usecases.ThrottlePolicy{MinInterval: usecases.DefaultUpdateInterval},
		Clock:    clock.Now,
	})
	return svc.NewSession("s1", nil)
}

func TestTourSession_EndToEnd(t *testing.T) {
	src := staticSource(scenarioCSV)
	r := &recordingRenderer{}
	clock := newFakeClock()
	session := newTour(src, r, clock)
	ctx := context.Background()

	batch, err := session.HandlePosition(ctx, campus)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batch.Seq != 1 || batch.Session != "s1" {
		t.Errorf("unexpected batch header %+v", batch)
	}
	if len(batch.Instructions) != 2 {
		t.Fatalf("expected user + P1 creates, got %+v", batch.Instructions)
	}
	if !batch.Instructions[0].User || batch.Instructions[0].Kind != domain.InstructionCreate {
		t.Errorf("expected user Create first, got %+v", batch.Instructions[0])
	}
	p1 := batch.Instructions[1]
	if p1.Kind != domain.InstructionCreate || p1.PlantID != "P1" {
		t.Fatalf("expected Create(P1), got %+v", p1)
	}
	if p1.Display == nil || p1.Display.Title != "Oak" || p1.Display.Species != "alba" {
		t.Errorf("unexpected display %+v", p1.Display)
	}

	// Inside the throttle window only the user marker moves.
	clock.Advance(2 * time.Second)
	batch, err = session.HandlePosition(ctx, campus)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch.Instructions) != 1 || !batch.Instructions[0].User {
		t.Errorf("expected only the user update, got %+v", batch.Instructions)
	}
	if src.calls != 1 {
		t.Errorf("expected 1 fetch, got %d", src.calls)
	}

	// A forced pass at the same spot reconciles to nothing new.
	batch, err = session.Refresh(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batch.Count(domain.InstructionCreate)+batch.Count(domain.InstructionDelete) != 0 {
		t.Errorf("expected no plant changes, got %+v", batch.Instructions)
	}

	// Walking away deletes P1.
	clock.Advance(11 * time.Second)
	batch, err = session.HandlePosition(ctx, offsetNorth(campus, 50))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batch.Count(domain.InstructionDelete) != 1 {
		t.Fatalf("expected Delete(P1), got %+v", batch.Instructions)
	}
	if session.State().Len() != 0 {
		t.Errorf("expected no plant markers, got %d", session.State().Len())
	}

	if len(r.batches) != 4 {
		t.Errorf("expected 4 rendered batches, got %d", len(r.batches))
	}
	if r.batches[3].Seq != 4 {
		t.Errorf("expected seq 4, got %d", r.batches[3].Seq)
	}
}

func TestTourSession_FetchFailureKeepsMarkers(t *testing.T) {
	fail := false
	src := &mockSource{fetchFn: func(ctx context.Context) (string, error) {
		if fail {
			return "", errors.New("connection refused")
		}
		return scenarioCSV, nil
	}}
	clock := newFakeClock()
	session := newTour(src, &recordingRenderer{}, clock)
	ctx := context.Background()

	if _, err := session.HandlePosition(ctx, campus); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fail = true
	clock.Advance(time.Minute)
	batch, err := session.HandlePosition(ctx, offsetNorth(campus, 50))
	if !errors.Is(err, domain.ErrFetch) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	var fe *domain.FetchError
	if !errors.As(err, &fe) || fe.Source != "mock://catalog.csv" {
		t.Errorf("expected FetchError from mock source, got %v", err)
	}
	if len(batch.Instructions) != 1 || !batch.Instructions[0].User {
		t.Errorf("expected only the user update, got %+v", batch.Instructions)
	}
	if _, ok := session.State().Lookup("P1"); !ok {
		t.Error("expected P1 to stay drawn after a failed fetch")
	}
}

func TestTourSession_RendererErrorIsNotFatal(t *testing.T) {
	r := &recordingRenderer{applyFn: func(domain.InstructionBatch) error {
		return errors.New("scene gone")
	}}
	session := newTour(staticSource(scenarioCSV), r, newFakeClock())

	batch, err := session.HandlePosition(context.Background(), campus)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batch.Count(domain.InstructionCreate) != 2 {
		t.Errorf("expected 2 creates, got %+v", batch.Instructions)
	}
	if session.State().Len() != 1 {
		t.Errorf("expected state to advance, got %d markers", session.State().Len())
	}
}

func TestTourSession_InvalidPosition(t *testing.T) {
	session := newTour(staticSource(scenarioCSV), nil, newFakeClock())

	_, err := session.HandlePosition(context.Background(), domain.GeoPoint{Lat: 91, Lon: 0})
	if !errors.Is(err, domain.ErrInvalidPosition) {
		t.Errorf("expected ErrInvalidPosition, got %v", err)
	}
	if _, ok := session.Position(); ok {
		t.Error("expected no position recorded")
	}
}

func TestTourSession_RefreshWithoutPosition(t *testing.T) {
	session := newTour(staticSource(scenarioCSV), nil, newFakeClock())
	if _, err := session.Refresh(context.Background()); err == nil {
		t.Error("expected error")
	}
}

func TestTourSession_ConcurrentPositions(t *testing.T) {
	const n = 32
	r := &recordingRenderer{}
	session := newTour(staticSource(scenarioCSV), r, newFakeClock())
	ctx := context.Background()

	batches := make(chan domain.InstructionBatch, n)
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var (
				b   domain.InstructionBatch
				err error
			)
			if i%2 == 0 {
				b, err = session.Force(ctx, campus)
			} else {
				b, err = session.HandlePosition(ctx, campus)
			}
			if err != nil {
				errs <- err
				return
			}
			batches <- b
		}(i)
	}
	wg.Wait()
	close(batches)
	close(errs)

	for err := range errs {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := make(map[uint64]bool, n)
	creates := map[string]int{}
	userCreates := 0
	for b := range batches {
		if seen[b.Seq] {
			t.Errorf("duplicate seq %d", b.Seq)
		}
		seen[b.Seq] = true
		for _, in := range b.Instructions {
			if in.Kind != domain.InstructionCreate {
				continue
			}
			if in.User {
				userCreates++
			} else {
				creates[in.PlantID]++
			}
		}
	}
	for seq := uint64(1); seq <= n; seq++ {
		if !seen[seq] {
			t.Errorf("missing seq %d", seq)
		}
	}
	if userCreates != 1 {
		t.Errorf("expected one user Create, got %d", userCreates)
	}
	if len(creates) != 1 || creates["P1"] != 1 {
		t.Errorf("expected exactly one Create(P1), got %v", creates)
	}
	if session.State().Len() != 1 {
		t.Errorf("expected 1 plant marker, got %d", session.State().Len())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.batches) != n {
		t.Fatalf("expected %d rendered batches, got %d", n, len(r.batches))
	}
	for i, b := range r.batches {
		if b.Seq != uint64(i+1) {
			t.Errorf("rendered batch %d has seq %d", i, b.Seq)
		}
	}
}
