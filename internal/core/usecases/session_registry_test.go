package usecases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/abgtour/planttour/internal/core/domain"
	"github.com/abgtour/planttour/internal/core/usecases"
)

func newRegistry(clock *fakeClock) *usecases.SessionRegistry {
	catalog := usecases.NewCatalogService(staticSource(scenarioCSV), nil, usecases.DefaultLayout, 0)
	tours := usecases.NewTourService(catalog, nil, usecases.TourOptions{Clock: clock.Now})
	return usecases.NewSessionRegistry(tours, 10*time.Minute)
}

func TestSessionRegistry_Lifecycle(t *testing.T) {
	reg := newRegistry(newFakeClock())

	s := reg.Create(nil)
	if s.ID() == "" {
		t.Fatal("expected generated id")
	}
	got, err := reg.Get(s.ID())
	if err != nil || got != s {
		t.Fatalf("expected to get the created session, got %v, %v", got, err)
	}

	reg.Create(nil)
	if reg.Len() != 2 {
		t.Errorf("expected 2 sessions, got %d", reg.Len())
	}

	if !reg.Remove(s.ID()) {
		t.Error("expected remove to report true")
	}
	if reg.Remove(s.ID()) {
		t.Error("expected second remove to report false")
	}
	if _, err := reg.Get(s.ID()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionRegistry_ClaimKeepsLiveSession(t *testing.T) {
	reg := newRegistry(newFakeClock())
	ctx := context.Background()

	live := reg.Create(nil)
	if _, err := live.HandlePosition(ctx, campus); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := reg.Claim(live.ID(), nil); !errors.Is(err, domain.ErrSessionInUse) {
		t.Fatalf("expected ErrSessionInUse, got %v", err)
	}
	got, err := reg.Get(live.ID())
	if err != nil || got != live {
		t.Fatalf("expected the live session to stay registered, got %v, %v", got, err)
	}
	if got.State().Len() != 1 {
		t.Errorf("expected marker state kept, got %d markers", got.State().Len())
	}

	claimed, err := reg.Claim("kiosk-1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claimed.ID() != "kiosk-1" || reg.Len() != 2 {
		t.Errorf("expected kiosk-1 registered alongside, got %s with %d sessions", claimed.ID(), reg.Len())
	}
}

func TestSessionRegistry_ReleaseOnlyOwnSession(t *testing.T) {
	reg := newRegistry(newFakeClock())

	first, err := reg.Claim("kiosk-1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reg.Remove("kiosk-1")
	second, err := reg.Claim("kiosk-1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reg.Release(first) {
		t.Error("expected a stale session not to release the id")
	}
	if got, err := reg.Get("kiosk-1"); err != nil || got != second {
		t.Fatalf("expected the newer session to survive, got %v, %v", got, err)
	}
	if !reg.Release(second) {
		t.Error("expected the owner to release the id")
	}
	if reg.Len() != 0 {
		t.Errorf("expected no sessions, got %d", reg.Len())
	}
}

func TestSessionRegistry_Sweep(t *testing.T) {
	clock := newFakeClock()
	reg := newRegistry(clock)

	idle := reg.Create(nil)
	active := reg.Create(nil)

	clock.Advance(8 * time.Minute)
	if _, err := active.HandlePosition(context.Background(), campus); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	clock.Advance(5 * time.Minute)

	if n := reg.Sweep(); n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}
	if _, err := reg.Get(idle.ID()); err == nil {
		t.Error("expected idle session evicted")
	}
	if _, err := reg.Get(active.ID()); err != nil {
		t.Error("expected active session kept")
	}
}
