// Package scene holds SceneRenderer implementations that do not need a
// real AR surface: an in-memory scene, a JSON line writer and a fan-out.
package scene

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/abgtour/planttour/internal/core/domain"
	"github.com/abgtour/planttour/internal/core/ports"
)

// Node is one marker in the scene.
type Node struct {
	Handle   domain.MarkerHandle `json:"handle"`
	PlantID  string              `json:"plant_id,omitempty"`
	User     bool                `json:"user,omitempty"`
	Location domain.GeoPoint     `json:"location"`
	Heading  *float64            `json:"heading,omitempty"`
	Display  *domain.DisplayInfo `json:"display,omitempty"`
}

// Scene is an in-memory SceneRenderer. It rejects instructions a real
// renderer could not honour: a Create for a live handle, an Update or
// Delete for an unknown one, a second plant marker for the same id, or a
// Delete of the user marker.
type Scene struct {
	mu      sync.RWMutex
	nodes   map[domain.MarkerHandle]*Node
	byPlant map[string]domain.MarkerHandle
	lastSeq uint64
}

// New returns an empty Scene.
func New() *Scene {
	return &Scene{
		nodes:   make(map[domain.MarkerHandle]*Node),
		byPlant: make(map[string]domain.MarkerHandle),
	}
}

// Apply executes a batch in order. It stops at the first invalid
// instruction; instructions before it stay applied.
func (s *Scene) Apply(ctx context.Context, batch domain.InstructionBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if batch.Seq != 0 && batch.Seq <= s.lastSeq {
		return fmt.Errorf("batch %d arrived after %d", batch.Seq, s.lastSeq)
	}
	for i, in := range batch.Instructions {
		if err := s.apply(in); err != nil {
			return fmt.Errorf("instruction %d (%s): %w", i, in.Kind, err)
		}
	}
	if batch.Seq != 0 {
		s.lastSeq = batch.Seq
	}
	return nil
}

func (s *Scene) apply(in domain.Instruction) error {
	switch in.Kind {
	case domain.InstructionCreate:
		if _, ok := s.nodes[in.Handle]; ok {
			return fmt.Errorf("handle %d already drawn", in.Handle)
		}
		if !in.User {
			if h, ok := s.byPlant[in.PlantID]; ok {
				return fmt.Errorf("plant %s already drawn as %d", in.PlantID, h)
			}
			s.byPlant[in.PlantID] = in.Handle
		}
		s.nodes[in.Handle] = &Node{
			Handle:   in.Handle,
			PlantID:  in.PlantID,
			User:     in.User,
			Location: in.Location,
			Heading:  in.Heading,
			Display:  in.Display,
		}
	case domain.InstructionUpdate:
		n, ok := s.nodes[in.Handle]
		if !ok {
			return fmt.Errorf("handle %d not drawn", in.Handle)
		}
		n.Location = in.Location
		if in.Heading != nil {
			n.Heading = in.Heading
		}
	case domain.InstructionDelete:
		n, ok := s.nodes[in.Handle]
		if !ok {
			return fmt.Errorf("handle %d not drawn", in.Handle)
		}
		if n.User {
			return errors.New("the user marker cannot be deleted")
		}
		delete(s.nodes, in.Handle)
		delete(s.byPlant, n.PlantID)
	default:
		return fmt.Errorf("unknown instruction kind %d", in.Kind)
	}
	return nil
}

// Plants returns the drawn plant markers sorted by plant id.
func (s *Scene) Plants() []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Node, 0, len(s.byPlant))
	for _, h := range s.byPlant {
		out = append(out, *s.nodes[h])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlantID < out[j].PlantID })
	return out
}

// User returns the user marker once drawn.
func (s *Scene) User() (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.nodes {
		if n.User {
			return *n, true
		}
	}
	return Node{}, false
}

// Len returns the number of drawn markers, user marker included.
func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// Writer renders batches as JSON lines.
type Writer struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewWriter creates a Writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: json.NewEncoder(w)}
}

func (w *Writer) Apply(ctx context.Context, batch domain.InstructionBatch) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(batch)
}

// Fanout applies every batch to several renderers. All renderers see every
// batch; their errors are joined.
type Fanout []ports.SceneRenderer

func (f Fanout) Apply(ctx context.Context, batch domain.InstructionBatch) error {
	var errs []error
	for _, r := range f {
		if r == nil {
			continue
		}
		if err := r.Apply(ctx, batch); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
