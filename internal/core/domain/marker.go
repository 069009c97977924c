package domain

import "encoding/json"

// MarkerHandle identifies a marker owned by the rendering collaborator.
// Handles are never reused within one MarkerState.
type MarkerHandle uint64

// Marker is the reconciler's record of something currently drawn.
type Marker struct {
	Handle   MarkerHandle `json:"handle"`
	Location GeoPoint     `json:"location"`
}

// InstructionKind is the kind of change a renderer must apply.
type InstructionKind int

const (
	InstructionCreate InstructionKind = iota + 1
	InstructionUpdate
	InstructionDelete
)

func (k InstructionKind) String() string {
	switch k {
	case InstructionCreate:
		return "create"
	case InstructionUpdate:
		return "update"
	case InstructionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the kind as its name.
func (k InstructionKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind name.
func (k *InstructionKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "create":
		*k = InstructionCreate
	case "update":
		*k = InstructionUpdate
	case "delete":
		*k = InstructionDelete
	default:
		*k = 0
	}
	return nil
}

// Instruction tells the renderer to create, move or remove one marker.
// User is set for the user's own position marker, which has no PlantID.
type Instruction struct {
	Kind     InstructionKind `json:"kind"`
	PlantID  string          `json:"plant_id,omitempty"`
	Handle   MarkerHandle    `json:"handle"`
	Location GeoPoint        `json:"location"`
	User     bool            `json:"user,omitempty"`
	Heading  *float64        `json:"heading,omitempty"`
	Display  *DisplayInfo    `json:"display,omitempty"`
}

// InstructionBatch is the ordered output of one position update.
type InstructionBatch struct {
	Session      string        `json:"session"`
	Seq          uint64        `json:"seq"`
	Instructions []Instruction `json:"instructions"`
}

// Count returns how many instructions of the given kind the batch holds.
func (b InstructionBatch) Count(kind InstructionKind) int {
	n := 0
	for _, in := range b.Instructions {
		if in.Kind == kind {
			n++
		}
	}
	return n
}
