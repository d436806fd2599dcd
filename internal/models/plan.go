package models

// ActionKind is the verb of a plan action.
type ActionKind string

// Action kinds.
const (
	ActionMoveToPosition ActionKind = "move_to_position"
	ActionMoveToBuffer   ActionKind = "move_to_buffer"
	ActionMoveFromBuffer ActionKind = "move_from_buffer"
)

// Valid reports whether k is a known action kind.
func (k ActionKind) Valid() bool {
	switch k {
	case ActionMoveToPosition, ActionMoveToBuffer, ActionMoveFromBuffer:
		return true
	}
	return false
}

// EndpointType classifies where an action picks up or drops an object.
type EndpointType string

// Endpoint types.
const (
	EndpointStack       EndpointType = "stack"
	EndpointArrangement EndpointType = "arrangement"
	EndpointBuffer      EndpointType = "buffer"
	EndpointScattered   EndpointType = "scattered"
)

// Valid reports whether t is a known endpoint type.
func (t EndpointType) Valid() bool {
	switch t {
	case EndpointStack, EndpointArrangement, EndpointBuffer, EndpointScattered:
		return true
	}
	return false
}

// BufferSlots maps each temporary holding slot to its workspace coordinates.
var BufferSlots = map[string][3]int{
	"B1": {180, 300, 150},
	"B2": {280, 300, 150},
	"B3": {180, 340, 150},
}

// BufferSlotNames lists the slots in a stable order for messages.
var BufferSlotNames = []string{"B1", "B2", "B3"}

// IsBufferSlot reports whether slot names one of the buffer slots.
func IsBufferSlot(slot string) bool {
	_, ok := BufferSlots[slot]
	return ok
}

// Endpoint is the source or destination of an action.
type Endpoint struct {
	Type     EndpointType `json:"type,omitempty"`
	Position string       `json:"position,omitempty"`
	Slot     string       `json:"slot,omitempty"`
}

// Same reports whether two endpoints are structurally identical.
func (e *Endpoint) Same(o *Endpoint) bool {
	if e == nil || o == nil {
		return false
	}
	return e.Type == o.Type && e.Position == o.Position && e.Slot == o.Slot
}

// Action is one step of a plan.
type Action struct {
	Step   int        `json:"step"`
	Kind   ActionKind `json:"action"`
	Object string     `json:"object"`
	From   *Endpoint  `json:"from,omitempty"`
	To     *Endpoint  `json:"to,omitempty"`
	Reason string     `json:"reason,omitempty"`
}

// Plan is an ordered action sequence.
type Plan []Action
