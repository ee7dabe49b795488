package article

import "fmt"

// Phase is the workflow position of an article. Exactly one is active.
type Phase string

const (
	PhasePlanning        Phase = "planning"
	PhaseResearching     Phase = "researching"
	PhaseWaitingForInput Phase = "waiting_input"
	PhaseDrafting        Phase = "drafting"
	PhaseReview          Phase = "review"
	PhaseCompleted       Phase = "completed"
)

// Phases lists every phase in forward order.
var Phases = []Phase{
	PhasePlanning,
	PhaseResearching,
	PhaseWaitingForInput,
	PhaseDrafting,
	PhaseReview,
	PhaseCompleted,
}

// Ordinal returns the position of p in the forward order, or -1.
func (p Phase) Ordinal() int {
	for i, ph := range Phases {
		if ph == p {
			return i
		}
	}
	return -1
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	return p.Ordinal() >= 0
}

// Terminal reports whether no further transitions leave p.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted
}

// Resting reports whether a run may legitimately stop at p.
func (p Phase) Resting() bool {
	return p == PhaseWaitingForInput || p == PhaseCompleted
}

// ParsePhase converts a stored string into a Phase.
func ParsePhase(s string) (Phase, error) {
	p := Phase(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown phase %q", s)
	}
	return p, nil
}
