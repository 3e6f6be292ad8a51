package workout

import "life_tracker/src/model"

// Phase is the derived lifecycle phase of a user's workout session
type Phase int

const (
	// Idle means no workout session is open
	Idle Phase = iota
	// Active means a session is open and the plan is not exhausted. An empty
	// plan is active with no current exercise.
	Active
	// Exhausted means a session is open but every planned exercise was advanced past
	Exhausted
)

func (p Phase) String() string {
	switch p {
	case Active:
		return "active"
	case Exhausted:
		return "exhausted"
	default:
		return "idle"
	}
}

// MarshalText lets the phase serialize as its name
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// State is the session state derived from a context record
type State struct {
	Phase    Phase          `json:"phase"`
	Index    int            `json:"index"`
	Exercise model.Exercise `json:"exercise"`

	// inPlan is set when Index points inside the planned list
	inPlan bool
}

// StateOf derives the session state from a record. It is the single place
// transitions read the phase from.
func StateOf(rec *model.ContextRecord) State {
	if rec == nil || !rec.WorkoutActive {
		return State{Phase: Idle}
	}
	plan := rec.PlannedExercises
	idx := rec.CurrentExerciseIndex
	switch {
	case len(plan) == 0:
		return State{Phase: Active, Index: idx}
	case idx >= 0 && idx < len(plan):
		return State{Phase: Active, Index: idx, Exercise: plan[idx], inPlan: true}
	default:
		return State{Phase: Exhausted, Index: idx}
	}
}

// HasExercise reports whether the state points at a planned exercise
func (s State) HasExercise() bool {
	return s.inPlan
}
