package model

import "time"

// Field names of the persisted context record. Partial updates are keyed by
// these names.
const (
	FieldWorkoutActive        = "workout_active"
	FieldWorkoutStarted       = "workout_started"
	FieldCurrentRoutine       = "current_routine"
	FieldPlannedExercises     = "planned_exercises"
	FieldCurrentExerciseIndex = "current_exercise_index"
	FieldCurrentSet           = "current_set"
	FieldLastWeight           = "last_weight"
	FieldCompletedExercises   = "completed_exercises"
	FieldToday                = "today"
	FieldLastUpdated          = "last_updated"
)

// DateLayout is the layout of the informational Today field
const DateLayout = "2006-01-02"

// Exercise is an open-ended exercise descriptor (name plus arbitrary metadata)
type Exercise map[string]any

// Name returns the "name" entry of the descriptor, or "" when missing
func (e Exercise) Name() string {
	name, _ := e["name"].(string)
	return name
}

// Clone returns a shallow copy of the descriptor
func (e Exercise) Clone() Exercise {
	if e == nil {
		return nil
	}
	out := make(Exercise, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// ContextRecord is the per-user short-lived conversational and workout state
type ContextRecord struct {
	WorkoutActive        bool       `json:"workout_active"`
	WorkoutStarted       *time.Time `json:"workout_started"`
	CurrentRoutine       *string    `json:"current_routine"`
	PlannedExercises     []Exercise `json:"planned_exercises"`
	CurrentExerciseIndex int        `json:"current_exercise_index"`
	CurrentSet           int        `json:"current_set"`
	LastWeight           *float64   `json:"last_weight"`
	CompletedExercises   []Exercise `json:"completed_exercises"`
	Today                string     `json:"today"`
	LastUpdated          time.Time  `json:"last_updated"`
}

// NewContextRecord builds the default record for a user seen for the first time
func NewContextRecord(now time.Time) *ContextRecord {
	now = now.UTC()
	rec := &ContextRecord{
		Today:       now.Format(DateLayout),
		LastUpdated: now,
	}
	rec.ResetWorkout()
	return rec
}

// ResetWorkout clears every workout-specific field back to the inactive defaults.
// Today and LastUpdated are left alone.
func (r *ContextRecord) ResetWorkout() {
	r.WorkoutActive = false
	r.WorkoutStarted = nil
	r.CurrentRoutine = nil
	r.PlannedExercises = []Exercise{}
	r.CurrentExerciseIndex = 0
	r.CurrentSet = 1
	r.LastWeight = nil
	r.CompletedExercises = []Exercise{}
}

// Normalize replaces nil lists with empty ones so the record always
// serializes them as arrays.
func (r *ContextRecord) Normalize() {
	if r.PlannedExercises == nil {
		r.PlannedExercises = []Exercise{}
	}
	if r.CompletedExercises == nil {
		r.CompletedExercises = []Exercise{}
	}
}

// Clone returns a deep copy of the record
func (r *ContextRecord) Clone() *ContextRecord {
	if r == nil {
		return nil
	}
	out := *r
	if r.WorkoutStarted != nil {
		t := *r.WorkoutStarted
		out.WorkoutStarted = &t
	}
	if r.CurrentRoutine != nil {
		s := *r.CurrentRoutine
		out.CurrentRoutine = &s
	}
	if r.LastWeight != nil {
		w := *r.LastWeight
		out.LastWeight = &w
	}
	out.PlannedExercises = cloneExercises(r.PlannedExercises)
	out.CompletedExercises = cloneExercises(r.CompletedExercises)
	return &out
}

func cloneExercises(in []Exercise) []Exercise {
	out := make([]Exercise, 0, len(in))
	for _, e := range in {
		out = append(out, e.Clone())
	}
	return out
}

// Summary is returned when a workout session ends
type Summary struct {
	// DurationMinutes is nil when the session had no start time
	DurationMinutes    *int       `json:"duration_minutes"`
	ExercisesCompleted int        `json:"exercises_completed_count"`
	CompletedExercises []Exercise `json:"completed_exercises"`
}
