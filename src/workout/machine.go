package workout

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"life_tracker/src/logger"
	"life_tracker/src/model"
)

var (
	// ErrInvalidInput is returned for transition input rejected before any write
	ErrInvalidInput = errors.New("invalid workout input")
	// ErrWorkoutInProgress is returned when starting over an open session without force
	ErrWorkoutInProgress = errors.New("workout already in progress")
)

// ContextStore is the subset of the context store the machine needs
type ContextStore interface {
	GetContext(ctx context.Context, userID string) (*model.ContextRecord, error)
	Save(ctx context.Context, userID string, rec *model.ContextRecord) error
}

// Machine applies workout transitions as read-modify-write cycles over the
// user's context record. It holds no state of its own.
type Machine struct {
	store ContextStore
	now   func() time.Time
}

// Option configures a Machine
type Option func(*Machine)

// WithClock overrides the time source used for start times and durations
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// NewMachine creates a Machine over store
func NewMachine(store ContextStore, opts ...Option) *Machine {
	m := &Machine{store: store, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the derived session state for a user
func (m *Machine) State(ctx context.Context, userID string) (State, error) {
	rec, err := m.store.GetContext(ctx, userID)
	if err != nil {
		return State{}, err
	}
	return StateOf(rec), nil
}

// StartWorkout opens a session at the first planned exercise. Starting while a
// session is open returns ErrWorkoutInProgress unless force is set, in which
// case the previous session's progress is discarded.
func (m *Machine) StartWorkout(ctx context.Context, userID string, routineName *string, exercises []model.Exercise, force bool) error {
	for i, e := range exercises {
		if e == nil {
			return fmt.Errorf("%w: exercise %d is null", ErrInvalidInput, i)
		}
	}

	rec, err := m.store.GetContext(ctx, userID)
	if err != nil {
		return err
	}

	if rec.WorkoutActive {
		if !force {
			return ErrWorkoutInProgress
		}
		logger.Warn().
			Str("user_id", userID).
			Int("discarded_completed", len(rec.CompletedExercises)).
			Msg("Restarting workout over an open session")
	}

	rec.ResetWorkout()
	started := m.now().UTC()
	rec.WorkoutActive = true
	rec.WorkoutStarted = &started
	if routineName != nil {
		name := *routineName
		rec.CurrentRoutine = &name
	}
	for _, e := range exercises {
		rec.PlannedExercises = append(rec.PlannedExercises, e.Clone())
	}

	if err := m.store.Save(ctx, userID, rec); err != nil {
		return err
	}

	logger.Info().
		Str("user_id", userID).
		Int("planned", len(rec.PlannedExercises)).
		Msg("Workout started")
	return nil
}

// CurrentExercise returns the exercise the session points at, if any
func (m *Machine) CurrentExercise(ctx context.Context, userID string) (model.Exercise, bool, error) {
	state, err := m.State(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	return state.Exercise, state.HasExercise(), nil
}

// NextExercise moves the current exercise to the completed list and returns the
// new current exercise. Without a current exercise it is a no-op.
func (m *Machine) NextExercise(ctx context.Context, userID string) (model.Exercise, bool, error) {
	rec, err := m.store.GetContext(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	state := StateOf(rec)
	if !state.HasExercise() {
		return nil, false, nil
	}

	rec.CompletedExercises = append(rec.CompletedExercises, state.Exercise)
	rec.CurrentExerciseIndex++
	rec.CurrentSet = 1
	rec.LastWeight = nil

	if err := m.store.Save(ctx, userID, rec); err != nil {
		return nil, false, err
	}

	next := StateOf(rec)
	return next.Exercise, next.HasExercise(), nil
}

// RecordSet advances the set counter and remembers the weight for inferring
// terse follow-up input. It is accepted outside a session too. Reps are
// validated but not stored.
func (m *Machine) RecordSet(ctx context.Context, userID string, weight float64, reps int) (*model.ContextRecord, error) {
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight < 0 {
		return nil, fmt.Errorf("%w: weight must be a non-negative number, got %v", ErrInvalidInput, weight)
	}
	if reps < 0 {
		return nil, fmt.Errorf("%w: reps must be non-negative, got %d", ErrInvalidInput, reps)
	}

	rec, err := m.store.GetContext(ctx, userID)
	if err != nil {
		return nil, err
	}

	w := weight
	rec.LastWeight = &w
	rec.CurrentSet++

	if err := m.store.Save(ctx, userID, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// EndWorkout closes the session and returns a summary computed from the
// record before it is reset. Ending while idle is safe.
func (m *Machine) EndWorkout(ctx context.Context, userID string) (model.Summary, error) {
	rec, err := m.store.GetContext(ctx, userID)
	if err != nil {
		return model.Summary{}, err
	}

	completed := make([]model.Exercise, len(rec.CompletedExercises))
	copy(completed, rec.CompletedExercises)
	summary := model.Summary{
		DurationMinutes:    durationMinutes(rec.WorkoutStarted, m.now()),
		ExercisesCompleted: len(completed),
		CompletedExercises: completed,
	}

	rec.ResetWorkout()
	if err := m.store.Save(ctx, userID, rec); err != nil {
		return model.Summary{}, err
	}

	logger.Info().
		Str("user_id", userID).
		Int("exercises_completed", summary.ExercisesCompleted).
		Msg("Workout ended")
	return summary, nil
}

// durationMinutes is floor(elapsed seconds / 60), or nil without a start time.
// Clock skew that puts the start in the future yields zero.
func durationMinutes(started *time.Time, now time.Time) *int {
	if started == nil {
		return nil
	}
	minutes := int(math.Floor(now.Sub(*started).Seconds() / 60))
	if minutes < 0 {
		minutes = 0
	}
	return &minutes
}
