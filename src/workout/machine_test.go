package workout

import (
	"context"
	"errors"
	"testing"
	"time"

	"life_tracker/src/contextstore"
	"life_tracker/src/model"
	"life_tracker/src/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	store   *contextstore.Store
	machine *Machine
	clock   *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	c := &clock{t: time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)}
	backend := storage.NewMemoryBackend(c.Now)
	store := contextstore.New(backend, 24*time.Hour, contextstore.WithClock(c.Now))
	return &fixture{
		store:   store,
		machine: NewMachine(store, WithClock(c.Now)),
		clock:   c,
	}
}

func strPtr(s string) *string { return &s }

func pushDay() []model.Exercise {
	return []model.Exercise{{"name": "Bench"}, {"name": "Row"}}
}

func TestStartWorkoutPointsAtFirstExercise(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.machine.StartWorkout(ctx, "u1", strPtr("Push Day"), pushDay(), false))

	ex, ok, err := f.machine.CurrentExercise(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.Exercise{"name": "Bench"}, ex)

	rec, err := f.store.GetContext(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, rec.WorkoutActive)
	require.NotNil(t, rec.WorkoutStarted)
	assert.Equal(t, f.clock.Now(), *rec.WorkoutStarted)
	assert.Equal(t, "Push Day", *rec.CurrentRoutine)
	assert.Equal(t, 1, rec.CurrentSet)
	assert.Nil(t, rec.LastWeight)
	assert.Empty(t, rec.CompletedExercises)
}

func TestStartWorkoutWithEmptyPlan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.machine.StartWorkout(ctx, "u1", nil, nil, false))

	_, ok, err := f.machine.CurrentExercise(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	state, err := f.machine.State(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, Active, state.Phase)

	rec, err := f.store.GetContext(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, rec.CurrentRoutine)
}

func TestStartWorkoutWhileActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.machine.StartWorkout(ctx, "u1", strPtr("Push Day"), pushDay(), false))
	_, _, err := f.machine.NextExercise(ctx, "u1")
	require.NoError(t, err)

	err = f.machine.StartWorkout(ctx, "u1", strPtr("Legs"), nil, false)
	assert.ErrorIs(t, err, ErrWorkoutInProgress)

	rec, err := f.store.GetContext(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Push Day", *rec.CurrentRoutine, "refused start leaves the session untouched")
	assert.Len(t, rec.CompletedExercises, 1)

	require.NoError(t, f.machine.StartWorkout(ctx, "u1", strPtr("Legs"), []model.Exercise{{"name": "Squat"}}, true))
	rec, err = f.store.GetContext(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Legs", *rec.CurrentRoutine)
	assert.Empty(t, rec.CompletedExercises)
	assert.Equal(t, 0, rec.CurrentExerciseIndex)
}

func TestStartWorkoutRejectsNullExercise(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.machine.StartWorkout(ctx, "u1", nil, []model.Exercise{nil, {"name": "Row"}}, false)
	assert.ErrorIs(t, err, ErrInvalidInput)

	rec, err := f.store.GetContext(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, rec.WorkoutActive, "rejected start writes nothing")
}

func TestNullDescriptorInStoredPlanStillAdvances(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.UpdateContext(ctx, "u1", contextstore.Updates{
		model.FieldWorkoutActive:    true,
		model.FieldPlannedExercises: []model.Exercise{nil, {"name": "Row"}},
	}))

	state, err := f.machine.State(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, Active, state.Phase)
	assert.True(t, state.HasExercise())

	next, ok, err := f.machine.NextExercise(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.Exercise{"name": "Row"}, next)

	rec, err := f.store.GetContext(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.CurrentExerciseIndex)
}

func TestNextExerciseWalksWholePlan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plan := []model.Exercise{{"name": "Bench"}, {"name": "Row"}, {"name": "Dips"}}

	require.NoError(t, f.machine.StartWorkout(ctx, "u1", nil, plan, false))

	for i := 1; i <= len(plan); i++ {
		next, ok, err := f.machine.NextExercise(ctx, "u1")
		require.NoError(t, err)
		if i < len(plan) {
			require.True(t, ok)
			assert.Equal(t, plan[i], next)
		} else {
			assert.False(t, ok)
			assert.Nil(t, next)
		}

		rec, err := f.store.GetContext(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, i, rec.CurrentExerciseIndex)
	}

	rec, err := f.store.GetContext(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, plan, rec.CompletedExercises)

	state := StateOf(rec)
	assert.Equal(t, Exhausted, state.Phase)

	// one more call is a no-op
	next, ok, err := f.machine.NextExercise(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, next)

	after, err := f.store.GetContext(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, len(plan), after.CurrentExerciseIndex)
	assert.Equal(t, plan, after.CompletedExercises)
}

func TestNextExerciseWhileIdleIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	next, ok, err := f.machine.NextExercise(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, next)

	rec, err := f.store.GetContext(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, rec.CurrentExerciseIndex)
}

func TestRecordSetCountsAndRemembersWeight(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.machine.StartWorkout(ctx, "u1", nil, pushDay(), false))

	weights := []float64{60, 70, 80}
	for _, w := range weights {
		_, err := f.machine.RecordSet(ctx, "u1", w, 10)
		require.NoError(t, err)
	}

	rec, err := f.store.GetContext(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, len(weights)+1, rec.CurrentSet)
	require.NotNil(t, rec.LastWeight)
	assert.Equal(t, 80.0, *rec.LastWeight)

	_, _, err = f.machine.NextExercise(ctx, "u1")
	require.NoError(t, err)
	rec, err = f.store.GetContext(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.CurrentSet)
	assert.Nil(t, rec.LastWeight)

	rec, err = f.machine.RecordSet(ctx, "u1", 50, 12)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.CurrentSet)
	assert.Equal(t, 50.0, *rec.LastWeight)
}

func TestRecordSetWhileIdle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.machine.RecordSet(ctx, "u1", 20, 15)
	require.NoError(t, err)
	assert.False(t, rec.WorkoutActive)
	assert.Equal(t, 2, rec.CurrentSet)
	assert.Equal(t, 20.0, *rec.LastWeight)
}

func TestRecordSetRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.machine.StartWorkout(ctx, "u1", nil, pushDay(), false))
	before, err := f.store.GetContext(ctx, "u1")
	require.NoError(t, err)

	tests := []struct {
		name   string
		weight float64
		reps   int
	}{
		{"negative weight", -5, 10},
		{"negative reps", 80, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.machine.RecordSet(ctx, "u1", tt.weight, tt.reps)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	after, err := f.store.GetContext(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestEndWorkoutSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.machine.StartWorkout(ctx, "u1", strPtr("Push Day"), []model.Exercise{{"name": "Bench"}, {"name": "Row"}, {"name": "Dips"}}, false))
	_, _, err := f.machine.NextExercise(ctx, "u1")
	require.NoError(t, err)
	_, _, err = f.machine.NextExercise(ctx, "u1")
	require.NoError(t, err)

	f.clock.Advance(45*time.Minute + 30*time.Second)
	summary, err := f.machine.EndWorkout(ctx, "u1")
	require.NoError(t, err)

	require.NotNil(t, summary.DurationMinutes)
	assert.Equal(t, 45, *summary.DurationMinutes)
	assert.Equal(t, 2, summary.ExercisesCompleted)
	assert.Equal(t, []model.Exercise{{"name": "Bench"}, {"name": "Row"}}, summary.CompletedExercises)

	rec, err := f.store.GetContext(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, rec.WorkoutActive)
	assert.Nil(t, rec.WorkoutStarted)
	assert.Nil(t, rec.CurrentRoutine)
	assert.Nil(t, rec.LastWeight)
	assert.Empty(t, rec.PlannedExercises)
	assert.Empty(t, rec.CompletedExercises)
	assert.Equal(t, 0, rec.CurrentExerciseIndex)
	assert.Equal(t, 1, rec.CurrentSet)
}

func TestEndWorkoutNeverStarted(t *testing.T) {
	f := newFixture(t)

	summary, err := f.machine.EndWorkout(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, summary.DurationMinutes)
	assert.Equal(t, 0, summary.ExercisesCompleted)
	assert.Empty(t, summary.CompletedExercises)
}

func TestPushDayScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.machine.StartWorkout(ctx, "u1", strPtr("Push Day"), pushDay(), false))

	ex, ok, err := f.machine.CurrentExercise(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Bench", ex.Name())

	rec, err := f.machine.RecordSet(ctx, "u1", 80, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.CurrentSet)
	assert.Equal(t, 80.0, *rec.LastWeight)

	_, _, err = f.machine.NextExercise(ctx, "u1")
	require.NoError(t, err)

	ex, ok, err = f.machine.CurrentExercise(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.Exercise{"name": "Row"}, ex)

	rec, err = f.store.GetContext(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []model.Exercise{{"name": "Bench"}}, rec.CompletedExercises)
}

type brokenStore struct{ err error }

func (b brokenStore) GetContext(context.Context, string) (*model.ContextRecord, error) {
	return nil, b.err
}
func (b brokenStore) Save(context.Context, string, *model.ContextRecord) error { return b.err }

func TestStoreErrorsPropagate(t *testing.T) {
	boom := errors.Join(contextstore.ErrUnavailable, errors.New("timeout"))
	m := NewMachine(brokenStore{err: boom})
	ctx := context.Background()

	assert.ErrorIs(t, m.StartWorkout(ctx, "u1", nil, nil, false), contextstore.ErrUnavailable)
	_, err := m.EndWorkout(ctx, "u1")
	assert.ErrorIs(t, err, contextstore.ErrUnavailable)
	_, err = m.RecordSet(ctx, "u1", 10, 5)
	assert.ErrorIs(t, err, contextstore.ErrUnavailable)
	_, _, err = m.NextExercise(ctx, "u1")
	assert.ErrorIs(t, err, contextstore.ErrUnavailable)
	_, _, err = m.CurrentExercise(ctx, "u1")
	assert.ErrorIs(t, err, contextstore.ErrUnavailable)
}
