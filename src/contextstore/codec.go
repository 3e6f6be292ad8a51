package contextstore

import (
	"fmt"

	"life_tracker/src/model"

	"github.com/bytedance/sonic"
)

// recordJSON keeps integers in open descriptors as int64 instead of float64
var recordJSON = sonic.Config{UseInt64: true}.Froze()

func encodeRecord(rec *model.ContextRecord) ([]byte, error) {
	rec.Normalize()
	data, err := sonic.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal context record: %w", err)
	}
	return data, nil
}

func decodeRecord(data []byte) (*model.ContextRecord, error) {
	var rec model.ContextRecord
	if err := recordJSON.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	if err := validateRecord(&rec); err != nil {
		return nil, err
	}
	rec.Normalize()
	return &rec, nil
}

func validateRecord(rec *model.ContextRecord) error {
	if rec.CurrentSet < 1 {
		return fmt.Errorf("current_set must be >= 1, got %d", rec.CurrentSet)
	}
	if rec.CurrentExerciseIndex < 0 || rec.CurrentExerciseIndex > len(rec.PlannedExercises) {
		return fmt.Errorf("current_exercise_index %d out of range [0, %d]", rec.CurrentExerciseIndex, len(rec.PlannedExercises))
	}
	return nil
}

// knownFields is the set of keys accepted by UpdateContext
var knownFields = map[string]struct{}{
	model.FieldWorkoutActive:        {},
	model.FieldWorkoutStarted:       {},
	model.FieldCurrentRoutine:       {},
	model.FieldPlannedExercises:     {},
	model.FieldCurrentExerciseIndex: {},
	model.FieldCurrentSet:           {},
	model.FieldLastWeight:           {},
	model.FieldCompletedExercises:   {},
	model.FieldToday:                {},
}

// applyUpdates overlays updates onto rec field by field. The record goes
// through its document form so each key replaces the whole field.
func applyUpdates(rec *model.ContextRecord, updates Updates) (*model.ContextRecord, error) {
	for k := range updates {
		if _, ok := knownFields[k]; !ok {
			return nil, fmt.Errorf("%w: unknown field %q", ErrInvalidUpdate, k)
		}
	}

	data, err := sonic.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal context record: %w", err)
	}
	doc := make(map[string]any)
	if err := recordJSON.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal context document: %w", err)
	}
	for k, v := range updates {
		doc[k] = v
	}

	merged, err := sonic.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUpdate, err)
	}
	var out model.ContextRecord
	if err := recordJSON.Unmarshal(merged, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUpdate, err)
	}
	if err := validateRecord(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUpdate, err)
	}
	out.Normalize()
	return &out, nil
}
