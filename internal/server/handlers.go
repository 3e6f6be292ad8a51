package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"life_tracker/internal/schedule"
	"life_tracker/src/contextstore"
	"life_tracker/src/logger"
	"life_tracker/src/model"
	"life_tracker/src/workout"

	"github.com/bytedance/sonic"
)

const maxBodyBytes = 1 << 20

type chatRequest struct {
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

type chatResponse struct {
	Action    model.Action   `json:"action"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	Component string         `json:"component,omitempty"`
	Tracker   string         `json:"tracker,omitempty"`
	EntryID   string         `json:"entry_id,omitempty"`
}

type startWorkoutRequest struct {
	RoutineName *string          `json:"routine_name"`
	Exercises   []model.Exercise `json:"exercises"`
	Force       bool             `json:"force"`
}

type recordSetRequest struct {
	Weight *float64 `json:"weight"`
	Reps   *int     `json:"reps"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Store.Ping(r.Context()); err != nil {
		logger.Warn().Err(err).Msg("Health check failed")
		writeError(w, http.StatusServiceUnavailable, "context store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := UserID(ctx)

	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	rec, err := s.deps.Store.GetContext(ctx, userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	intent := s.deps.Interpreter.Interpret(ctx, req.Message, rec, req.Context)
	resp := chatResponse{
		Action:    intent.Action,
		Message:   intent.Message,
		Data:      intent.Data,
		Component: intent.Component,
		Tracker:   intent.Tracker,
	}

	switch intent.Action {
	case model.ActionTrack:
		if err := s.applyTrack(r, userID, rec, intent, &resp); err != nil {
			writeDomainError(w, err)
			return
		}
	case model.ActionCreateRoutine, model.ActionUpdateRoutine:
		resp.Data = withRRule(intent.Data)
	}

	logger.WithUser(userID).Debug().Str("action", string(intent.Action)).Msg("Chat message handled")
	writeJSON(w, http.StatusOK, resp)
}

// applyTrack stores the entry best-effort and advances the set counter when
// the entry belongs to an open session.
func (s *Server) applyTrack(r *http.Request, userID string, rec *model.ContextRecord, intent model.Intent, resp *chatResponse) error {
	ctx := r.Context()
	log := logger.WithUser(userID)

	if intent.Tracker != "" && len(intent.Data) > 0 {
		ack, err := s.deps.Entries.Persist(ctx, userID, intent)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("tracker", intent.Tracker).Msg("Failed to persist tracker entry")
		case ack.Persisted:
			resp.EntryID = ack.EntryID
		}
	}

	if !rec.WorkoutActive {
		return nil
	}
	weight, reps, ok := setFromData(intent.Data, rec.LastWeight)
	if !ok {
		return nil
	}
	if _, err := s.deps.Workout.RecordSet(ctx, userID, weight, reps); err != nil {
		if errors.Is(err, workout.ErrInvalidInput) {
			log.Warn().Err(err).Msg("Ignoring set with invalid values")
			return nil
		}
		return err
	}
	return nil
}

// setFromData reads weight and reps from tracked data. Only an absent weight
// is inferred from the last recorded one; an unreadable weight means no set,
// as do zero values.
func setFromData(data map[string]any, lastWeight *float64) (float64, int, bool) {
	var weight float64
	var ok bool
	if raw, present := data["weight"]; present {
		weight, ok = number(raw)
	} else if lastWeight != nil {
		weight, ok = *lastWeight, true
	}
	reps, repsOK := number(data["reps"])
	if !ok || !repsOK || weight == 0 || reps == 0 {
		return 0, 0, false
	}
	return weight, int(reps), true
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// withRRule adds an "rrule" key next to a recognised "schedule"
func withRRule(data map[string]any) map[string]any {
	sched, ok := data["schedule"].(string)
	if !ok {
		return data
	}
	rrule, ok := schedule.ParseRRule(sched)
	if !ok {
		return data
	}
	out := make(map[string]any, len(data)+1)
	for k, v := range data {
		out[k] = v
	}
	out["rrule"] = rrule
	return out
}

func (s *Server) handleStartWorkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := UserID(ctx)

	var req startWorkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.RoutineName == nil {
		if name := r.URL.Query().Get("routine_name"); name != "" {
			req.RoutineName = &name
		}
	}

	if err := s.deps.Workout.StartWorkout(ctx, userID, req.RoutineName, req.Exercises, req.Force); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "started", "routine": req.RoutineName})
}

func (s *Server) handleEndWorkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := UserID(ctx)

	summary, err := s.deps.Workout.EndWorkout(ctx, userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ended", "summary": summary})
}

func (s *Server) handleRecordSet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := UserID(ctx)

	var req recordSetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Weight == nil || req.Reps == nil {
		writeError(w, http.StatusBadRequest, "weight and reps are required")
		return
	}

	rec, err := s.deps.Workout.RecordSet(ctx, userID, *req.Weight, *req.Reps)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "recorded",
		"current_set": rec.CurrentSet,
		"last_weight": rec.LastWeight,
	})
}

func (s *Server) handleNextExercise(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := UserID(ctx)

	exercise, ok, err := s.deps.Workout.NextExercise(ctx, userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"exercise": exercise, "done": !ok})
}

func (s *Server) handleCurrentExercise(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := UserID(ctx)

	state, err := s.deps.Workout.State(ctx, userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"exercise": state.Exercise,
		"state":    state.Phase,
		"index":    state.Index,
	})
}

func (s *Server) handleGetContext(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := UserID(ctx)

	rec, err := s.deps.Store.GetContext(ctx, userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := UserID(ctx)

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	list, err := s.deps.Entries.Recent(ctx, userID, r.URL.Query().Get("tracker"), limit)
	if err != nil {
		logger.WithUser(userID).Error().Err(err).Msg("Failed to load history")
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// writeDomainError maps store and state machine errors onto HTTP statuses
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, contextstore.ErrUnavailable):
		logger.Error().Err(err).Msg("Context store unavailable")
		writeError(w, http.StatusServiceUnavailable, "context store unavailable, try again")
	case errors.Is(err, contextstore.ErrMalformedRecord):
		writeError(w, http.StatusInternalServerError, "stored context is corrupt")
	case errors.Is(err, contextstore.ErrInvalidUserID):
		writeError(w, http.StatusUnauthorized, "unknown user")
	case errors.Is(err, workout.ErrWorkoutInProgress):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, workout.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error().Err(err).Msg("Unhandled error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	return sonic.Unmarshal(body, v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to encode response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
