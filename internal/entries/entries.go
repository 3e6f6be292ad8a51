package entries

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"life_tracker/src/logger"
	"life_tracker/src/model"

	"github.com/google/uuid"
)

// ErrNotTrackable is returned for intents that carry no tracker entry
var ErrNotTrackable = errors.New("intent is not a trackable entry")

// Ack reports what happened to a tracked entry
type Ack struct {
	EntryID   string `json:"entry_id"`
	Persisted bool   `json:"persisted"`
}

// Persister stores tracker entries produced from interpreted intents
type Persister interface {
	Persist(ctx context.Context, userID string, intent model.Intent) (Ack, error)
}

// History lists recently tracked entries
type History interface {
	Recent(ctx context.Context, userID, tracker string, limit int) ([]Entry, error)
}

// Entry is one row of durable tracker data
type Entry struct {
	ID        uuid.UUID      `json:"id"`
	UserID    string         `json:"-"`
	Tracker   string         `json:"tracker"`
	Data      map[string]any `json:"data"`
	Message   string         `json:"message,omitempty"`
	CreatedAt time.Time      `json:"timestamp"`
}

// buildEntry turns a track intent into an Entry
func buildEntry(userID string, intent model.Intent, now time.Time) (Entry, error) {
	if intent.Action != model.ActionTrack {
		return Entry{}, fmt.Errorf("%w: action %q", ErrNotTrackable, intent.Action)
	}
	tracker := strings.TrimSpace(intent.Tracker)
	if tracker == "" {
		return Entry{}, fmt.Errorf("%w: missing tracker", ErrNotTrackable)
	}
	data := intent.Data
	if data == nil {
		data = map[string]any{}
	}
	return Entry{
		ID:        uuid.New(),
		UserID:    userID,
		Tracker:   tracker,
		Data:      data,
		Message:   intent.Message,
		CreatedAt: now.UTC(),
	}, nil
}

// LogPersister only logs entries. It is used when no database is configured.
type LogPersister struct {
	now func() time.Time
}

// NewLogPersister creates a LogPersister
func NewLogPersister() *LogPersister {
	return &LogPersister{now: time.Now}
}

// Persist logs the entry and reports it as not persisted
func (p *LogPersister) Persist(ctx context.Context, userID string, intent model.Intent) (Ack, error) {
	entry, err := buildEntry(userID, intent, p.now())
	if err != nil {
		return Ack{}, err
	}

	logger.Info().
		Str("user_id", userID).
		Str("entry_id", entry.ID.String()).
		Str("tracker", entry.Tracker).
		Interface("data", entry.Data).
		Msg("Tracker entry received (no database configured)")

	return Ack{EntryID: entry.ID.String(), Persisted: false}, nil
}

// Recent always returns nothing because entries are not kept
func (p *LogPersister) Recent(ctx context.Context, userID, tracker string, limit int) ([]Entry, error) {
	return []Entry{}, nil
}
