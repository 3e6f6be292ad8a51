package entries

import (
	"context"
	"errors"
	"testing"
	"time"

	"life_tracker/src/model"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingExecer struct {
	sql  string
	args []any
	tag  pgconn.CommandTag
	err  error
}

func (r *recordingExecer) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (r *recordingExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	r.sql = sql
	r.args = args
	return r.tag, r.err
}

var fixedNow = time.Date(2025, 3, 1, 18, 30, 0, 0, time.UTC)

func trackIntent() model.Intent {
	return model.Intent{
		Action:  model.ActionTrack,
		Tracker: "workout",
		Data:    map[string]any{"exercise": "bench", "weight": 80.0, "reps": 8.0},
		Message: "Logged bench 80kg x 8",
	}
}

func TestBuildEntry(t *testing.T) {
	entry, err := buildEntry("u1", trackIntent(), fixedNow)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, entry.ID)
	assert.Equal(t, "u1", entry.UserID)
	assert.Equal(t, "workout", entry.Tracker)
	assert.Equal(t, 80.0, entry.Data["weight"])
	assert.Equal(t, fixedNow, entry.CreatedAt)
}

func TestBuildEntryRejectsNonTrack(t *testing.T) {
	_, err := buildEntry("u1", model.Intent{Action: model.ActionChat}, fixedNow)
	assert.ErrorIs(t, err, ErrNotTrackable)

	_, err = buildEntry("u1", model.Intent{Action: model.ActionTrack, Tracker: "  "}, fixedNow)
	assert.ErrorIs(t, err, ErrNotTrackable)
}

func TestBuildEntryDefaultsEmptyData(t *testing.T) {
	entry, err := buildEntry("u1", model.Intent{Action: model.ActionTrack, Tracker: "mood"}, fixedNow)
	require.NoError(t, err)
	assert.NotNil(t, entry.Data)
	assert.Empty(t, entry.Data)
}

func TestPostgresPersisterInsertsRow(t *testing.T) {
	db := &recordingExecer{tag: pgconn.NewCommandTag("INSERT 0 1")}
	p := newPersisterWithExecer(db, func() time.Time { return fixedNow })

	ack, err := p.Persist(context.Background(), "u1", trackIntent())
	require.NoError(t, err)
	assert.True(t, ack.Persisted)
	assert.NotEmpty(t, ack.EntryID)

	assert.Contains(t, db.sql, "INSERT INTO tracker_entries")
	require.Len(t, db.args, 6)
	assert.Equal(t, ack.EntryID, db.args[0].(uuid.UUID).String())
	assert.Equal(t, "u1", db.args[1])
	assert.Equal(t, "workout", db.args[2])
	assert.Equal(t, fixedNow, db.args[5])

	var data map[string]any
	require.NoError(t, sonic.UnmarshalString(db.args[3].(string), &data))
	assert.Equal(t, "bench", data["exercise"])
}

func TestPostgresPersisterReportsExecFailure(t *testing.T) {
	boom := errors.New("connection reset")
	p := newPersisterWithExecer(&recordingExecer{err: boom}, time.Now)

	_, err := p.Persist(context.Background(), "u1", trackIntent())
	assert.ErrorIs(t, err, boom)
}

func TestPostgresPersisterChecksRowsAffected(t *testing.T) {
	p := newPersisterWithExecer(&recordingExecer{tag: pgconn.NewCommandTag("INSERT 0 0")}, time.Now)

	_, err := p.Persist(context.Background(), "u1", trackIntent())
	assert.Error(t, err)
}

func TestLogPersisterNeverPersists(t *testing.T) {
	p := NewLogPersister()

	ack, err := p.Persist(context.Background(), "u1", trackIntent())
	require.NoError(t, err)
	assert.False(t, ack.Persisted)
	assert.NotEmpty(t, ack.EntryID)

	_, err = p.Persist(context.Background(), "u1", model.Intent{Action: model.ActionQuery})
	assert.ErrorIs(t, err, ErrNotTrackable)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultHistoryLimit, clampLimit(0))
	assert.Equal(t, DefaultHistoryLimit, clampLimit(-5))
	assert.Equal(t, 7, clampLimit(7))
	assert.Equal(t, maxHistoryLimit, clampLimit(10_000))
}

func TestLogPersisterHasNoHistory(t *testing.T) {
	got, err := NewLogPersister().Recent(context.Background(), "u1", "", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}
