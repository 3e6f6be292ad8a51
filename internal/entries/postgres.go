package entries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"life_tracker/src/logger"
	"life_tracker/src/model"

	"github.com/bytedance/sonic"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const insertEntrySQL = `INSERT INTO tracker_entries (id, user_id, tracker, data, message, created_at)
VALUES ($1, $2, $3, $4::jsonb, $5, $6)`

const (
	// DefaultHistoryLimit applies when the caller asks for no limit
	DefaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// execer is the part of pgxpool.Pool the persister needs
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresPersister writes tracker entries to PostgreSQL
type PostgresPersister struct {
	db   execer
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresPersister connects a pool to dsn and verifies it answers
func NewPostgresPersister(ctx context.Context, dsn string) (*PostgresPersister, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &PostgresPersister{db: pool, pool: pool, now: time.Now}, nil
}

func newPersisterWithExecer(db execer, now func() time.Time) *PostgresPersister {
	return &PostgresPersister{db: db, now: now}
}

// Close releases the connection pool
func (p *PostgresPersister) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// Persist inserts one tracker entry row
func (p *PostgresPersister) Persist(ctx context.Context, userID string, intent model.Intent) (Ack, error) {
	entry, err := buildEntry(userID, intent, p.now())
	if err != nil {
		return Ack{}, err
	}

	data, err := sonic.Marshal(entry.Data)
	if err != nil {
		return Ack{}, fmt.Errorf("encoding entry data: %w", err)
	}

	tag, err := p.db.Exec(ctx, insertEntrySQL,
		entry.ID, entry.UserID, entry.Tracker, string(data), entry.Message, entry.CreatedAt)
	if err != nil {
		return Ack{}, fmt.Errorf("inserting entry: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return Ack{}, fmt.Errorf("inserting entry: %d rows affected", tag.RowsAffected())
	}

	logger.Debug().
		Str("user_id", userID).
		Str("entry_id", entry.ID.String()).
		Str("tracker", entry.Tracker).
		Msg("Tracker entry persisted")

	return Ack{EntryID: entry.ID.String(), Persisted: true}, nil
}

// Recent returns the newest entries for userID, optionally filtered by tracker
func (p *PostgresPersister) Recent(ctx context.Context, userID, tracker string, limit int) ([]Entry, error) {
	limit = clampLimit(limit)

	rows, err := p.db.Query(ctx, `
		SELECT id, user_id, tracker, data, message, created_at
		FROM tracker_entries
		WHERE user_id = $1 AND ($2::text = '' OR tracker = $2::text)
		ORDER BY created_at DESC
		LIMIT $3`, userID, tracker, limit)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	result := []Entry{}
	for rows.Next() {
		var e Entry
		var raw []byte
		if err := rows.Scan(&e.ID, &e.UserID, &e.Tracker, &raw, &e.Message, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		if err := sonic.Unmarshal(raw, &e.Data); err != nil {
			return nil, fmt.Errorf("decoding entry %s: %w", e.ID, err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > maxHistoryLimit:
		return maxHistoryLimit
	default:
		return limit
	}
}

// RunMigrations applies all pending migrations from the given directory
func RunMigrations(dsn, migrationsPath string) error {
	m, err := migrate.New("file://"+migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}
