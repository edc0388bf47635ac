// Package postgres stores rooms in PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wricardo/rat-race-game/game/lobby"
	"github.com/wricardo/rat-race-game/game/session"
)

const schema = `
CREATE TABLE IF NOT EXISTS rat_race_rooms (
	id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	data JSONB NOT NULL,
	saved_at TIMESTAMPTZ NOT NULL
)`

// Store implements session.RoomPersistence over PostgreSQL.
type Store struct {
	db  *pgxpool.Pool
	log *slog.Logger
	now func() time.Time
}

// Connect opens a pool for databaseURL and ensures the schema exists.
func Connect(ctx context.Context, databaseURL string, logger *slog.Logger) (*Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, errors.New("database url is empty")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := NewStore(pool, logger)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewStore wraps an existing pool. Call Migrate before first use.
func NewStore(db *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, log: logger, now: time.Now}
}

// Migrate creates the rooms table.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the pool.
func (s *Store) Close() {
	s.db.Close()
}

// Save upserts the room.
func (s *Store) Save(ctx context.Context, room *lobby.Room) error {
	if room == nil || room.ID == "" {
		return session.ErrInvalidRoomID
	}
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("marshal room: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO rat_race_rooms (id, status, data, saved_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			data = EXCLUDED.data,
			saved_at = EXCLUDED.saved_at
	`, room.ID, string(room.Status), data, s.now().UTC())
	if err != nil {
		return fmt.Errorf("save room %s: %w", room.ID, err)
	}
	s.log.Debug("room saved", "room_id", room.ID, "status", room.Status)
	return nil
}

// Load reads a room by id.
func (s *Store) Load(ctx context.Context, id string) (*lobby.Room, error) {
	var data []byte
	err := s.db.QueryRow(ctx, `SELECT data FROM rat_race_rooms WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, session.ErrRoomNotPersisted
	}
	if err != nil {
		return nil, fmt.Errorf("load room %s: %w", id, err)
	}

	var room lobby.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, fmt.Errorf("unmarshal room %s: %w", id, err)
	}
	return &room, nil
}

// Delete removes a room.
func (s *Store) Delete(ctx context.Context, id string) error {
	cmd, err := s.db.Exec(ctx, `DELETE FROM rat_race_rooms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete room %s: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return session.ErrRoomNotPersisted
	}
	return nil
}

// ListAll returns every stored room id, oldest save first.
func (s *Store) ListAll(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM rat_race_rooms ORDER BY saved_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan room ids: %w", err)
	}
	return ids, nil
}

// Exists reports whether a room is stored.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rat_race_rooms WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check room %s: %w", id, err)
	}
	return exists, nil
}

var _ session.RoomPersistence = (*Store)(nil)
