// Package sqlite stores rooms in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wricardo/rat-race-game/game/lobby"
	"github.com/wricardo/rat-race-game/game/session"
)

const schema = `CREATE TABLE IF NOT EXISTS rooms (
	id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	data TEXT NOT NULL,
	saved_at TIMESTAMP NOT NULL
);`

// Store implements session.RoomPersistence over SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens the database at path, creating the file and schema if needed.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("database path is empty")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0755); err != nil {
		return nil, fmt.Errorf("ensure db directory: %w", err)
	}

	db, err := sql.Open("sqlite", cleanPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode = WAL; PRAGMA busy_timeout = 5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close releases database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
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

	_, err = s.db.ExecContext(ctx, `
INSERT INTO rooms (id, status, data, saved_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	status = excluded.status,
	data = excluded.data,
	saved_at = excluded.saved_at`,
		room.ID, string(room.Status), string(data), s.now().UTC())
	if err != nil {
		return fmt.Errorf("save room %s: %w", room.ID, err)
	}
	return nil
}

// Load reads a room by id.
func (s *Store) Load(ctx context.Context, id string) (*lobby.Room, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM rooms WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrRoomNotPersisted
	}
	if err != nil {
		return nil, fmt.Errorf("load room %s: %w", id, err)
	}

	var room lobby.Room
	if err := json.Unmarshal([]byte(data), &room); err != nil {
		return nil, fmt.Errorf("unmarshal room %s: %w", id, err)
	}
	return &room, nil
}

// Delete removes a room.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete room %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete room %s: %w", id, err)
	}
	if n == 0 {
		return session.ErrRoomNotPersisted
	}
	return nil
}

// ListAll returns every stored room id, oldest save first.
func (s *Store) ListAll(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM rooms ORDER BY saved_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan room id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Exists reports whether a room is stored.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM rooms WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check room %s: %w", id, err)
	}
	return true, nil
}

var _ session.RoomPersistence = (*Store)(nil)
