package session

import (
	"context"
	"time"

	"github.com/wricardo/rat-race-game/game/lobby"
)

// RoomPersistence stores the latest snapshot of each room.
type RoomPersistence interface {
	// Save writes a room, replacing any earlier copy
	Save(ctx context.Context, room *lobby.Room) error

	// Load retrieves a room by ID, or ErrRoomNotPersisted
	Load(ctx context.Context, id string) (*lobby.Room, error)

	// Delete removes a room, or returns ErrRoomNotPersisted
	Delete(ctx context.Context, id string) error

	// ListAll returns all persisted room IDs
	ListAll(ctx context.Context) ([]string, error)

	// Exists checks if a room is stored
	Exists(ctx context.Context, id string) (bool, error)
}

// PersistedRoomData is the JSON document written for each room
type PersistedRoomData struct {
	Room    *lobby.Room `json:"room"`
	SavedAt time.Time   `json:"saved_at"`
}
