package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wricardo/rat-race-game/game/lobby"
)

// FilePersistence implements RoomPersistence with one JSON file per room
type FilePersistence struct {
	roomsDir string
	now      func() time.Time
}

// NewFilePersistence creates a file-based room store in roomsDir
func NewFilePersistence(roomsDir string) (*FilePersistence, error) {
	if err := os.MkdirAll(roomsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create rooms directory: %w", err)
	}

	return &FilePersistence{
		roomsDir: roomsDir,
		now:      time.Now,
	}, nil
}

// Save writes the room to <id>.json through a temporary file, so a crash
// never leaves a half-written snapshot behind.
func (fp *FilePersistence) Save(_ context.Context, room *lobby.Room) error {
	if room == nil {
		return fmt.Errorf("room cannot be nil")
	}
	if err := validRoomID(room.ID); err != nil {
		return err
	}

	data := PersistedRoomData{
		Room:    room,
		SavedAt: fp.now(),
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal room data: %w", err)
	}

	tmp, err := os.CreateTemp(fp.roomsDir, room.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(jsonData); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write room file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write room file: %w", err)
	}
	if err := os.Rename(tmpName, fp.getFilePath(room.ID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace room file: %w", err)
	}

	return nil
}

// Load reads a room from its JSON file
func (fp *FilePersistence) Load(_ context.Context, id string) (*lobby.Room, error) {
	if err := validRoomID(id); err != nil {
		return nil, err
	}

	jsonData, err := os.ReadFile(fp.getFilePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrRoomNotPersisted
		}
		return nil, fmt.Errorf("failed to read room file: %w", err)
	}

	var data PersistedRoomData
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room data: %w", err)
	}
	if data.Room == nil {
		return nil, fmt.Errorf("room file %s has no room", id)
	}

	return data.Room, nil
}

// Delete removes a room file
func (fp *FilePersistence) Delete(ctx context.Context, id string) error {
	exists, err := fp.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrRoomNotPersisted
	}

	if err := os.Remove(fp.getFilePath(id)); err != nil {
		return fmt.Errorf("failed to remove room file: %w", err)
	}

	return nil
}

// ListAll returns all persisted room IDs
func (fp *FilePersistence) ListAll(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(fp.roomsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read rooms directory: %w", err)
	}

	var roomIDs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasSuffix(name, ".json") {
			roomIDs = append(roomIDs, strings.TrimSuffix(name, ".json"))
		}
	}

	return roomIDs, nil
}

// Exists checks if a room file exists
func (fp *FilePersistence) Exists(_ context.Context, id string) (bool, error) {
	if err := validRoomID(id); err != nil {
		return false, err
	}
	_, err := os.Stat(fp.getFilePath(id))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// getFilePath returns the full file path for a room ID
func (fp *FilePersistence) getFilePath(id string) string {
	return filepath.Join(fp.roomsDir, fmt.Sprintf("%s.json", id))
}

func validRoomID(id string) error {
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidRoomID, id)
	}
	return nil
}
