package session

import (
	"context"
	"sort"
	"sync"

	"github.com/wricardo/rat-race-game/game/lobby"
)

// MemoryPersistence keeps rooms in process memory. Nothing survives a
// restart; it backs tests and the "memory" storage driver.
type MemoryPersistence struct {
	mu    sync.RWMutex
	rooms map[string]*lobby.Room
}

// NewMemoryPersistence creates an empty in-memory store
func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{rooms: make(map[string]*lobby.Room)}
}

func (mp *MemoryPersistence) Save(_ context.Context, room *lobby.Room) error {
	if room == nil || room.ID == "" {
		return ErrInvalidRoomID
	}
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.rooms[room.ID] = room.Clone()
	return nil
}

func (mp *MemoryPersistence) Load(_ context.Context, id string) (*lobby.Room, error) {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	room, ok := mp.rooms[id]
	if !ok {
		return nil, ErrRoomNotPersisted
	}
	return room.Clone(), nil
}

func (mp *MemoryPersistence) Delete(_ context.Context, id string) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if _, ok := mp.rooms[id]; !ok {
		return ErrRoomNotPersisted
	}
	delete(mp.rooms, id)
	return nil
}

func (mp *MemoryPersistence) ListAll(_ context.Context) ([]string, error) {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	ids := make([]string, 0, len(mp.rooms))
	for id := range mp.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (mp *MemoryPersistence) Exists(_ context.Context, id string) (bool, error) {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	_, ok := mp.rooms[id]
	return ok, nil
}
