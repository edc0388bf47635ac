package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/wricardo/rat-race-game/game/engine"
	"github.com/wricardo/rat-race-game/game/lobby"
	"github.com/wricardo/rat-race-game/internal/platform/random"
)

// ConfigLoader resolves a ruleset by name. An empty name means the default.
type ConfigLoader interface {
	LoadConfig(name string) (*engine.GameConfig, error)
}

// Manager owns the running games of the server: one engine per playing
// room, the per-room locks that serialize actions, and the background
// persistence of room snapshots.
type Manager struct {
	directory *lobby.Directory
	configs   ConfigLoader
	store     RoomPersistence
	persister *Persister
	logger    *slog.Logger
	newRand   func() (*rand.Rand, error)
	now       func() time.Time

	mu      sync.RWMutex
	engines map[string]*engine.GameEngine

	locksMu sync.Mutex
	locks   map[string]*roomLock
}

type roomLock struct {
	mu   sync.Mutex
	refs int
}

// Option configures a Manager.
type Option func(*Manager)

// WithStore enables persistence of room snapshots to store.
func WithStore(store RoomPersistence) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithLogger sets the logger. slog.Default() is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithRandFactory sets how each new engine gets its random source.
func WithRandFactory(newRand func() (*rand.Rand, error)) Option {
	return func(m *Manager) {
		m.newRand = newRand
	}
}

// WithClock sets the time source used by CleanupIdle.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a session manager over the given room directory.
func NewManager(directory *lobby.Directory, configs ConfigLoader, opts ...Option) *Manager {
	m := &Manager{
		directory: directory,
		configs:   configs,
		logger:    slog.Default(),
		newRand:   random.NewRand,
		now:       time.Now,
		engines:   make(map[string]*engine.GameEngine),
		locks:     make(map[string]*roomLock),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.store != nil {
		m.persister = NewPersister(m.store, m.logger)
	}
	return m
}

// Directory returns the room directory the manager serves.
func (m *Manager) Directory() *lobby.Directory {
	return m.directory
}

// WithRoom runs fn while holding the lock of roomID. Actions on different
// rooms never wait on each other.
func (m *Manager) WithRoom(roomID string, fn func() error) error {
	m.locksMu.Lock()
	l, ok := m.locks[roomID]
	if !ok {
		l = &roomLock{}
		m.locks[roomID] = l
	}
	l.refs++
	m.locksMu.Unlock()

	l.mu.Lock()
	defer func() {
		l.mu.Unlock()

		m.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, roomID)
		}
		m.locksMu.Unlock()
	}()

	return fn()
}

// Engine returns the running engine of a room.
func (m *Manager) Engine(roomID string) (*engine.GameEngine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	eng, ok := m.engines[roomID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, roomID)
	}
	return eng, nil
}

// StartEngine returns the engine of a room, creating it when missing. A
// room carrying a snapshot is rehydrated from it; otherwise a new game is
// dealt from the room's roster.
func (m *Manager) StartEngine(room *lobby.Room) (*engine.GameEngine, error) {
	if room == nil || room.ID == "" {
		return nil, ErrInvalidRoomID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if eng, ok := m.engines[room.ID]; ok {
		return eng, nil
	}

	cfg, err := m.configs.LoadConfig(room.ConfigName)
	if err != nil {
		return nil, fmt.Errorf("failed to load ruleset %q: %w", room.ConfigName, err)
	}
	rng, err := m.newRand()
	if err != nil {
		return nil, err
	}

	var eng *engine.GameEngine
	if room.GameState != nil {
		eng, err = engine.LoadSnapshot(room.GameState, cfg,
			engine.WithRand(rng), engine.WithLogger(m.logger))
	} else {
		eng, err = engine.NewEngine(room.ID, room.Seats(), cfg,
			engine.WithRand(rng), engine.WithTurnSeconds(room.Timer), engine.WithLogger(m.logger))
	}
	if err != nil {
		return nil, err
	}

	m.engines[room.ID] = eng
	return eng, nil
}

// Teardown drops the engine of a room. It reports whether one was running.
func (m *Manager) Teardown(roomID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.engines[roomID]; !ok {
		return false
	}
	delete(m.engines, roomID)
	return true
}

// Commit copies the engine's snapshot into the room directory and
// schedules the room for persistence. Callers hold the room lock.
func (m *Manager) Commit(roomID string) (*lobby.Room, *engine.GameState, error) {
	eng, err := m.Engine(roomID)
	if err != nil {
		return nil, nil, err
	}
	state := eng.GetState()
	room, err := m.directory.UpdateGameState(roomID, state)
	if err != nil {
		return nil, nil, err
	}
	m.Save(room)
	return room, state, nil
}

// Save schedules a room for persistence. It never blocks on storage.
func (m *Manager) Save(room *lobby.Room) {
	if m.persister == nil || room == nil {
		return
	}
	m.persister.Enqueue(room)
}

// Delete removes a room from persistence and drops its engine.
func (m *Manager) Delete(roomID string) {
	if m.Teardown(roomID) {
		m.logger.Info("game torn down", "room_id", roomID)
	}
	if m.persister != nil {
		m.persister.EnqueueDelete(roomID)
	}
}

// Recover loads every persisted room into the directory and rebuilds the
// engines of playing rooms. Rooms that cannot be restored are logged and
// skipped. It returns the number of rooms restored.
func (m *Manager) Recover(ctx context.Context) (int, error) {
	if m.store == nil {
		return 0, nil
	}

	ids, err := m.store.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list persisted rooms: %w", err)
	}

	restored := 0
	for _, id := range ids {
		room, err := m.store.Load(ctx, id)
		if err != nil {
			m.logger.Warn("failed to load persisted room", "room_id", id, "error", err)
			continue
		}
		if room.Status == lobby.StatusPlaying {
			if room.GameState == nil {
				m.logger.Warn("playing room has no snapshot", "room_id", id)
				continue
			}
			if _, err := m.StartEngine(room); err != nil {
				m.logger.Warn("failed to rehydrate game", "room_id", id, "error", err)
				continue
			}
		}
		if err := m.directory.Restore(room); err != nil {
			m.Teardown(room.ID)
			m.logger.Warn("failed to restore room", "room_id", id, "error", err)
			continue
		}
		restored++
	}

	if restored > 0 {
		m.logger.Info("recovered persisted rooms", "count", restored, "games", m.Count())
	}
	return restored, nil
}

// ActiveRoomIDs returns the ids of rooms with a running engine, sorted.
func (m *Manager) ActiveRoomIDs() []string {
	m.mu.RLock()
	ids := make([]string, 0, len(m.engines))
	for id := range m.engines {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Count returns the number of running engines.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.engines)
}

// SaveAll queues every room in the directory and waits for the writes.
func (m *Manager) SaveAll(ctx context.Context) error {
	if m.persister == nil {
		return nil
	}
	for _, room := range m.directory.List() {
		m.persister.Enqueue(room)
	}
	return m.persister.Flush(ctx)
}

// Flush waits for queued writes.
func (m *Manager) Flush(ctx context.Context) error {
	if m.persister == nil {
		return nil
	}
	return m.persister.Flush(ctx)
}

// Close flushes pending writes and stops the persister.
func (m *Manager) Close(ctx context.Context) error {
	if m.persister == nil {
		return nil
	}
	return m.persister.Close(ctx)
}

// CleanupIdle deletes waiting rooms created more than maxAge ago. Playing
// rooms are kept. It returns the ids removed.
func (m *Manager) CleanupIdle(maxAge time.Duration) []string {
	cutoff := m.now().Add(-maxAge)

	var removed []string
	for _, room := range m.directory.ListWaiting() {
		if !room.CreatedAt.Before(cutoff) {
			continue
		}
		err := m.WithRoom(room.ID, func() error {
			current, err := m.directory.GetRoom(room.ID)
			if err != nil {
				return err
			}
			if current.Status != lobby.StatusWaiting {
				return errStillActive
			}
			m.directory.Delete(room.ID)
			m.Delete(room.ID)
			return nil
		})
		if err == nil {
			removed = append(removed, room.ID)
		}
	}

	if len(removed) > 0 {
		m.logger.Info("removed idle rooms", "count", len(removed))
	}
	return removed
}

var errStillActive = errors.New("room became active")
