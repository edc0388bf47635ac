package lobby

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/rat-race-game/game/engine"
)

// CreateRoomRequest describes a new room and its creator.
type CreateRoomRequest struct {
	ConnectionID string
	UserID       string
	PlayerName   string
	Name         string
	MaxPlayers   int
	Timer        int
	Password     string
	ConfigName   string
}

// JoinRoomRequest identifies a player joining or rejoining a room.
type JoinRoomRequest struct {
	RoomID       string
	ConnectionID string
	UserID       string
	PlayerName   string
	Password     string
}

// ReadyRequest updates a member's readiness and identity choices.
type ReadyRequest struct {
	RoomID       string
	ConnectionID string
	UserID       string
	Ready        bool
	Dream        string
	Token        string
	Profession   string
}

// Directory is the in-memory index of rooms. All methods are safe for
// concurrent use and exchange copies, never the stored rooms.
type Directory struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	now   func() time.Time
	newID func() string
}

// DirectoryOption configures a Directory.
type DirectoryOption func(*Directory)

// WithClock sets the time source used for creation timestamps.
func WithClock(now func() time.Time) DirectoryOption {
	return func(d *Directory) {
		d.now = now
	}
}

// WithIDGenerator sets the room id generator.
func WithIDGenerator(newID func() string) DirectoryOption {
	return func(d *Directory) {
		d.newID = newID
	}
}

// NewDirectory creates an empty directory.
func NewDirectory(opts ...DirectoryOption) *Directory {
	d := &Directory{
		rooms: make(map[string]*Room),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// CreateRoom opens a waiting room with the creator as its only member.
func (d *Directory) CreateRoom(req CreateRoomRequest) (*Room, error) {
	if req.ConnectionID == "" || req.UserID == "" {
		return nil, fmt.Errorf("%w: connection and user are required", ErrInvalidArgument)
	}
	if req.Name == "" {
		return nil, fmt.Errorf("%w: room name is required", ErrInvalidArgument)
	}
	if req.MaxPlayers == 0 {
		req.MaxPlayers = DefaultMaxPlayers
	}
	if req.MaxPlayers < 1 || req.MaxPlayers > MaxPlayersLimit {
		return nil, fmt.Errorf("%w: max players must be between 1 and %d", ErrInvalidArgument, MaxPlayersLimit)
	}
	if req.Timer == 0 {
		req.Timer = DefaultTimer
	}
	if req.Timer < 0 {
		return nil, fmt.Errorf("%w: timer must not be negative", ErrInvalidArgument)
	}
	if req.PlayerName == "" {
		req.PlayerName = DefaultPlayerName
	}

	room := &Room{
		ID:         d.newID(),
		Name:       req.Name,
		MaxPlayers: req.MaxPlayers,
		Timer:      req.Timer,
		Password:   req.Password,
		ConfigName: req.ConfigName,
		CreatorID:  req.ConnectionID,
		Status:     StatusWaiting,
		CreatedAt:  d.now(),
		Players: []Member{{
			ConnectionID: req.ConnectionID,
			UserID:       req.UserID,
			Name:         req.PlayerName,
		}},
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.rooms[room.ID]; exists {
		return nil, fmt.Errorf("%w: room id %s already in use", ErrInvalidArgument, room.ID)
	}
	d.rooms[room.ID] = room
	return room.Clone(), nil
}

// JoinRoom adds a player, or updates the connection and name of a player
// already seated under the same user id. A returning creator keeps the
// creator role on the new connection.
func (d *Directory) JoinRoom(req JoinRoomRequest) (*Room, error) {
	if req.ConnectionID == "" || req.UserID == "" {
		return nil, fmt.Errorf("%w: connection and user are required", ErrInvalidArgument)
	}
	if req.PlayerName == "" {
		req.PlayerName = DefaultPlayerName
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	room, ok := d.rooms[req.RoomID]
	if !ok {
		return nil, ErrRoomNotFound
	}

	idx, member := room.MemberByUser(req.UserID)
	if room.Status != StatusWaiting && !member {
		return nil, ErrRoomStarted
	}
	if !member && len(room.Players) >= room.MaxPlayers {
		return nil, ErrRoomFull
	}
	if room.Password != "" && room.Password != req.Password {
		return nil, ErrWrongPassword
	}

	if member {
		oldConnection := room.Players[idx].ConnectionID
		room.Players[idx].ConnectionID = req.ConnectionID
		room.Players[idx].Name = req.PlayerName
		if room.CreatorID == oldConnection {
			room.CreatorID = req.ConnectionID
		}
	} else {
		room.Players = append(room.Players, Member{
			ConnectionID: req.ConnectionID,
			UserID:       req.UserID,
			Name:         req.PlayerName,
		})
	}

	return room.Clone(), nil
}

// LeaveRoom removes the member using connectionID. An emptied room is
// deleted and deleted is true; otherwise a departing creator hands the
// role to the earliest remaining member.
func (d *Directory) LeaveRoom(roomID, connectionID string) (room *Room, deleted bool, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.removeLocked(roomID, connectionID)
}

// KickPlayer removes another member. Only the creator may kick, and not
// themselves.
func (d *Directory) KickPlayer(roomID, requesterConnectionID, targetConnectionID string) (*Room, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, ok := d.rooms[roomID]
	if !ok {
		return nil, false, ErrRoomNotFound
	}
	if !room.IsCreator(requesterConnectionID) {
		return nil, false, ErrNotCreator
	}
	if requesterConnectionID == targetConnectionID {
		return nil, false, ErrCannotKickSelf
	}
	return d.removeLocked(roomID, targetConnectionID)
}

func (d *Directory) removeLocked(roomID, connectionID string) (*Room, bool, error) {
	room, ok := d.rooms[roomID]
	if !ok {
		return nil, false, ErrRoomNotFound
	}
	idx, ok := room.MemberByConnection(connectionID)
	if !ok {
		return nil, false, ErrNotInRoom
	}

	room.Players = append(room.Players[:idx], room.Players[idx+1:]...)
	if len(room.Players) == 0 {
		delete(d.rooms, roomID)
		return room.Clone(), true, nil
	}
	if room.CreatorID == connectionID {
		room.CreatorID = room.Players[0].ConnectionID
	}
	return room.Clone(), false, nil
}

// SetPlayerReady records a member's ready flag, dream, token and
// profession. Every ready request names its dream. A request from a stale
// connection is re-linked to the member by user id first.
func (d *Directory) SetPlayerReady(req ReadyRequest) (*Room, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, ok := d.rooms[req.RoomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if room.Status != StatusWaiting {
		return nil, ErrRoomStarted
	}

	idx, ok := room.MemberByConnection(req.ConnectionID)
	relink := false
	if !ok && req.UserID != "" {
		idx, ok = room.MemberByUser(req.UserID)
		relink = ok
	}
	if !ok {
		return nil, ErrNotInRoom
	}
	member := &room.Players[idx]

	if req.Ready && req.Dream == "" {
		return nil, ErrDreamRequired
	}
	if req.Token != "" {
		for i, other := range room.Players {
			if i != idx && other.Token == req.Token {
				return nil, ErrTokenTaken
			}
		}
	}

	if relink {
		if room.CreatorID == member.ConnectionID {
			room.CreatorID = req.ConnectionID
		}
		member.ConnectionID = req.ConnectionID
	}
	if req.Token != "" {
		member.Token = req.Token
	}
	if req.Profession != "" {
		member.Profession = req.Profession
	}
	if req.Dream != "" {
		member.Dream = req.Dream
	}
	member.Ready = req.Ready

	return room.Clone(), nil
}

// CheckAllReady reports whether the room exists, has members and every
// member is ready.
func (d *Directory) CheckAllReady(roomID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	room, ok := d.rooms[roomID]
	return ok && room.AllReady()
}

// CanStart checks that the connection may start the room's game now.
func (d *Directory) CanStart(roomID, connectionID string) (*Room, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	room, ok := d.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if err := canStart(room, connectionID); err != nil {
		return nil, err
	}
	return room.Clone(), nil
}

func canStart(room *Room, connectionID string) error {
	if room.Status != StatusWaiting {
		return ErrRoomStarted
	}
	if !room.IsCreator(connectionID) {
		return ErrNotCreator
	}
	if !room.AllReady() {
		return ErrNotAllReady
	}
	return nil
}

// StartGame moves the room to playing with its initial snapshot. The
// transition is one-way.
func (d *Directory) StartGame(roomID, connectionID string, state *engine.GameState) (*Room, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, ok := d.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if err := canStart(room, connectionID); err != nil {
		return nil, err
	}

	room.Status = StatusPlaying
	room.GameState = state.Clone()
	return room.Clone(), nil
}

// UpdateGameState stores the latest snapshot of a playing room.
func (d *Directory) UpdateGameState(roomID string, state *engine.GameState) (*Room, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, ok := d.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if room.Status != StatusPlaying {
		return nil, fmt.Errorf("%w: room %s is not playing", ErrInvalidArgument, roomID)
	}
	room.GameState = state.Clone()
	return room.Clone(), nil
}

// GetRoom returns a room by id.
func (d *Directory) GetRoom(roomID string) (*Room, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	room, ok := d.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room.Clone(), nil
}

// ListWaiting returns the rooms still accepting players, newest first.
func (d *Directory) ListWaiting() []*Room {
	return d.list(func(r *Room) bool { return r.Status == StatusWaiting })
}

// List returns every room, newest first.
func (d *Directory) List() []*Room {
	return d.list(func(*Room) bool { return true })
}

func (d *Directory) list(keep func(*Room) bool) []*Room {
	d.mu.RLock()
	result := make([]*Room, 0, len(d.rooms))
	for _, room := range d.rooms {
		if keep(room) {
			result = append(result, room.Clone())
		}
	}
	d.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

// Restore puts a persisted room back into the directory as is.
func (d *Directory) Restore(room *Room) error {
	if room == nil || room.ID == "" {
		return fmt.Errorf("%w: room id is required", ErrInvalidArgument)
	}
	switch room.Status {
	case StatusWaiting, StatusPlaying:
	default:
		return fmt.Errorf("%w: room %s has unknown status %q", ErrInvalidArgument, room.ID, room.Status)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.rooms[room.ID] = room.Clone()
	return nil
}

// Delete drops a room.
func (d *Directory) Delete(roomID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.rooms[roomID]; !ok {
		return false
	}
	delete(d.rooms, roomID)
	return true
}

// Count returns the number of rooms.
func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rooms)
}
