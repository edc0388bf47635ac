package lobby

import (
	"time"

	"github.com/wricardo/rat-race-game/game/engine"
)

// Status is the lifecycle state of a room. It only moves forward.
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusPlaying Status = "playing"

	DefaultMaxPlayers = 6
	MaxPlayersLimit   = 8
	DefaultTimer      = engine.DefaultTurnSeconds
	DefaultPlayerName = "Player"
)

// Member is a player seated in a room.
type Member struct {
	ConnectionID string `json:"connection_id"`
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	Ready        bool   `json:"ready"`
	Dream        string `json:"dream,omitempty"`
	Token        string `json:"token,omitempty"`
	Profession   string `json:"profession,omitempty"`
}

// Room is the unit of persistence: membership plus, once playing, the
// latest game snapshot.
type Room struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	MaxPlayers int               `json:"max_players"`
	Timer      int               `json:"timer"`
	Password   string            `json:"password,omitempty"`
	ConfigName string            `json:"config_name,omitempty"`
	CreatorID  string            `json:"creator_id"`
	Status     Status            `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
	Players    []Member          `json:"players"`
	GameState  *engine.GameState `json:"game_state,omitempty"`
}

// RoomView is what clients see of a room. The password is never exposed.
type RoomView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	MaxPlayers  int       `json:"max_players"`
	PlayerCount int       `json:"player_count"`
	Timer       int       `json:"timer"`
	HasPassword bool      `json:"has_password"`
	ConfigName  string    `json:"config_name,omitempty"`
	CreatorID   string    `json:"creator_id"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	Players     []Member  `json:"players"`
}

// View returns the client-facing form of the room.
func (r *Room) View() RoomView {
	return RoomView{
		ID:          r.ID,
		Name:        r.Name,
		MaxPlayers:  r.MaxPlayers,
		PlayerCount: len(r.Players),
		Timer:       r.Timer,
		HasPassword: r.Password != "",
		ConfigName:  r.ConfigName,
		CreatorID:   r.CreatorID,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt,
		Players:     append([]Member{}, r.Players...),
	}
}

// Views converts a list of rooms.
func Views(rooms []*Room) []RoomView {
	out := make([]RoomView, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.View())
	}
	return out
}

// Clone returns a deep copy of the room.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	out := *r
	out.Players = append([]Member{}, r.Players...)
	out.GameState = r.GameState.Clone()
	return &out
}

// IsCreator reports whether the connection holds the creator role.
func (r *Room) IsCreator(connectionID string) bool {
	return connectionID != "" && r.CreatorID == connectionID
}

// MemberByConnection returns the index of the member using connectionID.
func (r *Room) MemberByConnection(connectionID string) (int, bool) {
	for i, m := range r.Players {
		if m.ConnectionID == connectionID {
			return i, true
		}
	}
	return -1, false
}

// MemberByUser returns the index of the member with the durable userID.
func (r *Room) MemberByUser(userID string) (int, bool) {
	for i, m := range r.Players {
		if m.UserID == userID {
			return i, true
		}
	}
	return -1, false
}

// AllReady reports whether the room has members and all of them are ready.
func (r *Room) AllReady() bool {
	if len(r.Players) == 0 {
		return false
	}
	for _, m := range r.Players {
		if !m.Ready {
			return false
		}
	}
	return true
}

// Seats converts the roster, in join order, into engine seats.
func (r *Room) Seats() []engine.Seat {
	seats := make([]engine.Seat, 0, len(r.Players))
	for _, m := range r.Players {
		seats = append(seats, engine.Seat{
			UserID:     m.UserID,
			Name:       m.Name,
			Token:      m.Token,
			Dream:      m.Dream,
			Profession: m.Profession,
		})
	}
	return seats
}
