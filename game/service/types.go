package service

import (
	"github.com/wricardo/rat-race-game/game/engine"
	"github.com/wricardo/rat-race-game/game/lobby"
)

// Outbound events.
const (
	EventRoomsUpdated     = "rooms_updated"
	EventRoomStateUpdated = "room_state_updated"
	EventGameStarted      = "game_started"
	EventDiceRolled       = "dice_rolled"
	EventStateUpdated     = "state_updated"
	EventTurnEnded        = "turn_ended"
	EventKicked           = "kicked"
)

// Actor identifies who performs an action: the durable user id verified by
// the login flow and the transient connection the action arrived on.
type Actor struct {
	ConnectionID string `json:"connection_id"`
	UserID       string `json:"user_id"`
	Name         string `json:"name,omitempty"`
}

// CreateRoomInput carries the settings of a new room.
type CreateRoomInput struct {
	Name       string `json:"name"`
	MaxPlayers int    `json:"max_players,omitempty"`
	Timer      int    `json:"timer,omitempty"`
	Password   string `json:"password,omitempty"`
	PlayerName string `json:"player_name,omitempty"`
	ConfigName string `json:"config_name,omitempty"`
}

// JoinRoomInput identifies the room to join.
type JoinRoomInput struct {
	RoomID     string `json:"room_id"`
	Password   string `json:"password,omitempty"`
	PlayerName string `json:"player_name,omitempty"`
}

// ReadyInput updates a member's readiness and identity choices.
type ReadyInput struct {
	RoomID     string `json:"room_id"`
	Ready      bool   `json:"ready"`
	Dream      string `json:"dream,omitempty"`
	Token      string `json:"token,omitempty"`
	Profession string `json:"profession,omitempty"`
}

// RoomPayload is sent with room_state_updated.
type RoomPayload = lobby.RoomView

// StatePayload is sent with game_started, state_updated and turn_ended.
type StatePayload struct {
	RoomID  string            `json:"room_id"`
	State   *engine.GameState `json:"state"`
	Expired bool              `json:"expired,omitempty"`
}

// RollResult is the outcome of a roll, also sent with dice_rolled. A zero
// roll means the roll was ignored because the turn was not in ROLL.
type RollResult struct {
	RoomID string            `json:"room_id"`
	Roll   int               `json:"roll"`
	State  *engine.GameState `json:"state"`
}

// KickedPayload tells a removed member which room they were kicked from.
type KickedPayload struct {
	RoomID string `json:"room_id"`
}

// ConfigInfo describes a ruleset available to new rooms.
type ConfigInfo struct {
	Filename         string `json:"filename"`
	ConfigID         string `json:"config_id"` // The identifier to use for room creation
	Name             string `json:"name"`      // Display name
	Description      string `json:"description"`
	TurnSeconds      int    `json:"turn_seconds"`
	MaxLoanPrincipal int    `json:"max_loan_principal"`
	Professions      int    `json:"professions"`
}
