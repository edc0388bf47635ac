package service

import (
	"context"
	"time"

	"github.com/wricardo/rat-race-game/game/engine"
	"github.com/wricardo/rat-race-game/game/lobby"
)

// GameService defines every operation a client can perform
type GameService interface {
	// Lobby
	ListRooms(ctx context.Context) ([]lobby.RoomView, error)
	GetRoom(ctx context.Context, roomID string) (*lobby.RoomView, error)
	CreateRoom(ctx context.Context, actor Actor, in CreateRoomInput) (*lobby.RoomView, error)
	JoinRoom(ctx context.Context, actor Actor, in JoinRoomInput) (*lobby.RoomView, error)
	LeaveRoom(ctx context.Context, actor Actor, roomID string) error
	KickPlayer(ctx context.Context, actor Actor, roomID, targetConnectionID string) (*lobby.RoomView, error)
	SetReady(ctx context.Context, actor Actor, in ReadyInput) (*lobby.RoomView, error)
	StartGame(ctx context.Context, actor Actor, roomID string) (*engine.GameState, error)

	// Game
	GetGameState(ctx context.Context, roomID string) (*engine.GameState, error)
	RollDice(ctx context.Context, actor Actor, roomID string) (*RollResult, error)
	ChooseDeal(ctx context.Context, actor Actor, roomID string, size engine.DealSize) (*engine.GameState, error)
	BuyAsset(ctx context.Context, actor Actor, roomID string, quantity int) (*engine.GameState, error)
	SkipCard(ctx context.Context, actor Actor, roomID string) (*engine.GameState, error)
	TakeLoan(ctx context.Context, actor Actor, roomID string, amount int) (*engine.GameState, error)
	RepayLoan(ctx context.Context, actor Actor, roomID string, amount int) (*engine.GameState, error)
	TransferFunds(ctx context.Context, actor Actor, roomID, toUserID string, amount int) (*engine.GameState, error)
	EndTurn(ctx context.Context, actor Actor, roomID string) (*engine.GameState, error)

	// Turn clock
	AdvanceClock(ctx context.Context, elapsed time.Duration) []string
	RunTurnClock(ctx context.Context, interval time.Duration)
	CleanupIdleRooms(ctx context.Context, maxAge time.Duration) int

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
}

// ConfigManager handles ruleset loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
}

// Notifier delivers outbound events. Delivery is fire-and-forget.
type Notifier interface {
	BroadcastAll(event string, payload any)
	BroadcastRoom(roomID, event string, payload any)
	SendTo(connectionID, event string, payload any)

	// Subscribe and Unsubscribe manage which connections receive a room's
	// broadcasts.
	Subscribe(connectionID, roomID string)
	Unsubscribe(connectionID, roomID string)
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) BroadcastAll(string, any)          {}
func (NopNotifier) BroadcastRoom(string, string, any) {}
func (NopNotifier) SendTo(string, string, any)        {}
func (NopNotifier) Subscribe(string, string)          {}
func (NopNotifier) Unsubscribe(string, string)        {}
