package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wricardo/rat-race-game/game/engine"
	"github.com/wricardo/rat-race-game/game/lobby"
	"github.com/wricardo/rat-race-game/game/session"
	apperrors "github.com/wricardo/rat-race-game/internal/platform/errors"
)

// ErrInvalidActor is returned when an action carries no verified identity.
var ErrInvalidActor = apperrors.New(apperrors.CodeInvalidArgument, "connection and user identity are required")

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions *session.Manager
	rooms    *lobby.Directory
	configs  ConfigManager
	notifier Notifier
	logger   *slog.Logger
}

// Option configures the game service.
type Option func(*gameServiceImpl)

// WithNotifier sets where outbound events go.
func WithNotifier(n Notifier) Option {
	return func(s *gameServiceImpl) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithLogger sets the logger. slog.Default() is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(s *gameServiceImpl) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewGameService creates a new game service instance
func NewGameService(sessions *session.Manager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		rooms:    sessions.Directory(),
		configs:  configs,
		notifier: NopNotifier{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListRooms returns the rooms still accepting players, newest first
func (s *gameServiceImpl) ListRooms(ctx context.Context) ([]lobby.RoomView, error) {
	return lobby.Views(s.rooms.ListWaiting()), nil
}

// GetRoom returns one room
func (s *gameServiceImpl) GetRoom(ctx context.Context, roomID string) (*lobby.RoomView, error) {
	room, err := s.rooms.GetRoom(roomID)
	if err != nil {
		return nil, err
	}
	view := room.View()
	return &view, nil
}

// CreateRoom opens a room with the actor as its creator
func (s *gameServiceImpl) CreateRoom(ctx context.Context, actor Actor, in CreateRoomInput) (*lobby.RoomView, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	if in.ConfigName != "" {
		if _, err := s.configs.LoadConfig(in.ConfigName); err != nil {
			return nil, s.reject("create_room", actor, "", err)
		}
	}

	room, err := s.rooms.CreateRoom(lobby.CreateRoomRequest{
		ConnectionID: actor.ConnectionID,
		UserID:       actor.UserID,
		PlayerName:   firstNonEmpty(in.PlayerName, actor.Name),
		Name:         in.Name,
		MaxPlayers:   in.MaxPlayers,
		Timer:        in.Timer,
		Password:     in.Password,
		ConfigName:   in.ConfigName,
	})
	if err != nil {
		return nil, s.reject("create_room", actor, "", err)
	}

	s.logger.Info("room created", "room_id", room.ID, "name", room.Name, "user_id", actor.UserID)
	s.sessions.Save(room)
	s.notifier.Subscribe(actor.ConnectionID, room.ID)
	s.broadcastRooms()

	view := room.View()
	return &view, nil
}

// JoinRoom seats the actor, or relinks their membership after a reconnect
func (s *gameServiceImpl) JoinRoom(ctx context.Context, actor Actor, in JoinRoomInput) (*lobby.RoomView, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}

	var room *lobby.Room
	err := s.sessions.WithRoom(in.RoomID, func() error {
		var err error
		room, err = s.rooms.JoinRoom(lobby.JoinRoomRequest{
			RoomID:       in.RoomID,
			ConnectionID: actor.ConnectionID,
			UserID:       actor.UserID,
			PlayerName:   firstNonEmpty(in.PlayerName, actor.Name),
			Password:     in.Password,
		})
		if err != nil {
			return err
		}
		s.sessions.Save(room)
		return nil
	})
	if err != nil {
		return nil, s.reject("join_room", actor, in.RoomID, err)
	}

	s.notifier.Subscribe(actor.ConnectionID, room.ID)
	view := room.View()
	s.notifier.BroadcastRoom(room.ID, EventRoomStateUpdated, view)
	s.broadcastRooms()
	return &view, nil
}

// LeaveRoom removes the actor's connection from a room. An emptied room
// is deleted together with its game.
func (s *gameServiceImpl) LeaveRoom(ctx context.Context, actor Actor, roomID string) error {
	if err := checkActor(actor); err != nil {
		return err
	}

	var (
		room    *lobby.Room
		deleted bool
	)
	err := s.sessions.WithRoom(roomID, func() error {
		var err error
		room, deleted, err = s.rooms.LeaveRoom(roomID, actor.ConnectionID)
		if err != nil {
			return err
		}
		if deleted {
			s.sessions.Delete(roomID)
		} else {
			s.sessions.Save(room)
		}
		return nil
	})
	if err != nil {
		return s.reject("leave_room", actor, roomID, err)
	}

	s.notifier.Unsubscribe(actor.ConnectionID, roomID)
	if deleted {
		s.logger.Info("room deleted", "room_id", roomID)
	} else {
		s.notifier.BroadcastRoom(roomID, EventRoomStateUpdated, room.View())
	}
	s.broadcastRooms()
	return nil
}

// KickPlayer removes another member. Only the creator may kick.
func (s *gameServiceImpl) KickPlayer(ctx context.Context, actor Actor, roomID, targetConnectionID string) (*lobby.RoomView, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}

	var (
		room    *lobby.Room
		deleted bool
	)
	err := s.sessions.WithRoom(roomID, func() error {
		var err error
		room, deleted, err = s.rooms.KickPlayer(roomID, actor.ConnectionID, targetConnectionID)
		if err != nil {
			return err
		}
		if deleted {
			s.sessions.Delete(roomID)
		} else {
			s.sessions.Save(room)
		}
		return nil
	})
	if err != nil {
		return nil, s.reject("kick_player", actor, roomID, err)
	}

	s.notifier.SendTo(targetConnectionID, EventKicked, KickedPayload{RoomID: roomID})
	s.notifier.Unsubscribe(targetConnectionID, roomID)
	s.logger.Info("player kicked", "room_id", roomID, "connection_id", targetConnectionID)

	s.broadcastRooms()
	if deleted {
		return nil, nil
	}
	view := room.View()
	s.notifier.BroadcastRoom(roomID, EventRoomStateUpdated, view)
	return &view, nil
}

// SetReady updates the actor's readiness, dream, token and profession
func (s *gameServiceImpl) SetReady(ctx context.Context, actor Actor, in ReadyInput) (*lobby.RoomView, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}

	var room *lobby.Room
	err := s.sessions.WithRoom(in.RoomID, func() error {
		current, err := s.rooms.GetRoom(in.RoomID)
		if err != nil {
			return err
		}
		if in.Profession != "" {
			cfg, err := s.configs.LoadConfig(current.ConfigName)
			if err != nil {
				return err
			}
			if _, err := cfg.Profession(in.Profession); err != nil {
				return err
			}
		}

		room, err = s.rooms.SetPlayerReady(lobby.ReadyRequest{
			RoomID:       in.RoomID,
			ConnectionID: actor.ConnectionID,
			UserID:       actor.UserID,
			Ready:        in.Ready,
			Dream:        in.Dream,
			Token:        in.Token,
			Profession:   in.Profession,
		})
		if err != nil {
			return err
		}
		s.sessions.Save(room)
		return nil
	})
	if err != nil {
		return nil, s.reject("player_ready", actor, in.RoomID, err)
	}

	// a stale connection may have just been relinked
	s.notifier.Subscribe(actor.ConnectionID, room.ID)
	view := room.View()
	s.notifier.BroadcastRoom(room.ID, EventRoomStateUpdated, view)
	return &view, nil
}

// StartGame deals a new game from the room's roster. Only the creator may
// start, and only once everyone is ready.
func (s *gameServiceImpl) StartGame(ctx context.Context, actor Actor, roomID string) (*engine.GameState, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}

	var state *engine.GameState
	err := s.sessions.WithRoom(roomID, func() error {
		room, err := s.rooms.CanStart(roomID, actor.ConnectionID)
		if err != nil {
			return err
		}
		eng, err := s.sessions.StartEngine(room)
		if err != nil {
			return err
		}
		state = eng.GetState()
		room, err = s.rooms.StartGame(roomID, actor.ConnectionID, state)
		if err != nil {
			s.sessions.Teardown(roomID)
			return err
		}
		s.sessions.Save(room)
		return nil
	})
	if err != nil {
		return nil, s.reject("start_game", actor, roomID, err)
	}

	s.logger.Info("game started", "room_id", roomID, "players", len(state.Players))
	s.notifier.BroadcastRoom(roomID, EventGameStarted, StatePayload{RoomID: roomID, State: state})
	s.broadcastRooms()
	return state, nil
}

// GetGameState returns the live snapshot of a running game
func (s *gameServiceImpl) GetGameState(ctx context.Context, roomID string) (*engine.GameState, error) {
	var state *engine.GameState
	err := s.sessions.WithRoom(roomID, func() error {
		eng, err := s.sessions.Engine(roomID)
		if err != nil {
			return err
		}
		state = eng.GetState()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// RollDice rolls for the actor when it is their turn. Rolling outside
// ROLL is ignored and reported as a zero roll.
func (s *gameServiceImpl) RollDice(ctx context.Context, actor Actor, roomID string) (*RollResult, error) {
	result := &RollResult{RoomID: roomID}
	err := s.gameAction(actor, roomID, func(eng *engine.GameEngine) (bool, error) {
		if err := requireTurn(eng, actor.UserID); err != nil {
			return false, err
		}
		result.Roll = eng.RollDice()
		return result.Roll > 0, nil
	}, func(state *engine.GameState) {
		result.State = state
	})
	if err != nil {
		return nil, s.reject("roll_dice", actor, roomID, err)
	}

	if result.Roll > 0 {
		s.notifier.BroadcastRoom(roomID, EventDiceRolled, result)
	}
	return result, nil
}

// ChooseDeal picks the small or big deal deck for a pending deal square
func (s *gameServiceImpl) ChooseDeal(ctx context.Context, actor Actor, roomID string, size engine.DealSize) (*engine.GameState, error) {
	return s.stateAction("choose_deal", actor, roomID, func(eng *engine.GameEngine) error {
		return eng.ChooseDeal(actor.UserID, size)
	})
}

// BuyAsset buys the active deal card
func (s *gameServiceImpl) BuyAsset(ctx context.Context, actor Actor, roomID string, quantity int) (*engine.GameState, error) {
	return s.stateAction("buy_asset", actor, roomID, func(eng *engine.GameEngine) error {
		return eng.BuyAsset(actor.UserID, quantity)
	})
}

// SkipCard passes on the active card
func (s *gameServiceImpl) SkipCard(ctx context.Context, actor Actor, roomID string) (*engine.GameState, error) {
	return s.stateAction("skip_card", actor, roomID, func(eng *engine.GameEngine) error {
		return eng.SkipCard(actor.UserID)
	})
}

// TakeLoan borrows for the actor. Loans are not tied to the turn.
func (s *gameServiceImpl) TakeLoan(ctx context.Context, actor Actor, roomID string, amount int) (*engine.GameState, error) {
	return s.stateAction("take_loan", actor, roomID, func(eng *engine.GameEngine) error {
		return eng.TakeLoan(actor.UserID, amount)
	})
}

// RepayLoan pays down the actor's loan
func (s *gameServiceImpl) RepayLoan(ctx context.Context, actor Actor, roomID string, amount int) (*engine.GameState, error) {
	return s.stateAction("repay_loan", actor, roomID, func(eng *engine.GameEngine) error {
		return eng.RepayLoan(actor.UserID, amount)
	})
}

// TransferFunds moves cash from the actor to another player
func (s *gameServiceImpl) TransferFunds(ctx context.Context, actor Actor, roomID, toUserID string, amount int) (*engine.GameState, error) {
	return s.stateAction("transfer_funds", actor, roomID, func(eng *engine.GameEngine) error {
		return eng.TransferFunds(actor.UserID, toUserID, amount)
	})
}

// EndTurn passes the turn to the next player
func (s *gameServiceImpl) EndTurn(ctx context.Context, actor Actor, roomID string) (*engine.GameState, error) {
	var state *engine.GameState
	err := s.gameAction(actor, roomID, func(eng *engine.GameEngine) (bool, error) {
		if err := requireTurn(eng, actor.UserID); err != nil {
			return false, err
		}
		eng.EndTurn()
		return true, nil
	}, func(st *engine.GameState) {
		state = st
	})
	if err != nil {
		return nil, s.reject("end_turn", actor, roomID, err)
	}

	s.notifier.BroadcastRoom(roomID, EventTurnEnded, StatePayload{RoomID: roomID, State: state})
	return state, nil
}

// ListConfigs returns the available rulesets
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig returns a ruleset by name
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	if configName == "" {
		return s.configs.GetDefault(), nil
	}
	return s.configs.LoadConfig(configName)
}

// stateAction runs a game mutation and broadcasts state_updated.
func (s *gameServiceImpl) stateAction(name string, actor Actor, roomID string, fn func(*engine.GameEngine) error) (*engine.GameState, error) {
	var state *engine.GameState
	err := s.gameAction(actor, roomID, func(eng *engine.GameEngine) (bool, error) {
		if err := fn(eng); err != nil {
			return false, err
		}
		return true, nil
	}, func(st *engine.GameState) {
		state = st
	})
	if err != nil {
		return nil, s.reject(name, actor, roomID, err)
	}

	s.notifier.BroadcastRoom(roomID, EventStateUpdated, StatePayload{RoomID: roomID, State: state})
	return state, nil
}

// gameAction runs fn against the room's engine under the room lock. The
// actor must still be a member of the room. When fn reports a change the
// snapshot is committed to the directory and queued for persistence; done
// always receives the resulting state.
func (s *gameServiceImpl) gameAction(actor Actor, roomID string, fn func(*engine.GameEngine) (bool, error), done func(*engine.GameState)) error {
	if err := checkActor(actor); err != nil {
		return err
	}

	return s.sessions.WithRoom(roomID, func() error {
		eng, err := s.sessions.Engine(roomID)
		if err != nil {
			return err
		}
		room, err := s.rooms.GetRoom(roomID)
		if err != nil {
			return err
		}
		if _, ok := room.MemberByUser(actor.UserID); !ok {
			return lobby.ErrNotInRoom
		}
		changed, err := fn(eng)
		if err != nil {
			return err
		}
		if !changed {
			done(eng.GetState())
			return nil
		}

		_, state, err := s.sessions.Commit(roomID)
		if err != nil {
			return err
		}
		done(state)
		return nil
	})
}

// reject logs a refused action and hands the error back.
func (s *gameServiceImpl) reject(action string, actor Actor, roomID string, err error) error {
	s.logger.Debug("action rejected",
		"action", action,
		"room_id", roomID,
		"user_id", actor.UserID,
		"code", apperrors.CodeOf(err),
		"error", err)
	return err
}

func (s *gameServiceImpl) broadcastRooms() {
	s.notifier.BroadcastAll(EventRoomsUpdated, lobby.Views(s.rooms.ListWaiting()))
}

func requireTurn(eng *engine.GameEngine, userID string) error {
	if _, ok := eng.GetState().Player(userID); !ok {
		return fmt.Errorf("%w: %s", engine.ErrPlayerNotFound, userID)
	}
	if !eng.IsTurnOf(userID) {
		return engine.ErrNotYourTurn
	}
	return nil
}

func checkActor(actor Actor) error {
	if actor.ConnectionID == "" || actor.UserID == "" {
		return ErrInvalidActor
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
