package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wricardo/rat-race-game/game/engine"
	"github.com/wricardo/rat-race-game/game/service"
	apperrors "github.com/wricardo/rat-race-game/internal/platform/errors"
)

// EventConnected is sent once per connection with the client's actor.
const EventConnected = "connected"

// EventAck answers every inbound event.
const EventAck = "ack"

// Message is an outbound event.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Request is an inbound event.
type Request struct {
	Event     string          `json:"event"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Ack is the reply to a Request.
type Ack struct {
	Event     string `json:"event"`
	RequestID string `json:"request_id,omitempty"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	Code      string `json:"code,omitempty"`
	Data      any    `json:"data,omitempty"`
}

type roomRequest struct {
	RoomID string `json:"room_id"`
}

type amountRequest struct {
	RoomID string `json:"room_id"`
	Amount int    `json:"amount"`
}

type buyRequest struct {
	RoomID   string `json:"room_id"`
	Quantity int    `json:"quantity,omitempty"`
}

type dealRequest struct {
	RoomID string          `json:"room_id"`
	Size   engine.DealSize `json:"size"`
}

type transferRequest struct {
	RoomID   string `json:"room_id"`
	ToUserID string `json:"to_user_id"`
	Amount   int    `json:"amount"`
}

type kickRequest struct {
	RoomID             string `json:"room_id"`
	TargetConnectionID string `json:"target_connection_id"`
}

type handlerFunc func(ctx context.Context, svc service.GameService, actor service.Actor, data json.RawMessage) (any, error)

var handlers = map[string]handlerFunc{
	"get_rooms": func(ctx context.Context, svc service.GameService, _ service.Actor, _ json.RawMessage) (any, error) {
		return svc.ListRooms(ctx)
	},
	"get_room": withRoom(func(ctx context.Context, svc service.GameService, _ service.Actor, req roomRequest) (any, error) {
		return svc.GetRoom(ctx, req.RoomID)
	}),
	"create_room": decode(func(ctx context.Context, svc service.GameService, actor service.Actor, in service.CreateRoomInput) (any, error) {
		return svc.CreateRoom(ctx, actor, in)
	}),
	"join_room": decode(func(ctx context.Context, svc service.GameService, actor service.Actor, in service.JoinRoomInput) (any, error) {
		return svc.JoinRoom(ctx, actor, in)
	}),
	"leave_room": withRoom(func(ctx context.Context, svc service.GameService, actor service.Actor, req roomRequest) (any, error) {
		return nil, svc.LeaveRoom(ctx, actor, req.RoomID)
	}),
	"player_ready": decode(func(ctx context.Context, svc service.GameService, actor service.Actor, in service.ReadyInput) (any, error) {
		return svc.SetReady(ctx, actor, in)
	}),
	"kick_player": decode(func(ctx context.Context, svc service.GameService, actor service.Actor, req kickRequest) (any, error) {
		return svc.KickPlayer(ctx, actor, req.RoomID, req.TargetConnectionID)
	}),
	"start_game": withRoom(func(ctx context.Context, svc service.GameService, actor service.Actor, req roomRequest) (any, error) {
		return svc.StartGame(ctx, actor, req.RoomID)
	}),
	"game_state": withRoom(func(ctx context.Context, svc service.GameService, _ service.Actor, req roomRequest) (any, error) {
		return svc.GetGameState(ctx, req.RoomID)
	}),
	"roll_dice": withRoom(func(ctx context.Context, svc service.GameService, actor service.Actor, req roomRequest) (any, error) {
		return svc.RollDice(ctx, actor, req.RoomID)
	}),
	"choose_deal": decode(func(ctx context.Context, svc service.GameService, actor service.Actor, req dealRequest) (any, error) {
		return svc.ChooseDeal(ctx, actor, req.RoomID, req.Size)
	}),
	"buy_asset": decode(func(ctx context.Context, svc service.GameService, actor service.Actor, req buyRequest) (any, error) {
		return svc.BuyAsset(ctx, actor, req.RoomID, req.Quantity)
	}),
	"skip_card": withRoom(func(ctx context.Context, svc service.GameService, actor service.Actor, req roomRequest) (any, error) {
		return svc.SkipCard(ctx, actor, req.RoomID)
	}),
	"take_loan": decode(func(ctx context.Context, svc service.GameService, actor service.Actor, req amountRequest) (any, error) {
		return svc.TakeLoan(ctx, actor, req.RoomID, req.Amount)
	}),
	"repay_loan": decode(func(ctx context.Context, svc service.GameService, actor service.Actor, req amountRequest) (any, error) {
		return svc.RepayLoan(ctx, actor, req.RoomID, req.Amount)
	}),
	"transfer_funds": decode(func(ctx context.Context, svc service.GameService, actor service.Actor, req transferRequest) (any, error) {
		return svc.TransferFunds(ctx, actor, req.RoomID, req.ToUserID, req.Amount)
	}),
	"end_turn": withRoom(func(ctx context.Context, svc service.GameService, actor service.Actor, req roomRequest) (any, error) {
		return svc.EndTurn(ctx, actor, req.RoomID)
	}),
	"list_configs": func(ctx context.Context, svc service.GameService, _ service.Actor, _ json.RawMessage) (any, error) {
		return svc.ListConfigs(ctx)
	},
}

// decode adapts a handler taking a typed request.
func decode[T any](fn func(context.Context, service.GameService, service.Actor, T) (any, error)) handlerFunc {
	return func(ctx context.Context, svc service.GameService, actor service.Actor, data json.RawMessage) (any, error) {
		var req T
		if len(data) > 0 {
			if err := json.Unmarshal(data, &req); err != nil {
				return nil, apperrors.Wrap(apperrors.CodeInvalidArgument, "malformed event data", err)
			}
		}
		return fn(ctx, svc, actor, req)
	}
}

// withRoom is decode for events that only carry a room id.
func withRoom(fn func(context.Context, service.GameService, service.Actor, roomRequest) (any, error)) handlerFunc {
	return decode(func(ctx context.Context, svc service.GameService, actor service.Actor, req roomRequest) (any, error) {
		if req.RoomID == "" {
			return nil, apperrors.New(apperrors.CodeInvalidArgument, "room_id is required")
		}
		return fn(ctx, svc, actor, req)
	})
}

// handle decodes one inbound frame and runs it against the service.
func (h *Hub) handle(ctx context.Context, actor service.Actor, frame []byte) Ack {
	var req Request
	if err := json.Unmarshal(frame, &req); err != nil {
		return failed(Ack{Event: EventAck}, apperrors.Wrap(apperrors.CodeInvalidArgument, "malformed message", err))
	}
	ack := Ack{Event: EventAck, RequestID: req.RequestID}

	handler, ok := handlers[req.Event]
	if !ok {
		return failed(ack, apperrors.New(apperrors.CodeInvalidArgument, fmt.Sprintf("unknown event %q", req.Event)))
	}
	if h.service == nil {
		return failed(ack, apperrors.New(apperrors.CodeUnknown, "service unavailable"))
	}

	data, err := handler(ctx, h.service, actor, req.Data)
	if err != nil {
		return failed(ack, err)
	}
	ack.OK = true
	ack.Data = data
	return ack
}

func failed(ack Ack, err error) Ack {
	ack.OK = false
	ack.Error = err.Error()
	ack.Code = string(apperrors.CodeOf(err))
	return ack
}
