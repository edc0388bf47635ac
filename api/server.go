package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"
	"github.com/skip2/go-qrcode"

	"github.com/wricardo/rat-race-game/game/engine"
	"github.com/wricardo/rat-race-game/game/service"
	apperrors "github.com/wricardo/rat-race-game/internal/platform/errors"
)

// Identity headers set by the login proxy in front of the server.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserName = "X-User-Name"
)

// WebSocketHandler upgrades a request for a verified user.
type WebSocketHandler interface {
	ServeWS(w http.ResponseWriter, r *http.Request, userID, name string)
}

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     WebSocketHandler
	router  *mux.Router
	logger  *slog.Logger
}

// NewServer creates a new API server. hub may be nil, in which case /ws
// answers 503.
func NewServer(gameService service.GameService, hub WebSocketHandler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
		logger:  logger,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.logRequests, identity)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Lobby
	api.HandleFunc("/rooms", s.handleListRooms).Methods("GET")
	api.HandleFunc("/rooms", s.handleCreateRoom).Methods("POST")
	api.HandleFunc("/rooms/{id}", s.handleGetRoom).Methods("GET")
	api.HandleFunc("/rooms/{id}/invite.png", s.handleInviteQR).Methods("GET")
	api.HandleFunc("/rooms/{id}/join", s.handleJoinRoom).Methods("POST")
	api.HandleFunc("/rooms/{id}/leave", s.handleLeaveRoom).Methods("POST")
	api.HandleFunc("/rooms/{id}/ready", s.handleReady).Methods("POST")
	api.HandleFunc("/rooms/{id}/kick", s.handleKick).Methods("POST")
	api.HandleFunc("/rooms/{id}/start", s.handleStartGame).Methods("POST")

	// Game operations
	api.HandleFunc("/rooms/{id}/state", s.handleGetGameState).Methods("GET")
	api.HandleFunc("/rooms/{id}/roll", s.handleRoll).Methods("POST")
	api.HandleFunc("/rooms/{id}/deal", s.handleChooseDeal).Methods("POST")
	api.HandleFunc("/rooms/{id}/buy", s.handleBuy).Methods("POST")
	api.HandleFunc("/rooms/{id}/skip", s.handleSkip).Methods("POST")
	api.HandleFunc("/rooms/{id}/loan", s.handleTakeLoan).Methods("POST")
	api.HandleFunc("/rooms/{id}/repay", s.handleRepayLoan).Methods("POST")
	api.HandleFunc("/rooms/{id}/transfer", s.handleTransfer).Methods("POST")
	api.HandleFunc("/rooms/{id}/end-turn", s.handleEndTurn).Methods("POST")

	// Configuration
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	api.HandleFunc("/configs/{name}", s.handleGetConfig).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type actorKey struct{}

// identity stores the caller's Actor in the request context. The websocket
// upgrade also accepts user_id and name query parameters because browsers
// cannot set headers on it.
func identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(HeaderUserID)
		name := r.Header.Get(HeaderUserName)
		if userID == "" && r.URL.Path == "/ws" {
			userID = r.URL.Query().Get("user_id")
			name = r.URL.Query().Get("name")
		}
		if userID == "" {
			next.ServeHTTP(w, r)
			return
		}

		actor := service.Actor{ConnectionID: "http:" + userID, UserID: userID, Name: name}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, actor)))
	})
}

func actorFrom(r *http.Request) (service.Actor, error) {
	actor, ok := r.Context().Value(actorKey{}).(service.Actor)
	if !ok {
		return service.Actor{}, apperrors.New(apperrors.CodeUnauthenticated, HeaderUserID+" header is required")
	}
	return actor, nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondError(w http.ResponseWriter, err error) {
	respondJSON(w, apperrors.HTTPStatus(err), ErrorResponse{
		Error: err.Error(),
		Code:  string(apperrors.CodeOf(err)),
	})
}

// decodeBody reads an optional JSON body into v.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return apperrors.Wrap(apperrors.CodeInvalidArgument, "invalid request body", err)
	}
	return nil
}

// actorAction runs fn for an authenticated caller and a room from the path.
func (s *Server) actorAction(w http.ResponseWriter, r *http.Request, body any, fn func(actor service.Actor, roomID string) (any, error)) {
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, err)
		return
	}
	if body != nil {
		if err := decodeBody(r, body); err != nil {
			respondError(w, err)
			return
		}
	}
	result, err := fn(actor, mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Lobby handlers

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.service.ListRooms(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"count": len(rooms),
		"rooms": rooms,
	})
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var in service.CreateRoomInput
	if err := decodeBody(r, &in); err != nil {
		respondError(w, err)
		return
	}

	room, err := s.service.CreateRoom(r.Context(), actor, in)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, room)
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := s.service.GetRoom(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, room)
}

// inviteQRSize is the edge length of invite codes in pixels.
const inviteQRSize = 256

// handleInviteQR renders a QR code linking to the room on this host.
func (s *Server) handleInviteQR(w http.ResponseWriter, r *http.Request) {
	room, err := s.service.GetRoom(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}

	png, err := qrcode.Encode(inviteURL(r, room.ID), qrcode.Medium, inviteQRSize)
	if err != nil {
		respondError(w, apperrors.Wrap(apperrors.CodeUnknown, "failed to render invite", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(png)
}

func inviteURL(r *http.Request, roomID string) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/?room=" + url.QueryEscape(roomID)
}

func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	var in service.JoinRoomInput
	s.actorAction(w, r, &in, func(actor service.Actor, roomID string) (any, error) {
		in.RoomID = roomID
		return s.service.JoinRoom(r.Context(), actor, in)
	})
}

func (s *Server) handleLeaveRoom(w http.ResponseWriter, r *http.Request) {
	s.actorAction(w, r, nil, func(actor service.Actor, roomID string) (any, error) {
		if err := s.service.LeaveRoom(r.Context(), actor, roomID); err != nil {
			return nil, err
		}
		return map[string]string{"room_id": roomID, "status": "left"}, nil
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	var in service.ReadyInput
	s.actorAction(w, r, &in, func(actor service.Actor, roomID string) (any, error) {
		in.RoomID = roomID
		return s.service.SetReady(r.Context(), actor, in)
	})
}

func (s *Server) handleKick(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TargetConnectionID string `json:"target_connection_id"`
	}
	s.actorAction(w, r, &req, func(actor service.Actor, roomID string) (any, error) {
		return s.service.KickPlayer(r.Context(), actor, roomID, req.TargetConnectionID)
	})
}

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	s.actorAction(w, r, nil, func(actor service.Actor, roomID string) (any, error) {
		return s.service.StartGame(r.Context(), actor, roomID)
	})
}

// Game operation handlers

func (s *Server) handleGetGameState(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.GetGameState(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleRoll(w http.ResponseWriter, r *http.Request) {
	s.actorAction(w, r, nil, func(actor service.Actor, roomID string) (any, error) {
		return s.service.RollDice(r.Context(), actor, roomID)
	})
}

func (s *Server) handleChooseDeal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Size engine.DealSize `json:"size"`
	}
	s.actorAction(w, r, &req, func(actor service.Actor, roomID string) (any, error) {
		return s.service.ChooseDeal(r.Context(), actor, roomID, req.Size)
	})
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	s.actorAction(w, r, &req, func(actor service.Actor, roomID string) (any, error) {
		return s.service.BuyAsset(r.Context(), actor, roomID, req.Quantity)
	})
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	s.actorAction(w, r, nil, func(actor service.Actor, roomID string) (any, error) {
		return s.service.SkipCard(r.Context(), actor, roomID)
	})
}

type amountRequest struct {
	Amount int `json:"amount"`
}

func (s *Server) handleTakeLoan(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	s.actorAction(w, r, &req, func(actor service.Actor, roomID string) (any, error) {
		return s.service.TakeLoan(r.Context(), actor, roomID, req.Amount)
	})
}

func (s *Server) handleRepayLoan(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	s.actorAction(w, r, &req, func(actor service.Actor, roomID string) (any, error) {
		return s.service.RepayLoan(r.Context(), actor, roomID, req.Amount)
	})
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ToUserID string `json:"to_user_id"`
		Amount   int    `json:"amount"`
	}
	s.actorAction(w, r, &req, func(actor service.Actor, roomID string) (any, error) {
		return s.service.TransferFunds(r.Context(), actor, roomID, req.ToUserID, req.Amount)
	})
}

func (s *Server) handleEndTurn(w http.ResponseWriter, r *http.Request) {
	s.actorAction(w, r, nil, func(actor service.Actor, roomID string) (any, error) {
		return s.service.EndTurn(r.Context(), actor, roomID)
	})
}

// Configuration handlers

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.service.LoadConfig(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "websocket unavailable", http.StatusServiceUnavailable)
		return
	}
	actor, err := actorFrom(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	s.hub.ServeWS(w, r, actor.UserID, actor.Name)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
