package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/wricardo/rat-race-game/game/engine"
	"github.com/wricardo/rat-race-game/game/lobby"
	"github.com/wricardo/rat-race-game/game/service"
	"github.com/wricardo/rat-race-game/game/session"
	apperrors "github.com/wricardo/rat-race-game/internal/platform/errors"
)

type testConfigs struct{}

func (testConfigs) LoadConfig(name string) (*engine.GameConfig, error) {
	if name == "" || name == "classic" {
		return engine.DefaultConfig(), nil
	}
	return nil, apperrors.New(apperrors.CodeNotFound, "configuration not found: "+name)
}

func (testConfigs) ListConfigs() ([]*service.ConfigInfo, error) {
	return []*service.ConfigInfo{{Filename: "classic.json", ConfigID: "classic", Name: "Classic"}}, nil
}

func (testConfigs) GetDefault() *engine.GameConfig { return engine.DefaultConfig() }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	sessions := session.NewManager(lobby.NewDirectory(), testConfigs{},
		session.WithRandFactory(func() (*rand.Rand, error) { return rand.New(rand.NewSource(5)), nil }))
	t.Cleanup(func() { sessions.Close(context.Background()) })

	return NewServer(service.NewGameService(sessions, testConfigs{}), nil, nil)
}

// do sends a request as user (anonymous when empty) and decodes the
// response body into out when given.
func do(t *testing.T, h http.Handler, method, path, user string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if user != "" {
		req.Header.Set(HeaderUserID, user)
		req.Header.Set(HeaderUserName, strings.ToUpper(user[:1])+user[1:])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if out != nil && w.Code < 400 {
		if err := json.NewDecoder(w.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode response: %v", method, path, err)
		}
	}
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp.Code
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, "GET", "/api/health", "", nil, nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
}

func TestGameFlow(t *testing.T) {
	s := newTestServer(t)

	var room lobby.RoomView
	w := do(t, s, "POST", "/api/rooms", "alice", service.CreateRoomInput{Name: "Friday"}, &room)
	if w.Code != http.StatusCreated {
		t.Fatalf("create room: expected 201, got %d: %s", w.Code, w.Body)
	}
	if room.CreatorID != "http:alice" {
		t.Errorf("Expected creator http:alice, got %s", room.CreatorID)
	}
	base := "/api/rooms/" + room.ID

	if w := do(t, s, "POST", base+"/join", "bob", map[string]string{}, &room); w.Code != http.StatusOK {
		t.Fatalf("join: expected 200, got %d: %s", w.Code, w.Body)
	}
	if room.PlayerCount != 2 {
		t.Errorf("Expected 2 players, got %d", room.PlayerCount)
	}

	var listed struct {
		Count int              `json:"count"`
		Rooms []lobby.RoomView `json:"rooms"`
	}
	do(t, s, "GET", "/api/rooms", "", nil, &listed)
	if listed.Count != 1 || listed.Rooms[0].ID != room.ID {
		t.Errorf("Expected the room in the waiting list, got %+v", listed)
	}

	w = do(t, s, "POST", base+"/ready", "alice", map[string]any{"ready": true}, nil)
	if w.Code != http.StatusBadRequest || errorCode(t, w) != string(apperrors.CodeDreamRequired) {
		t.Fatalf("ready without dream: expected 400 DREAM_REQUIRED, got %d", w.Code)
	}
	for user, token := range map[string]string{"alice": "car", "bob": "hat"} {
		body := map[string]any{"ready": true, "dream": "island", "token": token}
		if w := do(t, s, "POST", base+"/ready", user, body, nil); w.Code != http.StatusOK {
			t.Fatalf("%s ready: expected 200, got %d: %s", user, w.Code, w.Body)
		}
	}

	w = do(t, s, "POST", base+"/start", "bob", nil, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("start by non-creator: expected 403, got %d", w.Code)
	}

	var state engine.GameState
	if w := do(t, s, "POST", base+"/start", "alice", nil, &state); w.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d: %s", w.Code, w.Body)
	}
	if len(state.Players) != 2 || state.Phase != engine.PhaseRoll {
		t.Fatalf("unexpected initial state: %+v", state)
	}

	w = do(t, s, "POST", base+"/roll", "bob", nil, nil)
	if w.Code != http.StatusForbidden || errorCode(t, w) != string(apperrors.CodeNotYourTurn) {
		t.Errorf("roll out of turn: expected 403 NOT_YOUR_TURN, got %d", w.Code)
	}

	var roll service.RollResult
	if w := do(t, s, "POST", base+"/roll", "alice", nil, &roll); w.Code != http.StatusOK {
		t.Fatalf("roll: expected 200, got %d: %s", w.Code, w.Body)
	}
	if roll.Roll < 1 || roll.Roll > 6 {
		t.Errorf("Expected a die roll, got %d", roll.Roll)
	}

	do(t, s, "GET", base+"/state", "", nil, &state)
	cashBefore := state.Players[0].Cash
	if w := do(t, s, "POST", base+"/loan", "alice", map[string]int{"amount": 1000}, &state); w.Code != http.StatusOK {
		t.Fatalf("loan: expected 200, got %d: %s", w.Code, w.Body)
	}
	if state.Players[0].Cash != cashBefore+1000 || state.Players[0].LoanDebt != 1000 {
		t.Errorf("Expected loan applied, got cash %d debt %d", state.Players[0].Cash, state.Players[0].LoanDebt)
	}

	w = do(t, s, "POST", base+"/repay", "alice", map[string]int{"amount": 5000}, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("over-repay: expected 409, got %d", w.Code)
	}

	if w := do(t, s, "POST", base+"/transfer", "alice", map[string]any{"to_user_id": "bob", "amount": 100}, &state); w.Code != http.StatusOK {
		t.Fatalf("transfer: expected 200, got %d: %s", w.Code, w.Body)
	}

	if w := do(t, s, "POST", base+"/end-turn", "alice", nil, &state); w.Code != http.StatusOK {
		t.Fatalf("end turn: expected 200, got %d: %s", w.Code, w.Body)
	}
	if state.CurrentPlayerIndex != 1 || state.Phase != engine.PhaseRoll {
		t.Errorf("Expected bob's ROLL phase, got index %d phase %s", state.CurrentPlayerIndex, state.Phase)
	}
}

func TestCreatorActionsIgnoreClientConnectionID(t *testing.T) {
	s := newTestServer(t)

	var room lobby.RoomView
	do(t, s, "POST", "/api/rooms", "alice", service.CreateRoomInput{Name: "Friday"}, &room)
	base := "/api/rooms/" + room.ID
	do(t, s, "POST", base+"/join", "bob", map[string]string{}, nil)
	do(t, s, "POST", base+"/join", "carol", map[string]string{}, nil)

	tests := []struct {
		name string
		path string
		body any
	}{
		{"kick", base + "/kick", map[string]string{"target_connection_id": "http:carol"}},
		{"start", base + "/start", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if tt.body != nil {
				json.NewEncoder(&buf).Encode(tt.body)
			}
			req := httptest.NewRequest("POST", tt.path, &buf)
			req.Header.Set(HeaderUserID, "bob")
			req.Header.Set("X-Connection-ID", "http:alice")
			w := httptest.NewRecorder()
			s.ServeHTTP(w, req)

			if w.Code != http.StatusForbidden {
				t.Fatalf("Expected 403, got %d: %s", w.Code, w.Body)
			}
			if code := errorCode(t, w); code != string(apperrors.CodeNotCreator) {
				t.Errorf("Expected code %s, got %s", apperrors.CodeNotCreator, code)
			}
		})
	}

	do(t, s, "GET", base, "", nil, &room)
	if room.PlayerCount != 3 || room.CreatorID != "http:alice" {
		t.Errorf("Expected the room untouched, got %d players creator %s", room.PlayerCount, room.CreatorID)
	}
}

func TestErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name       string
		method     string
		path       string
		user       string
		body       string
		wantStatus int
		wantCode   apperrors.Code
	}{
		{"create without identity", "POST", "/api/rooms", "", `{"name":"x"}`, http.StatusUnauthorized, apperrors.CodeUnauthenticated},
		{"create without name", "POST", "/api/rooms", "alice", `{}`, http.StatusBadRequest, apperrors.CodeInvalidArgument},
		{"malformed body", "POST", "/api/rooms", "alice", `{"name":`, http.StatusBadRequest, apperrors.CodeInvalidArgument},
		{"unknown room", "GET", "/api/rooms/missing", "", "", http.StatusNotFound, apperrors.CodeRoomNotFound},
		{"join unknown room", "POST", "/api/rooms/missing/join", "bob", "", http.StatusNotFound, apperrors.CodeRoomNotFound},
		{"state without game", "GET", "/api/rooms/missing/state", "", "", http.StatusNotFound, apperrors.CodeGameNotFound},
		{"roll without game", "POST", "/api/rooms/missing/roll", "alice", "", http.StatusNotFound, apperrors.CodeGameNotFound},
		{"unknown config", "GET", "/api/configs/nope", "", "", http.StatusNotFound, apperrors.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.user != "" {
				req.Header.Set(HeaderUserID, tt.user)
			}
			w := httptest.NewRecorder()
			s.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("Expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body)
			}
			if code := errorCode(t, w); code != string(tt.wantCode) {
				t.Errorf("Expected code %s, got %s", tt.wantCode, code)
			}
		})
	}
}

func TestInviteQR(t *testing.T) {
	s := newTestServer(t)

	var room lobby.RoomView
	do(t, s, "POST", "/api/rooms", "alice", service.CreateRoomInput{Name: "Invite"}, &room)

	w := do(t, s, "GET", "/api/rooms/"+room.ID+"/invite.png", "", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Expected image/png, got %s", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("Expected a PNG body")
	}

	w = do(t, s, "GET", "/api/rooms/missing/invite.png", "", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for an unknown room, got %d", w.Code)
	}
}

func TestInviteURL(t *testing.T) {
	req := httptest.NewRequest("GET", "http://games.example/api/rooms/r1/invite.png", nil)
	if got := inviteURL(req, "r 1"); got != "http://games.example/?room=r+1" {
		t.Errorf("inviteURL = %s", got)
	}
	req.Header.Set("X-Forwarded-Proto", "https")
	if got := inviteURL(req, "r1"); got != "https://games.example/?room=r1" {
		t.Errorf("inviteURL behind TLS proxy = %s", got)
	}
}

func TestConfigs(t *testing.T) {
	s := newTestServer(t)

	var configs []service.ConfigInfo
	do(t, s, "GET", "/api/configs", "", nil, &configs)
	if len(configs) != 1 || configs[0].ConfigID != "classic" {
		t.Errorf("unexpected configs: %+v", configs)
	}

	var cfg engine.GameConfig
	if w := do(t, s, "GET", "/api/configs/classic", "", nil, &cfg); w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if cfg.LoanStep == 0 {
		t.Error("Expected a populated ruleset")
	}
}

func TestIdentity(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		headers map[string]string
		want    *service.Actor
	}{
		{"anonymous", "/api/rooms", nil, nil},
		{
			"default connection",
			"/api/rooms",
			map[string]string{HeaderUserID: "u1", HeaderUserName: "Ann"},
			&service.Actor{ConnectionID: "http:u1", UserID: "u1", Name: "Ann"},
		},
		{
			"client connection header ignored",
			"/api/rooms",
			map[string]string{HeaderUserID: "u1", "X-Connection-ID": "c9"},
			&service.Actor{ConnectionID: "http:u1", UserID: "u1"},
		},
		{
			"websocket query",
			"/ws?user_id=u2&name=Bo",
			nil,
			&service.Actor{ConnectionID: "http:u2", UserID: "u2", Name: "Bo"},
		},
		{"query ignored outside websocket", "/api/rooms?user_id=u2", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *service.Actor
			h := identity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if actor, err := actorFrom(r); err == nil {
					got = &actor
				} else if !errors.Is(err, apperrors.New(apperrors.CodeUnauthenticated, "")) {
					t.Errorf("unexpected error %v", err)
				}
			}))

			req := httptest.NewRequest("GET", tt.target, nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			switch {
			case tt.want == nil && got != nil:
				t.Errorf("Expected no actor, got %+v", *got)
			case tt.want != nil && (got == nil || *got != *tt.want):
				t.Errorf("Expected %+v, got %v", *tt.want, got)
			}
		})
	}
}

type recordingHub struct {
	userID, name string
}

func (h *recordingHub) ServeWS(w http.ResponseWriter, r *http.Request, userID, name string) {
	h.userID, h.name = userID, name
	w.WriteHeader(http.StatusSwitchingProtocols)
}

func TestWebSocketUpgrade(t *testing.T) {
	s := newTestServer(t)
	if w := do(t, s, "GET", "/ws", "alice", nil, nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 without a hub, got %d", w.Code)
	}

	hub := &recordingHub{}
	s = NewServer(s.service, hub, nil)

	if w := do(t, s, "GET", "/ws", "", nil, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without identity, got %d", w.Code)
	}
	do(t, s, "GET", "/ws?user_id=u7&name=Zed", "", nil, nil)
	if hub.userID != "u7" || hub.name != "Zed" {
		t.Errorf("Expected hub to receive u7/Zed, got %s/%s", hub.userID, hub.name)
	}
}
