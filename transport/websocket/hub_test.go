package websocket

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wricardo/rat-race-game/game/engine"
	"github.com/wricardo/rat-race-game/game/lobby"
	"github.com/wricardo/rat-race-game/game/service"
	"github.com/wricardo/rat-race-game/game/session"
	apperrors "github.com/wricardo/rat-race-game/internal/platform/errors"
)

type testConfigs struct{}

func (testConfigs) LoadConfig(string) (*engine.GameConfig, error) { return engine.DefaultConfig(), nil }
func (testConfigs) ListConfigs() ([]*service.ConfigInfo, error)   { return nil, nil }
func (testConfigs) GetDefault() *engine.GameConfig                { return engine.DefaultConfig() }

func newTestServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	sessions := session.NewManager(lobby.NewDirectory(), testConfigs{},
		session.WithRandFactory(func() (*rand.Rand, error) { return rand.New(rand.NewSource(9)), nil }))

	hub := NewHub(nil)
	hub.SetService(service.NewGameService(sessions, testConfigs{}, service.WithNotifier(hub)))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("user"), r.URL.Query().Get("name"))
	}))
	t.Cleanup(srv.Close)
	return hub, srv
}

type testClient struct {
	t      *testing.T
	conn   *websocket.Conn
	connID string
}

func dial(t *testing.T, srv *httptest.Server, user, name string) *testClient {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?user=" + user + "&name=" + name
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	c := &testClient{t: t, conn: conn}
	var actor service.Actor
	c.expect(EventConnected, &actor)
	if actor.UserID != user || actor.ConnectionID == "" {
		t.Fatalf("unexpected actor %+v", actor)
	}
	c.connID = actor.ConnectionID
	return c
}

func (c *testClient) send(event, requestID string, data any) {
	c.t.Helper()
	raw, _ := json.Marshal(data)
	if err := c.conn.WriteJSON(Request{Event: event, RequestID: requestID, Data: raw}); err != nil {
		c.t.Fatalf("write: %v", err)
	}
}

// next reads the next frame as a generic envelope.
func (c *testClient) next() map[string]json.RawMessage {
	c.t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame map[string]json.RawMessage
	if err := c.conn.ReadJSON(&frame); err != nil {
		c.t.Fatalf("read: %v", err)
	}
	return frame
}

// expect skips frames until event arrives and decodes its data into out.
func (c *testClient) expect(event string, out any) {
	c.t.Helper()
	for i := 0; i < 20; i++ {
		frame := c.next()
		var name string
		json.Unmarshal(frame["event"], &name)
		if name != event {
			continue
		}
		if out != nil {
			if err := json.Unmarshal(frame["data"], out); err != nil {
				c.t.Fatalf("decode %s: %v", event, err)
			}
		}
		return
	}
	c.t.Fatalf("no %s event received", event)
}

// call sends an event and waits for its ack.
func (c *testClient) call(event string, data any) Ack {
	c.t.Helper()
	id := event + "-" + time.Now().Format("150405.000000000")
	c.send(event, id, data)
	for i := 0; i < 20; i++ {
		frame := c.next()
		var ack Ack
		raw, _ := json.Marshal(frame)
		json.Unmarshal(raw, &ack)
		if ack.Event == EventAck && ack.RequestID == id {
			return ack
		}
	}
	c.t.Fatalf("no ack for %s", event)
	return Ack{}
}

func TestHubLobbyAndGame(t *testing.T) {
	hub, srv := newTestServer(t)
	alice := dial(t, srv, "u1", "Alice")
	bob := dial(t, srv, "u2", "Bob")

	if hub.ClientCount() != 2 {
		t.Fatalf("expected 2 clients, got %d", hub.ClientCount())
	}

	ack := alice.call("create_room", map[string]any{"name": "Table", "max_players": 2})
	if !ack.OK {
		t.Fatalf("create_room failed: %s", ack.Error)
	}
	var room lobby.RoomView
	raw, _ := json.Marshal(ack.Data)
	json.Unmarshal(raw, &room)

	var rooms []lobby.RoomView
	bob.expect(service.EventRoomsUpdated, &rooms)
	if len(rooms) != 1 || rooms[0].ID != room.ID {
		t.Fatalf("bob should see the new room, got %+v", rooms)
	}

	if ack := bob.call("join_room", map[string]any{"room_id": room.ID}); !ack.OK {
		t.Fatalf("join_room failed: %s", ack.Error)
	}
	var updated lobby.RoomView
	alice.expect(service.EventRoomStateUpdated, &updated)
	if len(updated.Players) != 2 {
		t.Errorf("expected 2 players, got %d", len(updated.Players))
	}

	ack = bob.call("player_ready", map[string]any{"room_id": room.ID, "ready": true})
	if ack.OK || ack.Code != string(apperrors.CodeDreamRequired) {
		t.Errorf("expected dream_required, got %+v", ack)
	}

	alice.call("player_ready", map[string]any{"room_id": room.ID, "ready": true, "dream": "island", "token": "car"})
	bob.call("player_ready", map[string]any{"room_id": room.ID, "ready": true, "dream": "yacht", "token": "hat"})

	if ack := alice.call("start_game", map[string]any{"room_id": room.ID}); !ack.OK {
		t.Fatalf("start_game failed: %s", ack.Error)
	}
	var started service.StatePayload
	bob.expect(service.EventGameStarted, &started)
	if started.State == nil || len(started.State.Players) != 2 {
		t.Fatalf("unexpected game_started payload: %+v", started)
	}

	ack = bob.call("roll_dice", map[string]any{"room_id": room.ID})
	if ack.OK || ack.Code != string(apperrors.CodeNotYourTurn) {
		t.Errorf("expected not_your_turn, got %+v", ack)
	}

	if ack := alice.call("roll_dice", map[string]any{"room_id": room.ID}); !ack.OK {
		t.Fatalf("roll_dice failed: %s", ack.Error)
	}
	var rolled service.RollResult
	bob.expect(service.EventDiceRolled, &rolled)
	if rolled.Roll < 1 || rolled.Roll > 6 {
		t.Errorf("roll out of range: %d", rolled.Roll)
	}

	if ack := bob.call("take_loan", map[string]any{"room_id": room.ID, "amount": 1000}); !ack.OK {
		t.Fatalf("take_loan failed: %s", ack.Error)
	}
	alice.expect(service.EventStateUpdated, nil)

	if ack := alice.call("end_turn", map[string]any{"room_id": room.ID}); !ack.OK {
		t.Fatalf("end_turn failed: %s", ack.Error)
	}
	var ended service.StatePayload
	bob.expect(service.EventTurnEnded, &ended)
	if ended.State.CurrentPlayerIndex != 1 {
		t.Errorf("expected bob's turn, got index %d", ended.State.CurrentPlayerIndex)
	}
}

func TestHubRejectsBadFrames(t *testing.T) {
	_, srv := newTestServer(t)
	c := dial(t, srv, "u1", "Alice")

	tests := []struct {
		name  string
		event string
		data  any
		code  apperrors.Code
	}{
		{"unknown event", "fly", nil, apperrors.CodeInvalidArgument},
		{"missing room", "roll_dice", map[string]any{}, apperrors.CodeInvalidArgument},
		{"malformed data", "take_loan", map[string]any{"amount": "lots"}, apperrors.CodeInvalidArgument},
		{"no such game", "end_turn", map[string]any{"room_id": "nope"}, apperrors.CodeGameNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := c.call(tt.event, tt.data)
			if ack.OK || ack.Code != string(tt.code) {
				t.Errorf("expected %s, got %+v", tt.code, ack)
			}
		})
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	frame := c.next()
	var ack Ack
	raw, _ := json.Marshal(frame)
	json.Unmarshal(raw, &ack)
	if ack.OK || ack.Code != string(apperrors.CodeInvalidArgument) {
		t.Errorf("expected invalid_argument for a broken frame, got %+v", ack)
	}
}

func TestHubSubscriptions(t *testing.T) {
	hub := NewHub(nil)
	client := &Client{
		hub:   hub,
		send:  make(chan []byte, 4),
		actor: service.Actor{ConnectionID: "c1", UserID: "u1"},
		rooms: make(map[string]bool),
	}
	hub.registerClient(client)

	hub.Subscribe("c1", "r1")
	hub.Subscribe("ghost", "r1")
	hub.BroadcastRoom("r1", "hello", nil)
	hub.BroadcastRoom("r2", "ignored", nil)

	if len(client.send) != 1 {
		t.Fatalf("expected one queued message, got %d", len(client.send))
	}
	var msg Message
	json.Unmarshal(<-client.send, &msg)
	if msg.Event != "hello" {
		t.Errorf("expected hello, got %s", msg.Event)
	}

	hub.Unsubscribe("c1", "r1")
	hub.BroadcastRoom("r1", "after", nil)
	if len(client.send) != 0 {
		t.Error("unsubscribed client still receives room events")
	}
	if len(hub.rooms) != 0 {
		t.Error("empty room subscription not cleaned up")
	}
}

func TestHubDropsSlowClients(t *testing.T) {
	hub := NewHub(nil)
	client := &Client{
		hub:   hub,
		send:  make(chan []byte, 1),
		actor: service.Actor{ConnectionID: "c1", UserID: "u1"},
		rooms: make(map[string]bool),
	}
	hub.registerClient(client)
	hub.Subscribe("c1", "r1")

	hub.BroadcastAll("one", nil)
	hub.BroadcastAll("two", nil)

	if hub.ClientCount() != 0 {
		t.Error("slow client should be unregistered")
	}
	if len(hub.rooms) != 0 {
		t.Error("slow client's subscriptions should be dropped")
	}
	// closed after the buffered message
	<-client.send
	if _, ok := <-client.send; ok {
		t.Error("send channel should be closed")
	}
}

func TestHubDisconnectKeepsMembership(t *testing.T) {
	hub, srv := newTestServer(t)
	alice := dial(t, srv, "u1", "Alice")

	ack := alice.call("create_room", map[string]any{"name": "Table"})
	if !ack.OK {
		t.Fatalf("create_room failed: %s", ack.Error)
	}
	var room lobby.RoomView
	raw, _ := json.Marshal(ack.Data)
	json.Unmarshal(raw, &room)

	alice.conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.ClientCount() != 0 {
		t.Fatal("client not unregistered after close")
	}

	again := dial(t, srv, "u1", "Alice")
	ack = again.call("join_room", map[string]any{"room_id": room.ID})
	if !ack.OK {
		t.Fatalf("rejoin failed: %s", ack.Error)
	}
	raw, _ = json.Marshal(ack.Data)
	json.Unmarshal(raw, &room)
	if len(room.Players) != 1 || room.Players[0].ConnectionID != again.connID || room.CreatorID != again.connID {
		t.Errorf("expected alice relinked as host, got %+v", room)
	}
}
