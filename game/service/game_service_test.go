package service_test

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/rat-race-game/game/engine"
	"github.com/wricardo/rat-race-game/game/lobby"
	"github.com/wricardo/rat-race-game/game/service"
	"github.com/wricardo/rat-race-game/game/session"
	apperrors "github.com/wricardo/rat-race-game/internal/platform/errors"
)

// MockConfigManager implements service.ConfigManager for testing
type MockConfigManager struct{}

func (MockConfigManager) LoadConfig(name string) (*engine.GameConfig, error) {
	switch name {
	case "", "classic":
		return engine.DefaultConfig(), nil
	default:
		return nil, apperrors.New(apperrors.CodeNotFound, "configuration not found: "+name)
	}
}

func (MockConfigManager) ListConfigs() ([]*service.ConfigInfo, error) {
	return []*service.ConfigInfo{{Filename: "classic.json", ConfigID: "classic", Name: "Classic"}}, nil
}

func (MockConfigManager) GetDefault() *engine.GameConfig {
	return engine.DefaultConfig()
}

type sent struct {
	scope   string // all, room, conn
	target  string
	event   string
	payload any
}

// recordingNotifier captures everything the service emits.
type recordingNotifier struct {
	mu     sync.Mutex
	events []sent
	subs   map[string]map[string]bool
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{subs: make(map[string]map[string]bool)}
}

func (n *recordingNotifier) BroadcastAll(event string, payload any) {
	n.record(sent{"all", "", event, payload})
}

func (n *recordingNotifier) BroadcastRoom(roomID, event string, payload any) {
	n.record(sent{"room", roomID, event, payload})
}

func (n *recordingNotifier) SendTo(connectionID, event string, payload any) {
	n.record(sent{"conn", connectionID, event, payload})
}

func (n *recordingNotifier) Subscribe(connectionID, roomID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs[roomID] == nil {
		n.subs[roomID] = make(map[string]bool)
	}
	n.subs[roomID][connectionID] = true
}

func (n *recordingNotifier) Unsubscribe(connectionID, roomID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.subs[roomID], connectionID)
}

func (n *recordingNotifier) record(s sent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, s)
}

func (n *recordingNotifier) subscribed(roomID, connectionID string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.subs[roomID][connectionID]
}

// last returns the most recent event with the given name.
func (n *recordingNotifier) last(event string) (sent, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.events) - 1; i >= 0; i-- {
		if n.events[i].event == event {
			return n.events[i], true
		}
	}
	return sent{}, false
}

func (n *recordingNotifier) count(event string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if e.event == event {
			c++
		}
	}
	return c
}

var (
	alice = service.Actor{ConnectionID: "c1", UserID: "u1", Name: "Alice"}
	bob   = service.Actor{ConnectionID: "c2", UserID: "u2", Name: "Bob"}
	carol = service.Actor{ConnectionID: "c3", UserID: "u3", Name: "Carol"}
)

type fixture struct {
	svc      service.GameService
	sessions *session.Manager
	store    *session.MemoryPersistence
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := session.NewMemoryPersistence()
	sessions := session.NewManager(lobby.NewDirectory(), MockConfigManager{},
		session.WithStore(store),
		session.WithRandFactory(func() (*rand.Rand, error) {
			return rand.New(rand.NewSource(3)), nil
		}))
	t.Cleanup(func() { sessions.Close(context.Background()) })

	notifier := newRecordingNotifier()
	return &fixture{
		svc:      service.NewGameService(sessions, MockConfigManager{}, service.WithNotifier(notifier)),
		sessions: sessions,
		store:    store,
		notifier: notifier,
	}
}

// lobbyRoom creates a room for alice and seats bob.
func (f *fixture) lobbyRoom(t *testing.T, timer int) string {
	t.Helper()
	ctx := context.Background()
	room, err := f.svc.CreateRoom(ctx, alice, service.CreateRoomInput{Name: "Table", Timer: timer})
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if _, err := f.svc.JoinRoom(ctx, bob, service.JoinRoomInput{RoomID: room.ID}); err != nil {
		t.Fatalf("JoinRoom: %v", err)
	}
	return room.ID
}

// playingRoom runs the lobby through to a started game.
func (f *fixture) playingRoom(t *testing.T, timer int) string {
	t.Helper()
	ctx := context.Background()
	roomID := f.lobbyRoom(t, timer)
	for _, r := range []struct {
		actor service.Actor
		token string
	}{{alice, "car"}, {bob, "hat"}} {
		if _, err := f.svc.SetReady(ctx, r.actor, service.ReadyInput{
			RoomID: roomID, Ready: true, Dream: "island", Token: r.token,
		}); err != nil {
			t.Fatalf("SetReady: %v", err)
		}
	}
	if _, err := f.svc.StartGame(ctx, alice, roomID); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	return roomID
}

func TestCreateAndJoinRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, err := f.svc.CreateRoom(ctx, alice, service.CreateRoomInput{Name: "Table", MaxPlayers: 2, Password: "abc"})
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if !room.HasPassword || room.CreatorID != "c1" || room.Players[0].Name != "Alice" {
		t.Errorf("unexpected room: %+v", room)
	}
	if !f.notifier.subscribed(room.ID, "c1") {
		t.Error("creator should receive room broadcasts")
	}
	if ev, ok := f.notifier.last(service.EventRoomsUpdated); !ok || ev.scope != "all" {
		t.Error("expected rooms_updated to everyone")
	}

	tests := []struct {
		name  string
		actor service.Actor
		pass  string
		want  error
	}{
		{"wrong password", bob, "nope", lobby.ErrWrongPassword},
		{"correct password", bob, "abc", nil},
		{"rejoin after reconnect", service.Actor{ConnectionID: "c2b", UserID: "u2"}, "abc", nil},
		{"room full", carol, "abc", lobby.ErrRoomFull},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.JoinRoom(ctx, tt.actor, service.JoinRoomInput{RoomID: room.ID, Password: tt.pass})
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	got, err := f.svc.GetRoom(ctx, room.ID)
	if err != nil {
		t.Fatalf("GetRoom: %v", err)
	}
	if len(got.Players) != 2 || got.Players[1].ConnectionID != "c2b" {
		t.Errorf("expected bob relinked to c2b, got %+v", got.Players)
	}
	if ev, ok := f.notifier.last(service.EventRoomStateUpdated); !ok || ev.target != room.ID {
		t.Error("expected room_state_updated to the room")
	}
}

func TestCreateRoomRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		actor service.Actor
		in    service.CreateRoomInput
		want  error
	}{
		{"no identity", service.Actor{}, service.CreateRoomInput{Name: "x"}, service.ErrInvalidActor},
		{"no name", alice, service.CreateRoomInput{}, lobby.ErrInvalidArgument},
		{"unknown ruleset", alice, service.CreateRoomInput{Name: "x", ConfigName: "chess"}, apperrors.New(apperrors.CodeNotFound, "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.CreateRoom(ctx, tt.actor, tt.in); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
	if rooms, _ := f.svc.ListRooms(ctx); len(rooms) != 0 {
		t.Errorf("no room should exist, got %d", len(rooms))
	}
}

func TestSetReady(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	roomID := f.lobbyRoom(t, 0)

	tests := []struct {
		name  string
		actor service.Actor
		in    service.ReadyInput
		want  error
	}{
		{"missing dream", alice, service.ReadyInput{RoomID: roomID, Ready: true}, lobby.ErrDreamRequired},
		{"unknown profession", alice, service.ReadyInput{RoomID: roomID, Ready: true, Dream: "island", Profession: "astronaut"}, engine.ErrUnknownProfession},
		{"ready", alice, service.ReadyInput{RoomID: roomID, Ready: true, Dream: "island", Token: "car", Profession: "doctor"}, nil},
		{"token taken", bob, service.ReadyInput{RoomID: roomID, Ready: true, Dream: "yacht", Token: "car"}, lobby.ErrTokenTaken},
		{"unknown room", bob, service.ReadyInput{RoomID: "nope", Ready: true, Dream: "yacht"}, lobby.ErrRoomNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.SetReady(ctx, tt.actor, tt.in); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	room, _ := f.svc.GetRoom(ctx, roomID)
	if !room.Players[0].Ready || room.Players[0].Profession != "doctor" {
		t.Errorf("alice not ready: %+v", room.Players[0])
	}
	if room.Players[1].Ready {
		t.Error("bob's rejected request must not change him")
	}
}

func TestStartGame(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	roomID := f.lobbyRoom(t, 0)

	if _, err := f.svc.StartGame(ctx, alice, roomID); !errors.Is(err, lobby.ErrNotAllReady) {
		t.Errorf("expected ErrNotAllReady, got %v", err)
	}

	f.svc.SetReady(ctx, alice, service.ReadyInput{RoomID: roomID, Ready: true, Dream: "island", Token: "car", Profession: "doctor"})
	f.svc.SetReady(ctx, bob, service.ReadyInput{RoomID: roomID, Ready: true, Dream: "yacht", Token: "hat"})

	if _, err := f.svc.StartGame(ctx, bob, roomID); !errors.Is(err, lobby.ErrNotCreator) {
		t.Errorf("expected ErrNotCreator, got %v", err)
	}

	state, err := f.svc.StartGame(ctx, alice, roomID)
	if err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if len(state.Players) != 2 || state.Players[0].Salary != 13200 {
		t.Errorf("unexpected players: %+v", state.Players)
	}
	if state.TurnSeconds != lobby.DefaultTimer {
		t.Errorf("expected default timer, got %d", state.TurnSeconds)
	}

	ev, ok := f.notifier.last(service.EventGameStarted)
	if !ok || ev.target != roomID {
		t.Fatal("expected game_started to the room")
	}
	if rooms, _ := f.svc.ListRooms(ctx); len(rooms) != 0 {
		t.Error("a playing room must leave the waiting list")
	}
	if _, err := f.svc.StartGame(ctx, alice, roomID); err == nil {
		t.Error("a game cannot start twice")
	}

	if err := f.sessions.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	saved, err := f.store.Load(ctx, roomID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if saved.Status != lobby.StatusPlaying || saved.GameState == nil {
		t.Errorf("persisted room not playing: %+v", saved)
	}
}

func TestRollDice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	roomID := f.playingRoom(t, 0)

	t.Run("not your turn", func(t *testing.T) {
		if _, err := f.svc.RollDice(ctx, bob, roomID); !errors.Is(err, engine.ErrNotYourTurn) {
			t.Errorf("expected ErrNotYourTurn, got %v", err)
		}
	})
	t.Run("not seated", func(t *testing.T) {
		if _, err := f.svc.RollDice(ctx, carol, roomID); !errors.Is(err, engine.ErrPlayerNotFound) {
			t.Errorf("expected ErrPlayerNotFound, got %v", err)
		}
	})
	t.Run("no game", func(t *testing.T) {
		if _, err := f.svc.RollDice(ctx, alice, "nope"); !errors.Is(err, session.ErrGameNotFound) {
			t.Errorf("expected ErrGameNotFound, got %v", err)
		}
	})

	result, err := f.svc.RollDice(ctx, alice, roomID)
	if err != nil {
		t.Fatalf("RollDice: %v", err)
	}
	if result.Roll < 1 || result.Roll > engine.DieSides {
		t.Errorf("roll %d out of range", result.Roll)
	}
	if result.State.Phase != engine.PhaseAction {
		t.Errorf("expected ACTION, got %s", result.State.Phase)
	}
	if f.notifier.count(service.EventDiceRolled) != 1 {
		t.Error("expected one dice_rolled broadcast")
	}

	again, err := f.svc.RollDice(ctx, alice, roomID)
	if err != nil {
		t.Fatalf("RollDice: %v", err)
	}
	if again.Roll != 0 {
		t.Errorf("second roll in a turn must be ignored, got %d", again.Roll)
	}
	if f.notifier.count(service.EventDiceRolled) != 1 {
		t.Error("an ignored roll must not broadcast")
	}
}

func TestFinanceActions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	roomID := f.playingRoom(t, 0)

	// loans are not tied to the turn
	state, err := f.svc.TakeLoan(ctx, bob, roomID, 1000)
	if err != nil {
		t.Fatalf("TakeLoan: %v", err)
	}
	p, _ := state.Player("u2")
	if p.LoanDebt != 1000 || p.Cash != 4000 {
		t.Errorf("unexpected player after loan: %+v", p)
	}
	if ev, ok := f.notifier.last(service.EventStateUpdated); !ok || ev.target != roomID {
		t.Error("expected state_updated to the room")
	}

	before := f.notifier.count(service.EventStateUpdated)
	tests := []struct {
		name string
		call func() error
		want error
	}{
		{"odd loan", func() error { _, err := f.svc.TakeLoan(ctx, bob, roomID, 150); return err }, engine.ErrInvalidLoanAmount},
		{"repay too much", func() error { _, err := f.svc.RepayLoan(ctx, bob, roomID, 5000); return err }, engine.ErrRepayExceedsDebt},
		{"transfer too much", func() error { _, err := f.svc.TransferFunds(ctx, alice, roomID, "u2", 1_000_000); return err }, engine.ErrInsufficientCash},
		{"transfer to stranger", func() error { _, err := f.svc.TransferFunds(ctx, alice, roomID, "u9", 10); return err }, engine.ErrPlayerNotFound},
		{"buy without card", func() error { _, err := f.svc.BuyAsset(ctx, alice, roomID, 1); return err }, engine.ErrWrongPhase},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
	if f.notifier.count(service.EventStateUpdated) != before {
		t.Error("rejected actions must not broadcast")
	}

	state, err = f.svc.RepayLoan(ctx, bob, roomID, 1000)
	if err != nil {
		t.Fatalf("RepayLoan: %v", err)
	}
	p, _ = state.Player("u2")
	if p.LoanDebt != 0 || p.Expenses != 2000 {
		t.Errorf("loan round trip left %+v", p)
	}

	state, err = f.svc.TransferFunds(ctx, alice, roomID, "u2", 500)
	if err != nil {
		t.Fatalf("TransferFunds: %v", err)
	}
	a, _ := state.Player("u1")
	b, _ := state.Player("u2")
	if a.Cash != 2500 || b.Cash != 3500 {
		t.Errorf("unexpected cash after transfer: %d / %d", a.Cash, b.Cash)
	}
}

func TestEndTurn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	roomID := f.playingRoom(t, 0)

	if _, err := f.svc.EndTurn(ctx, bob, roomID); !errors.Is(err, engine.ErrNotYourTurn) {
		t.Errorf("expected ErrNotYourTurn, got %v", err)
	}

	state, err := f.svc.EndTurn(ctx, alice, roomID)
	if err != nil {
		t.Fatalf("EndTurn: %v", err)
	}
	if state.CurrentPlayerIndex != 1 || state.Phase != engine.PhaseRoll {
		t.Errorf("expected bob to roll, got index %d phase %s", state.CurrentPlayerIndex, state.Phase)
	}
	if _, ok := f.notifier.last(service.EventTurnEnded); !ok {
		t.Error("expected turn_ended")
	}

	current, err := f.svc.GetGameState(ctx, roomID)
	if err != nil {
		t.Fatalf("GetGameState: %v", err)
	}
	if current.CurrentPlayerIndex != 1 {
		t.Error("GetGameState out of date")
	}
}

func TestDealFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	roomID := f.playingRoom(t, 0)

	// play until a deal square is pending or give up after a few rounds
	actors := map[string]service.Actor{"u1": alice, "u2": bob}
	for i := 0; i < 40; i++ {
		state, _ := f.svc.GetGameState(ctx, roomID)
		actor := actors[state.CurrentPlayer().UserID]
		result, err := f.svc.RollDice(ctx, actor, roomID)
		if err != nil {
			t.Fatalf("RollDice: %v", err)
		}
		if result.State.PendingDeal {
			state, err := f.svc.ChooseDeal(ctx, actor, roomID, engine.DealSmall)
			if err != nil {
				t.Fatalf("ChooseDeal: %v", err)
			}
			if state.PendingDeal {
				t.Error("deal still pending after choosing")
			}
			if state.CurrentCard != nil {
				if _, err := f.svc.SkipCard(ctx, actor, roomID); err != nil {
					t.Fatalf("SkipCard: %v", err)
				}
			}
			return
		}
		if _, err := f.svc.EndTurn(ctx, actor, roomID); err != nil {
			t.Fatalf("EndTurn: %v", err)
		}
	}
	t.Skip("no deal square reached with this seed")
}

func TestAdvanceClock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	roomID := f.playingRoom(t, 2)

	if ended := f.svc.AdvanceClock(ctx, time.Second); len(ended) != 0 {
		t.Fatalf("turn ended early: %v", ended)
	}
	ended := f.svc.AdvanceClock(ctx, 1500*time.Millisecond)
	if len(ended) != 1 || ended[0] != roomID {
		t.Fatalf("expected %s to time out, got %v", roomID, ended)
	}

	ev, ok := f.notifier.last(service.EventTurnEnded)
	if !ok {
		t.Fatal("expected turn_ended")
	}
	payload := ev.payload.(service.StatePayload)
	if !payload.Expired || payload.State.CurrentPlayerIndex != 1 {
		t.Errorf("unexpected payload: %+v", payload)
	}
	if payload.State.TurnTimeRemaining != 2 {
		t.Errorf("expected the timer reset, got %d", payload.State.TurnTimeRemaining)
	}
}

func TestRunTurnClockStops(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		f.svc.RunTurnClock(ctx, 5*time.Millisecond)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("turn clock did not stop")
	}
}

func TestLeaveRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	roomID := f.playingRoom(t, 0)

	if err := f.svc.LeaveRoom(ctx, alice, roomID); err != nil {
		t.Fatalf("LeaveRoom: %v", err)
	}
	room, err := f.svc.GetRoom(ctx, roomID)
	if err != nil {
		t.Fatalf("GetRoom: %v", err)
	}
	if room.CreatorID != "c2" {
		t.Errorf("expected creator to pass to bob, got %s", room.CreatorID)
	}
	if f.notifier.subscribed(roomID, "c1") {
		t.Error("alice should stop receiving room broadcasts")
	}

	if err := f.svc.LeaveRoom(ctx, alice, roomID); !errors.Is(err, lobby.ErrNotInRoom) {
		t.Errorf("expected ErrNotInRoom, got %v", err)
	}

	if err := f.svc.LeaveRoom(ctx, bob, roomID); err != nil {
		t.Fatalf("LeaveRoom: %v", err)
	}
	if _, err := f.svc.GetRoom(ctx, roomID); !errors.Is(err, lobby.ErrRoomNotFound) {
		t.Errorf("expected the empty room to be deleted, got %v", err)
	}
	if f.sessions.Count() != 0 {
		t.Error("the game should be torn down with its room")
	}
}

func TestDepartedPlayerCannotAct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	roomID := f.playingRoom(t, 0)

	if err := f.svc.LeaveRoom(ctx, bob, roomID); err != nil {
		t.Fatalf("LeaveRoom: %v", err)
	}

	tests := []struct {
		name string
		act  func(service.Actor) error
	}{
		{"take loan", func(a service.Actor) error {
			_, err := f.svc.TakeLoan(ctx, a, roomID, 100)
			return err
		}},
		{"transfer", func(a service.Actor) error {
			_, err := f.svc.TransferFunds(ctx, a, roomID, "u1", 100)
			return err
		}},
		{"end turn", func(a service.Actor) error {
			_, err := f.svc.EndTurn(ctx, a, roomID)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.act(bob); !errors.Is(err, lobby.ErrNotInRoom) {
				t.Errorf("expected ErrNotInRoom, got %v", err)
			}
		})
	}

	state, err := f.svc.GetGameState(ctx, roomID)
	if err != nil {
		t.Fatalf("GetGameState: %v", err)
	}
	for _, p := range state.Players {
		if p.UserID == bob.UserID && p.LoanDebt != 0 {
			t.Errorf("departed seat took a loan: %+v", p)
		}
	}
	if _, err := f.svc.TakeLoan(ctx, alice, roomID, 100); err != nil {
		t.Errorf("remaining member should still act: %v", err)
	}
}

func TestKickPlayer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	roomID := f.lobbyRoom(t, 0)

	tests := []struct {
		name   string
		actor  service.Actor
		target string
		want   error
	}{
		{"not host", bob, "c1", lobby.ErrNotCreator},
		{"self", alice, "c1", lobby.ErrCannotKickSelf},
		{"kick bob", alice, "c2", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.KickPlayer(ctx, tt.actor, roomID, tt.target); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	ev, ok := f.notifier.last(service.EventKicked)
	if !ok || ev.scope != "conn" || ev.target != "c2" {
		t.Errorf("expected bob to be told, got %+v", ev)
	}
	if f.notifier.subscribed(roomID, "c2") {
		t.Error("bob should stop receiving room broadcasts")
	}
	room, _ := f.svc.GetRoom(ctx, roomID)
	if len(room.Players) != 1 {
		t.Errorf("expected one member left, got %d", len(room.Players))
	}
}

func TestCleanupIdleRooms(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.lobbyRoom(t, 0)

	if n := f.svc.CleanupIdleRooms(ctx, time.Hour); n != 0 {
		t.Errorf("fresh room removed")
	}
	if n := f.svc.CleanupIdleRooms(ctx, -time.Second); n != 1 {
		t.Errorf("expected 1 room removed, got %d", n)
	}
}

func TestConfigs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	configs, err := f.svc.ListConfigs(ctx)
	if err != nil || len(configs) != 1 {
		t.Fatalf("ListConfigs: %v %v", configs, err)
	}
	cfg, err := f.svc.LoadConfig(ctx, "")
	if err != nil || cfg.Name != "Classic" {
		t.Errorf("expected the default ruleset, got %v %v", cfg, err)
	}
	if _, err := f.svc.LoadConfig(ctx, "chess"); err == nil {
		t.Error("expected an error for an unknown ruleset")
	}
}
