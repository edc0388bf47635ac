package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/rat-race-game/game/lobby"
	"github.com/wricardo/rat-race-game/game/session"
)

func connectTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	store, err := Connect(context.Background(), url, nil)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(store.Close)
	return store
}

func testRoom() *lobby.Room {
	return &lobby.Room{
		ID:         "test-" + uuid.NewString(),
		Name:       "Table",
		MaxPlayers: 4,
		Timer:      90,
		CreatorID:  "c1",
		Status:     lobby.StatusWaiting,
		CreatedAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Players: []lobby.Member{
			{ConnectionID: "c1", UserID: "u1", Name: "Alice"},
		},
	}
}

func TestConnectRejectsEmptyURL(t *testing.T) {
	if _, err := Connect(context.Background(), "", nil); err == nil {
		t.Error("expected an error for an empty url")
	}
}

func TestStoreLifecycle(t *testing.T) {
	store := connectTestStore(t)
	ctx := context.Background()
	room := testRoom()
	t.Cleanup(func() { store.Delete(ctx, room.ID) })

	if err := store.Save(ctx, room); err != nil {
		t.Fatalf("Save: %v", err)
	}
	room.Status = lobby.StatusPlaying
	if err := store.Save(ctx, room); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load(ctx, room.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Status != lobby.StatusPlaying || loaded.Timer != 90 {
		t.Errorf("unexpected room: %+v", loaded)
	}

	ids, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	found := false
	for _, id := range ids {
		found = found || id == room.ID
	}
	if !found {
		t.Errorf("room %s missing from %v", room.ID, ids)
	}

	if err := store.Delete(ctx, room.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if exists, _ := store.Exists(ctx, room.ID); exists {
		t.Error("room should be gone")
	}
	if err := store.Delete(ctx, room.ID); !errors.Is(err, session.ErrRoomNotPersisted) {
		t.Errorf("expected ErrRoomNotPersisted, got %v", err)
	}
	if _, err := store.Load(ctx, room.ID); !errors.Is(err, session.ErrRoomNotPersisted) {
		t.Errorf("expected ErrRoomNotPersisted, got %v", err)
	}
}
