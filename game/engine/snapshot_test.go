package engine

import (
	"encoding/json"
	"errors"
	"math/rand"
	"testing"
)

func TestLoadSnapshotRoundTrip(t *testing.T) {
	e := newTestEngine(t, nil)
	e.RollDice()
	_ = e.TakeLoan("u2", 1000)
	e.EndTurn()

	data, err := json.Marshal(e.GetState())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var saved GameState
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	restored, err := LoadSnapshot(&saved, DefaultConfig(), WithRand(rand.New(rand.NewSource(9))))
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}

	got, want := restored.GetState(), e.GetState()
	if got.CurrentPlayerIndex != want.CurrentPlayerIndex || got.Phase != want.Phase || got.Turn != want.Turn {
		t.Errorf("turn state differs: got %+v want %+v", got, want)
	}
	if got.Players[1].LoanDebt != 1000 || got.Players[0].Position != want.Players[0].Position {
		t.Errorf("player state differs: %+v", got.Players)
	}
	if len(got.Decks.Expenses) != len(want.Decks.Expenses) || len(got.Decks.SmallDeals) != len(want.Decks.SmallDeals) {
		t.Error("deck state differs")
	}
	if len(got.Log) != len(want.Log) {
		t.Errorf("expected %d log entries, got %d", len(want.Log), len(got.Log))
	}

	saved.Players[0].Cash = -1
	if restored.GetState().Players[0].Cash == -1 {
		t.Error("engine shares memory with the loaded snapshot")
	}
}

func TestLoadSnapshotWithoutDecks(t *testing.T) {
	state := newTestEngine(t, nil).GetState()
	state.Decks = nil

	restored, err := LoadSnapshot(state, DefaultConfig())
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if restored.GetState().Decks == nil {
		t.Error("expected a fresh supply")
	}
}

func TestLoadSnapshotRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*GameState)
	}{
		{"future version", func(s *GameState) { s.Version = SnapshotVersion + 1 }},
		{"no room", func(s *GameState) { s.RoomID = "" }},
		{"no players", func(s *GameState) { s.Players = nil }},
		{"index out of range", func(s *GameState) { s.CurrentPlayerIndex = 5 }},
		{"unknown phase", func(s *GameState) { s.Phase = "MOVE" }},
		{"pending deal in roll", func(s *GameState) { s.PendingDeal = true }},
		{"duplicate players", func(s *GameState) { s.Players[1].UserID = s.Players[0].UserID }},
		{"position off the board", func(s *GameState) { s.Players[0].Position = 24 }},
		{"cashflow out of sync", func(s *GameState) { s.Players[0].Cashflow = 5 }},
		{"income out of sync", func(s *GameState) { s.Players[0].PassiveIncome = 5 }},
		{"negative timer", func(s *GameState) { s.TurnTimeRemaining = -1 }},
		{"broken board", func(s *GameState) { s.Board.FastTrack = nil }},
		{"broken card", func(s *GameState) { s.CurrentCard = ptr(stockCard()); s.CurrentCard.SmallDeal = nil }},
		{"card in wrong pile", func(s *GameState) { s.Decks.BigDeals = append(s.Decks.BigDeals, s.Decks.SmallDeals[0]) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := newTestEngine(t, nil).GetState()
			tt.mutate(state)
			if _, err := LoadSnapshot(state, DefaultConfig()); !errors.Is(err, ErrInvalidSnapshot) {
				t.Errorf("expected ErrInvalidSnapshot, got %v", err)
			}
		})
	}
}

func TestLoadSnapshotNil(t *testing.T) {
	if _, err := LoadSnapshot(nil, DefaultConfig()); !errors.Is(err, ErrInvalidSnapshot) {
		t.Errorf("expected ErrInvalidSnapshot, got %v", err)
	}
}
