package service

import (
	"context"
	"time"

	"github.com/wricardo/rat-race-game/game/engine"
)

// AdvanceClock runs every running game's turn timer forward by elapsed.
// Turns whose budget ran out are ended and announced with turn_ended. It
// returns the rooms whose turn was ended.
func (s *gameServiceImpl) AdvanceClock(ctx context.Context, elapsed time.Duration) []string {
	var ended []string
	for _, roomID := range s.sessions.ActiveRoomIDs() {
		if ctx.Err() != nil {
			break
		}

		var state *engine.GameState
		err := s.sessions.WithRoom(roomID, func() error {
			eng, err := s.sessions.Engine(roomID)
			if err != nil {
				return err
			}
			if !eng.Tick(elapsed) {
				return nil
			}

			player := eng.GetState().CurrentPlayer()
			eng.EndTurn()
			_, state, err = s.sessions.Commit(roomID)
			if err == nil && player != nil {
				s.logger.Debug("turn timed out", "room_id", roomID, "user_id", player.UserID)
			}
			return err
		})
		if err != nil {
			s.logger.Warn("turn clock failed", "room_id", roomID, "error", err)
			continue
		}
		if state == nil {
			continue
		}

		ended = append(ended, roomID)
		s.notifier.BroadcastRoom(roomID, EventTurnEnded, StatePayload{RoomID: roomID, State: state, Expired: true})
	}
	return ended
}

// RunTurnClock advances the turn timers every interval until ctx is done.
func (s *gameServiceImpl) RunTurnClock(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.AdvanceClock(ctx, now.Sub(last))
			last = now
		}
	}
}

// CleanupIdleRooms deletes waiting rooms older than maxAge and refreshes
// the lobby when any were removed.
func (s *gameServiceImpl) CleanupIdleRooms(ctx context.Context, maxAge time.Duration) int {
	removed := s.sessions.CleanupIdle(maxAge)
	if len(removed) > 0 {
		s.broadcastRooms()
	}
	return len(removed)
}
