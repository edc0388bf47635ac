package engine

import (
	"fmt"

	"github.com/wricardo/rat-race-game/game/cards"
)

// LoadSnapshot rebuilds an engine from a persisted snapshot. The snapshot is
// validated first and copied, never shared with the caller. A snapshot
// without deck state gets a freshly shuffled supply.
func LoadSnapshot(state *GameState, config *GameConfig, opts ...Option) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}
	if err := ValidateSnapshot(state); err != nil {
		return nil, err
	}

	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	restored := state.Clone()
	restored.Version = SnapshotVersion

	var supply *cards.Supply
	if restored.Decks != nil {
		supply, err = cards.RestoreSupply(*restored.Decks, config.Catalog(), o.rng)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
		}
	} else {
		supply = cards.NewSupply(config.Catalog(), o.rng)
	}

	e := &GameEngine{
		state:  restored,
		config: config,
		supply: supply,
		rng:    o.rng,
		logger: o.logger,
	}
	e.syncDecks()
	return e, nil
}

// ValidateSnapshot checks that a snapshot is internally consistent.
func ValidateSnapshot(state *GameState) error {
	if state == nil {
		return fmt.Errorf("%w: snapshot is nil", ErrInvalidSnapshot)
	}
	if state.Version > SnapshotVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidSnapshot, state.Version)
	}
	if state.RoomID == "" {
		return fmt.Errorf("%w: room id is required", ErrInvalidSnapshot)
	}
	if len(state.Players) == 0 {
		return fmt.Errorf("%w: no players", ErrInvalidSnapshot)
	}
	if state.CurrentPlayerIndex < 0 || state.CurrentPlayerIndex >= len(state.Players) {
		return fmt.Errorf("%w: current player index %d out of range", ErrInvalidSnapshot, state.CurrentPlayerIndex)
	}

	switch state.Phase {
	case PhaseRoll, PhaseAction, PhaseEnd:
	default:
		return fmt.Errorf("%w: unknown phase %q", ErrInvalidSnapshot, state.Phase)
	}
	if state.PendingDeal && state.Phase != PhaseAction {
		return fmt.Errorf("%w: pending deal outside ACTION phase", ErrInvalidSnapshot)
	}
	if state.TurnSeconds < 0 || state.TurnTimeRemaining < 0 {
		return fmt.Errorf("%w: negative turn timer", ErrInvalidSnapshot)
	}

	if err := state.Board.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	seen := make(map[string]bool)
	for i, p := range state.Players {
		if p.UserID == "" {
			return fmt.Errorf("%w: player %d has no user id", ErrInvalidSnapshot, i)
		}
		if seen[p.UserID] {
			return fmt.Errorf("%w: duplicate player %s", ErrInvalidSnapshot, p.UserID)
		}
		seen[p.UserID] = true

		if length := state.Board.RingLength(p.IsFastTrack); p.Position < 0 || p.Position >= length {
			return fmt.Errorf("%w: player %s position %d outside ring of %d", ErrInvalidSnapshot, p.UserID, p.Position, length)
		}
		if p.Income != p.Salary+p.PassiveIncome {
			return fmt.Errorf("%w: player %s income does not match salary plus passive income", ErrInvalidSnapshot, p.UserID)
		}
		if p.Cashflow != p.Income-p.Expenses {
			return fmt.Errorf("%w: player %s cashflow does not match income minus expenses", ErrInvalidSnapshot, p.UserID)
		}
		if p.LoanDebt < 0 || p.ChildrenCount < 0 {
			return fmt.Errorf("%w: player %s has negative loan or children", ErrInvalidSnapshot, p.UserID)
		}
	}

	if state.CurrentCard != nil {
		if err := state.CurrentCard.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
		}
	}

	return nil
}
