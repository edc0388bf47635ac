// Package engine implements the turn machine of a Rat Race game.
//
// A GameEngine owns one GameState snapshot: the roster of players with their
// finances and board positions, the active player, the turn phase, the event
// log and the card on the table. Every action validates the phase, the turn
// owner and its financial preconditions before touching the snapshot, so a
// rejected action leaves the state exactly as it was.
//
// Turn flow:
//
//	ROLL   -> RollDice moves the active player and resolves the square
//	ACTION -> ChooseDeal, BuyAsset or SkipCard handle the card on the table
//	END    -> EndTurn returns the card to its deck and passes the turn on
//
// Loans, repayments and transfers are not tied to the turn.
//
// Usage:
//
//	eng, err := engine.NewEngine(roomID, seats, engine.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	eng.RollDice()
//	eng.EndTurn()
//
//	// after a restart
//	eng, err = engine.LoadSnapshot(savedState, config)
//
// Players leave the rat race for the fast track once passive income is at
// least FastTrackMultiplier times their expenses with no bank loan left.
// The move is permanent.
package engine
