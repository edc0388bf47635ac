package engine

import (
	"github.com/wricardo/rat-race-game/game/board"
	"github.com/wricardo/rat-race-game/game/cards"
)

// RollDice rolls one die for the active player and moves them. Outside the
// ROLL phase it does nothing and returns 0.
func (e *GameEngine) RollDice() int {
	if e.state.Phase != PhaseRoll || e.state.CurrentPlayer() == nil {
		return 0
	}
	roll := e.rng.Intn(DieSides) + 1
	e.state.LastRoll = roll
	e.MovePlayer(roll)
	return roll
}

// MovePlayer advances the active player along their loop, pays payday on
// wrap-around and resolves the landed square.
func (e *GameEngine) MovePlayer(steps int) {
	player := e.state.CurrentPlayer()
	if player == nil || steps < 0 {
		return
	}

	length := e.state.Board.RingLength(player.IsFastTrack)
	position, laps := board.Advance(player.Position, steps, length)
	for i := 0; i < laps; i++ {
		player.Cash += player.Cashflow
		e.logf("%s passed Payday! +%s", player.Name, money(player.Cashflow))
	}
	player.Position = position

	square, _ := e.state.Board.SquareAt(player.IsFastTrack, position)
	e.logf("%s moved to %s", player.Name, square.Name)
	e.resolveSquare(player, square)

	e.state.Phase = PhaseAction
	e.syncDecks()
}

func (e *GameEngine) resolveSquare(player *PlayerState, square board.Square) {
	if player.IsFastTrack {
		switch square.Type {
		case board.Deal:
			e.logf("%s found a business opportunity (position %d)", player.Name, square.Index)
		case board.Dream:
			e.logf("%s landed on a dream square (position %d)", player.Name, square.Index)
		default:
			e.logf("%s landed on %s", player.Name, square.Type)
		}
		return
	}

	switch square.Type {
	case board.Market:
		card, ok := e.supply.DrawMarket()
		if !ok {
			e.logf("No market cards available")
			return
		}
		e.showCard(player, card)
	case board.Expense:
		card, ok := e.supply.Draw(cards.CategoryExpense)
		if !ok {
			e.logf("No expense cards available")
			return
		}
		e.state.CurrentCard = &card
		player.Cash -= card.Cost()
		e.logf("%s paid %s for %s", player.Name, money(card.Cost()), card.Title)
	case board.Deal:
		e.state.PendingDeal = true
		e.logf("%s may choose a small or big deal", player.Name)
	case board.LifeEvent:
		e.resolveBaby(player)
	default:
		e.logf("%s landed on %s", player.Name, square.Type)
	}
}

// showCard puts a drawn deal on the table, paying it right away when it is
// mandatory.
func (e *GameEngine) showCard(player *PlayerState, card cards.Card) {
	e.state.CurrentCard = &card
	e.logf("Event: %s", card.Title)
	if card.Mandatory {
		player.Cash -= card.Cost()
		e.logf("%s paid %s for %s", player.Name, money(card.Cost()), card.Title)
	}
}

func (e *GameEngine) resolveBaby(player *PlayerState) {
	if player.ChildrenCount >= e.config.MaxChildren {
		e.logf("%s already has the maximum number of children", player.Name)
		return
	}

	roll := e.rng.Intn(DieSides) + 1
	if roll > e.config.BabyMaxRoll {
		e.logf("No baby (roll %d)", roll)
		return
	}

	player.ChildrenCount++
	player.Expenses += player.ChildCost
	player.recompute()
	player.Cash += e.config.ChildGift
	e.logf("Baby born to %s! (roll %d) +%s gift, expenses +%s/mo",
		player.Name, roll, money(e.config.ChildGift), money(player.ChildCost))
}
