package engine

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/wricardo/rat-race-game/game/cards"
)

// ChooseDeal resolves a pending deal square by drawing from the chosen deck.
func (e *GameEngine) ChooseDeal(userID string, size DealSize) error {
	player, err := e.activePlayer(userID)
	if err != nil {
		return err
	}
	if !e.state.PendingDeal {
		return ErrNoDealPending
	}

	var category cards.Category
	switch size {
	case DealSmall:
		category = cards.CategorySmallDeal
	case DealBig:
		category = cards.CategoryBigDeal
	default:
		return fmt.Errorf("%w: deal size must be %q or %q", ErrInvalidArgument, DealSmall, DealBig)
	}

	e.state.PendingDeal = false
	card, ok := e.supply.Draw(category)
	if !ok {
		e.logf("No %s deals available", size)
	} else {
		e.showCard(player, card)
	}
	e.syncDecks()
	return nil
}

// MaxShares is the most shares a single purchase may request.
const MaxShares = 1_000_000

// BuyAsset buys the deal on the table. Quantity only applies to cards with a
// ticker symbol; zero means one.
func (e *GameEngine) BuyAsset(userID string, quantity int) error {
	player, err := e.activePlayer(userID)
	if err != nil {
		return err
	}
	if e.state.Phase != PhaseAction {
		return ErrWrongPhase
	}
	card := e.state.CurrentCard
	if card == nil {
		return ErrNoActiveCard
	}
	if !card.IsDeal() || card.Mandatory {
		return ErrCardNotPurchasable
	}

	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 || quantity > MaxShares {
		return fmt.Errorf("%w: quantity must be between 1 and %d", ErrInvalidArgument, MaxShares)
	}

	asset := Asset{
		ID:     uuid.NewString(),
		CardID: card.ID,
		Title:  card.Title,
	}
	var mortgage *Liability

	switch card.Category {
	case cards.CategorySmallDeal:
		terms := card.SmallDeal
		if terms.Symbol == "" && quantity != 1 {
			return fmt.Errorf("%w: %s can only be bought once", ErrInvalidArgument, card.Title)
		}
		if terms.Cost > 0 && quantity > player.Cash/terms.Cost {
			return fmt.Errorf("%w: %s has %s, %d x %s costs more",
				ErrInsufficientCash, player.Name, money(player.Cash), quantity, money(terms.Cost))
		}
		asset.Kind = AssetSmallDeal
		asset.Symbol = terms.Symbol
		asset.Quantity = quantity
		asset.Cost = terms.Cost * quantity
		asset.Cashflow = terms.Cashflow * quantity
	case cards.CategoryBigDeal:
		if quantity != 1 {
			return fmt.Errorf("%w: %s can only be bought once", ErrInvalidArgument, card.Title)
		}
		terms := card.BigDeal
		asset.Kind = AssetBigDeal
		asset.Quantity = 1
		asset.Cost = terms.DownPayment
		asset.Cashflow = terms.Cashflow
		if owed := terms.Cost - terms.DownPayment; owed > 0 {
			mortgage = &Liability{
				ID:      uuid.NewString(),
				AssetID: asset.ID,
				Kind:    LiabilityMortgage,
				Title:   card.Title + " mortgage",
				Amount:  owed,
			}
		}
	}

	if asset.Cost > player.Cash {
		return fmt.Errorf("%w: %s costs %s, %s has %s",
			ErrInsufficientCash, card.Title, money(asset.Cost), player.Name, money(player.Cash))
	}

	player.Cash -= asset.Cost
	player.PassiveIncome += asset.Cashflow
	player.recompute()
	player.Assets = append(player.Assets, asset)
	if mortgage != nil {
		player.Liabilities = append(player.Liabilities, *mortgage)
	}
	e.logf("%s bought %s for %s, cashflow +%s/mo", player.Name, describeAsset(asset), money(asset.Cost), money(asset.Cashflow))

	e.discard(*card)
	e.state.CurrentCard = nil
	e.checkFastTrack(player)
	e.syncDecks()
	return nil
}

// SkipCard passes on the card on the table, or on a pending deal choice.
func (e *GameEngine) SkipCard(userID string) error {
	player, err := e.activePlayer(userID)
	if err != nil {
		return err
	}
	if e.state.CurrentCard == nil && !e.state.PendingDeal {
		return ErrNoActiveCard
	}

	if card := e.state.CurrentCard; card != nil {
		e.logf("%s passed on %s", player.Name, card.Title)
		e.discard(*card)
		e.state.CurrentCard = nil
	} else {
		e.logf("%s passed on the deal", player.Name)
	}
	e.state.PendingDeal = false
	e.syncDecks()
	return nil
}

func describeAsset(a Asset) string {
	if a.Symbol != "" {
		return fmt.Sprintf("%d x %s", a.Quantity, a.Symbol)
	}
	return a.Title
}
