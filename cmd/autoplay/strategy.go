package main

import (
	"github.com/wricardo/rat-race-game/game/cards"
	"github.com/wricardo/rat-race-game/game/engine"
)

// Strategy decides what a seat does with the deals it is offered. It only
// buys assets that pay monthly cashflow and always keeps a cash reserve.
type Strategy struct {
	// BigDealCash is the cash at which the bot starts asking for big deals.
	BigDealCash int
	// ReserveMonths of expenses are never spent on a deal.
	ReserveMonths int
}

func NewStrategy() *Strategy {
	return &Strategy{BigDealCash: 20000, ReserveMonths: 1}
}

// DealSize picks which deck to draw from.
func (s *Strategy) DealSize(player *engine.PlayerState) engine.DealSize {
	if player.Cash >= s.BigDealCash {
		return engine.DealBig
	}
	return engine.DealSmall
}

// Quantity returns how many units of card to buy, or zero to pass.
func (s *Strategy) Quantity(player *engine.PlayerState, card *cards.Card) int {
	if card == nil || !card.IsDeal() || card.Mandatory || card.Cashflow() <= 0 {
		return 0
	}

	budget := player.Cash - s.ReserveMonths*player.Expenses
	price := upfront(card)
	if price <= 0 || price > budget {
		return 0
	}
	if card.SmallDeal != nil && card.SmallDeal.Symbol != "" {
		return budget / price
	}
	return 1
}

// upfront is what a single unit costs in cash today.
func upfront(card *cards.Card) int {
	if card.BigDeal != nil {
		return card.BigDeal.DownPayment
	}
	return card.Cost()
}

// Score is a rough progress measure: passive income relative to expenses.
func Score(player *engine.PlayerState) float64 {
	if player.Expenses <= 0 {
		return 0
	}
	return float64(player.PassiveIncome) / float64(player.Expenses)
}
