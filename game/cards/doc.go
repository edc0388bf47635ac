// Package cards provides the card decks of the Rat Race game.
//
// A Supply owns three decks: small deals, big deals and recurring expenses.
// Deal decks are finite; a drawn card goes back to its category's discard
// pile and the pile is reshuffled into the live deck once the deck runs out.
// Expense cards are recycled straight into the live deck and the deck falls
// back to its full template set when empty, so expenses never run dry.
//
// Cards are a closed tagged variant: every Card carries exactly one payload
// matching its Category (SmallDeal, BigDeal or Expense).
//
// Usage:
//
//	supply := cards.NewSupply(cards.DefaultCatalog(), rng)
//
//	card, ok := supply.Draw(cards.CategorySmallDeal)
//	if !ok {
//		// deck and discard pile are both empty
//	}
//	supply.Discard(card)
package cards
