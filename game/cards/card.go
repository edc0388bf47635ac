package cards

import (
	"fmt"

	apperrors "github.com/wricardo/rat-race-game/internal/platform/errors"
)

// Category identifies the deck a card belongs to.
type Category string

const (
	CategorySmallDeal Category = "small_deal"
	CategoryBigDeal   Category = "big_deal"
	CategoryExpense   Category = "expense"
)

// ErrInvalidCard is returned when a card's payload does not match its category.
var ErrInvalidCard = apperrors.New(apperrors.CodeInvalidCard, "invalid card")

// SmallDealTerms are the monetary terms of a small deal. Cards with a Symbol
// are tradable securities priced per share.
type SmallDealTerms struct {
	Cost     int    `json:"cost"`
	Cashflow int    `json:"cashflow"`
	Symbol   string `json:"symbol,omitempty"`
}

// BigDealTerms are the monetary terms of a financed big deal.
type BigDealTerms struct {
	Cost        int `json:"cost"`
	DownPayment int `json:"down_payment"`
	Cashflow    int `json:"cashflow"`
	ROI         int `json:"roi,omitempty"`
}

// ExpenseTerms are the terms of a recurring expense card.
type ExpenseTerms struct {
	Cost int `json:"cost"`
}

// Card is an immutable card template.
type Card struct {
	ID          string   `json:"id"`
	Category    Category `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Mandatory   bool     `json:"mandatory,omitempty"`

	SmallDeal *SmallDealTerms `json:"small_deal,omitempty"`
	BigDeal   *BigDealTerms   `json:"big_deal,omitempty"`
	Expense   *ExpenseTerms   `json:"expense,omitempty"`
}

// Validate checks that the card carries exactly the payload its category requires.
func (c Card) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidCard)
	}
	if c.Title == "" {
		return fmt.Errorf("%w: card %s has no title", ErrInvalidCard, c.ID)
	}

	payloads := 0
	for _, set := range []bool{c.SmallDeal != nil, c.BigDeal != nil, c.Expense != nil} {
		if set {
			payloads++
		}
	}
	if payloads != 1 {
		return fmt.Errorf("%w: card %s must carry exactly one payload, has %d", ErrInvalidCard, c.ID, payloads)
	}

	switch c.Category {
	case CategorySmallDeal:
		if c.SmallDeal == nil {
			return fmt.Errorf("%w: card %s is a small deal without small deal terms", ErrInvalidCard, c.ID)
		}
		if c.SmallDeal.Cost < 0 {
			return fmt.Errorf("%w: card %s has negative cost", ErrInvalidCard, c.ID)
		}
	case CategoryBigDeal:
		if c.BigDeal == nil {
			return fmt.Errorf("%w: card %s is a big deal without big deal terms", ErrInvalidCard, c.ID)
		}
		if c.BigDeal.DownPayment < 0 || c.BigDeal.DownPayment > c.BigDeal.Cost {
			return fmt.Errorf("%w: card %s down payment must be between 0 and cost", ErrInvalidCard, c.ID)
		}
	case CategoryExpense:
		if c.Expense == nil {
			return fmt.Errorf("%w: card %s is an expense without expense terms", ErrInvalidCard, c.ID)
		}
		if c.Expense.Cost < 0 {
			return fmt.Errorf("%w: card %s has negative cost", ErrInvalidCard, c.ID)
		}
	default:
		return fmt.Errorf("%w: card %s has unknown category %q", ErrInvalidCard, c.ID, c.Category)
	}

	return nil
}

// Cost returns the sticker price of the card (per share for ticker cards).
func (c Card) Cost() int {
	switch {
	case c.SmallDeal != nil:
		return c.SmallDeal.Cost
	case c.BigDeal != nil:
		return c.BigDeal.Cost
	case c.Expense != nil:
		return c.Expense.Cost
	}
	return 0
}

// Cashflow returns the monthly cashflow delta the card grants when bought.
func (c Card) Cashflow() int {
	switch {
	case c.SmallDeal != nil:
		return c.SmallDeal.Cashflow
	case c.BigDeal != nil:
		return c.BigDeal.Cashflow
	}
	return 0
}

// IsDeal reports whether the card belongs to one of the deal decks.
func (c Card) IsDeal() bool {
	return c.Category == CategorySmallDeal || c.Category == CategoryBigDeal
}
