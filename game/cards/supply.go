package cards

import (
	"fmt"
)

// Source is the randomness a Supply shuffles and picks with.
// *math/rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
}

// State is the serializable content of a Supply. Deck order is preserved;
// index 0 is the next card drawn.
type State struct {
	SmallDeals   []Card `json:"small_deals"`
	SmallDiscard []Card `json:"small_discard"`
	BigDeals     []Card `json:"big_deals"`
	BigDiscard   []Card `json:"big_discard"`
	Expenses     []Card `json:"expenses"`
}

type pile struct {
	deck    []Card
	discard []Card
}

// Supply holds the live decks and discard piles of one game.
// A Supply is not safe for concurrent use; it is owned by a single engine.
type Supply struct {
	small    pile
	big      pile
	expenses []Card

	expenseTemplates []Card
	rng              Source
}

// NewSupply builds a supply from the catalog with every deal deck shuffled.
func NewSupply(catalog Catalog, rng Source) *Supply {
	s := &Supply{
		small:            pile{deck: cloneCards(catalog.SmallDeals)},
		big:              pile{deck: cloneCards(catalog.BigDeals)},
		expenses:         cloneCards(catalog.Expenses),
		expenseTemplates: cloneCards(catalog.Expenses),
		rng:              rng,
	}
	s.shuffle(s.small.deck)
	s.shuffle(s.big.deck)
	s.shuffle(s.expenses)
	return s
}

// RestoreSupply rebuilds a supply from a saved State. The catalog provides
// the expense templates used to refill an empty expense deck.
func RestoreSupply(state State, catalog Catalog, rng Source) (*Supply, error) {
	for _, group := range []struct {
		want  Category
		cards []Card
	}{
		{CategorySmallDeal, state.SmallDeals},
		{CategorySmallDeal, state.SmallDiscard},
		{CategoryBigDeal, state.BigDeals},
		{CategoryBigDeal, state.BigDiscard},
		{CategoryExpense, state.Expenses},
	} {
		for _, card := range group.cards {
			if err := card.Validate(); err != nil {
				return nil, err
			}
			if card.Category != group.want {
				return nil, fmt.Errorf("%w: card %s stored in %s pile", ErrInvalidCard, card.ID, group.want)
			}
		}
	}

	return &Supply{
		small:            pile{deck: cloneCards(state.SmallDeals), discard: cloneCards(state.SmallDiscard)},
		big:              pile{deck: cloneCards(state.BigDeals), discard: cloneCards(state.BigDiscard)},
		expenses:         cloneCards(state.Expenses),
		expenseTemplates: cloneCards(catalog.Expenses),
		rng:              rng,
	}, nil
}

// Draw removes and returns the next card of the category. When a deal deck
// is empty its discard pile is shuffled back in first. ok is false only when
// both the deck and its discard pile are empty.
func (s *Supply) Draw(category Category) (Card, bool) {
	switch category {
	case CategorySmallDeal:
		return s.drawFrom(&s.small)
	case CategoryBigDeal:
		return s.drawFrom(&s.big)
	case CategoryExpense:
		if len(s.expenses) == 0 {
			s.expenses = cloneCards(s.expenseTemplates)
			s.shuffle(s.expenses)
		}
		if len(s.expenses) == 0 {
			return Card{}, false
		}
		card := s.expenses[0]
		s.expenses = s.expenses[1:]
		return card, true
	}
	return Card{}, false
}

// DrawMarket draws a deal of a randomly chosen size, falling back to the
// other size when the chosen one has nothing left.
func (s *Supply) DrawMarket() (Card, bool) {
	first, second := CategorySmallDeal, CategoryBigDeal
	if s.rng.Intn(2) == 1 {
		first, second = second, first
	}
	if card, ok := s.Draw(first); ok {
		return card, true
	}
	return s.Draw(second)
}

// Discard returns a card to the supply. Deal cards go to their discard pile;
// expense cards go back to the bottom of the live expense deck.
func (s *Supply) Discard(card Card) error {
	if err := card.Validate(); err != nil {
		return err
	}
	switch card.Category {
	case CategorySmallDeal:
		s.small.discard = append(s.small.discard, card)
	case CategoryBigDeal:
		s.big.discard = append(s.big.discard, card)
	case CategoryExpense:
		s.expenses = append(s.expenses, card)
	}
	return nil
}

// Remaining returns the number of cards left in the live deck of a category.
func (s *Supply) Remaining(category Category) int {
	switch category {
	case CategorySmallDeal:
		return len(s.small.deck)
	case CategoryBigDeal:
		return len(s.big.deck)
	case CategoryExpense:
		return len(s.expenses)
	}
	return 0
}

// Discarded returns the size of a category's discard pile.
func (s *Supply) Discarded(category Category) int {
	switch category {
	case CategorySmallDeal:
		return len(s.small.discard)
	case CategoryBigDeal:
		return len(s.big.discard)
	}
	return 0
}

// State returns a copy of the supply content.
func (s *Supply) State() State {
	return State{
		SmallDeals:   cloneCards(s.small.deck),
		SmallDiscard: cloneCards(s.small.discard),
		BigDeals:     cloneCards(s.big.deck),
		BigDiscard:   cloneCards(s.big.discard),
		Expenses:     cloneCards(s.expenses),
	}
}

func (s *Supply) drawFrom(p *pile) (Card, bool) {
	if len(p.deck) == 0 {
		if len(p.discard) == 0 {
			return Card{}, false
		}
		p.deck = p.discard
		p.discard = nil
		s.shuffle(p.deck)
	}
	card := p.deck[0]
	p.deck = p.deck[1:]
	return card, true
}

// shuffle is an in-place Fisher-Yates shuffle.
func (s *Supply) shuffle(deck []Card) {
	if s.rng == nil {
		return
	}
	for i := len(deck) - 1; i > 0; i-- {
		j := s.rng.Intn(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}
}

func cloneCards(in []Card) []Card {
	if in == nil {
		return []Card{}
	}
	out := make([]Card, len(in))
	copy(out, in)
	return out
}
