package engine

import (
	"github.com/wricardo/rat-race-game/game/board"
	"github.com/wricardo/rat-race-game/game/cards"
)

// Phase is the turn phase of a game.
type Phase string

const (
	PhaseRoll   Phase = "ROLL"
	PhaseAction Phase = "ACTION"
	PhaseEnd    Phase = "END"

	// SnapshotVersion is the current GameState schema version.
	SnapshotVersion = 1

	DieSides           = 6
	DefaultTurnSeconds = 120
)

// DealSize selects which deal deck a pending deal is drawn from.
type DealSize string

const (
	DealSmall DealSize = "small"
	DealBig   DealSize = "big"
)

// AssetKind identifies the kind of an owned asset.
type AssetKind string

const (
	AssetSmallDeal AssetKind = "small_deal"
	AssetBigDeal   AssetKind = "big_deal"
)

// Asset is an owned deal. Cost is the cash actually paid for it.
type Asset struct {
	ID       string    `json:"id"`
	CardID   string    `json:"card_id"`
	Kind     AssetKind `json:"kind"`
	Title    string    `json:"title"`
	Symbol   string    `json:"symbol,omitempty"`
	Quantity int       `json:"quantity"`
	Cost     int       `json:"cost"`
	Cashflow int       `json:"cashflow"`
}

// LiabilityKind identifies the kind of a liability.
type LiabilityKind string

const (
	LiabilityMortgage LiabilityKind = "mortgage"
)

// Liability is a debt attached to an asset. Bank loans are tracked in
// PlayerState.LoanDebt instead.
type Liability struct {
	ID      string        `json:"id"`
	AssetID string        `json:"asset_id"`
	Kind    LiabilityKind `json:"kind"`
	Title   string        `json:"title"`
	Amount  int           `json:"amount"`
}

// Profession is a starting financial template.
type Profession struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Salary    int    `json:"salary"`
	Savings   int    `json:"savings"`
	Expenses  int    `json:"expenses"`
	ChildCost int    `json:"child_cost"`
}

// Seat is a player entering a new game.
type Seat struct {
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	Token      string `json:"token,omitempty"`
	Dream      string `json:"dream,omitempty"`
	Profession string `json:"profession,omitempty"`
}

// PlayerState is the financial and board state of one player.
// Income is Salary plus PassiveIncome; Cashflow is Income minus Expenses.
type PlayerState struct {
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	Token      string `json:"token,omitempty"`
	Dream      string `json:"dream,omitempty"`
	Profession string `json:"profession"`

	Cash          int `json:"cash"`
	Salary        int `json:"salary"`
	PassiveIncome int `json:"passive_income"`
	Income        int `json:"income"`
	Expenses      int `json:"expenses"`
	Cashflow      int `json:"cashflow"`
	LoanDebt      int `json:"loan_debt"`

	Position      int  `json:"position"`
	IsFastTrack   bool `json:"is_fast_track"`
	ChildrenCount int  `json:"children_count"`
	ChildCost     int  `json:"child_cost"`

	Assets      []Asset     `json:"assets"`
	Liabilities []Liability `json:"liabilities"`
}

// recompute restores the derived income and cashflow fields.
func (p *PlayerState) recompute() {
	p.Income = p.Salary + p.PassiveIncome
	p.Cashflow = p.Income - p.Expenses
}

// GameState is the authoritative snapshot of one game. It is what clients
// receive and what gets persisted with the room.
type GameState struct {
	Version            int           `json:"version"`
	RoomID             string        `json:"room_id"`
	ConfigName         string        `json:"config_name"`
	Players            []PlayerState `json:"players"`
	CurrentPlayerIndex int           `json:"current_player_index"`
	TurnSeconds        int           `json:"turn_seconds"`
	TurnTimeRemaining  int           `json:"turn_time_remaining"`
	Phase              Phase         `json:"phase"`
	Turn               int           `json:"turn"`
	LastRoll           int           `json:"last_roll,omitempty"`
	Board              board.Board   `json:"board"`
	Log                []string      `json:"log"`
	CurrentCard        *cards.Card   `json:"current_card,omitempty"`
	PendingDeal        bool          `json:"pending_deal,omitempty"`
	Decks              *cards.State  `json:"decks,omitempty"`
}

// CurrentPlayer returns the player whose turn it is, or nil for an empty roster.
func (s *GameState) CurrentPlayer() *PlayerState {
	if s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(s.Players) {
		return nil
	}
	return &s.Players[s.CurrentPlayerIndex]
}

// Player returns the player with the given user id.
func (s *GameState) Player(userID string) (*PlayerState, bool) {
	for i := range s.Players {
		if s.Players[i].UserID == userID {
			return &s.Players[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy of the state.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	out := *s
	out.Players = make([]PlayerState, len(s.Players))
	for i, p := range s.Players {
		p.Assets = append([]Asset{}, p.Assets...)
		p.Liabilities = append([]Liability{}, p.Liabilities...)
		out.Players[i] = p
	}
	out.Board = board.Board{
		RatRace:   append([]board.Square{}, s.Board.RatRace...),
		FastTrack: append([]board.Square{}, s.Board.FastTrack...),
	}
	out.Log = append([]string{}, s.Log...)
	if s.CurrentCard != nil {
		card := *s.CurrentCard
		out.CurrentCard = &card
	}
	if s.Decks != nil {
		decks := cards.State{
			SmallDeals:   append([]cards.Card{}, s.Decks.SmallDeals...),
			SmallDiscard: append([]cards.Card{}, s.Decks.SmallDiscard...),
			BigDeals:     append([]cards.Card{}, s.Decks.BigDeals...),
			BigDiscard:   append([]cards.Card{}, s.Decks.BigDiscard...),
			Expenses:     append([]cards.Card{}, s.Decks.Expenses...),
		}
		out.Decks = &decks
	}
	return &out
}
