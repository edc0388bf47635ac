package board

import (
	"fmt"

	apperrors "github.com/wricardo/rat-race-game/internal/platform/errors"
)

// SquareType is the category of a board square.
type SquareType string

const (
	Deal      SquareType = "deal"
	Market    SquareType = "market"
	Expense   SquareType = "expense"
	Payday    SquareType = "payday"
	LifeEvent SquareType = "life_event"
	Charity   SquareType = "charity"
	Setback   SquareType = "setback"
	Dream     SquareType = "dream"

	RatRaceLength   = 24
	FastTrackLength = 48

	MinRingLength = 4
	MaxRingLength = 200
)

var validTypes = map[SquareType]bool{
	Deal: true, Market: true, Expense: true, Payday: true,
	LifeEvent: true, Charity: true, Setback: true, Dream: true,
}

// ErrInvalidBoard is returned by Validate.
var ErrInvalidBoard = apperrors.New(apperrors.CodeInvalidConfig, "invalid board")

// Square is a single board square.
type Square struct {
	Index int        `json:"index"`
	Type  SquareType `json:"type"`
	Name  string     `json:"name"`
}

// Board holds both loops. Square i of each loop must have Index i.
type Board struct {
	RatRace   []Square `json:"rat_race"`
	FastTrack []Square `json:"fast_track"`
}

// Default returns the stock 24/48 square board.
func Default() Board {
	ratRace := make([]Square, RatRaceLength)
	for i := range ratRace {
		ratRace[i] = Square{Index: i, Type: Deal, Name: "Opportunity"}
	}
	set := func(i int, t SquareType, name string) {
		ratRace[i] = Square{Index: i, Type: t, Name: name}
	}

	for _, i := range []int{0, 6, 12, 18} {
		set(i, Payday, "Payday")
	}
	for _, i := range []int{3, 11, 19} {
		set(i, Market, "Market")
	}
	for _, i := range []int{2, 10, 16, 22} {
		set(i, Expense, "Doodad")
	}
	set(8, LifeEvent, "Baby")
	set(20, LifeEvent, "Baby")
	set(4, Charity, "Charity")
	set(14, Setback, "Downsized")

	fastTrack := make([]Square, FastTrackLength)
	for i := range fastTrack {
		if i%2 == 0 {
			fastTrack[i] = Square{Index: i, Type: Deal, Name: "Business Opportunity"}
		} else {
			fastTrack[i] = Square{Index: i, Type: Dream, Name: "Dream"}
		}
	}

	return Board{RatRace: ratRace, FastTrack: fastTrack}
}

// Validate checks ring sizes, square indexes and types.
func (b Board) Validate() error {
	if err := validateRing("rat_race", b.RatRace); err != nil {
		return err
	}
	if err := validateRing("fast_track", b.FastTrack); err != nil {
		return err
	}
	return nil
}

func validateRing(name string, ring []Square) error {
	if len(ring) < MinRingLength || len(ring) > MaxRingLength {
		return fmt.Errorf("%w: %s must have between %d and %d squares, got %d",
			ErrInvalidBoard, name, MinRingLength, MaxRingLength, len(ring))
	}
	for i, sq := range ring {
		if sq.Index != i {
			return fmt.Errorf("%w: %s square %d has index %d", ErrInvalidBoard, name, i, sq.Index)
		}
		if !validTypes[sq.Type] {
			return fmt.Errorf("%w: %s square %d has unknown type %q", ErrInvalidBoard, name, i, sq.Type)
		}
	}
	return nil
}

// RingLength returns the size of the loop a player is on.
func (b Board) RingLength(fastTrack bool) int {
	if fastTrack {
		return len(b.FastTrack)
	}
	return len(b.RatRace)
}

// SquareAt returns the square at a loop-relative position.
func (b Board) SquareAt(fastTrack bool, position int) (Square, bool) {
	ring := b.RatRace
	if fastTrack {
		ring = b.FastTrack
	}
	if position < 0 || position >= len(ring) {
		return Square{}, false
	}
	return ring[position], true
}

// Advance moves position by steps along a ring of the given length and
// returns the new position and how many times the start was passed.
func Advance(position, steps, length int) (int, int) {
	if length <= 0 {
		return position, 0
	}
	next := position + steps
	return next % length, next / length
}
