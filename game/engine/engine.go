package engine

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/wricardo/rat-race-game/game/cards"
	"github.com/wricardo/rat-race-game/internal/platform/random"
)

// Engine provides the turn machine of one game.
type Engine interface {
	// State
	GetState() *GameState
	GetConfig() *GameConfig
	RoomID() string
	IsTurnOf(userID string) bool

	// Turn flow
	RollDice() int
	MovePlayer(steps int)
	EndTurn()
	Tick(elapsed time.Duration) bool

	// Cards
	ChooseDeal(userID string, size DealSize) error
	BuyAsset(userID string, quantity int) error
	SkipCard(userID string) error

	// Finance
	TakeLoan(userID string, amount int) error
	RepayLoan(userID string, amount int) error
	TransferFunds(fromUserID, toUserID string, amount int) error
}

// GameEngine implements Engine. It is not safe for concurrent use; callers
// serialize actions per room.
type GameEngine struct {
	state  *GameState
	config *GameConfig
	supply *cards.Supply
	rng    *rand.Rand
	logger *slog.Logger

	tickCarry time.Duration
}

// Option configures a GameEngine.
type Option func(*engineOptions)

type engineOptions struct {
	rng         *rand.Rand
	turnSeconds *int
	logger      *slog.Logger
}

// WithRand sets the source used for dice, baby rolls and shuffles.
func WithRand(rng *rand.Rand) Option {
	return func(o *engineOptions) {
		o.rng = rng
	}
}

// WithTurnSeconds overrides the ruleset's turn budget for a new game.
// Zero disables the turn timer.
func WithTurnSeconds(seconds int) Option {
	return func(o *engineOptions) {
		o.turnSeconds = &seconds
	}
}

// WithLogger sets the logger. slog.Default() is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

func applyOptions(opts []Option) (engineOptions, error) {
	var o engineOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		rng, err := random.NewRand()
		if err != nil {
			return o, err
		}
		o.rng = rng
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o, nil
}

// NewEngine starts a new game for the given seats, in seat order.
func NewEngine(roomID string, seats []Seat, config *GameConfig, opts ...Option) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}
	if roomID == "" {
		return nil, fmt.Errorf("%w: room id is required", ErrInvalidArgument)
	}
	if len(seats) == 0 {
		return nil, fmt.Errorf("%w: at least one player is required", ErrInvalidArgument)
	}

	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	turnSeconds := config.TurnSeconds
	if o.turnSeconds != nil {
		if *o.turnSeconds < 0 {
			return nil, fmt.Errorf("%w: turn seconds must not be negative", ErrInvalidArgument)
		}
		turnSeconds = *o.turnSeconds
	}

	players := make([]PlayerState, 0, len(seats))
	seen := make(map[string]bool)
	for _, seat := range seats {
		if seat.UserID == "" {
			return nil, fmt.Errorf("%w: seat without user id", ErrInvalidArgument)
		}
		if seen[seat.UserID] {
			return nil, fmt.Errorf("%w: duplicate seat for %s", ErrInvalidArgument, seat.UserID)
		}
		seen[seat.UserID] = true

		profession, err := config.Profession(seat.Profession)
		if err != nil {
			return nil, err
		}
		players = append(players, newPlayer(seat, profession))
	}

	supply := cards.NewSupply(config.Catalog(), o.rng)
	state := &GameState{
		Version:           SnapshotVersion,
		RoomID:            roomID,
		ConfigName:        config.Name,
		Players:           players,
		TurnSeconds:       turnSeconds,
		TurnTimeRemaining: turnSeconds,
		Phase:             PhaseRoll,
		Turn:              1,
		Board:             config.Board,
		Log:               []string{"Game started"},
	}

	e := &GameEngine{
		state:  state,
		config: config,
		supply: supply,
		rng:    o.rng,
		logger: o.logger,
	}
	e.syncDecks()
	return e, nil
}

func newPlayer(seat Seat, profession Profession) PlayerState {
	p := PlayerState{
		UserID:      seat.UserID,
		Name:        seat.Name,
		Token:       seat.Token,
		Dream:       seat.Dream,
		Profession:  profession.ID,
		Cash:        profession.Savings,
		Salary:      profession.Salary,
		Expenses:    profession.Expenses,
		ChildCost:   profession.ChildCost,
		Assets:      []Asset{},
		Liabilities: []Liability{},
	}
	if p.Name == "" {
		p.Name = seat.UserID
	}
	p.recompute()
	return p
}

// GetState returns a copy of the current snapshot.
func (e *GameEngine) GetState() *GameState {
	return e.state.Clone()
}

// GetConfig returns the ruleset the game runs with.
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// RoomID returns the id of the room the game belongs to.
func (e *GameEngine) RoomID() string {
	return e.state.RoomID
}

// IsTurnOf reports whether userID is the active player.
func (e *GameEngine) IsTurnOf(userID string) bool {
	current := e.state.CurrentPlayer()
	return current != nil && current.UserID == userID
}

// EndTurn returns any active card to the supply and hands the turn to the
// next player with a fresh timer.
func (e *GameEngine) EndTurn() {
	if len(e.state.Players) == 0 {
		return
	}
	e.state.Phase = PhaseEnd

	if e.state.CurrentCard != nil {
		e.discard(*e.state.CurrentCard)
		e.state.CurrentCard = nil
	}
	e.state.PendingDeal = false

	e.state.CurrentPlayerIndex = (e.state.CurrentPlayerIndex + 1) % len(e.state.Players)
	e.state.Phase = PhaseRoll
	e.state.TurnTimeRemaining = e.state.TurnSeconds
	e.state.Turn++
	e.tickCarry = 0
	e.syncDecks()
}

// Tick counts down the turn timer and reports whether it has run out.
// It never ends the turn itself. A game without a turn budget never expires.
func (e *GameEngine) Tick(elapsed time.Duration) bool {
	if e.state.TurnSeconds <= 0 {
		return false
	}
	e.tickCarry += elapsed
	seconds := int(e.tickCarry / time.Second)
	e.tickCarry -= time.Duration(seconds) * time.Second

	e.state.TurnTimeRemaining -= seconds
	if e.state.TurnTimeRemaining <= 0 {
		e.state.TurnTimeRemaining = 0
		return true
	}
	return false
}

// player looks up a seated player.
func (e *GameEngine) player(userID string) (*PlayerState, error) {
	p, ok := e.state.Player(userID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, userID)
	}
	return p, nil
}

// activePlayer returns the player if it is their turn.
func (e *GameEngine) activePlayer(userID string) (*PlayerState, error) {
	p, err := e.player(userID)
	if err != nil {
		return nil, err
	}
	if !e.IsTurnOf(userID) {
		return nil, ErrNotYourTurn
	}
	return p, nil
}

func (e *GameEngine) discard(card cards.Card) {
	if err := e.supply.Discard(card); err != nil {
		e.logger.Warn("card dropped from the discard pile",
			"room_id", e.state.RoomID, "card_id", card.ID, "error", err)
	}
}

func (e *GameEngine) syncDecks() {
	decks := e.supply.State()
	e.state.Decks = &decks
}

func (e *GameEngine) logf(format string, args ...any) {
	e.state.Log = append(e.state.Log, fmt.Sprintf(format, args...))
}
