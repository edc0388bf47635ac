package engine

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/wricardo/rat-race-game/game/board"
	"github.com/wricardo/rat-race-game/game/cards"
)

// GameConfig is a ruleset loaded from JSON.
type GameConfig struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	TurnSeconds int `json:"turn_seconds"`

	LoanInterestPercent int `json:"loan_interest_percent"`
	LoanStep            int `json:"loan_step"`
	MaxLoanPrincipal    int `json:"max_loan_principal"`

	ChildGift   int `json:"child_gift"`
	MaxChildren int `json:"max_children"`
	BabyMaxRoll int `json:"baby_max_roll"`

	FastTrackBonus      int `json:"fast_track_bonus"`
	FastTrackMultiplier int `json:"fast_track_multiplier"`

	DefaultProfession string       `json:"default_profession,omitempty"`
	Professions       []Profession `json:"professions"`

	Board board.Board    `json:"board"`
	Cards *cards.Catalog `json:"cards,omitempty"`
}

// DefaultConfig returns the built-in classic ruleset.
func DefaultConfig() *GameConfig {
	return &GameConfig{
		Name:                "Classic",
		Description:         "Classic Rat Race rules",
		TurnSeconds:         DefaultTurnSeconds,
		LoanInterestPercent: 10,
		LoanStep:            100,
		MaxLoanPrincipal:    200000,
		ChildGift:           5000,
		MaxChildren:         3,
		BabyMaxRoll:         4,
		FastTrackBonus:      100000,
		FastTrackMultiplier: 2,
		Professions:         DefaultProfessions(),
		Board:               board.Default(),
	}
}

// StarterProfession is used when a seat has no profession and the ruleset
// names no default.
func StarterProfession() Profession {
	return Profession{
		ID:        "employee",
		Title:     "Employee",
		Salary:    3000,
		Savings:   3000,
		Expenses:  2000,
		ChildCost: 240,
	}
}

// DefaultProfessions returns the stock profession table.
func DefaultProfessions() []Profession {
	return []Profession{
		{ID: "airline_pilot", Title: "Airline Pilot", Salary: 9500, Savings: 2500, Expenses: 6900, ChildCost: 480},
		{ID: "doctor", Title: "Doctor (MD)", Salary: 13200, Savings: 3500, Expenses: 9600, ChildCost: 640},
		{ID: "engineer", Title: "Engineer", Salary: 4900, Savings: 2000, Expenses: 3200, ChildCost: 250},
		{ID: "teacher", Title: "Teacher (K-12)", Salary: 3300, Savings: 1500, Expenses: 2100, ChildCost: 180},
		{ID: "nurse", Title: "Nurse", Salary: 3100, Savings: 1700, Expenses: 1900, ChildCost: 170},
		{ID: "police_officer", Title: "Police Officer", Salary: 3000, Savings: 1600, Expenses: 1800, ChildCost: 160},
		{ID: "truck_driver", Title: "Truck Driver", Salary: 2500, Savings: 1400, Expenses: 1600, ChildCost: 140},
		{ID: "janitor", Title: "Janitor", Salary: 1600, Savings: 600, Expenses: 900, ChildCost: 70},
		{ID: "lawyer", Title: "Lawyer", Salary: 7500, Savings: 2200, Expenses: 5400, ChildCost: 380},
		{ID: "business_manager", Title: "Business Manager", Salary: 4600, Savings: 1800, Expenses: 2900, ChildCost: 240},
		{ID: "mechanic", Title: "Mechanic", Salary: 2000, Savings: 800, Expenses: 1200, ChildCost: 110},
		{ID: "secretary", Title: "Secretary", Salary: 2500, Savings: 1300, Expenses: 1500, ChildCost: 140},
	}
}

// Profession resolves a profession id. An empty id resolves to the ruleset
// default, or the starter template when none is configured.
func (c *GameConfig) Profession(id string) (Profession, error) {
	if id == "" {
		id = c.DefaultProfession
	}
	if id == "" {
		return StarterProfession(), nil
	}
	for _, p := range c.Professions {
		if p.ID == id {
			return p, nil
		}
	}
	if id == StarterProfession().ID {
		return StarterProfession(), nil
	}
	return Profession{}, fmt.Errorf("%w: %s", ErrUnknownProfession, id)
}

// Catalog returns the ruleset's cards, or the default catalog.
func (c *GameConfig) Catalog() cards.Catalog {
	if c.Cards != nil {
		return *c.Cards
	}
	return cards.DefaultCatalog()
}

// ValidateGameConfig validates a ruleset for correctness and playability.
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	if config.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}
	if config.Description == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidConfig)
	}

	if config.TurnSeconds < 0 {
		return fmt.Errorf("%w: turn_seconds must not be negative, got %d", ErrInvalidConfig, config.TurnSeconds)
	}

	if config.LoanStep <= 0 {
		return fmt.Errorf("%w: loan_step must be positive, got %d", ErrInvalidConfig, config.LoanStep)
	}
	if config.LoanInterestPercent < 0 || config.LoanInterestPercent > 100 {
		return fmt.Errorf("%w: loan_interest_percent must be between 0 and 100, got %d", ErrInvalidConfig, config.LoanInterestPercent)
	}
	// carrying cost of every loan step must be a whole amount so repayment
	// restores expenses exactly
	if config.LoanStep*config.LoanInterestPercent%100 != 0 {
		return fmt.Errorf("%w: loan_step %d with %d%% interest gives a fractional carrying cost",
			ErrInvalidConfig, config.LoanStep, config.LoanInterestPercent)
	}
	if config.MaxLoanPrincipal < 0 {
		return fmt.Errorf("%w: max_loan_principal must not be negative", ErrInvalidConfig)
	}
	if config.MaxLoanPrincipal > 0 && config.MaxLoanPrincipal%config.LoanStep != 0 {
		return fmt.Errorf("%w: max_loan_principal must be a multiple of loan_step", ErrInvalidConfig)
	}

	if config.MaxChildren < 0 || config.ChildGift < 0 {
		return fmt.Errorf("%w: max_children and child_gift must not be negative", ErrInvalidConfig)
	}
	if config.BabyMaxRoll < 0 || config.BabyMaxRoll > DieSides {
		return fmt.Errorf("%w: baby_max_roll must be between 0 and %d, got %d", ErrInvalidConfig, DieSides, config.BabyMaxRoll)
	}

	if config.FastTrackMultiplier < 1 {
		return fmt.Errorf("%w: fast_track_multiplier must be at least 1, got %d", ErrInvalidConfig, config.FastTrackMultiplier)
	}
	if config.FastTrackBonus < 0 {
		return fmt.Errorf("%w: fast_track_bonus must not be negative", ErrInvalidConfig)
	}

	seen := make(map[string]bool)
	for _, p := range config.Professions {
		if p.ID == "" || p.Title == "" {
			return fmt.Errorf("%w: professions need an id and a title", ErrInvalidConfig)
		}
		if seen[p.ID] {
			return fmt.Errorf("%w: duplicate profession %s", ErrInvalidConfig, p.ID)
		}
		seen[p.ID] = true
		if p.Salary < 0 || p.Savings < 0 || p.Expenses < 0 || p.ChildCost < 0 {
			return fmt.Errorf("%w: profession %s has negative amounts", ErrInvalidConfig, p.ID)
		}
	}
	if config.DefaultProfession != "" && !seen[config.DefaultProfession] {
		return fmt.Errorf("%w: default_profession %s is not listed", ErrInvalidConfig, config.DefaultProfession)
	}

	if err := config.Board.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if config.Cards != nil {
		if err := config.Cards.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}

	return nil
}

// LoadGameConfig loads and validates a ruleset from a JSON file.
func LoadGameConfig(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
