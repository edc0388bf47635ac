// Command validate checks ruleset JSON files before they are deployed to a
// server's config directory. It checks:
//   - JSON structure, rejecting unknown fields
//   - every rule the server enforces when loading a ruleset
//   - playability hints: professions that start with negative cashflow and
//     small deals nobody can afford at the start
//
// The analyze subcommand prints per-profession economics for each ruleset.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/rat-race-game/game/board"
	"github.com/wricardo/rat-race-game/game/cards"
	"github.com/wricardo/rat-race-game/game/engine"
)

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	dirFlag := &cli.StringFlag{
		Name:    "dir",
		Value:   "configs",
		Usage:   "Directory scanned when no files are given",
		Sources: cli.EnvVars("CONFIG_DIR"),
	}

	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate ruleset JSON files",
		ArgsUsage: "[file.json ...]",
		Flags:     []cli.Flag{dirFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			files, err := configFiles(cmd.String("dir"), cmd.Args().Slice())
			if err != nil {
				return err
			}

			invalid := 0
			for _, file := range files {
				result := validateConfig(file)
				printResult(cmd.Root().Writer, result)
				if !result.Valid {
					invalid++
				}
			}

			fmt.Fprintf(cmd.Root().Writer, "\n%d file(s), %d invalid\n", len(files), invalid)
			if invalid > 0 {
				return cli.Exit("validation failed", 1)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "analyze",
				Usage:     "Print per-profession economics of each ruleset",
				ArgsUsage: "[file.json ...]",
				Flags:     []cli.Flag{dirFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					files, err := configFiles(cmd.String("dir"), cmd.Args().Slice())
					if err != nil {
						return err
					}
					for _, file := range files {
						fmt.Fprintf(cmd.Root().Writer, "\n=== Analyzing %s ===\n", filepath.Base(file))
						config, err := readConfig(file)
						if err != nil {
							fmt.Fprintf(cmd.Root().Writer, "Error: %v\n", err)
							continue
						}
						analyzeConfig(cmd.Root().Writer, config)
					}
					return nil
				},
			},
		},
	}
}

// configFiles returns args, or every JSON file in dir when args is empty.
func configFiles(dir string, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no JSON files found in %s", dir)
	}
	sort.Strings(files)
	return files, nil
}

// ValidationResult captures the outcome of validating a single file.
type ValidationResult struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
}

func readConfig(path string) (*engine.GameConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var config engine.GameConfig
	if err := dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return &config, nil
}

// validateConfig loads and validates a single ruleset file.
func validateConfig(path string) ValidationResult {
	result := ValidationResult{File: filepath.Base(path), Valid: true}

	config, err := readConfig(path)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	if err := engine.ValidateGameConfig(config); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	result.Warnings = playabilityWarnings(config)
	return result
}

func playabilityWarnings(config *engine.GameConfig) []string {
	var warnings []string

	professions := config.Professions
	if len(professions) == 0 {
		professions = []engine.Profession{engine.StarterProfession()}
	}

	minSavings := -1
	for _, p := range professions {
		if p.Salary <= p.Expenses {
			warnings = append(warnings, fmt.Sprintf("Profession %s starts with non-positive cashflow (%d)", p.ID, p.Salary-p.Expenses))
		}
		if minSavings < 0 || p.Savings < minSavings {
			minSavings = p.Savings
		}
	}

	catalog := config.Catalog()
	affordable := false
	for _, card := range catalog.SmallDeals {
		if card.Cost() <= minSavings {
			affordable = true
			break
		}
	}
	if len(catalog.SmallDeals) > 0 && !affordable {
		warnings = append(warnings, fmt.Sprintf("No small deal is affordable with the lowest starting savings (%d)", minSavings))
	}

	if config.TurnSeconds == 0 {
		warnings = append(warnings, "Turns have no time limit")
	}
	return warnings
}

func printResult(w io.Writer, result ValidationResult) {
	if result.Valid {
		fmt.Fprintf(w, "✓ %s\n", result.File)
	} else {
		fmt.Fprintf(w, "✗ %s\n", result.File)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(w, "    error: %s\n", e)
	}
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "    warning: %s\n", warn)
	}
}

// analyzeConfig prints how far each profession is from the fast track and
// what the board and decks look like.
func analyzeConfig(w io.Writer, config *engine.GameConfig) {
	fmt.Fprintf(w, "%s: %s\n", config.Name, config.Description)
	fmt.Fprintf(w, "Turn: %ds | Loans: %d%% per step of %d, cap %d\n",
		config.TurnSeconds, config.LoanInterestPercent, config.LoanStep, config.MaxLoanPrincipal)

	counts := make(map[board.SquareType]int)
	for _, sq := range config.Board.RatRace {
		counts[sq.Type]++
	}
	types := make([]string, 0, len(counts))
	for t, n := range counts {
		types = append(types, fmt.Sprintf("%s=%d", t, n))
	}
	sort.Strings(types)
	fmt.Fprintf(w, "Rat race squares (%d): %s\n", len(config.Board.RatRace), strings.Join(types, " "))

	catalog := config.Catalog()
	avgSmall := averageReturn(catalog.SmallDeals)
	fmt.Fprintf(w, "Decks: %d small deals (avg %.1f%% monthly return), %d big deals, %d expenses\n",
		len(catalog.SmallDeals), avgSmall, len(catalog.BigDeals), len(catalog.Expenses))

	professions := config.Professions
	if len(professions) == 0 {
		professions = []engine.Profession{engine.StarterProfession()}
	}
	fmt.Fprintf(w, "\n%-20s %8s %8s %8s %10s\n", "Profession", "Salary", "Expense", "Cashflow", "Passive req")
	for _, p := range professions {
		multiplier := config.FastTrackMultiplier
		if multiplier < 1 {
			multiplier = 1
		}
		fmt.Fprintf(w, "%-20s %8d %8d %8d %10d\n",
			p.ID, p.Salary, p.Expenses, p.Salary-p.Expenses, p.Expenses*multiplier)
	}
}

// averageReturn is the mean monthly cashflow per dollar invested, in percent,
// over deals with a positive cost.
func averageReturn(deck []cards.Card) float64 {
	var sum float64
	n := 0
	for _, card := range deck {
		if cost := card.Cost(); cost > 0 {
			sum += float64(card.Cashflow()) / float64(cost) * 100
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
