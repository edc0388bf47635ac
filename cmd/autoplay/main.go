// Command autoplay seats bots in a new room and plays Rat Race through the
// REST API until one of them reaches the fast track or the turn limit runs
// out. It is useful for smoke testing a server and for tuning rulesets.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/rat-race-game/game/engine"
	"github.com/wricardo/rat-race-game/game/service"
)

var dreams = []string{"Sailboat", "Cabin in the woods", "World tour", "Start a foundation", "Private jet", "Vineyard", "Art collection", "Beach house"}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "autoplay",
		Usage: "Play a Rat Race game with bots against a running server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "Game server URL", Sources: cli.EnvVars("RATRACE_URL")},
			&cli.StringFlag{Name: "config", Usage: "Ruleset name"},
			&cli.IntFlag{Name: "players", Value: 2, Usage: "Number of bots"},
			&cli.IntFlag{Name: "max-turns", Value: 500, Usage: "Turns before giving up"},
			&cli.DurationFlag{Name: "delay", Usage: "Pause between turns"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Log every turn"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			level := slog.LevelInfo
			if cmd.Bool("verbose") {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.Root().ErrWriter, &slog.HandlerOptions{Level: level}))

			summary, err := play(ctx, options{
				BaseURL:    cmd.String("url"),
				ConfigName: cmd.String("config"),
				Players:    cmd.Int("players"),
				MaxTurns:   cmd.Int("max-turns"),
				Delay:      cmd.Duration("delay"),
			}, NewStrategy(), logger)
			if err != nil {
				return err
			}

			printSummary(cmd.Root().Writer, summary)
			if summary.Winner == "" {
				return cli.Exit("no bot reached the fast track", 1)
			}
			return nil
		},
	}
}

type options struct {
	BaseURL    string
	ConfigName string
	Players    int
	MaxTurns   int
	Delay      time.Duration
}

// Summary is the outcome of one bot game.
type Summary struct {
	RoomID  string
	Turns   int
	Winner  string
	Players []engine.PlayerState
}

func play(ctx context.Context, opts options, strategy *Strategy, logger *slog.Logger) (*Summary, error) {
	if opts.Players < 2 || opts.Players > len(dreams) {
		return nil, fmt.Errorf("players must be between 2 and %d, got %d", len(dreams), opts.Players)
	}

	bots := make(map[string]*Client, opts.Players)
	var host *Client
	for i := 1; i <= opts.Players; i++ {
		id := fmt.Sprintf("bot-%d", i)
		bots[id] = NewClient(opts.BaseURL, id, fmt.Sprintf("Bot %d", i))
		if host == nil {
			host = bots[id]
		}
	}

	room, err := host.CreateRoom(ctx, service.CreateRoomInput{
		Name:       "Autoplay",
		MaxPlayers: opts.Players,
		ConfigName: opts.ConfigName,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("room created", "room_id", room.ID, "config", room.ConfigName)

	for i := 1; i <= opts.Players; i++ {
		bot := bots[fmt.Sprintf("bot-%d", i)]
		if bot != host {
			if _, err := bot.JoinRoom(ctx, room.ID, ""); err != nil {
				return nil, err
			}
		}
		if err := bot.Ready(ctx, room.ID, dreams[i-1]); err != nil {
			return nil, err
		}
	}

	state, err := host.StartGame(ctx, room.ID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{RoomID: room.ID}
	for summary.Turns < opts.MaxTurns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if winner := fastTracked(state); winner != nil {
			summary.Winner = winner.Name
			break
		}

		current := state.CurrentPlayer()
		if current == nil {
			return nil, fmt.Errorf("game %s has no current player", room.ID)
		}
		bot, ok := bots[current.UserID]
		if !ok {
			return nil, fmt.Errorf("seat %s is not a bot", current.UserID)
		}

		state, err = playTurn(ctx, bot, room.ID, current.UserID, strategy, logger)
		if err != nil {
			return nil, err
		}
		summary.Turns++

		if opts.Delay > 0 {
			time.Sleep(opts.Delay)
		}
	}

	if summary.Winner == "" {
		if winner := fastTracked(state); winner != nil {
			summary.Winner = winner.Name
		}
	}
	summary.Players = state.Players
	return summary, nil
}

// playTurn rolls, resolves any deal with the strategy and passes the turn.
func playTurn(ctx context.Context, bot *Client, roomID, userID string, strategy *Strategy, logger *slog.Logger) (*engine.GameState, error) {
	rolled, err := bot.Roll(ctx, roomID)
	if err != nil {
		return nil, err
	}
	state := rolled.State

	player, _ := state.Player(userID)
	if state.PendingDeal {
		if state, err = bot.ChooseDeal(ctx, roomID, strategy.DealSize(player)); err != nil {
			return nil, err
		}
		player, _ = state.Player(userID)
	}

	if quantity := strategy.Quantity(player, state.CurrentCard); quantity > 0 {
		bought, err := bot.Buy(ctx, roomID, quantity)
		if err != nil {
			logger.Warn("buy rejected", "user_id", userID, "card", state.CurrentCard.Title, "error", err)
		} else {
			state = bought
			player, _ = state.Player(userID)
		}
	}

	logger.Debug("turn played",
		"user_id", userID,
		"roll", rolled.Roll,
		"cash", player.Cash,
		"cashflow", player.Cashflow,
		"passive", player.PassiveIncome)

	if player.IsFastTrack {
		return state, nil
	}
	return bot.EndTurn(ctx, roomID)
}

func fastTracked(state *engine.GameState) *engine.PlayerState {
	for i := range state.Players {
		if state.Players[i].IsFastTrack {
			return &state.Players[i]
		}
	}
	return nil
}

func printSummary(w io.Writer, s *Summary) {
	fmt.Fprintf(w, "Room %s finished after %d turns\n", s.RoomID, s.Turns)
	if s.Winner != "" {
		fmt.Fprintf(w, "Winner: %s\n", s.Winner)
	} else {
		fmt.Fprintln(w, "Nobody reached the fast track")
	}

	players := append([]engine.PlayerState(nil), s.Players...)
	sort.Slice(players, func(i, j int) bool { return Score(&players[i]) > Score(&players[j]) })
	for _, p := range players {
		fmt.Fprintf(w, "  %-8s cash %7d | passive %5d / expenses %5d | %d assets\n",
			p.Name, p.Cash, p.PassiveIncome, p.Expenses, len(p.Assets))
	}
}
