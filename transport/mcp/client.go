package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/rat-race-game/game/cards"
	"github.com/wricardo/rat-race-game/game/engine"
	"github.com/wricardo/rat-race-game/game/lobby"
	"github.com/wricardo/rat-race-game/game/service"
)

// Identity headers understood by the REST API.
const (
	headerUserID   = "X-User-ID"
	headerUserName = "X-User-Name"
)

// Client is a thin MCP client that proxies to the REST API. Every call is
// made as one player, identified by userID.
type Client struct {
	baseURL    string
	userID     string
	name       string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API as userID
func NewClient(baseURL, userID, name string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		userID:  userID,
		name:    name,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Rat Race",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Rat Race - MCP Interface

This is a thin client that proxies all requests to the game server's REST API.
You play as a single player in multiplayer rooms.

GAME OBJECTIVE:
Build passive income from deals until it covers your expenses, then leave the
rat race for the fast track.

TYPICAL FLOW:
list_rooms or create_room -> join_room -> player_ready (pick a dream) ->
start_game (creator) -> on your turn: roll_dice, answer the card
(choose_deal, buy_asset, skip_card), end_turn.

Use game_instructions for the full rules.`),
	)

	c.registerTools()
}

func roomIDParam() mcp.ToolOption {
	return mcp.WithString("room_id", mcp.Required(), mcp.Description("Room ID"))
}

func (c *Client) registerTools() {
	// Lobby
	c.mcpServer.AddTool(mcp.NewTool("list_rooms",
		mcp.WithDescription("List rooms waiting for players"),
	), c.handleListRooms)

	c.mcpServer.AddTool(mcp.NewTool("get_room",
		mcp.WithDescription("Get a room with its members and their readiness"),
		roomIDParam(),
	), c.handleGetRoom)

	c.mcpServer.AddTool(mcp.NewTool("create_room",
		mcp.WithDescription("Create a room; you become its creator and first member"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Room name")),
		mcp.WithNumber("max_players", mcp.Description("Seat limit (default 6)")),
		mcp.WithNumber("timer", mcp.Description("Seconds per turn (default 120)")),
		mcp.WithString("password", mcp.Description("Optional password")),
		mcp.WithString("config_name", mcp.Description("Ruleset to play (see list_configs)")),
	), c.handleCreateRoom)

	c.mcpServer.AddTool(mcp.NewTool("join_room",
		mcp.WithDescription("Join a room, or rejoin one you are already a member of"),
		roomIDParam(),
		mcp.WithString("password", mcp.Description("Room password, if it has one")),
	), c.handleJoinRoom)

	c.mcpServer.AddTool(mcp.NewTool("leave_room",
		mcp.WithDescription("Leave a room"),
		roomIDParam(),
	), c.handleLeaveRoom)

	c.mcpServer.AddTool(mcp.NewTool("player_ready",
		mcp.WithDescription("Choose your dream, token and profession and mark yourself ready"),
		roomIDParam(),
		mcp.WithString("dream", mcp.Description("Dream to pursue; required to be ready")),
		mcp.WithString("token", mcp.Description("Board token; must be unique in the room")),
		mcp.WithString("profession", mcp.Description("Profession from the room's ruleset")),
		mcp.WithBoolean("ready", mcp.Description("Ready flag (default true)")),
	), c.handleReady)

	c.mcpServer.AddTool(mcp.NewTool("start_game",
		mcp.WithDescription("Start the game once every member is ready (creator only)"),
		roomIDParam(),
	), c.handleStartGame)

	// Game operations
	c.mcpServer.AddTool(mcp.NewTool("game_state",
		mcp.WithDescription("Get the current game state"),
		roomIDParam(),
	), c.handleGameState)

	c.mcpServer.AddTool(mcp.NewTool("roll_dice",
		mcp.WithDescription("Roll the die and move; only on your turn in the ROLL phase"),
		roomIDParam(),
		mcp.WithString("intent", mcp.Description("Brief explanation of your plan for this turn")),
	), c.handleRoll)

	c.mcpServer.AddTool(mcp.NewTool("choose_deal",
		mcp.WithDescription("Pick the small or big deal deck after landing on a deal square"),
		roomIDParam(),
		mcp.WithString("size", mcp.Required(), mcp.Enum(string(engine.DealSmall), string(engine.DealBig))),
	), c.handleChooseDeal)

	c.mcpServer.AddTool(mcp.NewTool("buy_asset",
		mcp.WithDescription("Buy the active deal card"),
		roomIDParam(),
		mcp.WithNumber("quantity", mcp.Description("Shares to buy for stock cards (default 1)")),
	), c.handleBuy)

	c.mcpServer.AddTool(mcp.NewTool("skip_card",
		mcp.WithDescription("Pass on the active card"),
		roomIDParam(),
	), c.handleSkip)

	c.mcpServer.AddTool(mcp.NewTool("take_loan",
		mcp.WithDescription("Borrow money; interest is added to your monthly expenses"),
		roomIDParam(),
		mcp.WithNumber("amount", mcp.Required(), mcp.Description("Amount, a multiple of the ruleset's loan step")),
	), c.handleTakeLoan)

	c.mcpServer.AddTool(mcp.NewTool("repay_loan",
		mcp.WithDescription("Repay part of your loan"),
		roomIDParam(),
		mcp.WithNumber("amount", mcp.Required(), mcp.Description("Amount to repay")),
	), c.handleRepayLoan)

	c.mcpServer.AddTool(mcp.NewTool("transfer_funds",
		mcp.WithDescription("Pay cash to another player"),
		roomIDParam(),
		mcp.WithString("to_user_id", mcp.Required(), mcp.Description("Receiving player's user id")),
		mcp.WithNumber("amount", mcp.Required(), mcp.Description("Amount to pay")),
	), c.handleTransfer)

	c.mcpServer.AddTool(mcp.NewTool("end_turn",
		mcp.WithDescription("End your turn"),
		roomIDParam(),
	), c.handleEndTurn)

	// Information
	c.mcpServer.AddTool(mcp.NewTool("list_configs",
		mcp.WithDescription("List available rulesets"),
	), c.handleListConfigs)

	c.mcpServer.AddTool(mcp.NewTool("game_instructions",
		mcp.WithDescription("Get the rules of the game"),
	), c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// ServeStdio serves the tools on stdin and stdout until the input closes.
func (c *Client) ServeStdio() error {
	if err := server.ServeStdio(c.mcpServer); err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

// apiError is the REST API's error body.
type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (c *Client) apiCall(ctx context.Context, method, path string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(headerUserID, c.userID)
	if c.name != "" {
		req.Header.Set(headerUserName, c.name)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp apiError
		if json.NewDecoder(resp.Body).Decode(&errResp) == nil && errResp.Error != "" {
			if errResp.Code != "" {
				return fmt.Errorf("%s (%s)", errResp.Error, errResp.Code)
			}
			return fmt.Errorf("%s", errResp.Error)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func roomPath(request mcp.CallToolRequest, suffix string) (string, error) {
	roomID, err := request.RequireString("room_id")
	if err != nil {
		return "", err
	}
	return "/api/rooms/" + url.PathEscape(roomID) + suffix, nil
}

// stateTool posts body to a room endpoint answering with a game state.
func (c *Client) stateTool(ctx context.Context, request mcp.CallToolRequest, suffix string, body any) (*mcp.CallToolResult, error) {
	path, err := roomPath(request, suffix)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var state engine.GameState
	if err := c.apiCall(ctx, "POST", path, body, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatGameState(&state, c.userID)), nil
}

// roomTool posts body to a room endpoint answering with a room.
func (c *Client) roomTool(ctx context.Context, request mcp.CallToolRequest, suffix string, body any) (*mcp.CallToolResult, error) {
	path, err := roomPath(request, suffix)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var room lobby.RoomView
	if err := c.apiCall(ctx, "POST", path, body, &room); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatRoom(&room)), nil
}

// Tool handlers

func (c *Client) handleListRooms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count int              `json:"count"`
		Rooms []lobby.RoomView `json:"rooms"`
	}
	if err := c.apiCall(ctx, "GET", "/api/rooms", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Waiting Rooms (%d):\n\n", response.Count)
	for _, r := range response.Rooms {
		lock := ""
		if r.HasPassword {
			lock = ", password"
		}
		fmt.Fprintf(&result, "- %s %q (%d/%d players, %ds turns%s)\n",
			r.ID, r.Name, r.PlayerCount, r.MaxPlayers, r.Timer, lock)
	}
	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGetRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := roomPath(request, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var room lobby.RoomView
	if err := c.apiCall(ctx, "GET", path, nil, &room); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatRoom(&room)), nil
}

func (c *Client) handleCreateRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body := service.CreateRoomInput{
		Name:       name,
		MaxPlayers: request.GetInt("max_players", 0),
		Timer:      request.GetInt("timer", 0),
		Password:   request.GetString("password", ""),
		ConfigName: request.GetString("config_name", ""),
	}

	var room lobby.RoomView
	if err := c.apiCall(ctx, "POST", "/api/rooms", body, &room); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Created room: " + room.ID + "\n\n" + formatRoom(&room)), nil
}

func (c *Client) handleJoinRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.roomTool(ctx, request, "/join", map[string]string{
		"password": request.GetString("password", ""),
	})
}

func (c *Client) handleLeaveRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := roomPath(request, "/leave")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := c.apiCall(ctx, "POST", path, nil, nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Left the room."), nil
}

func (c *Client) handleReady(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.roomTool(ctx, request, "/ready", service.ReadyInput{
		Ready:      request.GetBool("ready", true),
		Dream:      request.GetString("dream", ""),
		Token:      request.GetString("token", ""),
		Profession: request.GetString("profession", ""),
	})
}

func (c *Client) handleStartGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.stateTool(ctx, request, "/start", nil)
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := roomPath(request, "/state")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var state engine.GameState
	if err := c.apiCall(ctx, "GET", path, nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatGameState(&state, c.userID)), nil
}

func (c *Client) handleRoll(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := roomPath(request, "/roll")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var result service.RollResult
	if err := c.apiCall(ctx, "POST", path, nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if result.Roll == 0 {
		return mcp.NewToolResultText("Roll ignored: the turn is not in the ROLL phase.\n\n" +
			formatGameState(result.State, c.userID)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Rolled %d.\n\n%s", result.Roll, formatGameState(result.State, c.userID))), nil
}

func (c *Client) handleChooseDeal(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	size, err := request.RequireString("size")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return c.stateTool(ctx, request, "/deal", map[string]string{"size": size})
}

func (c *Client) handleBuy(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.stateTool(ctx, request, "/buy", map[string]int{"quantity": request.GetInt("quantity", 1)})
}

func (c *Client) handleSkip(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.stateTool(ctx, request, "/skip", nil)
}

func (c *Client) handleTakeLoan(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	amount, err := request.RequireInt("amount")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return c.stateTool(ctx, request, "/loan", map[string]int{"amount": amount})
}

func (c *Client) handleRepayLoan(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	amount, err := request.RequireInt("amount")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return c.stateTool(ctx, request, "/repay", map[string]int{"amount": amount})
}

func (c *Client) handleTransfer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	to, err := request.RequireString("to_user_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	amount, err := request.RequireInt("amount")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return c.stateTool(ctx, request, "/transfer", map[string]any{"to_user_id": to, "amount": amount})
}

func (c *Client) handleEndTurn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.stateTool(ctx, request, "/end-turn", nil)
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	result.WriteString("Available Rulesets:\n\n")
	for _, cfg := range configs {
		fmt.Fprintf(&result, "- %s: %s (%ds turns)\n", cfg.ConfigID, cfg.Name, cfg.TurnSeconds)
		if cfg.Description != "" {
			fmt.Fprintf(&result, "  %s\n", cfg.Description)
		}
		if cfg.Professions > 0 {
			fmt.Fprintf(&result, "  Professions: %d\n", cfg.Professions)
		}
	}
	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

const instructions = `RAT RACE - RULES

LOBBY
- A room is created by its creator and holds up to max_players members.
- Every member must choose a dream and be ready. Tokens are unique per room.
- The creator starts the game once everyone is ready.

TURNS
- Players act in join order. Each turn has three phases:
  ROLL   - the current player rolls one die and moves.
  ACTION - the landed square is resolved; a card may wait for a decision.
  END    - the turn closes and passes to the next player.
- A turn that runs past the room's timer ends automatically.

SQUARES
- payday: passing or landing on it pays your monthly cashflow.
- deal: choose the small or big deal deck, then buy_asset or skip_card.
- market: a random small or big deal is drawn for you.
- expense: a mandatory expense card is charged to your cash.
- life_event: a new child adds a recurring cost to your expenses.
- charity and setback: fixed rules from the ruleset.

MONEY
- cashflow = income - expenses, where income = salary + passive income.
- Loans add cash and increase expenses by the loan interest.
- With no loans and passive income covering your expenses you move to the
  fast track.

TIPS
- Check game_state before acting: it shows the phase and whose turn it is.
- Only the current player may roll or end the turn.`

// Formatting helpers

func formatRoom(room *lobby.RoomView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Room %s %q [%s] %d/%d players, %ds turns\n",
		room.ID, room.Name, room.Status, room.PlayerCount, room.MaxPlayers, room.Timer)
	for _, m := range room.Players {
		ready := " "
		if m.Ready {
			ready = "x"
		}
		creator := ""
		if m.ConnectionID == room.CreatorID {
			creator = " (creator)"
		}
		fmt.Fprintf(&b, "[%s] %s (%s)%s", ready, m.Name, m.UserID, creator)
		if m.Dream != "" {
			fmt.Fprintf(&b, " dream=%s", m.Dream)
		}
		if m.Token != "" {
			fmt.Fprintf(&b, " token=%s", m.Token)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatGameState(state *engine.GameState, userID string) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	current := state.CurrentPlayer()
	turnOf := ""
	if current != nil {
		turnOf = current.Name
		if current.UserID == userID {
			turnOf += " (you)"
		}
	}
	fmt.Fprintf(&b, "Turn %d | Phase: %s | Current: %s | Time left: %ds\n",
		state.Turn, state.Phase, turnOf, state.TurnTimeRemaining)
	if state.LastRoll > 0 {
		fmt.Fprintf(&b, "Last roll: %d\n", state.LastRoll)
	}
	b.WriteString("\n")

	for _, p := range state.Players {
		marker := " "
		if p.UserID == userID {
			marker = "*"
		}
		ring := "rat race"
		if p.IsFastTrack {
			ring = "fast track"
		}
		square := ""
		if sq, ok := state.Board.SquareAt(p.IsFastTrack, p.Position); ok {
			square = " " + string(sq.Type)
		}
		fmt.Fprintf(&b, "%s %s: cash $%d | cashflow $%d/mo (income $%d, expenses $%d) | loan $%d | %s square %d%s\n",
			marker, p.Name, p.Cash, p.Cashflow, p.Income, p.Expenses, p.LoanDebt, ring, p.Position, square)
		for _, a := range p.Assets {
			fmt.Fprintf(&b, "    asset: %s x%d (+$%d/mo)\n", a.Title, a.Quantity, a.Cashflow)
		}
	}

	switch {
	case state.PendingDeal:
		b.WriteString("\nDeal pending: choose_deal small or big.\n")
	case state.CurrentCard != nil:
		b.WriteString("\n" + formatCard(state.CurrentCard) + "\n")
	}

	if n := len(state.Log); n > 0 {
		b.WriteString("\nRecent:\n")
		start := n - 5
		if start < 0 {
			start = 0
		}
		for _, line := range state.Log[start:] {
			b.WriteString("- " + line + "\n")
		}
	}
	return b.String()
}

func formatCard(card *cards.Card) string {
	switch {
	case card.SmallDeal != nil:
		t := card.SmallDeal
		if t.Symbol != "" {
			return fmt.Sprintf("Card: %s (%s at $%d/share, +$%d/mo)", card.Title, t.Symbol, t.Cost, t.Cashflow)
		}
		return fmt.Sprintf("Card: %s (cost $%d, +$%d/mo)", card.Title, t.Cost, t.Cashflow)
	case card.BigDeal != nil:
		t := card.BigDeal
		return fmt.Sprintf("Card: %s (cost $%d, down $%d, +$%d/mo)", card.Title, t.Cost, t.DownPayment, t.Cashflow)
	case card.Expense != nil:
		return fmt.Sprintf("Card: %s (expense $%d)", card.Title, card.Expense.Cost)
	default:
		return "Card: " + card.Title
	}
}
