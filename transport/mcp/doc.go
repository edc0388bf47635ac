// Package mcp exposes the game to AI agents as Model Context Protocol tools.
//
// Client is a thin proxy: every tool call becomes one request to the REST
// API (package api), made as a single player whose user id is fixed when
// the client is created. Results are rendered as text for the agent.
//
// MCP Tools:
//   - list_rooms, get_room, create_room, join_room, leave_room
//   - player_ready, start_game
//   - game_state, roll_dice, choose_deal, buy_asset, skip_card, end_turn
//   - take_loan, repay_loan, transfer_funds
//   - list_configs, game_instructions
//
// Rejected actions come back as error results carrying the server's error
// code, for example "not your turn (NOT_YOUR_TURN)".
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080", "agent-1", "Agent")
//	if err := client.ServeStdio(); err != nil {
//		log.Fatal(err)
//	}
package mcp
