// Package api provides the HTTP REST API of the game server.
//
// The REST API mirrors the websocket event surface for tooling and the MCP
// proxy. Callers are identified by headers set by the login proxy in front
// of the server:
//
//	X-User-ID    durable user id (required for every action)
//	X-User-Name  display name
//
// REST callers always act on the connection id "http:<user id>".
//
// Endpoints:
//
// Lobby:
//   - GET  /api/rooms             - List waiting rooms
//   - POST /api/rooms             - Create a room
//   - GET  /api/rooms/{id}        - Get a room
//   - GET  /api/rooms/{id}/invite.png - QR code linking to the room
//   - POST /api/rooms/{id}/join   - Join or rejoin a room
//   - POST /api/rooms/{id}/leave  - Leave a room
//   - POST /api/rooms/{id}/ready  - Set readiness, dream, token and profession
//   - POST /api/rooms/{id}/kick   - Remove a member (creator only)
//   - POST /api/rooms/{id}/start  - Start the game (creator only)
//
// Game:
//   - GET  /api/rooms/{id}/state     - Current snapshot
//   - POST /api/rooms/{id}/roll      - Roll the die
//   - POST /api/rooms/{id}/deal      - Choose {"size": "small|big"}
//   - POST /api/rooms/{id}/buy       - Buy the active card {"quantity": n}
//   - POST /api/rooms/{id}/skip      - Pass on the active card
//   - POST /api/rooms/{id}/loan      - Borrow {"amount": n}
//   - POST /api/rooms/{id}/repay     - Repay {"amount": n}
//   - POST /api/rooms/{id}/transfer  - Pay {"to_user_id", "amount"}
//   - POST /api/rooms/{id}/end-turn  - End the turn
//
// Configuration:
//   - GET /api/configs         - List rulesets
//   - GET /api/configs/{name}  - Get a ruleset
//
// GET /ws upgrades to the websocket protocol. Browsers may pass user_id and
// name as query parameters instead of headers.
//
// Errors are returned as JSON with the status of their code:
//
//	{"error": "not your turn", "code": "NOT_YOUR_TURN"}
package api
