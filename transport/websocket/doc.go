// Package websocket carries the game's event surface over websocket
// connections.
//
// Every connection gets a fresh connection id and the verified user id of
// the request that opened it. The first frame a client receives is
// {"event": "connected", "data": {connection_id, user_id, name}}.
//
// Message Protocol:
//
// Inbound frames name an event and carry its arguments:
//
//	{"event": "roll_dice", "request_id": "7", "data": {"room_id": "..."}}
//
// Each one is answered with an ack to the sender only:
//
//	{"event": "ack", "request_id": "7", "ok": false, "code": "NOT_YOUR_TURN", "error": "..."}
//
// Broadcasts produced by the game service (rooms_updated,
// room_state_updated, game_started, dice_rolled, state_updated,
// turn_ended, kicked) arrive as {"event": ..., "data": ...}.
//
// Rooms:
//
// The Hub implements service.Notifier. A connection follows a room once it
// creates, joins or readies in it and stops on leave, kick or disconnect.
// Disconnecting never removes the player from the room; reconnecting and
// sending join_room again relinks the seat.
package websocket
