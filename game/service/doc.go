// Package service is the event surface of the game server.
//
// GameService exposes every client action as a method taking an Actor: the
// durable user id verified by the external login flow plus the connection
// the action arrived on. Lobby actions go to the room directory, game
// actions to the room's engine, always under the room's lock.
//
// Every accepted change is followed by outbound events through a Notifier:
//
//   - rooms_updated to every client when the waiting list changes
//   - room_state_updated to a room on membership or readiness changes
//   - game_started, dice_rolled, state_updated and turn_ended to a room
//     after game changes, each carrying the latest snapshot
//
// Rejected actions return a coded error from internal/platform/errors and
// change nothing. They are logged at debug level.
//
// The turn clock (RunTurnClock) ticks every running game and ends turns
// whose budget has run out.
//
// Usage:
//
//	svc := service.NewGameService(sessions, configs,
//		service.WithNotifier(hub),
//		service.WithLogger(logger))
//	go svc.RunTurnClock(ctx, time.Second)
//
//	room, err := svc.CreateRoom(ctx, actor, service.CreateRoomInput{Name: "Friday"})
package service
