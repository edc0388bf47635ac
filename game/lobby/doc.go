// Package lobby keeps the rooms players gather in before and during a game.
//
// A Room's members carry two identities: the durable UserID, stable across
// reconnects, and the transient ConnectionID of the socket currently used.
// Joining is idempotent by UserID, so a reconnecting player updates their
// existing membership instead of appearing twice. The room creator is
// tracked by connection and follows the creator across reconnects.
//
// The Directory is an in-memory index of rooms. It never talks to the
// network or to storage; callers persist the rooms it returns.
package lobby
