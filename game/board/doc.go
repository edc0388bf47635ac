// Package board defines the two loops of the Rat Race board.
//
// The rat race is the inner ring every player starts on; the fast track is
// the larger outer ring a player moves to for good once passive income
// covers their expenses. A Board only maps a loop-relative position to a
// Square; what a square does is decided by the engine.
package board
