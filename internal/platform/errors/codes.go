// Package errors provides coded domain errors shared by every game package.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Validation errors
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeInvalidSnapshot Code = "INVALID_SNAPSHOT"
	CodeInvalidConfig   Code = "INVALID_CONFIG"
	CodeInvalidCard     Code = "INVALID_CARD"
	CodeDreamRequired   Code = "DREAM_REQUIRED"
	CodeUnknownProfess  Code = "UNKNOWN_PROFESSION"

	// Authorization errors
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeNotYourTurn     Code = "NOT_YOUR_TURN"
	CodeNotCreator      Code = "NOT_ROOM_CREATOR"
	CodeCannotKickSelf  Code = "CANNOT_KICK_SELF"
	CodeNotInRoom       Code = "NOT_IN_ROOM"

	// Capacity / consistency errors
	CodeRoomNotFound    Code = "ROOM_NOT_FOUND"
	CodeGameNotFound    Code = "GAME_NOT_FOUND"
	CodePlayerNotFound  Code = "PLAYER_NOT_FOUND"
	CodeRoomFull        Code = "ROOM_FULL"
	CodeRoomStarted     Code = "ROOM_ALREADY_STARTED"
	CodeWrongPassword   Code = "WRONG_PASSWORD"
	CodeTokenTaken      Code = "TOKEN_TAKEN"
	CodeNotAllReady     Code = "NOT_ALL_READY"
	CodeWrongPhase      Code = "WRONG_PHASE"
	CodeNoActiveCard    Code = "NO_ACTIVE_CARD"
	CodeNoDealPending   Code = "NO_DEAL_PENDING"
	CodeCardNotPurchase Code = "CARD_NOT_PURCHASABLE"

	// Financial preconditions
	CodeInsufficientCash Code = "INSUFFICIENT_CASH"
	CodeInvalidLoan      Code = "INVALID_LOAN_AMOUNT"
	CodeLoanCapExceeded  Code = "LOAN_CAP_EXCEEDED"
	CodeRepayExceedsDebt Code = "REPAY_EXCEEDS_DEBT"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidArgument,
		CodeInvalidSnapshot,
		CodeInvalidConfig,
		CodeInvalidCard,
		CodeDreamRequired,
		CodeUnknownProfess,
		CodeInvalidLoan:
		return http.StatusBadRequest

	case CodeUnauthenticated:
		return http.StatusUnauthorized

	case CodeNotYourTurn,
		CodeNotCreator,
		CodeCannotKickSelf,
		CodeNotInRoom:
		return http.StatusForbidden

	case CodeRoomNotFound,
		CodeGameNotFound,
		CodePlayerNotFound,
		CodeNotFound:
		return http.StatusNotFound

	case CodeRoomFull,
		CodeRoomStarted,
		CodeWrongPassword,
		CodeTokenTaken,
		CodeNotAllReady,
		CodeWrongPhase,
		CodeNoActiveCard,
		CodeNoDealPending,
		CodeCardNotPurchase,
		CodeInsufficientCash,
		CodeLoanCapExceeded,
		CodeRepayExceedsDebt:
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}
