package engine

import apperrors "github.com/wricardo/rat-race-game/internal/platform/errors"

var (
	ErrInvalidConfig      = apperrors.New(apperrors.CodeInvalidConfig, "invalid game config")
	ErrInvalidSnapshot    = apperrors.New(apperrors.CodeInvalidSnapshot, "invalid game snapshot")
	ErrInvalidArgument    = apperrors.New(apperrors.CodeInvalidArgument, "invalid argument")
	ErrUnknownProfession  = apperrors.New(apperrors.CodeUnknownProfess, "unknown profession")
	ErrPlayerNotFound     = apperrors.New(apperrors.CodePlayerNotFound, "player not found")
	ErrNotYourTurn        = apperrors.New(apperrors.CodeNotYourTurn, "not your turn")
	ErrWrongPhase         = apperrors.New(apperrors.CodeWrongPhase, "action not allowed in this phase")
	ErrNoActiveCard       = apperrors.New(apperrors.CodeNoActiveCard, "no active card")
	ErrNoDealPending      = apperrors.New(apperrors.CodeNoDealPending, "no deal choice pending")
	ErrCardNotPurchasable = apperrors.New(apperrors.CodeCardNotPurchase, "active card cannot be bought")
	ErrInsufficientCash   = apperrors.New(apperrors.CodeInsufficientCash, "insufficient cash")
	ErrInvalidLoanAmount  = apperrors.New(apperrors.CodeInvalidLoan, "invalid loan amount")
	ErrLoanCapExceeded    = apperrors.New(apperrors.CodeLoanCapExceeded, "loan limit exceeded")
	ErrRepayExceedsDebt   = apperrors.New(apperrors.CodeRepayExceedsDebt, "repayment exceeds outstanding loan")
)
