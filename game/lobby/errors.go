package lobby

import apperrors "github.com/wricardo/rat-race-game/internal/platform/errors"

var (
	ErrInvalidArgument = apperrors.New(apperrors.CodeInvalidArgument, "invalid request")
	ErrRoomNotFound    = apperrors.New(apperrors.CodeRoomNotFound, "room not found")
	ErrRoomStarted     = apperrors.New(apperrors.CodeRoomStarted, "game already started")
	ErrRoomFull        = apperrors.New(apperrors.CodeRoomFull, "room is full")
	ErrWrongPassword   = apperrors.New(apperrors.CodeWrongPassword, "invalid password")
	ErrNotInRoom       = apperrors.New(apperrors.CodeNotInRoom, "player not in room")
	ErrDreamRequired   = apperrors.New(apperrors.CodeDreamRequired, "choose a dream before getting ready")
	ErrTokenTaken      = apperrors.New(apperrors.CodeTokenTaken, "token already taken by another player")
	ErrNotCreator      = apperrors.New(apperrors.CodeNotCreator, "only the host can do this")
	ErrCannotKickSelf  = apperrors.New(apperrors.CodeCannotKickSelf, "host cannot kick themselves")
	ErrNotAllReady     = apperrors.New(apperrors.CodeNotAllReady, "not all players are ready")
)
