package session

import apperrors "github.com/wricardo/rat-race-game/internal/platform/errors"

var (
	ErrRoomNotPersisted = apperrors.New(apperrors.CodeNotFound, "room not persisted")
	ErrInvalidRoomID    = apperrors.New(apperrors.CodeInvalidArgument, "invalid room ID")
	ErrGameNotFound     = apperrors.New(apperrors.CodeGameNotFound, "game not found")
)
