package apperror

import "errors"

// User-facing rejections: the requester gets a short text message, nothing else changes.
var (
	ErrRoomAlreadyExists = errors.New("room already exists")
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomFull          = errors.New("room is full")
	ErrAlreadyInRoom     = errors.New("already in a room")
	ErrInvalidRoomID     = errors.New("invalid room id")
)

// Protocol violations: discarded silently by the gateway.
var (
	ErrNotInRoom       = errors.New("not in a room")
	ErrNotAPlayer      = errors.New("not a player of this room")
	ErrNotYourTurn     = errors.New("it's not your turn")
	ErrIllegalMove     = errors.New("illegal move")
	ErrCellOccupied    = errors.New("cell is already occupied")
	ErrInvalidCell     = errors.New("invalid cell index")
	ErrGameIsNotActive = errors.New("game is not active")
)
