package apperror

import "errors"

var (
	ErrGameFinished    = errors.New("game is already finished")
	ErrCellOccupied    = errors.New("cell is already occupied")
	ErrInvalidCell     = errors.New("invalid cell index")
	ErrInvalidSymbol   = errors.New("invalid player symbol")
	ErrInvalidMode     = errors.New("invalid game mode")
	ErrSessionNotFound = errors.New("session not found")
)

var (
	ErrUnknownAction  = errors.New("unknown action")
	ErrMissingPayload = errors.New("payload is required")
	ErrNotConnected   = errors.New("session is not connected")
)
