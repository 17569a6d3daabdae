package apperror

import "errors"

var (
	ErrGameNotFound           = errors.New("game not found")
	ErrGameFinished           = errors.New("game is already finished")
	ErrNotYourTurn            = errors.New("it's not your turn")
	ErrCellOccupied           = errors.New("cell is already occupied")
	ErrInvalidCell            = errors.New("invalid cell index")
	ErrBadEncoding            = errors.New("malformed board encoding")
	ErrAIService              = errors.New("ai service request failed")
	ErrConcurrentModification = errors.New("game was modified concurrently")
)
