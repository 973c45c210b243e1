package services

import "errors"

// User-facing room errors. These are reported back to the offending
// client only; they never tear down a room or affect other players.
var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room is full")
	ErrGameAlreadyStarted = errors.New("game already in progress")
	ErrInvalidDifficulty  = errors.New("invalid difficulty")
	ErrUnauthorizedStart  = errors.New("only the host can start the game")
)
