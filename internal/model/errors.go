package model

import "errors"

// Common errors used across the application
var (
	// Session errors
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionExists        = errors.New("session already exists")
	ErrSessionFullOrMissing = errors.New("game not found or full")
	ErrSessionNotActive     = errors.New("game not active")
	ErrNotYourTurn          = errors.New("not your turn")
	ErrIllegalMove          = errors.New("illegal move")
	ErrOpponentOffline      = errors.New("opponent not online")

	// Invariant errors
	ErrTooManyParticipants = errors.New("session has more than two participants")
	ErrInvalidSessionState = errors.New("session state does not match participant count")

	// Account errors
	ErrAccountNotFound = errors.New("account not found")
)
