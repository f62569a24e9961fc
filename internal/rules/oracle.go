package rules

import (
	"github.com/mcoot/chessbroker/internal/model"
)

// Result is the oracle's verdict on an accepted move
type Result struct {
	// FEN is the position after the move
	FEN string
	// Turn is the color to move in the new position
	Turn model.Color
	// GameOver is true when the new position is terminal
	GameOver  bool
	Checkmate bool
	Draw      bool
	// Piece tallies for the new position
	WhitePieces []model.Piece
	BlackPieces []model.Piece
}

// Oracle validates and applies moves to encoded positions. The broker
// treats positions as opaque beyond turn-owner extraction.
type Oracle interface {
	// StartingPosition returns the encoded initial position
	StartingPosition() string

	// Turn returns the color to move in the given position
	Turn(fen string) (model.Color, error)

	// Apply validates a candidate move against a position. It returns
	// model.ErrIllegalMove if the move is rejected; any other error is
	// an oracle failure, not a verdict.
	Apply(fen string, mv model.Move) (*Result, error)
}
