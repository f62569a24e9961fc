package chesslib

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"

	"github.com/mcoot/chessbroker/internal/model"
	"github.com/mcoot/chessbroker/internal/rules"
)

// Oracle implements the rules oracle on top of notnil/chess
type Oracle struct{}

// New creates a new chess rules oracle
func New() *Oracle {
	return &Oracle{}
}

// Ensure Oracle implements the interface
var _ rules.Oracle = (*Oracle)(nil)

// StartingPosition returns the standard initial position in FEN
func (o *Oracle) StartingPosition() string {
	return chess.NewGame().Position().String()
}

// Turn returns the color to move in the given position
func (o *Oracle) Turn(fen string) (model.Color, error) {
	game, err := newGame(fen)
	if err != nil {
		return "", err
	}
	return colorOf(game.Position().Turn()), nil
}

// Apply validates and applies a candidate move to a position
func (o *Oracle) Apply(fen string, mv model.Move) (*rules.Result, error) {
	game, err := newGame(fen)
	if err != nil {
		return nil, err
	}

	uci := strings.ToLower(mv.UCI())
	move, err := chess.UCINotation{}.Decode(game.Position(), uci)
	if err != nil {
		return nil, model.ErrIllegalMove
	}
	if err := game.Move(move); err != nil {
		return nil, model.ErrIllegalMove
	}

	pos := game.Position()
	outcome := game.Outcome()

	result := &rules.Result{
		FEN:       pos.String(),
		Turn:      colorOf(pos.Turn()),
		GameOver:  outcome != chess.NoOutcome,
		Checkmate: game.Method() == chess.Checkmate,
		Draw:      outcome == chess.Draw,
	}
	result.WhitePieces, result.BlackPieces = tallyPieces(pos.Board())

	return result, nil
}

func newGame(fen string) (*chess.Game, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("decode position: %w", err)
	}
	return chess.NewGame(opt), nil
}

func colorOf(c chess.Color) model.Color {
	if c == chess.White {
		return model.ColorWhite
	}
	return model.ColorBlack
}

// tallyPieces scans the board in square order so output is deterministic
func tallyPieces(board *chess.Board) (white, black []model.Piece) {
	for sq := 0; sq < 64; sq++ {
		p := board.Piece(chess.Square(sq))
		if p == chess.NoPiece {
			continue
		}
		piece := model.Piece{Type: pieceLetter(p.Type()), Color: colorOf(p.Color())}
		if p.Color() == chess.White {
			white = append(white, piece)
		} else {
			black = append(black, piece)
		}
	}
	return white, black
}

func pieceLetter(t chess.PieceType) string {
	switch t {
	case chess.King:
		return "k"
	case chess.Queen:
		return "q"
	case chess.Rook:
		return "r"
	case chess.Bishop:
		return "b"
	case chess.Knight:
		return "n"
	case chess.Pawn:
		return "p"
	default:
		return ""
	}
}
