package chesslib

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/chessbroker/internal/model"
	"github.com/mcoot/chessbroker/internal/rules"
)

type OracleSuite struct {
	suite.Suite
	oracle *Oracle
}

func TestOracleSuite(t *testing.T) {
	suite.Run(t, new(OracleSuite))
}

func (s *OracleSuite) SetupTest() {
	s.oracle = New()
}

func (s *OracleSuite) TestStartingPositionIsWhiteToMove() {
	fen := s.oracle.StartingPosition()

	turn, err := s.oracle.Turn(fen)
	s.Require().NoError(err)
	s.Equal(model.ColorWhite, turn)
}

func (s *OracleSuite) TestTurnFailsOnGarbagePosition() {
	_, err := s.oracle.Turn("not a position")
	s.Error(err)
}

func (s *OracleSuite) TestApplyLegalMoveFlipsTurn() {
	fen := s.oracle.StartingPosition()

	result, err := s.oracle.Apply(fen, model.Move{From: "e2", To: "e4"})
	s.Require().NoError(err)

	s.Equal(model.ColorBlack, result.Turn)
	s.False(result.GameOver)
	s.NotEqual(fen, result.FEN)
}

func (s *OracleSuite) TestApplyTwoMovesAlternatesTurn() {
	fen := s.oracle.StartingPosition()

	first, err := s.oracle.Apply(fen, model.Move{From: "e2", To: "e4"})
	s.Require().NoError(err)
	s.Equal(model.ColorBlack, first.Turn)

	second, err := s.oracle.Apply(first.FEN, model.Move{From: "e7", To: "e5"})
	s.Require().NoError(err)
	s.Equal(model.ColorWhite, second.Turn)
}

func (s *OracleSuite) TestApplyRejectsIllegalMove() {
	fen := s.oracle.StartingPosition()

	_, err := s.oracle.Apply(fen, model.Move{From: "e2", To: "e5"})
	s.ErrorIs(err, model.ErrIllegalMove)
}

func (s *OracleSuite) TestApplyRejectsMoveOfWrongColor() {
	fen := s.oracle.StartingPosition()

	// Black pawn cannot move while it is white's turn
	_, err := s.oracle.Apply(fen, model.Move{From: "e7", To: "e5"})
	s.ErrorIs(err, model.ErrIllegalMove)
}

func (s *OracleSuite) TestApplyRejectsNonsenseSquares() {
	fen := s.oracle.StartingPosition()

	_, err := s.oracle.Apply(fen, model.Move{From: "z9", To: "a0"})
	s.ErrorIs(err, model.ErrIllegalMove)
}

func (s *OracleSuite) TestFoolsMateIsCheckmate() {
	fen := s.oracle.StartingPosition()

	moves := []model.Move{
		{From: "f2", To: "f3"},
		{From: "e7", To: "e5"},
		{From: "g2", To: "g4"},
		{From: "d8", To: "h4"},
	}

	var last *rules.Result
	for _, mv := range moves {
		r, err := s.oracle.Apply(fen, mv)
		s.Require().NoError(err)
		fen = r.FEN
		last = r
	}

	s.True(last.GameOver)
	s.True(last.Checkmate)
	s.False(last.Draw)
}

func (s *OracleSuite) TestStalemateIsDraw() {
	// White queen to g6 leaves the black king with no legal move and no check
	fen := "7k/5K2/8/6Q1/8/8/8/8 w - - 0 1"

	result, err := s.oracle.Apply(fen, model.Move{From: "g5", To: "g6"})
	s.Require().NoError(err)

	s.True(result.GameOver)
	s.True(result.Draw)
	s.False(result.Checkmate)
}

func (s *OracleSuite) TestPromotion() {
	fen := "8/P6k/8/8/8/8/8/K7 w - - 0 1"

	result, err := s.oracle.Apply(fen, model.Move{From: "a7", To: "a8", Promotion: "q"})
	s.Require().NoError(err)

	s.Contains(pieceTypes(result.WhitePieces), "q")
}

func (s *OracleSuite) TestCaptureShrinksPieceTally() {
	fen := s.oracle.StartingPosition()

	moves := []model.Move{
		{From: "e2", To: "e4"},
		{From: "d7", To: "d5"},
		{From: "e4", To: "d5"}, // pawn takes pawn
	}

	var white, black int
	for _, mv := range moves {
		r, err := s.oracle.Apply(fen, mv)
		s.Require().NoError(err)
		fen = r.FEN
		white, black = len(r.WhitePieces), len(r.BlackPieces)
	}

	s.Equal(16, white)
	s.Equal(15, black)
}

func pieceTypes(pieces []model.Piece) []string {
	types := make([]string, 0, len(pieces))
	for _, p := range pieces {
		types = append(types, p.Type)
	}
	return types
}
