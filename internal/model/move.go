package model

// Move is a candidate move as sent by a client. Squares are in algebraic
// coordinates ("e2", "e4"); Promotion is the optional piece letter ("q").
type Move struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

// UCI returns the move in UCI notation (e.g. "e7e8q")
func (m Move) UCI() string {
	return m.From + m.To + m.Promotion
}

// EndReason explains why a session ended
type EndReason string

const (
	EndReasonCheckmate            EndReason = "checkmate"
	EndReasonDraw                 EndReason = "draw"
	EndReasonOther                EndReason = "other"
	EndReasonOpponentDisconnected EndReason = "opponent_disconnected"
)

// Outcome is the terminal result of a session. Winner is empty when
// there is no winner (draws and disconnects).
type Outcome struct {
	Reason EndReason `json:"reason"`
	Winner Color     `json:"winner,omitempty"`
}

// Piece is one piece on the board, reported in move broadcasts
type Piece struct {
	Type  string `json:"type"`
	Color Color  `json:"color"`
}
