package model

import "encoding/json"

// EventType identifies a wire event exchanged over the socket
type EventType string

const (
	// Client -> server
	EventInitGame EventType = "init_game"
	EventJoinGame EventType = "join_game"
	EventMove     EventType = "move"

	// Server -> client
	EventGameCreated          EventType = "game_created"
	EventGameInvite           EventType = "game_invite"
	EventGameStarted          EventType = "game_started"
	EventMoveMade             EventType = "move_made"
	EventGameEnded            EventType = "game_ended"
	EventOpponentDisconnected EventType = "opponent_disconnected"
	EventError                EventType = "error"
)

// Envelope is the framing for every message on the socket
type Envelope struct {
	Event EventType       `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals a payload into an Envelope
func NewEnvelope(event EventType, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Data: data}, nil
}

// InitGamePayload asks the broker to pair the sender with an opponent
type InitGamePayload struct {
	OpponentEmail Identity `json:"opponentEmail"`
}

// GameCreatedPayload confirms session creation to the creator
type GameCreatedPayload struct {
	GameID SessionID `json:"gameId"`
	Color  Color     `json:"color"`
}

// GameInvitePayload invites the opponent into a waiting session
type GameInvitePayload struct {
	GameID SessionID `json:"gameId"`
	From   Identity  `json:"from"`
}

// JoinGamePayload accepts an invite
type JoinGamePayload struct {
	GameID SessionID `json:"gameId"`
}

// GameStartedPayload announces an active session to both participants
type GameStartedPayload struct {
	GameID  SessionID     `json:"gameId"`
	Players []Participant `json:"players"`
	FEN     string        `json:"fen"`
	Turn    Color         `json:"turn"`
}

// MovePayload is a candidate move from a participant
type MovePayload struct {
	GameID SessionID `json:"gameId"`
	Move   Move      `json:"move"`
}

// MoveMadePayload broadcasts an accepted move to both participants
type MoveMadePayload struct {
	Move        Move    `json:"move"`
	FEN         string  `json:"fen"`
	GameOver    bool    `json:"gameOver"`
	Turn        Color   `json:"turn"`
	WhitePieces []Piece `json:"whitePieces"`
	BlackPieces []Piece `json:"blackPieces"`
}

// GameEndedPayload broadcasts a terminal outcome
type GameEndedPayload struct {
	Reason EndReason `json:"reason"`
	Winner Color     `json:"winner,omitempty"`
}

// ErrorPayload reports a request failure to the requester only
type ErrorPayload struct {
	Message string `json:"message"`
}
