package response

import (
	"github.com/mcoot/chessbroker/internal/model"
	"github.com/mcoot/chessbroker/internal/services/auth"
)

// Account represents an account in API responses
type Account struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// AccountFromModel converts a model.Account to a response Account
func AccountFromModel(a *model.Account) Account {
	return Account{
		Email:       string(a.Email),
		DisplayName: a.DisplayName,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	Account      Account `json:"account"`
	SessionToken string  `json:"session_token"`
}

// AuthResponseFromSession creates an AuthResponse from a login session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Account:      AccountFromModel(&s.Account),
		SessionToken: s.Token,
	}
}

// Game is a read-only view of a live game session
type Game struct {
	ID      string              `json:"id"`
	Players []model.Participant `json:"players"`
	FEN     string              `json:"fen"`
	Status  string              `json:"status"`
	Turn    string              `json:"turn"`
}

// GameFromModel converts a model.Session to a response Game
func GameFromModel(s *model.Session, turn model.Color) Game {
	return Game{
		ID:      string(s.ID),
		Players: s.Participants,
		FEN:     s.FEN,
		Status:  string(s.Status),
		Turn:    string(turn),
	}
}
