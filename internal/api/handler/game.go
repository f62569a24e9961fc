package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/chessbroker/internal/api/response"
	"github.com/mcoot/chessbroker/internal/model"
	"github.com/mcoot/chessbroker/internal/services/session"
)

// GameHandler exposes read-only views of live game sessions
type GameHandler struct {
	sessions *session.Controller
}

// NewGameHandler creates a new game handler
func NewGameHandler(sessions *session.Controller) *GameHandler {
	return &GameHandler{
		sessions: sessions,
	}
}

// Get handles GET /api/v1/games/{id}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.SessionID(mux.Vars(r)["id"])

	game, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	turn, err := h.sessions.Turn(game.FEN)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameFromModel(game, turn))
}
