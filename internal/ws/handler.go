package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/mcoot/chessbroker/internal/dependencies/random"
	"github.com/mcoot/chessbroker/internal/model"
)

const (
	handleIDLength   = 16
	handleIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// TokenValidator resolves a bearer token to the account behind it
type TokenValidator interface {
	Account(token string) (*model.Account, error)
}

// Handler upgrades HTTP requests to WebSocket connections and runs
// them against the dispatcher
type Handler struct {
	dispatcher *Dispatcher
	auth       TokenValidator
	random     random.Random
	logger     *slog.Logger
	upgrader   websocket.Upgrader
}

// NewHandler creates a Handler. auth may be nil, in which case only
// the email query parameter handshake is accepted.
func NewHandler(dispatcher *Dispatcher, auth TokenValidator, rand random.Random, logger *slog.Logger) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		auth:       auth,
		random:     rand,
		logger:     logger.With(slog.String("component", "ws_handler")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browsers enforce their own origin policy; the broker
			// accepts cross-origin upgrades like any other client
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP handles GET /ws?token=... (or ?email=... when no token is
// presented). The connection is owned by the client pumps from here on.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, err := h.identify(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		h.logger.Warn("upgrade failed", slog.String("error", err.Error()))
		return
	}

	handleID := h.random.String(handleIDLength, handleIDAlphabet)
	client := newClient(handleID, identity, conn, h.dispatcher, h.logger)

	h.logger.Info("connection established",
		slog.String("identity", string(identity)),
		slog.String("handle_id", handleID))

	// The request context dies with this handler; the connection's
	// lifetime is governed by the pumps
	go client.run(context.Background())
}

func (h *Handler) identify(r *http.Request) (model.Identity, error) {
	if token := r.URL.Query().Get("token"); token != "" && h.auth != nil {
		account, err := h.auth.Account(token)
		if err != nil {
			return "", err
		}
		return account.Email, nil
	}

	if email := r.URL.Query().Get("email"); email != "" {
		return model.Identity(email), nil
	}

	return "", errMissingCredentials
}

var errMissingCredentials = errors.New("missing token or email")
