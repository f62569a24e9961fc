package e2e_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/chessbroker/internal/api"
	"github.com/mcoot/chessbroker/internal/factory"
	"github.com/mcoot/chessbroker/internal/model"
)

const eventTimeout = 5 * time.Second

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	addr string
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	app, err := factory.New(factory.Config{Logger: logger})
	require.NoError(t, err)

	router := api.NewRouter(api.RouterConfig{
		Logger:            logger,
		AuthService:       app.AuthService,
		SessionController: app.SessionController,
		WSHandler:         app.WSHandler,
	})

	server := &http.Server{Handler: router}
	go func() { _ = server.Serve(listener) }()
	t.Cleanup(func() { _ = server.Close() })

	return &testServer{addr: addr}
}

// wsClient is one connected participant
type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func (ts *testServer) connect(t *testing.T, email string) *wsClient {
	t.Helper()
	return ts.dial(t, fmt.Sprintf("ws://%s/ws?email=%s", ts.addr, email))
}

func (ts *testServer) connectWithToken(t *testing.T, token string) *wsClient {
	t.Helper()
	return ts.dial(t, fmt.Sprintf("ws://%s/ws?token=%s", ts.addr, token))
}

func (ts *testServer) dial(t *testing.T, url string) *wsClient {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &wsClient{t: t, conn: conn}
}

func (c *wsClient) send(event model.EventType, payload any) {
	c.t.Helper()

	envelope, err := model.NewEnvelope(event, payload)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteJSON(envelope))
}

// expect reads the next event and requires it to be of the given type
func (c *wsClient) expect(event model.EventType, into any) {
	c.t.Helper()

	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(eventTimeout)))
	_, message, err := c.conn.ReadMessage()
	require.NoError(c.t, err)

	var envelope model.Envelope
	require.NoError(c.t, json.Unmarshal(message, &envelope))
	require.Equal(c.t, event, envelope.Event, "unexpected event: %s", message)

	if into != nil {
		require.NoError(c.t, json.Unmarshal(envelope.Data, into))
	}
}

// startGame runs the full handshake and returns the game id
func startGame(t *testing.T, white, black *wsClient, blackEmail string) model.SessionID {
	t.Helper()

	white.send(model.EventInitGame, model.InitGamePayload{OpponentEmail: model.Identity(blackEmail)})

	var created model.GameCreatedPayload
	white.expect(model.EventGameCreated, &created)
	require.Equal(t, model.ColorWhite, created.Color)

	var invite model.GameInvitePayload
	black.expect(model.EventGameInvite, &invite)
	require.Equal(t, created.GameID, invite.GameID)

	black.send(model.EventJoinGame, model.JoinGamePayload{GameID: invite.GameID})

	var started model.GameStartedPayload
	white.expect(model.EventGameStarted, &started)
	black.expect(model.EventGameStarted, &started)
	require.Equal(t, model.ColorWhite, started.Turn)

	return created.GameID
}

func TestFullGameOverSocket(t *testing.T) {
	ts := startTestServer(t)

	alice := ts.connect(t, "alice@example.com")
	bob := ts.connect(t, "bob@example.com")

	gameID := startGame(t, alice, bob, "bob@example.com")

	// Scholar's mate, white delivers checkmate on move four
	moves := []struct {
		who *wsClient
		mv  model.Move
	}{
		{alice, model.Move{From: "e2", To: "e4"}},
		{bob, model.Move{From: "e7", To: "e5"}},
		{alice, model.Move{From: "f1", To: "c4"}},
		{bob, model.Move{From: "b8", To: "c6"}},
		{alice, model.Move{From: "d1", To: "h5"}},
		{bob, model.Move{From: "g8", To: "f6"}},
		{alice, model.Move{From: "h5", To: "f7"}},
	}

	var made model.MoveMadePayload
	for _, step := range moves {
		step.who.send(model.EventMove, model.MovePayload{GameID: gameID, Move: step.mv})
		alice.expect(model.EventMoveMade, &made)
		bob.expect(model.EventMoveMade, &made)
	}

	assert.True(t, made.GameOver)

	var ended model.GameEndedPayload
	alice.expect(model.EventGameEnded, &ended)
	bob.expect(model.EventGameEnded, &ended)
	assert.Equal(t, model.EndReasonCheckmate, ended.Reason)
	assert.Equal(t, model.ColorWhite, ended.Winner)
}

func TestIllegalMoveRejectedOverSocket(t *testing.T) {
	ts := startTestServer(t)

	alice := ts.connect(t, "alice@example.com")
	bob := ts.connect(t, "bob@example.com")

	gameID := startGame(t, alice, bob, "bob@example.com")

	alice.send(model.EventMove, model.MovePayload{
		GameID: gameID,
		Move:   model.Move{From: "e2", To: "e5"},
	})

	var errPayload model.ErrorPayload
	alice.expect(model.EventError, &errPayload)
	assert.Equal(t, "Invalid move: e2 to e5", errPayload.Message)

	// The game is still playable
	alice.send(model.EventMove, model.MovePayload{
		GameID: gameID,
		Move:   model.Move{From: "e2", To: "e4"},
	})
	alice.expect(model.EventMoveMade, nil)
	bob.expect(model.EventMoveMade, nil)
}

func TestOfflineOpponentOverSocket(t *testing.T) {
	ts := startTestServer(t)

	alice := ts.connect(t, "alice@example.com")

	alice.send(model.EventInitGame, model.InitGamePayload{OpponentEmail: "ghost@example.com"})

	// The game is created first; the undeliverable invite follows as an error
	var created model.GameCreatedPayload
	alice.expect(model.EventGameCreated, &created)
	assert.Equal(t, model.ColorWhite, created.Color)

	var errPayload model.ErrorPayload
	alice.expect(model.EventError, &errPayload)
	assert.Equal(t, "Opponent not online", errPayload.Message)

	// The invitee can join the waiting game once they come online
	ghost := ts.connect(t, "ghost@example.com")
	ghost.send(model.EventJoinGame, model.JoinGamePayload{GameID: created.GameID})

	var started model.GameStartedPayload
	alice.expect(model.EventGameStarted, &started)
	ghost.expect(model.EventGameStarted, &started)
	assert.Equal(t, created.GameID, started.GameID)
}

func TestDisconnectEndsGameOverSocket(t *testing.T) {
	ts := startTestServer(t)

	alice := ts.connect(t, "alice@example.com")
	bob := ts.connect(t, "bob@example.com")

	startGame(t, alice, bob, "bob@example.com")

	require.NoError(t, alice.conn.Close())

	bob.expect(model.EventOpponentDisconnected, nil)
}

func TestTokenHandshake(t *testing.T) {
	ts := startTestServer(t)

	// Register an account over the API to get a token
	body, _ := json.Marshal(map[string]string{
		"email":        "alice@example.com",
		"password":     "secret123",
		"display_name": "Alice",
	})
	resp, err := http.Post(
		fmt.Sprintf("http://%s/api/v1/auth/register", ts.addr),
		"application/json",
		bytes.NewReader(body),
	)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var authResp struct {
		SessionToken string `json:"session_token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&authResp))

	alice := ts.connectWithToken(t, authResp.SessionToken)
	bob := ts.connect(t, "bob@example.com")

	// The token resolves to alice's email identity
	startGame(t, alice, bob, "bob@example.com")
}

func TestUpgradeRejectedWithoutCredentials(t *testing.T) {
	ts := startTestServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(fmt.Sprintf("ws://%s/ws", ts.addr), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
