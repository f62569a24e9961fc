package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/chessbroker/internal/api"
	"github.com/mcoot/chessbroker/internal/api/response"
	"github.com/mcoot/chessbroker/internal/factory"
	"github.com/mcoot/chessbroker/internal/model"
	"github.com/mcoot/chessbroker/internal/services/auth"
	"github.com/mcoot/chessbroker/internal/storage/memory"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	storage *memory.Storage
	auth    *auth.Service
	app     *factory.App
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	// API tests are integration tests - use production factory with real random/clock
	app, err := factory.New(factory.Config{})
	require.NoError(t, err)

	router := api.NewRouter(api.RouterConfig{
		Logger:            logger,
		AuthService:       app.AuthService,
		SessionController: app.SessionController,
		WSHandler:         app.WSHandler,
	})

	return &testServer{
		handler: router,
		storage: app.Storage.(*memory.Storage),
		auth:    app.AuthService,
		app:     app,
	}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) registerAccount(t *testing.T, email string) string {
	t.Helper()

	body := map[string]string{
		"email":        email,
		"password":     "secret123",
		"display_name": "Test",
	}
	rr := ts.request(http.MethodPost, "/api/v1/auth/register", body, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp response.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.SessionToken
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	// Register
	registerBody := map[string]string{
		"email":        "alice@example.com",
		"password":     "secret123",
		"display_name": "Alice",
	}
	rr := ts.request(http.MethodPost, "/api/v1/auth/register", registerBody, "")
	assert.Equal(t, http.StatusCreated, rr.Code)

	var registerResp response.AuthResponse
	err := json.Unmarshal(rr.Body.Bytes(), &registerResp)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", registerResp.Account.Email)
	assert.NotEmpty(t, registerResp.SessionToken)

	// Login
	loginBody := map[string]string{
		"email":    "alice@example.com",
		"password": "secret123",
	}
	rr = ts.request(http.MethodPost, "/api/v1/auth/login", loginBody, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	var loginResp response.AuthResponse
	err = json.Unmarshal(rr.Body.Bytes(), &loginResp)
	require.NoError(t, err)
	assert.Equal(t, "Alice", loginResp.Account.DisplayName)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ts := newTestServer(t)
	ts.registerAccount(t, "alice@example.com")

	body := map[string]string{
		"email":        "alice@example.com",
		"password":     "different",
		"display_name": "Alice2",
	}
	rr := ts.request(http.MethodPost, "/api/v1/auth/register", body, "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "EMAIL_EXISTS")
}

func TestRegisterMissingFields(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/auth/register", map[string]string{"email": "x@y.z"}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "INVALID_REQUEST")
}

func TestLoginWrongPassword(t *testing.T) {
	ts := newTestServer(t)
	ts.registerAccount(t, "alice@example.com")

	body := map[string]string{
		"email":    "alice@example.com",
		"password": "wrongpassword",
	}
	rr := ts.request(http.MethodPost, "/api/v1/auth/login", body, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "INVALID_CREDENTIALS")
}

func TestGetMe(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerAccount(t, "alice@example.com")

	rr := ts.request(http.MethodGet, "/api/v1/auth/me", nil, token)
	assert.Equal(t, http.StatusOK, rr.Code)

	var account response.Account
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &account))
	assert.Equal(t, "alice@example.com", account.Email)
}

func TestGetMeRequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLogoutInvalidatesToken(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerAccount(t, "alice@example.com")

	rr := ts.request(http.MethodPost, "/api/v1/auth/logout", nil, token)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/auth/me", nil, token)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGetGame(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerAccount(t, "alice@example.com")

	created, err := ts.app.SessionController.Create(context.Background(), model.Identity("alice@example.com"))
	require.NoError(t, err)

	rr := ts.request(http.MethodGet, "/api/v1/games/"+string(created.ID), nil, token)
	assert.Equal(t, http.StatusOK, rr.Code)

	var game response.Game
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &game))
	assert.Equal(t, string(created.ID), game.ID)
	assert.Equal(t, "waiting", game.Status)
	assert.Equal(t, "w", game.Turn)
}

func TestGetGameNotFound(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerAccount(t, "alice@example.com")

	rr := ts.request(http.MethodGet, "/api/v1/games/NOSUCHGAME", nil, token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "GAME_NOT_FOUND")
}
