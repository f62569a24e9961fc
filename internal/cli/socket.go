package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"

	"github.com/mcoot/chessbroker/internal/model"
)

// runPlay drives an interactive game session over the socket
func runPlay(opponent, join string) error {
	wsURL, err := socketURL(cfg.ServerURL, cfg.Token)
	if err != nil {
		return err
	}

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("connection failed: %s", resp.Status)
		}
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	jsonOutput := cfg.Output == "json"
	if !jsonOutput {
		fmt.Println("Connected. Type 'quit' to disconnect (this forfeits active games).")
	}

	// Print server events as they arrive
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				return
			}
			printServerEvent(message, jsonOutput)
		}
	}()

	// Disconnect cleanly on interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			_ = conn.Close()
		case <-done:
		}
	}()

	if opponent != "" {
		if err := sendEvent(conn, model.EventInitGame, model.InitGamePayload{
			OpponentEmail: model.Identity(opponent),
		}); err != nil {
			return err
		}
	}
	if join != "" {
		if err := sendEvent(conn, model.EventJoinGame, model.JoinGamePayload{
			GameID: model.SessionID(join),
		}); err != nil {
			return err
		}
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		select {
		case <-done:
			return nil
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		if err := handleCommand(conn, line); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
	}

	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()
	<-done

	if !jsonOutput {
		fmt.Println("Disconnected")
	}
	return nil
}

// handleCommand parses one prompt line and sends the matching event
func handleCommand(conn *websocket.Conn, line string) error {
	fields := strings.Fields(line)

	switch fields[0] {
	case "challenge":
		if len(fields) != 2 {
			return fmt.Errorf("usage: challenge <email>")
		}
		return sendEvent(conn, model.EventInitGame, model.InitGamePayload{
			OpponentEmail: model.Identity(fields[1]),
		})

	case "join":
		if len(fields) != 2 {
			return fmt.Errorf("usage: join <game-id>")
		}
		return sendEvent(conn, model.EventJoinGame, model.JoinGamePayload{
			GameID: model.SessionID(fields[1]),
		})

	case "move":
		if len(fields) != 3 && len(fields) != 4 {
			return fmt.Errorf("usage: move <from> <to> [promotion]")
		}
		mv := model.Move{From: fields[1], To: fields[2]}
		if len(fields) == 4 {
			mv.Promotion = fields[3]
		}
		if currentGameID == "" {
			return fmt.Errorf("no active game")
		}
		return sendEvent(conn, model.EventMove, model.MovePayload{
			GameID: currentGameID,
			Move:   mv,
		})

	default:
		return fmt.Errorf("unknown command: %s", fields[0])
	}
}

// currentGameID tracks the game in play, set from server events
var currentGameID model.SessionID

func sendEvent(conn *websocket.Conn, event model.EventType, payload any) error {
	envelope, err := model.NewEnvelope(event, payload)
	if err != nil {
		return err
	}
	return conn.WriteJSON(envelope)
}

// printServerEvent renders one inbound envelope
func printServerEvent(message []byte, jsonOutput bool) {
	if jsonOutput {
		fmt.Println(string(message))
	}

	var envelope model.Envelope
	if err := json.Unmarshal(message, &envelope); err != nil {
		if !jsonOutput {
			fmt.Printf("<< unreadable message: %s\n", message)
		}
		return
	}

	switch envelope.Event {
	case model.EventGameCreated:
		var p model.GameCreatedPayload
		_ = json.Unmarshal(envelope.Data, &p)
		currentGameID = p.GameID
		if !jsonOutput {
			fmt.Printf("Game %s created, you play %s. Waiting for opponent.\n", p.GameID, colorName(string(p.Color)))
		}

	case model.EventGameInvite:
		var p model.GameInvitePayload
		_ = json.Unmarshal(envelope.Data, &p)
		if !jsonOutput {
			fmt.Printf("Invite from %s. Type 'join %s' to accept.\n", p.From, p.GameID)
		}

	case model.EventGameStarted:
		var p model.GameStartedPayload
		_ = json.Unmarshal(envelope.Data, &p)
		currentGameID = p.GameID
		if !jsonOutput {
			fmt.Printf("Game %s started, %s to move.\n", p.GameID, colorName(string(p.Turn)))
		}

	case model.EventMoveMade:
		var p model.MoveMadePayload
		_ = json.Unmarshal(envelope.Data, &p)
		if !jsonOutput {
			fmt.Printf("Move: %s-%s. %s to move.\n", p.Move.From, p.Move.To, colorName(string(p.Turn)))
			fmt.Printf("Position: %s\n", p.FEN)
		}

	case model.EventGameEnded:
		var p model.GameEndedPayload
		_ = json.Unmarshal(envelope.Data, &p)
		currentGameID = ""
		if !jsonOutput {
			if p.Winner != "" {
				fmt.Printf("Game over: %s, %s wins.\n", p.Reason, colorName(string(p.Winner)))
			} else {
				fmt.Printf("Game over: %s.\n", p.Reason)
			}
		}

	case model.EventOpponentDisconnected:
		currentGameID = ""
		if !jsonOutput {
			fmt.Println("Opponent disconnected, game over.")
		}

	case model.EventError:
		var p model.ErrorPayload
		_ = json.Unmarshal(envelope.Data, &p)
		if !jsonOutput {
			fmt.Printf("Server error: %s\n", p.Message)
		}

	default:
		if !jsonOutput {
			fmt.Printf("<< %s: %s\n", envelope.Event, envelope.Data)
		}
	}
}

// socketURL converts the configured HTTP base URL to the ws endpoint
func socketURL(serverURL, token string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}
