package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/chessbroker/internal/directory"
	"github.com/mcoot/chessbroker/internal/model"
	"github.com/mcoot/chessbroker/internal/services/session"
)

// Peer is one connected participant, as the dispatcher sees it
type Peer interface {
	directory.Handle
	Identity() model.Identity
}

// Dispatcher routes socket events to session operations and fans the
// resulting broadcasts out to the affected peers. Delivery is
// fire-and-forget; a peer that cannot keep up loses messages rather
// than stalling the session.
type Dispatcher struct {
	directory *directory.Directory
	sessions  *session.Controller
	logger    *slog.Logger
}

// NewDispatcher creates a Dispatcher
func NewDispatcher(dir *directory.Directory, sessions *session.Controller, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		directory: dir,
		sessions:  sessions,
		logger:    logger.With(slog.String("component", "dispatcher")),
	}
}

// HandleConnect registers the peer's identity in the directory
func (d *Dispatcher) HandleConnect(peer Peer) {
	d.directory.Register(peer.Identity(), peer)
}

// HandleDisconnect tears down everything the departing peer was part
// of. A stale disconnect (the identity already reconnected on a newer
// handle) is a no-op: the new connection's sessions must survive.
func (d *Dispatcher) HandleDisconnect(ctx context.Context, peer Peer) {
	if !d.directory.Unregister(peer.Identity(), peer) {
		return
	}

	ended, err := d.sessions.Disconnect(ctx, peer.Identity())
	if err != nil {
		d.logger.Error("disconnect sweep failed",
			slog.String("identity", string(peer.Identity())),
			slog.String("error", err.Error()))
		return
	}

	for _, termination := range ended {
		opponent, ok := termination.Session.OpponentOf(peer.Identity())
		if !ok {
			continue
		}
		d.sendTo(opponent.Identity, model.EventOpponentDisconnected, struct{}{})
	}
}

// HandleMessage dispatches one inbound envelope from a peer
func (d *Dispatcher) HandleMessage(ctx context.Context, peer Peer, raw []byte) {
	var envelope model.Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		d.sendError(peer, "Malformed message")
		return
	}

	switch envelope.Event {
	case model.EventInitGame:
		d.handleInitGame(ctx, peer, envelope.Data)
	case model.EventJoinGame:
		d.handleJoinGame(ctx, peer, envelope.Data)
	case model.EventMove:
		d.handleMove(ctx, peer, envelope.Data)
	default:
		d.sendError(peer, fmt.Sprintf("Unknown event: %s", envelope.Event))
	}
}

func (d *Dispatcher) handleInitGame(ctx context.Context, peer Peer, data json.RawMessage) {
	var payload model.InitGamePayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.OpponentEmail == "" {
		d.sendError(peer, "Malformed message")
		return
	}

	created, err := d.sessions.Create(ctx, peer.Identity())
	if err != nil {
		d.operationError(peer, err)
		return
	}

	d.send(peer, model.EventGameCreated, model.GameCreatedPayload{
		GameID: created.ID,
		Color:  created.Participants[0].Color,
	})

	// The session exists and waits regardless of the invite's fate; an
	// undeliverable one is reported after the fact, and the waiting
	// session is reclaimed by the creator's own disconnect sweep.
	opponent, online := d.directory.Resolve(payload.OpponentEmail)
	if !online {
		d.operationError(peer, model.ErrOpponentOffline)
		return
	}
	d.sendHandle(opponent, model.EventGameInvite, model.GameInvitePayload{
		GameID: created.ID,
		From:   peer.Identity(),
	})
}

func (d *Dispatcher) handleJoinGame(ctx context.Context, peer Peer, data json.RawMessage) {
	var payload model.JoinGamePayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.GameID == "" {
		d.sendError(peer, "Malformed message")
		return
	}

	joined, err := d.sessions.Join(ctx, payload.GameID, peer.Identity())
	if err != nil {
		d.operationError(peer, err)
		return
	}

	turn, err := d.sessions.Turn(joined.FEN)
	if err != nil {
		d.operationError(peer, err)
		return
	}

	started := model.GameStartedPayload{
		GameID:  joined.ID,
		Players: joined.Participants,
		FEN:     joined.FEN,
		Turn:    turn,
	}
	for _, participant := range joined.Participants {
		d.sendTo(participant.Identity, model.EventGameStarted, started)
	}
}

func (d *Dispatcher) handleMove(ctx context.Context, peer Peer, data json.RawMessage) {
	var payload model.MovePayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.GameID == "" {
		d.sendError(peer, "Malformed message")
		return
	}

	moved, result, outcome, err := d.sessions.Move(ctx, payload.GameID, peer.Identity(), payload.Move)
	if err != nil {
		d.moveError(peer, payload.Move, err)
		return
	}

	made := model.MoveMadePayload{
		Move:        payload.Move,
		FEN:         result.FEN,
		GameOver:    result.GameOver,
		Turn:        result.Turn,
		WhitePieces: result.WhitePieces,
		BlackPieces: result.BlackPieces,
	}
	for _, participant := range moved.Participants {
		d.sendTo(participant.Identity, model.EventMoveMade, made)
	}

	if outcome != nil {
		ended := model.GameEndedPayload{
			Reason: outcome.Reason,
			Winner: outcome.Winner,
		}
		for _, participant := range moved.Participants {
			d.sendTo(participant.Identity, model.EventGameEnded, ended)
		}
	}
}

// moveError maps a rejected move to the client-facing message
func (d *Dispatcher) moveError(peer Peer, mv model.Move, err error) {
	switch {
	case errors.Is(err, model.ErrIllegalMove):
		d.sendError(peer, fmt.Sprintf("Invalid move: %s to %s", mv.From, mv.To))
	default:
		d.operationError(peer, err)
	}
}

// operationError maps a failed operation to the client-facing message
func (d *Dispatcher) operationError(peer Peer, err error) {
	switch {
	case errors.Is(err, model.ErrSessionFullOrMissing):
		d.sendError(peer, "Game not found or full")
	case errors.Is(err, model.ErrSessionNotActive):
		d.sendError(peer, "Game not active")
	case errors.Is(err, model.ErrNotYourTurn):
		d.sendError(peer, "Not your turn")
	case errors.Is(err, model.ErrOpponentOffline):
		d.sendError(peer, "Opponent not online")
	default:
		d.logger.Error("operation failed", slog.String("error", err.Error()))
		d.sendError(peer, "Something went wrong")
	}
}

func (d *Dispatcher) sendError(peer Peer, message string) {
	d.send(peer, model.EventError, model.ErrorPayload{Message: message})
}

// sendTo delivers an event to an identity's current handle, dropping
// it silently if the identity is offline
func (d *Dispatcher) sendTo(identity model.Identity, event model.EventType, payload any) {
	handle, ok := d.directory.Resolve(identity)
	if !ok {
		return
	}
	d.sendHandle(handle, event, payload)
}

func (d *Dispatcher) send(peer Peer, event model.EventType, payload any) {
	d.sendHandle(peer, event, payload)
}

func (d *Dispatcher) sendHandle(handle directory.Handle, event model.EventType, payload any) {
	envelope, err := model.NewEnvelope(event, payload)
	if err != nil {
		d.logger.Error("envelope marshal failed",
			slog.String("event", string(event)),
			slog.String("error", err.Error()))
		return
	}
	message, err := json.Marshal(envelope)
	if err != nil {
		d.logger.Error("envelope marshal failed",
			slog.String("event", string(event)),
			slog.String("error", err.Error()))
		return
	}
	handle.Send(message)
}
