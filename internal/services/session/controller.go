package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mcoot/chessbroker/internal/dependencies/clock"
	"github.com/mcoot/chessbroker/internal/dependencies/random"
	"github.com/mcoot/chessbroker/internal/model"
	"github.com/mcoot/chessbroker/internal/rules"
	"github.com/mcoot/chessbroker/internal/storage"
)

const (
	idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	idLength   = 12

	// createAttempts bounds retries on session id collision
	createAttempts = 5
)

// Termination records one session ended by a disconnect sweep
type Termination struct {
	Session *model.Session
	Outcome model.Outcome
}

// Controller owns the session state machine and registry operations.
// All operations against one session id serialize on that id's mutex;
// operations on distinct ids never contend (no global critical section).
type Controller struct {
	storage storage.Storage
	oracle  rules.Oracle
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger

	mu    sync.Mutex
	locks map[model.SessionID]*sync.Mutex
}

// NewController creates a new session Controller
func NewController(
	storage storage.Storage,
	oracle rules.Oracle,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage: storage,
		oracle:  oracle,
		clock:   clock,
		random:  random,
		logger:  logger.With(slog.String("component", "session")),
		locks:   make(map[model.SessionID]*sync.Mutex),
	}
}

// lockSession acquires the per-session mutex, creating it on demand.
// Returns the unlock function.
func (c *Controller) lockSession(id model.SessionID) func() {
	c.mu.Lock()
	lock, ok := c.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[id] = lock
	}
	c.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// dropLock discards a session's mutex once the session is gone. A
// waiter already holding the old mutex pointer still serializes against
// us and then simply misses the session in storage.
func (c *Controller) dropLock(id model.SessionID) {
	c.mu.Lock()
	delete(c.locks, id)
	c.mu.Unlock()
}

// Create makes a new waiting session with the requester as white
func (c *Controller) Create(ctx context.Context, requester model.Identity) (*model.Session, error) {
	now := c.clock.Now()

	for attempt := 0; attempt < createAttempts; attempt++ {
		id := model.SessionID(c.random.String(idLength, idAlphabet))
		session := &model.Session{
			ID:           id,
			Participants: []model.Participant{{Identity: requester, Color: model.ColorWhite}},
			FEN:          c.oracle.StartingPosition(),
			Status:       model.StatusWaiting,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		err := c.storage.CreateSession(ctx, session)
		if errors.Is(err, model.ErrSessionExists) {
			continue
		}
		if err != nil {
			return nil, err
		}

		c.logger.Info("session created",
			slog.String("session_id", string(id)),
			slog.String("creator", string(requester)))
		return session, nil
	}

	return nil, model.ErrSessionExists
}

// Get retrieves a session by id
func (c *Controller) Get(ctx context.Context, id model.SessionID) (*model.Session, error) {
	return c.storage.GetSession(ctx, id)
}

// Turn returns the color to move for a position
func (c *Controller) Turn(fen string) (model.Color, error) {
	return c.oracle.Turn(fen)
}

// Join seats a second participant and activates the session. The
// joiner takes the color not already assigned; white moves first.
func (c *Controller) Join(ctx context.Context, id model.SessionID, identity model.Identity) (*model.Session, error) {
	unlock := c.lockSession(id)
	defer unlock()

	session, err := c.storage.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return nil, model.ErrSessionFullOrMissing
		}
		return nil, err
	}

	if session.Status != model.StatusWaiting || session.IsFull() {
		return nil, model.ErrSessionFullOrMissing
	}
	if _, ok := session.ParticipantByIdentity(identity); ok {
		// The creator already holds a seat
		return nil, model.ErrSessionFullOrMissing
	}

	taken := session.Participants[0].Color
	session.Participants = append(session.Participants, model.Participant{
		Identity: identity,
		Color:    taken.Opponent(),
	})
	session.Status = model.StatusActive
	session.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveSession(ctx, session); err != nil {
		return nil, err
	}

	c.logger.Info("session joined",
		slog.String("session_id", string(id)),
		slog.String("joiner", string(identity)))
	return session, nil
}

// Move validates a candidate move against the session and the rules
// oracle. Rejections leave the session untouched. On a terminal
// outcome the session is removed from the registry before returning.
func (c *Controller) Move(ctx context.Context, id model.SessionID, identity model.Identity, mv model.Move) (*model.Session, *rules.Result, *model.Outcome, error) {
	unlock := c.lockSession(id)
	defer unlock()

	session, err := c.storage.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return nil, nil, nil, model.ErrSessionNotActive
		}
		return nil, nil, nil, err
	}

	if session.Status != model.StatusActive {
		return nil, nil, nil, model.ErrSessionNotActive
	}

	participant, ok := session.ParticipantByIdentity(identity)
	if !ok {
		return nil, nil, nil, model.ErrNotYourTurn
	}

	// Turn ownership is derived from the position, never stored
	turn, err := c.oracle.Turn(session.FEN)
	if err != nil {
		return nil, nil, nil, err
	}
	if participant.Color != turn {
		return nil, nil, nil, model.ErrNotYourTurn
	}

	result, err := c.oracle.Apply(session.FEN, mv)
	if err != nil {
		return nil, nil, nil, err
	}

	session.FEN = result.FEN
	session.UpdatedAt = c.clock.Now()

	if result.GameOver {
		outcome := terminalOutcome(result, participant.Color)
		session.Status = model.StatusEnded

		// Ended is terminal: the session leaves the registry immediately
		if err := c.storage.DeleteSession(ctx, id); err != nil {
			return nil, nil, nil, err
		}
		c.dropLock(id)

		c.logger.Info("session ended",
			slog.String("session_id", string(id)),
			slog.String("reason", string(outcome.Reason)),
			slog.String("winner", string(outcome.Winner)))
		return session, result, &outcome, nil
	}

	if err := c.storage.SaveSession(ctx, session); err != nil {
		return nil, nil, nil, err
	}
	return session, result, nil, nil
}

// terminalOutcome maps an oracle verdict to an outcome. On checkmate
// the winner is the side that just moved: the side to move in a mated
// position has no legal replies.
func terminalOutcome(result *rules.Result, mover model.Color) model.Outcome {
	switch {
	case result.Checkmate:
		return model.Outcome{Reason: model.EndReasonCheckmate, Winner: mover}
	case result.Draw:
		return model.Outcome{Reason: model.EndReasonDraw}
	default:
		return model.Outcome{Reason: model.EndReasonOther}
	}
}

// Disconnect sweeps the registry and ends every non-ended session the
// identity participates in. There is no reconnection grace period.
// Returns the terminations so the caller can notify survivors.
func (c *Controller) Disconnect(ctx context.Context, identity model.Identity) ([]Termination, error) {
	sessions, err := c.storage.ListSessions(ctx)
	if err != nil {
		return nil, err
	}

	var ended []Termination
	for _, candidate := range sessions {
		if _, ok := candidate.ParticipantByIdentity(identity); !ok {
			continue
		}

		unlock := c.lockSession(candidate.ID)

		// Re-read under the lock; a racing move may have ended it already
		session, err := c.storage.GetSession(ctx, candidate.ID)
		if err != nil {
			unlock()
			continue
		}
		if _, ok := session.ParticipantByIdentity(identity); !ok {
			unlock()
			continue
		}

		if err := c.storage.DeleteSession(ctx, session.ID); err != nil {
			unlock()
			return ended, err
		}
		session.Status = model.StatusEnded
		c.dropLock(session.ID)
		unlock()

		c.logger.Info("session ended by disconnect",
			slog.String("session_id", string(session.ID)),
			slog.String("identity", string(identity)))
		ended = append(ended, Termination{
			Session: session,
			Outcome: model.Outcome{Reason: model.EndReasonOpponentDisconnected},
		})
	}
	return ended, nil
}
