package model

import "time"

// Identity is a participant's stable identifier (their account email).
// It outlives any single connection.
type Identity string

// SessionID uniquely identifies a live game session
type SessionID string

// Color is a side in the game, "w" or "b"
type Color string

const (
	ColorWhite Color = "w"
	ColorBlack Color = "b"
)

// Opponent returns the other color
func (c Color) Opponent() Color {
	if c == ColorWhite {
		return ColorBlack
	}
	return ColorWhite
}

// SessionStatus represents the current phase of a session
type SessionStatus string

const (
	StatusWaiting SessionStatus = "waiting" // One participant, waiting for the opponent to join
	StatusActive  SessionStatus = "active"  // Two participants, game in progress
	StatusEnded   SessionStatus = "ended"   // Terminal, by outcome or disconnect
)

// Participant is one side of a session. Color is fixed at join time
// and never changes for the life of the session.
type Participant struct {
	Identity Identity `json:"email"`
	Color    Color    `json:"color"`
}

// Session is one paired game's live state
type Session struct {
	ID           SessionID
	Participants []Participant
	FEN          string // current position; turn owner is derived from it
	Status       SessionStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Clone returns a deep copy sharing no state with the receiver
func (s *Session) Clone() *Session {
	clone := *s
	clone.Participants = make([]Participant, len(s.Participants))
	copy(clone.Participants, s.Participants)
	return &clone
}

// IsFull returns true if both seats are taken
func (s *Session) IsFull() bool {
	return len(s.Participants) >= 2
}

// ParticipantByIdentity returns the participant with the given identity
func (s *Session) ParticipantByIdentity(id Identity) (Participant, bool) {
	for _, p := range s.Participants {
		if p.Identity == id {
			return p, true
		}
	}
	return Participant{}, false
}

// OpponentOf returns the other participant in the session
func (s *Session) OpponentOf(id Identity) (Participant, bool) {
	for _, p := range s.Participants {
		if p.Identity != id {
			return p, true
		}
	}
	return Participant{}, false
}

// Validate checks the session's structural invariants
func (s *Session) Validate() error {
	if len(s.Participants) > 2 {
		return ErrTooManyParticipants
	}
	switch s.Status {
	case StatusWaiting:
		if len(s.Participants) != 1 {
			return ErrInvalidSessionState
		}
	case StatusActive:
		if len(s.Participants) != 2 {
			return ErrInvalidSessionState
		}
	}
	if len(s.Participants) == 2 && s.Participants[0].Color == s.Participants[1].Color {
		return ErrInvalidSessionState
	}
	return nil
}
