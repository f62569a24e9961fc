package memory

import (
	"context"
	"sync"

	"github.com/mcoot/chessbroker/internal/model"
	"github.com/mcoot/chessbroker/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Sessions are copied on the way in and out so that callers holding a
// returned *Session never alias the stored one; a session read outside
// its per-session lock must be a snapshot, not a live pointer.
type Storage struct {
	mu sync.RWMutex

	sessions map[model.SessionID]*model.Session
	accounts map[model.Identity]*model.Account
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		sessions: make(map[model.SessionID]*model.Session),
		accounts: make(map[model.Identity]*model.Account),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Session operations

func (s *Storage) CreateSession(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; ok {
		return model.ErrSessionExists
	}
	s.sessions[session.ID] = session.Clone()
	return nil
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return session.Clone(), nil
}

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session.Clone()
	return nil
}

func (s *Storage) DeleteSession(ctx context.Context, id model.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *Storage) ListSessions(ctx context.Context) ([]*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sessions := make([]*model.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session.Clone())
	}
	return sessions, nil
}

// Account operations

func (s *Storage) SaveAccount(ctx context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *account
	s.accounts[account.Email] = &stored
	return nil
}

func (s *Storage) GetAccount(ctx context.Context, email model.Identity) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[email]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	returned := *account
	return &returned, nil
}
