package storage

import (
	"context"

	"github.com/mcoot/chessbroker/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Session operations. CreateSession fails with model.ErrSessionExists
	// if the id is already taken; ListSessions is used only for the
	// disconnect sweep.
	CreateSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, id model.SessionID) (*model.Session, error)
	SaveSession(ctx context.Context, session *model.Session) error
	DeleteSession(ctx context.Context, id model.SessionID) error
	ListSessions(ctx context.Context) ([]*model.Session, error)

	// Account operations
	SaveAccount(ctx context.Context, account *model.Account) error
	GetAccount(ctx context.Context, email model.Identity) (*model.Account, error)
}
