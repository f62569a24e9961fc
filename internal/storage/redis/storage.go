package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/chessbroker/internal/model"
	"github.com/mcoot/chessbroker/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Session operations

func (s *Storage) CreateSession(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	// SetNX gives the create-if-absent guarantee for id collisions
	set, err := s.client.SetNX(ctx, sessionKey(session.ID), data, s.cfg.SessionTTL).Result()
	if err != nil {
		return err
	}
	if !set {
		return model.ErrSessionExists
	}

	return s.client.SAdd(ctx, sessionIndexKey(), string(session.ID)).Err()
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(session.ID), data, s.cfg.SessionTTL).Err()
}

func (s *Storage) DeleteSession(ctx context.Context, id model.SessionID) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, sessionKey(id))
	pipe.SRem(ctx, sessionIndexKey(), string(id))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) ListSessions(ctx context.Context) ([]*model.Session, error) {
	ids, err := s.client.SMembers(ctx, sessionIndexKey()).Result()
	if err != nil {
		return nil, err
	}

	var sessions []*model.Session
	for _, id := range ids {
		session, err := s.GetSession(ctx, model.SessionID(id))
		if errors.Is(err, model.ErrSessionNotFound) {
			// Expired value with a stale index entry; drop it
			_ = s.client.SRem(ctx, sessionIndexKey(), id).Err()
			continue
		}
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// Account operations

func (s *Storage) SaveAccount(ctx context.Context, account *model.Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return err
	}
	// Accounts never expire
	return s.client.Set(ctx, accountKey(account.Email), data, 0).Err()
}

func (s *Storage) GetAccount(ctx context.Context, email model.Identity) (*model.Account, error) {
	data, err := s.client.Get(ctx, accountKey(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAccountNotFound
		}
		return nil, err
	}

	var account model.Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, err
	}
	return &account, nil
}
