package redis

import (
	"fmt"

	"github.com/mcoot/chessbroker/internal/model"
)

// Key prefix for all broker data
const keyPrefix = "chessbroker"

// sessionKey returns the Redis key for a Session
func sessionKey(id model.SessionID) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, id)
}

// sessionIndexKey returns the Redis key for the SET of active session ids,
// used by the disconnect sweep
func sessionIndexKey() string {
	return fmt.Sprintf("%s:idx:sessions", keyPrefix)
}

// accountKey returns the Redis key for an Account
func accountKey(email model.Identity) string {
	return fmt.Sprintf("%s:account:%s", keyPrefix, email)
}
