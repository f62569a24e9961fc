package directory

import (
	"log/slog"
	"sync"

	"github.com/mcoot/chessbroker/internal/model"
)

// Handle is a live connection that messages can be pushed to. The
// transport layer owns the connection; the directory holds only a
// reference for the duration of its life.
type Handle interface {
	// HandleID distinguishes sequential connections from the same identity
	HandleID() string
	// Send queues a message for delivery, fire-and-forget
	Send(message []byte)
}

// Directory maps each identity to its current connection handle.
// It is process-local and lives exactly as long as the broker.
type Directory struct {
	mu      sync.RWMutex
	handles map[model.Identity]Handle
	logger  *slog.Logger
}

// New creates an empty Directory
func New(logger *slog.Logger) *Directory {
	return &Directory{
		handles: make(map[model.Identity]Handle),
		logger:  logger.With(slog.String("component", "directory")),
	}
}

// Register associates an identity with its current handle. Any prior
// handle for the identity is overwritten (last-write-wins, so a
// reconnect simply displaces the old connection).
func (d *Directory) Register(identity model.Identity, handle Handle) {
	d.mu.Lock()
	d.handles[identity] = handle
	count := len(d.handles)
	d.mu.Unlock()

	d.logger.Info("identity registered",
		slog.String("identity", string(identity)),
		slog.String("handle_id", handle.HandleID()),
		slog.Int("connected", count))
}

// Resolve returns the current handle for an identity, if any
func (d *Directory) Resolve(identity model.Identity) (Handle, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	handle, ok := d.handles[identity]
	return handle, ok
}

// Unregister removes the mapping only if the registered handle is the
// one disconnecting, so a stale disconnect cannot evict a newer
// reconnect. Returns true if the mapping was removed.
func (d *Directory) Unregister(identity model.Identity, handle Handle) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	current, ok := d.handles[identity]
	if !ok || current.HandleID() != handle.HandleID() {
		return false
	}
	delete(d.handles, identity)
	return true
}
