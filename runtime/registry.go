// Package runtime owns the process-local delivery machinery: the live
// connection registry, the fan-out dispatcher, and the notification
// throttle. It carries no business rules.
package runtime

import (
	"log/slog"
	"sync"

	"chat-desk/contract"
)

// Registry maps a user identity to its single current live connection.
// A later Register for the same identity silently supersedes the earlier
// sink (last write wins): the registry tracks the delivery target, it does
// not enforce single-device login.
//
// All mutation goes through Register/Unregister so the supersession
// invariant lives in exactly one place. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	log      *slog.Logger
	sessions map[string]contract.EventSink
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		log:      log,
		sessions: make(map[string]contract.EventSink),
	}
}

// Register inserts or replaces the mapping for userID. Never fails.
func (r *Registry) Register(userID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[userID]; exists {
		r.log.Debug("live connection superseded", "user", userID)
	}
	r.sessions[userID] = sink
}

// Unregister removes the mapping only if sink is still the one on record.
// A stale disconnect (the user already reconnected) must not evict the
// newer connection, so the guard compares handles, not just the user id.
func (r *Registry) Unregister(userID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.sessions[userID]
	if !ok {
		return
	}
	if current != sink {
		r.log.Warn("stale unregister ignored, connection already superseded", "user", userID)
		return
	}
	delete(r.sessions, userID)
}

// Lookup returns the live sink for userID. A miss is the normal "user
// offline" state, never an error.
func (r *Registry) Lookup(userID string) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sink, ok := r.sessions[userID]
	return sink, ok
}

// Online reports how many identities currently hold a live connection.
func (r *Registry) Online() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
