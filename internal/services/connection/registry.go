// Package connection tracks the live realtime transport behind each logical identity.
package connection

import (
	"log/slog"
	"sync"

	"github.com/mcoot/chessrooms/internal/model"
)

// Conn is a live transport handle that can deliver events
type Conn interface {
	Send(event model.EventType, payload any) error
}

// Registry maps logical identities to transport handles
type Registry struct {
	mu     sync.RWMutex
	conns  map[model.ConnectionID]Conn
	logger *slog.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		conns:  make(map[model.ConnectionID]Conn),
		logger: logger.With(slog.String("component", "connection-registry")),
	}
}

// Register stores conn under id, or under hint when hint is already registered.
// In the latter case the old handle is replaced and the logical identity
// survives the reconnect. The identity actually used is returned.
func (r *Registry) Register(id, hint model.ConnectionID, conn Conn) model.ConnectionID {
	return r.RegisterWith(id, hint, func(model.ConnectionID) Conn { return conn })
}

// RegisterWith is Register for handles that need their final identity:
// build runs under the registry lock with the identity the handle is stored
// under, so no other goroutine can reach the handle before it knows it.
func (r *Registry) RegisterWith(id, hint model.ConnectionID, build func(model.ConnectionID) Conn) model.ConnectionID {
	r.mu.Lock()
	defer r.mu.Unlock()

	if hint != "" {
		if _, ok := r.conns[hint]; ok {
			r.conns[hint] = build(hint)
			r.logger.Info("connection resumed", slog.String("identity", string(hint)))
			return hint
		}
	}

	r.conns[id] = build(id)
	return id
}

// Unregister removes id only while it still points at conn, so the late
// disconnect of a replaced transport leaves the resumed one in place.
func (r *Registry) Unregister(id model.ConnectionID, conn Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.conns[id]; ok && current == conn {
		delete(r.conns, id)
		return true
	}
	return false
}

// Get returns the handle registered under id
func (r *Registry) Get(id model.ConnectionID) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[id]
	return conn, ok
}

// Send delivers an event to id
func (r *Registry) Send(id model.ConnectionID, event model.EventType, payload any) error {
	conn, ok := r.Get(id)
	if !ok {
		return model.ErrConnectionNotFound
	}
	return conn.Send(event, payload)
}

// Count returns the number of registered identities
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
