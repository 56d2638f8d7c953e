package registry

import (
	"sync"
	"time"

	"github.com/crewsync/crewsync/pkg/types"
)

// Clock supplies the registry's notion of now. The engine's clock
// satisfies it, so registry and engine share one time source.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Registry tracks connected downstream consumers and their liveness
// metadata
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*types.ClientConnection
	clock   Clock
}

// NewRegistry creates an empty connection registry. A nil clock
// defaults to wall time.
func NewRegistry(clock Clock) *Registry {
	if clock == nil {
		clock = systemClock{}
	}
	return &Registry{
		clients: make(map[string]*types.ClientConnection),
		clock:   clock,
	}
}

// Register creates a connection entry for a consumer. Re-registering
// an existing ID replaces the previous entry.
func (r *Registry) Register(id string, clientType types.ClientType, scope, principal string) types.ClientConnection {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	conn := &types.ClientConnection{
		ID:           id,
		Type:         clientType,
		Scope:        scope,
		Principal:    principal,
		ConnectedAt:  now,
		LastActivity: now,
		SyncVersion:  1,
	}
	r.clients[id] = conn
	return *conn
}

// Touch refreshes a connection's last-activity timestamp. Returns
// false if the connection is unknown.
func (r *Registry) Touch(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.clients[id]
	if !ok {
		return false
	}
	conn.LastActivity = r.clock.Now()
	return true
}

// BumpSyncVersion increments a connection's sync version counter,
// recording that it observed one more broadcast
func (r *Registry) BumpSyncVersion(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conn, ok := r.clients[id]; ok {
		conn.SyncVersion++
	}
}

// Unregister removes a connection. Returns false if it was unknown.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[id]; !ok {
		return false
	}
	delete(r.clients, id)
	return true
}

// Get returns a snapshot of one connection
func (r *Registry) Get(id string) (types.ClientConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.clients[id]
	if !ok {
		return types.ClientConnection{}, false
	}
	return *conn, true
}

// List returns a snapshot of all connections
func (r *Registry) List() []types.ClientConnection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.ClientConnection, 0, len(r.clients))
	for _, conn := range r.clients {
		out = append(out, *conn)
	}
	return out
}

// Count returns the number of connected consumers
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// PurgeStale removes every connection idle longer than maxIdle and
// returns the removed IDs
func (r *Registry) PurgeStale(maxIdle time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	var purged []string
	for id, conn := range r.clients {
		if now.Sub(conn.LastActivity) > maxIdle {
			delete(r.clients, id)
			purged = append(purged, id)
		}
	}
	return purged
}
