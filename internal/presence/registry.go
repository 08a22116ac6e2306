package presence

import "sync"

// Registry tracks which users are reachable on which live websocket
// connections. One user may hold several connections at once. The
// registry is pure process-local runtime state: it starts empty and is
// invalidated entirely across a restart, so clients must re-announce
// presence after reconnecting.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]map[string]struct{})}
}

// Connect associates a connection with a user, creating the user's
// entry if absent. Calling twice with the same pair is a no-op.
func (r *Registry) Connect(userID, connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.conns[userID]
	if !ok {
		set = make(map[string]struct{})
		r.conns[userID] = set
	}
	set[connectionID] = struct{}{}
}

// Disconnect removes the connection from whichever user holds it and
// deletes the user's entry once its last connection is gone. A
// connection belongs to at most one user, so at most one entry changes.
// It returns the owning user ID when one was found.
func (r *Registry) Disconnect(connectionID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, set := range r.conns {
		if _, ok := set[connectionID]; !ok {
			continue
		}
		delete(set, connectionID)
		if len(set) == 0 {
			delete(r.conns, userID)
		}
		return userID, true
	}
	return "", false
}

// ConnectionsFor returns the live connection IDs for a user. A user
// with no live connections yields an empty slice, never an error.
func (r *Registry) ConnectionsFor(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.conns[userID]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

// AllConnections returns every live connection ID across all users.
func (r *Registry) AllConnections() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for _, set := range r.conns {
		for id := range set {
			ids = append(ids, id)
		}
	}
	return ids
}

// Online reports whether the user has at least one live connection.
func (r *Registry) Online(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[userID]
	return ok
}
