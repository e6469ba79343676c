package notify

import (
	"sync"
)

// Registry tracks which users currently hold an open notification
// channel. At most one client is tracked per user: a newer connection
// replaces the previous entry (last-connection-wins). The registry only
// does bookkeeping; it never closes a superseded connection.
type Registry struct {
	mu      sync.RWMutex
	clients map[int]*Client
}

func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[int]*Client),
	}
}

// Register stores c as the active channel for userId, replacing any
// previous entry.
func (r *Registry) Register(userId int, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[userId] = c
}

// Deregister removes the entry for userId if it still points at c.
// A connection that was superseded by a newer one finds a different
// client registered and leaves it untouched; deregistering an unknown
// user is a no-op.
func (r *Registry) Deregister(userId int, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.clients[userId]; ok && cur == c {
		delete(r.clients, userId)
	}
}

// Lookup returns the active client for userId, if any.
func (r *Registry) Lookup(userId int) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[userId]
	return c, ok
}

// Count returns the number of currently tracked users.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// CloseAll stops every tracked client. Used on server shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for userId, c := range r.clients {
		c.stopClient()
		delete(r.clients, userId)
	}
}
