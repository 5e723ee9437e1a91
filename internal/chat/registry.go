package chat

import (
	"sort"
	"sync"

	"github.com/samber/lo"
)

// Registry is the set of clients that completed the handshake and have not
// left yet. Every method takes the same lock, so a Snapshot never observes a
// half-applied Insert or Remove.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*Client)}
}

// Insert adds c and reports whether it was absent.
func (r *Registry) Insert(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clients[c.ID]; exists {
		return false
	}
	r.clients[c.ID] = c
	ConnectedClients.Set(float64(len(r.clients)))
	return true
}

// Remove deletes c and reports whether it was present. Removing an absent
// client is a no-op.
func (r *Registry) Remove(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clients[c.ID]; !exists {
		return false
	}
	delete(r.clients, c.ID)
	ConnectedClients.Set(float64(len(r.clients)))
	return true
}

// Snapshot returns a point-in-time copy of the membership, ordered by
// connection time.
func (r *Registry) Snapshot() []*Client {
	r.mu.RLock()
	list := lo.Values(r.clients)
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].ConnectedAt.Before(list[j].ConnectedAt)
	})
	return list
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Names returns the sorted display names of every registered client.
func (r *Registry) Names() []string {
	names := lo.Map(r.Snapshot(), func(c *Client, _ int) string { return c.Name })
	sort.Strings(names)
	return names
}
