package broadcast

import (
	"github.com/google/uuid"
	"github.com/pscheid92/sportzlive/internal/domain"
)

// connection is the registry's record for one peer.
type connection struct {
	peer          Peer
	alive         bool
	subscriptions map[domain.MatchID]struct{}
}

func (c *connection) id() uuid.UUID { return c.peer.ID() }

// registry is the canonical set of open connections. Not safe for concurrent
// use; only the hub goroutine touches it.
type registry struct {
	connections map[uuid.UUID]*connection
	index       *subscriptionIndex
}

func newRegistry(index *subscriptionIndex) *registry {
	return &registry{
		connections: make(map[uuid.UUID]*connection),
		index:       index,
	}
}

// register adds peer as alive with no subscriptions. It returns false if a
// connection with the same ID is already registered.
func (r *registry) register(peer Peer) bool {
	if _, exists := r.connections[peer.ID()]; exists {
		return false
	}
	r.connections[peer.ID()] = &connection{
		peer:          peer,
		alive:         true,
		subscriptions: make(map[domain.MatchID]struct{}),
	}
	return true
}

// deregister removes the connection and all of its index entries. Unknown IDs are ignored.
func (r *registry) deregister(id uuid.UUID) bool {
	c, ok := r.connections[id]
	if !ok {
		return false
	}
	r.index.cleanup(c)
	delete(r.connections, id)
	return true
}

func (r *registry) markAlive(id uuid.UUID) {
	if c, ok := r.connections[id]; ok {
		c.alive = true
	}
}

func (r *registry) get(id uuid.UUID) (*connection, bool) {
	c, ok := r.connections[id]
	return c, ok
}

// forEach calls fn for every registered connection. fn may deregister the
// connection it is given.
func (r *registry) forEach(fn func(c *connection)) {
	for _, c := range r.connections {
		fn(c)
	}
}

func (r *registry) len() int { return len(r.connections) }
