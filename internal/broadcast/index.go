package broadcast

import (
	"github.com/google/uuid"
	"github.com/pscheid92/sportzlive/internal/domain"
)

// subscriptionIndex maps a match to the connections subscribed to it. It
// holds references into the registry but never owns them: cleanup must run
// before a connection leaves the registry.
type subscriptionIndex struct {
	matches map[domain.MatchID]map[uuid.UUID]*connection
	pairs   int
}

func newSubscriptionIndex() *subscriptionIndex {
	return &subscriptionIndex{matches: make(map[domain.MatchID]map[uuid.UUID]*connection)}
}

// subscribe records c as a subscriber of matchID on both sides. Repeated calls are no-ops.
func (x *subscriptionIndex) subscribe(matchID domain.MatchID, c *connection) {
	if _, ok := c.subscriptions[matchID]; ok {
		return
	}

	subscribers, ok := x.matches[matchID]
	if !ok {
		subscribers = make(map[uuid.UUID]*connection)
		x.matches[matchID] = subscribers
	}
	subscribers[c.id()] = c
	c.subscriptions[matchID] = struct{}{}
	x.pairs++
}

func (x *subscriptionIndex) unsubscribe(matchID domain.MatchID, c *connection) {
	if _, ok := c.subscriptions[matchID]; !ok {
		return
	}
	delete(c.subscriptions, matchID)
	x.remove(matchID, c.id())
}

// cleanup removes c from every match it is subscribed to.
func (x *subscriptionIndex) cleanup(c *connection) {
	for matchID := range c.subscriptions {
		x.remove(matchID, c.id())
	}
	clear(c.subscriptions)
}

// remove drops one membership and prunes the match once it has no subscribers.
func (x *subscriptionIndex) remove(matchID domain.MatchID, id uuid.UUID) {
	subscribers, ok := x.matches[matchID]
	if !ok {
		return
	}
	if _, ok := subscribers[id]; !ok {
		return
	}
	delete(subscribers, id)
	x.pairs--
	if len(subscribers) == 0 {
		delete(x.matches, matchID)
	}
}

// subscribersOf returns the live subscriber set of matchID. Callers must not modify it.
func (x *subscriptionIndex) subscribersOf(matchID domain.MatchID) map[uuid.UUID]*connection {
	return x.matches[matchID]
}
