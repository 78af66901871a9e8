package broadcast

import "github.com/gorilla/websocket"

const livenessCloseReason = "liveness probe failed"

// sweep runs one liveness round. Connections that did not answer the previous
// probe are closed and deregistered; every other connection is marked pending
// and probed again. evicted is called once per removed connection.
func sweep(r *registry, evicted func(c *connection)) {
	r.forEach(func(c *connection) {
		if !c.alive {
			c.peer.Close(websocket.CloseGoingAway, livenessCloseReason)
			r.deregister(c.id())
			if evicted != nil {
				evicted(c)
			}
			return
		}
		c.alive = false
		c.peer.Probe()
	})
}
