package broadcast

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/sportzlive/internal/adapter/metrics"
	"github.com/pscheid92/sportzlive/internal/domain"
)

const (
	commandTimeout    = 5 * time.Second
	stopTimeout       = 10 * time.Second
	commandBufferSize = 256
	shutdownReason    = "Server shutting down"
)

var (
	ErrUnknownConnection   = errors.New("connection not registered")
	ErrDuplicateConnection = errors.New("connection already registered")
)

// hubCmd is the command interface for the Hub actor.
type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type registerCmd struct {
	baseHubCmd
	peer         Peer
	errorChannel chan error
}

type deregisterCmd struct {
	baseHubCmd
	id uuid.UUID
}

type markAliveCmd struct {
	baseHubCmd
	id uuid.UUID
}

type subscribeCmd struct {
	baseHubCmd
	id           uuid.UUID
	matchID      domain.MatchID
	unsubscribe  bool
	ack          []byte
	replyChannel chan subscriptionReply
}

type subscriptionReply struct {
	acked bool
	err   error
}

type broadcastCmd struct {
	baseHubCmd
	all          bool
	matchID      domain.MatchID
	data         []byte
	replyChannel chan int
}

type subscribersCmd struct {
	baseHubCmd
	matchID      domain.MatchID
	replyChannel chan []uuid.UUID
}

type countCmd struct {
	baseHubCmd
	replyChannel chan int
}

type stopCmd struct {
	baseHubCmd
}

// Hub owns the connection registry and the subscription index. All exported
// methods are safe for concurrent use.
type Hub struct {
	cmdCh        chan hubCmd
	clock        clockwork.Clock
	registry     *registry
	index        *subscriptionIndex
	metrics      *metrics.WebSocketMetrics
	pingInterval time.Duration
	done         chan struct{}
	stopOnce     sync.Once
	stopTimeout  time.Duration
}

// NewHub starts the hub goroutine. pingInterval is the liveness sweep period;
// a silent connection is evicted on the second sweep after its last pong.
func NewHub(clock clockwork.Clock, pingInterval time.Duration, m *metrics.WebSocketMetrics) *Hub {
	index := newSubscriptionIndex()
	h := &Hub{
		cmdCh:        make(chan hubCmd, commandBufferSize),
		clock:        clock,
		registry:     newRegistry(index),
		index:        index,
		metrics:      m,
		pingInterval: pingInterval,
		done:         make(chan struct{}),
		stopTimeout:  stopTimeout,
	}
	go h.run()
	return h
}

// Register adds a connection. The peer starts alive with no subscriptions.
func (h *Hub) Register(peer Peer) error {
	errCh := make(chan error, 1)
	if !h.send(registerCmd{peer: peer, errorChannel: errCh}) {
		return domain.ErrHubStopped
	}
	err, waitErr := awaitReply(h, errCh)
	if waitErr != nil {
		return fmt.Errorf("register: %w", waitErr)
	}
	return err
}

// Deregister removes a connection and all of its subscriptions. Unknown or
// already removed connections are ignored.
func (h *Hub) Deregister(id uuid.UUID) {
	h.send(deregisterCmd{id: id})
}

// MarkAlive records a liveness response for the connection.
func (h *Hub) MarkAlive(id uuid.UUID) {
	h.send(markAliveCmd{id: id})
}

// Subscribe adds matchID to the connection's subscriptions. Subscribing twice is a no-op.
func (h *Hub) Subscribe(id uuid.UUID, matchID domain.MatchID) error {
	_, err := h.subscription(subscribeCmd{id: id, matchID: matchID})
	return err
}

// Unsubscribe removes matchID from the connection's subscriptions. Unsubscribing
// a match the connection does not follow is a no-op.
func (h *Hub) Unsubscribe(id uuid.UUID, matchID domain.MatchID) error {
	_, err := h.subscription(subscribeCmd{id: id, matchID: matchID, unsubscribe: true})
	return err
}

// SubscribeWithAck is Subscribe followed by enqueuing ack on the connection.
// Both happen on the hub goroutine, so no broadcast for matchID can reach the
// connection ahead of its ack. It reports whether the ack was accepted.
func (h *Hub) SubscribeWithAck(id uuid.UUID, matchID domain.MatchID, ack []byte) (bool, error) {
	return h.subscription(subscribeCmd{id: id, matchID: matchID, ack: ack})
}

// UnsubscribeWithAck is Unsubscribe followed by enqueuing ack on the connection.
func (h *Hub) UnsubscribeWithAck(id uuid.UUID, matchID domain.MatchID, ack []byte) (bool, error) {
	return h.subscription(subscribeCmd{id: id, matchID: matchID, unsubscribe: true, ack: ack})
}

func (h *Hub) subscription(cmd subscribeCmd) (bool, error) {
	replyCh := make(chan subscriptionReply, 1)
	cmd.replyChannel = replyCh
	if !h.send(cmd) {
		return false, domain.ErrHubStopped
	}
	reply, err := awaitReply(h, replyCh)
	if err != nil {
		return false, fmt.Errorf("subscription change: %w", err)
	}
	return reply.acked, reply.err
}

// BroadcastAll enqueues data on every registered connection and returns how
// many accepted it.
func (h *Hub) BroadcastAll(data []byte) (int, error) {
	return h.broadcast(broadcastCmd{all: true, data: data})
}

// BroadcastMatch enqueues data on the connections subscribed to matchID and
// returns how many accepted it. Ids below 1 never have subscribers.
func (h *Hub) BroadcastMatch(matchID domain.MatchID, data []byte) (int, error) {
	return h.broadcast(broadcastCmd{matchID: matchID, data: data})
}

func (h *Hub) broadcast(cmd broadcastCmd) (int, error) {
	replyCh := make(chan int, 1)
	cmd.replyChannel = replyCh
	if !h.send(cmd) {
		return 0, domain.ErrHubStopped
	}
	n, err := awaitReply(h, replyCh)
	if err != nil {
		return 0, fmt.Errorf("broadcast: %w", err)
	}
	return n, nil
}

// SubscribersOf returns a snapshot of the connection IDs subscribed to matchID.
func (h *Hub) SubscribersOf(matchID domain.MatchID) []uuid.UUID {
	replyCh := make(chan []uuid.UUID, 1)
	if !h.send(subscribersCmd{matchID: matchID, replyChannel: replyCh}) {
		return nil
	}
	ids, err := awaitReply(h, replyCh)
	if err != nil {
		slog.Warn("SubscribersOf failed", "match_id", matchID.String(), "error", err)
		return nil
	}
	return ids
}

// ConnectionCount returns the number of registered connections, or -1 if the
// hub did not answer.
func (h *Hub) ConnectionCount() int {
	replyCh := make(chan int, 1)
	if !h.send(countCmd{replyChannel: replyCh}) {
		return -1
	}
	n, err := awaitReply(h, replyCh)
	if err != nil {
		slog.Warn("ConnectionCount failed", "error", err)
		return -1
	}
	return n
}

// Stop closes every connection, cancels the liveness timer and waits for the
// hub goroutine to exit. Later commands are dropped without blocking.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		if !h.send(stopCmd{}) {
			return
		}

		timeout := h.clock.NewTimer(h.stopTimeout)
		defer timeout.Stop()

		select {
		case <-h.done:
			slog.Info("Hub stopped gracefully")
		case <-timeout.Chan():
			slog.Warn("Hub stop timeout exceeded", "timeout", h.stopTimeout)
		}
	})
}

// send hands cmd to the hub goroutine unless it has already exited.
func (h *Hub) send(cmd hubCmd) bool {
	select {
	case <-h.done:
		return false
	default:
	}

	select {
	case h.cmdCh <- cmd:
		return true
	case <-h.done:
		return false
	}
}

// awaitReply waits for the hub to answer a command.
func awaitReply[T any](h *Hub, ch chan T) (T, error) {
	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	var zero T
	select {
	case v := <-ch:
		return v, nil
	case <-h.done:
		return zero, domain.ErrHubStopped
	case <-timer.Chan():
		return zero, fmt.Errorf("command timed out after %v", commandTimeout)
	}
}

func (h *Hub) run() {
	defer close(h.done)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Hub panic recovered", "panic", r)
			h.closeAll("internal error")
		}
	}()

	ticker := h.clock.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case cmd := <-h.cmdCh:
			switch c := cmd.(type) {
			case registerCmd:
				h.handleRegister(c)
			case deregisterCmd:
				h.handleDeregister(c.id)
			case markAliveCmd:
				h.registry.markAlive(c.id)
			case subscribeCmd:
				h.handleSubscription(c)
			case broadcastCmd:
				c.replyChannel <- h.handleBroadcast(c)
			case subscribersCmd:
				c.replyChannel <- h.handleSubscribers(c.matchID)
			case countCmd:
				c.replyChannel <- h.registry.len()
			case stopCmd:
				h.handleStop()
				return
			default:
				slog.Warn("Hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
			}
		case <-ticker.Chan():
			h.handleSweep()
		}
	}
}

func (h *Hub) handleRegister(c registerCmd) {
	if !h.registry.register(c.peer) {
		c.errorChannel <- ErrDuplicateConnection
		return
	}
	h.updateGauges()
	slog.Debug("Connection registered", "connection_id", c.peer.ID().String(), "total_connections", h.registry.len())
	c.errorChannel <- nil
}

func (h *Hub) handleDeregister(id uuid.UUID) {
	if !h.registry.deregister(id) {
		return
	}
	h.updateGauges()
	slog.Debug("Connection deregistered", "connection_id", id.String(), "remaining_connections", h.registry.len())
}

func (h *Hub) handleSubscription(c subscribeCmd) {
	conn, ok := h.registry.get(c.id)
	if !ok {
		c.replyChannel <- subscriptionReply{err: ErrUnknownConnection}
		return
	}
	if c.unsubscribe {
		h.index.unsubscribe(c.matchID, conn)
	} else {
		h.index.subscribe(c.matchID, conn)
	}
	h.metrics.Subscriptions.Set(float64(h.index.pairs))

	acked := false
	if c.ack != nil {
		acked = conn.peer.Send(c.ack)
	}
	c.replyChannel <- subscriptionReply{acked: acked}
}

func (h *Hub) handleBroadcast(c broadcastCmd) int {
	delivered := 0
	deliver := func(conn *connection) {
		if conn.peer.Send(c.data) {
			delivered++
		} else {
			h.metrics.MessagesDropped.Inc()
		}
	}

	switch {
	case c.all:
		h.registry.forEach(deliver)
	case c.matchID > 0:
		for _, conn := range h.index.subscribersOf(c.matchID) {
			deliver(conn)
		}
	}
	return delivered
}

func (h *Hub) handleSubscribers(matchID domain.MatchID) []uuid.UUID {
	subscribers := h.index.subscribersOf(matchID)
	ids := make([]uuid.UUID, 0, len(subscribers))
	for id := range subscribers {
		ids = append(ids, id)
	}
	return ids
}

func (h *Hub) handleSweep() {
	evicted := 0
	sweep(h.registry, func(c *connection) {
		evicted++
		h.metrics.LivenessEvictions.Inc()
		slog.Info("Connection failed liveness probe", "connection_id", c.id().String())
	})
	if evicted > 0 {
		h.updateGauges()
	}
}

func (h *Hub) handleStop() {
	total := h.registry.len()
	slog.Info("Hub shutting down", "total_connections", total)
	h.closeAll(shutdownReason)
	slog.Info("Hub shutdown complete", "disconnected_connections", total)
}

// closeAll closes and deregisters every connection.
// Used during panic recovery and graceful shutdown.
func (h *Hub) closeAll(reason string) {
	h.registry.forEach(func(c *connection) {
		c.peer.Close(websocket.CloseGoingAway, reason)
		h.registry.deregister(c.id())
	})
	h.updateGauges()
}

func (h *Hub) updateGauges() {
	h.metrics.ActiveConnections.Set(float64(h.registry.len()))
	h.metrics.Subscriptions.Set(float64(h.index.pairs))
}
