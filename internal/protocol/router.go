package protocol

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/pscheid92/sportzlive/internal/adapter/metrics"
	"github.com/pscheid92/sportzlive/internal/domain"
)

// Subscriptions is the part of the hub the router mutates. The ack is enqueued
// on the connection together with the change and the result reports whether
// the connection accepted it.
type Subscriptions interface {
	SubscribeWithAck(id uuid.UUID, matchID domain.MatchID, ack []byte) (bool, error)
	UnsubscribeWithAck(id uuid.UUID, matchID domain.MatchID, ack []byte) (bool, error)
}

// Conn is the connection a frame arrived on.
type Conn interface {
	ID() uuid.UUID
	Send(data []byte) bool
}

// Router interprets inbound control frames. Frames of one connection must be
// handed to Handle sequentially; different connections may call it concurrently.
type Router struct {
	subscriptions Subscriptions
	metrics       *metrics.WebSocketMetrics
}

func NewRouter(subscriptions Subscriptions, m *metrics.WebSocketMetrics) *Router {
	return &Router{subscriptions: subscriptions, metrics: m}
}

// Handle processes one frame. Malformed frames are answered with an error
// message to the same connection; unknown types and frames without a usable
// matchId are dropped without a reply.
func (r *Router) Handle(conn Conn, frame []byte) {
	msg, err := Decode(frame)
	if err != nil {
		r.metrics.InvalidFrames.Inc()
		slog.Debug("Invalid frame", "connection_id", conn.ID().String(), "error", err)
		r.reply(conn, Error(ErrInvalidFormat))
		return
	}

	if msg.MatchID == 0 {
		return
	}

	switch msg.Type {
	case TypeSubscribe:
		r.changeSubscription(conn, msg.MatchID, Subscribed(msg.MatchID), r.subscriptions.SubscribeWithAck)
	case TypeUnsubscribe:
		r.changeSubscription(conn, msg.MatchID, Unsubscribed(msg.MatchID), r.subscriptions.UnsubscribeWithAck)
	}
}

func (r *Router) changeSubscription(conn Conn, matchID domain.MatchID, ack Outbound, change func(uuid.UUID, domain.MatchID, []byte) (bool, error)) {
	data, err := Encode(ack)
	if err != nil {
		slog.Error("Failed to encode reply", "error", err)
		return
	}
	accepted, err := change(conn.ID(), matchID, data)
	if err != nil {
		slog.Debug("Subscription change failed", "connection_id", conn.ID().String(), "match_id", matchID, "type", string(ack.Type), "error", err)
		return
	}
	r.count(ack, accepted)
}

func (r *Router) reply(conn Conn, m Outbound) {
	data, err := Encode(m)
	if err != nil {
		slog.Error("Failed to encode reply", "error", err)
		return
	}
	r.count(m, conn.Send(data))
}

func (r *Router) count(m Outbound, accepted bool) {
	if accepted {
		r.metrics.MessagesSent.WithLabelValues(string(m.Type)).Inc()
	} else {
		r.metrics.MessagesDropped.Inc()
	}
}
