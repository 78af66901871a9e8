package websocket

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/sportzlive/internal/adapter/metrics"
	"github.com/pscheid92/sportzlive/internal/broadcast"
	"github.com/pscheid92/sportzlive/internal/protocol"
)

// Hub is the connection lifecycle surface the handler drives.
type Hub interface {
	Register(peer broadcast.Peer) error
	Deregister(id uuid.UUID)
	MarkAlive(id uuid.UUID)
}

// FrameHandler consumes inbound frames of one connection in arrival order.
type FrameHandler interface {
	Handle(conn protocol.Conn, frame []byte)
}

// Handler upgrades requests to WebSocket connections and runs their read loop.
type Handler struct {
	hub           Hub
	frames        FrameHandler
	upgrader      websocket.Upgrader
	maxFrameBytes int64
	clock         clockwork.Clock
	welcome       []byte
	metrics       *metrics.WebSocketMetrics
}

func NewHandler(hub Hub, frames FrameHandler, checkOrigin func(*http.Request) bool, maxFrameBytes int64, clock clockwork.Clock, m *metrics.WebSocketMetrics) (*Handler, error) {
	welcome, err := protocol.Encode(protocol.Welcome())
	if err != nil {
		return nil, err
	}

	h := &Handler{
		hub:           hub,
		frames:        frames,
		maxFrameBytes: maxFrameBytes,
		clock:         clock,
		welcome:       welcome,
		metrics:       m,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if checkOrigin == nil || checkOrigin(r) {
				return true
			}
			m.RejectedConnections.WithLabelValues("origin").Inc()
			return false
		},
	}
	return h, nil
}

// ServeHTTP blocks for the lifetime of the connection.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already written the error response
		slog.Debug("WebSocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}
	conn.SetReadLimit(h.maxFrameBytes)

	peer := broadcast.NewPeer(conn, h.clock)
	id := peer.ID()

	// welcome goes out before the hub can route anything else to this peer
	if peer.Send(h.welcome) {
		h.metrics.MessagesSent.WithLabelValues(string(protocol.TypeWelcome)).Inc()
	}

	if err := h.hub.Register(peer); err != nil {
		slog.Error("Failed to register connection", "connection_id", id.String(), "error", err)
		h.metrics.RejectedConnections.WithLabelValues("unavailable").Inc()
		peer.Close(websocket.CloseTryAgainLater, "server unavailable")
		return
	}
	defer h.hub.Deregister(id)
	defer peer.Close(websocket.CloseNormalClosure, "")

	conn.SetPongHandler(func(string) error {
		h.hub.MarkAlive(id)
		return nil
	})

	slog.Debug("WebSocket connected", "connection_id", id.String(), "remote_addr", r.RemoteAddr)

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			logReadError(id, err)
			return
		}
		h.frames.Handle(peer, frame)
	}
}

func logReadError(id uuid.UUID, err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		slog.Info("WebSocket frame too large", "connection_id", id.String())
	case websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
		slog.Debug("WebSocket closed unexpectedly", "connection_id", id.String(), "error", err)
	default:
		slog.Debug("WebSocket disconnected", "connection_id", id.String())
	}
}
