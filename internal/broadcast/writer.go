package broadcast

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
)

const (
	writeDeadline     = 5 * time.Second
	messageBufferSize = 16
)

type closeRequest struct {
	code   int
	reason string
}

// clientWriter owns all writes to one websocket connection. Messages, probes
// and the close request are funnelled through its goroutine so the conn only
// ever has a single writer.
type clientWriter struct {
	id           uuid.UUID
	connection   *websocket.Conn
	clock        clockwork.Clock
	sendChannel  chan []byte
	pingChannel  chan struct{}
	closeChannel chan closeRequest
	doneChannel  chan struct{}
	closeOnce    sync.Once
	wg           sync.WaitGroup
}

// NewPeer starts a writer goroutine for conn and returns it as a Peer with a
// fresh ID. Write deadlines are taken from clock.
func NewPeer(conn *websocket.Conn, clock clockwork.Clock) Peer {
	return newClientWriter(uuid.New(), conn, clock)
}

func newClientWriter(id uuid.UUID, connection *websocket.Conn, clock clockwork.Clock) *clientWriter {
	cw := &clientWriter{
		id:           id,
		connection:   connection,
		clock:        clock,
		sendChannel:  make(chan []byte, messageBufferSize),
		pingChannel:  make(chan struct{}, 1),
		closeChannel: make(chan closeRequest, 1),
		doneChannel:  make(chan struct{}),
	}
	cw.wg.Add(1)
	go cw.run()
	return cw
}

func (cw *clientWriter) ID() uuid.UUID { return cw.id }

func (cw *clientWriter) Send(data []byte) bool {
	select {
	case <-cw.doneChannel:
		return false
	default:
	}

	select {
	case cw.sendChannel <- data:
		return true
	default:
		return false
	}
}

func (cw *clientWriter) Probe() {
	select {
	case cw.pingChannel <- struct{}{}:
	default:
	}
}

func (cw *clientWriter) Close(code int, reason string) {
	cw.closeOnce.Do(func() {
		cw.closeChannel <- closeRequest{code: code, reason: reason}
	})
}

// wait blocks until the writer goroutine has exited.
func (cw *clientWriter) wait() {
	cw.wg.Wait()
}

func (cw *clientWriter) run() {
	defer cw.wg.Done()
	defer close(cw.doneChannel)
	defer func() { _ = cw.connection.Close() }()

	for {
		select {
		case req := <-cw.closeChannel:
			msg := websocket.FormatCloseMessage(req.code, req.reason)
			_ = cw.connection.WriteControl(websocket.CloseMessage, msg, cw.deadline())
			return
		case <-cw.pingChannel:
			if err := cw.connection.WriteControl(websocket.PingMessage, nil, cw.deadline()); err != nil {
				return
			}
		case msg := <-cw.sendChannel:
			cw.updateWriteDeadline()
			if err := cw.connection.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}

func (cw *clientWriter) deadline() time.Time {
	return cw.clock.Now().Add(writeDeadline)
}

func (cw *clientWriter) updateWriteDeadline() {
	_ = cw.connection.SetWriteDeadline(cw.deadline())
}
