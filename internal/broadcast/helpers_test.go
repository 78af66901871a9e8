package broadcast

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/sportzlive/internal/adapter/metrics"
	"github.com/stretchr/testify/require"
)

// fakePeer records everything the hub does to it.
type fakePeer struct {
	id      uuid.UUID
	onProbe func()

	mu          sync.Mutex
	unwritable  bool
	messages    []string
	probes      int
	closed      bool
	closeCode   int
	closeReason string
}

func newFakePeer() *fakePeer { return &fakePeer{id: uuid.New()} }

func (p *fakePeer) ID() uuid.UUID { return p.id }

func (p *fakePeer) Send(data []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unwritable || p.closed {
		return false
	}
	p.messages = append(p.messages, string(data))
	return true
}

func (p *fakePeer) Probe() {
	p.mu.Lock()
	p.probes++
	p.mu.Unlock()
	if p.onProbe != nil {
		p.onProbe()
	}
}

func (p *fakePeer) Close(code int, reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.closeCode = code
	p.closeReason = reason
}

func (p *fakePeer) setWritable(writable bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unwritable = !writable
}

func (p *fakePeer) received() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.messages...)
}

func (p *fakePeer) probeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.probes
}

func (p *fakePeer) closeState() (bool, int, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed, p.closeCode, p.closeReason
}

func newTestMetrics() *metrics.WebSocketMetrics {
	return metrics.NewWebSocketMetrics(prometheus.NewRegistry())
}

func newTestConnPair(t *testing.T) (server *ws.Conn, client *ws.Conn) {
	t.Helper()
	upgrader := ws.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	ready := make(chan *ws.Conn, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		ready <- conn
	}))
	t.Cleanup(func() { srv.Close() })

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	clientConn, _, err := ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { clientConn.Close() })

	serverConn := <-ready
	t.Cleanup(func() { serverConn.Close() })

	return serverConn, clientConn
}
