package broadcast

import (
	"log/slog"

	"github.com/pscheid92/sportzlive/internal/adapter/metrics"
	"github.com/pscheid92/sportzlive/internal/domain"
	"github.com/pscheid92/sportzlive/internal/protocol"
)

// Dispatcher is the write path for domain events. It implements domain.Announcer.
type Dispatcher struct {
	hub     *Hub
	metrics *metrics.WebSocketMetrics
}

var _ domain.Announcer = (*Dispatcher)(nil)

func NewDispatcher(hub *Hub, m *metrics.WebSocketMetrics) *Dispatcher {
	return &Dispatcher{hub: hub, metrics: m}
}

// AnnounceMatch sends match_created to every connection. Score updates use the same event.
func (d *Dispatcher) AnnounceMatch(match *domain.Match) {
	msg := protocol.MatchCreated(match)
	data, err := protocol.Encode(msg)
	if err != nil {
		slog.Error("Failed to encode match announcement", "match_id", match.ID.String(), "error", err)
		return
	}

	n, err := d.hub.BroadcastAll(data)
	if err != nil {
		slog.Warn("Match announcement not delivered", "match_id", match.ID.String(), "error", err)
		return
	}
	d.metrics.MessagesSent.WithLabelValues(string(msg.Type)).Add(float64(n))
	slog.Debug("Match announced", "match_id", match.ID.String(), "recipients", n)
}

// AnnounceCommentary sends commentary_update to the subscribers of matchID only.
func (d *Dispatcher) AnnounceCommentary(matchID domain.MatchID, entry *domain.Commentary) {
	msg := protocol.CommentaryUpdate(entry)
	data, err := protocol.Encode(msg)
	if err != nil {
		slog.Error("Failed to encode commentary", "match_id", matchID.String(), "error", err)
		return
	}

	n, err := d.hub.BroadcastMatch(matchID, data)
	if err != nil {
		slog.Warn("Commentary not delivered", "match_id", matchID.String(), "error", err)
		return
	}
	d.metrics.MessagesSent.WithLabelValues(string(msg.Type)).Add(float64(n))
	slog.Debug("Commentary announced", "match_id", matchID.String(), "recipients", n)
}
