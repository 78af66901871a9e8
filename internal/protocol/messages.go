package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/pscheid92/sportzlive/internal/domain"
)

// MessageType is the "type" discriminant carried by every frame.
type MessageType string

// Server to client.
const (
	TypeWelcome          MessageType = "welcome"
	TypeSubscribed       MessageType = "subscribed"
	TypeUnsubscribed     MessageType = "unsubscribed"
	TypeError            MessageType = "error"
	TypeMatchCreated     MessageType = "match_created"
	TypeCommentaryUpdate MessageType = "commentary_update"
)

// Client to server.
const (
	TypeSubscribe   MessageType = "subscribe"
	TypeUnsubscribe MessageType = "unsubscribe"
)

// ErrInvalidFormat is the error text sent back for frames that are not a JSON object.
const ErrInvalidFormat = "Invalid message format"

// Outbound is a server to client message. Only the fields relevant to Type are set.
type Outbound struct {
	Type    MessageType    `json:"type"`
	MatchID domain.MatchID `json:"matchId,omitempty"`
	Message string         `json:"message,omitempty"`
	Data    any            `json:"data,omitempty"`
}

func Welcome() Outbound { return Outbound{Type: TypeWelcome} }

func Subscribed(matchID domain.MatchID) Outbound {
	return Outbound{Type: TypeSubscribed, MatchID: matchID}
}

func Unsubscribed(matchID domain.MatchID) Outbound {
	return Outbound{Type: TypeUnsubscribed, MatchID: matchID}
}

func Error(message string) Outbound { return Outbound{Type: TypeError, Message: message} }

// MatchCreated announces a new match or a changed score to every viewer.
func MatchCreated(match *domain.Match) Outbound {
	return Outbound{Type: TypeMatchCreated, Data: match}
}

// CommentaryUpdate carries one commentary entry; the entry's matchId tells viewers which match it belongs to.
func CommentaryUpdate(entry *domain.Commentary) Outbound {
	return Outbound{Type: TypeCommentaryUpdate, Data: entry}
}

// Encode serializes a message once so the same bytes can be written to every recipient.
func Encode(m Outbound) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s message: %w", m.Type, err)
	}
	return data, nil
}

// Inbound is a decoded client control message. MatchID is zero when the
// field was absent or not a positive integer.
type Inbound struct {
	Type    MessageType
	MatchID domain.MatchID
}

// Decode parses one inbound frame. It fails only when the frame is not a JSON
// object; unknown types and unusable matchId values decode successfully and are
// left for the caller to ignore.
func Decode(frame []byte) (Inbound, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(frame, &raw); err != nil {
		return Inbound{}, fmt.Errorf("decode frame: %w", err)
	}
	if raw == nil {
		return Inbound{}, fmt.Errorf("decode frame: not an object")
	}

	var in Inbound
	if t, ok := raw["type"]; ok {
		var s string
		if json.Unmarshal(t, &s) == nil {
			in.Type = MessageType(s)
		}
	}
	if id, ok := raw["matchId"]; ok {
		in.MatchID = decodeMatchID(id)
	}
	return in, nil
}

func decodeMatchID(raw json.RawMessage) domain.MatchID {
	// json.Number also accepts quoted numbers; only bare integers count.
	if len(raw) == 0 || raw[0] == '"' {
		return 0
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0
	}
	v, err := n.Int64()
	if err != nil || v <= 0 {
		return 0
	}
	return domain.MatchID(v)
}
