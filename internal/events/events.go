package events

import (
	"encoding/json"
	"sync/atomic"
	"time"
)

// Event types published on the hub.
const (
	TypePing            = "ping"
	TypeSnapshotUpdated = "snapshot_updated"
	TypeRefreshFailed   = "refresh_failed"
	TypeRefreshQueued   = "refresh_queued"
)

// SchemaVersion is bumped when an Event payload changes shape.
const SchemaVersion = 1

type Event struct {
	Seq       uint64          `json:"seq"`
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// SnapshotUpdated is the payload of TypeSnapshotUpdated.
type SnapshotUpdated struct {
	Count     int      `json:"count"`
	Failed    []string `json:"failed_categories,omitempty"`
	UpdatedAt string   `json:"updated_at"`
}

// RefreshFailed is the payload of TypeRefreshFailed.
type RefreshFailed struct {
	Error string `json:"error"`
}

var seq atomic.Uint64

// MakeEvent encodes an event as the JSON line sent to SSE clients. Payloads
// that fail to marshal are dropped and the envelope is still sent.
func MakeEvent(reqID, typ string, data any) string {
	e := Event{
		Seq:       seq.Add(1),
		Type:      typ,
		Version:   SchemaVersion,
		At:        time.Now().UTC(),
		RequestID: reqID,
	}
	if data != nil {
		if b, err := json.Marshal(data); err == nil {
			e.Data = b
		}
	}
	b, _ := json.Marshal(e)
	return string(b)
}
