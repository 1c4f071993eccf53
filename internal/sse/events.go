// Package sse implements Server-Sent Events for library change notifications.
package sse

import (
	"slices"
	"strings"
	"time"

	"github.com/shutterboxapp/shutterbox/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	EventAssetAdded   EventType = "asset.added"
	EventAssetUpdated EventType = "asset.updated"
	EventAssetDeleted EventType = "asset.deleted"

	EventTagAdded   EventType = "tag.added"
	EventTagRemoved EventType = "tag.removed"
	EventTagDeleted EventType = "tag.deleted"

	// EventImportStarted and EventImportCompleted bracket an import batch;
	// EventImportProgress follows each item.
	EventImportStarted   EventType = "import.started"
	EventImportProgress  EventType = "import.progress"
	EventImportCompleted EventType = "import.completed"

	EventLayoutRecomputed EventType = "layout.recomputed"

	// EventResync tells a reconnecting client that events were lost and
	// it must refetch.
	EventResync EventType = "resync"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Group is the part of the type before the dot: "asset", "tag", "import"
// or "layout".
func (t EventType) Group() string {
	g, _, _ := strings.Cut(string(t), ".")
	return g
}

// Filter selects event groups. The empty filter selects everything;
// connection events always pass.
type Filter []string

// ParseFilter parses a comma-separated group list such as "asset,tag".
func ParseFilter(raw string) Filter {
	var f Filter
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" && !slices.Contains(f, part) {
			f = append(f, part)
		}
	}
	return f
}

// Match reports whether events of type t pass the filter.
func (f Filter) Match(t EventType) bool {
	if len(f) == 0 || t == EventHeartbeat || t == EventResync {
		return true
	}
	return slices.Contains(f, t.Group())
}

// Event represents an SSE event to be sent to clients.
// ID is assigned when the event is broadcast; heartbeats carry none.
type Event struct {
	ID        uint64    `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
}

// AssetEventData is the payload of asset events.
type AssetEventData struct {
	Asset   domain.Asset `json:"asset"`
	Version uint64       `json:"version"`
}

// TagEventData is the payload of tag events. AssetIDs is set for
// tag.deleted, AssetID otherwise.
type TagEventData struct {
	Tag      string   `json:"tag"`
	AssetID  string   `json:"asset_id,omitempty"`
	AssetIDs []string `json:"asset_ids,omitempty"`
	Version  uint64   `json:"version"`
}

// ImportStartedEventData is the payload of import.started.
type ImportStartedEventData struct {
	BatchID string `json:"batch_id"`
	Files   int    `json:"files"`
}

// ImportProgressEventData is the payload of import.progress.
type ImportProgressEventData struct {
	BatchID  string `json:"batch_id"`
	Done     int    `json:"done"`
	Total    int    `json:"total"`
	FileName string `json:"file_name"`
	AssetID  string `json:"asset_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ImportCompletedEventData is the payload of import.completed.
type ImportCompletedEventData struct {
	BatchID   string `json:"batch_id"`
	Imported  int    `json:"imported"`
	Failed    int    `json:"failed"`
	Abandoned int    `json:"abandoned"`
}

// LayoutEventData is the payload of layout.recomputed.
type LayoutEventData struct {
	Width       float64 `json:"width"`
	Columns     int     `json:"columns"`
	Items       int     `json:"items"`
	TotalHeight float64 `json:"total_height"`
}

// ResyncEventData is the payload of resync.
type ResyncEventData struct {
	LastEventID uint64 `json:"last_event_id"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

func newEvent(t EventType, data any) Event {
	return Event{Type: t, Data: data, Timestamp: time.Now()}
}

// NewHeartbeatEvent creates a keepalive event.
func NewHeartbeatEvent() Event {
	return newEvent(EventHeartbeat, HeartbeatEventData{ServerTime: time.Now()})
}

// NewResyncEvent creates a resync event pointing at the newest event ID.
func NewResyncEvent(last uint64) Event {
	return newEvent(EventResync, ResyncEventData{LastEventID: last})
}

// NewChangeEvent converts a library change into an event.
func NewChangeEvent(c domain.Change) Event {
	switch c.Kind {
	case domain.ChangeAssetAdded:
		return newEvent(EventAssetAdded, AssetEventData{Asset: c.Asset, Version: c.Version})
	case domain.ChangeAssetUpdated:
		return newEvent(EventAssetUpdated, AssetEventData{Asset: c.Asset, Version: c.Version})
	case domain.ChangeAssetDeleted:
		return newEvent(EventAssetDeleted, AssetEventData{Asset: c.Asset, Version: c.Version})
	case domain.ChangeTagAdded:
		return newEvent(EventTagAdded, TagEventData{Tag: c.Tag, AssetID: c.Asset.ID, Version: c.Version})
	case domain.ChangeTagRemoved:
		return newEvent(EventTagRemoved, TagEventData{Tag: c.Tag, AssetID: c.Asset.ID, Version: c.Version})
	default:
		return newEvent(EventTagDeleted, TagEventData{Tag: c.Tag, AssetIDs: c.AssetIDs, Version: c.Version})
	}
}

// NewImportStartedEvent creates an import.started event.
func NewImportStartedEvent(batchID string, files int) Event {
	return newEvent(EventImportStarted, ImportStartedEventData{BatchID: batchID, Files: files})
}

// NewImportProgressEvent creates an import.progress event.
func NewImportProgressEvent(data ImportProgressEventData) Event {
	return newEvent(EventImportProgress, data)
}

// NewImportCompletedEvent creates an import.completed event.
func NewImportCompletedEvent(data ImportCompletedEventData) Event {
	return newEvent(EventImportCompleted, data)
}

// NewLayoutRecomputedEvent creates a layout.recomputed event.
func NewLayoutRecomputedEvent(data LayoutEventData) Event {
	return newEvent(EventLayoutRecomputed, data)
}
