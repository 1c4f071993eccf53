package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

const (
	defaultHeartbeat = 30 * time.Second
	writeTimeout     = 60 * time.Second
	retryMillis      = 3000
)

// Handler streams events at GET /api/v1/events.
//
// Query parameters:
//   - types: comma-separated event groups to receive (asset, tag, import, layout)
//   - last_event_id: fallback for clients that cannot set the Last-Event-ID header
type Handler struct {
	manager   *Manager
	logger    *slog.Logger
	heartbeat time.Duration
}

// NewHandler creates a new SSE Handler.
func NewHandler(manager *Manager, logger *slog.Logger) *Handler {
	return &Handler{
		manager:   manager,
		logger:    logger,
		heartbeat: defaultHeartbeat,
	}
}

// ServeHTTP handles one event stream.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	lastID, err := lastEventID(r)
	if err != nil {
		http.Error(w, "Invalid Last-Event-ID", http.StatusBadRequest)
		return
	}
	filter := ParseFilter(r.URL.Query().Get("types"))

	if r.Context().Err() != nil {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		h.logger.Error("failed to flush headers", slog.String("error", err.Error()))
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	client, replay, err := h.manager.Connect(filter, lastID)
	if err != nil {
		h.logger.Error("failed to register SSE client", slog.String("error", err.Error()))
		http.Error(w, "Failed to establish connection", http.StatusInternalServerError)
		return
	}
	defer h.manager.Disconnect(client.ID)

	log := h.logger.With(slog.String("client_id", client.ID))
	send := func(e Event) bool {
		if err := h.send(w, rc, e); err != nil {
			log.Info("client disconnected during send", slog.String("error", err.Error()))
			return false
		}
		return true
	}

	if _, err := fmt.Fprintf(w, "retry: %d\n\n", retryMillis); err != nil {
		return
	}
	if !send(newEvent("connected", map[string]string{"client_id": client.ID})) {
		return
	}
	if replay.Gap {
		if !send(NewResyncEvent(h.manager.LastEventID())) {
			return
		}
	}
	for _, e := range replay.Events {
		if !send(e) {
			return
		}
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-client.Events:
			if !ok || !send(e) {
				return
			}
		case <-ticker.C:
			if !send(NewHeartbeatEvent()) {
				return
			}
		case <-client.Done:
			log.Info("client closed by manager")
			return
		case <-r.Context().Done():
			return
		}
	}
}

func (h *Handler) send(w http.ResponseWriter, rc *http.ResponseController, e Event) error {
	if err := writeFrame(w, e); err != nil {
		return err
	}
	if err := rc.Flush(); err != nil {
		return err
	}
	// Not every ResponseWriter supports deadlines.
	if err := rc.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		h.logger.Debug("failed to set write deadline", slog.String("error", err.Error()))
	}
	return nil
}

// writeFrame writes e as one SSE frame. The id line is omitted for
// events that were never broadcast.
func writeFrame(w io.Writer, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if e.ID > 0 {
		if _, err := fmt.Fprintf(w, "id: %d\n", e.ID); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, data)
	return err
}

func lastEventID(r *http.Request) (uint64, error) {
	raw := r.Header.Get("Last-Event-ID")
	if raw == "" {
		raw = r.URL.Query().Get("last_event_id")
	}
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseUint(raw, 10, 64)
}
