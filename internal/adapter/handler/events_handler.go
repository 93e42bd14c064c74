package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/storefront-cart/internal/core/domain"
)

const (
	eventBuffer       = 32
	keepAliveInterval = 15 * time.Second
)

// offerLatest queues evt without blocking. When the buffer is full the oldest
// queued event is discarded, so the newest state always reaches the stream.
// It reports whether an event was discarded.
func offerLatest(events chan domain.Event, evt domain.Event) bool {
	dropped := false
	for {
		select {
		case events <- evt:
			return dropped
		default:
		}
		select {
		case <-events:
			dropped = true
		default:
		}
	}
}

// Events streams the session's change notifications as server-sent events,
// starting with the current cart state.
func (h *HTTPHandler) Events(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	sf := storefront(r)

	events := make(chan domain.Event, eventBuffer)
	unsubscribe := sf.Bus.Subscribe(func(evt domain.Event) {
		if offerLatest(events, evt) {
			h.logger.Debug("coalescing events for slow stream", zap.String("session_id", sf.ID))
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, "snapshot", storefrontCartView(sf)); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		h.logger.Warn("streaming unsupported", zap.Error(err))
		return
	}

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case evt := <-events:
			if err := writeEvent(w, string(evt.Kind), newEventView(evt)); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, name string, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, body)
	return err
}
