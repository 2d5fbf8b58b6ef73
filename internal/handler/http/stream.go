package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cmlabs-hris/workforce-core/internal/pkg/events"
	"github.com/cmlabs-hris/workforce-core/internal/pkg/sse"
)

// EventSubscriber hands out live domain event subscriptions.
type EventSubscriber interface {
	Subscribe(employeeID string) (<-chan events.Event, func())
}

type StreamHandler interface {
	Stream(w http.ResponseWriter, r *http.Request)
}

type streamHandlerImpl struct {
	subscriber EventSubscriber
	keepalive  time.Duration
}

func NewStreamHandler(subscriber EventSubscriber, keepalive time.Duration) StreamHandler {
	if keepalive <= 0 {
		keepalive = 30 * time.Second
	}
	return &streamHandlerImpl{subscriber: subscriber, keepalive: keepalive}
}

// Stream sends domain events as server-sent events. ?employee_id= narrows the
// stream to one employee.
func (h *streamHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	employeeID := r.URL.Query().Get("employee_id")
	if employeeID == "" {
		employeeID = sse.AllEmployees
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	stream, cleanup := h.subscriber.Subscribe(employeeID)
	defer cleanup()

	fmt.Fprintf(w, "event: connected\ndata: {\"employee_id\":%q}\n\n", employeeID)
	flusher.Flush()

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-stream:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", event.ID, event.Name, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
