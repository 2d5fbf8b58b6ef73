package http

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/workforce-core/internal/pkg/events"
	"github.com/cmlabs-hris/workforce-core/internal/pkg/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readEvent returns the event and data lines of the next SSE frame.
func readEvent(t *testing.T, reader *bufio.Reader) (string, string) {
	t.Helper()
	var name, data string
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			return name, data
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestStream_SendsEmployeeEvents(t *testing.T) {
	hub := sse.NewHub(4)
	router := NewRouter(RouterConfig{}, Handlers{Stream: NewStreamHandler(hub, time.Hour)})
	srv := httptest.NewServer(router)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/events/stream?employee_id=emp-1", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	name, data := readEvent(t, reader)
	assert.Equal(t, "connected", name)
	assert.JSONEq(t, `{"employee_id":"emp-1"}`, data)
	require.Eventually(t, func() bool { return hub.SubscriberCount("emp-1") == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(ctx, events.New(events.LeaveAdjusted, "emp-2", nil)))
	require.NoError(t, hub.Publish(ctx, events.New(events.PayrollPaid, "emp-1", map[string]any{"paid_by": "finance"})))

	name, data = readEvent(t, reader)
	assert.Equal(t, events.PayrollPaid, name)
	assert.Contains(t, data, `"paid_by":"finance"`)
}
