package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"missionctl/internal/bus"
)

func TestStreamDeliversChangeEvents(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Engine())
	defer ts.Close()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/api/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		defer resp.Body.Close()
	}
	defer conn.Close()

	// Give the handler a moment to register its subscription.
	require.Eventually(t, func() bool { return srv.bus.Len() == 1 }, time.Second, 10*time.Millisecond)

	rec := doJSON(t, srv, http.MethodPost, "/api/tasks", map[string]any{"title": "announce me"})
	require.Equal(t, http.StatusCreated, rec.Code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev bus.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "tasks", ev.Resource)
	assert.Equal(t, bus.ActionCreated, ev.Action)
	assert.NotZero(t, ev.ID)
}
