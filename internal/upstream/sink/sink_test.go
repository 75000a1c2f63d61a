package sink

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/alarm-orchestrator/internal/domain/alarm"
)

// TestClient_Put verifies payload delivery and failure reporting.
func TestClient_Put(t *testing.T) {
	t.Parallel()

	var received LogEntry

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL)
	require.NoError(t, err)

	entry := LogEntry{
		AlarmID: "42",
		Kind:    domain.EventArmed,
		Details: "alarm armed",
	}

	require.NoError(t, client.Put(context.Background(), entry))
	require.Equal(t, entry, received)
}

// TestClient_PutFailure covers unreachable sinks and error statuses.
func TestClient_PutFailure(t *testing.T) {
	t.Parallel()

	// Error status.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL)
	require.NoError(t, err)

	err = client.Put(context.Background(), Notification{AlarmID: "42"})
	require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)

	// Unreachable sink.
	down, err := NewClient("http://127.0.0.1:1", WithCallTimeout(200*time.Millisecond))
	require.NoError(t, err)

	err = down.Put(context.Background(), Notification{AlarmID: "42"})
	require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}
