package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/oshokin/alarm-orchestrator/internal/config"
	domain "github.com/oshokin/alarm-orchestrator/internal/domain/alarm"
)

// LogEntry is one audit-log write sent to the external log sink.
type LogEntry struct {
	// AlarmID is the alarm the event concerns.
	AlarmID string `json:"alarm_id"`
	// SubjectID is the acting subject, empty for sensor-originated events.
	SubjectID string `json:"subject_id,omitempty"`
	// Kind labels the state transition.
	Kind domain.EventKind `json:"kind"`
	// Details carries the human-readable event description.
	Details string `json:"details"`
}

// Notification is one user notification sent to the external notify sink.
type Notification struct {
	// AlarmID is the alarm the notification concerns.
	AlarmID string `json:"alarm_id"`
	// SubjectID is the notification target.
	SubjectID string `json:"subject_id,omitempty"`
	// Kind labels the state transition.
	Kind domain.EventKind `json:"kind"`
	// Message is the notification text.
	Message string `json:"message"`
}

// Client posts fire-and-forget JSON payloads to one sink endpoint.
// No response payload is expected beyond success or failure.
type Client struct {
	// endpoint is the absolute URL events are posted to.
	endpoint string
	// httpClient performs the underlying requests.
	httpClient *http.Client

	// callTimeout bounds each delivery attempt.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a bounded timeout for delivery attempts.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithHTTPClient overrides the underlying HTTP client, mainly for tests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// errEndpointRequired is returned when a client is built without an endpoint.
var errEndpointRequired = errors.New("sink endpoint must be provided")

// NewClient creates a sink client for the provided endpoint URL.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, errEndpointRequired
	}

	client := &Client{
		endpoint:    strings.TrimRight(endpoint, "/"),
		httpClient:  http.DefaultClient,
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Put delivers one payload to the sink. Failure reporting is the caller's
// concern; the fan-out layer swallows and logs it.
func (c *Client) Put(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode sink payload: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPut, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sink request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: sink returned status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	return nil
}
