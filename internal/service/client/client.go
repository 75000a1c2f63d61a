package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/oshokin/alarm-orchestrator/internal/config"
	domain "github.com/oshokin/alarm-orchestrator/internal/domain/alarm"
)

// Client is an HTTP client for the orchestrator's operator API.
type Client struct {
	// baseURL is the orchestrator's root URL without a trailing slash.
	baseURL string
	// token is the bearer credential presented on every call.
	token string
	// httpClient performs the underlying requests.
	httpClient *http.Client
	// callTimeout is the default timeout for individual calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client, mainly for tests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// ErrRequestFailed wraps any non-success response from the orchestrator.
	ErrRequestFailed = errors.New("request failed")
)

// New builds a client for the orchestrator at the given base URL.
func New(baseURL, token string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errAddressRequired
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	if parsed.Scheme == "" {
		parsed.Scheme = "http"
	}

	client := &Client{
		baseURL:     parsed.String(),
		token:       token,
		httpClient:  http.DefaultClient,
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// ArmingState is the wire form of an alarm's arming status.
type ArmingState struct {
	// AlarmID identifies the alarm.
	AlarmID string `json:"alarm_id"`
	// Status is armed or disarmed.
	Status domain.Status `json:"status"`
	// Timestamp is when the status last changed, empty when never set.
	Timestamp string `json:"timestamp"`
}

// StatusSummary maps alarm ids to their arming status.
type StatusSummary struct {
	// Statuses maps alarm id to its arming status.
	Statuses map[string]domain.Status `json:"statuses"`
}

// TriggerList is the per-alarm trigger listing.
type TriggerList struct {
	// AlarmID identifies the alarm.
	AlarmID string `json:"alarm_id"`
	// Count is the number of returned events.
	Count int `json:"count"`
	// Triggers holds the events, newest first.
	Triggers []*domain.TriggerEvent `json:"triggers"`
}

// GlobalTriggerList is the cross-alarm paged listing.
type GlobalTriggerList struct {
	// Triggers holds the page of events, newest first.
	Triggers []*domain.TriggerEvent `json:"triggers"`
	// Total is the ledger-wide event count.
	Total int `json:"total"`
	// Limit echoes the applied page size.
	Limit int `json:"limit"`
	// Offset echoes the applied page start.
	Offset int `json:"offset"`
}

// TriggerInput describes a trigger to record.
type TriggerInput struct {
	// AlarmID is required.
	AlarmID string `json:"alarm_id"`
	// PointID optionally identifies the monitoring point.
	PointID string `json:"point_id,omitempty"`
	// PointName optionally names the monitoring point.
	PointName string `json:"point_name,omitempty"`
	// Kind defaults server-side when empty.
	Kind string `json:"kind,omitempty"`
	// Details carries free-form context.
	Details string `json:"details,omitempty"`
}

// Arm arms the alarm and returns the resulting state.
func (c *Client) Arm(ctx context.Context, alarmID string) (*ArmingState, error) {
	var state ArmingState
	if err := c.call(ctx, http.MethodPost,
		"/api/v1/arming/"+url.PathEscape(alarmID)+"/arm", nil, &state); err != nil {
		return nil, err
	}

	return &state, nil
}

// Disarm disarms the alarm and returns the resulting state.
func (c *Client) Disarm(ctx context.Context, alarmID string) (*ArmingState, error) {
	var state ArmingState
	if err := c.call(ctx, http.MethodPost,
		"/api/v1/arming/"+url.PathEscape(alarmID)+"/disarm", nil, &state); err != nil {
		return nil, err
	}

	return &state, nil
}

// Status returns the alarm's current arming state.
func (c *Client) Status(ctx context.Context, alarmID string) (*ArmingState, error) {
	var state ArmingState
	if err := c.call(ctx, http.MethodGet,
		"/api/v1/arming/"+url.PathEscape(alarmID), nil, &state); err != nil {
		return nil, err
	}

	return &state, nil
}

// Statuses returns the arming status of every alarm seen by the orchestrator.
func (c *Client) Statuses(ctx context.Context) (*StatusSummary, error) {
	var summary StatusSummary
	if err := c.call(ctx, http.MethodGet, "/api/v1/arming", nil, &summary); err != nil {
		return nil, err
	}

	return &summary, nil
}

// Trigger records a trigger event and returns the created event.
func (c *Client) Trigger(ctx context.Context, input TriggerInput) (*domain.TriggerEvent, error) {
	var event domain.TriggerEvent
	if err := c.call(ctx, http.MethodPost, "/api/v1/triggers", input, &event); err != nil {
		return nil, err
	}

	return &event, nil
}

// Resolve marks the trigger event as handled and returns the updated event.
func (c *Client) Resolve(ctx context.Context, eventID int64) (*domain.TriggerEvent, error) {
	var event domain.TriggerEvent
	if err := c.call(ctx, http.MethodPatch,
		fmt.Sprintf("/api/v1/triggers/events/%d/resolve", eventID), nil, &event); err != nil {
		return nil, err
	}

	return &event, nil
}

// Triggers lists the alarm's trigger events newest first.
func (c *Client) Triggers(ctx context.Context, alarmID string, limit int) (*TriggerList, error) {
	path := "/api/v1/triggers/" + url.PathEscape(alarmID)
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var list TriggerList
	if err := c.call(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}

	return &list, nil
}

// ActiveTriggers lists the alarm's unresolved trigger events.
func (c *Client) ActiveTriggers(ctx context.Context, alarmID string) (*TriggerList, error) {
	var list TriggerList
	if err := c.call(ctx, http.MethodGet,
		"/api/v1/triggers/"+url.PathEscape(alarmID)+"/active", nil, &list); err != nil {
		return nil, err
	}

	return &list, nil
}

// AllTriggers pages through trigger events across every alarm.
func (c *Client) AllTriggers(ctx context.Context, limit, offset int) (*GlobalTriggerList, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}

	path := "/api/v1/triggers"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var list GlobalTriggerList
	if err := c.call(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}

	return &list, nil
}

// Stats returns trigger statistics for the alarm over a day window.
func (c *Client) Stats(ctx context.Context, alarmID string, periodDays int) (*domain.TriggerStats, error) {
	path := "/api/v1/triggers/" + url.PathEscape(alarmID) + "/stats"
	if periodDays > 0 {
		path += "?period_days=" + strconv.Itoa(periodDays)
	}

	var stats domain.TriggerStats
	if err := c.call(ctx, http.MethodGet, path, nil, &stats); err != nil {
		return nil, err
	}

	return &stats, nil
}

// errorEnvelope mirrors the orchestrator's error response body.
type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// call performs one request against the orchestrator and decodes the
// response into out when it is non-nil.
func (c *Client) call(ctx context.Context, method, path string, payload, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	var body io.Reader

	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}

		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	if c.token != "" {
		request.Header.Set("Authorization", "Bearer "+c.token)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode >= http.StatusMultipleChoices {
		var envelope errorEnvelope
		if decodeErr := json.NewDecoder(response.Body).Decode(&envelope); decodeErr == nil &&
			envelope.Error.Code != "" {
			return fmt.Errorf("%w: %s (%s)", ErrRequestFailed,
				envelope.Error.Message, envelope.Error.Code)
		}

		return fmt.Errorf("%w: unexpected status %d", ErrRequestFailed, response.StatusCode)
	}

	if out == nil {
		return nil
	}

	if err = json.NewDecoder(response.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
