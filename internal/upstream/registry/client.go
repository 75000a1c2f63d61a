package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oshokin/alarm-orchestrator/internal/config"
	domain "github.com/oshokin/alarm-orchestrator/internal/domain/alarm"
)

// Client talks to the external alarm registry over JSON HTTP.
// The caller's bearer credential is forwarded on every request so the
// registry can apply its own access checks.
type Client struct {
	// baseURL is the registry's base URL without a trailing slash.
	baseURL string
	// httpClient performs the underlying requests.
	httpClient *http.Client

	// callTimeout bounds each individual registry call.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a bounded timeout for registry calls.
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

// errBaseURLRequired is returned when a client is built without a base URL.
var errBaseURLRequired = errors.New("registry base URL must be provided")

// NewClient creates a registry client for the provided base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  http.DefaultClient,
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// permissionPayload is the registry's permission lookup response body.
type permissionPayload struct {
	// SubjectID echoes the queried subject.
	SubjectID string `json:"subject_id"`
	// Role is the link's permission level.
	Role string `json:"role"`
}

// linkedSubjectPayload is one element of the linked subjects response body.
type linkedSubjectPayload struct {
	// SubjectID identifies the linked subject.
	SubjectID string `json:"subject_id"`
	// Role is the permission level the link carries.
	Role string `json:"role"`
}

// GetAlarm checks that the alarm exists in the registry.
// Returns ErrAlarmNotFound or ErrUpstreamUnavailable accordingly.
func (c *Client) GetAlarm(ctx context.Context, token, alarmID string) error {
	resp, err := c.get(ctx, token, fmt.Sprintf("/alarms/%s", alarmID))
	if err != nil {
		return err
	}

	defer closeBody(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return domain.ErrAlarmNotFound
	default:
		return fmt.Errorf("%w: registry returned status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}
}

// GetPermission looks up the link between a subject and an alarm.
// A 404 from the permission endpoint means "no link", not a missing alarm;
// alarm existence is checked separately via GetAlarm.
func (c *Client) GetPermission(ctx context.Context, token, alarmID, subjectID string) (domain.Permission, error) {
	resp, err := c.get(ctx, token, fmt.Sprintf("/alarms/%s/permission/%s", alarmID, subjectID))
	if err != nil {
		return domain.Permission{}, err
	}

	defer closeBody(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		var payload permissionPayload
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return domain.Permission{}, fmt.Errorf("%w: decode permission: %w", domain.ErrUpstreamUnavailable, err)
		}

		return domain.Permission{
			Linked: true,
			Role:   domain.Role(payload.Role),
		}, nil
	case http.StatusNotFound:
		return domain.Permission{Linked: false}, nil
	default:
		return domain.Permission{}, fmt.Errorf(
			"%w: registry returned status %d",
			domain.ErrUpstreamUnavailable,
			resp.StatusCode,
		)
	}
}

// LinkedSubjects lists every subject currently linked to the alarm.
func (c *Client) LinkedSubjects(ctx context.Context, token, alarmID string) ([]domain.LinkedSubject, error) {
	resp, err := c.get(ctx, token, fmt.Sprintf("/alarms/%s/subjects", alarmID))
	if err != nil {
		return nil, err
	}

	defer closeBody(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		var payload []linkedSubjectPayload
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("%w: decode linked subjects: %w", domain.ErrUpstreamUnavailable, err)
		}

		subjects := make([]domain.LinkedSubject, 0, len(payload))
		for _, s := range payload {
			subjects = append(subjects, domain.LinkedSubject{
				SubjectID: s.SubjectID,
				Role:      domain.Role(s.Role),
			})
		}

		return subjects, nil
	case http.StatusNotFound:
		return nil, domain.ErrAlarmNotFound
	default:
		return nil, fmt.Errorf("%w: registry returned status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}
}

// get performs a bounded GET against the registry, forwarding the credential.
func (c *Client) get(ctx context.Context, token, path string) (*http.Response, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build registry request: %w", err)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}

	return resp, nil
}

// closeBody drains and closes a response body so connections are reused.
func closeBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
