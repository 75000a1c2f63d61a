package alarm

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/oshokin/alarm-orchestrator/internal/auth"
	domain "github.com/oshokin/alarm-orchestrator/internal/domain/alarm"
	"github.com/oshokin/alarm-orchestrator/internal/service/core"
	"github.com/oshokin/alarm-orchestrator/internal/version"
)

// ServiceName identifies this core in health payloads.
const ServiceName = version.ServiceName

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	Arm(ctx context.Context, identity *auth.Identity, alarmID string) (domain.State, error)
	Disarm(ctx context.Context, identity *auth.Identity, alarmID string) (domain.State, error)
	Status(ctx context.Context, identity *auth.Identity, alarmID string) (domain.State, error)
	AllStatuses(ctx context.Context) map[string]domain.Status
	RecordTrigger(ctx context.Context, identity *auth.Identity, input core.RecordTriggerInput) (*domain.TriggerEvent, error)
	ResolveTrigger(ctx context.Context, identity *auth.Identity, eventID int64) (*domain.TriggerEvent, error)
	ListTriggers(
		ctx context.Context,
		identity *auth.Identity,
		alarmID string,
		resolved *bool,
		limit int,
	) ([]*domain.TriggerEvent, error)
	ListActiveTriggers(ctx context.Context, identity *auth.Identity, alarmID string) ([]*domain.TriggerEvent, error)
	ListAllTriggers(ctx context.Context, identity *auth.Identity, limit, offset int) ([]*domain.TriggerEvent, int, error)
	TriggerStats(
		ctx context.Context,
		identity *auth.Identity,
		alarmID string,
		periodDays int,
	) (*domain.TriggerStats, error)
}

// Handler implements the orchestrator's HTTP API over a Service.
type Handler struct {
	// service provides the business logic for alarm operations.
	service Service
}

// NewHandler wires the provided service implementation into an HTTP handler.
func NewHandler(service Service) *Handler {
	return &Handler{
		service: service,
	}
}

// armingResponse is the wire form of an arming state.
type armingResponse struct {
	// AlarmID identifies the alarm.
	AlarmID string `json:"alarm_id"`
	// Status is armed or disarmed.
	Status domain.Status `json:"status"`
	// Timestamp is when the status last changed, omitted when never set.
	Timestamp string `json:"timestamp,omitempty"`
}

// statusesResponse is the all-alarms summary view.
type statusesResponse struct {
	// Statuses maps alarm id to its arming status.
	Statuses map[string]domain.Status `json:"statuses"`
}

// recordTriggerRequest is the trigger recording request body.
type recordTriggerRequest struct {
	// AlarmID is required.
	AlarmID string `json:"alarm_id"`
	// PointID optionally identifies the monitoring point.
	PointID string `json:"point_id"`
	// PointName optionally names the monitoring point.
	PointName string `json:"point_name"`
	// Kind defaults server-side when empty.
	Kind string `json:"kind"`
	// Details carries free-form context.
	Details string `json:"details"`
}

// triggerListResponse is the per-alarm listing body.
type triggerListResponse struct {
	// AlarmID identifies the alarm.
	AlarmID string `json:"alarm_id"`
	// Count is the number of returned events.
	Count int `json:"count"`
	// Triggers holds the events, newest first.
	Triggers []*domain.TriggerEvent `json:"triggers"`
}

// globalTriggerListResponse is the cross-alarm paged listing body.
type globalTriggerListResponse struct {
	// Triggers holds the page of events, newest first.
	Triggers []*domain.TriggerEvent `json:"triggers"`
	// Total is the ledger-wide event count.
	Total int `json:"total"`
	// Limit echoes the applied page size.
	Limit int `json:"limit"`
	// Offset echoes the applied page start.
	Offset int `json:"offset"`
}

// healthResponse is the liveness payload.
type healthResponse struct {
	// Status is always OK when the process can respond.
	Status string `json:"status"`
	// Service names this core.
	Service string `json:"service"`
	// Version is the build's semantic version.
	Version string `json:"version"`
	// Timestamp is the server time in RFC3339.
	Timestamp string `json:"timestamp"`
}

// toArmingResponse converts a domain state to its wire form.
func toArmingResponse(state domain.State) armingResponse {
	resp := armingResponse{
		AlarmID: state.AlarmID,
		Status:  state.Status,
	}

	if !state.Timestamp.IsZero() {
		resp.Timestamp = state.Timestamp.Format(time.RFC3339)
	}

	return resp
}

// health reports liveness; exempt from authentication.
func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "OK",
		Service:   ServiceName,
		Version:   version.Short(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// arm handles POST /api/v1/arming/{alarm_id}/arm.
func (h *Handler) arm(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	state, err := h.service.Arm(r.Context(), identity, chi.URLParam(r, "alarm_id"))
	if err != nil {
		writeDomainError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, toArmingResponse(state))
}

// disarm handles POST /api/v1/arming/{alarm_id}/disarm.
func (h *Handler) disarm(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	state, err := h.service.Disarm(r.Context(), identity, chi.URLParam(r, "alarm_id"))
	if err != nil {
		writeDomainError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, toArmingResponse(state))
}

// status handles GET /api/v1/arming/{alarm_id}.
func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	state, err := h.service.Status(r.Context(), identity, chi.URLParam(r, "alarm_id"))
	if err != nil {
		writeDomainError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, toArmingResponse(state))
}

// allStatuses handles GET /api/v1/arming.
func (h *Handler) allStatuses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusesResponse{
		Statuses: h.service.AllStatuses(r.Context()),
	})
}

// recordTrigger handles POST /api/v1/triggers. Anonymous requests are
// sensor-originated.
func (h *Handler) recordTrigger(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	var req recordTriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid JSON body")

		return
	}

	event, err := h.service.RecordTrigger(r.Context(), identity, core.RecordTriggerInput{
		AlarmID:   req.AlarmID,
		PointID:   req.PointID,
		PointName: req.PointName,
		Kind:      req.Kind,
		Details:   req.Details,
	})
	if err != nil {
		writeDomainError(w, err)

		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// listTriggers handles GET /api/v1/triggers/{alarm_id}.
func (h *Handler) listTriggers(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	alarmID := chi.URLParam(r, "alarm_id")

	var resolved *bool

	if raw := r.URL.Query().Get("resolved"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", "resolved must be a boolean")

			return
		}

		resolved = &value
	}

	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}

	events, err := h.service.ListTriggers(r.Context(), identity, alarmID, resolved, limit)
	if err != nil {
		writeDomainError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, triggerListResponse{
		AlarmID:  alarmID,
		Count:    len(events),
		Triggers: events,
	})
}

// listActiveTriggers handles GET /api/v1/triggers/{alarm_id}/active.
func (h *Handler) listActiveTriggers(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	alarmID := chi.URLParam(r, "alarm_id")

	events, err := h.service.ListActiveTriggers(r.Context(), identity, alarmID)
	if err != nil {
		writeDomainError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, triggerListResponse{
		AlarmID:  alarmID,
		Count:    len(events),
		Triggers: events,
	})
}

// listAllTriggers handles GET /api/v1/triggers.
func (h *Handler) listAllTriggers(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}

	offset, ok := queryInt(w, r, "offset")
	if !ok {
		return
	}

	events, total, err := h.service.ListAllTriggers(r.Context(), identity, limit, offset)
	if err != nil {
		writeDomainError(w, err)

		return
	}

	if limit <= 0 {
		limit = core.DefaultGlobalListLimit
	}

	writeJSON(w, http.StatusOK, globalTriggerListResponse{
		Triggers: events,
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	})
}

// resolveTrigger handles PATCH /api/v1/triggers/events/{event_id}/resolve.
func (h *Handler) resolveTrigger(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	eventID, err := strconv.ParseInt(chi.URLParam(r, "event_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "event id must be an integer")

		return
	}

	event, err := h.service.ResolveTrigger(r.Context(), identity, eventID)
	if err != nil {
		writeDomainError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, event)
}

// triggerStats handles GET /api/v1/triggers/{alarm_id}/stats.
func (h *Handler) triggerStats(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	periodDays, ok := queryInt(w, r, "period_days")
	if !ok {
		return
	}

	stats, err := h.service.TriggerStats(r.Context(), identity, chi.URLParam(r, "alarm_id"), periodDays)
	if err != nil {
		writeDomainError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// queryInt parses an optional non-negative integer query parameter.
// Writes a validation error and returns false on malformed input.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		writeError(w, http.StatusBadRequest, "validation_failed", name+" must be a non-negative integer")

		return 0, false
	}

	return value, true
}
