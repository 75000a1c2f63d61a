package alarm

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarm-orchestrator/internal/auth"
	domain "github.com/oshokin/alarm-orchestrator/internal/domain/alarm"
	"github.com/oshokin/alarm-orchestrator/internal/service/core"
)

const testSecret = "handler-test-secret"

// stubService implements Service with canned responses per call.
type stubService struct {
	armState    domain.State
	armErr      error
	statusState domain.State
	statusErr   error
	statuses    map[string]domain.Status
	recorded    *domain.TriggerEvent
	recordErr   error
	recordInput core.RecordTriggerInput
	recordIdent *auth.Identity
	resolved    *domain.TriggerEvent
	resolveErr  error
	listed      []*domain.TriggerEvent
	listErr     error
	listedTotal int
	statsResult *domain.TriggerStats
	statsErr    error
	statsPeriod int
}

func (s *stubService) Arm(_ context.Context, _ *auth.Identity, _ string) (domain.State, error) {
	return s.armState, s.armErr
}

func (s *stubService) Disarm(_ context.Context, _ *auth.Identity, _ string) (domain.State, error) {
	return s.armState, s.armErr
}

func (s *stubService) Status(_ context.Context, _ *auth.Identity, _ string) (domain.State, error) {
	return s.statusState, s.statusErr
}

func (s *stubService) AllStatuses(_ context.Context) map[string]domain.Status {
	return s.statuses
}

func (s *stubService) RecordTrigger(
	_ context.Context,
	identity *auth.Identity,
	input core.RecordTriggerInput,
) (*domain.TriggerEvent, error) {
	s.recordInput = input
	s.recordIdent = identity

	return s.recorded, s.recordErr
}

func (s *stubService) ResolveTrigger(
	_ context.Context,
	_ *auth.Identity,
	_ int64,
) (*domain.TriggerEvent, error) {
	return s.resolved, s.resolveErr
}

func (s *stubService) ListTriggers(
	_ context.Context,
	_ *auth.Identity,
	_ string,
	_ *bool,
	_ int,
) ([]*domain.TriggerEvent, error) {
	return s.listed, s.listErr
}

func (s *stubService) ListActiveTriggers(
	_ context.Context,
	_ *auth.Identity,
	_ string,
) ([]*domain.TriggerEvent, error) {
	return s.listed, s.listErr
}

func (s *stubService) ListAllTriggers(
	_ context.Context,
	_ *auth.Identity,
	_, _ int,
) ([]*domain.TriggerEvent, int, error) {
	return s.listed, s.listedTotal, s.listErr
}

func (s *stubService) TriggerStats(
	_ context.Context,
	_ *auth.Identity,
	_ string,
	periodDays int,
) (*domain.TriggerStats, error) {
	s.statsPeriod = periodDays

	return s.statsResult, s.statsErr
}

func newTestRouter(t *testing.T, service Service) http.Handler {
	t.Helper()

	verifier, err := auth.NewVerifier(testSecret)
	require.NoError(t, err)

	return NewRouter(NewHandler(service), verifier)
}

func signTestToken(t *testing.T, subject string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	return signed
}

func doRequest(
	t *testing.T,
	router http.Handler,
	method, target, token string,
	body any,
) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	request := httptest.NewRequest(method, target, reader)
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	return recorder
}

func TestHealthIsOpen(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &stubService{})

	recorder := doRequest(t, router, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var payload healthResponse

	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	require.Equal(t, "OK", payload.Status)
	require.Equal(t, ServiceName, payload.Service)
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &stubService{})

	for _, target := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/arming/front-door/arm"},
		{http.MethodPost, "/api/v1/arming/front-door/disarm"},
		{http.MethodGet, "/api/v1/arming/front-door"},
		{http.MethodGet, "/api/v1/arming"},
		{http.MethodGet, "/api/v1/triggers"},
		{http.MethodGet, "/api/v1/triggers/front-door"},
		{http.MethodPatch, "/api/v1/triggers/events/7/resolve"},
	} {
		recorder := doRequest(t, router, target.method, target.path, "", nil)
		require.Equal(t, http.StatusUnauthorized, recorder.Code, "%s %s", target.method, target.path)
	}
}

func TestProtectedRoutesRejectForgedToken(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &stubService{})

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "intruder",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	forged, err := token.SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	recorder := doRequest(t, router, http.MethodPost, "/api/v1/arming/front-door/arm", forged, nil)
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestArmReturnsState(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	service := &stubService{
		armState: domain.State{
			AlarmID:   "front-door",
			Status:    domain.StatusArmed,
			Timestamp: now,
		},
	}
	router := newTestRouter(t, service)

	recorder := doRequest(t, router, http.MethodPost,
		"/api/v1/arming/front-door/arm", signTestToken(t, "operator-1"), nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var payload armingResponse

	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	require.Equal(t, "front-door", payload.AlarmID)
	require.Equal(t, domain.StatusArmed, payload.Status)
	require.Equal(t, now.Format(time.RFC3339), payload.Timestamp)
}

func TestArmMapsDomainErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"unknown alarm", domain.ErrAlarmNotFound, http.StatusNotFound, "alarm_not_found"},
		{"forbidden", domain.ErrUnauthorized, http.StatusForbidden, "unauthorized"},
		{"registry down", domain.ErrUpstreamUnavailable, http.StatusBadGateway, "upstream_unavailable"},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			router := newTestRouter(t, &stubService{armErr: testCase.err})

			recorder := doRequest(t, router, http.MethodPost,
				"/api/v1/arming/front-door/arm", signTestToken(t, "operator-1"), nil)
			require.Equal(t, testCase.wantStatus, recorder.Code)

			var payload errorResponse

			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
			require.Equal(t, testCase.wantCode, payload.Error.Code)
		})
	}
}

func TestRecordTriggerAnonymousSensor(t *testing.T) {
	t.Parallel()

	service := &stubService{
		recorded: &domain.TriggerEvent{
			ID:      1,
			AlarmID: "front-door",
			Kind:    domain.DefaultTriggerKind,
		},
	}
	router := newTestRouter(t, service)

	body := map[string]string{
		"alarm_id":   "front-door",
		"point_id":   "sensor-3",
		"point_name": "Hallway",
	}

	recorder := doRequest(t, router, http.MethodPost, "/api/v1/triggers", "", body)
	require.Equal(t, http.StatusCreated, recorder.Code)
	require.Nil(t, service.recordIdent)
	require.Equal(t, "front-door", service.recordInput.AlarmID)
	require.Equal(t, "sensor-3", service.recordInput.PointID)
}

func TestRecordTriggerPassesIdentityWhenPresent(t *testing.T) {
	t.Parallel()

	service := &stubService{
		recorded: &domain.TriggerEvent{ID: 2, AlarmID: "front-door"},
	}
	router := newTestRouter(t, service)

	body := map[string]string{"alarm_id": "front-door"}

	recorder := doRequest(t, router, http.MethodPost,
		"/api/v1/triggers", signTestToken(t, "operator-9"), body)
	require.Equal(t, http.StatusCreated, recorder.Code)
	require.NotNil(t, service.recordIdent)
	require.Equal(t, "operator-9", service.recordIdent.SubjectID)
}

func TestRecordTriggerRejectsDisarmedAlarm(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &stubService{recordErr: domain.ErrAlarmNotArmed})

	body := map[string]string{"alarm_id": "front-door"}

	recorder := doRequest(t, router, http.MethodPost, "/api/v1/triggers", "", body)
	require.Equal(t, http.StatusConflict, recorder.Code)

	var payload errorResponse

	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	require.Equal(t, "alarm_not_armed", payload.Error.Code)
}

func TestRecordTriggerRejectsMalformedBody(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &stubService{})

	request := httptest.NewRequest(http.MethodPost, "/api/v1/triggers",
		bytes.NewReader([]byte("{not json")))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestListTriggersValidatesQuery(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &stubService{})
	token := signTestToken(t, "operator-1")

	recorder := doRequest(t, router, http.MethodGet,
		"/api/v1/triggers/front-door?resolved=maybe", token, nil)
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = doRequest(t, router, http.MethodGet,
		"/api/v1/triggers/front-door?limit=-1", token, nil)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestListTriggersReturnsEvents(t *testing.T) {
	t.Parallel()

	service := &stubService{
		listed: []*domain.TriggerEvent{
			{ID: 2, AlarmID: "front-door"},
			{ID: 1, AlarmID: "front-door"},
		},
	}
	router := newTestRouter(t, service)

	recorder := doRequest(t, router, http.MethodGet,
		"/api/v1/triggers/front-door?resolved=false&limit=10",
		signTestToken(t, "operator-1"), nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var payload triggerListResponse

	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	require.Equal(t, "front-door", payload.AlarmID)
	require.Equal(t, 2, payload.Count)
	require.Len(t, payload.Triggers, 2)
}

func TestListAllTriggersEchoesPaging(t *testing.T) {
	t.Parallel()

	service := &stubService{
		listed:      []*domain.TriggerEvent{{ID: 5, AlarmID: "garage"}},
		listedTotal: 41,
	}
	router := newTestRouter(t, service)

	recorder := doRequest(t, router, http.MethodGet,
		"/api/v1/triggers?limit=20&offset=40", signTestToken(t, "operator-1"), nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var payload globalTriggerListResponse

	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	require.Equal(t, 41, payload.Total)
	require.Equal(t, 20, payload.Limit)
	require.Equal(t, 40, payload.Offset)
	require.Len(t, payload.Triggers, 1)
}

func TestResolveTriggerValidatesEventID(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &stubService{})

	recorder := doRequest(t, router, http.MethodPatch,
		"/api/v1/triggers/events/not-a-number/resolve", signTestToken(t, "operator-1"), nil)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestResolveTriggerMapsNotFound(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &stubService{resolveErr: domain.ErrEventNotFound})

	recorder := doRequest(t, router, http.MethodPatch,
		"/api/v1/triggers/events/77/resolve", signTestToken(t, "operator-1"), nil)
	require.Equal(t, http.StatusNotFound, recorder.Code)

	var payload errorResponse

	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	require.Equal(t, "event_not_found", payload.Error.Code)
}

func TestTriggerStatsForwardsPeriod(t *testing.T) {
	t.Parallel()

	service := &stubService{
		statsResult: &domain.TriggerStats{
			AlarmID:       "front-door",
			PeriodDays:    7,
			Total:         3,
			ResolvedCount: 2,
			ActiveCount:   1,
		},
	}
	router := newTestRouter(t, service)

	recorder := doRequest(t, router, http.MethodGet,
		"/api/v1/triggers/front-door/stats?period_days=7", signTestToken(t, "operator-1"), nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, 7, service.statsPeriod)

	var payload domain.TriggerStats

	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	require.Equal(t, 3, payload.Total)
}

func TestAllStatusesSummary(t *testing.T) {
	t.Parallel()

	service := &stubService{
		statuses: map[string]domain.Status{
			"front-door": domain.StatusArmed,
			"garage":     domain.StatusDisarmed,
		},
	}
	router := newTestRouter(t, service)

	recorder := doRequest(t, router, http.MethodGet,
		"/api/v1/arming", signTestToken(t, "operator-1"), nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var payload statusesResponse

	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	require.Equal(t, domain.StatusArmed, payload.Statuses["front-door"])
	require.Equal(t, domain.StatusDisarmed, payload.Statuses["garage"])
}
