// Package alarm exposes the orchestration core over JSON HTTP.
//
// It is a thin transport: handlers decode requests, resolve the caller
// identity, call the Service interface and translate the domain error
// taxonomy into status codes (401/403/404/409/400/502). The health route is
// exempt from authentication; trigger recording accepts anonymous,
// sensor-originated requests.
package alarm
