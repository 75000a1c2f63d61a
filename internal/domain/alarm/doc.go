// Package alarm contains core domain types for the orchestration business logic.
//
// It defines arming Status, link Role with the operation gating table,
// TriggerEvent with its active/resolved lifecycle, and the sentinel error
// taxonomy shared by services and the transport layer.
package alarm
