// Package fanout dispatches the advisory side effects of state transitions
// (audit-log writes and user notifications) with an at-most-once, no-retry
// policy. Failures are absorbed locally and never reach the caller.
package fanout
