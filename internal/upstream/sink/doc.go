// Package sink implements clients for the external audit-log and user
// notification sinks. Deliveries are fire-and-forget from the core's
// perspective: a failed attempt is reported to the caller, which records it
// locally and never retries.
package sink
