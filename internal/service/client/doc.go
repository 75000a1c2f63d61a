// Package client implements the operator-side commands for alarm-ctl.
//
// It wraps the orchestrator's HTTP API in a typed client and exposes one
// Run function per subcommand: arming, disarming, status queries, trigger
// recording, resolution, listings and statistics.
package client
