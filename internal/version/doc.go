// Package version exposes the orchestrator's build metadata.
//
// ServiceName is the canonical service identifier used in version output
// and the health payload. Version, Commit and BuildTime are injected at
// build time via Go ldflags and default to sensible values for local
// builds. Short and Full render the version string for CLI output and logs.
package version
