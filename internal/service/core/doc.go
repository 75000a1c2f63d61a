// Package core implements the orchestration service: arm/disarm/trigger/
// resolve pipelines gated by the authorization delegate, serialized per
// alarm id, with best-effort side-effect fan-out after each committed
// transition.
package core
