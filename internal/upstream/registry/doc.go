// Package registry implements the client for the external alarm registry and
// the authorization delegate built on top of it.
//
// The registry owns alarms and their subject links; this core only reads
// them. The delegate applies the operation gating table with fail-closed
// semantics: any transport fault is treated as "not authorized".
package registry
