// Package config defines orchestrator settings used by binaries and provides
// helpers to load, validate and save them in YAML format.
//
// The Config type holds the HTTP listen address, upstream collaborator URLs
// (registry, log sink, notification sink), the bearer-credential secret and
// the trigger ledger path.
package config
