// Package arming holds the authoritative armed/disarmed status table,
// sharded by alarm id so unrelated alarms never contend on one lock.
package arming
