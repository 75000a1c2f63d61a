package alarm

import "errors"

var (
	// ErrUnauthenticated means the request carried no valid credential.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrUnauthorized means the credential is valid but the subject's link
	// or role is insufficient for the operation.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrAlarmNotFound means the registry has no alarm with that id.
	ErrAlarmNotFound = errors.New("alarm not found")
	// ErrAlarmNotArmed means a trigger was recorded while the alarm was disarmed.
	ErrAlarmNotArmed = errors.New("alarm is not armed")
	// ErrEventNotFound means the ledger has no trigger event with that id.
	ErrEventNotFound = errors.New("trigger event not found")
	// ErrUpstreamUnavailable means a required collaborator could not be reached.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrValidation means a required request field is missing or malformed.
	ErrValidation = errors.New("validation failed")
)
