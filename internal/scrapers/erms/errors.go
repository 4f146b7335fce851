package erms

import "fmt"

// Stage names one of the three round trips of a search.
type Stage string

const (
	StageBootstrap Stage = "bootstrap"
	StageDropdown  Stage = "dropdown"
	StageSearch    Stage = "search"
)

// ProtocolError means the portal answered but an expected element or token
// was missing, usually because the markup changed or the session broke.
type ProtocolError struct {
	Stage  Stage
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("erms: protocol error during %s: %s", e.Stage, e.Reason)
}

// NetworkError wraps a transport failure or an unexpected http status.
type NetworkError struct {
	Stage Stage
	Err   error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("erms: network error during %s: %s", e.Stage, e.Err.Error())
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
