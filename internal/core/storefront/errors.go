package storefront

import "fmt"

// HostErrorType defines why a host could not be served.
type HostErrorType int

const (
	ErrorNotFound HostErrorType = iota
	ErrorNotApproved
	ErrorUnavailable
)

// HostError represents a failure to resolve a storefront host.
type HostError struct {
	Type       HostErrorType
	Hostname   string
	Message    string
	StatusCode int
}

// Error implements the error interface.
func (e HostError) Error() string {
	return e.Message
}

// NewNotFoundError creates an error for an unknown hostname.
func NewNotFoundError(hostname string) HostError {
	return HostError{
		Type:       ErrorNotFound,
		Hostname:   hostname,
		Message:    fmt.Sprintf("store not found: %s", hostname),
		StatusCode: 404,
	}
}

// NewNotApprovedError creates an error for a store that is not public yet.
// It reports 404 so pending stores are indistinguishable from unknown ones.
func NewNotApprovedError(hostname string) HostError {
	return HostError{
		Type:       ErrorNotApproved,
		Hostname:   hostname,
		Message:    fmt.Sprintf("store not found: %s", hostname),
		StatusCode: 404,
	}
}

// NewUnavailableError creates an error for a backend failure.
func NewUnavailableError(hostname string) HostError {
	return HostError{
		Type:       ErrorUnavailable,
		Hostname:   hostname,
		Message:    fmt.Sprintf("store unavailable: %s", hostname),
		StatusCode: 503,
	}
}
