// Package failure defines the error kinds shared by every stage of a run.
// Stages wrap these with fmt.Errorf("%w: ...") so callers can branch with
// errors.Is without caring which vendor produced the failure.
package failure

import "errors"

var (
	// ErrAuth means a credential was missing, rejected, or could not be obtained.
	ErrAuth = errors.New("authentication failed")
	// ErrUpstreamShape means a remote answered with a body we could not use.
	ErrUpstreamShape = errors.New("unexpected upstream response")
	// ErrTransport means the request itself failed or returned a non-2xx status.
	ErrTransport = errors.New("transport failure")
	// ErrUnimplemented marks publish branches that exist only as placeholders.
	ErrUnimplemented = errors.New("not implemented")
	// ErrUnsupportedRoute marks a route selector with no publish branch.
	ErrUnsupportedRoute = errors.New("unsupported route")
)
