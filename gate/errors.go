package gate

import "errors"

// Sentinel errors returned by the gate.
var (
	ErrNotLoggedIn  = errors.New("not logged in")
	ErrAccessDenied = errors.New("access denied")
	ErrNoPages      = errors.New("no pages available")
	ErrUnknownPage  = errors.New("unknown page")
	ErrUnknownRole  = errors.New("unknown role")
)
