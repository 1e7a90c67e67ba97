package insights

import "errors"

var (
	// ErrRefreshInProgress rejects a refresh while another one is pending.
	ErrRefreshInProgress = errors.New("insights: refresh already in progress")
	// ErrSessionClosed is returned when a session is closed mid-operation.
	ErrSessionClosed = errors.New("insights: session closed")
	// ErrSessionRequired is returned when a call carries no session id.
	ErrSessionRequired = errors.New("insights: session id is required")
	// ErrUnknownPreset is returned for a preset name that is not registered.
	ErrUnknownPreset = errors.New("insights: unknown filter preset")
	// ErrUnknownShortcut is returned for a key chord with no binding.
	ErrUnknownShortcut = errors.New("insights: unknown keyboard shortcut")
	// ErrInvalidFilters wraps payload validation failures.
	ErrInvalidFilters = errors.New("insights: invalid filter payload")
)
