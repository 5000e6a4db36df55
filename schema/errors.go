package schema

import "errors"

var (
	// ErrInvalidRequest indicates a malformed request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrEmptyInput indicates an empty address bar submission.
	ErrEmptyInput = errors.New("empty input")
	// ErrTabNotFound indicates a requested tab could not be found.
	ErrTabNotFound = errors.New("tab not found")
	// ErrNoActiveTab indicates the group has no active tab.
	ErrNoActiveTab = errors.New("no active tab")
	// ErrTabClosed indicates the tab is closing or closed.
	ErrTabClosed = errors.New("tab is closed")
	// ErrUnknownPage indicates an unknown zero:// page.
	ErrUnknownPage = errors.New("unknown internal page")
	// ErrInvalidTier indicates an unknown tier name.
	ErrInvalidTier = errors.New("invalid tier")
	// ErrUnknownSearchEngine indicates an unknown search engine name.
	ErrUnknownSearchEngine = errors.New("unknown search engine")
	// ErrInvalidPattern indicates an empty or malformed host pattern.
	ErrInvalidPattern = errors.New("invalid host pattern")
	// ErrStaticNavigation indicates a navigation request on a static document.
	ErrStaticNavigation = errors.New("static documents cannot navigate")
	// ErrNotAttached indicates the view backend has no live surface.
	ErrNotAttached = errors.New("view not attached")
	// ErrMissingHost indicates no view host was configured.
	ErrMissingHost = errors.New("view host not configured")
	// ErrMissingDispatcher indicates no dispatcher was configured.
	ErrMissingDispatcher = errors.New("dispatcher not configured")
	// ErrLoopClosed indicates the dispatcher loop has stopped.
	ErrLoopClosed = errors.New("loop closed")
)
