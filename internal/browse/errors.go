package browse

import "fmt"

// SessionInitError reports a browser bring-up failure. It is fatal: the
// orchestrator aborts the whole run when it sees one.
type SessionInitError struct {
	Err error
}

func (e *SessionInitError) Error() string { return fmt.Sprintf("session init: %v", e.Err) }
func (e *SessionInitError) Unwrap() error { return e.Err }

// NavigationError reports a failed or timed-out page load. Recoverable:
// scoped to the tool that was navigating.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string { return fmt.Sprintf("navigate %s: %v", e.URL, e.Err) }
func (e *NavigationError) Unwrap() error { return e.Err }

// ElementNotFoundError reports that a selector never appeared within its
// timeout. Recoverable: scoped to the tool that was waiting.
type ElementNotFoundError struct {
	Selector string
	Err      error
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("element %q not found: %v", e.Selector, e.Err)
}
func (e *ElementNotFoundError) Unwrap() error { return e.Err }
