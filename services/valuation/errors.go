package valuation

import (
	"errors"
	"fmt"
)

// Kind classifies every failure the pipeline can produce. The HTTP
// layer maps kinds to status codes; nothing else about an internal
// error leaks to callers.
type Kind string

const (
	// KindInvalidInput covers empty or malformed reference numbers.
	KindInvalidInput Kind = "invalid_input"
	// KindSessionStart covers browser launch/resource failures.
	KindSessionStart Kind = "session_start"
	// KindElementNotFound means a navigation step exhausted its
	// locator list without a visible match.
	KindElementNotFound Kind = "element_not_found"
	// KindNoSuggestions means the reference produced no entries in the
	// suggestion list within its wait budget.
	KindNoSuggestions Kind = "no_suggestions"
	// KindResultsNotRendered means submission went through but the
	// results surface never became visible.
	KindResultsNotRendered Kind = "results_not_rendered"
	// KindBlocked means the target's anti-bot defense rejected us.
	KindBlocked Kind = "blocked"
	// KindInsufficientData means extraction could not recover enough
	// price figures from the rendered page.
	KindInsufficientData Kind = "insufficient_data"
	// KindAuth covers login/authentication failures against the target.
	KindAuth Kind = "auth"
	// KindDeadline means the evaluation's wall-clock budget expired.
	KindDeadline Kind = "deadline"
	// KindInternal is everything unclassified.
	KindInternal Kind = "internal"
)

// Error is the classified failure type returned by Evaluate.
type Error struct {
	Kind Kind
	// Step names the pipeline stage that failed, e.g. "search_input".
	Step string
	Err  error
}

func (e *Error) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("%s at %s: %v", e.Kind, e.Step, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, step string, err error) *Error {
	return &Error{Kind: kind, Step: step, Err: err}
}

func errorf(kind Kind, step, format string, args ...any) *Error {
	return newError(kind, step, fmt.Errorf(format, args...))
}

// KindOf extracts the classification from any error returned by this
// package; unclassified errors map to KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

var publicMessages = map[Kind]string{
	KindInvalidInput:       "reference number is missing or malformed",
	KindSessionStart:       "could not start a browser session",
	KindElementNotFound:    "the valuation form did not render as expected",
	KindNoSuggestions:      "no products matched the reference number",
	KindResultsNotRendered: "the valuation results did not render",
	KindBlocked:            "the request was blocked by the target's bot protection",
	KindInsufficientData:   "not enough price data was found for this reference",
	KindAuth:               "authentication against the target failed",
	KindDeadline:           "the evaluation did not complete in time",
	KindInternal:           "internal error",
}

// PublicMessage returns a short, caller-safe description of err.
// Internal error chains never cross the API boundary.
func PublicMessage(err error) string {
	return publicMessages[KindOf(err)]
}
