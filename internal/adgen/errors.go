package adgen

import "errors"

// Kind classifies a failure so the driving surface can tell the user what to
// do about it. None of these is retried automatically; the user re-triggers
// the same action.
type Kind string

const (
	// KindIncompleteResponse: model output parsed but misses required fields.
	KindIncompleteResponse Kind = "incomplete_response"
	// KindMalformedOutput: model output is not valid JSON.
	KindMalformedOutput Kind = "malformed_output"
	// KindUpstreamError: transport, auth or rate-limit failure.
	KindUpstreamError Kind = "upstream_error"
	// KindModerationBlocked: a generation/edit prompt was rejected by the
	// safety filter.
	KindModerationBlocked Kind = "moderation_blocked"
	// KindInvalidRecommendation: recommendation value outside {edit, new}.
	KindInvalidRecommendation Kind = "invalid_recommendation"
)

// Error carries a Kind alongside the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// WrapErr builds an *Error around a cause.
func WrapErr(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the Kind from an error chain, or "" when none is present.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Engine precondition violations. These are caller mistakes, not upstream
// failures, so they sit outside the Kind taxonomy.
var (
	ErrAlreadySeeded = errors.New("session already seeded")
	ErrNotSeeded     = errors.New("session has no concept yet")
	ErrComplete      = errors.New("session reached its iteration limit")
)
