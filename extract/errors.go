package extract

import "fmt"

// RateLimitError signals the text-generation service rejected the call due to
// rate or quota limits. Callers should treat it as transient and retry later.
type RateLimitError struct {
	Err error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("text generation rate limited: %v", e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// Reason discriminates the ways an extraction call can fail once rate
// limiting has been ruled out.
type Reason string

const (
	ReasonConfig        Reason = "config"
	ReasonTimeout       Reason = "timeout"
	ReasonEmptyResponse Reason = "empty_response"
	ReasonMalformed     Reason = "malformed"
	ReasonSchema        Reason = "schema_mismatch"
	ReasonGeneric       Reason = "generic"
)

// Error is a classified extraction failure. Exactly one Error or
// RateLimitError is produced per failed call; nothing is retried internally.
type Error struct {
	Reason Reason
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("extraction failed (%s): %s: %v", e.Reason, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("extraction failed (%s): %s", e.Reason, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("extraction failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("extraction failed (%s)", e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }
