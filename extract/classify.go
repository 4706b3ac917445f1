package extract

import (
	"context"
	"errors"
	"strings"
)

var rateLimitPatterns = []string{
	"429", "rate limit", "rate-limit", "ratelimit",
	"too many requests", "throttl", "quota",
}

var configPatterns = []string{
	"401", "403", "unauthorized", "forbidden", "invalid api key",
	"api key", "authentication", "credential", "permission",
}

var timeoutPatterns = []string{
	"timeout", "timed out", "deadline exceeded",
}

// classifyCallError maps a transport-level failure of the generation call to
// exactly one error kind. Providers surface failures as opaque error strings,
// so classification matches status-code digits and well-known substrings.
func classifyCallError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		return &Error{Reason: ReasonTimeout, Err: err}
	}
	msg := strings.ToLower(err.Error())
	if matchesAny(msg, rateLimitPatterns) {
		return &RateLimitError{Err: err}
	}
	if matchesAny(msg, timeoutPatterns) {
		return &Error{Reason: ReasonTimeout, Err: err}
	}
	if matchesAny(msg, configPatterns) {
		return &Error{Reason: ReasonConfig, Err: err}
	}
	return &Error{Reason: ReasonGeneric, Err: err}
}

func matchesAny(msg string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
