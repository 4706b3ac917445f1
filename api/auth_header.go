package api

import (
	"errors"
	"strings"
)

var (
	errMissingAuthorization = errors.New("missing authorization header")
	errBadAuthorization     = errors.New("bad auth header")
)

const bearerPrefix = "Bearer "

// bearerToken extracts the JWT from an Authorization header value. The cheap
// shape checks run before any signature work.
func bearerToken(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errMissingAuthorization
	}
	if len(raw) <= len(bearerPrefix) || !strings.HasPrefix(raw, bearerPrefix) {
		return "", errBadAuthorization
	}
	token := raw[len(bearerPrefix):]
	if strings.Count(token, ".") != 2 {
		return "", errBadAuthorization
	}
	return token, nil
}
