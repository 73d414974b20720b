package rights

import "errors"

// Failure kinds surfaced by Searcher implementations. Callers classify with
// errors.Is; every search error wraps exactly one of these.
var (
	ErrUnauthorized = errors.New("platform: unauthorized")
	ErrRateLimited  = errors.New("platform: rate limited")
	ErrNetwork      = errors.New("platform: network failure")
)

// ErrSetup marks configuration or environment failures detected before any
// collection work starts. Only this kind terminates the process.
var ErrSetup = errors.New("setup failure")
