package fetcher

import "github.com/rotisserie/eris"

// Sentinel errors covering the fetcher's slice of the closed error-kind
// set. The orchestrator maps these to edgarmodel.ErrorKind at its
// boundary.
var (
	ErrConfig     = eris.New("fetcher: config error")
	ErrNotFound   = eris.New("fetcher: not found")
	ErrRateLimit  = eris.New("fetcher: rate limited after retries exhausted")
	ErrFetch      = eris.New("fetcher: fetch error")
)

// IsNotFound reports whether err (or anything it wraps) is ErrNotFound.
func IsNotFound(err error) bool { return eris.Is(err, ErrNotFound) }

// IsRateLimited reports whether err (or anything it wraps) is ErrRateLimit.
func IsRateLimited(err error) bool { return eris.Is(err, ErrRateLimit) }

// IsConfig reports whether err (or anything it wraps) is ErrConfig.
func IsConfig(err error) bool { return eris.Is(err, ErrConfig) }
