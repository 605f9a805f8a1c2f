package fundamentals

import (
	"errors"
	"fmt"
)

// ErrDataUnavailable means no usable fundamentals record exists for the
// ticker. It is the only failure the valuation pipeline propagates;
// incomplete statements resolve to documented fallbacks instead.
var ErrDataUnavailable = errors.New("no usable company data")

// ErrRateLimited is the transient subtype of ErrDataUnavailable raised when
// the provider throttles us. errors.Is(err, ErrDataUnavailable) holds for it
// too, so callers that don't care about the distinction treat both the same.
var ErrRateLimited = fmt.Errorf("%w: rate limited by provider", ErrDataUnavailable)
