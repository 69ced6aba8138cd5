package rate

import "errors"

// ErrRateLimited is returned when a throttle rejects or cannot admit a call.
var ErrRateLimited = errors.New("rate limited")
