package ai

import (
	"time"

	"golang.org/x/time/rate"
)

// NewLimiter allows requestsPerMinute generation calls per minute with a burst of one.
// A non-positive rate returns nil, which disables limiting in Caller.
func NewLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
}
