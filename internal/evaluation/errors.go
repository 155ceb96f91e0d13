package evaluation

import (
	"errors"
	"fmt"
)

// AggregationError is returned when no decision can be derived from the collected reviews.
type AggregationError struct {
	Reason string
	Err    error
}

func (e *AggregationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("aggregate reviews: %s: %v", e.Reason, e.Err)
	}
	return "aggregate reviews: " + e.Reason
}

func (e *AggregationError) Unwrap() error { return e.Err }

// IsAggregationError reports whether err wraps an *AggregationError.
func IsAggregationError(err error) bool {
	var ae *AggregationError
	return errors.As(err, &ae)
}
