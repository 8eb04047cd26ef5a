package retry

import (
	"context"
	"errors"
	"fmt"

	"captionsync/internal/services"
)

// Reason classifies why an attempt failed.
type Reason string

// Failure reasons.
const (
	ReasonLowConfidence      Reason = "low_confidence"
	ReasonAPIError           Reason = "api_error"
	ReasonTimeout            Reason = "timeout"
	ReasonQualityCheckFailed Reason = "quality_check_failed"
	ReasonTimingMismatch     Reason = "timing_mismatch"
	ReasonTranslationError   Reason = "translation_error"
	ReasonCanceled           Reason = "canceled"
)

// Rejection is returned by a Predicate that refuses a result.
type Rejection struct {
	Reason Reason
	Detail string
}

func (r *Rejection) Error() string {
	if r.Detail == "" {
		return string(r.Reason)
	}
	return fmt.Sprintf("%s: %s", r.Reason, r.Detail)
}

// Reject builds a Rejection.
func Reject(reason Reason, format string, args ...any) *Rejection {
	return &Rejection{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// ReasonOf classifies an attempt error.
func ReasonOf(err error) Reason {
	var rejection *Rejection
	switch {
	case err == nil:
		return ""
	case errors.As(err, &rejection):
		return rejection.Reason
	case errors.Is(err, context.Canceled):
		return ReasonCanceled
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, services.ErrTimeout):
		return ReasonTimeout
	default:
		return ReasonAPIError
	}
}

// ExhaustedError reports an operation that failed every allowed attempt.
// errors.Is matches both services.ErrExhausted and the last cause.
type ExhaustedError struct {
	Operation  string
	Attempts   int
	RetryCount int
	Last       error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Operation, e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() []error {
	return []error{services.ErrExhausted, e.Last}
}
