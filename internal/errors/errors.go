package errors

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"
)

// receiverMarker is implemented by all receiver-core error kinds so callers
// can classify any of them with a single errors.As check.
type receiverMarker interface {
	error
	isReceiver()
}

// MalformedError indicates a packet failed to parse (spec §7: Malformed).
// It is always non-fatal: the caller drops the packet and counts it.
type MalformedError struct {
	Op  string
	Err error
}

func (e *MalformedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("malformed packet: %s", e.Op)
	}
	return fmt.Sprintf("malformed packet: %s: %v", e.Op, e.Err)
}
func (e *MalformedError) Unwrap() error { return e.Err }
func (e *MalformedError) isReceiver()   {}

// NotRequestedError indicates a segment arrived for a prefix the buffer
// never requested. Dropped by the caller.
type NotRequestedError struct {
	Op  string
	Err error
}

func (e *NotRequestedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("not requested: %s", e.Op)
	}
	return fmt.Sprintf("not requested: %s: %v", e.Op, e.Err)
}
func (e *NotRequestedError) Unwrap() error { return e.Err }
func (e *NotRequestedError) isReceiver()   {}

// BadInterestRangeError indicates a slot received Interests that do not all
// share its established sample prefix, or a non segment-level name. This is
// a pipeliner bug and is surfaced to the caller rather than swallowed.
type BadInterestRangeError struct {
	Op  string
	Err error
}

func (e *BadInterestRangeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("bad interest range: %s", e.Op)
	}
	return fmt.Sprintf("bad interest range: %s: %v", e.Op, e.Err)
}
func (e *BadInterestRangeError) Unwrap() error { return e.Err }
func (e *BadInterestRangeError) isReceiver()   {}

// PoolExhaustedError indicates the slot pool has no free slots. Surfaced to
// the caller so the pipeliner can back off.
type PoolExhaustedError struct {
	Op string
}

func (e *PoolExhaustedError) Error() string { return fmt.Sprintf("pool exhausted: %s", e.Op) }
func (e *PoolExhaustedError) isReceiver()   {}

// TimeoutError indicates an Interest outlived its lifetime without a Data
// reply. Handled locally by the pipeliner per MaxRtx; only surfaced as a
// PlaybackEvent once retries are exceeded.
type TimeoutError struct {
	Op       string
	Duration time.Duration
	Err      error
}

func (e *TimeoutError) Error() string {
	base := fmt.Sprintf("timeout: %s (after %s)", e.Op, e.Duration)
	if e.Err != nil {
		return base + ": " + e.Err.Error()
	}
	return base
}
func (e *TimeoutError) Unwrap() error { return e.Err }
func (e *TimeoutError) isReceiver()   {}

// StarvationError indicates no Data has been received for the starvation
// window. Surfaced to the pipeliner, triggering a state rollback.
type StarvationError struct {
	Op       string
	Duration time.Duration
}

func (e *StarvationError) Error() string {
	return fmt.Sprintf("starvation: %s (idle %s)", e.Op, e.Duration)
}
func (e *StarvationError) isReceiver() {}

// InvalidatedError is session-level fatal: propagated through the observer,
// never retried.
type InvalidatedError struct {
	Op  string
	Err error
}

func (e *InvalidatedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalidated: %s", e.Op)
	}
	return fmt.Sprintf("invalidated: %s: %v", e.Op, e.Err)
}
func (e *InvalidatedError) Unwrap() error { return e.Err }
func (e *InvalidatedError) isReceiver()   {}

// IsTimeout returns true if err is (or wraps) a TimeoutError, a context
// deadline exceeded, or any error type exposing Timeout() bool == true.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	var te *TimeoutError
	if stdErrors.As(err, &te) {
		return true
	}
	if stdErrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var toErr interface{ Timeout() bool }
	if stdErrors.As(err, &toErr) && toErr.Timeout() {
		return true
	}
	return false
}

// IsPoolExhausted reports whether err is (or wraps) a PoolExhaustedError.
func IsPoolExhausted(err error) bool {
	var pe *PoolExhaustedError
	return stdErrors.As(err, &pe)
}

// IsStarvation reports whether err is (or wraps) a StarvationError.
func IsStarvation(err error) bool {
	var se *StarvationError
	return stdErrors.As(err, &se)
}

// IsReceiverError returns true if the error chain contains any receiver-core
// error kind (Malformed, NotRequested, BadInterestRange, PoolExhausted,
// Timeout, Starvation, Invalidated).
func IsReceiverError(err error) bool {
	if err == nil {
		return false
	}
	var rm receiverMarker
	return stdErrors.As(err, &rm)
}

// Constructors (encourage contextual wrapping with %w at call sites).
func NewMalformedError(op string, cause error) error { return &MalformedError{Op: op, Err: cause} }
func NewNotRequestedError(op string, cause error) error {
	return &NotRequestedError{Op: op, Err: cause}
}
func NewBadInterestRangeError(op string, cause error) error {
	return &BadInterestRangeError{Op: op, Err: cause}
}
func NewPoolExhaustedError(op string) error { return &PoolExhaustedError{Op: op} }
func NewTimeoutError(op string, d time.Duration, cause error) error {
	return &TimeoutError{Op: op, Duration: d, Err: cause}
}
func NewStarvationError(op string, idle time.Duration) error {
	return &StarvationError{Op: op, Duration: idle}
}
func NewInvalidatedError(op string, cause error) error { return &InvalidatedError{Op: op, Err: cause} }
