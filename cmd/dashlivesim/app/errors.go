package app

import (
	"errors"
	"fmt"
)

var errNotFound = errors.New("not found")

// errConfig is a fatal configuration problem such as an unknown file
// extension, a zero total loop duration, or a bad number of
// representations. Never retried.
type errConfig struct {
	msg string
}

func newErrConfig(format string, args ...any) errConfig {
	return errConfig{msg: fmt.Sprintf(format, args...)}
}

func (e errConfig) Error() string {
	return e.msg
}

// errTooEarly covers init and media requests before their availability window.
type errTooEarly struct {
	deltaMS int
}

func newErrTooEarly(deltaMS int) errTooEarly {
	return errTooEarly{deltaMS: deltaMS}
}

func (e errTooEarly) Error() string {
	return fmt.Sprintf("%.1fs too early", float64(e.deltaMS)*0.001)
}

// errTooLate is returned when a media request comes after
// availabilityEndTime plus the fixed grace period.
type errTooLate struct {
	deltaMS int
}

func (e errTooLate) Error() string {
	return fmt.Sprintf("%.1fs too late (after AET)", float64(e.deltaMS)*0.001)
}

// errSegmentRange is returned for segment numbers outside
// [startNumber, lastSegmentNumber].
type errSegmentRange struct {
	nr     int
	bound  int
	beyond bool
}

func (e errSegmentRange) Error() string {
	if e.beyond {
		return fmt.Sprintf("request for segment %d beyond last (%d)", e.nr, e.bound)
	}
	return fmt.Sprintf("request for segment %d before first %d", e.nr, e.bound)
}

// errFaultInjected is a deliberately simulated outage. It has the same
// shape as a timing error so that clients cannot tell them apart.
type errFaultInjected struct {
	atS int
}

func (e errFaultInjected) Error() string {
	return fmt.Sprintf("baseURL server down at %d", e.atS)
}
