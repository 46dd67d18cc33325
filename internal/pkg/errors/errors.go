package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalid           = errors.New("invalid")
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrOutOfRange        = errors.New("out of range")
	ErrTimeout           = errors.New("timeout")
	ErrTooMany           = errors.New("too many requests")
	ErrInternal          = errors.New("internal")
)

// OutOfRangeError reports an interpolation target outside the observed
// numeric range of a categorical group, together with the nearest bound.
type OutOfRangeError struct {
	Target float64
	Bound  float64
	Side   string
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("target %g is %s the %s bound %g", e.Target, sideWord(e.Side), e.Side, e.Bound)
}

func (e *OutOfRangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

func sideWord(side string) string {
	if side == "lower" {
		return "below"
	}
	return "above"
}

func Invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalid)
}

// AsOutOfRange unwraps err into an OutOfRangeError when possible.
func AsOutOfRange(err error) (*OutOfRangeError, bool) {
	var target *OutOfRangeError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}
