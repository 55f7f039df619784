package feemarket

import (
	"errors"
	"fmt"
)

// Admission and settlement errors
var (
	ErrTooManyActiveThreadCount = errors.New("too many active work units")
	ErrNoAddress                = errors.New("work unit touches no address")
	ErrAlreadyActive            = errors.New("address already in use by an active work unit")
	ErrAlreadyMeasuring         = errors.New("work unit is already being measured")
	ErrNotMeasured              = errors.New("work unit is not being measured")
	ErrInsufficientSuppliedFee  = errors.New("insufficient supplied fee")
)

// InsufficientSuppliedFeeError reports the offered fee together with the minimum required
type InsufficientSuppliedFeeError struct {
	Offered  uint64
	Required uint64
}

func (e *InsufficientSuppliedFeeError) Error() string {
	return fmt.Sprintf("insufficient supplied fee: offered %d, required %d", e.Offered, e.Required)
}

// Is lets errors.Is(err, ErrInsufficientSuppliedFee) match
func (e *InsufficientSuppliedFeeError) Is(target error) bool {
	return target == ErrInsufficientSuppliedFee
}

// ErrorKind returns a stable label for err, used by metrics and records
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTooManyActiveThreadCount):
		return "TooManyActiveThreadCount"
	case errors.Is(err, ErrNoAddress):
		return "NoAddress"
	case errors.Is(err, ErrAlreadyActive):
		return "AlreadyActive"
	case errors.Is(err, ErrAlreadyMeasuring):
		return "AlreadyMeasuring"
	case errors.Is(err, ErrNotMeasured):
		return "NotMeasured"
	case errors.Is(err, ErrInsufficientSuppliedFee):
		return "InsufficientSuppliedFee"
	default:
		return "Unknown"
	}
}
