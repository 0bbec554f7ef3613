package pcf2129

import (
	"errors"
	"fmt"
)

var (
	// ErrBusWrite is matched by errors returned when a register write is not
	// accepted by the bus.
	ErrBusWrite = errors.New("pcf2129: bus write failed")

	// ErrReadUnavailable is matched by errors returned when no byte could be
	// read back from a register. The value returned alongside is always 0.
	ErrReadUnavailable = errors.New("pcf2129: no byte available")

	ErrInvalidBCD = errors.New("pcf2129: invalid BCD value")
)

const (
	opRead  = "read"
	opWrite = "write"
)

// BusError is returned by register transactions that fail on the bus.
type BusError struct {
	Op  string // "read" or "write"
	Reg Register
	Err error // error reported by the bus
}

func (e *BusError) Error() string {
	return fmt.Sprintf("pcf2129: could not %s register %s: %v", e.Op, e.Reg, e.Err)
}

func (e *BusError) Unwrap() error { return e.Err }

func (e *BusError) Is(target error) bool {
	switch target {
	case ErrBusWrite:
		return e.Op == opWrite
	case ErrReadUnavailable:
		return e.Op == opRead
	}
	return false
}
