// Package tester contains fake buses, pins and chips for testing drivers
// without hardware.
package tester

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNACK is returned for transactions to an address no device answers.
var ErrNACK = errors.New("tester: NACK received")

// Failer is the subset of testing.TB (and quicktest's C) used to report
// misuse of a fake.
type Failer interface {
	Helper()
	Fatalf(format string, args ...interface{})
}

// I2CDevice is a fake device attached to an I2CBus.
type I2CDevice interface {
	Addr() uint16
	Tx(w, r []byte) error
}

// Tx is one recorded bus transaction.
type Tx struct {
	Addr uint16
	W    []byte
	R    []byte // bytes handed back to the caller
	Err  error
}

func (tx Tx) String() string {
	switch {
	case len(tx.W) > 0 && len(tx.R) > 0:
		return fmt.Sprintf("0x%02x W % x R % x > %v", tx.Addr, tx.W, tx.R, tx.Err)
	case len(tx.R) > 0:
		return fmt.Sprintf("0x%02x R % x > %v", tx.Addr, tx.R, tx.Err)
	}
	return fmt.Sprintf("0x%02x W % x > %v", tx.Addr, tx.W, tx.Err)
}

// I2CBus is a fake I2C bus which records every transaction.
type I2CBus struct {
	c Failer

	mu      sync.Mutex
	devices []I2CDevice
	log     []Tx
}

// NewI2CBus returns a bus with no device attached.
func NewI2CBus(c Failer) *I2CBus {
	return &I2CBus{c: c}
}

// AddDevice attaches d to the bus.
func (bus *I2CBus) AddDevice(d I2CDevice) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.devices = append(bus.devices, d)
}

// Tx implements drivers.I2C.
func (bus *I2CBus) Tx(addr uint16, w, r []byte) error {
	if len(w) == 0 && len(r) == 0 {
		bus.c.Helper()
		bus.c.Fatalf("empty transaction to address 0x%02x", addr)
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	err := ErrNACK
	for _, d := range bus.devices {
		if d.Addr() == addr {
			err = d.Tx(w, r)
			break
		}
	}
	tx := Tx{Addr: addr, W: clone(w), Err: err}
	if err == nil {
		tx.R = clone(r)
	}
	bus.log = append(bus.log, tx)
	return err
}

// Log returns the transactions recorded since the bus was created or last
// reset.
func (bus *I2CBus) Log() []Tx {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	log := make([]Tx, len(bus.log))
	copy(log, bus.log)
	return log
}

// Writes returns the payload of every write-only transaction in the log.
func (bus *I2CBus) Writes() [][]byte {
	var ws [][]byte
	for _, tx := range bus.Log() {
		if len(tx.W) > 0 && len(tx.R) == 0 {
			ws = append(ws, tx.W)
		}
	}
	return ws
}

// ResetLog forgets the recorded transactions.
func (bus *I2CBus) ResetLog() {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.log = nil
}

func clone(p []byte) []byte {
	if p == nil {
		return nil
	}
	return append([]byte(nil), p...)
}
