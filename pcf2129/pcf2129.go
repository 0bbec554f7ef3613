// Package pcf2129 implements a driver for the PCF2129 Real-Time Clock (RTC). It starts and stops the oscillator, keeps
// the watchdog timer generating one interrupt pulse per second, acknowledges that interrupt and reads the time
// registers. Time fields are returned as the chip stores them (BCD, masked to their valid bits); DateTime.Time converts
// them when a time.Time is wanted.
//
// The interrupt output of the chip must be wired to a floating input: the chip drives the line itself and an
// internal pull-up on the host side breaks it.
//
// Datasheet: https://www.nxp.com/docs/en/data-sheet/PCF2129.pdf
package pcf2129

import (
	"sync"
	"sync/atomic"

	"github.com/ajanata/rtcdrivers"
)

// State is the oscillator state last written to the chip.
type State uint8

const (
	StateUnknown State = iota
	StateStopped
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	}
	return "unknown"
}

type Device struct {
	bus     drivers.I2C
	intPin  drivers.Pin
	Address uint8

	mu          sync.Mutex // held for a whole register transaction
	interrupted atomic.Bool
	state       atomic.Uint32
}

// New creates a new PCF2129 driver on the given I2C bus with its interrupt output connected to intPin. intPin may be
// nil when the interrupt is delivered some other way; SetInterrupted still works.
func New(bus drivers.I2C, intPin drivers.Pin) *Device {
	return &Device{
		bus:     bus,
		intPin:  intPin,
		Address: Address,
	}
}

// Configure prepares the interrupt pin and the bus, selects the default watchdog mode and leaves the clock stopped
// with the interrupt cleared. It is meant to run once, before Start.
func (d *Device) Configure() error {
	if d.intPin != nil {
		// never PinInputPullup: the chip drives this line
		err := d.intPin.Configure(drivers.PinConfig{Mode: drivers.PinInput})
		if err != nil {
			return err
		}
	}
	if c, ok := d.bus.(interface{ Configure() error }); ok {
		err := c.Configure()
		if err != nil {
			return err
		}
	}
	err := d.WriteRegister(WatchdgTimCtl, WatchdgTimCtlTiTp0)
	if serr := d.Stop(); err == nil {
		err = serr
	}
	return err
}

// Start runs the oscillator, with the watchdog generating a pulse every second, and acknowledges any pending
// interrupt. The acknowledgement is attempted even when the oscillator write fails; the first error is returned.
func (d *Device) Start() error {
	return d.transition(Control1Stop0, StateRunning)
}

// Stop halts the oscillator, keeping the watchdog pulse configuration, and acknowledges any pending interrupt.
// As with Start, both writes are always issued.
func (d *Device) Stop() error {
	return d.transition(Control1Stop1, StateStopped)
}

func (d *Device) transition(ctl uint8, st State) error {
	err := d.WriteRegister(Control1, ctl)
	if err == nil {
		d.state.Store(uint32(st))
	}
	if rerr := d.ResumeInterrupt(); err == nil {
		err = rerr
	}
	return err
}

// State returns the oscillator state last written by Start or Stop.
func (d *Device) State() State {
	return State(d.state.Load())
}

// SetInterrupted records that the interrupt line fired. It does no I/O and may be called from an interrupt handler or
// another goroutine.
func (d *Device) SetInterrupted() {
	d.interrupted.Store(true)
}

// ResumeInterrupt clears the interrupt flag on the chip, then the one recorded by SetInterrupted. If the chip cannot
// be written the recorded interrupt stays pending.
func (d *Device) ResumeInterrupt() error {
	err := d.WriteRegister(Control2, Control2Clear)
	if err != nil {
		return err
	}
	d.interrupted.Store(false)
	return nil
}

// IsInterrupted reports whether an interrupt was recorded and not yet resumed.
func (d *Device) IsInterrupted() bool {
	return d.interrupted.Load()
}

// IntPin returns the pin the interrupt output is connected to.
func (d *Device) IntPin() drivers.Pin {
	return d.intPin
}

// WriteRegister writes a single register.
func (d *Device) WriteRegister(reg Register, val uint8) error {
	buf := [2]byte{uint8(reg), val}

	d.mu.Lock()
	defer d.mu.Unlock()

	err := d.bus.Tx(uint16(d.Address), buf[:], nil)
	if err != nil {
		return &BusError{Op: opWrite, Reg: reg, Err: err}
	}
	return nil
}

// ReadRegister reads a single register: the register pointer is written in one transaction and the byte read back in
// a second one. When no byte can be read the returned value is 0, together with an error matching
// ErrReadUnavailable.
func (d *Device) ReadRegister(reg Register) (uint8, error) {
	w := [1]byte{uint8(reg)}
	r := [1]byte{}

	d.mu.Lock()
	defer d.mu.Unlock()

	err := d.bus.Tx(uint16(d.Address), w[:], nil)
	if err != nil {
		return 0, &BusError{Op: opRead, Reg: reg, Err: err}
	}
	err = d.bus.Tx(uint16(d.Address), nil, r[:])
	if err != nil {
		return 0, &BusError{Op: opRead, Reg: reg, Err: err}
	}
	return r[0], nil
}

func (d *Device) field(reg Register, mask uint8) (uint8, error) {
	v, err := d.ReadRegister(reg)
	return v & mask, err
}

// Second reads the seconds register, BCD 00-59.
func (d *Device) Second() (uint8, error) { return d.field(Seconds, 0x7F) }

// Minute reads the minutes register, BCD 00-59.
func (d *Device) Minute() (uint8, error) { return d.field(Minutes, 0x7F) }

// Hour reads the hours register. Only the low five bits are kept.
func (d *Device) Hour() (uint8, error) { return d.field(Hours, 0x1F) }

// Day reads the day of month register, BCD 01-31.
func (d *Device) Day() (uint8, error) { return d.field(Days, 0x3F) }

// Weekday reads the weekday register, 0-6.
func (d *Device) Weekday() (uint8, error) { return d.field(Weekdays, 0x07) }

// Month reads the month register. Only the low five bits are kept.
func (d *Device) Month() (uint8, error) { return d.field(Months, 0x1F) }

// Year reads the year register, BCD 00-99.
func (d *Device) Year() (uint8, error) { return d.field(Years, 0xFF) }
