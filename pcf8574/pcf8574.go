// Package pcf8574 is a driver for the PCF8574 I2C GPIO expander.
//
// Each pin is either high (weak pull-up) or low (sinking current). A pin used as input is set high and read back:
// something outside pulls it low. A low pin sinks enough current for an indicator LED, which is how pcf2129d shows
// the watchdog tick.
//
// The chip has no registers: a one byte write sets all pins, a one byte read returns them.
//
// Datasheet: https://cdn-learn.adafruit.com/assets/assets/000/113/910/original/pcf8574.pdf
package pcf8574

import (
	"fmt"
	"sync"

	"github.com/ajanata/rtcdrivers"
)

const DefaultAddress = 0x20

type Device struct {
	bus  drivers.I2C
	addr uint16

	mu    sync.Mutex
	state uint8 // last value written
}

type Config struct {
	Address uint8
}

// Report is the level of every pin, one bit per pin.
type Report uint8

// New creates a new driver on the specified preconfigured I2C bus. The datasheet claims a maximum speed of 100 kHz.
func New(bus drivers.I2C) *Device {
	return &Device{
		bus:   bus,
		addr:  DefaultAddress,
		state: 0xFF,
	}
}

// Configure sets the address and drives every pin high, the power-on state of the chip.
func (d *Device) Configure(c Config) error {
	if c.Address != 0 {
		d.addr = uint16(c.Address)
	}
	return d.SetAll(0xFF)
}

// SetPin sets a single pin: true for the weak pull-up, false to sink current.
func (d *Device) SetPin(pin uint8, val bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if val {
		return d.send(d.state | 1<<pin)
	}
	return d.send(d.state &^ (1 << pin))
}

// Toggle inverts the last level written to pin.
func (d *Device) Toggle(pin uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.send(d.state ^ 1<<pin)
}

// SetAll sets all pins at once from their bit in state.
func (d *Device) SetAll(state uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.send(state)
}

// State returns the pin levels last written.
func (d *Device) State() uint8 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Device) send(state uint8) error {
	buf := [1]byte{state}
	err := d.bus.Tx(d.addr, buf[:], nil)
	if err != nil {
		return fmt.Errorf("pcf8574: could not write 0x%02x to device 0x%02x: %w", state, d.addr, err)
	}
	d.state = state
	return nil
}

// Read reads the level of every pin.
func (d *Device) Read() (Report, error) {
	var buf [1]byte
	err := d.bus.Tx(d.addr, nil, buf[:])
	if err != nil {
		return 0, fmt.Errorf("pcf8574: could not read device 0x%02x: %w", d.addr, err)
	}
	return Report(buf[0]), nil
}

// Pin reports whether the specified pin is high.
func (r Report) Pin(p uint8) bool {
	return r&(1<<p) > 0
}
