// Package hw opens the I2C transport and interrupt pin selected by the
// configuration.
package hw

import (
	"fmt"
	"io"

	"go.bug.st/serial"

	"github.com/ajanata/rtcdrivers"
	"github.com/ajanata/rtcdrivers/internal/config"
	"github.com/ajanata/rtcdrivers/periphio"
	"github.com/ajanata/rtcdrivers/sc18im700"
	"github.com/ajanata/rtcdrivers/smbusi2c"
)

// Hardware is an opened I2C transport and interrupt pin.
type Hardware struct {
	Bus     drivers.I2C
	Pin     *periphio.Pin // nil when no interrupt pin is configured
	closers []io.Closer
}

// Open opens the bus described by cfg.Bus and the pin named by
// cfg.Device.InterruptPin.
func Open(cfg *config.Config) (*Hardware, error) {
	var hw Hardware
	fail := func(err error) (*Hardware, error) {
		hw.Close()
		return nil, err
	}

	switch cfg.Bus.Kind {
	case config.BusPeriph:
		bus, err := periphio.OpenBus(cfg.Bus.Name)
		if err != nil {
			return nil, err
		}
		hw.Bus = bus
		hw.closers = append(hw.closers, bus)

	case config.BusSMBus:
		bus, conn, err := smbusi2c.Open(cfg.Bus.SMBus, uint8(cfg.Device.Address))
		if err != nil {
			return nil, err
		}
		hw.Bus = bus
		hw.closers = append(hw.closers, conn)

	case config.BusSC18IM700:
		port, err := serial.Open(cfg.Bus.Serial, &serial.Mode{BaudRate: cfg.Bus.Baud})
		if err != nil {
			return nil, fmt.Errorf("hw: could not open serial port %q: %w", cfg.Bus.Serial, err)
		}
		hw.closers = append(hw.closers, port)
		err = port.SetReadTimeout(cfg.SerialTimeout())
		if err != nil {
			return fail(fmt.Errorf("hw: could not set read timeout on %q: %w", cfg.Bus.Serial, err))
		}
		hw.Bus = sc18im700.New(port)

	default:
		return nil, fmt.Errorf("hw: unknown bus kind %q", cfg.Bus.Kind)
	}

	if cfg.Device.InterruptPin != "" {
		pin, err := periphio.LookupPin(cfg.Device.InterruptPin)
		if err != nil {
			return fail(err)
		}
		hw.Pin = pin
	}
	return &hw, nil
}

// IntPin returns the interrupt pin, or a nil interface when there is none.
func (hw *Hardware) IntPin() drivers.Pin {
	if hw.Pin == nil {
		return nil
	}
	return hw.Pin
}

// Close closes the bus.
func (hw *Hardware) Close() error {
	var first error
	for i := len(hw.closers) - 1; i >= 0; i-- {
		err := hw.closers[i].Close()
		if err != nil && first == nil {
			first = err
		}
	}
	hw.closers = nil
	return first
}
