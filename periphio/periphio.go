// Package periphio connects the drivers in this repository to Linux hosts
// through periph.io.
//
// An i2c.Bus from periph.io already implements drivers.I2C; this package
// opens it and adapts GPIO pins to drivers.Pin so that an interrupt line can
// be configured by a driver and watched for edges.
package periphio

import (
	"context"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/ajanata/rtcdrivers"
)

// Init loads the periph.io host drivers. It is safe to call more than once.
func Init() error {
	_, err := host.Init()
	if err != nil {
		return fmt.Errorf("periphio: could not initialize host drivers: %w", err)
	}
	return nil
}

// OpenBus opens the named I2C bus, "" being the first one found.
func OpenBus(name string) (i2c.BusCloser, error) {
	err := Init()
	if err != nil {
		return nil, err
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("periphio: could not open I2C bus %q: %w", name, err)
	}
	return bus, nil
}

// edgePoll bounds how long Watch blocks before checking for cancellation.
const edgePoll = 100 * time.Millisecond

// Pin adapts a periph.io input pin to drivers.Pin. Configured as an input it
// reports falling edges.
type Pin struct {
	p gpio.PinIn
}

var _ drivers.Pin = (*Pin)(nil)

func NewPin(p gpio.PinIn) *Pin {
	return &Pin{p: p}
}

// LookupPin returns the GPIO pin registered under name, e.g. "GPIO17".
func LookupPin(name string) (*Pin, error) {
	err := Init()
	if err != nil {
		return nil, err
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("periphio: no GPIO pin named %q", name)
	}
	return NewPin(p), nil
}

func (p *Pin) Configure(cfg drivers.PinConfig) error {
	var pull gpio.Pull
	switch cfg.Mode {
	case drivers.PinInput:
		pull = gpio.Float
	case drivers.PinInputPullup:
		pull = gpio.PullUp
	case drivers.PinInputPulldown:
		pull = gpio.PullDown
	default:
		return fmt.Errorf("periphio: pin %s: unsupported mode %v", p.p, cfg.Mode)
	}
	err := p.p.In(pull, gpio.FallingEdge)
	if err != nil {
		return fmt.Errorf("periphio: could not configure pin %s as %v: %w", p.p, cfg.Mode, err)
	}
	return nil
}

func (p *Pin) String() string {
	return p.p.String()
}

// Watch calls fn for each falling edge on the pin until ctx is done. The pin
// must have been configured as an input first.
func (p *Pin) Watch(ctx context.Context, fn func()) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if p.p.WaitForEdge(edgePoll) {
			fn()
		}
	}
}
