package tester

import (
	"sync"

	"github.com/ajanata/rtcdrivers"
)

// Pin is a fake digital pin recording its configuration.
type Pin struct {
	mu      sync.Mutex
	configs []drivers.PinConfig
	err     error
}

// NewPin returns an unconfigured pin. Configure fails with err when err is
// not nil.
func NewPin(err error) *Pin {
	return &Pin{err: err}
}

func (p *Pin) Configure(cfg drivers.PinConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.configs = append(p.configs, cfg)
	return nil
}

// Configs returns every configuration applied to the pin, oldest first.
func (p *Pin) Configs() []drivers.PinConfig {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]drivers.PinConfig(nil), p.configs...)
}
