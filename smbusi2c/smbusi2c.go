// Package smbusi2c runs register-oriented drivers over a Linux SMBus
// adapter.
//
// SMBus has no raw transfers: only the transaction shapes used by single
// register drivers are supported. A one-byte write sets the register pointer
// that the following read transactions start from.
package smbusi2c

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-daq/smbus"
)

// ErrUnsupported is returned for transactions SMBus cannot express.
var ErrUnsupported = errors.New("smbusi2c: unsupported transaction")

// Conn is the part of *smbus.Conn used by Bus.
type Conn interface {
	ReadReg(addr, reg uint8) (uint8, error)
	WriteReg(addr, reg, v uint8) error
}

var _ Conn = (*smbus.Conn)(nil)

// Bus implements drivers.I2C on top of an SMBus connection.
type Bus struct {
	conn Conn

	mu  sync.Mutex
	ptr map[uint16]uint8 // register pointer per device
}

func New(conn Conn) *Bus {
	return &Bus{
		conn: conn,
		ptr:  make(map[uint16]uint8),
	}
}

// Open opens /dev/i2c-<bus> for the device at addr.
func Open(bus int, addr uint8) (*Bus, *smbus.Conn, error) {
	conn, err := smbus.Open(bus, addr)
	if err != nil {
		return nil, nil, fmt.Errorf("smbusi2c: could not open bus %d: %w", bus, err)
	}
	return New(conn), conn, nil
}

func (b *Bus) Tx(addr uint16, w, r []byte) error {
	if addr > 0x7F {
		return fmt.Errorf("%w: 10-bit address 0x%x", ErrUnsupported, addr)
	}
	a := uint8(addr)

	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case len(w) == 2 && len(r) == 0:
		err := b.conn.WriteReg(a, w[0], w[1])
		if err != nil {
			return fmt.Errorf("smbusi2c: could not write register 0x%02x of device 0x%02x: %w", w[0], a, err)
		}
		b.ptr[addr] = w[0] + 1
		return nil
	case len(w) == 1:
		b.ptr[addr] = w[0]
		if len(r) == 0 {
			return nil
		}
	case len(w) == 0 && len(r) > 0:
	default:
		return fmt.Errorf("%w: write %d bytes, read %d bytes", ErrUnsupported, len(w), len(r))
	}

	reg := b.ptr[addr]
	for i := range r {
		v, err := b.conn.ReadReg(a, reg)
		if err != nil {
			return fmt.Errorf("smbusi2c: could not read register 0x%02x of device 0x%02x: %w", reg, a, err)
		}
		r[i] = v
		reg++
	}
	b.ptr[addr] = reg
	return nil
}
