package smbusi2c

import (
	"errors"
	"fmt"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/ajanata/rtcdrivers/pcf2129"
)

type fakeConn struct {
	regs map[uint8]uint8
	ops  []string
	err  error
}

func (f *fakeConn) ReadReg(addr, reg uint8) (uint8, error) {
	f.ops = append(f.ops, fmt.Sprintf("R 0x%02x 0x%02x", addr, reg))
	if f.err != nil {
		return 0, f.err
	}
	return f.regs[reg], nil
}

func (f *fakeConn) WriteReg(addr, reg, v uint8) error {
	f.ops = append(f.ops, fmt.Sprintf("W 0x%02x 0x%02x 0x%02x", addr, reg, v))
	if f.err != nil {
		return f.err
	}
	f.regs[reg] = v
	return nil
}

func TestPCF2129OverSMBus(t *testing.T) {
	c := qt.New(t)
	conn := &fakeConn{regs: map[uint8]uint8{0x05: 0x37}}
	dev := pcf2129.New(New(conn), nil)

	c.Assert(dev.Stop(), qt.IsNil)
	hour, err := dev.Hour()
	c.Assert(err, qt.IsNil)
	c.Assert(hour, qt.Equals, uint8(0x17))
	c.Assert(conn.ops, qt.DeepEquals, []string{
		"W 0x51 0x00 0x29",
		"W 0x51 0x01 0x00",
		"R 0x51 0x05",
	})
}

func TestPointerAutoIncrement(t *testing.T) {
	c := qt.New(t)
	conn := &fakeConn{regs: map[uint8]uint8{0x03: 0x10, 0x04: 0x20, 0x05: 0x30}}
	bus := New(conn)

	r := make([]byte, 2)
	c.Assert(bus.Tx(0x51, []byte{0x03}, r), qt.IsNil)
	c.Assert(r, qt.DeepEquals, []byte{0x10, 0x20})
	r = make([]byte, 1)
	c.Assert(bus.Tx(0x51, nil, r), qt.IsNil)
	c.Assert(r, qt.DeepEquals, []byte{0x30})
}

func TestUnsupported(t *testing.T) {
	c := qt.New(t)
	bus := New(&fakeConn{regs: map[uint8]uint8{}})

	err := bus.Tx(0x51, []byte{0x00, 0x01, 0x02}, nil)
	c.Assert(errors.Is(err, ErrUnsupported), qt.Equals, true)
	err = bus.Tx(0x151, []byte{0x00}, nil)
	c.Assert(errors.Is(err, ErrUnsupported), qt.Equals, true)
}

func TestReadFailure(t *testing.T) {
	c := qt.New(t)
	conn := &fakeConn{regs: map[uint8]uint8{}}
	dev := pcf2129.New(New(conn), nil)

	conn.err = errors.New("remote I/O error")
	v, err := dev.Second()
	c.Assert(v, qt.Equals, uint8(0))
	c.Assert(errors.Is(err, pcf2129.ErrReadUnavailable), qt.Equals, true)
	c.Assert(err, qt.ErrorMatches, `pcf2129: could not read register SECONDS: smbusi2c: could not read register 0x03 of device 0x51: remote I/O error`)
}
