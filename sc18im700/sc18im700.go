// Package sc18im700 implements a driver for the NXP SC18IM700 UART to I2C bus bridge. The bridge turns a serial port
// into an I2C master, which lets a host without an I2C controller drive I2C peripherals.
//
// Only the I2C transfer commands and the status register are implemented. The bridge GPIO port and power down mode
// are not.
//
// Datasheet: https://www.nxp.com/docs/en/data-sheet/SC18IM700.pdf
package sc18im700

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// Bridge commands.
const (
	cmdStart         = 'S'
	cmdStop          = 'P'
	cmdReadRegister  = 'R'
	cmdWriteRegister = 'W'
)

// Internal registers.
const (
	RegBRG0    = 0x00 // baud rate generator, low byte
	RegBRG1    = 0x01 // baud rate generator, high byte
	RegPortCfg = 0x02
	RegI2CAdr  = 0x06
	RegI2CClkL = 0x07
	RegI2CClkH = 0x08
	RegI2CTO   = 0x09 // I2C bus time-out
	RegI2CStat = 0x0A
)

// Status is the content of the I2CStat register after a transfer.
type Status uint8

const (
	StatusOK          Status = 0xF0
	StatusNACKOnAddr  Status = 0xF1
	StatusNACKOnData  Status = 0xF2
	StatusTimeout     Status = 0xF8
	maxTransferLength        = 255
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNACKOnAddr:
		return "NACK on address"
	case StatusNACKOnData:
		return "NACK on data"
	case StatusTimeout:
		return "bus time-out"
	}
	return fmt.Sprintf("status 0x%02x", uint8(s))
}

var (
	// ErrShortRead is returned when the bridge sends fewer bytes than were
	// requested before the serial port read times out.
	ErrShortRead = errors.New("sc18im700: short read")
	ErrTooLong   = errors.New("sc18im700: transfer longer than 255 bytes")
)

// StatusError is returned when the bridge reports a failed I2C transfer.
type StatusError struct {
	Addr   uint16
	Status Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sc18im700: transfer to 0x%02x failed: %v", e.Addr, e.Status)
}

// Device is an SC18IM700 bridge attached to a serial port. Reads from port
// must time out, otherwise a silent bridge blocks forever.
type Device struct {
	mu   sync.Mutex
	port io.ReadWriter
	buf  []byte
}

// New creates a driver for a bridge on the given serial port, already opened
// at the bridge baud rate (9600 8N1 after reset).
func New(port io.ReadWriter) *Device {
	return &Device{
		port: port,
		buf:  make([]byte, 0, 2*maxTransferLength+8),
	}
}

// Configure checks that the bridge answers by reading its I2C status.
func (d *Device) Configure() error {
	_, err := d.ReadRegister(RegI2CStat)
	return err
}

// ReadRegister reads an internal register of the bridge.
func (d *Device) ReadRegister(reg uint8) (uint8, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readRegister(reg)
}

// WriteRegister writes an internal register of the bridge.
func (d *Device) WriteRegister(reg, val uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.send([]byte{cmdWriteRegister, reg, val, cmdStop})
}

// Tx implements drivers.I2C. A write followed by a read uses a repeated
// start. After every transfer the bridge status is checked.
func (d *Device) Tx(addr uint16, w, r []byte) error {
	if len(w) > maxTransferLength || len(r) > maxTransferLength {
		return ErrTooLong
	}
	if addr > 0x7F {
		return fmt.Errorf("sc18im700: 10-bit address 0x%x not supported", addr)
	}
	a := uint8(addr) << 1

	d.mu.Lock()
	defer d.mu.Unlock()

	cmd := d.buf[:0]
	if len(w) > 0 {
		cmd = append(cmd, cmdStart, a, uint8(len(w)))
		cmd = append(cmd, w...)
	}
	if len(r) > 0 {
		cmd = append(cmd, cmdStart, a|1, uint8(len(r)))
	}
	cmd = append(cmd, cmdStop)
	err := d.send(cmd)
	if err != nil {
		return err
	}

	if len(r) > 0 {
		err = d.recv(r)
		if err != nil {
			return err
		}
	}

	st, err := d.readRegister(RegI2CStat)
	if err != nil {
		return err
	}
	if Status(st) != StatusOK {
		return &StatusError{Addr: addr, Status: Status(st)}
	}
	return nil
}

func (d *Device) readRegister(reg uint8) (uint8, error) {
	err := d.send([]byte{cmdReadRegister, reg, cmdStop})
	if err != nil {
		return 0, err
	}
	var v [1]byte
	err = d.recv(v[:])
	if err != nil {
		return 0, fmt.Errorf("sc18im700: could not read register 0x%02x: %w", reg, err)
	}
	return v[0], nil
}

func (d *Device) send(p []byte) error {
	_, err := d.port.Write(p)
	if err != nil {
		return fmt.Errorf("sc18im700: could not write to serial port: %w", err)
	}
	return nil
}

func (d *Device) recv(p []byte) error {
	n := 0
	for n < len(p) {
		m, err := d.port.Read(p[n:])
		n += m
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("sc18im700: could not read from serial port: %w", err)
		}
		if m == 0 {
			return fmt.Errorf("%w: got %d of %d bytes", ErrShortRead, n, len(p))
		}
	}
	return nil
}
