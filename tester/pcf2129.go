package tester

import (
	"errors"
	"sync"
)

// ErrNoData is returned by a fake read when the device hands back no byte.
var ErrNoData = errors.New("tester: no data available")

const (
	pcfAddress  = 0x51
	pcfNumRegs  = 0x1B
	pcfControl1 = 0x00
	pcfControl2 = 0x01
	pcfSeconds  = 0x03
	pcfMinutes  = 0x04
	pcfHours    = 0x05

	pcfStop = 0x20 // CONTROL1 STOP bit
	pcfMSF  = 0x80 // CONTROL2 minute/second interrupt flag
)

// PCF2129 simulates the register file of a PCF2129 RTC. Writes store bytes
// starting at the register pointer, reads return bytes from the pointer on,
// both auto-incrementing as the chip does.
type PCF2129 struct {
	c Failer

	mu   sync.Mutex
	regs [pcfNumRegs]uint8
	ptr  uint8

	writeErr error
	readErr  error

	// Interrupt is called by Tick when the chip pulls its interrupt output.
	Interrupt func()
}

// NewPCF2129 returns a chip in its power-on state: oscillator stopped, no
// interrupt pending.
func NewPCF2129(c Failer) *PCF2129 {
	d := &PCF2129{c: c}
	d.regs[pcfControl1] = pcfStop
	return d
}

func (d *PCF2129) Addr() uint16 { return pcfAddress }

func (d *PCF2129) Tx(w, r []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(w) > 0 {
		if d.writeErr != nil {
			return d.writeErr
		}
		if int(w[0]) >= pcfNumRegs {
			d.c.Helper()
			d.c.Fatalf("write to register 0x%02x, out of range", w[0])
		}
		d.ptr = w[0]
		for _, b := range w[1:] {
			d.regs[d.ptr] = b
			d.next()
		}
	}
	if len(r) > 0 {
		if d.readErr != nil {
			return d.readErr
		}
		for i := range r {
			r[i] = d.regs[d.ptr]
			d.next()
		}
	}
	return nil
}

func (d *PCF2129) next() {
	d.ptr++
	if d.ptr == pcfNumRegs {
		d.ptr = 0
	}
}

// Register returns the current content of register reg.
func (d *PCF2129) Register(reg uint8) uint8 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.regs[reg]
}

// SetRegister sets register reg without going through the bus.
func (d *PCF2129) SetRegister(reg, v uint8) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.regs[reg] = v
}

// FailWrites makes every following write transaction return err. A nil err
// restores normal operation.
func (d *PCF2129) FailWrites(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writeErr = err
}

// FailReads makes every following read transaction return ErrNoData, or
// restores normal operation when fail is false.
func (d *PCF2129) FailReads(fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.readErr = nil
	if fail {
		d.readErr = ErrNoData
	}
}

// Running reports whether the oscillator STOP bit is cleared.
func (d *PCF2129) Running() bool {
	return d.Register(pcfControl1)&pcfStop == 0
}

// Tick simulates one watchdog period. When the oscillator runs the time
// advances by one second (seconds, minutes and hours only). The MSF flag is
// raised either way, and Interrupt is called if it was not already pending.
func (d *PCF2129) Tick() {
	d.mu.Lock()
	running := d.regs[pcfControl1]&pcfStop == 0
	if running {
		d.advance()
	}
	pending := d.regs[pcfControl2]&pcfMSF != 0
	d.regs[pcfControl2] |= pcfMSF
	irq := d.Interrupt
	d.mu.Unlock()

	if !pending && irq != nil {
		irq()
	}
}

func (d *PCF2129) advance() {
	carry := bcdInc(&d.regs[pcfSeconds], 0x7F, 0x59)
	if carry {
		carry = bcdInc(&d.regs[pcfMinutes], 0x7F, 0x59)
	}
	if carry {
		bcdInc(&d.regs[pcfHours], 0x3F, 0x23)
	}
}

// bcdInc increments the BCD value in the bits of *v selected by mask, wrapping
// to zero after max. It reports whether it wrapped.
func bcdInc(v *uint8, mask, max uint8) bool {
	cur := *v & mask
	if cur >= max {
		*v &^= mask
		return true
	}
	cur++
	if cur&0x0F > 9 {
		cur += 6
	}
	*v = (*v &^ mask) | cur
	return false
}
