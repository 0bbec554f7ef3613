// Package drivers holds the bus and pin abstractions shared by the chip
// drivers in this repository.
package drivers

// I2C represents an I2C bus. A single Tx call is one bus transaction: a write
// of w (if any) followed by a read into r (if any) addressed to the 7-bit
// device address addr.
//
// It is implemented by periph.io's i2c.Bus, by TinyGo's machine.I2C and by the
// transports in this repository.
type I2C interface {
	Tx(addr uint16, w, r []byte) error
}
