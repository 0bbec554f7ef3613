// Package ssd1306 implements a driver for SSD1306 monochrome OLED displays on an I2C bus. The whole framebuffer is
// kept in memory and sent by Display.
//
// Every command byte goes out in its own two byte write, so commands work on any drivers.I2C, including SMBus
// adapters. Framebuffer data is written in chunks of DataChunk bytes, which needs a bus able to do longer writes.
//
// Datasheet: https://cdn-shop.adafruit.com/datasheets/SSD1306.pdf
package ssd1306

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/ajanata/rtcdrivers"
)

const (
	Address    = 0x3C
	AltAddress = 0x3D

	// DataChunk is the number of framebuffer bytes per write transaction.
	DataChunk = 16
)

// Control bytes prefixed to every write.
const (
	ctrlCommand = 0x00
	ctrlData    = 0x40
)

// Commands.
const (
	cmdSetContrast        = 0x81
	cmdDisplayAllOnResume = 0xA4
	cmdNormalDisplay      = 0xA6
	cmdDisplayOff         = 0xAE
	cmdDisplayOn          = 0xAF
	cmdSetDisplayOffset   = 0xD3
	cmdSetComPins         = 0xDA
	cmdSetVComDetect      = 0xDB
	cmdSetDisplayClockDiv = 0xD5
	cmdSetPrecharge       = 0xD9
	cmdSetMultiplex       = 0xA8
	cmdSetStartLine       = 0x40
	cmdMemoryMode         = 0x20
	cmdColumnAddr         = 0x21
	cmdPageAddr           = 0x22
	cmdComScanDec         = 0xC8
	cmdSegRemap           = 0xA0
	cmdChargePump         = 0x8D
	cmdDeactivateScroll   = 0x2E
)

var ErrSize = errors.New("ssd1306: height must be 16, 32 or 64 and width at most 128")

type Config struct {
	Width   int16
	Height  int16
	Address uint16
}

type Device struct {
	bus     drivers.I2C
	address uint16
	width   int16
	height  int16
	buffer  []byte
	chunk   [DataChunk + 1]byte
}

// New creates a driver for a display on the given bus. Configure must be called before use.
func New(bus drivers.I2C) *Device {
	return &Device{
		bus:     bus,
		address: Address,
	}
}

// Configure initializes the display controller and clears the screen. Zero fields in cfg default to a 128x64 panel
// at Address.
func (d *Device) Configure(cfg Config) error {
	if cfg.Width == 0 {
		cfg.Width = 128
	}
	if cfg.Height == 0 {
		cfg.Height = 64
	}
	if cfg.Address != 0 {
		d.address = cfg.Address
	}
	if cfg.Width > 128 || cfg.Width < 1 || (cfg.Height != 16 && cfg.Height != 32 && cfg.Height != 64) {
		return ErrSize
	}
	d.width = cfg.Width
	d.height = cfg.Height
	d.buffer = make([]byte, int(d.width)*int(d.height)/8)

	comPins := uint8(0x12)
	contrast := uint8(0xCF)
	if d.height != 64 {
		comPins = 0x02
		contrast = 0x8F
	}
	err := d.Command(
		cmdDisplayOff,
		cmdSetDisplayClockDiv, 0x80,
		cmdSetMultiplex, uint8(d.height-1),
		cmdSetDisplayOffset, 0x00,
		cmdSetStartLine|0x00,
		cmdChargePump, 0x14, // internal VCC
		cmdMemoryMode, 0x00, // horizontal addressing
		cmdSegRemap|0x01,
		cmdComScanDec,
		cmdSetComPins, comPins,
		cmdSetContrast, contrast,
		cmdSetPrecharge, 0xF1,
		cmdSetVComDetect, 0x40,
		cmdDisplayAllOnResume,
		cmdNormalDisplay,
		cmdDeactivateScroll,
		cmdDisplayOn,
	)
	if err != nil {
		return err
	}
	return d.Display()
}

// Command sends command bytes to the controller, one write each.
func (d *Device) Command(cmds ...uint8) error {
	for _, c := range cmds {
		err := d.bus.Tx(d.address, []byte{ctrlCommand, c}, nil)
		if err != nil {
			return fmt.Errorf("ssd1306: could not send command 0x%02x: %w", c, err)
		}
	}
	return nil
}

func (d *Device) Size() (x, y int16) {
	return d.width, d.height
}

// SetPixel sets a pixel in the framebuffer. Any non-black colour lights it.
func (d *Device) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || y < 0 || x >= d.width || y >= d.height {
		return
	}
	i := int(x) + int(y/8)*int(d.width)
	if c.R|c.G|c.B != 0 {
		d.buffer[i] |= 1 << uint8(y%8)
	} else {
		d.buffer[i] &^= 1 << uint8(y%8)
	}
}

// GetPixel reports whether a pixel is lit in the framebuffer.
func (d *Device) GetPixel(x, y int16) bool {
	if x < 0 || y < 0 || x >= d.width || y >= d.height {
		return false
	}
	return d.buffer[int(x)+int(y/8)*int(d.width)]&(1<<uint8(y%8)) != 0
}

// ClearBuffer turns every pixel off without sending anything.
func (d *Device) ClearBuffer() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}
}

// Display sends the framebuffer to the screen.
func (d *Device) Display() error {
	err := d.Command(
		cmdColumnAddr, 0, uint8(d.width-1),
		cmdPageAddr, 0, uint8(d.height/8-1),
	)
	if err != nil {
		return err
	}

	d.chunk[0] = ctrlData
	for off := 0; off < len(d.buffer); off += DataChunk {
		n := copy(d.chunk[1:], d.buffer[off:])
		err = d.bus.Tx(d.address, d.chunk[:n+1], nil)
		if err != nil {
			return fmt.Errorf("ssd1306: could not send framebuffer at offset %d: %w", off, err)
		}
	}
	return nil
}
