package hw

import (
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/ajanata/rtcdrivers/internal/config"
)

func TestOpenUnknownKind(t *testing.T) {
	c := qt.New(t)
	cfg := config.Default()
	cfg.Bus.Kind = "spi"
	_, err := Open(cfg)
	c.Assert(err, qt.ErrorMatches, `hw: unknown bus kind "spi"`)
}

func TestOpenMissingSerialPort(t *testing.T) {
	c := qt.New(t)
	cfg := config.Default()
	cfg.Bus.Kind = config.BusSC18IM700
	cfg.Bus.Serial = filepath.Join(c.TempDir(), "ttyNONE")
	_, err := Open(cfg)
	c.Assert(err, qt.ErrorMatches, `hw: could not open serial port ".*ttyNONE": .*`)
}

func TestCloseEmpty(t *testing.T) {
	c := qt.New(t)
	var h Hardware
	c.Assert(h.Close(), qt.IsNil)
	c.Assert(h.IntPin(), qt.IsNil)
}
