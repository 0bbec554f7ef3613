// Package config holds the YAML configuration of the pcf2129 commands.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Bus kinds.
const (
	BusPeriph    = "periph"
	BusSMBus     = "smbus"
	BusSC18IM700 = "sc18im700"
)

// MQTT clients.
const (
	ClientPaho  = "paho"
	ClientNatiu = "natiu"
)

type Config struct {
	Bus     BusConfig     `yaml:"bus"`
	Device  DeviceConfig  `yaml:"device"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	HTTP    HTTPConfig    `yaml:"http"`
	Display DisplayConfig `yaml:"display"`
	LED     LEDConfig     `yaml:"led"`
}

// BusConfig selects the I2C transport.
type BusConfig struct {
	Kind    string `yaml:"kind"`    // periph, smbus or sc18im700
	Name    string `yaml:"name"`    // periph bus name, "" for the first one
	SMBus   int    `yaml:"smbus"`   // /dev/i2c-N
	Serial  string `yaml:"serial"`  // bridge UART
	Baud    int    `yaml:"baud"`    // bridge UART
	Timeout string `yaml:"timeout"` // bridge UART read timeout
}

type DeviceConfig struct {
	Address      int    `yaml:"address"`
	InterruptPin string `yaml:"interrupt_pin"` // periph GPIO name; empty to poll CONTROL2
	Start        bool   `yaml:"start"`
	Poll         string `yaml:"poll"`
}

type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Client   string `yaml:"client"`
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Prefix   string `yaml:"prefix"`
}

type HTTPConfig struct {
	Addr     string `yaml:"addr"`
	MaxConns int    `yaml:"max_conns"`
}

// DisplayConfig is an optional SSD1306 panel on the same bus.
type DisplayConfig struct {
	Enabled bool `yaml:"enabled"`
	Address int  `yaml:"address"`
	Width   int  `yaml:"width"`
	Height  int  `yaml:"height"`
}

// LEDConfig is an optional tick LED on a PCF8574 expander pin.
type LEDConfig struct {
	Enabled bool `yaml:"enabled"`
	Address int  `yaml:"address"`
	Pin     int  `yaml:"pin"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Bus: BusConfig{
			Kind:    BusPeriph,
			SMBus:   1,
			Serial:  "/dev/ttyUSB0",
			Baud:    9600,
			Timeout: "100ms",
		},
		Device: DeviceConfig{
			Address: 0x51,
			Start:   true,
			Poll:    "10ms",
		},
		MQTT: MQTTConfig{
			Client:   ClientPaho,
			Broker:   "tcp://localhost:1883",
			ClientID: "pcf2129d",
			Prefix:   "rtc/pcf2129",
		},
		HTTP: HTTPConfig{
			Addr:     ":8129",
			MaxConns: 4,
		},
		Display: DisplayConfig{
			Address: 0x3C,
			Width:   128,
			Height:  32,
		},
		LED: LEDConfig{
			Address: 0x20,
		},
	}
}

// Load reads the configuration from a YAML file. Missing fields take their
// default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: could not read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML document.
func Parse(data []byte) (*Config, error) {
	c := Default()
	// device.start defaults to true, so decode over the defaults instead of
	// filling zero values afterwards.
	err := yaml.Unmarshal(data, c)
	if err != nil {
		return nil, fmt.Errorf("config: could not parse: %w", err)
	}
	applyDefaults(c)
	return c, nil
}

// applyDefaults restores defaults over values explicitly emptied in the
// document.
func applyDefaults(c *Config) {
	d := Default()
	if c.Bus.Kind == "" {
		c.Bus.Kind = d.Bus.Kind
	}
	if c.Bus.Baud == 0 {
		c.Bus.Baud = d.Bus.Baud
	}
	if c.Bus.Timeout == "" {
		c.Bus.Timeout = d.Bus.Timeout
	}
	if c.Device.Address == 0 {
		c.Device.Address = d.Device.Address
	}
	if c.Device.Poll == "" {
		c.Device.Poll = d.Device.Poll
	}
	if c.MQTT.Client == "" {
		c.MQTT.Client = d.MQTT.Client
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = d.MQTT.ClientID
	}
	if c.MQTT.Prefix == "" {
		c.MQTT.Prefix = d.MQTT.Prefix
	}
	if c.HTTP.MaxConns <= 0 {
		c.HTTP.MaxConns = d.HTTP.MaxConns
	}
	if c.Display.Address == 0 {
		c.Display.Address = d.Display.Address
	}
	if c.LED.Address == 0 {
		c.LED.Address = d.LED.Address
	}
}

// Validate checks values Load cannot default.
func (c *Config) Validate() error {
	var errs []error
	switch c.Bus.Kind {
	case BusPeriph, BusSMBus, BusSC18IM700:
	default:
		errs = append(errs, fmt.Errorf("unknown bus kind %q", c.Bus.Kind))
	}
	if c.Bus.Kind == BusSC18IM700 && c.Bus.Serial == "" {
		errs = append(errs, errors.New("bus.serial is required for the sc18im700 bridge"))
	}
	for _, a := range []struct {
		name string
		v    int
	}{
		{"device.address", c.Device.Address},
		{"display.address", c.Display.Address},
		{"led.address", c.LED.Address},
	} {
		if a.v < 0x08 || a.v > 0x77 {
			errs = append(errs, fmt.Errorf("%s 0x%x is not a 7-bit device address", a.name, a.v))
		}
	}
	if c.MQTT.Enabled {
		switch c.MQTT.Client {
		case ClientPaho, ClientNatiu:
		default:
			errs = append(errs, fmt.Errorf("unknown mqtt client %q", c.MQTT.Client))
		}
		if c.MQTT.Broker == "" {
			errs = append(errs, errors.New("mqtt.broker is required"))
		}
	}
	if c.Display.Enabled && c.Bus.Kind == BusSMBus {
		errs = append(errs, errors.New("display needs block writes, which the smbus transport cannot do"))
	}
	if c.LED.Enabled && c.Bus.Kind == BusSMBus {
		// smbusi2c takes a one-byte write as a register pointer, never a send-byte
		errs = append(errs, errors.New("led expander needs plain byte writes, which the smbus transport cannot do"))
	}
	if c.LED.Pin < 0 || c.LED.Pin > 7 {
		errs = append(errs, fmt.Errorf("led.pin %d out of range 0-7", c.LED.Pin))
	}
	for _, d := range []struct {
		name string
		v    string
	}{
		{"bus.timeout", c.Bus.Timeout},
		{"device.poll", c.Device.Poll},
	} {
		if _, err := parseDuration(d.v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", d.name, err))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	msg := errs[0].Error()
	for _, err := range errs[1:] {
		msg += "; " + err.Error()
	}
	return fmt.Errorf("config: %s", msg)
}

// SerialTimeout returns bus.timeout.
func (c *Config) SerialTimeout() time.Duration {
	d, _ := parseDuration(c.Bus.Timeout)
	return d
}

// PollInterval returns device.poll.
func (c *Config) PollInterval() time.Duration {
	d, _ := parseDuration(c.Device.Poll)
	return d
}

func parseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %s must be positive", s)
	}
	return d, nil
}
