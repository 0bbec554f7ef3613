package drivers

// PinMode is the electrical configuration of a digital pin.
type PinMode uint8

const (
	// PinInput is a floating input: no internal pull resistor. Use it for
	// lines actively driven by the peripheral.
	PinInput PinMode = iota
	PinInputPullup
	PinInputPulldown
	PinOutput
)

func (m PinMode) String() string {
	switch m {
	case PinInput:
		return "input"
	case PinInputPullup:
		return "input-pullup"
	case PinInputPulldown:
		return "input-pulldown"
	case PinOutput:
		return "output"
	}
	return "unknown"
}

type PinConfig struct {
	Mode PinMode
}

// Pin is a digital pin a driver can configure, typically an interrupt line.
type Pin interface {
	Configure(PinConfig) error
}
