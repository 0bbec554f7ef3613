package pcf2129

import "fmt"

// Address is the fixed 7-bit I2C address of the PCF2129.
const Address = 0x51

// Register is an address in the PCF2129 register file.
type Register uint8

const (
	Control1      Register = 0x00 // Control and status register 1
	Control2      Register = 0x01 // Control and status register 2, holds the MSF flag
	Control3      Register = 0x02 // Control and status register 3
	Seconds       Register = 0x03
	Minutes       Register = 0x04
	Hours         Register = 0x05
	Days          Register = 0x06
	Weekdays      Register = 0x07
	Months        Register = 0x08
	Years         Register = 0x09
	SecondAlarm   Register = 0x0A
	MinuteAlarm   Register = 0x0B
	HourAlarm     Register = 0x0C
	DayAlarm      Register = 0x0D
	WeekdayAlarm  Register = 0x0E
	ClkoutCtl     Register = 0x0F // CLKOUT control
	WatchdgTimCtl Register = 0x10 // Watchdog timer control
	WatchdgTimVal Register = 0x11 // Watchdog timer value
	TimestpCtl    Register = 0x12 // Timestamp control
	SecTimestp    Register = 0x13
	MinTimestp    Register = 0x14
	HourTimestp   Register = 0x15
	DayTimestp    Register = 0x16
	MonTimestp    Register = 0x17
	YearTimestp   Register = 0x18
	AgingOffset   Register = 0x19
	InternalReg   Register = 0x1A
)

// Control register payloads.
const (
	// Control1Stop0 keeps the oscillator running with the watchdog generating
	// one pulse per second.
	Control1Stop0 = 0x09
	// Control1Stop1 is Control1Stop0 with the STOP bit set.
	Control1Stop1 = 0x29
	// WatchdgTimCtlTiTp0 is the default watchdog mode: TI_TP (bit 5) cleared.
	WatchdgTimCtlTiTp0 = 0x03
	// Control2Clear clears the minute/second interrupt flag (MSF).
	Control2Clear = 0x00
	// Control2MSF is the minute/second interrupt flag in CONTROL2, set by the
	// chip with every watchdog pulse.
	Control2MSF = 0x80
)

// hours24Mask keeps both tens bits of a 24-hour BCD hour (00-23).
const hours24Mask = 0x3F

var registerNames = [...]string{
	Control1:      "CONTROL1",
	Control2:      "CONTROL2",
	Control3:      "CONTROL3",
	Seconds:       "SECONDS",
	Minutes:       "MINUTES",
	Hours:         "HOURS",
	Days:          "DAYS",
	Weekdays:      "WEEKDAYS",
	Months:        "MONTHS",
	Years:         "YEARS",
	SecondAlarm:   "SECOND_ALARM",
	MinuteAlarm:   "MINUTE_ALARM",
	HourAlarm:     "HOUR_ALARM",
	DayAlarm:      "DAY_ALARM",
	WeekdayAlarm:  "WEEKDAY_ALARM",
	ClkoutCtl:     "CLKOUT_CTL",
	WatchdgTimCtl: "WATCHDG_TIM_CTL",
	WatchdgTimVal: "WATCHDG_TIM_VAL",
	TimestpCtl:    "TIMESTP_CTL",
	SecTimestp:    "SEC_TIMESTP",
	MinTimestp:    "MIN_TIMESTP",
	HourTimestp:   "HOUR_TIMESTP",
	DayTimestp:    "DAY_TIMESTP",
	MonTimestp:    "MON_TIMESTP",
	YearTimestp:   "YEAR_TIMESTP",
	AgingOffset:   "AGING_OFFSET",
	InternalReg:   "INTERNAL_REG",
}

// Valid reports whether r is a register of the PCF2129.
func (r Register) Valid() bool {
	return int(r) < len(registerNames)
}

func (r Register) String() string {
	if !r.Valid() {
		return fmt.Sprintf("REG_0x%02x", uint8(r))
	}
	return registerNames[r]
}

// Registers returns every register in address order.
func Registers() []Register {
	regs := make([]Register, len(registerNames))
	for i := range regs {
		regs[i] = Register(i)
	}
	return regs
}

// LookupRegister returns the register with the given name, as printed by
// Register.String.
func LookupRegister(name string) (Register, bool) {
	for i, n := range registerNames {
		if n == name {
			return Register(i), true
		}
	}
	return 0, false
}
