package pcf2129

import (
	"fmt"
	"time"
)

// DateTime holds the time registers as read from the chip, masked but not
// decoded.
type DateTime struct {
	Second  uint8
	Minute  uint8
	Hour    uint8
	Day     uint8
	Weekday uint8
	Month   uint8
	Year    uint8
}

// ReadDateTime reads every time register, one transaction per register, in
// the order seconds to years. Unlike Hour, the hour keeps both tens bits of
// the 24-hour BCD value.
//
// The registers are not read in a single burst so a rollover between two
// reads is not detected.
func (d *Device) ReadDateTime() (DateTime, error) {
	var (
		dt  DateTime
		err error
	)
	fields := []struct {
		dst  *uint8
		read func() (uint8, error)
	}{
		{&dt.Second, d.Second},
		{&dt.Minute, d.Minute},
		{&dt.Hour, func() (uint8, error) { return d.field(Hours, hours24Mask) }},
		{&dt.Day, d.Day},
		{&dt.Weekday, d.Weekday},
		{&dt.Month, d.Month},
		{&dt.Year, d.Year},
	}
	for _, f := range fields {
		*f.dst, err = f.read()
		if err != nil {
			return DateTime{}, err
		}
	}
	return dt, nil
}

// DateTimeOf encodes t, converted to UTC, as the chip stores it. Years
// outside 2000-2099 wrap.
func DateTimeOf(t time.Time) DateTime {
	t = t.UTC()
	return DateTime{
		Second:  decToBcd(t.Second()),
		Minute:  decToBcd(t.Minute()),
		Hour:    decToBcd(t.Hour()),
		Day:     decToBcd(t.Day()),
		Weekday: uint8(t.Weekday()),
		Month:   decToBcd(int(t.Month())),
		Year:    decToBcd(((t.Year()-2000)%100 + 100) % 100),
	}
}

// Time decodes the BCD fields into a UTC time between the years 2000 and
// 2099. The weekday register is not used.
func (dt DateTime) Time() (time.Time, error) {
	var v [6]int
	for i, raw := range [6]uint8{dt.Year, dt.Month, dt.Day, dt.Hour, dt.Minute, dt.Second} {
		dec, err := bcdToDec(raw)
		if err != nil {
			return time.Time{}, err
		}
		v[i] = dec
	}
	year, month, day, hour, minute, sec := v[0], v[1], v[2], v[3], v[4], v[5]
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || sec > 59 {
		return time.Time{}, fmt.Errorf("pcf2129: time registers out of range: %v", dt)
	}
	t := time.Date(2000+year, time.Month(month), day, hour, minute, sec, 0, time.UTC)
	if t.Day() != day {
		return time.Time{}, fmt.Errorf("pcf2129: no day %d in %s %d", day, time.Month(month), 2000+year)
	}
	return t, nil
}

// String prints the fields as stored, which reads as decimal for BCD values.
func (dt DateTime) String() string {
	return fmt.Sprintf("20%02x-%02x-%02x %02x:%02x:%02x (weekday %d)",
		dt.Year, dt.Month, dt.Day, dt.Hour, dt.Minute, dt.Second, dt.Weekday)
}

// bcdToDec converts BCD to int
func bcdToDec(bcd uint8) (int, error) {
	hi, lo := bcd>>4, bcd&0x0F
	if hi > 9 || lo > 9 {
		return 0, fmt.Errorf("%w: 0x%02x", ErrInvalidBCD, bcd)
	}
	return int(hi)*10 + int(lo), nil
}

// decToBcd converts int to BCD
func decToBcd(dec int) uint8 {
	return uint8(dec + 6*(dec/10))
}
