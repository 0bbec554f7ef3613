package pcf2129

import (
	"errors"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestReadDateTime(t *testing.T) {
	c := qt.New(t)
	dev, bus, chip, _ := newTestDevice(c)

	for reg, v := range map[Register]uint8{
		Seconds:  0x85, // OSF set
		Minutes:  0x04,
		Hours:    0x15,
		Days:     0x02,
		Weekdays: 0x01,
		Months:   0x01,
		Years:    0x06,
	} {
		chip.SetRegister(uint8(reg), v)
	}

	dt, err := dev.ReadDateTime()
	c.Assert(err, qt.IsNil)
	c.Assert(dt, qt.DeepEquals, DateTime{
		Second: 0x05, Minute: 0x04, Hour: 0x15, Day: 0x02, Weekday: 0x01, Month: 0x01, Year: 0x06,
	})
	c.Assert(dt.String(), qt.Equals, "2006-01-02 15:04:05 (weekday 1)")
	c.Assert(bus.Log(), qt.HasLen, 14)

	tm, err := dt.Time()
	c.Assert(err, qt.IsNil)
	c.Assert(tm, qt.DeepEquals, time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC))
}

func TestReadDateTimeLateHours(t *testing.T) {
	c := qt.New(t)
	dev, _, chip, _ := newTestDevice(c)
	for reg, v := range map[Register]uint8{
		Seconds: 0x00, Minutes: 0x30, Hours: 0x23, Days: 0x15, Weekdays: 0x06, Months: 0x06, Years: 0x24,
	} {
		chip.SetRegister(uint8(reg), v)
	}

	// the accessor keeps its five-bit mask
	h, err := dev.Hour()
	c.Assert(err, qt.IsNil)
	c.Assert(h, qt.Equals, uint8(0x03))

	dt, err := dev.ReadDateTime()
	c.Assert(err, qt.IsNil)
	c.Assert(dt.Hour, qt.Equals, uint8(0x23))
	tm, err := dt.Time()
	c.Assert(err, qt.IsNil)
	c.Assert(tm, qt.DeepEquals, time.Date(2024, 6, 15, 23, 30, 0, 0, time.UTC))
}

func TestReadDateTimeFailure(t *testing.T) {
	c := qt.New(t)
	dev, bus, chip, _ := newTestDevice(c)
	chip.FailReads(true)

	dt, err := dev.ReadDateTime()
	c.Assert(errors.Is(err, ErrReadUnavailable), qt.Equals, true)
	c.Assert(dt, qt.DeepEquals, DateTime{})
	// stops at the first failed field
	c.Assert(bus.Log(), qt.HasLen, 2)
}

func TestDateTimeOf(t *testing.T) {
	c := qt.New(t)
	tm := time.Date(2024, time.February, 29, 23, 59, 58, 0, time.UTC)
	dt := DateTimeOf(tm)
	c.Assert(dt, qt.DeepEquals, DateTime{
		Second: 0x58, Minute: 0x59, Hour: 0x23, Day: 0x29, Weekday: 4, Month: 0x02, Year: 0x24,
	})
	got, err := dt.Time()
	c.Assert(err, qt.IsNil)
	c.Assert(got.Equal(tm), qt.Equals, true)
}

func TestDateTimeInvalid(t *testing.T) {
	for _, tc := range []struct {
		name string
		dt   DateTime
		err  string
	}{
		{
			name: "bcd",
			dt:   DateTime{Second: 0x1A, Day: 0x01, Month: 0x01},
			err:  `pcf2129: invalid BCD value: 0x1a`,
		},
		{
			name: "month",
			dt:   DateTime{Day: 0x01, Month: 0x13},
			err:  `pcf2129: time registers out of range: .*`,
		},
		{
			name: "day",
			dt:   DateTime{Day: 0x00, Month: 0x01},
			err:  `pcf2129: time registers out of range: .*`,
		},
		{
			name: "february",
			dt:   DateTime{Day: 0x30, Month: 0x02, Year: 0x23},
			err:  `pcf2129: no day 30 in February 2023`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := qt.New(t)
			_, err := tc.dt.Time()
			c.Assert(err, qt.ErrorMatches, tc.err)
		})
	}
}
