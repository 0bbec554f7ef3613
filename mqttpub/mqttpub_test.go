package mqttpub

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/ajanata/rtcdrivers/pcf2129"
)

var (
	_ Client = (*Paho)(nil)
	_ Client = (*Natiu)(nil)
)

type message struct {
	Topic    string
	Retained bool
	Payload  string
}

type fakeClient struct {
	msgs   []message
	err    error
	closed bool
}

func (f *fakeClient) Publish(topic string, retained bool, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, message{topic, retained, string(payload)})
	return nil
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

var leapDay = pcf2129.DateTime{
	Second:  0x56,
	Minute:  0x34,
	Hour:    0x12,
	Day:     0x29,
	Weekday: 4,
	Month:   0x02,
	Year:    0x24,
}

func TestNewTick(t *testing.T) {
	c := qt.New(t)
	tick := NewTick(leapDay)
	c.Assert(tick, qt.DeepEquals, Tick{
		Second:  0x56,
		Minute:  0x34,
		Hour:    0x12,
		Day:     0x29,
		Weekday: 4,
		Month:   0x02,
		Year:    0x24,
		Raw:     "2024-02-29 12:34:56 (weekday 4)",
		Time:    "2024-02-29T12:34:56Z",
	})

	bad := leapDay
	bad.Month = 0x13
	c.Assert(NewTick(bad).Time, qt.Equals, "")
}

func TestPublishTick(t *testing.T) {
	c := qt.New(t)
	client := &fakeClient{}
	var buf bytes.Buffer
	p := New(client, "rtc/pcf2129", log.New(&buf, "", 0))

	c.Assert(p.Tick(leapDay), qt.IsNil)
	c.Assert(client.msgs, qt.HasLen, 1)
	msg := client.msgs[0]
	c.Assert(msg.Topic, qt.Equals, "rtc/pcf2129/tick")
	c.Assert(msg.Retained, qt.Equals, false)

	var got map[string]interface{}
	c.Assert(json.Unmarshal([]byte(msg.Payload), &got), qt.IsNil)
	c.Assert(got["second"], qt.Equals, float64(0x56))
	c.Assert(got["time"], qt.Equals, "2024-02-29T12:34:56Z")
	c.Assert(buf.String(), qt.Equals, "")
}

func TestPublishState(t *testing.T) {
	c := qt.New(t)
	client := &fakeClient{}
	var buf bytes.Buffer
	p := New(client, "rtc", log.New(&buf, "", 0))

	c.Assert(p.State(pcf2129.StateRunning), qt.IsNil)
	c.Assert(p.State(pcf2129.StateStopped), qt.IsNil)
	c.Assert(client.msgs, qt.DeepEquals, []message{
		{"rtc/state", true, "running"},
		{"rtc/state", true, "stopped"},
	})
	c.Assert(buf.String(), qt.Equals, "state running published on rtc/state\nstate stopped published on rtc/state\n")

	c.Assert(p.Close(), qt.IsNil)
	c.Assert(client.closed, qt.Equals, true)
}

func TestPublishFailure(t *testing.T) {
	c := qt.New(t)
	cause := errors.New("connection lost")
	p := New(&fakeClient{err: cause}, "rtc", nil)

	err := p.Tick(leapDay)
	c.Assert(err, qt.ErrorMatches, `mqttpub: could not publish tick: connection lost`)
	c.Assert(errors.Is(err, cause), qt.Equals, true)

	err = p.State(pcf2129.StateRunning)
	c.Assert(err, qt.ErrorMatches, `mqttpub: could not publish state running: connection lost`)
}
