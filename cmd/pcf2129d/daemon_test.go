package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/ajanata/rtcdrivers"
	"github.com/ajanata/rtcdrivers/clockface"
	"github.com/ajanata/rtcdrivers/internal/config"
	"github.com/ajanata/rtcdrivers/mqttpub"
	"github.com/ajanata/rtcdrivers/pcf8574"
	"github.com/ajanata/rtcdrivers/tester"
)

type fakeMQTT struct {
	topics []string
}

func (f *fakeMQTT) Publish(topic string, retained bool, payload []byte) error {
	f.topics = append(f.topics, fmt.Sprintf("%s retained=%v", topic, retained))
	return nil
}

func (f *fakeMQTT) Close() error { return nil }

type ledExpander struct{ out uint8 }

func (e *ledExpander) Addr() uint16 { return pcf8574.DefaultAddress }

func (e *ledExpander) Tx(w, r []byte) error {
	if len(w) > 0 {
		e.out = w[0]
	}
	return nil
}

type testRig struct {
	d    *daemon
	bus  *tester.I2CBus
	chip *tester.PCF2129
	log  *bytes.Buffer
}

func newRig(c *qt.C, withPin bool) *testRig {
	bus := tester.NewI2CBus(c)
	chip := tester.NewPCF2129(c)
	bus.AddDevice(chip)

	var pin drivers.Pin
	if withPin {
		pin = tester.NewPin(nil)
	}
	buf := new(bytes.Buffer)
	d := newDaemon(config.Default(), bus, pin, log.New(buf, "", 0))
	if withPin {
		chip.Interrupt = d.dev.SetInterrupted
	}
	return &testRig{d: d, bus: bus, chip: chip, log: buf}
}

func TestServiceInterrupt(t *testing.T) {
	c := qt.New(t)
	rig := newRig(c, true)
	c.Assert(rig.d.polled, qt.Equals, false)
	c.Assert(rig.d.setup(true), qt.IsNil)
	c.Assert(rig.log.String(), qt.Equals, "PCF2129 at 0x51 running\n")

	rig.bus.ResetLog()
	rig.d.service()
	c.Assert(rig.bus.Log(), qt.HasLen, 0)

	rig.chip.Tick()
	c.Assert(rig.d.dev.IsInterrupted(), qt.Equals, true)
	rig.d.service()

	c.Assert(rig.d.dev.IsInterrupted(), qt.Equals, false)
	c.Assert(rig.chip.Register(0x01), qt.Equals, uint8(0x00))
	st := rig.d.status()
	c.Assert(st.Ticks, qt.Equals, uint64(1))
	c.Assert(st.Last.Second, qt.Equals, uint8(0x01))
	c.Assert(st.Error, qt.Equals, "")

	// seven reads of two transactions each, then the acknowledgement
	txs := rig.bus.Log()
	c.Assert(txs, qt.HasLen, 15)
	c.Assert(txs[14].W, qt.DeepEquals, []byte{0x01, 0x00})
}

func TestServicePolled(t *testing.T) {
	c := qt.New(t)
	rig := newRig(c, false)
	c.Assert(rig.d.polled, qt.Equals, true)
	c.Assert(rig.d.setup(true), qt.IsNil)

	rig.d.service()
	c.Assert(rig.d.tickCount(), qt.Equals, uint64(0))

	rig.chip.Tick()
	rig.chip.Tick()
	rig.d.service()
	c.Assert(rig.d.tickCount(), qt.Equals, uint64(1))
	c.Assert(rig.d.status().Last.Second, qt.Equals, uint8(0x02))

	rig.d.service()
	c.Assert(rig.d.tickCount(), qt.Equals, uint64(1))
}

func TestServiceReadFailure(t *testing.T) {
	c := qt.New(t)
	rig := newRig(c, true)
	rig.d.verbose = true
	c.Assert(rig.d.setup(true), qt.IsNil)
	rig.log.Reset()

	rig.chip.Tick()
	rig.chip.FailReads(true)
	rig.d.service()
	c.Assert(rig.d.dev.IsInterrupted(), qt.Equals, true)
	st := rig.d.status()
	c.Assert(st.Ticks, qt.Equals, uint64(0))
	c.Assert(st.Interrupted, qt.Equals, true)
	c.Assert(st.Error, qt.Matches, `pcf2129: could not read register SECONDS: .*`)

	rig.chip.FailReads(false)
	rig.d.service()
	c.Assert(rig.d.dev.IsInterrupted(), qt.Equals, false)
	c.Assert(rig.d.status().Error, qt.Equals, "")
	c.Assert(rig.log.String(), qt.Matches, `(?s)could not read time: .*\ntick 2000-00-00 00:00:01 \(weekday 0\)\n`)
}

// ackFailBus refuses writes to CONTROL2 once fail is set.
type ackFailBus struct {
	*tester.I2CBus
	fail bool
}

func (b *ackFailBus) Tx(addr uint16, w, r []byte) error {
	if b.fail && len(w) == 2 && w[0] == 0x01 {
		return tester.ErrNACK
	}
	return b.I2CBus.Tx(addr, w, r)
}

func TestServiceResumeFailure(t *testing.T) {
	c := qt.New(t)
	bus := &ackFailBus{I2CBus: tester.NewI2CBus(c)}
	chip := tester.NewPCF2129(c)
	bus.AddDevice(chip)
	d := newDaemon(config.Default(), bus, tester.NewPin(nil), log.New(io.Discard, "", 0))
	chip.Interrupt = d.dev.SetInterrupted
	c.Assert(d.setup(true), qt.IsNil)

	chip.Tick()
	bus.fail = true
	d.service()
	c.Assert(d.dev.IsInterrupted(), qt.Equals, true)
	st := d.status()
	c.Assert(st.Ticks, qt.Equals, uint64(1))
	c.Assert(st.Error, qt.Equals, "pcf2129: could not write register CONTROL2: tester: NACK received")

	bus.fail = false
	d.service()
	c.Assert(d.dev.IsInterrupted(), qt.Equals, false)
	c.Assert(d.tickCount(), qt.Equals, uint64(2))
}

func TestReport(t *testing.T) {
	c := qt.New(t)
	rig := newRig(c, true)
	mq := &fakeMQTT{}
	rig.d.pub = mqttpub.New(mq, "rtc", rig.d.msg)
	canvas := clockface.NewCanvas(128, 32)
	rig.d.face = clockface.NewFace(canvas)
	exp := &ledExpander{}
	rig.bus.AddDevice(exp)
	rig.d.led = pcf8574.New(rig.bus)
	c.Assert(rig.d.led.Configure(pcf8574.Config{}), qt.IsNil)
	rig.d.ledPin = 2

	c.Assert(rig.d.setup(false), qt.IsNil)
	c.Assert(mq.topics, qt.DeepEquals, []string{"rtc/state retained=true"})

	rig.chip.Tick()
	rig.d.service()
	c.Assert(mq.topics, qt.DeepEquals, []string{"rtc/state retained=true", "rtc/tick retained=false"})
	c.Assert(canvas.Displays(), qt.Equals, 1)
	c.Assert(exp.out, qt.Equals, uint8(0xFB))

	rig.chip.Tick()
	rig.d.service()
	c.Assert(exp.out, qt.Equals, uint8(0xFF))
	c.Assert(rig.d.tickCount(), qt.Equals, uint64(2))
}

func TestLoopStops(t *testing.T) {
	c := qt.New(t)
	rig := newRig(c, true)
	c.Assert(rig.d.setup(true), qt.IsNil)
	rig.d.poll = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rig.d.loop(ctx) }()

	rig.chip.Tick()
	deadline := time.Now().Add(5 * time.Second)
	for rig.d.tickCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	c.Assert(<-done, qt.IsNil)
	c.Assert(rig.d.tickCount(), qt.Equals, uint64(1))
}

func TestStatusHandler(t *testing.T) {
	c := qt.New(t)
	rig := newRig(c, true)
	c.Assert(rig.d.setup(true), qt.IsNil)
	rig.chip.Tick()
	rig.d.service()
	h := rig.d.handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
	c.Assert(rec.Header().Get("Content-Type"), qt.Equals, "application/json")

	var st Status
	c.Assert(json.Unmarshal(rec.Body.Bytes(), &st), qt.IsNil)
	c.Assert(st.State, qt.Equals, "running")
	c.Assert(st.Interrupted, qt.Equals, false)
	c.Assert(st.Ticks, qt.Equals, uint64(1))
	c.Assert(st.Last.Raw, qt.Equals, "2000-00-00 00:00:01 (weekday 0)")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/status", nil))
	c.Assert(rec.Code, qt.Equals, http.StatusMethodNotAllowed)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
	c.Assert(rec.Body.String(), qt.Equals, "ok\n")
}

func TestServe(t *testing.T) {
	c := qt.New(t)
	rig := newRig(c, true)
	c.Assert(rig.d.setup(false), qt.IsNil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	c.Assert(err, qt.IsNil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, ln, 2, rig.d.handler()) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/status")
	c.Assert(err, qt.IsNil)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	c.Assert(err, qt.IsNil)
	c.Assert(strings.Contains(string(body), `"state":"stopped"`), qt.Equals, true, qt.Commentf("%s", body))

	cancel()
	select {
	case err := <-done:
		c.Assert(err, qt.IsNil)
	case <-time.After(5 * time.Second):
		c.Fatalf("server did not stop")
	}
}
