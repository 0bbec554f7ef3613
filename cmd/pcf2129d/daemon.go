package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ajanata/rtcdrivers"
	"github.com/ajanata/rtcdrivers/clockface"
	"github.com/ajanata/rtcdrivers/internal/config"
	"github.com/ajanata/rtcdrivers/internal/hw"
	"github.com/ajanata/rtcdrivers/mqttpub"
	"github.com/ajanata/rtcdrivers/pcf2129"
	"github.com/ajanata/rtcdrivers/pcf8574"
	"github.com/ajanata/rtcdrivers/ssd1306"
)

// daemon services the interrupts of one PCF2129.
type daemon struct {
	dev     *pcf2129.Device
	pub     *mqttpub.Publisher // nil when MQTT is disabled
	face    *clockface.Face    // nil without a display
	led     *pcf8574.Device    // nil without a tick LED
	ledPin  uint8
	poll    time.Duration
	polled  bool // no interrupt pin: CONTROL2 is polled for MSF
	verbose bool
	msg     *log.Logger

	mu      sync.Mutex
	ticks   uint64
	last    *pcf2129.DateTime
	lastErr error
}

func newDaemon(cfg *config.Config, bus drivers.I2C, pin drivers.Pin, msg *log.Logger) *daemon {
	dev := pcf2129.New(bus, pin)
	dev.Address = uint8(cfg.Device.Address)
	return &daemon{
		dev:    dev,
		poll:   cfg.PollInterval(),
		polled: pin == nil,
		msg:    msg,
	}
}

func run(ctx context.Context, cfg *config.Config, verbose bool) error {
	board, err := hw.Open(cfg)
	if err != nil {
		return fmt.Errorf("could not open hardware: %w", err)
	}
	defer board.Close()

	d := newDaemon(cfg, board.Bus, board.IntPin(), msg)
	d.verbose = verbose

	if cfg.Display.Enabled {
		disp := ssd1306.New(board.Bus)
		err = disp.Configure(ssd1306.Config{
			Width:   int16(cfg.Display.Width),
			Height:  int16(cfg.Display.Height),
			Address: uint16(cfg.Display.Address),
		})
		if err != nil {
			return fmt.Errorf("could not configure display: %w", err)
		}
		d.face = clockface.NewFace(disp)
	}

	if cfg.LED.Enabled {
		d.led = pcf8574.New(board.Bus)
		err = d.led.Configure(pcf8574.Config{Address: uint8(cfg.LED.Address)})
		if err != nil {
			return fmt.Errorf("could not configure tick LED: %w", err)
		}
		d.ledPin = uint8(cfg.LED.Pin)
	}

	if cfg.MQTT.Enabled {
		client, err := dialMQTT(ctx, cfg.MQTT)
		if err != nil {
			return err
		}
		d.pub = mqttpub.New(client, cfg.MQTT.Prefix, msg)
		defer d.pub.Close()
	}

	err = d.setup(cfg.Device.Start)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("could not listen on %q: %w", cfg.HTTP.Addr, err)
	}
	msg.Printf("serving status on %q...", ln.Addr())

	grp, ctx := errgroup.WithContext(ctx)
	if board.Pin != nil {
		grp.Go(func() error {
			return board.Pin.Watch(ctx, d.dev.SetInterrupted)
		})
	}
	grp.Go(func() error {
		return d.loop(ctx)
	})
	grp.Go(func() error {
		return serve(ctx, ln, cfg.HTTP.MaxConns, d.handler())
	})

	err = grp.Wait()
	if err != nil {
		return fmt.Errorf("daemon failed: %w", err)
	}
	msg.Printf("stopped after %d ticks", d.tickCount())
	return nil
}

func dialMQTT(ctx context.Context, cfg config.MQTTConfig) (mqttpub.Client, error) {
	switch cfg.Client {
	case config.ClientNatiu:
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return mqttpub.DialNatiu(ctx, cfg.Broker, cfg.ClientID)
	default:
		return mqttpub.DialPaho(cfg.Broker, cfg.ClientID)
	}
}

// setup configures the chip and starts the oscillator if asked to.
func (d *daemon) setup(start bool) error {
	err := d.dev.Configure()
	if err != nil {
		return fmt.Errorf("could not configure PCF2129: %w", err)
	}
	if start {
		err = d.dev.Start()
		if err != nil {
			return fmt.Errorf("could not start PCF2129: %w", err)
		}
	}
	d.msg.Printf("PCF2129 at 0x%02x %v", d.dev.Address, d.dev.State())
	d.publishState()
	return nil
}

func (d *daemon) publishState() {
	if d.pub == nil {
		return
	}
	err := d.pub.State(d.dev.State())
	if err != nil {
		d.msg.Printf("%+v", err)
	}
}

// loop services pending interrupts until ctx is done.
func (d *daemon) loop(ctx context.Context) error {
	tck := time.NewTicker(d.poll)
	defer tck.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tck.C:
			d.service()
		}
	}
}

// service handles one pending interrupt, if any. A tick whose time cannot
// be read stays pending and is retried on the next call.
func (d *daemon) service() {
	if d.polled && !d.dev.IsInterrupted() {
		v, err := d.dev.ReadRegister(pcf2129.Control2)
		if err != nil {
			d.setErr(err)
			return
		}
		if v&pcf2129.Control2MSF != 0 {
			d.dev.SetInterrupted()
		}
	}
	if !d.dev.IsInterrupted() {
		return
	}

	dt, err := d.dev.ReadDateTime()
	if err != nil {
		d.msg.Printf("could not read time: %+v", err)
		d.setErr(err)
		return
	}

	d.mu.Lock()
	d.ticks++
	d.last = &dt
	d.lastErr = nil
	d.mu.Unlock()

	if d.verbose {
		d.msg.Printf("tick %v", dt)
	}
	d.report(dt)

	err = d.dev.ResumeInterrupt()
	if err != nil {
		d.msg.Printf("could not resume interrupt: %+v", err)
		d.setErr(err)
	}
}

// report hands a tick to the optional outputs. Their failures are logged
// and do not hold the tick back.
func (d *daemon) report(dt pcf2129.DateTime) {
	if d.pub != nil {
		err := d.pub.Tick(dt)
		if err != nil {
			d.msg.Printf("%+v", err)
		}
	}
	if d.face != nil {
		err := d.face.Draw(dt)
		if err != nil {
			d.msg.Printf("could not draw clock face: %+v", err)
		}
	}
	if d.led != nil {
		err := d.led.Toggle(d.ledPin)
		if err != nil {
			d.msg.Printf("could not toggle tick LED: %+v", err)
		}
	}
}

func (d *daemon) setErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastErr = err
}

func (d *daemon) tickCount() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ticks
}
