// Package mqttpub publishes PCF2129 ticks and oscillator state to an MQTT
// broker.
//
// Two clients are provided: Paho, for hosts with a full network stack, and
// Natiu, a small allocation-free client usable on microcontrollers.
package mqttpub

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ajanata/rtcdrivers/pcf2129"
)

// Client sends one message to the broker.
type Client interface {
	Publish(topic string, retained bool, payload []byte) error
	Close() error
}

// Tick is the payload published on every watchdog interrupt.
type Tick struct {
	Second  uint8  `json:"second"`
	Minute  uint8  `json:"minute"`
	Hour    uint8  `json:"hour"`
	Day     uint8  `json:"day"`
	Weekday uint8  `json:"weekday"`
	Month   uint8  `json:"month"`
	Year    uint8  `json:"year"`
	Raw     string `json:"raw"`
	Time    string `json:"time,omitempty"` // empty when the registers do not hold a valid date
}

// NewTick builds the payload for dt.
func NewTick(dt pcf2129.DateTime) Tick {
	tick := Tick{
		Second:  dt.Second,
		Minute:  dt.Minute,
		Hour:    dt.Hour,
		Day:     dt.Day,
		Weekday: dt.Weekday,
		Month:   dt.Month,
		Year:    dt.Year,
		Raw:     dt.String(),
	}
	if t, err := dt.Time(); err == nil {
		tick.Time = t.Format(time.RFC3339)
	}
	return tick
}

// Publisher formats driver events and hands them to a Client.
type Publisher struct {
	client Client
	prefix string
	msg    *log.Logger
}

// New returns a publisher sending to topics under prefix. A nil logger logs
// to stdout.
func New(client Client, prefix string, msg *log.Logger) *Publisher {
	if msg == nil {
		msg = log.New(os.Stdout, "mqttpub: ", 0)
	}
	return &Publisher{
		client: client,
		prefix: prefix,
		msg:    msg,
	}
}

// TickTopic is the topic ticks are published on.
func (p *Publisher) TickTopic() string { return p.prefix + "/tick" }

// StateTopic is the topic the oscillator state is published on.
func (p *Publisher) StateTopic() string { return p.prefix + "/state" }

// Tick publishes dt on the tick topic, QoS 0, not retained.
func (p *Publisher) Tick(dt pcf2129.DateTime) error {
	payload, err := json.Marshal(NewTick(dt))
	if err != nil {
		return fmt.Errorf("mqttpub: could not encode tick: %w", err)
	}
	err = p.client.Publish(p.TickTopic(), false, payload)
	if err != nil {
		return fmt.Errorf("mqttpub: could not publish tick: %w", err)
	}
	return nil
}

// State publishes s on the state topic as a retained message, so that new
// subscribers see the current state.
func (p *Publisher) State(s pcf2129.State) error {
	err := p.client.Publish(p.StateTopic(), true, []byte(s.String()))
	if err != nil {
		return fmt.Errorf("mqttpub: could not publish state %v: %w", s, err)
	}
	p.msg.Printf("state %v published on %s", s, p.StateTopic())
	return nil
}

// Close disconnects the client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
