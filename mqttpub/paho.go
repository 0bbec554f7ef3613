package mqttpub

import (
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const pahoTimeout = 5 * time.Second

var errTimeout = errors.New("mqttpub: timed out")

// Paho is a Client backed by the Eclipse Paho library.
type Paho struct {
	client paho.Client
}

// DialPaho connects to broker (for example "tcp://localhost:1883").
func DialPaho(broker, clientID string) (*Paho, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectTimeout(pahoTimeout).
		SetWriteTimeout(pahoTimeout).
		SetAutoReconnect(true)

	client := paho.NewClient(opts)
	err := wait(client.Connect())
	if err != nil {
		return nil, fmt.Errorf("mqttpub: could not connect to %s: %w", broker, err)
	}
	return &Paho{client: client}, nil
}

func (p *Paho) Publish(topic string, retained bool, payload []byte) error {
	return wait(p.client.Publish(topic, 0, retained, payload))
}

func (p *Paho) Close() error {
	p.client.Disconnect(250)
	return nil
}

func wait(tok paho.Token) error {
	if !tok.WaitTimeout(pahoTimeout) {
		return errTimeout
	}
	return tok.Error()
}
