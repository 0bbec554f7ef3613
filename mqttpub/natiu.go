package mqttpub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"sync"

	mqtt "github.com/soypat/natiu-mqtt"
)

// Natiu is a Client backed by natiu-mqtt. Only QoS 0 is used, so no
// acknowledgements are awaited after CONNECT.
type Natiu struct {
	mu     sync.Mutex
	client *mqtt.Client
	conn   net.Conn
}

// DialNatiu connects to broker, given either as host:port or as a tcp://
// URL.
func DialNatiu(ctx context.Context, broker, clientID string) (*Natiu, error) {
	addr := broker
	if u, err := url.Parse(broker); err == nil && u.Host != "" {
		addr = u.Host
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("mqttpub: could not dial %s: %w", addr, err)
	}
	n, err := NewNatiu(ctx, conn, clientID)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return n, nil
}

// NewNatiu performs the MQTT handshake on an already open connection.
func NewNatiu(ctx context.Context, conn net.Conn, clientID string) (*Natiu, error) {
	client := mqtt.NewClient(mqtt.ClientConfig{
		Decoder: mqtt.DecoderNoAlloc{UserBuffer: make([]byte, 512)},
		OnPub: func(_ mqtt.Header, _ mqtt.VariablesPublish, r io.Reader) error {
			// nothing is subscribed; drain whatever the broker sends
			_, err := io.Copy(io.Discard, r)
			return err
		},
	})

	var varconn mqtt.VariablesConnect
	varconn.SetDefaultMQTT([]byte(clientID))
	err := client.Connect(ctx, conn, &varconn)
	if err != nil {
		return nil, fmt.Errorf("mqttpub: could not connect as %q: %w", clientID, err)
	}
	return &Natiu{client: client, conn: conn}, nil
}

func (n *Natiu) Publish(topic string, retained bool, payload []byte) error {
	flags, err := mqtt.NewPublishFlags(mqtt.QoS0, false, retained)
	if err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	return n.client.PublishPayload(flags, mqtt.VariablesPublish{TopicName: []byte(topic)}, payload)
}

func (n *Natiu) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	err := n.client.Disconnect(errors.New("mqttpub: closed"))
	if cerr := n.conn.Close(); err == nil {
		err = cerr
	}
	return err
}
