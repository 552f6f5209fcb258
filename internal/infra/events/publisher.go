// Package events publishes print events to an MQTT broker.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"qlweb/internal/config"
	"qlweb/internal/domain"
	"qlweb/internal/infra/logging"
)

const publishTimeout = 2 * time.Second

// client is the part of paho.Client the publisher uses.
type client interface {
	Connect() paho.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// Publisher sends print records as JSON. Without a configured host it is a
// disabled no-op.
type Publisher struct {
	client  client
	topic   string
	enabled bool
}

// New creates a publisher. It does not connect; call Connect.
func New(cfg config.MQTTConfig) *Publisher {
	p := &Publisher{topic: cfg.Topic}
	if cfg.Host == "" {
		logging.Info("MQTT disabled (no host configured)")
		return p
	}

	port := cfg.Port
	if port == 0 {
		port = 1883
	}
	opts := paho.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Host, port)).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetKeepAlive(60 * time.Second).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logging.Warn("MQTT connection lost", "error", err)
		}).
		SetOnConnectHandler(func(_ paho.Client) {
			logging.Info("MQTT connection established", "host", cfg.Host)
		})
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username).SetPassword(cfg.Password)
	}

	p.client = paho.NewClient(opts)
	p.enabled = true
	return p
}

// Enabled reports whether events are sent.
func (p *Publisher) Enabled() bool { return p != nil && p.enabled }

// Connect starts the connection. The client keeps retrying in the
// background when the broker is not reachable within timeout.
func (p *Publisher) Connect(timeout time.Duration) error {
	if !p.Enabled() {
		return nil
	}
	token := p.client.Connect()
	if !token.WaitTimeout(timeout) {
		logging.Warn("MQTT broker not reachable yet, retrying in background")
		return nil
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

// PublishPrint sends rec to the configured topic.
func (p *Publisher) PublishPrint(rec domain.PrintRecord) error {
	if !p.Enabled() {
		return nil
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	token := p.client.Publish(p.topic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("mqtt publish to %s timed out", p.topic)
	}
	return token.Error()
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	if !p.Enabled() {
		return
	}
	p.client.Disconnect(250)
}
