package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTOptions configures the MQTT publisher.
type MQTTOptions struct {
	// Broker is "host:port" or a full URL such as "tcp://host:1883".
	Broker string `yaml:"broker" json:"broker"`

	// ClientID defaults to "shape-watch-<session>".
	ClientID string `yaml:"client_id" json:"client_id"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`

	// TopicPrefix is the first topic level; events go to
	// <prefix>/<session>/label.
	TopicPrefix string `yaml:"topic_prefix" json:"topic_prefix"`

	QoS    byte `yaml:"qos" json:"qos"`
	Retain bool `yaml:"retain" json:"retain"`

	ConnectTimeout time.Duration `yaml:"connect_timeout" json:"connect_timeout"`
	PublishTimeout time.Duration `yaml:"publish_timeout" json:"publish_timeout"`
}

// DefaultMQTTOptions leaves Broker empty, which disables publishing.
func DefaultMQTTOptions() MQTTOptions {
	return MQTTOptions{
		TopicPrefix:    "shapewatch",
		QoS:            1,
		ConnectTimeout: 5 * time.Second,
		PublishTimeout: 2 * time.Second,
	}
}

// Validate checks option ranges. An empty broker is valid (publishing off).
func (o MQTTOptions) Validate() error {
	if o.Broker == "" {
		return nil
	}
	if o.QoS > 2 {
		return fmt.Errorf("mqtt qos must be 0, 1 or 2, got %d", o.QoS)
	}
	if o.TopicPrefix == "" || strings.ContainsAny(o.TopicPrefix, "#+") {
		return fmt.Errorf("mqtt topic_prefix must be non-empty and free of wildcards, got %q", o.TopicPrefix)
	}
	if o.ConnectTimeout <= 0 || o.PublishTimeout <= 0 {
		return fmt.Errorf("mqtt timeouts must be positive")
	}
	return nil
}

func brokerURL(broker string) string {
	if strings.Contains(broker, "://") {
		return broker
	}
	return "tcp://" + broker
}

// MQTTPublisher publishes events as JSON to an MQTT broker.
type MQTTPublisher struct {
	opts    MQTTOptions
	session string
	topic   string
	client  mqtt.Client

	mu        sync.RWMutex
	connected bool
	published uint64
	errors    uint64
}

// NewMQTTPublisher creates a publisher for session. Call Connect before
// emitting.
func NewMQTTPublisher(opts MQTTOptions, session string) *MQTTPublisher {
	if opts.ClientID == "" {
		opts.ClientID = "shape-watch-" + session
	}

	p := &MQTTPublisher{
		opts:    opts,
		session: session,
		topic:   fmt.Sprintf("%s/%s/label", opts.TopicPrefix, session),
	}

	co := mqtt.NewClientOptions()
	co.AddBroker(brokerURL(opts.Broker))
	co.SetClientID(opts.ClientID)
	if opts.Username != "" {
		co.SetUsername(opts.Username)
		co.SetPassword(opts.Password)
	}
	co.SetAutoReconnect(true)
	co.SetConnectRetry(true)
	co.SetConnectRetryInterval(2 * time.Second)
	co.SetMaxReconnectInterval(30 * time.Second)

	co.OnConnect = func(c mqtt.Client) {
		p.setConnected(true)
		slog.Info("mqtt connection established", "broker", opts.Broker, "client_id", opts.ClientID)
	}
	co.OnConnectionLost = func(c mqtt.Client, err error) {
		p.setConnected(false)
		slog.Warn("mqtt connection lost, will auto-reconnect", "error", err, "broker", opts.Broker)
	}

	p.client = mqtt.NewClient(co)
	return p
}

// Topic returns the topic events are published to.
func (p *MQTTPublisher) Topic() string {
	return p.topic
}

// Connect establishes the broker connection, waiting at most ConnectTimeout.
func (p *MQTTPublisher) Connect(ctx context.Context) error {
	slog.Info("connecting to mqtt broker", "broker", p.opts.Broker)

	token := p.client.Connect()
	if !waitToken(ctx, token, p.opts.ConnectTimeout) {
		return fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connection failed: %w", err)
	}

	p.setConnected(true)
	return nil
}

// Emit publishes e as JSON.
func (p *MQTTPublisher) Emit(ctx context.Context, e Event) error {
	if !p.isConnected() {
		p.countError()
		return fmt.Errorf("mqtt not connected")
	}

	payload, err := json.Marshal(e)
	if err != nil {
		p.countError()
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	token := p.client.Publish(p.topic, p.opts.QoS, p.opts.Retain, payload)
	if !waitToken(ctx, token, p.opts.PublishTimeout) {
		p.countError()
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		p.countError()
		return fmt.Errorf("publish failed: %w", err)
	}

	p.mu.Lock()
	p.published++
	p.mu.Unlock()

	slog.Debug("label event published", "topic", p.topic, "qos", p.opts.QoS, "size", len(payload))
	return nil
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() error {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250) // 250ms grace period
		slog.Info("mqtt disconnected")
	}
	p.setConnected(false)
	return nil
}

// MQTTStats counts publisher activity.
type MQTTStats struct {
	Connected bool
	Published uint64
	Errors    uint64
}

// Stats returns publisher statistics.
func (p *MQTTPublisher) Stats() MQTTStats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return MQTTStats{Connected: p.connected, Published: p.published, Errors: p.errors}
}

func (p *MQTTPublisher) setConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}

func (p *MQTTPublisher) isConnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connected
}

func (p *MQTTPublisher) countError() {
	p.mu.Lock()
	p.errors++
	p.mu.Unlock()
}

// waitToken waits for token until timeout or ctx is done. It reports whether
// the token completed.
func waitToken(ctx context.Context, token mqtt.Token, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}
