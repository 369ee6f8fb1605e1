// Package mqtt bridges the host's property changes to an MQTT broker.
//
// Every property change on the event bus is published retained under
// <prefix>/<device>/<property>; a message on <prefix>/<device>/<property>/set
// is applied through the host like an API write. The daemon's own
// availability is kept in <prefix>/status, with a will covering crashes.
package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/jmylchreest/chrolisd/internal/config"
	"github.com/jmylchreest/chrolisd/internal/events"
)

// Setter applies property writes arriving on command topics.
type Setter interface {
	Set(name, property, value string) error
}

// ClientFactory creates the underlying paho client.
type ClientFactory func(*pahomqtt.ClientOptions) pahomqtt.Client

// Bridge connects the event bus and the host to an MQTT broker.
type Bridge struct {
	logger *slog.Logger
	cfg    config.MQTTConfig
	topics Topics
	bus    *events.Bus
	setter Setter
	client pahomqtt.Client

	mu    sync.Mutex
	last  map[string]string
	unsub func()
}

// New creates a bridge using the paho client.
func New(logger *slog.Logger, cfg config.MQTTConfig, bus *events.Bus, setter Setter) (*Bridge, error) {
	return NewWithFactory(logger, cfg, bus, setter, pahomqtt.NewClient)
}

// NewWithFactory is New with a custom client factory.
func NewWithFactory(logger *slog.Logger, cfg config.MQTTConfig, bus *events.Bus, setter Setter, factory ClientFactory) (*Bridge, error) {
	if cfg.QoS < 0 || cfg.QoS > maxQoS {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQoS, cfg.QoS)
	}
	prefix := strings.Trim(cfg.TopicPrefix, "/")
	if prefix == "" || strings.ContainsAny(prefix, "+#") {
		return nil, fmt.Errorf("%w: prefix %q", ErrInvalidTopic, cfg.TopicPrefix)
	}
	if logger == nil {
		logger = slog.Default()
	}

	b := &Bridge{
		logger: logger,
		cfg:    cfg,
		topics: Topics{Prefix: prefix},
		bus:    bus,
		setter: setter,
		last:   make(map[string]string),
	}

	opts := buildClientOptions(cfg)
	opts.SetWill(b.topics.Status(), string(buildStatusPayload("offline", cfg.ClientID, "unexpected_disconnect")), b.qos(), true)
	opts.SetOnConnectHandler(func(pahomqtt.Client) { b.handleConnect() })
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		b.logger.Warn("mqtt: connection lost", "broker", cfg.Broker, "error", err)
	})
	b.client = factory(opts)
	return b, nil
}

func (b *Bridge) qos() byte {
	return byte(b.cfg.QoS)
}

// Topics returns the bridge's topic builder.
func (b *Bridge) Topics() Topics {
	return b.topics
}

// Start begins tracking property changes and connects to the broker. It
// returns once connected; the client keeps retrying until ctx ends.
// Changes seen while offline are published on connect.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.unsub == nil && b.bus != nil {
		b.unsub = b.bus.SubscribeTypes(b.onEvent, events.PropertyChanged)
	}
	b.mu.Unlock()

	token := b.client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrConnectionFailed, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	b.logger.Info("mqtt: bridge started", "broker", b.cfg.Broker, "prefix", b.topics.Prefix)
	return nil
}

// handleConnect runs on every (re)connect: clean sessions lose their
// subscriptions and retained values may have been replaced by the will.
func (b *Bridge) handleConnect() {
	token := b.client.Subscribe(b.topics.CommandFilter(), b.qos(), b.onMessage)
	if !token.WaitTimeout(defaultPublishTimeout) || token.Error() != nil {
		b.logger.Error("mqtt: subscribe failed", "topic", b.topics.CommandFilter(), "error", token.Error())
	}

	b.publish(b.topics.Status(), buildStatusPayload("online", b.cfg.ClientID, ""))

	b.mu.Lock()
	retained := make(map[string]string, len(b.last))
	for k, v := range b.last {
		retained[k] = v
	}
	b.mu.Unlock()
	for topic, value := range retained {
		b.publish(topic, []byte(value))
	}
}

func (b *Bridge) onEvent(e events.Event) {
	var change events.PropertyChange
	if err := e.Decode(&change); err != nil {
		b.logger.Warn("mqtt: undecodable property event", "error", err)
		return
	}
	topic, err := b.topics.Property(change.Device, change.Property)
	if err != nil {
		b.logger.Debug("mqtt: property not publishable", "error", err)
		return
	}

	b.mu.Lock()
	prev, seen := b.last[topic]
	b.last[topic] = change.Value
	b.mu.Unlock()
	if seen && prev == change.Value {
		return
	}
	if !b.client.IsConnected() {
		return
	}
	b.publish(topic, []byte(change.Value))
}

// publish queues a retained message and reports its outcome from a separate
// goroutine. It never blocks, so it is safe inside paho message handlers,
// where a command write fans out into property publishes.
func (b *Bridge) publish(topic string, payload []byte) {
	token := b.client.Publish(topic, b.qos(), true, payload)
	go b.report(topic, token)
}

// publishAndWait is publish for callers that must see the message leave
// before going on.
func (b *Bridge) publishAndWait(topic string, payload []byte) {
	b.report(topic, b.client.Publish(topic, b.qos(), true, payload))
}

func (b *Bridge) report(topic string, token pahomqtt.Token) {
	if !token.WaitTimeout(defaultPublishTimeout) {
		b.logger.Warn("mqtt: publish timed out", "topic", topic)
		return
	}
	if err := token.Error(); err != nil {
		b.logger.Warn("mqtt: publish failed", "topic", topic, "error", fmt.Errorf("%w: %w", ErrPublishFailed, err))
	}
}

func (b *Bridge) onMessage(_ pahomqtt.Client, msg pahomqtt.Message) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("mqtt: command handler panic recovered", "topic", msg.Topic(), "panic", r)
		}
	}()
	if err := b.HandleCommand(msg.Topic(), msg.Payload()); err != nil {
		b.logger.Warn("mqtt: command rejected", "topic", msg.Topic(), "error", err)
	}
}

// HandleCommand applies a message received on a command topic.
func (b *Bridge) HandleCommand(topic string, payload []byte) error {
	device, property, err := b.topics.ParseCommand(topic)
	if err != nil {
		return err
	}
	value := strings.TrimSpace(string(payload))
	b.logger.Debug("mqtt: command", "device", device, "property", property, "value", value)
	return b.setter.Set(device, property, value)
}

// Stop stops forwarding, marks the daemon offline and disconnects.
func (b *Bridge) Stop() {
	b.mu.Lock()
	if b.unsub != nil {
		b.unsub()
		b.unsub = nil
	}
	b.mu.Unlock()

	if b.client.IsConnected() {
		b.publishAndWait(b.topics.Status(), buildStatusPayload("offline", b.cfg.ClientID, "graceful_shutdown"))
	}
	b.client.Disconnect(defaultDisconnectQuiesce)
	b.logger.Info("mqtt: bridge stopped")
}
