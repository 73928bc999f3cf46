package transport

import (
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/densemap/framebridge/internal/monitoring"
)

const (
	defaultConnectTimeout = 30 * time.Second
	defaultPublishTimeout = 5 * time.Second

	requestSuffix  = "/request"
	responseSuffix = "/response"
)

// MQTTConfig configures the broker connection. Zero-valued timeouts
// get sensible defaults.
type MQTTConfig struct {
	BrokerURL      string // e.g. tcp://localhost:1883
	ClientID       string
	Username       string
	Password       string
	QoS            byte
	ConnectTimeout time.Duration
	PublishTimeout time.Duration
}

// MQTT is a Transport backed by an MQTT broker. Broker callbacks only
// enqueue payloads; handlers run from ServiceOnce on the servicing
// goroutine, preserving the bridge's poll-driven dispatch model.
//
// Request endpoints are mapped onto a topic pair: a request arrives on
// "<name>/request" and the handler's result is published on
// "<name>/response".
type MQTT struct {
	cfg MQTTConfig
	cli mqtt.Client

	mu        sync.Mutex
	closed    bool
	subs      map[string]*mqttSub
	reqs      map[string]RequestHandler
	pendingRq []string
}

type mqttSub struct {
	handler Handler
	queue   pendingQueue
}

// NewMQTT connects to the broker and returns the transport. The
// connection uses automatic reconnect; subscriptions are re-established
// by the broker session.
func NewMQTT(cfg MQTTConfig) (*MQTT, error) {
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.PublishTimeout == 0 {
		cfg.PublishTimeout = defaultPublishTimeout
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		monitoring.Logf("mqtt: connection lost: %v", err)
	})

	t := &MQTT{
		cfg:  cfg,
		subs: make(map[string]*mqttSub),
		reqs: make(map[string]RequestHandler),
	}
	t.cli = mqtt.NewClient(opts)

	token := t.cli.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s: timeout", cfg.BrokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", cfg.BrokerURL, err)
	}
	return t, nil
}

func (t *MQTT) Subscribe(stream string, h Handler) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	if _, ok := t.subs[stream]; ok {
		t.mu.Unlock()
		return fmt.Errorf("%w: stream %q", ErrDuplicateHandler, stream)
	}
	sub := &mqttSub{handler: h}
	t.subs[stream] = sub
	t.mu.Unlock()

	token := t.cli.Subscribe(stream, t.cfg.QoS, func(_ mqtt.Client, msg mqtt.Message) {
		t.mu.Lock()
		sub.queue.push(msg.Payload())
		t.mu.Unlock()
	})
	if !token.WaitTimeout(t.cfg.ConnectTimeout) {
		return fmt.Errorf("mqtt subscribe %q: timeout", stream)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt subscribe %q: %w", stream, err)
	}
	return nil
}

func (t *MQTT) RegisterRequestHandler(name string, h RequestHandler) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	if _, ok := t.reqs[name]; ok {
		t.mu.Unlock()
		return fmt.Errorf("%w: request %q", ErrDuplicateHandler, name)
	}
	t.reqs[name] = h
	t.mu.Unlock()

	topic := name + requestSuffix
	token := t.cli.Subscribe(topic, t.cfg.QoS, func(_ mqtt.Client, _ mqtt.Message) {
		t.mu.Lock()
		t.pendingRq = append(t.pendingRq, name)
		t.mu.Unlock()
	})
	if !token.WaitTimeout(t.cfg.ConnectTimeout) {
		return fmt.Errorf("mqtt subscribe %q: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt subscribe %q: %w", topic, err)
	}
	return nil
}

// ServiceOnce dispatches buffered deliveries and pending requests.
// Handlers run without the transport lock held.
func (t *MQTT) ServiceOnce() {
	type dispatch struct {
		handler Handler
		payload []byte
	}
	var work []dispatch
	var requests []string

	t.mu.Lock()
	for _, sub := range t.subs {
		h := sub.handler
		sub.queue.drain(func(p []byte) {
			work = append(work, dispatch{handler: h, payload: p})
		})
	}
	requests, t.pendingRq = t.pendingRq, nil
	t.mu.Unlock()

	for _, d := range work {
		d.handler(d.payload)
	}
	for _, name := range requests {
		t.serveRequest(name)
	}
}

func (t *MQTT) serveRequest(name string) {
	t.mu.Lock()
	h := t.reqs[name]
	t.mu.Unlock()
	if h == nil {
		return
	}
	resp, err := h()
	if err != nil {
		monitoring.Logf("mqtt: request %q failed: %v", name, err)
		return
	}
	if err := t.Publish(name+responseSuffix, resp); err != nil {
		monitoring.Logf("mqtt: publish %q response: %v", name, err)
	}
}

func (t *MQTT) Publish(stream string, payload []byte) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	t.mu.Unlock()

	token := t.cli.Publish(stream, t.cfg.QoS, false, payload)
	if !token.WaitTimeout(t.cfg.PublishTimeout) {
		return fmt.Errorf("mqtt publish %q: timeout", stream)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish %q: %w", stream, err)
	}
	return nil
}

func (t *MQTT) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	t.cli.Disconnect(250)
	return nil
}
