package mqtt

import (
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

type fakeToken struct {
	err  error
	done chan struct{}
}

func doneToken(err error) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool { <-t.done; return true }
func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}
func (t *fakeToken) Done() <-chan struct{} { return t.done }
func (t *fakeToken) Error() error          { return t.err }

type published struct {
	Topic    string
	Payload  string
	QoS      byte
	Retained bool
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

// fakeClient records publishes and subscriptions. Unused interface methods
// panic through the nil embedded client.
type fakeClient struct {
	pahomqtt.Client

	opts        *pahomqtt.ClientOptions
	connectErr  error
	hold        chan struct{}
	publishHold chan struct{}

	mu            sync.Mutex
	connected     bool
	published     []published
	subscriptions map[string]pahomqtt.MessageHandler
	disconnects   int
}

func newFakeClient() *fakeClient {
	return &fakeClient{subscriptions: map[string]pahomqtt.MessageHandler{}}
}

func (f *fakeClient) factory(opts *pahomqtt.ClientOptions) pahomqtt.Client {
	f.opts = opts
	return f
}

func (f *fakeClient) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeClient) Connect() pahomqtt.Token {
	if f.hold != nil {
		return &fakeToken{done: f.hold}
	}
	if f.connectErr != nil {
		return doneToken(f.connectErr)
	}
	f.mu.Lock()
	f.connected = true
	f.mu.Unlock()
	if f.opts != nil && f.opts.OnConnect != nil {
		f.opts.OnConnect(f)
	}
	return doneToken(nil)
}

func (f *fakeClient) Disconnect(uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	f.disconnects++
}

func (f *fakeClient) Publish(topic string, qos byte, retained bool, payload any) pahomqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, published{topic, string(payload.([]byte)), qos, retained})
	if f.publishHold != nil {
		return &fakeToken{done: f.publishHold}
	}
	return doneToken(nil)
}

func (f *fakeClient) Subscribe(topic string, _ byte, cb pahomqtt.MessageHandler) pahomqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscriptions[topic] = cb
	return doneToken(nil)
}

func (f *fakeClient) deliver(topic, payload string) {
	f.mu.Lock()
	var cb pahomqtt.MessageHandler
	for _, h := range f.subscriptions {
		cb = h
	}
	f.mu.Unlock()
	cb(f, fakeMessage{topic: topic, payload: []byte(payload)})
}

func (f *fakeClient) sent() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.published...)
}

func (f *fakeClient) values() map[string]string {
	out := map[string]string{}
	for _, p := range f.sent() {
		out[p.Topic] = p.Payload
	}
	return out
}

func (f *fakeClient) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = nil
}
