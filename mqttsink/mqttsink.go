// mqttsink publishes decoded IR codes to an MQTT broker.
package mqttsink

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/sparques/irmux/nec"
)

// publishTimeout bounds how long a publish token is waited on.
const publishTimeout = 2 * time.Second

// tokenPublisher is the part of mqtt.Client the sink uses.
type tokenPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Message is the JSON payload published for every code.
type Message struct {
	Instance string `json:"instance"`
	Channel  int    `json:"channel"`
	Name     string `json:"name,omitempty"`
	Code     string `json:"code"`
	Addr     uint16 `json:"addr"`
	Cmd      uint16 `json:"cmd"`
	Time     int64  `json:"ts"` // unix ms
}

// Publisher is an irmux.Consumer publishing to {topic}/{channel name}.
// HandleCode never waits on the broker; delivery results are logged and
// counted from a separate goroutine.
type Publisher struct {
	client   tokenPublisher
	topic    string
	qos      byte
	instance string
	names    []string
	log      *slog.Logger
	now      func() time.Time

	mu        sync.Mutex
	published uint64
	errors    uint64
}

// New returns a publisher. names[i] is the topic suffix for channel i;
// channels without a name use their number.
func New(client mqtt.Client, topic string, qos byte, instance string, names []string, log *slog.Logger) *Publisher {
	return newPublisher(client, topic, qos, instance, names, log)
}

func newPublisher(client tokenPublisher, topic string, qos byte, instance string, names []string, log *slog.Logger) *Publisher {
	if log == nil {
		log = slog.Default()
	}
	return &Publisher{
		client:   client,
		topic:    topic,
		qos:      qos,
		instance: instance,
		names:    names,
		log:      log,
		now:      time.Now,
	}
}

func (p *Publisher) name(channel int) string {
	if channel >= 0 && channel < len(p.names) && p.names[channel] != "" {
		return p.names[channel]
	}
	return strconv.Itoa(channel)
}

// HandleCode implements irmux.Consumer.
func (p *Publisher) HandleCode(channel int, code uint32) {
	var f nec.Frame
	f.UnmarshalFrame(code)

	name := p.name(channel)
	payload, err := json.Marshal(Message{
		Instance: p.instance,
		Channel:  channel,
		Name:     name,
		Code:     fmt.Sprintf("%08x", code),
		Addr:     f.Addr,
		Cmd:      f.Cmd,
		Time:     p.now().UnixMilli(),
	})
	if err != nil {
		p.fail("marshal code", err, channel)
		return
	}

	topic := p.topic + "/" + name
	token := p.client.Publish(topic, p.qos, false, payload)
	go p.await(token, topic, len(payload))
}

func (p *Publisher) await(token mqtt.Token, topic string, size int) {
	if !token.WaitTimeout(publishTimeout) {
		p.fail("publish timeout", nil, -1)
		return
	}
	if err := token.Error(); err != nil {
		p.fail("publish failed", err, -1)
		return
	}

	p.mu.Lock()
	p.published++
	p.mu.Unlock()

	p.log.Debug("code published", "topic", topic, "qos", p.qos, "size", size)
}

func (p *Publisher) fail(msg string, err error, channel int) {
	p.mu.Lock()
	p.errors++
	p.mu.Unlock()

	args := []any{"error", err}
	if channel >= 0 {
		args = append(args, "channel", channel)
	}
	p.log.Warn(msg, args...)
}

// Stats returns the number of acknowledged publishes and failures so far.
func (p *Publisher) Stats() (published, errors uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.published, p.errors
}
