package mqttsink

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/sparques/irmux"
)

type fakeToken struct {
	err  error
	done chan struct{}
}

func newToken(err error) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeClient struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, published{topic, qos, payload.([]byte)})
	return newToken(c.err)
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// waitStats polls until the publisher accounted for n results.
func waitStats(t *testing.T, p *Publisher, n uint64) (uint64, uint64) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		ok, failed := p.Stats()
		if ok+failed >= n {
			return ok, failed
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("publish results not accounted for")
	return 0, 0
}

func TestPublisherHandleCode(t *testing.T) {
	client := &fakeClient{}
	p := newPublisher(client, "ir/codes", 1, "crossing-7", []string{"north", "", "south"}, quiet)
	p.now = func() time.Time { return time.UnixMilli(1700000000123) }

	var c irmux.Consumer = p
	c.HandleCode(0, 0xF708FB04)
	c.HandleCode(1, 0x00000001)

	if ok, failed := waitStats(t, p, 2); ok != 2 || failed != 0 {
		t.Errorf("Stats() = %d, %d, want 2, 0", ok, failed)
	}

	client.mu.Lock()
	defer client.mu.Unlock()
	if len(client.msgs) != 2 {
		t.Fatalf("published %d messages, want 2", len(client.msgs))
	}
	if client.msgs[0].topic != "ir/codes/north" || client.msgs[1].topic != "ir/codes/1" {
		t.Errorf("topics = %q, %q", client.msgs[0].topic, client.msgs[1].topic)
	}
	if client.msgs[0].qos != 1 {
		t.Errorf("qos = %d, want 1", client.msgs[0].qos)
	}

	var m Message
	if err := json.Unmarshal(client.msgs[0].payload, &m); err != nil {
		t.Fatal(err)
	}
	want := Message{
		Instance: "crossing-7",
		Channel:  0,
		Name:     "north",
		Code:     "f708fb04",
		Addr:     0xFB04,
		Cmd:      0xF708,
		Time:     1700000000123,
	}
	if m != want {
		t.Errorf("message = %+v, want %+v", m, want)
	}
}

func TestPublisherCountsFailures(t *testing.T) {
	client := &fakeClient{err: errors.New("not connected")}
	p := newPublisher(client, "ir", 0, "x", nil, quiet)

	p.HandleCode(7, 0xFF)
	if ok, failed := waitStats(t, p, 1); ok != 0 || failed != 1 {
		t.Errorf("Stats() = %d, %d, want 0, 1", ok, failed)
	}
}
