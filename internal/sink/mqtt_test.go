package sink

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"TempDash/internal/model"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakeClient records publishes; methods it does not override panic through the nil embedded interface.
type fakeClient struct {
	mqtt.Client
	published    []published
	publishErr   error
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.published = append(c.published, published{topic, qos, retained, payload.([]byte)})
	return &fakeToken{err: c.publishErr}
}

func (c *fakeClient) IsConnected() bool      { return !c.disconnected }
func (c *fakeClient) Disconnect(quiesce uint) { c.disconnected = true }

func TestMQTTPublisherPublishesJSON(t *testing.T) {
	client := &fakeClient{}
	p := newMQTTPublisher(client, "tempdash/readings")
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := p.Write(context.Background(), model.Reading{Name: "NodeA", TemperatureC: 23.45, RSSI: -67, CapturedAt: at}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if len(client.published) != 1 {
		t.Fatalf("published %d messages", len(client.published))
	}
	msg := client.published[0]
	if msg.topic != "tempdash/readings" || msg.qos != 0 || msg.retained {
		t.Fatalf("unexpected publish parameters: %+v", msg)
	}
	var got model.Reading
	if err := json.Unmarshal(msg.payload, &got); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if got.Name != "NodeA" || got.TemperatureC != 23.45 || got.RSSI != -67 || !got.CapturedAt.Equal(at) {
		t.Fatalf("payload = %+v", got)
	}

	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !client.disconnected {
		t.Fatal("client not disconnected")
	}
}

func TestMQTTPublisherReturnsPublishError(t *testing.T) {
	client := &fakeClient{publishErr: errors.New("not connected")}
	p := newMQTTPublisher(client, "t")
	if err := p.Write(context.Background(), model.Reading{Name: "x"}); err == nil {
		t.Fatal("expected publish error")
	}
}
