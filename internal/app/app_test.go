package app

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"TempDash/internal/dashboard"
	"TempDash/internal/metrics"
	"TempDash/internal/model"
)

func newTestServer(t *testing.T) (*App, *httptest.Server) {
	t.Helper()
	a := NewApp(dashboard.NewState(), metrics.New())
	srv := httptest.NewServer(a.Mux)
	t.Cleanup(func() {
		a.Hub.Close()
		srv.Close()
	})
	return a, srv
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func TestLatestBeforeAndAfterReading(t *testing.T) {
	a, srv := newTestServer(t)

	if code, _ := get(t, srv.URL+"/api/latest"); code != http.StatusNotFound {
		t.Fatalf("expected 404 before first reading, got %d", code)
	}

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	a.State.Apply(model.Event{Kind: model.EventReading, Reading: model.Reading{Name: "NodeA", TemperatureC: 23.45, RSSI: -67, CapturedAt: at}})

	code, body := get(t, srv.URL+"/api/latest")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	var got model.Reading
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Name != "NodeA" || got.TemperatureC != 23.45 || got.RSSI != -67 || !got.CapturedAt.Equal(at) {
		t.Fatalf("unexpected reading: %+v", got)
	}
}

func TestStatusAndIndex(t *testing.T) {
	a, srv := newTestServer(t)
	a.State.SetConnected("COM4")

	code, body := get(t, srv.URL+"/api/status")
	if code != http.StatusOK {
		t.Fatalf("status code %d", code)
	}
	var snap dashboard.Snapshot
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !snap.Connected || snap.Port != "COM4" || snap.ElapsedText != dashboard.NoDataText {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	_, body = get(t, srv.URL+"/")
	for _, want := range []string{"0.00 °C", dashboard.NoRSSIText, dashboard.NoDataText, "Connected to COM4"} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q:\n%s", want, body)
		}
	}

	if code, _ := get(t, srv.URL+"/nope"); code != http.StatusNotFound {
		t.Fatalf("unknown path: expected 404, got %d", code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	a, srv := newTestServer(t)
	a.Metrics.ObserveReading(model.Reading{Name: "NodeA", TemperatureC: 21.5, RSSI: -70, CapturedAt: time.Now()})

	if code, body := get(t, srv.URL+"/healthz"); code != http.StatusOK || body != "ok\n" {
		t.Fatalf("healthz = %d %q", code, body)
	}
	code, body := get(t, srv.URL+"/metrics")
	if code != http.StatusOK {
		t.Fatalf("metrics code %d", code)
	}
	if !strings.Contains(body, `tempdash_temperature_celsius{name="NodeA"} 21.5`) {
		t.Fatalf("metrics output missing temperature gauge:\n%s", body)
	}
}

func TestLatestRejectsPost(t *testing.T) {
	_, srv := newTestServer(t)
	resp, err := http.Post(srv.URL+"/api/latest", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}

type wireMessage struct {
	Kind    string         `json:"kind"`
	Reading *model.Reading `json:"reading"`
	Error   string         `json:"error"`
}

func TestWebsocketBroadcast(t *testing.T) {
	a, srv := newTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for a.Hub.Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	a.Hub.Broadcast(model.Event{Kind: model.EventReading, Reading: model.Reading{Name: "NodeA", TemperatureC: -5.25, RSSI: -80}})
	a.Hub.Broadcast(model.Event{Kind: model.EventDisconnected, Err: errors.New("unplugged")})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var first, second wireMessage
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read first: %v", err)
	}
	if first.Kind != "reading" || first.Reading == nil || first.Reading.Name != "NodeA" || first.Reading.TemperatureC != -5.25 {
		t.Fatalf("unexpected first message: %+v", first)
	}
	if err := conn.ReadJSON(&second); err != nil {
		t.Fatalf("read second: %v", err)
	}
	if second.Kind != "disconnected" || second.Error != "unplugged" || second.Reading != nil {
		t.Fatalf("unexpected second message: %+v", second)
	}
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	a, srv := newTestServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for a.Hub.Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	a.Hub.Close()
	if a.Hub.Len() != 0 {
		t.Fatalf("expected no clients after close, got %d", a.Hub.Len())
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected read error after hub close")
	}
}

func TestBroadcastDropsClientWithFullQueue(t *testing.T) {
	h := NewHub()
	stalled := &client{send: make(chan Message, sendQueue)}
	h.clients[stalled] = true

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i <= sendQueue; i++ {
			h.Broadcast(model.Event{Kind: model.EventReading, Reading: model.Reading{Name: "NodeA"}})
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked on a client that never reads")
	}

	if h.Len() != 0 {
		t.Fatalf("stalled client should be dropped, %d left", h.Len())
	}
	queued := 0
	for range stalled.send {
		queued++
	}
	if queued != sendQueue {
		t.Fatalf("expected %d queued messages before the drop, got %d", sendQueue, queued)
	}
}

func TestBroadcastWithoutClients(t *testing.T) {
	h := NewHub()
	h.Broadcast(model.Event{Kind: model.EventReading})
	var nilHub *Hub
	nilHub.Broadcast(model.Event{Kind: model.EventReading})
	nilHub.Close()
}

func TestStartStop(t *testing.T) {
	a := NewApp(dashboard.NewState(), nil)
	done := make(chan error, 1)
	go func() { done <- a.Start("127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	a.Stop()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("start returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestStartEmptyAddress(t *testing.T) {
	a := NewApp(dashboard.NewState(), nil)
	if err := a.Start(""); err != nil {
		t.Fatalf("empty address should be a no-op, got %v", err)
	}
}
