package sink

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"TempDash/internal/model"
)

func TestReadingPoint(t *testing.T) {
	at := time.Unix(1700000000, 0)
	p := ReadingPoint("temperature", model.Reading{Name: "NodeA", TemperatureC: 23.45, RSSI: -67, CapturedAt: at})
	lp := write.PointToLineProtocol(p, time.Second)
	for _, want := range []string{"temperature,name=NodeA ", "rssi=-67i", "temperature=23.45", " 1700000000"} {
		if !strings.Contains(lp, want) {
			t.Fatalf("line protocol %q missing %q", lp, want)
		}
	}
}

func TestInfluxWriterPostsPoint(t *testing.T) {
	bodies := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/api/v2/write") {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("bucket") != "sensors" || r.URL.Query().Get("org") != "home" {
			http.Error(w, "bad target", http.StatusBadRequest)
			return
		}
		b, _ := io.ReadAll(r.Body)
		bodies <- string(b)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	w := NewInfluxWriter(model.InfluxConfig{URL: srv.URL, Token: "t", Org: "home", Bucket: "sensors", Measurement: "temperature"})
	defer w.Close()

	r := model.Reading{Name: "NodeB", TemperatureC: -5.1, RSSI: -80, CapturedAt: time.Unix(1700000000, 0)}
	if err := w.Write(context.Background(), r); err != nil {
		t.Fatalf("write: %v", err)
	}
	body := <-bodies
	if !strings.HasPrefix(body, "temperature,name=NodeB ") || !strings.Contains(body, "temperature=-5.1") {
		t.Fatalf("body = %q", body)
	}
}
