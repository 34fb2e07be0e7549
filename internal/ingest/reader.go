// Package ingest runs the background loop that turns serial lines into Reading events.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"TempDash/internal/device"
	"TempDash/internal/metrics"
	"TempDash/internal/model"
	"TempDash/internal/parser"
)

// ErrDisconnected wraps the I/O error that ended the ingest loop.
var ErrDisconnected = errors.New("serial device disconnected")

// LineSource is the port the loop reads from. The loop owns it and closes it on exit.
type LineSource interface {
	ReadLine(timeout time.Duration) (string, error)
	Close() error
}

// Reader reads telemetry lines from a LineSource and emits one Event per matching line.
type Reader struct {
	src     LineSource
	timeout time.Duration
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewReader creates a Reader. timeout bounds every blocking read and therefore
// how long cancellation can take to be observed.
func NewReader(src LineSource, timeout time.Duration, m *metrics.Metrics) *Reader {
	return &Reader{src: src, timeout: timeout, metrics: m, now: time.Now}
}

// Start launches the ingest goroutine. Events are sent on out in the order their lines
// were received; out is closed when the goroutine exits, after the source is closed.
// The returned stop function cancels the loop and waits for it to finish.
func (r *Reader) Start(ctx context.Context, out chan<- model.Event) (func(), error) {
	if r.src == nil {
		return nil, errors.New("ingest: no line source")
	}
	if r.timeout <= 0 {
		return nil, fmt.Errorf("ingest: read timeout must be positive, got %v", r.timeout)
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.run(ctx, out)
	}()

	var once sync.Once
	return func() {
		once.Do(cancel)
		<-done
	}, nil
}

func (r *Reader) run(ctx context.Context, out chan<- model.Event) {
	defer func() {
		if err := r.src.Close(); err != nil {
			log.Printf("[ingest] warning: failed to close port: %v", err)
		}
		close(out)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		raw, err := r.src.ReadLine(r.timeout)
		if err != nil {
			if errors.Is(err, device.ErrReadTimeout) {
				continue
			}
			log.Printf("[ingest] read failed, stopping: %v", err)
			r.metrics.Disconnected()
			r.emit(ctx, out, model.Event{
				Kind: model.EventDisconnected,
				Err:  fmt.Errorf("%w: %w", ErrDisconnected, err),
			})
			return
		}

		reading, ok := r.decode(raw)
		if !ok {
			continue
		}
		if !r.emit(ctx, out, model.Event{Kind: model.EventReading, Reading: reading}) {
			return
		}
	}
}

// decode cleans a raw line and parses it. Undecodable bytes are dropped; a line
// that does not match is expected noise and only counted.
func (r *Reader) decode(raw string) (model.Reading, bool) {
	receivedAt := r.now()
	line := strings.TrimSpace(strings.ToValidUTF8(raw, ""))
	reading, err := parser.ParseReading(line, receivedAt)
	if err != nil {
		r.metrics.LineDropped()
		return model.Reading{}, false
	}
	r.metrics.LineMatched()
	return reading, true
}

func (r *Reader) emit(ctx context.Context, out chan<- model.Event, ev model.Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
