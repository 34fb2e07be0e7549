// Package core wires the serial reader, the reading sinks, the dashboard and the
// HTTP surface together and runs the single dispatch loop.
package core

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"TempDash/internal/app"
	"TempDash/internal/config"
	"TempDash/internal/dashboard"
	"TempDash/internal/device"
	"TempDash/internal/ingest"
	"TempDash/internal/metrics"
	"TempDash/internal/model"
	"TempDash/internal/sink"
)

const (
	eventBuffer  = 64
	tickInterval = time.Second
)

// PortOpener returns the line source to read from and the name of its port.
type PortOpener func(cfg *model.Config) (ingest.LineSource, string, error)

// System owns every runtime component of the dashboard.
type System struct {
	cfg     *model.Config
	State   *dashboard.State
	Metrics *metrics.Metrics
	Web     *app.App
	console *dashboard.Console

	// OpenPort defaults to OpenSerial.
	OpenPort PortOpener
	// OpenLog opens the required reading log; defaults to the session CSV file.
	OpenLog func(dir string, startedAt time.Time) (sink.Sink, error)

	csv    sink.Sink
	extras []sink.Sink

	tick time.Duration
	now  func() time.Time
}

// NewSystem validates cfg and constructs the components. Nothing is opened until Run.
// console receives the once-per-second status line; nil disables it.
func NewSystem(cfg *model.Config, console io.Writer) (*System, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	s := &System{
		cfg:      cfg,
		State:    dashboard.NewState(),
		Metrics:  metrics.New(),
		OpenPort: OpenSerial,
		OpenLog:  openCSVLog,
		tick:     tickInterval,
		now:      time.Now,
	}
	if console != nil {
		s.console = dashboard.NewConsole(console)
	}
	if cfg.HTTP.Addr != "" {
		s.Web = app.NewApp(s.State, s.Metrics)
	}
	return s, nil
}

// OpenSerial opens the configured port, or discovers the probe by its marker.
func OpenSerial(cfg *model.Config) (ingest.LineSource, string, error) {
	timeout := config.ReadTimeout(cfg)
	if cfg.Serial.Port != "" {
		dev, err := device.NewSerialDevice(cfg.Serial.Port, cfg.Serial.Baud, timeout)
		if err != nil {
			return nil, "", err
		}
		log.Printf("[serial] connected to %s @ %d baud", cfg.Serial.Port, cfg.Serial.Baud)
		return dev, cfg.Serial.Port, nil
	}
	dev, info, err := device.FindDevicePort(cfg.Serial.Marker, cfg.Serial.Baud, timeout)
	if err != nil {
		return nil, "", err
	}
	return dev, info.Name, nil
}

// Run opens the sinks and the port, then dispatches events until ctx is cancelled.
// A missing device is not an error: the dashboard runs and reports "not connected".
// A CSV log failure ends Run with that error.
func (s *System) Run(ctx context.Context) error {
	if err := s.openSinks(); err != nil {
		return err
	}

	var webErr chan error
	if s.Web != nil {
		webErr = make(chan error, 1)
		go func() { webErr <- s.Web.Start(s.cfg.HTTP.Addr) }()
	}

	stop := func() {}
	var events chan model.Event
	src, port, err := s.OpenPort(s.cfg)
	if err != nil {
		log.Printf("[serial] no %s port available, running without a reader: %v", s.cfg.Serial.Marker, err)
		s.State.SetDisconnected(err)
		s.Metrics.SetConnected(false)
	} else {
		events = make(chan model.Event, eventBuffer)
		reader := ingest.NewReader(src, config.ReadTimeout(s.cfg), s.Metrics)
		stop, err = reader.Start(ctx, events)
		if err != nil {
			_ = src.Close()
			s.shutdown(func() {})
			return fmt.Errorf("start reader: %w", err)
		}
		s.State.SetConnected(port)
		s.Metrics.SetConnected(true)
	}

	err = s.loop(ctx, events, webErr)
	s.shutdown(stop)
	return err
}

func (s *System) loop(ctx context.Context, events <-chan model.Event, webErr <-chan error) error {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	s.render(s.now())

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-webErr:
			if err != nil {
				return err
			}
			webErr = nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if err := s.dispatch(ctx, ev); err != nil {
				return err
			}
		case now := <-ticker.C:
			s.render(now)
		}
	}
}

// dispatch updates the dashboard and writes the reading to every sink.
// Only the CSV log is required to succeed.
func (s *System) dispatch(ctx context.Context, ev model.Event) error {
	s.State.Apply(ev)
	if s.Web != nil {
		s.Web.Hub.Broadcast(ev)
	}

	switch ev.Kind {
	case model.EventDisconnected:
		log.Printf("[serial] reader stopped: %v", ev.Err)
		s.Metrics.SetConnected(false)
		s.render(s.now())
		return nil
	case model.EventReading:
	default:
		return nil
	}

	r := ev.Reading
	s.Metrics.ObserveReading(r)
	if err := s.csv.Write(ctx, r); err != nil {
		s.Metrics.SinkError(s.csv.Name())
		return fmt.Errorf("write csv log: %w", err)
	}
	for _, sk := range s.extras {
		if err := sk.Write(ctx, r); err != nil {
			s.Metrics.SinkError(sk.Name())
			log.Printf("[%s] write failed: %v", sk.Name(), err)
		}
	}
	s.render(s.now())
	return nil
}

func (s *System) render(now time.Time) {
	if err := s.console.Render(s.State.Snapshot(now)); err != nil {
		log.Printf("[console] render failed: %v", err)
	}
}

func openCSVLog(dir string, startedAt time.Time) (sink.Sink, error) {
	l, err := sink.OpenCSVLog(dir, startedAt)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (s *System) openSinks() error {
	logSink, err := s.OpenLog(s.cfg.Log.Dir, s.now())
	if err != nil {
		return err
	}
	s.csv = logSink

	if s.cfg.MQTT.Broker != "" {
		pub, err := sink.NewMQTTPublisher(s.cfg.MQTT)
		if err != nil {
			log.Printf("[mqtt] publisher disabled: %v", err)
		} else {
			s.extras = append(s.extras, pub)
		}
	}
	if s.cfg.Influx.URL != "" {
		s.extras = append(s.extras, sink.NewInfluxWriter(s.cfg.Influx))
	}
	return nil
}

// shutdown stops the reader first so no event is dispatched to a closed sink,
// then closes the sinks and the web server.
func (s *System) shutdown(stopReader func()) {
	stopReader()

	for _, sk := range append([]sink.Sink{s.csv}, s.extras...) {
		if sk == nil {
			continue
		}
		if err := sk.Close(); err != nil {
			log.Printf("[%s] close failed: %v", sk.Name(), err)
		}
	}
	s.csv = nil
	s.extras = nil

	if s.Web != nil {
		s.Web.Stop()
	}
	s.console.Finish()
}
