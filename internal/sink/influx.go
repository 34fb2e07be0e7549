package sink

import (
	"context"
	"fmt"
	"log"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"TempDash/internal/model"
)

// InfluxWriter writes every Reading as one point through the blocking write API.
type InfluxWriter struct {
	client      influxdb2.Client
	writeAPI    api.WriteAPIBlocking
	measurement string
}

// NewInfluxWriter creates a writer for the configured org and bucket.
func NewInfluxWriter(cfg model.InfluxConfig) *InfluxWriter {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	log.Printf("[influx] writing %s points to %s (org=%s bucket=%s)", cfg.Measurement, cfg.URL, cfg.Org, cfg.Bucket)
	return &InfluxWriter{
		client:      client,
		writeAPI:    client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		measurement: cfg.Measurement,
	}
}

// ReadingPoint converts r into a point tagged by node name.
func ReadingPoint(measurement string, r model.Reading) *write.Point {
	return influxdb2.NewPoint(measurement,
		map[string]string{
			"name": r.Name,
		},
		map[string]interface{}{
			"temperature": r.TemperatureC,
			"rssi":        r.RSSI,
		},
		r.CapturedAt)
}

func (w *InfluxWriter) Name() string { return "influx" }

func (w *InfluxWriter) Write(ctx context.Context, r model.Reading) error {
	if err := w.writeAPI.WritePoint(ctx, ReadingPoint(w.measurement, r)); err != nil {
		return fmt.Errorf("influx write: %w", err)
	}
	return nil
}

func (w *InfluxWriter) Close() error {
	w.client.Close()
	return nil
}
