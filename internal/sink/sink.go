// Package sink implements the destinations a dispatched Reading is written to:
// the CSV log, an MQTT topic and an InfluxDB bucket.
package sink

import (
	"context"

	"TempDash/internal/model"
)

// Sink receives every dispatched Reading. Implementations are called from the
// single dispatch goroutine and need no locking of their own.
type Sink interface {
	Name() string
	Write(ctx context.Context, r model.Reading) error
	Close() error
}
