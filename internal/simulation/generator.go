// Package simulation produces synthetic telemetry lines in the BLE scanner's format.
package simulation

import (
	"math"
	"math/rand"
	"sync"

	"TempDash/internal/parser"
)

const (
	baseTempC  = 22.0
	tempDriftC = 0.15
	minTempC   = -20.0
	maxTempC   = 45.0
	minRSSI    = -100
	maxRSSI    = -30
)

// Generator walks the temperature and RSSI of each node a little every call
// and interleaves the occasional line of scanner chatter.
type Generator struct {
	mu      sync.Mutex
	rng     *rand.Rand
	names   []string
	next    int
	temps   map[string]float64
	rssi    map[string]int
	noiseP  float64
	chatter []string
}

// NewGenerator returns a generator cycling through names. noise is the probability
// that a call returns a non-telemetry line.
func NewGenerator(names []string, noise float64, seed int64) *Generator {
	if len(names) == 0 {
		names = []string{"Sensor-1"}
	}
	g := &Generator{
		rng:    rand.New(rand.NewSource(seed)),
		names:  append([]string(nil), names...),
		temps:  map[string]float64{},
		rssi:   map[string]int{},
		noiseP: math.Max(0, math.Min(1, noise)),
		chatter: []string{
			"Scanning...",
			"BLE scan restarted",
			"Device found, connecting",
		},
	}
	for i, n := range g.names {
		g.temps[n] = baseTempC + float64(i)
		g.rssi[n] = -60 - 5*i
	}
	return g
}

// Next returns the next line to write, without a trailing newline.
func (g *Generator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.noiseP > 0 && g.rng.Float64() < g.noiseP {
		return g.chatter[g.rng.Intn(len(g.chatter))]
	}

	name := g.names[g.next]
	g.next = (g.next + 1) % len(g.names)

	t := g.temps[name] + (g.rng.Float64()*2-1)*tempDriftC
	t = math.Max(minTempC, math.Min(maxTempC, t))
	g.temps[name] = t

	r := g.rssi[name] + g.rng.Intn(5) - 2
	if r < minRSSI {
		r = minRSSI
	}
	if r > maxRSSI {
		r = maxRSSI
	}
	g.rssi[name] = r

	return parser.FormatReading(name, t, r)
}
