// Package parser decodes the scanner firmware's telemetry lines.
//
// Telemetry wire format (scanner -> host, one per line):
//
//	Temp from NAME: -DD.DD C (RSSI -N)
//
// The sentence may be preceded or followed by other text (boot chatter, log prefixes);
// the first well-formed sentence in the line wins.
package parser

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"TempDash/internal/model"
)

// ErrNoMatch is returned for any line that does not contain a complete telemetry sentence.
var ErrNoMatch = errors.New("line does not match telemetry format")

const (
	sentencePrefix = "Temp from "
	nameSep        = ": "
	rssiOpen       = " C (RSSI "
)

// ParseReading extracts a Reading from line, stamping it with receivedAt.
// NAME is the shortest non-empty text after "Temp from " for which the rest of the sentence matches.
func ParseReading(line string, receivedAt time.Time) (model.Reading, error) {
	for start := 0; start < len(line); {
		idx := strings.Index(line[start:], sentencePrefix)
		if idx < 0 {
			break
		}
		body := line[start+idx+len(sentencePrefix):]
		if name, temp, rssi, ok := matchBody(body); ok {
			return model.Reading{
				Name:         name,
				TemperatureC: temp,
				RSSI:         rssi,
				CapturedAt:   receivedAt,
			}, nil
		}
		start += idx + 1
	}
	return model.Reading{}, ErrNoMatch
}

// matchBody tries every ": " separator after at least one name byte, shortest name first.
func matchBody(body string) (string, float64, int, bool) {
	for off := 1; off < len(body); {
		idx := strings.Index(body[off:], nameSep)
		if idx < 0 {
			return "", 0, 0, false
		}
		sep := off + idx
		if temp, rssi, ok := matchValues(body[sep+len(nameSep):]); ok {
			return body[:sep], temp, rssi, true
		}
		off = sep + 1
	}
	return "", 0, 0, false
}

// matchValues parses "-DD.DD C (RSSI -N)" at the start of s. Trailing text is ignored.
func matchValues(s string) (float64, int, bool) {
	n := scanTemperature(s)
	if n == 0 {
		return 0, 0, false
	}
	temp, err := strconv.ParseFloat(s[:n], 64)
	if err != nil {
		return 0, 0, false
	}
	if temp == 0 {
		// "-0.00" reads as negative zero
		temp = 0
	}

	rest := s[n:]
	if !strings.HasPrefix(rest, rssiOpen) {
		return 0, 0, false
	}
	rest = rest[len(rssiOpen):]

	m := scanInteger(rest)
	if m == 0 || m >= len(rest) || rest[m] != ')' {
		return 0, 0, false
	}
	rssi, err := strconv.Atoi(rest[:m])
	if err != nil {
		return 0, 0, false
	}
	return temp, rssi, true
}

// scanTemperature returns the length of an optionally negative decimal with exactly two
// fractional digits at the start of s, or 0.
func scanTemperature(s string) int {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}
	digits := countDigits(s[i:])
	if digits == 0 {
		return 0
	}
	i += digits
	if i >= len(s) || s[i] != '.' {
		return 0
	}
	i++
	if countDigits(s[i:]) < 2 {
		return 0
	}
	return i + 2
}

// scanInteger returns the length of an optionally negative integer at the start of s, or 0.
func scanInteger(s string) int {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}
	digits := countDigits(s[i:])
	if digits == 0 {
		return 0
	}
	return i + digits
}

func countDigits(s string) int {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	return n
}

// FormatReading renders one sample in the telemetry wire format. The simulator uses it to produce lines.
func FormatReading(name string, tempC float64, rssi int) string {
	return "Temp from " + name + ": " + strconv.FormatFloat(tempC, 'f', 2, 64) +
		" C (RSSI " + strconv.Itoa(rssi) + ")"
}
