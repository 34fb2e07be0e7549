package dashboard

import (
	"fmt"
	"io"
	"strings"
)

// Console renders snapshots as a single status line that is rewritten in place.
type Console struct {
	w       io.Writer
	lastLen int
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Line formats a snapshot, e.g. "NodeA  23.45 °C | RSSI: -67 dBm | Last update: 3s ago | Connected to COM4".
func Line(s Snapshot) string {
	name := "-"
	if s.Latest != nil {
		name = s.Latest.Name
	}
	return fmt.Sprintf("%s  %s | %s | %s | %s", name, s.TemperatureText, s.RSSIText, s.ElapsedText, s.ConnectionText)
}

// Render overwrites the previous status line.
func (c *Console) Render(s Snapshot) error {
	if c == nil || c.w == nil {
		return nil
	}
	line := Line(s)
	pad := ""
	if n := len(line); n < c.lastLen {
		pad = strings.Repeat(" ", c.lastLen-n)
	}
	c.lastLen = len(line)
	_, err := io.WriteString(c.w, "\r"+line+pad)
	return err
}

// Finish ends the status line so later log output starts on a fresh line.
func (c *Console) Finish() {
	if c == nil || c.w == nil || c.lastLen == 0 {
		return
	}
	_, _ = io.WriteString(c.w, "\n")
	c.lastLen = 0
}
