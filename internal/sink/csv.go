package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"TempDash/internal/model"
)

const (
	fileTimeLayout = "2006-01-02_15-04-05"
	rowTimeLayout  = "2006-01-02 15:04:05"
)

var csvHeader = []string{"Timestamp", "Name", "Temperature", "RSSI"}

// LogFileName returns the per-session log name, e.g. temperature_log_2025-03-01_12-00-00.csv.
func LogFileName(startedAt time.Time) string {
	return "temperature_log_" + startedAt.Format(fileTimeLayout) + ".csv"
}

// CSVLog appends one row per Reading and makes each row durable before returning.
type CSVLog struct {
	path     string
	file     *os.File
	w        *csv.Writer
	location *time.Location
}

// OpenCSVLog opens (or creates) the session log in dir.
func OpenCSVLog(dir string, startedAt time.Time) (*CSVLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir %s: %w", dir, err)
	}
	return OpenCSVLogFile(filepath.Join(dir, LogFileName(startedAt)))
}

// OpenCSVLogFile opens path for appending. The header row is written only when the file is empty.
func OpenCSVLogFile(path string) (*CSVLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open csv log %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat csv log %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	w.UseCRLF = true
	l := &CSVLog{path: path, file: f, w: w, location: time.Local}
	if info.Size() == 0 {
		if err := l.writeRow(csvHeader); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	log.Printf("[csv] logging readings to %s", path)
	return l, nil
}

// Path returns the log file path.
func (l *CSVLog) Path() string { return l.path }

func (l *CSVLog) Name() string { return "csv" }

// Write appends r as "<local timestamp>,<name>,<temp 2dp>,<rssi>".
func (l *CSVLog) Write(_ context.Context, r model.Reading) error {
	return l.writeRow([]string{
		r.CapturedAt.In(l.location).Format(rowTimeLayout),
		r.Name,
		strconv.FormatFloat(r.TemperatureC, 'f', 2, 64),
		strconv.Itoa(r.RSSI),
	})
}

func (l *CSVLog) writeRow(row []string) error {
	if l.file == nil {
		return fmt.Errorf("csv log %s: %w", l.path, os.ErrClosed)
	}
	if err := l.w.Write(row); err != nil {
		return fmt.Errorf("write csv log %s: %w", l.path, err)
	}
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		return fmt.Errorf("flush csv log %s: %w", l.path, err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("sync csv log %s: %w", l.path, err)
	}
	return nil
}

// Close flushes and closes the file.
func (l *CSVLog) Close() error {
	if l.file == nil {
		return nil
	}
	l.w.Flush()
	flushErr := l.w.Error()
	err := l.file.Close()
	l.file = nil
	if flushErr != nil {
		return fmt.Errorf("flush csv log %s: %w", l.path, flushErr)
	}
	return err
}
