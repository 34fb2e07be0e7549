package main

import (
	"context"
	"path/filepath"
	"testing"
)

func TestRunRejectsNonPositiveInterval(t *testing.T) {
	if err := run(context.Background(), ProgramArgs{Interval: 0}); err == nil {
		t.Fatal("expected error for zero interval")
	}
}

func TestRunFailsOnMissingDevice(t *testing.T) {
	args := ProgramArgs{
		Dev:      filepath.Join(t.TempDir(), "no-such-tty"),
		Baud:     115200,
		Interval: 10,
	}
	if err := run(context.Background(), args); err == nil {
		t.Fatal("expected error opening a missing device")
	}
}
