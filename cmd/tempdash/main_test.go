package main

import (
	"testing"

	"github.com/jessevdk/go-flags"

	"TempDash/internal/config"
)

func TestApplyArgsOverridesConfig(t *testing.T) {
	var args ProgramArgs
	_, err := flags.NewParser(&args, flags.Default&^flags.PrintErrors).
		ParseArgs([]string{"-p", "/dev/ttyACM0", "--log-dir", "/var/log/tempdash", "-a", ":8080", "-b", "9600"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	cfg := config.Default()
	applyArgs(cfg, args)
	if cfg.Serial.Port != "/dev/ttyACM0" || cfg.Serial.Baud != 9600 {
		t.Fatalf("serial overrides not applied: %+v", cfg.Serial)
	}
	if cfg.Log.Dir != "/var/log/tempdash" || cfg.HTTP.Addr != ":8080" {
		t.Fatalf("output overrides not applied: %+v %+v", cfg.Log, cfg.HTTP)
	}
	if cfg.Serial.Marker != config.DefaultMarker {
		t.Fatalf("marker should keep its default, got %q", cfg.Serial.Marker)
	}
}

func TestApplyArgsKeepsDefaults(t *testing.T) {
	cfg := config.Default()
	applyArgs(cfg, ProgramArgs{})
	if *cfg != *config.Default() {
		t.Fatalf("empty args changed config: %+v", cfg)
	}
}
