// Package main is the entry point of the TempDash dashboard.
// It loads the optional configuration, applies command-line overrides, finds the
// telemetry probe and runs until interrupted.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"

	"TempDash/internal/config"
	"TempDash/internal/core"
	"TempDash/internal/device"
	"TempDash/internal/model"
	"TempDash/internal/util"
)

type ProgramArgs struct {
	Config string `short:"c" long:"config" description:"Optional YAML configuration file"`

	// Serial options
	Port   string `short:"p" long:"port" description:"Serial device to read (skips probe discovery)"`
	Marker string `short:"m" long:"marker" description:"Substring of the probe's port description (default: JLink)"`
	Baud   int    `short:"b" long:"baud" description:"Baud rate (default: 115200)"`

	// Output options
	LogDir   string `short:"d" long:"log-dir" description:"Directory for the CSV reading log"`
	HTTPAddr string `short:"a" long:"http" description:"Listen address for the status and metrics server"`
	Quiet    bool   `short:"q" long:"quiet" description:"Do not draw the status line on stdout"`

	ListPorts bool `long:"list-ports" description:"List serial ports with their descriptions and exit"`
}

// applyArgs lets flags override whatever the config file set.
func applyArgs(cfg *model.Config, args ProgramArgs) {
	if args.Port != "" {
		cfg.Serial.Port = args.Port
	}
	if args.Marker != "" {
		cfg.Serial.Marker = args.Marker
	}
	if args.Baud != 0 {
		cfg.Serial.Baud = args.Baud
	}
	if args.LogDir != "" {
		cfg.Log.Dir = args.LogDir
	}
	if args.HTTPAddr != "" {
		cfg.HTTP.Addr = args.HTTPAddr
	}
}

func listPorts() error {
	ports, err := device.ListPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found.")
		return nil
	}
	for _, p := range ports {
		fmt.Printf("%-20s %s\n", p.Name, p.Description)
	}
	return nil
}

func main() {
	util.SetupLogger(os.Stderr, "")

	args := ProgramArgs{}
	if _, err := flags.NewParser(&args, flags.Default).Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if args.ListPorts {
		if err := listPorts(); err != nil {
			util.Fatal("Main", "list ports: %v", err)
		}
		return
	}

	cfg, err := config.Load(args.Config)
	if err != nil {
		util.Fatal("Main", "%v", err)
	}
	applyArgs(cfg, args)
	if args.Config != "" {
		util.Info("Main", "Using config: %s", args.Config)
	}

	var console io.Writer
	if !args.Quiet {
		console = os.Stdout
	}
	sys, err := core.NewSystem(cfg, console)
	if err != nil {
		util.Fatal("Main", "failed to create system: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sys.Run(ctx); err != nil {
		stop()
		util.Fatal("Main", "%v", err)
	}
	util.Info("Main", "System stopped cleanly.")
}
