// Telemetry simulator: writes "Temp from ..." lines to a serial device.
// Use this for local testing when you don't have the BLE scanner and probe.
//
// With --virtual a socat pty pair is created; point tempdash at the --link end:
//
//	simulation --virtual --link /tmp/tempdash-dev &
//	tempdash --port /tmp/tempdash-dev
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"

	"TempDash/internal/device"
	"TempDash/internal/simulation"
	"TempDash/internal/util"
)

type ProgramArgs struct {
	Dev      string   `long:"dev" default:"/tmp/tempdash-sim" description:"Serial device to write telemetry into"`
	Baud     int      `long:"baud" default:"115200" description:"Baud rate"`
	Names    []string `long:"name" default:"Sensor-1" description:"Simulated node name (repeatable)"`
	Interval int      `long:"interval" default:"1000" description:"Milliseconds between lines"`
	Noise    float64  `long:"noise" default:"0.1" description:"Probability of a non-telemetry line"`
	Virtual  bool     `long:"virtual" description:"Create a socat pty pair instead of opening an existing device"`
	Link     string   `long:"link" default:"/tmp/tempdash-dev" description:"Reader end of the virtual pair"`
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, args); err != nil {
		stop()
		util.Fatal("sim", "%v", err)
	}
	util.Info("sim", "simulator stopped")
}

// run writes generated lines until ctx is cancelled. The virtual pair, if any,
// is torn down on every return path.
func run(ctx context.Context, args ProgramArgs) error {
	if args.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %d", args.Interval)
	}

	if args.Virtual {
		pair := util.NewVirtualPair(args.Dev, args.Link)
		startCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := pair.Start(startCtx)
		cancel()
		defer pair.Close()
		if err != nil {
			return fmt.Errorf("virtual serial: %w", err)
		}
		util.Info("sim", "virtual pair ready, run: tempdash --port %s", args.Link)
	}

	port, err := device.NewSerialDevice(args.Dev, args.Baud, time.Second)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := port.Close(); cerr != nil {
			util.Error("sim", "close serial: %v", cerr)
		}
	}()

	gen := simulation.NewGenerator(args.Names, args.Noise, time.Now().UnixNano())
	util.Info("sim", "sending to %s every %dms", args.Dev, args.Interval)
	tick := time.NewTicker(time.Duration(args.Interval) * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			line := gen.Next()
			if err := port.WriteLine(line); err != nil {
				util.Error("sim", "write: %v", err)
			} else {
				log.Printf("[sim] sent: %s", line)
			}
		}
	}
}
