package util

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"sync"
	"time"
)

// VirtualPair is a socat-backed pair of linked pseudo-terminals. Whatever is
// written to one end can be read from the other, so the simulator can write
// telemetry to Sim while tempdash reads from Dev.
type VirtualPair struct {
	Sim string
	Dev string

	mu     sync.Mutex
	cmd    *exec.Cmd
	closed bool

	// Command is the socat binary; tests override it.
	Command string
}

func NewVirtualPair(sim, dev string) *VirtualPair {
	return &VirtualPair{Sim: sim, Dev: dev, Command: "socat"}
}

// Start launches socat and waits until both links exist.
func (p *VirtualPair) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd != nil {
		return fmt.Errorf("virtual pair already started")
	}

	cmd := exec.Command(
		p.Command, "-d", "-d",
		fmt.Sprintf("pty,raw,echo=0,link=%s", p.Sim),
		fmt.Sprintf("pty,raw,echo=0,link=%s", p.Dev),
	)
	cmd.Stdout = log.Writer()
	cmd.Stderr = log.Writer()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start socat: %w", err)
	}
	p.cmd = cmd
	log.Printf("[virt-serial] started socat (pid=%d): %s <-> %s", cmd.Process.Pid, p.Sim, p.Dev)

	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	for {
		if exists(p.Sim) && exists(p.Dev) {
			return nil
		}
		select {
		case <-ctx.Done():
			p.stopLocked()
			return fmt.Errorf("waiting for %s and %s: %w", p.Sim, p.Dev, ctx.Err())
		case <-tick.C:
		}
	}
}

// Close stops socat and removes the links. Safe to call more than once.
func (p *VirtualPair) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *VirtualPair) stopLocked() {
	if p.closed {
		return
	}
	p.closed = true

	if p.cmd != nil && p.cmd.Process != nil {
		log.Printf("[virt-serial] killing socat pid=%d", p.cmd.Process.Pid)
		_ = p.cmd.Process.Kill()
		_, _ = p.cmd.Process.Wait()
	}
	for _, path := range []string{p.Sim, p.Dev} {
		if _, err := os.Lstat(path); err == nil {
			_ = os.Remove(path)
			log.Printf("[virt-serial] removed link: %s", path)
		}
	}
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
