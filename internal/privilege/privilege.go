package privilege

import (
	"context"
	"sync"
	"time"

	"github.com/Hardhat-Enterprises/ddtinstall/internal/errdefs"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/log"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/runner"
	"golang.org/x/sys/unix"
)

// EffectiveUID is the uid privilege checks run against.
func EffectiveUID() int {
	return unix.Geteuid()
}

// CheckNotRoot refuses to continue when euid is 0. Commands that need root
// escalate individually with sudo.
func CheckNotRoot(euid int) error {
	if euid == 0 {
		return errdefs.ErrRunningAsRoot
	}
	return nil
}

const keepaliveCommand = "sudo -n -v"

// Keepalive refreshes the sudo timestamp on an interval so long upgrades do
// not prompt again halfway through.
type Keepalive struct {
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// StartKeepalive runs until ctx is cancelled or Stop is called. A zero
// interval disables it.
func StartKeepalive(ctx context.Context, executor runner.Executor, interval time.Duration) *Keepalive {
	ctx, cancel := context.WithCancel(ctx)
	k := &Keepalive{cancel: cancel}
	if interval <= 0 {
		return k
	}

	k.wg.Add(1)
	go func() {
		defer k.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				res := executor.Execute(ctx, runner.Request{Command: keepaliveCommand, Capture: true})
				if !res.OK() && ctx.Err() == nil {
					log.Warn("failed to refresh sudo credentials", "exit", res.ExitCode, "stderr", res.Stderr)
				}
			}
		}
	}()
	return k
}

// Stop ends the refresh loop and waits for it to exit.
func (k *Keepalive) Stop() {
	k.cancel()
	k.wg.Wait()
}
