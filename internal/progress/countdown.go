package progress

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Hardhat-Enterprises/ddtinstall/internal/errdefs"
)

const clearLine = "\r\033[K"

// tick is the countdown resolution; tests shorten it.
var tick = time.Second

// Countdown rewrites a single line once per second with the number of
// seconds left, then clears it.
func Countdown(ctx context.Context, w io.Writer, d time.Duration, message string) error {
	for i := int(d / time.Second); i > 0; i-- {
		fmt.Fprintf(w, "%s%s. Waiting %d seconds...", clearLine, message, i)
		select {
		case <-ctx.Done():
			io.WriteString(w, clearLine)
			return ctx.Err()
		case <-time.After(tick):
		}
	}
	io.WriteString(w, clearLine)
	return nil
}

// ReadyFunc reports whether a wait can end. A non-nil error aborts the wait.
type ReadyFunc func(ctx context.Context) (bool, error)

// WaitUntil shows the countdown for timeout while calling ready every
// interval. It returns nil as soon as ready reports true and an
// InstallTimeout error once the timeout elapses.
func WaitUntil(ctx context.Context, w io.Writer, timeout, interval time.Duration, message string, ready ReadyFunc) error {
	if interval <= 0 {
		interval = tick
	}

	deadline := time.Now().Add(timeout)
	display := time.NewTicker(tick)
	defer display.Stop()
	poll := time.NewTicker(interval)
	defer poll.Stop()

	defer io.WriteString(w, clearLine)

	show := func() {
		left := int(time.Until(deadline).Round(time.Second) / time.Second)
		if left < 0 {
			left = 0
		}
		fmt.Fprintf(w, "%s%s. Waiting %d seconds...", clearLine, message, left)
	}
	show()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-display.C:
			if !time.Now().Before(deadline) {
				return timedOut(message, timeout)
			}
			show()
		case <-poll.C:
			ok, err := ready(ctx)
			if err != nil {
				return err
			}
			if ok {
				return nil
			}
			if !time.Now().Before(deadline) {
				return timedOut(message, timeout)
			}
		}
	}
}

func timedOut(message string, timeout time.Duration) error {
	return errdefs.NewCustomError(errdefs.ErrTypeInstallTimeout,
		fmt.Sprintf("%s: gave up after %s", message, timeout))
}
