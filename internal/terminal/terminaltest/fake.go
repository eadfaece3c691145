// Package terminaltest provides a Launcher that records tasks instead of
// opening windows.
package terminaltest

import (
	"context"
	"sync"

	"github.com/Hardhat-Enterprises/ddtinstall/internal/terminal"
)

type FakeLauncher struct {
	mu       sync.Mutex
	tasks    []terminal.Task
	finishes []func(error)

	// Err is returned from every Launch when set.
	Err error
	// ExitImmediately closes each handle as soon as it is created.
	ExitImmediately bool
	// OnLaunch runs synchronously for every launched task.
	OnLaunch func(terminal.Task)
}

func (f *FakeLauncher) Launch(_ context.Context, task terminal.Task) (*terminal.Handle, error) {
	if f.Err != nil {
		return nil, f.Err
	}

	h, finish := terminal.NewHandle()

	f.mu.Lock()
	f.tasks = append(f.tasks, task)
	if f.ExitImmediately {
		finish(nil)
	} else {
		f.finishes = append(f.finishes, finish)
	}
	onLaunch := f.OnLaunch
	f.mu.Unlock()

	if onLaunch != nil {
		onLaunch(task)
	}
	return h, nil
}

func (f *FakeLauncher) Tasks() []terminal.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]terminal.Task(nil), f.tasks...)
}

// CloseAll finishes every handle still open.
func (f *FakeLauncher) CloseAll() {
	f.mu.Lock()
	pending := f.finishes
	f.finishes = nil
	f.mu.Unlock()

	for _, finish := range pending {
		finish(nil)
	}
}
