package runner

import (
	"context"
	"fmt"

	"github.com/Hardhat-Enterprises/ddtinstall/internal/errdefs"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/log"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/progress"
)

// Step is one counted unit of work. Exactly one of Command or Action is
// normally set; a step with neither still renders and consumes its step.
type Step struct {
	Message string
	Command string
	Sudo    bool
	Capture bool
	Action  func(ctx context.Context) error
}

type Result struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
	// Err is set when the command could not be run to completion at all
	// (start failure, cancellation) or when an Action failed.
	Err error
}

// OK reports whether the command ran and exited 0.
func (r Result) OK() bool {
	return r.Err == nil && r.ExitCode == 0
}

// Failure converts an unsuccessful result into a CommandFailed error.
func (r Result) Failure() error {
	if r.OK() {
		return nil
	}
	if r.Err != nil {
		return errdefs.WrapCustomError(errdefs.ErrTypeCommandFailed,
			fmt.Sprintf("%q did not complete", r.Command), r.Err)
	}
	msg := fmt.Sprintf("%q exited with status %d", r.Command, r.ExitCode)
	if r.Stderr != "" {
		msg += ": " + r.Stderr
	}
	return errdefs.NewCustomError(errdefs.ErrTypeCommandFailed, msg)
}

type Runner struct {
	tracker  *progress.Tracker
	executor Executor
}

func New(tracker *progress.Tracker, executor Executor) *Runner {
	if executor == nil {
		executor = NewShellExecutor()
	}
	return &Runner{tracker: tracker, executor: executor}
}

func (r *Runner) Tracker() *progress.Tracker {
	return r.tracker
}

// Run renders the step, executes it and advances the counter by one.
func (r *Runner) Run(ctx context.Context, step Step) Result {
	r.tracker.Render(step.Message)

	var res Result
	switch {
	case step.Action != nil:
		res = Result{Command: step.Message}
		if err := step.Action(ctx); err != nil {
			res.ExitCode = 1
			res.Err = err
		}
	case step.Command != "":
		command := step.Command
		if step.Sudo {
			command = "sudo " + command
		}
		log.Debug("running command", "cmd", command)
		res = r.executor.Execute(ctx, Request{
			Command: command,
			Capture: step.Capture,
			Stream:  r.tracker.Debug(),
		})
		res.Command = command
		log.Debug("command finished", "cmd", command, "exit", res.ExitCode, "err", res.Err)
	}

	if err := r.tracker.Advance(); err != nil && res.Err == nil {
		res.Err = err
	}
	return res
}

// Probe runs a captured command without rendering or counting a step.
func (r *Runner) Probe(ctx context.Context, command string) Result {
	res := r.executor.Execute(ctx, Request{Command: command, Capture: true})
	res.Command = command
	return res
}
