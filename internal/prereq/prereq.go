package prereq

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/Hardhat-Enterprises/ddtinstall/internal/config"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/errdefs"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/log"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/progress"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/runner"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/terminal"
)

// StepsPerPrerequisite is the number of counted steps Ensure consumes,
// whether or not the tool is already present.
const StepsPerPrerequisite = 3

// Prerequisite is a user-level tool installed by a remote script.
type Prerequisite struct {
	Name           string
	CheckCommand   string
	InstallCommand string
	// PathFragment is relative to the user's home directory.
	PathFragment string
}

func FromConfig(list []config.Prerequisite) []Prerequisite {
	out := make([]Prerequisite, 0, len(list))
	for _, p := range list {
		out = append(out, Prerequisite{
			Name:           p.Name,
			CheckCommand:   p.Check,
			InstallCommand: p.Install,
			PathFragment:   p.Path,
		})
	}
	return out
}

type WaitPolicy struct {
	Mode         string
	Timeout      time.Duration
	Fixed        time.Duration
	PollInterval time.Duration
}

func WaitPolicyFromConfig(s config.Settle) WaitPolicy {
	return WaitPolicy{
		Mode:         s.Mode,
		Timeout:      s.Timeout,
		Fixed:        s.Fixed,
		PollInterval: s.PollInterval,
	}
}

type Installer struct {
	runner   *runner.Runner
	launcher terminal.Launcher
	env      Environment
	wait     WaitPolicy
}

func NewInstaller(r *runner.Runner, launcher terminal.Launcher, env Environment, wait WaitPolicy) *Installer {
	if env == nil {
		env = ProcessEnvironment{}
	}
	return &Installer{runner: r, launcher: launcher, env: env, wait: wait}
}

// Check runs the counted detection step and reports whether p is present.
func (i *Installer) Check(ctx context.Context, p Prerequisite) (bool, error) {
	res := i.runner.Run(ctx, runner.Step{
		Message: fmt.Sprintf("Checking if %s is installed...", p.Name),
		Command: p.CheckCommand,
		Capture: true,
	})
	if errdefs.IsType(res.Err, errdefs.ErrTypeStepOverflow) || ctx.Err() != nil {
		return false, res.Failure()
	}
	if res.OK() {
		log.Debug("prerequisite present", "name", p.Name, "version", res.Stdout)
	}
	return res.OK(), nil
}

// Ensure makes p available, installing it in its own terminal window when
// missing. It always consumes StepsPerPrerequisite steps on success.
func (i *Installer) Ensure(ctx context.Context, p Prerequisite) error {
	present, err := i.Check(ctx, p)
	if err != nil {
		return err
	}

	tracker := i.runner.Tracker()
	if present {
		return tracker.Skip(StepsPerPrerequisite-1,
			fmt.Sprintf("%s is already installed. Skipping %s installation.", p.Name, p.Name))
	}

	var handle *terminal.Handle
	res := i.runner.Run(ctx, runner.Step{
		Message: fmt.Sprintf("Installing %s...", p.Name),
		Action: func(ctx context.Context) error {
			h, err := i.launcher.Launch(ctx, terminal.Task{
				Title:    fmt.Sprintf("%s Install Terminal", p.Name),
				Command:  p.InstallCommand,
				KeepOpen: tracker.Debug(),
			})
			handle = h
			return err
		},
	})
	if err := res.Failure(); err != nil {
		return fmt.Errorf("failed to start %s installer: %w", p.Name, err)
	}

	res = i.runner.Run(ctx, runner.Step{
		Message: fmt.Sprintf("Setting %s PATH variable...", p.Name),
		Action: func(context.Context) error {
			return i.prependPath(p.PathFragment)
		},
	})
	if err := res.Failure(); err != nil {
		return fmt.Errorf("failed to update PATH for %s: %w", p.Name, err)
	}

	return i.awaitInstall(ctx, p, handle)
}

func (i *Installer) prependPath(fragment string) error {
	if fragment == "" {
		return nil
	}
	home, err := i.env.Home()
	if err != nil {
		return err
	}

	dir := filepath.Join(home, fragment)
	current := i.env.Getenv("PATH")
	if slices.Contains(filepath.SplitList(current), dir) {
		log.Debug("already on PATH", "dir", dir)
		return nil
	}

	updated := dir
	if current != "" {
		updated = dir + string(os.PathListSeparator) + current
	}
	log.Debug("prepending to PATH", "dir", dir)
	return i.env.Setenv("PATH", updated)
}

func (i *Installer) awaitInstall(ctx context.Context, p Prerequisite, handle *terminal.Handle) error {
	message := fmt.Sprintf("Allowing time for %s to install", p.Name)
	out := i.runner.Tracker().Writer()

	if i.wait.Mode == config.SettleModeFixed {
		return progress.Countdown(ctx, out, i.wait.Fixed, message)
	}

	err := progress.WaitUntil(ctx, out, i.wait.Timeout, i.wait.PollInterval, message, func(ctx context.Context) (bool, error) {
		// Sampled first: a window that closes mid-check gets one more check
		// before the install counts as failed.
		exited := handle != nil && handle.Exited()
		if i.runner.Probe(ctx, p.CheckCommand).OK() {
			return true, nil
		}
		if exited {
			return false, errdefs.NewCustomError(errdefs.ErrTypeCommandFailed,
				fmt.Sprintf("%s installer window closed but %q still fails", p.Name, p.CheckCommand))
		}
		return false, nil
	})
	if err != nil {
		return err
	}
	log.Info("prerequisite installed", "name", p.Name)
	return nil
}

// Names lists the prerequisites in install order.
func Names(list []Prerequisite) string {
	names := make([]string, len(list))
	for i, p := range list {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}
