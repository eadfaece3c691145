package terminal

import (
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"syscall"

	"github.com/Hardhat-Enterprises/ddtinstall/internal/errdefs"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/log"
)

// Task is a command run in its own terminal window.
type Task struct {
	Title   string
	Command string
	Dir     string
	// KeepOpen leaves an interactive shell in the window after Command ends.
	KeepOpen bool
}

// Script is the shell text the window runs.
func (t Task) Script() string {
	if t.KeepOpen {
		return t.Command + "; exec bash"
	}
	return t.Command
}

// Handle tracks a launched window.
type Handle struct {
	done chan struct{}
	err  error
}

// NewHandle returns a handle and the function that marks it finished.
func NewHandle() (*Handle, func(error)) {
	h := &Handle{done: make(chan struct{})}
	return h, func(err error) {
		h.err = err
		close(h.done)
	}
}

// Done is closed when the window's process exits.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Exited reports whether the window has already closed.
func (h *Handle) Exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type Launcher interface {
	Launch(ctx context.Context, task Task) (*Handle, error)
}

// ArgsFunc builds an emulator's argument list for a window.
type ArgsFunc func(title, dir, script string) []string

type EmulatorConfig struct {
	ID     string
	Binary string
	Args   ArgsFunc
}

// Registry holds all supported terminal emulators
var Registry = make(map[string]EmulatorConfig)

// Register adds a terminal emulator to the registry
func Register(id, binary string, args ArgsFunc) {
	Registry[id] = EmulatorConfig{ID: id, Binary: binary, Args: args}
}

// Available lists registered emulator IDs in sorted order.
func Available() []string {
	ids := make([]string, 0, len(Registry))
	for id := range Registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NewLauncher creates a launcher for a registered emulator.
func NewLauncher(id string) (Launcher, error) {
	cfg, ok := Registry[id]
	if !ok {
		return nil, errdefs.NewCustomError(errdefs.ErrTypeUnsupportedTerminal,
			fmt.Sprintf("unsupported terminal %q (available: %s)", id, strings.Join(Available(), ", ")))
	}
	return &ProcessLauncher{Config: cfg, LookPath: exec.LookPath}, nil
}

// ProcessLauncher starts the emulator as a child process and reports its
// exit through the handle.
type ProcessLauncher struct {
	Config   EmulatorConfig
	LookPath func(string) (string, error)
}

func (p *ProcessLauncher) Launch(ctx context.Context, task Task) (*Handle, error) {
	binary := p.Config.Binary
	if p.LookPath != nil {
		path, err := p.LookPath(binary)
		if err != nil {
			return nil, errdefs.WrapCustomError(errdefs.ErrTypeUnsupportedTerminal,
				fmt.Sprintf("terminal %s is not installed", binary), err)
		}
		binary = path
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Windows outlive the installer: they are not bound to ctx and get
	// their own process group, so Ctrl-C at the installer does not reach them.
	args := p.Config.Args(task.Title, task.Dir, task.Script())
	cmd := exec.Command(binary, args...)
	cmd.Dir = task.Dir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	log.Debug("launching terminal", "terminal", p.Config.ID, "title", task.Title, "args", args)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", p.Config.ID, err)
	}

	h, finish := NewHandle()
	go func() {
		err := cmd.Wait()
		log.Debug("terminal closed", "title", task.Title, "err", err)
		finish(err)
	}()
	return h, nil
}
