package installer

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/Hardhat-Enterprises/ddtinstall/internal/config"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/errdefs"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/prereq"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/runner"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/runner/runnertest"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/terminal"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/terminal/terminaltest"
	"github.com/adrg/xdg"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const workDir = "/home/ddt"

// fakeCloner writes the dependency list where a real clone would put it.
type fakeCloner struct {
	fs       afero.Fs
	manifest string
	calls    []string
}

func (c *fakeCloner) Clone(_ context.Context, url, dir string) error {
	c.calls = append(c.calls, url+" -> "+dir)
	if c.manifest == "" {
		return c.fs.MkdirAll(dir, 0755)
	}
	return afero.WriteFile(c.fs, filepath.Join(dir, "install-update-media", "dependencies.json"), []byte(c.manifest), 0644)
}

type fixture struct {
	cfg      *config.Config
	out      *bytes.Buffer
	exec     *runnertest.FakeExecutor
	launcher *terminaltest.FakeLauncher
	cloner   *fakeCloner
	env      *prereq.MapEnvironment
	euid     int
}

func loadTestConfig(t *testing.T, overrides map[string]interface{}) *config.Config {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_CONFIG_DIRS", dir)
	xdg.Reload()
	t.Cleanup(xdg.Reload)

	base := map[string]interface{}{
		"settle.timeout":       "2s",
		"settle.poll_interval": "1ms",
		"sudo.keepalive":       "0s",
	}
	for k, v := range overrides {
		base[k] = v
	}

	cfg, err := config.Load(config.LoadOptions{Overrides: base})
	require.NoError(t, err)
	return cfg
}

func newFixture(t *testing.T, overrides map[string]interface{}) *fixture {
	t.Helper()
	fs := afero.NewMemMapFs()
	f := &fixture{
		cfg:      loadTestConfig(t, overrides),
		out:      &bytes.Buffer{},
		exec:     runnertest.NewFakeExecutor(),
		launcher: &terminaltest.FakeLauncher{},
		cloner:   &fakeCloner{fs: fs, manifest: `{"packages": ["nmap", "curl"]}`},
		env:      prereq.NewMapEnvironment(workDir, map[string]string{"PATH": "/usr/bin"}),
		euid:     1000,
	}
	t.Cleanup(f.launcher.CloseAll)
	return f
}

func (f *fixture) installer(t *testing.T) *Installer {
	t.Helper()
	inst, err := NewInstaller(Options{
		Config:    f.cfg,
		Out:       f.out,
		Executor:  f.exec,
		Launcher:  f.launcher,
		Cloner:    f.cloner,
		FS:        f.cloner.fs,
		Env:       f.env,
		EUID:      func() int { return f.euid },
		Preflight: func(context.Context) error { return nil },
		WorkDir:   workDir,
	})
	require.NoError(t, err)
	return inst
}

// toolsMissingUntilInstalled fails every check command until its install
// window has been launched.
func (f *fixture) toolsMissingUntilInstalled() {
	var mu sync.Mutex
	launched := map[string]bool{}
	f.launcher.OnLaunch = func(task terminal.Task) {
		mu.Lock()
		defer mu.Unlock()
		launched[strings.TrimSuffix(task.Title, " Install Terminal")] = true
	}

	names := map[string]string{
		"rustc --version": "Rust",
		"volta --version": "Volta",
		"node --version":  "Node.js",
		"yarn --version":  "Yarn",
	}
	f.exec.Handler = func(req runner.Request) runner.Result {
		name, ok := names[req.Command]
		if !ok {
			return runner.Result{}
		}
		mu.Lock()
		defer mu.Unlock()
		if launched[name] {
			return runner.Result{Stdout: "1.0.0"}
		}
		return runner.Result{ExitCode: 127}
	}
}

func TestPlan(t *testing.T) {
	f := newFixture(t, nil)
	inst := f.installer(t)

	plan := inst.Plan()
	require.Len(t, plan, 8)

	phases := make([]InstallPhase, len(plan))
	for i, s := range plan {
		phases[i] = s.Phase
	}
	assert.Equal(t, []InstallPhase{
		PhaseSudo, PhaseClone, PhaseManifest, PhaseSystemUpdate,
		PhaseSystemUpgrade, PhaseSystemPackages, PhasePrerequisites, PhaseLaunch,
	}, phases)
	assert.Equal(t, 12, plan[6].Steps)
	assert.False(t, plan[3].Fatal)
	assert.True(t, plan[5].Fatal)
	assert.Equal(t, 19, inst.TotalSteps())
	assert.Equal(t, filepath.Join(workDir, "Deakin-Detonator-Toolkit"), inst.CloneDir())
}

func TestPlanFollowsPrerequisiteList(t *testing.T) {
	f := newFixture(t, map[string]interface{}{
		"prerequisites": []interface{}{
			map[string]interface{}{"name": "Rust", "check": "rustc --version", "install": "x", "path": ".cargo/bin"},
		},
	})
	assert.Equal(t, 10, f.installer(t).TotalSteps())
}

func TestRunRefusesRoot(t *testing.T) {
	f := newFixture(t, nil)
	f.euid = 0

	err := f.installer(t).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errdefs.ErrRunningAsRoot)
	assert.Empty(t, f.exec.Commands())
	assert.Empty(t, f.cloner.calls)
	assert.Empty(t, f.out.String())
}

func TestRunAllToolsPresent(t *testing.T) {
	f := newFixture(t, nil)
	inst := f.installer(t)

	require.NoError(t, inst.Run(context.Background()))

	assert.Equal(t, []string{
		"sudo -v",
		"sudo apt update",
		"sudo apt upgrade --fix-missing -y",
		"sudo apt install nmap curl -y",
		"rustc --version",
		"volta --version",
		"node --version",
		"yarn --version",
	}, f.exec.Commands())

	tasks := f.launcher.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "DDT Terminal", tasks[0].Title)
	assert.Equal(t, "sh ./install-update-media/start-ddt.sh", tasks[0].Command)
	assert.Equal(t, inst.CloneDir(), tasks[0].Dir)
	assert.False(t, tasks[0].KeepOpen)

	assert.Equal(t, []string{"https://github.com/Hardhat-Enterprises/Deakin-Detonator-Toolkit -> " + inst.CloneDir()}, f.cloner.calls)
	assert.Equal(t, "/usr/bin", f.env.Getenv("PATH"))

	out := f.out.String()
	assert.True(t, strings.HasSuffix(out, "\r\033[KStarting the Deakin Detonator Toolkit... (Complete)\n"), out)
	assert.NotContains(t, out, "Install DDT")
	assert.Contains(t, out, "Yarn is already installed. Skipping Yarn installation.")
}

func TestRunAllToolsMissing(t *testing.T) {
	f := newFixture(t, nil)
	f.toolsMissingUntilInstalled()

	require.NoError(t, f.installer(t).Run(context.Background()))

	tasks := f.launcher.Tasks()
	titles := make([]string, len(tasks))
	for i, task := range tasks {
		titles[i] = task.Title
	}
	assert.Equal(t, []string{
		"Rust Install Terminal",
		"Volta Install Terminal",
		"Node.js Install Terminal",
		"Yarn Install Terminal",
		"DDT Terminal",
	}, titles)

	assert.Equal(t, "/home/ddt/.volta/bin:/home/ddt/.cargo/bin:/usr/bin", f.env.Getenv("PATH"))
	assert.Contains(t, f.out.String(), "] 94% Complete")
	assert.True(t, strings.HasSuffix(f.out.String(), "Starting the Deakin Detonator Toolkit... (Complete)\n"))
}

func TestRunManifestFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.cloner.manifest = ""

	err := f.installer(t).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errdefs.IsType(err, errdefs.ErrTypeInvalidManifest))
	assert.Equal(t, []string{"sudo -v"}, f.exec.Commands())
	assert.Empty(t, f.launcher.Tasks())
}

func TestRunSudoFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.exec.Fail("sudo -v", 1)

	err := f.installer(t).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errdefs.IsType(err, errdefs.ErrTypeCommandFailed))
	assert.Empty(t, f.cloner.calls)
}

func TestRunUpdateFailureContinues(t *testing.T) {
	f := newFixture(t, nil)
	f.exec.Fail("sudo apt update", 100)
	f.exec.Fail("sudo apt upgrade --fix-missing -y", 100)

	require.NoError(t, f.installer(t).Run(context.Background()))
	assert.Contains(t, f.exec.Commands(), "sudo apt install nmap curl -y")
}

func TestRunInstallFailureStops(t *testing.T) {
	f := newFixture(t, nil)
	f.exec.Fail("sudo apt install nmap curl -y", 100)

	err := f.installer(t).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errdefs.IsType(err, errdefs.ErrTypeCommandFailed))
	assert.NotContains(t, f.exec.Commands(), "rustc --version")
	assert.Empty(t, f.launcher.Tasks())
}

func TestRunEmptyManifest(t *testing.T) {
	f := newFixture(t, nil)
	f.cloner.manifest = `{"packages": []}`

	require.NoError(t, f.installer(t).Run(context.Background()))
	assert.Zero(t, f.exec.Count("apt install"))
}

func TestRunDebugKeepsWindowsOpen(t *testing.T) {
	f := newFixture(t, map[string]interface{}{"debug": true})

	require.NoError(t, f.installer(t).Run(context.Background()))
	tasks := f.launcher.Tasks()
	require.Len(t, tasks, 1)
	assert.True(t, tasks[0].KeepOpen)
	assert.True(t, f.exec.Requests()[0].Stream)
}

func TestRunPreflightFailure(t *testing.T) {
	f := newFixture(t, nil)
	inst := f.installer(t)
	inst.opts.Preflight = func(context.Context) error {
		return errdefs.NewCustomError(errdefs.ErrTypeNoDesktopSession, "no graphical session found")
	}

	err := inst.Run(context.Background())
	assert.True(t, errdefs.IsType(err, errdefs.ErrTypeNoDesktopSession))
	assert.Empty(t, f.exec.Commands())
}

func TestRunCancelled(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	f.exec.Handler = func(req runner.Request) runner.Result {
		if req.Command == "sudo apt update" {
			cancel()
			return runner.Result{ExitCode: -1, Err: context.Canceled}
		}
		return runner.Result{}
	}

	err := f.installer(t).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotContains(t, f.exec.Commands(), "sudo apt upgrade --fix-missing -y")
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "apt-install", PhaseSystemPackages.String())
	assert.Equal(t, "phase(42)", InstallPhase(42).String())
}
