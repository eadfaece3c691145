package installer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Hardhat-Enterprises/ddtinstall/internal/config"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/deps"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/errdefs"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/log"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/osinfo"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/pkgmanager"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/prereq"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/privilege"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/progress"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/repo"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/runner"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/terminal"
	"github.com/spf13/afero"
)

type Options struct {
	Config *config.Config
	// Out receives the progress display.
	Out io.Writer

	Executor       runner.Executor
	Launcher       terminal.Launcher
	Cloner         repo.Cloner
	PackageManager pkgmanager.PackageManager
	FS             afero.Fs
	Env            prereq.Environment
	// EUID reports the effective uid checked before anything runs.
	EUID      func() int
	Preflight PreflightFunc
	// WorkDir is where a relative repo.dir is created. Defaults to the
	// current directory.
	WorkDir string

	TrackerOptions []progress.Option
}

type Installer struct {
	opts Options
	cfg  *config.Config
}

// session is the mutable state of a single Run.
type session struct {
	runner   *runner.Runner
	prereqs  *prereq.Installer
	manifest *deps.Manifest
	cloneDir string
}

func NewInstaller(opts Options) (*Installer, error) {
	if opts.Config == nil {
		return nil, errdefs.NewCustomError(errdefs.ErrTypeInvalidConfig, "installer needs a configuration")
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Executor == nil {
		opts.Executor = runner.NewShellExecutor()
	}
	if opts.Launcher == nil {
		l, err := terminal.NewLauncher(opts.Config.Terminal)
		if err != nil {
			return nil, err
		}
		opts.Launcher = l
	}
	if opts.Cloner == nil {
		opts.Cloner = repo.NewGitCloner(nil)
	}
	if opts.PackageManager == nil {
		pm, err := pkgmanager.NewPackageManager(osinfo.SupportedFamilies[0])
		if err != nil {
			return nil, err
		}
		opts.PackageManager = pm
	}
	if opts.FS == nil {
		opts.FS = afero.NewOsFs()
	}
	if opts.Env == nil {
		opts.Env = prereq.ProcessEnvironment{}
	}
	if opts.EUID == nil {
		opts.EUID = privilege.EffectiveUID
	}
	if opts.Preflight == nil {
		opts.Preflight = DefaultPreflight(opts.Config)
	}
	if opts.WorkDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		opts.WorkDir = wd
	}

	return &Installer{opts: opts, cfg: opts.Config}, nil
}

// Plan lists the stages of a run in order.
func (i *Installer) Plan() []StageInfo {
	stages := i.stages()
	infos := make([]StageInfo, len(stages))
	for n, s := range stages {
		infos[n] = StageInfo{
			Phase:       s.Phase,
			Name:        s.Name,
			Description: s.Description,
			Steps:       s.Steps,
			Fatal:       s.Fatal,
		}
	}
	return infos
}

func (i *Installer) TotalSteps() int {
	total := 0
	for _, s := range i.stages() {
		total += s.Steps
	}
	return total
}

// CloneDir is repo.dir resolved against WorkDir.
func (i *Installer) CloneDir() string {
	dir := i.cfg.Repo.Dir
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(i.opts.WorkDir, dir)
}

// Run performs the whole install. Fatal stage errors end the run and are
// returned; the progress counter equals the plan total on success.
func (i *Installer) Run(ctx context.Context) error {
	if err := privilege.CheckNotRoot(i.opts.EUID()); err != nil {
		return err
	}

	if err := i.opts.Preflight(ctx); err != nil {
		return err
	}

	total := i.TotalSteps()
	trackerOpts := append([]progress.Option{
		progress.WithDebug(i.cfg.Debug),
		progress.WithBarStyle(progress.BarStyle(i.cfg.Progress.BarStyle)),
	}, i.opts.TrackerOptions...)
	tracker := progress.NewTracker(i.opts.Out, total, trackerOpts...)

	r := runner.New(tracker, i.opts.Executor)
	s := &session{
		runner:   r,
		prereqs:  prereq.NewInstaller(r, i.opts.Launcher, i.opts.Env, prereq.WaitPolicyFromConfig(i.cfg.Settle)),
		cloneDir: i.CloneDir(),
	}

	log.Info("starting install", "steps", total, "clone_dir", s.cloneDir, "terminal", i.cfg.Terminal)

	var keepalive *privilege.Keepalive
	defer func() {
		if keepalive != nil {
			keepalive.Stop()
		}
	}()

	for _, stage := range i.stages() {
		before := tracker.Current()
		log.Debug("stage started", "phase", stage.Phase, "steps", stage.Steps)

		if err := stage.run(ctx, s); err != nil {
			log.Error("stage failed", "phase", stage.Phase, "err", err)
			return fmt.Errorf("%s: %w", stage.Name, err)
		}

		if consumed := tracker.Current() - before; consumed != stage.Steps {
			return errdefs.NewCustomError(errdefs.ErrTypeStepMismatch,
				fmt.Sprintf("stage %s consumed %d steps, declared %d", stage.Phase, consumed, stage.Steps))
		}

		if stage.Phase == PhaseSudo {
			keepalive = privilege.StartKeepalive(ctx, i.opts.Executor, i.cfg.Sudo.Keepalive)
		}
	}

	if err := tracker.Complete(); err != nil {
		return err
	}
	log.Info("install complete")
	return nil
}

// DefaultPreflight checks the distribution, the desktop session and the
// network. Only the network check is advisory.
func DefaultPreflight(cfg *config.Config) PreflightFunc {
	return func(ctx context.Context) error {
		info, err := osinfo.GetOSInfo()
		if err != nil {
			return err
		}
		log.Info("detected system", "distribution", info.PrettyName, "arch", info.Architecture)

		if err := osinfo.CheckSupported(info); err != nil {
			if !cfg.Preflight.AllowUnsupported {
				return err
			}
			log.Warn("continuing on an unsupported distribution", "err", err)
		}

		if err := osinfo.CheckDesktopSession(); err != nil {
			return err
		}

		if err := osinfo.CheckNetwork(); err != nil {
			log.Warn("network check failed, the install may not be able to download", "err", err)
		}
		return ctx.Err()
	}
}
