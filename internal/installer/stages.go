package installer

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Hardhat-Enterprises/ddtinstall/internal/deps"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/errdefs"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/log"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/prereq"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/runner"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/terminal"
)

func (i *Installer) stages() []Stage {
	prereqs := prereq.FromConfig(i.cfg.Prerequisites)
	pm := i.opts.PackageManager

	return []Stage{
		{
			Phase:       PhaseSudo,
			Name:        "Checking for sudo permissions",
			Description: "sudo -v",
			Steps:       1,
			Fatal:       true,
			run: func(ctx context.Context, s *session) error {
				res := s.runner.Run(ctx, runner.Step{
					Message: "Checking for sudo permissions...",
					Command: "sudo -v",
				})
				if err := res.Failure(); err != nil {
					return errdefs.WrapCustomError(errdefs.ErrTypeCommandFailed, "sudo permissions are required", err)
				}
				return nil
			},
		},
		{
			Phase:       PhaseClone,
			Name:        "Downloading the Deakin Detonator Toolkit",
			Description: fmt.Sprintf("clone %s into %s", i.cfg.Repo.URL, i.CloneDir()),
			Steps:       1,
			Fatal:       true,
			run: func(ctx context.Context, s *session) error {
				return s.runner.Run(ctx, runner.Step{
					Message: "Downloading the Deakin Detonator Toolkit...",
					Action: func(ctx context.Context) error {
						return i.opts.Cloner.Clone(ctx, i.cfg.Repo.URL, s.cloneDir)
					},
				}).Failure()
			},
		},
		{
			Phase:       PhaseManifest,
			Name:        "Reading the list of software dependencies",
			Description: i.cfg.Manifest.Path,
			Steps:       1,
			Fatal:       true,
			run: func(ctx context.Context, s *session) error {
				return s.runner.Run(ctx, runner.Step{
					Message: "Reading the list of software dependencies...",
					Action: func(context.Context) error {
						m, err := deps.LoadManifest(i.opts.FS, filepath.Join(s.cloneDir, i.cfg.Manifest.Path))
						if err != nil {
							return err
						}
						log.Info("loaded dependency list", "packages", m.Len())
						s.manifest = m
						return nil
					},
				}).Failure()
			},
		},
		{
			Phase:       PhaseSystemUpdate,
			Name:        "Updating the system information",
			Description: pm.UpdateStep().Command,
			Steps:       1,
			run: func(ctx context.Context, s *session) error {
				warnOnFailure(s.runner.Run(ctx, pm.UpdateStep()))
				return ctx.Err()
			},
		},
		{
			Phase:       PhaseSystemUpgrade,
			Name:        "Upgrading the system",
			Description: pm.UpgradeStep().Command,
			Steps:       1,
			run: func(ctx context.Context, s *session) error {
				warnOnFailure(s.runner.Run(ctx, pm.UpgradeStep()))
				return ctx.Err()
			},
		},
		{
			Phase:       PhaseSystemPackages,
			Name:        "Installing the required software dependencies",
			Description: "apt install <packages from the dependency list>",
			Steps:       1,
			Fatal:       true,
			run: func(ctx context.Context, s *session) error {
				step := pm.InstallStep(s.manifest.Packages())
				if step.Command == "" {
					log.Info("dependency list is empty, nothing to install")
				}
				return s.runner.Run(ctx, step).Failure()
			},
		},
		{
			Phase:       PhasePrerequisites,
			Name:        "Installing developer tools",
			Description: prereq.Names(prereqs),
			Steps:       prereq.StepsPerPrerequisite * len(prereqs),
			Fatal:       true,
			run: func(ctx context.Context, s *session) error {
				for _, p := range prereqs {
					if err := s.prereqs.Ensure(ctx, p); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			Phase:       PhaseLaunch,
			Name:        "Starting the Deakin Detonator Toolkit",
			Description: fmt.Sprintf("%s in %q", i.cfg.Launch.Script, i.cfg.Launch.Title),
			Steps:       1,
			Fatal:       true,
			run: func(ctx context.Context, s *session) error {
				return s.runner.Run(ctx, runner.Step{
					Message: "Starting the Deakin Detonator Toolkit...",
					Action: func(ctx context.Context) error {
						_, err := i.opts.Launcher.Launch(ctx, terminal.Task{
							Title:    i.cfg.Launch.Title,
							Command:  i.cfg.Launch.Script,
							Dir:      s.cloneDir,
							KeepOpen: i.cfg.Debug,
						})
						return err
					},
				}).Failure()
			},
		},
	}
}

func warnOnFailure(res runner.Result) {
	if res.OK() {
		return
	}
	log.Warn("command failed, continuing", "cmd", res.Command, "exit", res.ExitCode, "err", res.Err, "stderr", res.Stderr)
}
