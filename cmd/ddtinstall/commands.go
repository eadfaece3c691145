package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Hardhat-Enterprises/ddtinstall/internal/config"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/deps"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/installer"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/log"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/privilege"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/repo"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/runner"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var rootCmd = &cobra.Command{
	Use:   "ddtinstall",
	Short: "Install the Deakin Detonator Toolkit",
	Long: "ddtinstall downloads the Deakin Detonator Toolkit, installs its system\n" +
		"packages and developer tools, then starts it in a new terminal window.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runInstall,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run:   runVersion,
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the install stages without running them",
	RunE:  runPlan,
}

// flagKeys maps install flags onto config keys.
var flagKeys = map[string]string{
	"debug":             "debug",
	"terminal":          "terminal",
	"clone-dir":         "repo.dir",
	"wait-mode":         "settle.mode",
	"settle-timeout":    "settle.timeout",
	"allow-unsupported": "preflight.allow_unsupported",
	"bar-style":         "progress.bar_style",
}

func addInstallFlags(fs *pflag.FlagSet) {
	fs.Bool("debug", false, "Stream command output and keep install windows open")
	fs.String("terminal", "", "Terminal emulator used for install windows")
	fs.String("clone-dir", "", "Directory the toolkit is cloned into")
	fs.String("wait-mode", "", "How to wait for install windows: poll or fixed")
	fs.Duration("settle-timeout", 0, "Longest wait for a tool to become available")
	fs.Bool("allow-unsupported", false, "Continue on distributions other than Debian or Ubuntu")
	fs.String("bar-style", "", "Progress bar style: ascii or gradient")
}

// overridesFromFlags returns config overrides for the flags the user set.
func overridesFromFlags(fs *pflag.FlagSet) map[string]interface{} {
	overrides := map[string]interface{}{}
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		switch f.Value.Type() {
		case "bool":
			v, _ := fs.GetBool(name)
			overrides[key] = v
		case "duration":
			v, _ := fs.GetDuration(name)
			overrides[key] = v.String()
		default:
			overrides[key] = f.Value.String()
		}
	}
	return overrides
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(config.LoadOptions{
		ConfigFile: path,
		Overrides:  overridesFromFlags(cmd.Flags()),
	})
}

func runInstall(cmd *cobra.Command, args []string) error {
	// Must run before the log file is opened under the user's state dir.
	if err := privilege.CheckNotRoot(privilege.EffectiveUID()); err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logFile, logPath, err := log.OpenLogFile()
	if err != nil {
		log.Configure(cfg.Debug, nil)
		log.Warn("could not open log file", "err", err)
	} else {
		defer logFile.Close()
		log.Configure(cfg.Debug, logFile)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cloneProgress io.Writer
	if cfg.Debug {
		cloneProgress = cmd.ErrOrStderr()
	}

	inst, err := installer.NewInstaller(installer.Options{
		Config: cfg,
		Out:    cmd.OutOrStdout(),
		Cloner: repo.NewGitCloner(cloneProgress),
	})
	if err != nil {
		return err
	}

	if err := inst.Run(ctx); err != nil {
		if logPath != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Install log: %s\n", logPath)
		}
		return err
	}
	return nil
}

func runVersion(cmd *cobra.Command, args []string) {
	printASCII()
	fmt.Printf("DDT Installer v%s\n", Version)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log.Configure(cfg.Debug, nil)

	inst, err := installer.NewInstaller(installer.Options{
		Config:    cfg,
		Out:       io.Discard,
		Preflight: func(context.Context) error { return nil },
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printPlan(out, inst.Plan(), inst.TotalSteps())

	check, _ := cmd.Flags().GetBool("check")
	if !check {
		return nil
	}

	manifest, err := deps.LoadManifest(afero.NewOsFs(), filepath.Join(inst.CloneDir(), cfg.Manifest.Path))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	found, err := deps.NewDpkgDetector(runner.NewShellExecutor()).DetectDependencies(ctx, manifest.Packages())
	if err != nil {
		return err
	}
	printDependencies(out, found)
	return nil
}

func printPlan(w io.Writer, plan []installer.StageInfo, total int) {
	name := lipgloss.NewStyle().Foreground(lipgloss.Color("#ccbeff")).Bold(true)
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	for n, s := range plan {
		steps := "steps"
		if s.Steps == 1 {
			steps = "step"
		}
		fmt.Fprintf(w, "%2d. %s  %s\n", n+1, name.Render(s.Name), dim.Render(fmt.Sprintf("%d %s", s.Steps, steps)))
		if s.Description != "" {
			fmt.Fprintf(w, "    %s\n", dim.Render(s.Description))
		}
	}
	fmt.Fprintf(w, "\nTotal: %d steps\n", total)
}

func printDependencies(w io.Writer, found []deps.Dependency) {
	ok := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	missing := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	fmt.Fprintln(w)
	for _, d := range found {
		if d.Status == deps.StatusInstalled {
			fmt.Fprintf(w, "  %s %s %s\n", ok.Render("✓"), d.Name, d.Version)
			continue
		}
		fmt.Fprintf(w, "  %s %s\n", missing.Render("✗"), d.Name)
	}
	fmt.Fprintf(w, "\n%d of %d packages missing\n", len(deps.Missing(found)), len(found))
}
