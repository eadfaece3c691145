package main

import (
	"fmt"
	"os"

	"github.com/Hardhat-Enterprises/ddtinstall/internal/errdefs"
	"github.com/charmbracelet/lipgloss"
)

var Version = "dev"

func init() {
	addInstallFlags(rootCmd.Flags())
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	planCmd.Flags().Bool("check", false, "Report which listed packages are already installed")

	rootCmd.AddCommand(versionCmd, planCmd)
}

// exitCode maps a command error to the process status. Refusing to run as
// root is a clean exit.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errdefs.IsType(err, errdefs.ErrTypeRunningAsRoot):
		return 0
	default:
		return 1
	}
}

func main() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	if errdefs.IsType(err, errdefs.ErrTypeRunningAsRoot) {
		fmt.Fprintln(os.Stderr, err.Error())
	} else {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
		fmt.Fprintln(os.Stderr, errStyle.Render(err.Error()))
	}
	os.Exit(exitCode(err))
}
