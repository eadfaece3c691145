package pkgmanager

import (
	"strings"

	"github.com/Hardhat-Enterprises/ddtinstall/internal/runner"
)

type APT struct{}

func NewAPT() *APT {
	return &APT{}
}

func (a *APT) Name() string { return "apt" }

func (a *APT) UpdateStep() runner.Step {
	return runner.Step{
		Message: "Updating the system information...",
		Command: "apt update",
		Sudo:    true,
	}
}

func (a *APT) UpgradeStep() runner.Step {
	return runner.Step{
		Message: "Upgrading the system (this may take a while)...",
		Command: "apt upgrade --fix-missing -y",
		Sudo:    true,
	}
}

// InstallStep installs all packages in one apt call. An empty list yields a
// step with no command, which still counts as a step.
func (a *APT) InstallStep(packages []string) runner.Step {
	return runner.Step{
		Message: "Installing the required software dependencies...",
		Command: InstallCommand(packages),
		Sudo:    true,
	}
}

// InstallCommand is the apt command line for packages, in order.
func InstallCommand(packages []string) string {
	if len(packages) == 0 {
		return ""
	}
	return "apt install " + strings.Join(packages, " ") + " -y"
}
