package pkgmanager

import (
	"fmt"

	"github.com/Hardhat-Enterprises/ddtinstall/internal/errdefs"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/runner"
)

// PackageManager builds the system package steps of an install run.
type PackageManager interface {
	Name() string
	UpdateStep() runner.Step
	UpgradeStep() runner.Step
	InstallStep(packages []string) runner.Step
}

func NewPackageManager(family string) (PackageManager, error) {
	switch family {
	case "debian", "ubuntu":
		return NewAPT(), nil
	default:
		return nil, errdefs.NewCustomError(errdefs.ErrTypeUnsupportedDistribution,
			fmt.Sprintf("no package manager for distribution family %q", family))
	}
}
