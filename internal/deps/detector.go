package deps

import (
	"context"
	"fmt"
	"strings"

	"github.com/Hardhat-Enterprises/ddtinstall/internal/runner"
)

type DependencyStatus int

const (
	StatusMissing DependencyStatus = iota
	StatusInstalled
)

func (s DependencyStatus) String() string {
	if s == StatusInstalled {
		return "installed"
	}
	return "missing"
}

type Dependency struct {
	Name    string
	Status  DependencyStatus
	Version string
}

type DependencyDetector interface {
	DetectDependencies(ctx context.Context, names []string) ([]Dependency, error)
}

// DpkgDetector asks dpkg for the install state of each package.
type DpkgDetector struct {
	executor runner.Executor
}

func NewDpkgDetector(executor runner.Executor) *DpkgDetector {
	return &DpkgDetector{executor: executor}
}

func (d *DpkgDetector) DetectDependencies(ctx context.Context, names []string) ([]Dependency, error) {
	deps := make([]Dependency, 0, len(names))
	for _, name := range names {
		res := d.executor.Execute(ctx, runner.Request{
			Command: fmt.Sprintf("dpkg-query -W -f='${Status}|${Version}' %s", basePackage(name)),
			Capture: true,
		})
		if res.Err != nil {
			return nil, fmt.Errorf("failed to query %s: %w", name, res.Err)
		}

		dep := Dependency{Name: name, Status: StatusMissing}
		status, version, _ := strings.Cut(res.Stdout, "|")
		if res.ExitCode == 0 && strings.HasSuffix(status, " installed") {
			dep.Status = StatusInstalled
			dep.Version = version
		}
		deps = append(deps, dep)
	}
	return deps, nil
}

// Missing filters deps down to the ones not installed.
func Missing(deps []Dependency) []Dependency {
	var missing []Dependency
	for _, d := range deps {
		if d.Status != StatusInstalled {
			missing = append(missing, d)
		}
	}
	return missing
}

// basePackage strips apt version pins (pkg=1.2) for dpkg queries.
func basePackage(name string) string {
	name, _, _ = strings.Cut(name, "=")
	return name
}
