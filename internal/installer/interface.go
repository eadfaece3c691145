package installer

import (
	"context"
	"fmt"
)

type InstallPhase int

const (
	PhaseSudo InstallPhase = iota
	PhaseClone
	PhaseManifest
	PhaseSystemUpdate
	PhaseSystemUpgrade
	PhaseSystemPackages
	PhasePrerequisites
	PhaseLaunch
	PhaseComplete
)

func (p InstallPhase) String() string {
	switch p {
	case PhaseSudo:
		return "sudo"
	case PhaseClone:
		return "clone"
	case PhaseManifest:
		return "manifest"
	case PhaseSystemUpdate:
		return "apt-update"
	case PhaseSystemUpgrade:
		return "apt-upgrade"
	case PhaseSystemPackages:
		return "apt-install"
	case PhasePrerequisites:
		return "prerequisites"
	case PhaseLaunch:
		return "launch"
	case PhaseComplete:
		return "complete"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Stage is one block of the install flow. Steps is the exact number of
// counted steps the stage consumes when it succeeds.
type Stage struct {
	Phase       InstallPhase
	Name        string
	Description string
	Steps       int
	Fatal       bool

	run func(ctx context.Context, s *session) error
}

// StageInfo is the printable part of a Stage.
type StageInfo struct {
	Phase       InstallPhase
	Name        string
	Description string
	Steps       int
	Fatal       bool
}

// PreflightFunc checks the host before any step runs.
type PreflightFunc func(ctx context.Context) error
