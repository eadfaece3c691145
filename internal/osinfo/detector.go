package osinfo

import (
	"fmt"
	"runtime"
	"slices"

	"github.com/Hardhat-Enterprises/ddtinstall/internal/errdefs"
)

// SupportedFamilies are the os-release IDs whose descendants use apt.
var SupportedFamilies = []string{
	"debian",
	"ubuntu",
}

type OSInfo struct {
	Distribution string
	IDLike       []string
	Version      string
	VersionID    string
	PrettyName   string
	Architecture string
}

var getOsFunc = getGoos
var getArchFunc = getGoarch

func getGoos() string {
	return runtime.GOOS
}

func getGoarch() string {
	return runtime.GOARCH
}

// Family returns the first supported family the distribution belongs to, or
// the distribution ID itself.
func (o *OSInfo) Family() string {
	for _, id := range append([]string{o.Distribution}, o.IDLike...) {
		if slices.Contains(SupportedFamilies, id) {
			return "debian"
		}
	}
	return o.Distribution
}

func IsDebianFamily(info *OSInfo) bool {
	return info != nil && info.Family() == "debian"
}

func GetOSInfo() (*OSInfo, error) {
	if getOsFunc() != "linux" {
		return nil, errdefs.NewCustomError(errdefs.ErrTypeNotLinux, fmt.Sprintf("Only linux is supported, but I found %s", getOsFunc()))
	}

	arch := getArchFunc()
	if arch != "amd64" && arch != "arm64" {
		return nil, errdefs.NewCustomError(errdefs.ErrTypeInvalidArchitecture, fmt.Sprintf("Only amd64 and arm64 are supported, but I found %s", arch))
	}

	info := &OSInfo{
		Architecture: arch,
	}

	if err := detectLinuxDistro(info); err != nil {
		return nil, err
	}
	return info, nil
}

// CheckSupported reports an UnsupportedDistribution error for hosts outside
// the Debian family.
func CheckSupported(info *OSInfo) error {
	if IsDebianFamily(info) {
		return nil
	}
	name := info.PrettyName
	if name == "" {
		name = info.Distribution
	}
	return errdefs.NewCustomError(errdefs.ErrTypeUnsupportedDistribution,
		fmt.Sprintf("Unsupported distribution: %s (a Debian-based system is required)", name))
}
