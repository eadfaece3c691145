package deps

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/Hardhat-Enterprises/ddtinstall/internal/errdefs"
	"github.com/spf13/afero"
)

// packageName accepts Debian package names plus apt's version and release
// suffixes such as pkg=1.2 and pkg:amd64.
var packageName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9+._:=~-]*$`)

// Manifest is the package list shipped in the cloned repository.
type Manifest struct {
	packages []string
}

type manifestFile struct {
	Packages *[]string `json:"packages"`
}

// LoadManifest reads and validates the dependency artifact at path.
func LoadManifest(fs afero.Fs, path string) (*Manifest, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errdefs.WrapCustomError(errdefs.ErrTypeInvalidManifest,
				fmt.Sprintf("dependency list %s not found", path), err)
		}
		return nil, errdefs.WrapCustomError(errdefs.ErrTypeInvalidManifest,
			fmt.Sprintf("failed to read %s", path), err)
	}
	return ParseManifest(data)
}

func ParseManifest(data []byte) (*Manifest, error) {
	var raw manifestFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errdefs.WrapCustomError(errdefs.ErrTypeInvalidManifest, "malformed dependency list", err)
	}
	if raw.Packages == nil {
		return nil, errdefs.NewCustomError(errdefs.ErrTypeInvalidManifest, `dependency list has no "packages" key`)
	}

	pkgs := make([]string, 0, len(*raw.Packages))
	for i, name := range *raw.Packages {
		if !packageName.MatchString(name) {
			return nil, errdefs.NewCustomError(errdefs.ErrTypeInvalidManifest,
				fmt.Sprintf("invalid package name %q at index %d", name, i))
		}
		pkgs = append(pkgs, name)
	}
	return &Manifest{packages: pkgs}, nil
}

// Packages returns the package names in file order.
func (m *Manifest) Packages() []string {
	out := make([]string, len(m.packages))
	copy(out, m.packages)
	return out
}

func (m *Manifest) Len() int { return len(m.packages) }
