package osinfo

import (
	"fmt"

	"github.com/Hardhat-Enterprises/ddtinstall/internal/errdefs"
	"github.com/Wifx/gonetworkmanager/v2"
)

var getConnectivity = func() (gonetworkmanager.NmConnectivity, error) {
	nm, err := gonetworkmanager.NewNetworkManager()
	if err != nil {
		return gonetworkmanager.NmConnectivityUnknown, fmt.Errorf("failed to connect to NetworkManager: %w", err)
	}
	return nm.GetPropertyConnectivity()
}

// CheckNetwork asks NetworkManager whether the host reaches the internet.
// Unknown connectivity is not treated as an error.
func CheckNetwork() error {
	state, err := getConnectivity()
	if err != nil {
		return err
	}

	switch state {
	case gonetworkmanager.NmConnectivityFull, gonetworkmanager.NmConnectivityUnknown:
		return nil
	case gonetworkmanager.NmConnectivityPortal:
		return errdefs.NewCustomError(errdefs.ErrTypeNoNetwork, "network is behind a captive portal")
	case gonetworkmanager.NmConnectivityLimited:
		return errdefs.NewCustomError(errdefs.ErrTypeNoNetwork, "network has no internet access")
	default:
		return errdefs.NewCustomError(errdefs.ErrTypeNoNetwork, "no network connection")
	}
}
