package osinfo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Hardhat-Enterprises/ddtinstall/internal/errdefs"
	"github.com/Wifx/gonetworkmanager/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withOSRelease(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "os-release")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	prevOpen, prevOS, prevArch := osOpen, getOsFunc, getArchFunc
	osOpen = func(string) (*os.File, error) { return os.Open(path) }
	getOsFunc = func() string { return "linux" }
	getArchFunc = func() string { return "amd64" }
	t.Cleanup(func() { osOpen, getOsFunc, getArchFunc = prevOpen, prevOS, prevArch })
}

func TestGetOSInfo(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		distro    string
		family    string
		supported bool
	}{
		{
			name:      "kali",
			content:   "PRETTY_NAME=\"Kali GNU/Linux Rolling\"\nID=kali\nID_LIKE=debian\nVERSION_ID=\"2024.3\"\n",
			distro:    "kali",
			family:    "debian",
			supported: true,
		},
		{
			name:      "ubuntu",
			content:   "ID=ubuntu\nID_LIKE=debian\nVERSION_ID=\"24.04\"\n",
			distro:    "ubuntu",
			family:    "debian",
			supported: true,
		},
		{
			name:      "mint",
			content:   "ID=linuxmint\nID_LIKE=\"ubuntu debian\"\n",
			distro:    "linuxmint",
			family:    "debian",
			supported: true,
		},
		{
			name:    "fedora",
			content: "# comment\nID=fedora\nVERSION_ID=41\n",
			distro:  "fedora",
			family:  "fedora",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withOSRelease(t, tt.content)

			info, err := GetOSInfo()
			require.NoError(t, err)
			assert.Equal(t, tt.distro, info.Distribution)
			assert.Equal(t, tt.family, info.Family())
			assert.Equal(t, tt.supported, IsDebianFamily(info))

			err = CheckSupported(info)
			if tt.supported {
				assert.NoError(t, err)
			} else {
				assert.True(t, errdefs.IsType(err, errdefs.ErrTypeUnsupportedDistribution))
			}
		})
	}
}

func TestGetOSInfoRejectsHost(t *testing.T) {
	withOSRelease(t, "ID=debian\n")

	getOsFunc = func() string { return "darwin" }
	_, err := GetOSInfo()
	assert.True(t, errdefs.IsType(err, errdefs.ErrTypeNotLinux))

	getOsFunc = func() string { return "linux" }
	getArchFunc = func() string { return "386" }
	_, err = GetOSInfo()
	assert.True(t, errdefs.IsType(err, errdefs.ErrTypeInvalidArchitecture))
}

func TestGetOSInfoMissingFile(t *testing.T) {
	withOSRelease(t, "")
	osOpen = func(string) (*os.File, error) { return nil, os.ErrNotExist }

	_, err := GetOSInfo()
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCheckDesktopSession(t *testing.T) {
	prevEnv, prevPing := getenv, pingSessionBus
	t.Cleanup(func() { getenv, pingSessionBus = prevEnv, prevPing })

	env := map[string]string{}
	getenv = func(k string) string { return env[k] }
	pingSessionBus = func() error { return nil }

	err := CheckDesktopSession()
	assert.True(t, errdefs.IsType(err, errdefs.ErrTypeNoDesktopSession))

	env["WAYLAND_DISPLAY"] = "wayland-0"
	assert.NoError(t, CheckDesktopSession())

	pingSessionBus = func() error { return errors.New("no bus") }
	env["XDG_SESSION_TYPE"] = "wayland"
	err = CheckDesktopSession()
	assert.True(t, errdefs.IsType(err, errdefs.ErrTypeNoDesktopSession))
	assert.Contains(t, err.Error(), "wayland session")
}

func TestCheckNetwork(t *testing.T) {
	prev := getConnectivity
	t.Cleanup(func() { getConnectivity = prev })

	tests := []struct {
		state   gonetworkmanager.NmConnectivity
		wantErr bool
	}{
		{state: gonetworkmanager.NmConnectivityFull},
		{state: gonetworkmanager.NmConnectivityUnknown},
		{state: gonetworkmanager.NmConnectivityNone, wantErr: true},
		{state: gonetworkmanager.NmConnectivityPortal, wantErr: true},
		{state: gonetworkmanager.NmConnectivityLimited, wantErr: true},
	}

	for _, tt := range tests {
		getConnectivity = func() (gonetworkmanager.NmConnectivity, error) { return tt.state, nil }
		err := CheckNetwork()
		if tt.wantErr {
			assert.True(t, errdefs.IsType(err, errdefs.ErrTypeNoNetwork), "state %d", tt.state)
		} else {
			assert.NoError(t, err, "state %d", tt.state)
		}
	}

	getConnectivity = func() (gonetworkmanager.NmConnectivity, error) {
		return gonetworkmanager.NmConnectivityUnknown, errors.New("no NetworkManager")
	}
	assert.Error(t, CheckNetwork())
}
