package osinfo

import (
	"fmt"
	"os"

	"github.com/Hardhat-Enterprises/ddtinstall/internal/errdefs"
	"github.com/godbus/dbus/v5"
)

var getenv = os.Getenv

// pingSessionBus connects to the user's session bus and pings the bus daemon.
var pingSessionBus = func() error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return err
	}
	defer conn.Close()
	return conn.BusObject().Call("org.freedesktop.DBus.Peer.Ping", 0).Err
}

// CheckDesktopSession verifies that terminal windows can be opened: a display
// server must be advertised and the session bus must answer.
func CheckDesktopSession() error {
	if getenv("WAYLAND_DISPLAY") == "" && getenv("DISPLAY") == "" {
		return errdefs.NewCustomError(errdefs.ErrTypeNoDesktopSession,
			"no graphical session found (neither WAYLAND_DISPLAY nor DISPLAY is set)")
	}
	if err := pingSessionBus(); err != nil {
		return errdefs.WrapCustomError(errdefs.ErrTypeNoDesktopSession,
			fmt.Sprintf("session bus unreachable for %s", sessionKind()), err)
	}
	return nil
}

func sessionKind() string {
	if t := getenv("XDG_SESSION_TYPE"); t != "" {
		return t + " session"
	}
	return "desktop session"
}
