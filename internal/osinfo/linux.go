package osinfo

import (
	"bufio"
	"os"
	"strings"

	"github.com/Hardhat-Enterprises/ddtinstall/internal/errdefs"
)

var osOpen = os.Open

func detectLinuxDistro(info *OSInfo) error {
	if err := readOSRelease(info); err != nil {
		return errdefs.WrapCustomError(errdefs.ErrTypeGeneric, "Failed to detect Linux distribution", err)
	}
	return nil
}

func readOSRelease(info *OSInfo) error {
	file, err := osOpen("/etc/os-release")
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, `"'`)

		switch key {
		case "ID":
			info.Distribution = strings.ToLower(value)
		case "ID_LIKE":
			info.IDLike = strings.Fields(strings.ToLower(value))
		case "VERSION_ID":
			info.VersionID = value
		case "VERSION":
			info.Version = value
		case "PRETTY_NAME":
			info.PrettyName = value
		}
	}

	return scanner.Err()
}
