package esprunner

import (
	"strings"

	"github.com/pkg/errors"
	"go.bug.st/serial/enumerator"
)

// Swappable for tests.
var listPorts = enumerator.GetDetailedPortsList

// Substrings that mark an enumerated device as a plausible USB serial
// adapter. Checked case-insensitively against the device description and
// hardware ID.
var portHints = []string{"usb", "cdc", "uart"}

// ResolvePort turns an optional explicit port path into a confirmed one.
//
// An explicit path is returned unchanged without checking that it exists;
// opening it will fail later if it is wrong. Otherwise the host's serial
// devices are enumerated and the first one matching a USB-serial hint is
// chosen. If exactly one device is present it is used even without a match.
// Returns ErrNoPortFound when no port can be determined.
func ResolvePort(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	ports, err := listPorts()
	if err != nil {
		return "", errors.Wrap(err, "enumerating serial ports")
	}

	for _, p := range ports {
		if p.Name == "" {
			continue
		}
		desc := strings.ToLower(p.Product)
		hwid := ""
		if p.IsUSB {
			hwid = strings.ToLower("usb vid:pid=" + p.VID + ":" + p.PID)
		}
		for _, hint := range portHints {
			if strings.Contains(desc, hint) || strings.Contains(hwid, hint) {
				return normalizePortName(p.Name), nil
			}
		}
	}

	// Fallback: if there is exactly one device, use it.
	if len(ports) == 1 && ports[0].Name != "" {
		return ports[0].Name, nil
	}

	return "", ErrNoPortFound
}

// normalizePortName rewrites a macOS call-out device node to its dial-in
// equivalent. Opening /dev/cu.* can cause DTR/RTS side effects that reset
// some ESP32-S3 setups into ROM download mode.
func normalizePortName(name string) string {
	const callout = "/dev/cu."
	if strings.HasPrefix(name, callout) {
		return "/dev/tty." + name[len(callout):]
	}
	return name
}
