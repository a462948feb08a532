package esprunner

import (
	"strconv"
	"strings"
)

// Command is a single token from the ordered command list. The payload is
// written verbatim to the device ("i", "S1234", " "), except for mode
// switches, which only select the session's marker table and are never sent.
type Command string

// IsModeSwitch reports whether the command selects a protocol mode instead
// of being dispatched to the device.
func (c Command) IsModeSwitch() bool { return c == "1" || c == "2" }

// Mode returns the protocol mode selected by a mode-switch command.
func (c Command) Mode() int {
	if c == "2" {
		return 2
	}
	return 1
}

// CLI options that consume the following argv token. Their values must never
// be parsed as raw command tokens (e.g. `--boot-wait 5` must not send the
// command "5").
var valueOptions = map[string]bool{
	"--port":         true,
	"--baud":         true,
	"--log":          true,
	"--profile":      true,
	"--open-timeout": true,
	"--boot-wait":    true,
	"--quiet":        true,
	"--max":          true,
	"--set-serial":   true,
}

// ParseCommands extracts the ordered command tokens from argv.
//
// Ordering is preserved left-to-right and nothing is de-duplicated: later
// commands may depend on device state set up by earlier ones. Recognized
// forms are `-x` short tokens, bare single-character tokens, `S<digits>`
// tokens, `--space` for the ASCII space command, and `--set-serial N` which
// is validated here, before anything touches the port.
func ParseCommands(argv []string) ([]Command, error) {
	var cmds []Command
	for i := 0; i < len(argv); i++ {
		a := argv[i]
		switch {
		case a == "--space":
			cmds = append(cmds, Command(" "))

		case a == "--set-serial":
			if i+1 >= len(argv) {
				return nil, &InvalidCommandError{Token: a, Reason: "missing serial number value"}
			}
			n := strings.TrimSpace(argv[i+1])
			if _, err := strconv.ParseUint(n, 10, 32); err != nil {
				return nil, &InvalidCommandError{Token: n, Reason: "expected a uint32 decimal string"}
			}
			cmds = append(cmds, Command("S"+n))
			i++

		case valueOptions[a]:
			i++ // skip the option's value

		case strings.HasPrefix(a, "--"):
			// Long options carry no command (this also swallows a bare "--"
			// separator).

		case strings.HasPrefix(a, "-") && len(a) == 2:
			cmds = append(cmds, Command(a[1:]))

		case a != "" && !strings.HasPrefix(a, "-"):
			if len(a) == 1 || isSetSerialToken(a) {
				cmds = append(cmds, Command(a))
			}
		}
	}
	return cmds, nil
}

func isSetSerialToken(a string) bool {
	if len(a) < 2 || a[0] != 'S' {
		return false
	}
	for _, r := range a[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
