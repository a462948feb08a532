package esprunner

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	pollInterval  = 20 * time.Millisecond
	readChunkSize = 4096
	// The trailing buffer searched for markers is capped so memory stays
	// bounded on long-running commands.
	trailingBufLimit = 8192
)

// DispatchCommand writes a single command to the device and collects its
// output until the completion policy for (mode, command) says it is done:
// a terminal marker in the trailing output window, quiet-period expiry for
// commands without silent phases, or the hard per-command ceiling.
//
// Every byte read is echoed to the session log as it arrives. Read and write
// errors are fatal to the session and propagate; a command is never retried.
func DispatchCommand(p Port, mode int, cmd Command, quiet, max time.Duration, out SessionLog) error {
	payload := string(cmd) + "\n"
	if _, err := p.Write([]byte(payload)); err != nil {
		return errors.Wrapf(err, "sending command %q", string(cmd))
	}

	policy := policyFor(mode, cmd)

	start := time.Now()
	lastRx := start
	trail := ""
	buf := make([]byte, readChunkSize)

	for {
		n, err := p.Read(buf)
		if err != nil {
			return errors.Wrapf(err, "reading response to command %q", string(cmd))
		}
		now := time.Now()

		if n > 0 {
			s := string(buf[:n])
			out.Write(s)
			out.Flush()
			if len(policy.markers) > 0 {
				trail = clampTrailing(trail + s)
				if containsAny(trail, policy.markers) {
					return nil
				}
			}
			lastRx = now
		} else {
			time.Sleep(pollInterval)
		}

		if now.Sub(start) >= max {
			return nil
		}
		if !policy.longRunning && now.Sub(lastRx) >= quiet {
			return nil
		}
	}
}

func clampTrailing(s string) string {
	if len(s) > trailingBufLimit {
		return s[len(s)-trailingBufLimit:]
	}
	return s
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
