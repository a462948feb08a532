// Package esprunner drives build/flash/interactive-test cycles for an
// ESP32-based device programmer over a serial link.
//
// A Session owns the serial connection for one runner invocation. The runner
// resolves a port (ResolvePort), opens it with bounded retry
// (OpenPortWithRetry), waits for the device to boot and classifies the boot
// output (ClassifyBoot), recovers a device stuck in ROM download mode
// (RecoverFromDownloadMode), and then dispatches an ordered list of command
// tokens, each with a mode- and command-specific completion policy
// (DispatchCommand). The device offers no acknowledgment protocol: completion
// is inferred from terminal marker substrings in its free-form text output,
// or from timing heuristics where no marker is known.
//
// Also included is a command line tool, found in the cmd/esprunner
// directory, that serves as both an example of how to use the library and
// the day-to-day host tool for exercising freshly flashed devices.
package esprunner

import (
	"context"
	"strings"
	"time"
)

// Swappable for tests.
var bootCaptureWindow = 700 * time.Millisecond

// Session is the live serial connection plus the mutable protocol mode.
// It is owned by a single goroutine; exactly one connection is open for the
// session's lifetime and there is no reconnection after a fatal I/O error.
type Session struct {
	port      Port
	portName  string
	baud      int
	mode      int
	quiet     time.Duration
	maxPerCmd time.Duration
	out       SessionLog
}

// NewSession wraps an already-open connection. The session starts in mode 1.
func NewSession(p Port, name string, baud int, quiet, maxPerCmd time.Duration, out SessionLog) *Session {
	return &Session{
		port:      p,
		portName:  name,
		baud:      baud,
		mode:      1,
		quiet:     quiet,
		maxPerCmd: maxPerCmd,
		out:       out,
	}
}

// Mode returns the currently selected protocol mode.
func (s *Session) Mode() int { return s.mode }

// SettleAndClassify sleeps for the boot-settle period, captures a short
// window of boot output (echoed to the session log) and classifies it.
func (s *Session) SettleAndClassify(bootWait time.Duration) BootClassification {
	time.Sleep(bootWait)
	text := captureOutput(s.port, bootCaptureWindow, s.out)
	return ClassifyBoot(text)
}

// Recover runs the download-mode recovery sweep on the session's connection.
func (s *Session) Recover() {
	RecoverFromDownloadMode(s.port, s.out)
}

// Run dispatches the command list strictly in input order. Mode-switch
// commands ("1", "2") update the session mode and are never written to the
// device. Cancellation is coarse: ctx is honoured between commands, not
// inside one.
func (s *Session) Run(ctx context.Context, cmds []Command) error {
	for _, c := range cmds {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.out.Write("\n[send] " + string(c) + "\n")
		s.out.Flush()

		if c.IsModeSwitch() {
			s.mode = c.Mode()
			continue
		}
		if err := DispatchCommand(s.port, s.mode, c, s.quiet, s.maxPerCmd, s.out); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the serial handle and flushes the session log. It is safe
// on every exit path; close errors on the log are intentionally discarded.
func (s *Session) Close() {
	if err := s.port.Close(); err != nil {
		pkgLog.Debugf("closing %s: %v", s.portName, err)
	}
	s.out.Flush()
	_ = s.out.Close()
}

// captureOutput drains the port for the given wall-clock window, echoing
// everything to the session log, and returns the captured text. Read errors
// end the capture early; the classification heuristics cope with partial
// output.
func captureOutput(p Port, window time.Duration, out SessionLog) string {
	deadline := time.Now().Add(window)
	var b strings.Builder
	buf := make([]byte, readChunkSize)
	for time.Now().Before(deadline) {
		n, err := p.Read(buf)
		if n > 0 {
			s := string(buf[:n])
			b.WriteString(s)
			out.Write(s)
			out.Flush()
			continue
		}
		if err != nil {
			pkgLog.Debugf("read error during capture: %v", err)
			break
		}
		time.Sleep(pollInterval)
	}
	return b.String()
}
