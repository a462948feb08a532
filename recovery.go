package esprunner

import "time"

// Control-line combinations tried in order during recovery. Different boards
// and USB bridges invert DTR/RTS, so the sweep is polarity-agnostic rather
// than encoding one correct sequence.
var recoveryLineStates = []struct{ dtr, rts bool }{
	{false, false},
	{true, false},
	{false, true},
	{true, true},
}

// Swappable for tests.
var (
	resetPulseWidth       = 120 * time.Millisecond
	rebootSettleTime      = 250 * time.Millisecond
	recoveryCaptureWindow = 800 * time.Millisecond
)

// RecoverFromDownloadMode tries to get a device out of ROM download mode and
// into the application. For each control-line combination it pulses RTS as a
// best-effort reset trigger, waits for the target to reboot, and echoes a
// short window of boot output to the session log. The sweep stops as soon as
// a firmware banner shows up, or immediately if the backend does not support
// line control at all.
//
// Success is not reported; callers that care can re-classify fresh boot
// output afterwards.
func RecoverFromDownloadMode(p Port, out SessionLog) {
	for i, state := range recoveryLineStates {
		if err := p.SetDTR(state.dtr); err != nil {
			pkgLog.Warnf("recovery aborted, cannot set DTR: %v", err)
			return
		}
		if err := p.SetRTS(state.rts); err != nil {
			pkgLog.Warnf("recovery aborted, cannot set RTS: %v", err)
			return
		}

		// Pulse RTS as "reset" best-effort (common on ESP auto-reset
		// circuits).
		if err := pulseRTS(p); err != nil {
			pkgLog.Debugf("reset pulse failed: %v", err)
		}

		// Give the target time to reboot.
		time.Sleep(rebootSettleTime)

		text := captureOutput(p, recoveryCaptureWindow, out)
		if looksLikeFirmware(text) {
			pkgLog.Infof("firmware banner seen after recovery attempt %d", i+1)
			return
		}
	}
}

func pulseRTS(p Port) error {
	if err := p.SetRTS(true); err != nil {
		return err
	}
	time.Sleep(resetPulseWidth)
	return p.SetRTS(false)
}
