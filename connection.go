package esprunner

import (
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
)

// Port is the subset of the serial transport the runner drives. It is
// satisfied by go.bug.st/serial.Port.
type Port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	SetDTR(level bool) error
	SetRTS(level bool) error
	SetReadTimeout(t time.Duration) error
	Close() error
}

const portReadTimeout = 50 * time.Millisecond

// Swappable for tests.
var openRetryInterval = 250 * time.Millisecond

var openPort = func(name string, baud int) (Port, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	return serial.Open(name, mode)
}

// OpenPortWithRetry repeatedly tries to open the serial device until it
// succeeds or the window elapses, returning an *OpenTimeoutError in the
// latter case. The port comes back with a short read timeout so callers can
// poll it, and with both control lines deasserted: some ESP32-S3 USB-CDC
// stacks are sensitive to DTR/RTS manipulation and can reset into ROM
// download mode.
func OpenPortWithRetry(name string, baud int, window time.Duration) (Port, error) {
	deadline := time.Now().Add(window)
	var lastErr error
	for time.Now().Before(deadline) {
		p, err := openPort(name, baud)
		if err != nil {
			lastErr = err
			time.Sleep(openRetryInterval)
			continue
		}
		if err := p.SetReadTimeout(portReadTimeout); err != nil {
			p.Close()
			return nil, errors.Wrapf(err, "setting read timeout on %s", name)
		}
		// Best-effort: not every backend supports line control, and a device
		// that cannot deassert is still usable.
		if err := deassertLines(p); err != nil {
			pkgLog.Debugf("could not deassert control lines on %s: %v", name, err)
		}
		return p, nil
	}
	return nil, &OpenTimeoutError{Port: name, Window: window, LastErr: lastErr}
}

func deassertLines(p Port) error {
	if err := p.SetDTR(false); err != nil {
		return err
	}
	return p.SetRTS(false)
}
