package esprunner

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

var errFake = errors.New("simulated I/O failure")

// scriptedPort returns the queued chunks one per Read call, then empty
// reads, mimicking a serial port with a read timeout.
type scriptedPort struct {
	chunks  []string
	idx     int
	writes  bytes.Buffer
	readErr error

	dtrLevels []bool
	rtsLevels []bool
	lineErr   error
	closed    bool
}

func (p *scriptedPort) Read(buf []byte) (int, error) {
	if p.readErr != nil {
		return 0, p.readErr
	}
	if p.idx >= len(p.chunks) {
		return 0, nil
	}
	n := copy(buf, p.chunks[p.idx])
	p.idx++
	return n, nil
}

func (p *scriptedPort) Write(b []byte) (int, error) {
	p.writes.Write(b)
	return len(b), nil
}

func (p *scriptedPort) SetDTR(level bool) error {
	if p.lineErr != nil {
		return p.lineErr
	}
	p.dtrLevels = append(p.dtrLevels, level)
	return nil
}

func (p *scriptedPort) SetRTS(level bool) error {
	if p.lineErr != nil {
		return p.lineErr
	}
	p.rtsLevels = append(p.rtsLevels, level)
	return nil
}

func (p *scriptedPort) SetReadTimeout(time.Duration) error { return nil }

func (p *scriptedPort) Close() error {
	p.closed = true
	return nil
}

// memLog collects session output in memory.
type memLog struct {
	b strings.Builder
}

func (l *memLog) Write(s string) { l.b.WriteString(s) }
func (l *memLog) Flush()         {}
func (l *memLog) Close() error   { return nil }

func TestDispatchMarkerStopsBeforeMax(t *testing.T) {
	port := &scriptedPort{chunks: []string{"reading target...\n", "DP IDCODE: 0x0BC11477\n"}}
	out := &memLog{}

	start := time.Now()
	max := 2 * time.Second
	if err := DispatchCommand(port, 1, "i", time.Second, max, out); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed >= max {
		t.Errorf("marker did not stop dispatch early, took %s", elapsed)
	}
	if got := port.writes.String(); got != "i\n" {
		t.Errorf("payload = %q, want %q", got, "i\n")
	}
	if !strings.Contains(out.b.String(), "DP IDCODE:") {
		t.Errorf("device output was not echoed to the session log: %q", out.b.String())
	}
}

func TestDispatchLongRunningIgnoresQuietPeriod(t *testing.T) {
	// "e" (erase) is long-running in mode 1. No marker ever appears, so the
	// command must run to the hard ceiling even though the stream goes quiet
	// immediately.
	port := &scriptedPort{chunks: []string{"Erasing...\n"}}
	quiet := 20 * time.Millisecond
	max := 150 * time.Millisecond

	start := time.Now()
	if err := DispatchCommand(port, 1, "e", quiet, max, &memLog{}); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < max {
		t.Errorf("long-running command exited after %s, want at least %s", elapsed, max)
	}
}

func TestDispatchQuietPeriodStopsUnknownCommand(t *testing.T) {
	// "z" has no marker table entry in either mode: default policy is the
	// quiet-period heuristic.
	port := &scriptedPort{chunks: []string{"something\n"}}
	quiet := 40 * time.Millisecond
	max := 2 * time.Second

	start := time.Now()
	if err := DispatchCommand(port, 1, "z", quiet, max, &memLog{}); err != nil {
		t.Fatal(err)
	}
	elapsed := time.Since(start)
	if elapsed < quiet {
		t.Errorf("exited after %s, before the quiet period %s", elapsed, quiet)
	}
	if elapsed >= max {
		t.Errorf("quiet-period exit did not fire, took %s", elapsed)
	}
}

func TestDispatchSetSerialPayload(t *testing.T) {
	port := &scriptedPort{chunks: []string{"Set serial OK: 1234\n"}}
	if err := DispatchCommand(port, 1, "S1234", time.Second, 2*time.Second, &memLog{}); err != nil {
		t.Fatal(err)
	}
	if got := port.writes.String(); got != "S1234\n" {
		t.Errorf("payload = %q, want %q", got, "S1234\n")
	}
}

func TestDispatchMarkerFoundAcrossChunks(t *testing.T) {
	// The marker straddles a chunk boundary; the trailing buffer has to
	// stitch it together.
	port := &scriptedPort{chunks: []string{"Verify O", "K\n"}}
	start := time.Now()
	max := 2 * time.Second
	if err := DispatchCommand(port, 1, "v", time.Second, max, &memLog{}); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed >= max {
		t.Errorf("split marker not detected, took %s", elapsed)
	}
}

func TestDispatchTrailingBufferStaysBounded(t *testing.T) {
	// Lots of noise, marker at the very end: still found, because only the
	// trailing window matters.
	noise := strings.Repeat("x", readChunkSize)
	port := &scriptedPort{chunks: []string{noise, noise, noise, "Write OK\n"}}
	start := time.Now()
	max := 2 * time.Second
	if err := DispatchCommand(port, 1, "w", time.Second, max, &memLog{}); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed >= max {
		t.Errorf("marker after noise not detected, took %s", elapsed)
	}
}

func TestDispatchReadErrorIsFatal(t *testing.T) {
	port := &scriptedPort{readErr: errFake}
	err := DispatchCommand(port, 1, "i", time.Second, 2*time.Second, &memLog{})
	if err == nil {
		t.Fatal("expected a fatal error from a failing read")
	}
}
