package esprunner

import (
	"bufio"
	"os"

	"github.com/pkg/errors"
)

// SessionLog is the sink for everything observed on the wire plus the
// runner's own session annotations. Implementations must never drop or
// reorder bytes relative to arrival order, and must tolerate being called on
// every read cycle.
type SessionLog interface {
	Write(s string)
	Flush()
	Close() error
}

// teeLog mirrors session output to stdout and to a log file.
type teeLog struct {
	file *os.File
	buf  *bufio.Writer
}

// NewTeeLog creates a SessionLog that duplicates all output to stdout and to
// the given file, truncating any previous contents.
func NewTeeLog(path string) (SessionLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "creating session log %s", path)
	}
	return &teeLog{file: f, buf: bufio.NewWriter(f)}, nil
}

func (t *teeLog) Write(s string) {
	os.Stdout.WriteString(s)
	t.buf.WriteString(s)
}

func (t *teeLog) Flush() {
	t.buf.Flush()
}

func (t *teeLog) Close() error {
	t.buf.Flush()
	return t.file.Close()
}
