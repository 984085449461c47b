package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/juju/loggo"
)

const logFileName = "bootstrap.log"

func logFormatter(entry loggo.Entry) string {
	return fmt.Sprintf("%s %-7s %s %s", entry.Timestamp.Format("15:04:05"), entry.Level, entry.Module, entry.Message)
}

func setupLogging(w io.Writer, level loggo.Level) error {
	writer := loggo.NewSimpleWriter(w, logFormatter)
	if _, err := loggo.ReplaceDefaultWriter(writer); err != nil {
		return fmt.Errorf("install log writer: %w", err)
	}
	if err := loggo.ConfigureLoggers(fmt.Sprintf("<root>=%s", level.String())); err != nil {
		return fmt.Errorf("configure loggers: %w", err)
	}
	return nil
}

// openLogFile appends to the run log under dir, creating it as needed.
func openLogFile(dir string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, logFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// redirect forwards writes to the current destination, which may change
// once the run knows where its log lives.
type redirect struct {
	w io.Writer
}

func (r *redirect) Write(p []byte) (int, error) {
	return r.w.Write(p)
}
