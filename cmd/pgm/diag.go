package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sambeau/paganism/config"
)

var levels = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}

// diagLogger writes tool diagnostics, never script output.
type diagLogger struct {
	mu     sync.Mutex
	w      io.Writer
	min    int
	asJSON bool
	now    func() time.Time
}

// newDiagLogger builds the diagnostics logger described by cfg. The
// returned closer releases a log file, if one was opened.
func newDiagLogger(cfg config.LoggingConfig, stdout, stderr io.Writer) (*diagLogger, func() error, error) {
	d := &diagLogger{
		w:      stderr,
		min:    levels[cfg.Level],
		asJSON: cfg.Format == "json",
		now:    time.Now,
	}
	closer := func() error { return nil }

	switch cfg.Output {
	case "", "stderr":
	case "stdout":
		d.w = stdout
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log output: %w", err)
		}
		d.w = f
		closer = f.Close
	}
	return d, closer, nil
}

func (d *diagLogger) log(level, format string, args ...any) {
	if levels[level] < d.min {
		return
	}
	msg := fmt.Sprintf(format, args...)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.asJSON {
		line, _ := json.Marshal(map[string]string{
			"time":  d.now().UTC().Format(time.RFC3339),
			"level": level,
			"msg":   msg,
		})
		fmt.Fprintf(d.w, "%s\n", line)
		return
	}
	fmt.Fprintf(d.w, "[%s] %s\n", strings.ToUpper(level), msg)
}

func (d *diagLogger) debugf(format string, args ...any) { d.log("debug", format, args...) }
func (d *diagLogger) infof(format string, args ...any) { d.log("info", format, args...) }
func (d *diagLogger) warnf(format string, args ...any) { d.log("warn", format, args...) }
