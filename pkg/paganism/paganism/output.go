package paganism

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sambeau/paganism/pkg/paganism/evaluator"
)

// Output records what a script prints with print and println. The zero
// value is ready to use and safe to read while a script runs.
type Output struct {
	mu   sync.Mutex
	text strings.Builder
}

// Log appends values without a newline.
func (o *Output) Log(values ...any) {
	o.mu.Lock()
	o.text.WriteString(joinValues(values))
	o.mu.Unlock()
}

// LogLine appends values and ends the line.
func (o *Output) LogLine(values ...any) {
	o.mu.Lock()
	o.text.WriteString(joinValues(values))
	o.text.WriteByte('\n')
	o.mu.Unlock()
}

// String returns the output as a terminal would show it.
func (o *Output) String() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.text.String()
}

// Lines returns the completed lines. A trailing print without println is
// not included.
func (o *Output) Lines() []string {
	s := o.String()
	end := strings.LastIndexByte(s, '\n')
	if end < 0 {
		return nil
	}
	return strings.Split(s[:end], "\n")
}

// Reset discards everything recorded so far.
func (o *Output) Reset() {
	o.mu.Lock()
	o.text.Reset()
	o.mu.Unlock()
}

// streamOutput forwards script output to a writer as it is printed.
type streamOutput struct{ w io.Writer }

func (s streamOutput) Log(values ...any)     { io.WriteString(s.w, joinValues(values)) }
func (s streamOutput) LogLine(values ...any) { io.WriteString(s.w, joinValues(values)+"\n") }

type discardOutput struct{}

func (discardOutput) Log(...any)     {}
func (discardOutput) LogLine(...any) {}

// WithOutput streams print/println output to w.
func WithOutput(w io.Writer) Option {
	return WithLogger(streamOutput{w: w})
}

// WithCapture records print/println output in o.
func WithCapture(o *Output) Option {
	return WithLogger(o)
}

// Quiet drops all print/println output.
func Quiet() Option {
	return WithLogger(discardOutput{})
}

// WithLogger sends print/println output to any evaluator.Logger.
func WithLogger(l evaluator.Logger) Option {
	return func(in *evaluator.Interpreter) { in.Logger = l }
}

func joinValues(values []any) string {
	switch len(values) {
	case 0:
		return ""
	case 1:
		return fmt.Sprint(values[0])
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, " ")
}
