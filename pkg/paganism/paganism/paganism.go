// Package paganism provides a public API for embedding the Paganism interpreter.
package paganism

import (
	"io"
	"path/filepath"

	"github.com/sambeau/paganism/pkg/paganism/evaluator"
	"github.com/sambeau/paganism/pkg/paganism/loader"
	"github.com/sambeau/paganism/pkg/paganism/parser"
	"github.com/sambeau/paganism/pkg/paganism/value"
)

// Option configures an interpreter created by New, Run or RunFile.
type Option func(*evaluator.Interpreter)

// WithInput makes read() consume r.
func WithInput(r io.Reader) Option {
	return func(in *evaluator.Interpreter) { in.Input = r }
}

// WithLoader resolves import() through l.
func WithLoader(l evaluator.Loader) Option {
	return func(in *evaluator.Interpreter) { in.Loader = l }
}

// WithLocale sets the default locale of the string natives.
func WithLocale(locale string) Option {
	return func(in *evaluator.Interpreter) {
		if locale != "" {
			in.Locale = locale
		}
	}
}

// WithHostType registers a host type importable as import("<name>.host").
func WithHostType(name string, t evaluator.HostType) Option {
	return func(in *evaluator.Interpreter) { in.RegisterHostType(name, t) }
}

// WithHostFunction registers fn for cs_call(namespace, method, args).
func WithHostFunction(namespace, method string, fn evaluator.HostFunc) Option {
	return func(in *evaluator.Interpreter) { in.RegisterHostFunction(namespace, method, fn) }
}

// New creates an interpreter with opts applied.
func New(opts ...Option) *evaluator.Interpreter {
	in := evaluator.New()
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Run executes source as the file filename.
func Run(source, filename string, opts ...Option) (value.Value, error) {
	return New(opts...).RunSource(source, filename)
}

// RunFile reads and executes the file at path. Compressed (.gz, .zst)
// sources are decoded first.
func RunFile(path string, opts ...Option) (value.Value, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	data, err := loader.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	return New(opts...).RunSource(string(data), abs)
}

// Check lexes and parses source without running it.
func Check(source, filename string) error {
	_, err := parser.Parse(source, filename)
	return err
}
