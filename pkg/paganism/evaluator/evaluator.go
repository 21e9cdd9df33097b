// Package evaluator executes Paganism programs.
//
// An Interpreter owns four symbol tables (variables, functions, enums and
// structures) that share one arena of activation frames. Statements run
// against those tables and report control flow through an outcome rather
// than through errors: break and return are signals, and only genuine
// runtime faults travel as Go errors, which is what try/catch observes.
package evaluator

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sambeau/paganism/pkg/paganism/ast"
	perrors "github.com/sambeau/paganism/pkg/paganism/errors"
	"github.com/sambeau/paganism/pkg/paganism/parser"
	"github.com/sambeau/paganism/pkg/paganism/scope"
	"github.com/sambeau/paganism/pkg/paganism/value"
)

// Logger interface for print()/println() output
type Logger interface {
	Log(values ...interface{})
	LogLine(values ...interface{})
}

// defaultStdoutLogger is the default logger that writes to stdout
type defaultStdoutLogger struct{}

func (l *defaultStdoutLogger) Log(values ...interface{}) {
	for i, v := range values {
		if i > 0 {
			fmt.Print(" ")
		}
		fmt.Print(v)
	}
}

func (l *defaultStdoutLogger) LogLine(values ...interface{}) {
	for i, v := range values {
		if i > 0 {
			fmt.Print(" ")
		}
		fmt.Print(v)
	}
	fmt.Println()
}

// DefaultLogger is the default stdout logger
var DefaultLogger Logger = &defaultStdoutLogger{}

// MaxCallDepth bounds nested user function calls.
const MaxCallDepth = 2000

// Variable is one binding in the variable table.
type Variable struct {
	Value    value.Value
	Type     ast.TypeRef
	Show     bool
	ReadOnly bool
	File     string
}

type signal int

const (
	signalContinue signal = iota
	signalBreak
	signalReturn
)

// outcome is what running a statement reports to its block.
type outcome struct {
	signal signal
	value  value.Value
}

var next = outcome{signal: signalContinue}

// Interpreter runs programs against its own symbol tables. It is not safe
// for concurrent use.
type Interpreter struct {
	Logger Logger
	Input  io.Reader
	Loader Loader
	Locale string // default locale of the string natives, e.g. "en-GB"
	Now    func() time.Time

	Variables  *scope.Storage[*Variable]
	Functions  *scope.Storage[*value.Function]
	Enums      *scope.Storage[*value.EnumDescriptor]
	Structures *scope.Storage[*value.StructureDescriptor]

	arena      *scope.Arena
	extensions map[string]map[string]Extension
	hosts      map[string]map[string]HostFunc
	hostTypes  map[string]HostType
	imported   map[string]bool
	importing  map[string]bool
	files      []string
	depth      int
	reader     *bufio.Reader
	readerSrc  io.Reader
}

// New creates an interpreter with the built-ins installed.
func New() *Interpreter {
	in := &Interpreter{
		Logger:    DefaultLogger,
		Input:     os.Stdin,
		Loader:    FileLoader{},
		Locale:    "en-US",
		Now:       time.Now,
		arena:     scope.NewArena(),
		hosts:     make(map[string]map[string]HostFunc),
		hostTypes: make(map[string]HostType),
		imported:  make(map[string]bool),
		importing: make(map[string]bool),
	}
	in.Variables = scope.New[*Variable]("Variable", in.arena, nil)
	in.Functions = scope.New("Function", in.arena, in.builtins())
	in.Enums = scope.New[*value.EnumDescriptor]("Enum", in.arena, nil)
	in.Structures = scope.New("Structure", in.arena, map[string]*value.StructureDescriptor{
		ExceptionDescriptor.Name: ExceptionDescriptor,
	})
	in.extensions = in.stringExtensions()
	registerMath(in)
	return in
}

// Reset forgets every user declaration, import and live frame. Built-ins,
// registered host functions and host types are kept.
func (in *Interpreter) Reset() {
	in.arena.Reset()
	in.Variables.Reset()
	in.Functions.Reset()
	in.Enums.Reset()
	in.Structures.Reset()
	in.extensions = in.stringExtensions()
	in.imported = make(map[string]bool)
	in.importing = make(map[string]bool)
	in.files = nil
	in.depth = 0
}

// Run executes a parsed program at the top level. The result is the value
// of a top-level return, or Void.
func (in *Interpreter) Run(program *ast.Block) (value.Value, error) {
	in.files = append(in.files, program.File)
	defer func() { in.files = in.files[:len(in.files)-1] }()

	out, err := in.execStatements(program)
	if err != nil {
		return nil, err
	}
	if out.signal == signalReturn && out.value != nil {
		return out.value, nil
	}
	return value.VOID, nil
}

// RunSource lexes, parses and runs source as if it were the file filename.
func (in *Interpreter) RunSource(source, filename string) (value.Value, error) {
	program, err := parser.Parse(source, filename)
	if err != nil {
		return nil, err
	}
	return in.Run(program)
}

// currentFile is the file of the innermost program being run.
func (in *Interpreter) currentFile() string {
	if len(in.files) == 0 {
		return ""
	}
	return in.files[len(in.files)-1]
}

// fault builds a catalog fault positioned at node.
func fault(node ast.Node, code string, data map[string]any) error {
	pos := node.Pos()
	return perrors.NewAt(code, pos.File, pos.Token.Line, pos.Token.Column, data)
}

// at positions err at node unless it already carries a position. Plain Go
// errors become interpreter faults.
func at(node ast.Node, err error) error {
	if err == nil {
		return nil
	}
	pos := node.Pos()
	f, ok := perrors.As(err)
	if !ok {
		f = perrors.Newf(perrors.KindInterpreter, "%v", err)
	}
	if f.Positioned() {
		return f
	}
	return f.WithPosition(pos.File, pos.Token.Line, pos.Token.Column)
}
