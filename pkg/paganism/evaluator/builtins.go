package evaluator

import (
	"bufio"
	"errors"
	"io"
	"math"
	"strings"

	"github.com/sambeau/paganism/pkg/paganism/ast"
	perrors "github.com/sambeau/paganism/pkg/paganism/errors"
	"github.com/sambeau/paganism/pkg/paganism/value"
)

var (
	anyType    = ast.AnyType
	stringType = ast.TypeRef{Kind: ast.KindString}
	numberType = ast.TypeRef{Kind: ast.KindNumber}
)

func param(name string, t ast.TypeRef, required bool) ast.Parameter {
	return ast.Parameter{Name: name, Type: t, Required: required}
}

func native(name string, fn value.Native, params ...ast.Parameter) *value.Function {
	return &value.Function{Name: name, Parameters: params, Native: fn}
}

// builtins returns the language table of the function storage.
func (in *Interpreter) builtins() map[string]*value.Function {
	arrayParam := func(name string) ast.Parameter {
		return ast.Parameter{Name: name, Type: anyType, Required: true, Array: true}
	}
	return map[string]*value.Function{
		"print":   native("print", in.builtinPrint, param("content", stringType, true)),
		"println": native("println", in.builtinPrintln, param("content", stringType, false)),
		"read":    native("read", in.builtinRead, param("content", stringType, false)),
		"millitime": native("millitime", func([]value.Value) (value.Value, error) {
			return &value.Number{Value: float64(in.Now().UnixMilli())}, nil
		}),
		"pgm_size":   native("pgm_size", builtinSize, arrayParam("array")),
		"pgm_resize": native("pgm_resize", builtinResize, arrayParam("array"), param("size", numberType, true)),
		"import":     native("import", in.builtinImport, param("file", stringType, true)),
		"cs_call": native("cs_call", in.builtinHostCall,
			param("namespace", stringType, true),
			param("method", stringType, true),
			param("arguments", anyType, false)),
	}
}

// text renders an argument for output. None prints as nothing.
// stringArg returns the text of a native's string argument. None and
// untyped functions pass argument checking for string slots, so they are
// rejected here.
func stringArg(fn, arg string, v value.Value) (string, error) {
	if s, ok := v.(*value.String); ok {
		return s.Value, nil
	}
	return "", perrors.New("RUN-0013", map[string]any{"Arg": arg, "Name": fn, "Expected": "String", "Got": value.Describe(v)})
}

func text(v value.Value) (string, error) {
	if v.Type() == ast.KindNone {
		return "", nil
	}
	return value.ToString(v)
}

func (in *Interpreter) builtinPrint(args []value.Value) (value.Value, error) {
	s, err := text(args[0])
	if err != nil {
		return nil, err
	}
	in.Logger.Log(s)
	return value.VOID, nil
}

func (in *Interpreter) builtinPrintln(args []value.Value) (value.Value, error) {
	s, err := text(args[0])
	if err != nil {
		return nil, err
	}
	in.Logger.LogLine(s)
	return value.VOID, nil
}

// builtinRead prints the optional prompt and returns one line of input
// without its line ending. At end of input it returns None.
func (in *Interpreter) builtinRead(args []value.Value) (value.Value, error) {
	prompt, err := text(args[0])
	if err != nil {
		return nil, err
	}
	if prompt != "" {
		in.Logger.Log(prompt)
	}
	if in.reader == nil || in.readerSrc != in.Input {
		in.reader = bufio.NewReader(in.Input)
		in.readerSrc = in.Input
	}
	line, err := in.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, perrors.New("RUN-0025", map[string]any{"Error": err.Error()})
	}
	if err != nil && line == "" {
		return value.NONE, nil
	}
	return &value.String{Value: strings.TrimRight(line, "\r\n")}, nil
}

func builtinSize(args []value.Value) (value.Value, error) {
	arr, ok := args[0].(*value.Array)
	if !ok {
		return &value.Number{}, nil
	}
	return &value.Number{Value: float64(len(arr.Elements))}, nil
}

// MaxArraySize bounds the size pgm_resize accepts.
const MaxArraySize = 1 << 24

// builtinResize returns a copy of the array truncated or padded with None
// to size elements. The size must be a whole number up to MaxArraySize.
func builtinResize(args []value.Value) (value.Value, error) {
	size, ok := args[1].(*value.Number)
	if !ok || math.IsNaN(size.Value) || size.Value < 0 || size.Value > MaxArraySize || size.Value != math.Trunc(size.Value) {
		return nil, perrors.New("RUN-0032", map[string]any{"Size": args[1].Inspect()})
	}
	n := int(size.Value)
	elements := make([]value.Value, n)
	var old []value.Value
	if arr, ok := args[0].(*value.Array); ok {
		old = arr.Elements
	}
	for i := range elements {
		if i < len(old) {
			elements[i] = old[i]
			continue
		}
		elements[i] = value.NONE
	}
	return &value.Array{Elements: elements}, nil
}
