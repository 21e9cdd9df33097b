package evaluator

import (
	"math"
	"strings"

	"github.com/sambeau/paganism/pkg/paganism/ast"
	perrors "github.com/sambeau/paganism/pkg/paganism/errors"
	"github.com/sambeau/paganism/pkg/paganism/value"
)

// HostFunc is a Go function scripts reach through cs_call.
type HostFunc func(args []value.Value) (value.Value, error)

// RegisterHostFunction makes fn callable as cs_call(namespace, method, args).
func (in *Interpreter) RegisterHostFunction(namespace, method string, fn HostFunc) {
	if in.hosts[namespace] == nil {
		in.hosts[namespace] = make(map[string]HostFunc)
	}
	in.hosts[namespace][method] = fn
}

// builtinHostCall implements cs_call. The arguments may be an array, a
// single value, or omitted.
func (in *Interpreter) builtinHostCall(args []value.Value) (value.Value, error) {
	namespace, err := stringArg("cs_call", "namespace", args[0])
	if err != nil {
		return nil, err
	}
	method, err := stringArg("cs_call", "method", args[1])
	if err != nil {
		return nil, err
	}

	fn, ok := in.hosts[namespace][method]
	if !ok {
		return nil, perrors.New("RUN-0021", map[string]any{"Namespace": namespace, "Method": method})
	}

	var callArgs []value.Value
	switch a := args[2].(type) {
	case *value.Array:
		callArgs = a.Elements
	case *value.None:
	default:
		callArgs = []value.Value{a}
	}

	v, err := fn(callArgs)
	if err != nil {
		if f, ok := perrors.As(err); ok {
			return nil, f
		}
		return nil, perrors.New("RUN-0022", map[string]any{"Namespace": namespace, "Method": method, "Error": err.Error()})
	}
	if v == nil {
		return value.VOID, nil
	}
	return v, nil
}

// mathFunc adapts a float function of n arguments.
func mathFunc(n int, fn func(x ...float64) float64) HostFunc {
	return func(args []value.Value) (value.Value, error) {
		if len(args) != n {
			return nil, perrors.Newf(perrors.KindInterpreter, "expected %d arguments, got %d", n, len(args))
		}
		xs := make([]float64, n)
		for i, a := range args {
			x, err := value.ToNumber(a)
			if err != nil {
				return nil, err
			}
			xs[i] = x
		}
		return &value.Number{Value: fn(xs...)}, nil
	}
}

func registerMath(in *Interpreter) {
	unary := map[string]func(float64) float64{
		"Sqrt":  math.Sqrt,
		"Abs":   math.Abs,
		"Floor": math.Floor,
		"Ceil":  math.Ceil,
		"Round": math.Round,
	}
	for name, f := range unary {
		f := f
		in.RegisterHostFunction("Math", name, mathFunc(1, func(x ...float64) float64 { return f(x[0]) }))
	}
	in.RegisterHostFunction("Math", "Pow", mathFunc(2, func(x ...float64) float64 { return math.Pow(x[0], x[1]) }))
	in.RegisterHostFunction("Math", "Max", mathFunc(2, func(x ...float64) float64 { return math.Max(x[0], x[1]) }))
	in.RegisterHostFunction("Math", "Min", mathFunc(2, func(x ...float64) float64 { return math.Min(x[0], x[1]) }))
}

// HostField is a data member of a host type.
type HostField struct {
	Name     string
	Type     ast.TypeRef
	ReadOnly bool
}

// HostMethod is a callable member of a host type, bound to each instance.
type HostMethod struct {
	Name       string
	Parameters []ast.Parameter
	Return     ast.TypeRef
	Func       value.Method
}

// HostEnum is an enum exported alongside a host type.
type HostEnum struct {
	Name    string
	Members []ast.EnumMember
}

// HostDescriptor is what a host type exposes to scripts.
type HostDescriptor struct {
	Name    string
	Fields  []HostField
	Methods []HostMethod
	Enums   []HostEnum
}

// HostType is a Go type that scripts can import as a structure.
type HostType interface {
	Describe() HostDescriptor
}

// HostTypeFunc adapts a function to HostType.
type HostTypeFunc func() HostDescriptor

func (f HostTypeFunc) Describe() HostDescriptor { return f() }

// RegisterHostType makes t importable as import("<name>.host").
func (in *Interpreter) RegisterHostType(name string, t HostType) {
	in.hostTypes[name] = t
}

// hostTypeName returns the registered host type an import names, if any.
func (in *Interpreter) hostTypeName(file string) (string, bool) {
	name := strings.TrimSuffix(file, ".host")
	if _, ok := in.hostTypes[name]; ok {
		return name, true
	}
	return "", false
}

// importHostType materializes a host type as a global structure and its
// enums as global enums.
func (in *Interpreter) importHostType(name string) error {
	d := in.hostTypes[name].Describe()
	if d.Name == "" {
		d.Name = name
	}
	if existing, ok := in.Structures.TryGet(nil, d.Name); ok && existing.File != hostFile {
		return perrors.New("RUN-0029", map[string]any{"Structure": d.Name, "File": existing.File})
	}

	desc := &value.StructureDescriptor{Name: d.Name, File: hostFile, Show: true, Methods: make(map[string]value.Method)}
	for _, f := range d.Fields {
		desc.Members = append(desc.Members, &ast.StructureMember{Name: f.Name, Type: f.Type, Show: true, ReadOnly: f.ReadOnly})
	}
	for _, m := range d.Methods {
		desc.Members = append(desc.Members, &ast.StructureMember{
			Name:       m.Name,
			Type:       m.Return,
			Show:       true,
			ReadOnly:   true,
			Callable:   true,
			Parameters: m.Parameters,
		})
		desc.Methods[m.Name] = m.Func
	}
	in.Structures.Add(nil, d.Name, desc)

	for _, e := range d.Enums {
		in.Enums.Add(nil, e.Name, &value.EnumDescriptor{Name: e.Name, File: hostFile, Members: e.Members, Show: true})
	}
	return nil
}

const hostFile = "<host>"
