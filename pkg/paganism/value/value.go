// Package value defines the runtime values of the Paganism evaluator.
//
// Every value reports its kind and an inspect string. Scalars are
// immutable; arrays and structure instances are mutated in place through
// the variable slot that owns them, which is why assignment always stores a
// Copy.
package value

import (
	"math"
	"strconv"
	"strings"

	"github.com/sambeau/paganism/pkg/paganism/ast"
)

// Value represents every runtime value.
type Value interface {
	Type() ast.Kind
	Inspect() string
}

// None is the absent value.
type None struct{}

func (n *None) Type() ast.Kind  { return ast.KindNone }
func (n *None) Inspect() string { return "None" }

// Void is the result of statements and built-ins with nothing to return.
type Void struct{}

func (v *Void) Type() ast.Kind  { return ast.KindVoid }
func (v *Void) Inspect() string { return "" }

var (
	NONE = &None{}
	VOID = &Void{}
)

type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ast.Kind { return ast.KindBoolean }
func (b *Boolean) Inspect() string {
	return strconv.FormatBool(b.Value)
}

// NativeBool returns a fresh Boolean.
func NativeBool(v bool) *Boolean { return &Boolean{Value: v} }

type Number struct {
	Value float64
}

func (n *Number) Type() ast.Kind  { return ast.KindNumber }
func (n *Number) Inspect() string { return FormatNumber(n.Value) }

// FormatNumber renders f with '.' as the decimal marker and no exponent.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

type String struct {
	Value string
}

func (s *String) Type() ast.Kind  { return ast.KindString }
func (s *String) Inspect() string { return s.Value }

type Char struct {
	Value rune
}

func (c *Char) Type() ast.Kind  { return ast.KindChar }
func (c *Char) Inspect() string { return string(c.Value) }

type Array struct {
	Elements []Value
}

func (a *Array) Type() ast.Kind { return ast.KindArray }
func (a *Array) Inspect() string {
	parts := make([]string, len(a.Elements))
	for i, e := range a.Elements {
		if s, ok := e.(*String); ok {
			parts[i] = strconv.Quote(s.Value)
			continue
		}
		parts[i] = e.Inspect()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Type is a type used as a value: the right side of is and as.
type Type struct {
	Ref ast.TypeRef
}

func (t *Type) Type() ast.Kind  { return ast.KindType }
func (t *Type) Inspect() string { return t.Ref.String() }

// Native is a function implemented by the host.
type Native func(args []Value) (Value, error)

// Function is a callable value: a declared function or a native one.
type Function struct {
	Name       string
	Parameters []ast.Parameter
	Return     *ast.TypeRef
	Async      bool
	Decl       *ast.FunctionDeclaration // nil for natives
	Native     Native
}

// NewFunction wraps a declaration.
func NewFunction(fd *ast.FunctionDeclaration) *Function {
	return &Function{
		Name:       fd.Name,
		Parameters: fd.Parameters,
		Return:     fd.ReturnType,
		Async:      fd.Async,
		Decl:       fd,
	}
}

func (f *Function) Type() ast.Kind { return ast.KindFunction }
func (f *Function) Inspect() string {
	var sb strings.Builder
	if f.Async {
		sb.WriteString("async ")
	}
	if f.Return != nil {
		sb.WriteString(f.Return.String() + " ")
	}
	sb.WriteString("function " + f.Name + "(")
	for i, p := range f.Parameters {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.String())
	}
	sb.WriteString(")")
	return sb.String()
}

// Method is a host-implemented structure member bound to its instance.
type Method func(self *Structure, args []Value) (Value, error)

// StructureDescriptor is a declared structure type.
type StructureDescriptor struct {
	Name    string
	File    string // declaring file, for hide checks
	Members []*ast.StructureMember
	Methods map[string]Method
	Show    bool
	index   map[string]*ast.StructureMember
}

// NewStructureDescriptor builds a descriptor from a declaration.
func NewStructureDescriptor(sd *ast.StructureDeclaration) *StructureDescriptor {
	return &StructureDescriptor{Name: sd.Name, File: sd.File, Members: sd.Members, Show: sd.Show}
}

func (d *StructureDescriptor) Type() ast.Kind  { return ast.KindStructure }
func (d *StructureDescriptor) Inspect() string { return "structure " + d.Name }

// Member looks up a member declaration by name.
func (d *StructureDescriptor) Member(name string) (*ast.StructureMember, bool) {
	if d.index == nil {
		d.index = make(map[string]*ast.StructureMember, len(d.Members))
		for _, m := range d.Members {
			d.index[m.Name] = m
		}
	}
	m, ok := d.index[name]
	return m, ok
}

// MemberNames returns the member names in declaration order.
func (d *StructureDescriptor) MemberNames() []string {
	names := make([]string, len(d.Members))
	for i, m := range d.Members {
		names[i] = m.Name
	}
	return names
}

// CastableMember returns the castable member whose declared type is t.
func (d *StructureDescriptor) CastableMember(t ast.TypeRef) (*ast.StructureMember, bool) {
	for _, m := range d.Members {
		if !m.Castable || m.Type.Kind != t.Kind {
			continue
		}
		if t.Name == "" || m.Type.Name == t.Name {
			return m, true
		}
	}
	return nil, false
}

// New creates an instance with every member at its default value. Host
// methods are bound to the new instance.
func (d *StructureDescriptor) New() *Structure {
	s := &Structure{Descriptor: d, Fields: make(map[string]Value, len(d.Members))}
	for _, m := range d.Members {
		if method, ok := d.Methods[m.Name]; ok {
			s.Fields[m.Name] = s.bind(m, method)
			continue
		}
		if m.Callable {
			s.Fields[m.Name] = NONE
			continue
		}
		s.Fields[m.Name] = Default(m.Type)
	}
	return s
}

// Structure is an instance of a structure type.
type Structure struct {
	Descriptor *StructureDescriptor
	Fields     map[string]Value
}

func (s *Structure) Type() ast.Kind { return ast.KindStructure }
func (s *Structure) Inspect() string {
	parts := make([]string, 0, len(s.Descriptor.Members))
	for _, m := range s.Descriptor.Members {
		if m.Callable {
			continue
		}
		v := s.Fields[m.Name]
		if str, ok := v.(*String); ok {
			parts = append(parts, m.Name+": "+strconv.Quote(str.Value))
			continue
		}
		parts = append(parts, m.Name+": "+v.Inspect())
	}
	return s.Descriptor.Name + " {" + strings.Join(parts, ", ") + "}"
}

func (s *Structure) bind(m *ast.StructureMember, method Method) *Function {
	return &Function{
		Name:       m.Name,
		Parameters: m.Parameters,
		Return:     &m.Type,
		Async:      m.Async,
		Native:     func(args []Value) (Value, error) { return method(s, args) },
	}
}

// EnumDescriptor is a declared enum type.
type EnumDescriptor struct {
	Name    string
	File    string
	Members []ast.EnumMember
	Show    bool
}

// NewEnumDescriptor builds a descriptor from a declaration.
func NewEnumDescriptor(ed *ast.EnumDeclaration) *EnumDescriptor {
	return &EnumDescriptor{Name: ed.Name, File: ed.File, Members: ed.Members, Show: ed.Show}
}

func (e *EnumDescriptor) Type() ast.Kind  { return ast.KindEnum }
func (e *EnumDescriptor) Inspect() string { return "enum " + e.Name }

// Member returns the member value called name.
func (e *EnumDescriptor) Member(name string) (*Enum, bool) {
	for _, m := range e.Members {
		if m.Name == name {
			return &Enum{Enum: e.Name, Name: m.Name, Value: m.Value}, true
		}
	}
	return nil, false
}

// MemberNames returns the member names in declaration order.
func (e *EnumDescriptor) MemberNames() []string {
	names := make([]string, len(e.Members))
	for i, m := range e.Members {
		names[i] = m.Name
	}
	return names
}

// Enum is one member of an enum.
type Enum struct {
	Enum  string
	Name  string
	Value float64
}

func (e *Enum) Type() ast.Kind  { return ast.KindEnum }
func (e *Enum) Inspect() string { return e.Enum + "." + e.Name }
