package ast

// Kind is the runtime type tag shared by declarations and values.
type Kind int

const (
	KindNone Kind = iota
	KindVoid
	KindAny
	KindBoolean
	KindNumber
	KindString
	KindChar
	KindArray
	KindType
	KindFunction
	KindStructure
	KindEnum
)

var kindNames = [...]string{
	KindNone:      "None",
	KindVoid:      "Void",
	KindAny:       "Any",
	KindBoolean:   "Boolean",
	KindNumber:    "Number",
	KindString:    "String",
	KindChar:      "Char",
	KindArray:     "Array",
	KindType:      "Type",
	KindFunction:  "Function",
	KindStructure: "Structure",
	KindEnum:      "Enum",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// TypeRef is a declared type: a kind plus, for structures and enums, the
// declared name.
type TypeRef struct {
	Kind Kind
	Name string
}

// AnyType is the type of undeclared variables and untyped parameters.
var AnyType = TypeRef{Kind: KindAny}

func (t TypeRef) String() string {
	if t.Name != "" {
		return t.Kind.String() + " " + t.Name
	}
	return t.Kind.String()
}

// Parameter is one formal argument of a function or delegate.
type Parameter struct {
	Name     string
	Type     TypeRef
	Required bool
	Array    bool
}

func (p Parameter) String() string {
	s := p.Type.String() + " " + p.Name
	if p.Array {
		s += "[]"
	}
	if p.Required {
		s = "required " + s
	}
	return s
}
