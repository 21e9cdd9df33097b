package value

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sambeau/paganism/pkg/paganism/ast"
	perrors "github.com/sambeau/paganism/pkg/paganism/errors"
)

// castSources lists, per target kind, the source kinds `as` may convert
// from. Casting a value to its own kind is always legal.
var castSources = map[ast.Kind][]ast.Kind{
	ast.KindNumber:  {ast.KindString, ast.KindBoolean, ast.KindChar, ast.KindEnum, ast.KindNone},
	ast.KindString:  {ast.KindNumber, ast.KindBoolean, ast.KindChar, ast.KindNone, ast.KindEnum, ast.KindType, ast.KindArray, ast.KindFunction},
	ast.KindBoolean: {ast.KindNumber, ast.KindString, ast.KindNone},
	ast.KindChar:    {ast.KindString},
}

// CanCastTypes returns the kinds a value may be cast from into kind k.
func CanCastTypes(k ast.Kind) []ast.Kind {
	return castSources[k]
}

// CanCast reports whether `as` may convert a from-kind value into to.
func CanCast(from, to ast.Kind) bool {
	if from == to || to == ast.KindAny || to == ast.KindNone {
		return true
	}
	for _, k := range castSources[to] {
		if k == from {
			return true
		}
	}
	return false
}

func convertError(v Value, to string) error {
	return perrors.New("RUN-0028", map[string]any{"Value": Describe(v), "To": to})
}

// Describe names a value's type for messages: the declared name for
// structures and enums, the kind otherwise.
func Describe(v Value) string {
	switch v := v.(type) {
	case *Structure:
		return v.Descriptor.Name
	case *Enum:
		return v.Enum
	case nil:
		return "nothing"
	}
	return v.Type().String()
}

// ToString converts v for string contexts such as `as string` and
// concatenation.
func ToString(v Value) (string, error) {
	switch v := v.(type) {
	case *String:
		return v.Value, nil
	case *Number, *Boolean, *Char, *None, *Void, *Type, *Array, *Function:
		return v.Inspect(), nil
	case *Enum:
		return v.Name, nil
	}
	return "", convertError(v, "String")
}

// ToNumber converts v for arithmetic and `as number`.
func ToNumber(v Value) (float64, error) {
	switch v := v.(type) {
	case *Number:
		return v.Value, nil
	case *Boolean:
		if v.Value {
			return 1, nil
		}
		return 0, nil
	case *String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Value), 64)
		if err != nil {
			return 0, convertError(v, "Number")
		}
		return f, nil
	case *Char:
		f, err := strconv.ParseFloat(string(v.Value), 64)
		if err != nil {
			return 0, convertError(v, "Number")
		}
		return f, nil
	case *Enum:
		return v.Value, nil
	case *None:
		return 0, nil
	}
	return 0, convertError(v, "Number")
}

// ToBoolean converts v for conditions and `as boolean`. Only the number 1
// is true.
func ToBoolean(v Value) (bool, error) {
	switch v := v.(type) {
	case *Boolean:
		return v.Value, nil
	case *Number:
		return v.Value == 1, nil
	case *String:
		switch strings.TrimSpace(v.Value) {
		case "true", "yes":
			return true, nil
		case "false", "no":
			return false, nil
		}
	case *None:
		return false, nil
	}
	return false, convertError(v, "Boolean")
}

// ToChar converts a one-character string or a char.
func ToChar(v Value) (rune, bool) {
	switch v := v.(type) {
	case *Char:
		return v.Value, true
	case *String:
		if utf8.RuneCountInString(v.Value) == 1 {
			r, _ := utf8.DecodeRuneInString(v.Value)
			return r, true
		}
	}
	return 0, false
}

// Copy returns a value that shares no mutable state with v.
func Copy(v Value) Value {
	switch v := v.(type) {
	case *Boolean:
		return &Boolean{Value: v.Value}
	case *Number:
		return &Number{Value: v.Value}
	case *String:
		return &String{Value: v.Value}
	case *Char:
		return &Char{Value: v.Value}
	case *Array:
		elements := make([]Value, len(v.Elements))
		for i, e := range v.Elements {
			elements[i] = Copy(e)
		}
		return &Array{Elements: elements}
	case *Structure:
		c := &Structure{Descriptor: v.Descriptor, Fields: make(map[string]Value, len(v.Fields))}
		for name, f := range v.Fields {
			if fn, ok := f.(*Function); ok && fn.Native != nil {
				if method, bound := v.Descriptor.Methods[name]; bound {
					m, _ := v.Descriptor.Member(name)
					c.Fields[name] = c.bind(m, method)
					continue
				}
			}
			c.Fields[name] = Copy(f)
		}
		return c
	case *Enum:
		return &Enum{Enum: v.Enum, Name: v.Name, Value: v.Value}
	case *Type:
		return &Type{Ref: v.Ref}
	case nil:
		return NONE
	}
	// None, Void, functions and descriptors are immutable.
	return v
}

// Equal implements `is` between two values.
func Equal(a, b Value) bool {
	switch a := a.(type) {
	case *None:
		return b.Type() == ast.KindNone
	case *Void:
		return b.Type() == ast.KindVoid
	case *Boolean:
		o, ok := b.(*Boolean)
		return ok && a.Value == o.Value
	case *Number:
		o, ok := b.(*Number)
		return ok && a.Value == o.Value
	case *String:
		switch o := b.(type) {
		case *String:
			return a.Value == o.Value
		case *Char:
			return a.Value == string(o.Value)
		}
	case *Char:
		switch o := b.(type) {
		case *Char:
			return a.Value == o.Value
		case *String:
			return string(a.Value) == o.Value
		}
	case *Array:
		o, ok := b.(*Array)
		if !ok || len(a.Elements) != len(o.Elements) {
			return false
		}
		for i := range a.Elements {
			if !Equal(a.Elements[i], o.Elements[i]) {
				return false
			}
		}
		return true
	case *Enum:
		o, ok := b.(*Enum)
		return ok && a.Enum == o.Enum && a.Name == o.Name
	case *Structure:
		o, ok := b.(*Structure)
		if !ok || a.Descriptor != o.Descriptor {
			return false
		}
		for name, f := range a.Fields {
			if _, isFn := f.(*Function); isFn {
				continue
			}
			if !Equal(f, o.Fields[name]) {
				return false
			}
		}
		return true
	case *Type:
		o, ok := b.(*Type)
		return ok && a.Ref == o.Ref
	case *Function:
		return a == b
	}
	return false
}

// IsType implements `v is <type>`.
func IsType(v Value, t ast.TypeRef) bool {
	if t.Kind == ast.KindAny {
		return true
	}
	switch v := v.(type) {
	case *Structure:
		return t.Kind == ast.KindStructure && (t.Name == "" || t.Name == v.Descriptor.Name)
	case *Enum:
		return t.Kind == ast.KindEnum && (t.Name == "" || t.Name == v.Enum)
	}
	return v.Type() == t.Kind
}

// Accepts reports whether a slot declared as t may hold v. None and Void
// fit every slot. A function fits a function slot, or a slot whose type is
// the function's return type.
func Accepts(t ast.TypeRef, v Value) bool {
	if t.Kind == ast.KindAny {
		return true
	}
	switch v := v.(type) {
	case *None, *Void:
		return true
	case *Function:
		if t.Kind == ast.KindFunction || v.Return == nil || v.Return.Kind == ast.KindNone {
			return true
		}
		return v.Return.Kind == t.Kind && v.Return.Name == t.Name
	}
	return IsType(v, t)
}

// Default is the value of a declared-but-unassigned slot of type t.
func Default(t ast.TypeRef) Value {
	switch t.Kind {
	case ast.KindNumber:
		return &Number{}
	case ast.KindString:
		return &String{}
	case ast.KindBoolean:
		return &Boolean{}
	case ast.KindChar:
		return &Char{}
	}
	return NONE
}
