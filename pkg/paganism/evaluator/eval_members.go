package evaluator

import (
	"sort"

	"github.com/sambeau/paganism/pkg/paganism/ast"
	perrors "github.com/sambeau/paganism/pkg/paganism/errors"
	"github.com/sambeau/paganism/pkg/paganism/value"
)

// memberName is the name on the right of a dot.
func memberName(expr ast.Expression) (string, bool) {
	switch r := expr.(type) {
	case *ast.Identifier:
		return r.Name, true
	case *ast.CallExpression:
		return r.Name, true
	case *ast.IndexExpression:
		return r.Name, true
	}
	return "", false
}

// evalMember resolves `left.right`: an enum member, an extension call on a
// string or char, or a structure member.
func (in *Interpreter) evalMember(e *ast.BinaryExpression) (value.Value, error) {
	if id, ok := e.Left.(*ast.Identifier); ok {
		if _, isVar := in.Variables.TryGet(id.Scope, id.Name); !isVar {
			if enum, ok := in.Enums.TryGet(id.Scope, id.Name); ok {
				return enumMember(e, enum)
			}
		}
	}

	receiver, err := in.eval(e.Left)
	if err != nil {
		return nil, err
	}

	call, isCall := e.Right.(*ast.CallExpression)
	if isCall {
		if ext, ok := in.extension(receiver, call.Name); ok {
			args, err := in.evalArgs(call.Arguments)
			if err != nil {
				return nil, err
			}
			v, err := ext.Invoke(in, call, receiver, args)
			return v, at(call, err)
		}
	}

	s, ok := receiver.(*value.Structure)
	if !ok {
		if isCall {
			return nil, fault(call, "RUN-0023", map[string]any{
				"Method":     call.Name,
				"Type":       value.Describe(receiver),
				"Suggestion": perrors.FindClosestMatch(call.Name, in.extensionNames(receiver)),
			})
		}
		return nil, fault(e, "RUN-0026", map[string]any{"Got": value.Describe(receiver)})
	}

	name, ok := memberName(e.Right)
	if !ok {
		return nil, fault(e, "RUN-0026", map[string]any{"Got": e.Right.String()})
	}
	if _, err := in.member(e, s, name); err != nil {
		return nil, err
	}
	field := s.Fields[name]

	switch r := e.Right.(type) {
	case *ast.CallExpression:
		fn, ok := field.(*value.Function)
		if !ok {
			return nil, fault(r, "RUN-0011", map[string]any{"Name": s.Descriptor.Name + "." + name})
		}
		args, err := in.evalArgs(r.Arguments)
		if err != nil {
			return nil, err
		}
		return in.callFunction(r, fn, args)
	case *ast.IndexExpression:
		return in.index(r, name, field, r.Indices)
	}
	return field, nil
}

func enumMember(e *ast.BinaryExpression, enum *value.EnumDescriptor) (value.Value, error) {
	id, ok := e.Right.(*ast.Identifier)
	if !ok {
		return nil, fault(e, "RUN-0017", map[string]any{"Enum": enum.Name, "Member": e.Right.String()})
	}
	m, ok := enum.Member(id.Name)
	if !ok {
		return nil, fault(id, "RUN-0017", map[string]any{
			"Enum":       enum.Name,
			"Member":     id.Name,
			"Suggestion": perrors.FindClosestMatch(id.Name, enum.MemberNames()),
		})
	}
	return m, nil
}

// member returns the declaration of name in s, enforcing hide: a hidden
// member is only reachable from the file that declared the structure.
func (in *Interpreter) member(node ast.Node, s *value.Structure, name string) (*ast.StructureMember, error) {
	m, ok := s.Descriptor.Member(name)
	if !ok {
		return nil, fault(node, "RUN-0015", map[string]any{
			"Structure":  s.Descriptor.Name,
			"Member":     name,
			"Suggestion": perrors.FindClosestMatch(name, s.Descriptor.MemberNames()),
		})
	}
	if !m.Show && node.Pos().File != s.Descriptor.File {
		return nil, fault(node, "RUN-0006", map[string]any{"Member": name, "Structure": s.Descriptor.Name})
	}
	return m, nil
}

// extension finds the extension method called name for v's kind.
func (in *Interpreter) extension(v value.Value, name string) (Extension, bool) {
	table, ok := extensionTables[v.Type()]
	if !ok {
		return nil, false
	}
	ext, ok := in.extensions[table][name]
	return ext, ok
}

func (in *Interpreter) extensionNames(v value.Value) []string {
	table, ok := extensionTables[v.Type()]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(in.extensions[table]))
	for name := range in.extensions[table] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
