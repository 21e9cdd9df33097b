package evaluator

import (
	"github.com/sambeau/paganism/pkg/paganism/ast"
	"github.com/sambeau/paganism/pkg/paganism/value"
)

// execAssign stores a copy of the right-hand side. Declarations bind a new
// typed variable in the current scope; plain assignments update the
// variable where it was declared, or declare an untyped one.
func (in *Interpreter) execAssign(s *ast.AssignStatement) error {
	var v value.Value = value.NONE
	switch {
	case s.Value != nil:
		rhs, err := in.eval(s.Value)
		if err != nil {
			return err
		}
		v = rhs
	case s.Declared != nil:
		v = value.Default(*s.Declared)
	}
	v = value.Copy(v)

	switch left := s.Left.(type) {
	case *ast.Identifier:
		return in.assignVariable(s, left, v)
	case *ast.IndexExpression:
		variable, err := in.Variables.Get(left.Scope, left.Name)
		if err != nil {
			return at(left, err)
		}
		if variable.ReadOnly {
			return fault(left, "RUN-0018", map[string]any{"Name": left.Name})
		}
		return in.setIndex(left, left.Name, variable.Value, left.Indices, v)
	case *ast.BinaryExpression:
		return in.assignMember(left, v)
	}
	return fault(s, "PARSE-0010", map[string]any{"Target": s.Left.String()})
}

func (in *Interpreter) assignVariable(s *ast.AssignStatement, id *ast.Identifier, v value.Value) error {
	if s.Declared != nil {
		if !value.Accepts(*s.Declared, v) {
			return typeMismatch(s, *s.Declared, v)
		}
		in.Variables.Add(s.Scope, id.Name, &Variable{
			Value:    v,
			Type:     *s.Declared,
			Show:     s.Show,
			ReadOnly: s.ReadOnly,
			File:     s.File,
		})
		return nil
	}

	if existing, ok := in.Variables.TryGet(s.Scope, id.Name); ok {
		if existing.ReadOnly {
			return fault(s, "RUN-0018", map[string]any{"Name": id.Name})
		}
		if !value.Accepts(existing.Type, v) {
			return typeMismatch(s, existing.Type, v)
		}
		existing.Value = v
		return nil
	}

	in.Variables.Add(s.Scope, id.Name, &Variable{
		Value:    v,
		Type:     ast.AnyType,
		Show:     true,
		ReadOnly: s.ReadOnly,
		File:     s.File,
	})
	return nil
}

// assignMember stores v in a structure member: `p.x = v` or `p.xs[i] = v`.
func (in *Interpreter) assignMember(target *ast.BinaryExpression, v value.Value) error {
	if target.Operator != ast.Point {
		return fault(target, "PARSE-0010", map[string]any{"Target": target.String()})
	}
	receiver, err := in.eval(target.Left)
	if err != nil {
		return err
	}
	s, ok := receiver.(*value.Structure)
	if !ok {
		return fault(target, "RUN-0026", map[string]any{"Got": value.Describe(receiver)})
	}
	name, ok := memberName(target.Right)
	if !ok {
		return fault(target, "PARSE-0010", map[string]any{"Target": target.String()})
	}
	m, err := in.member(target, s, name)
	if err != nil {
		return err
	}
	if m.ReadOnly {
		return fault(target, "RUN-0016", map[string]any{"Member": name, "Structure": s.Descriptor.Name})
	}

	if idx, ok := target.Right.(*ast.IndexExpression); ok {
		return in.setIndex(idx, name, s.Fields[name], idx.Indices, v)
	}
	if !value.Accepts(m.Type, v) {
		return typeMismatch(target, m.Type, v)
	}
	s.Fields[name] = v
	return nil
}

func typeMismatch(node ast.Node, want ast.TypeRef, got value.Value) error {
	return fault(node, "RUN-0010", map[string]any{"Expected": want.String(), "Got": value.Describe(got)})
}
