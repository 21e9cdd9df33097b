package evaluator

import (
	"github.com/sambeau/paganism/pkg/paganism/ast"
	"github.com/sambeau/paganism/pkg/paganism/value"
)

var operatorNames = map[ast.BinaryOp]string{
	ast.Plus:     "addition",
	ast.Minus:    "subtraction",
	ast.Multiply: "multiplication",
	ast.Divide:   "division",
	ast.Less:     "comparison",
	ast.More:     "comparison",
	ast.And:      "logical and",
	ast.Or:       "logical or",
}

func (in *Interpreter) evalBinary(e *ast.BinaryExpression) (value.Value, error) {
	switch e.Operator {
	case ast.Point:
		return in.evalMember(e)
	case ast.As:
		return in.evalCast(e)
	case ast.Is:
		return in.evalIs(e)
	}

	left, err := in.eval(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := in.eval(e.Right)
	if err != nil {
		return nil, err
	}

	switch e.Operator {
	case ast.Plus:
		return add(e, left, right)
	case ast.Minus, ast.Multiply, ast.Divide:
		return arithmetic(e, left, right)
	case ast.Less, ast.More:
		l, lok := numeric(left)
		r, rok := numeric(right)
		if !lok || !rok {
			return nil, operandError(e, left, right)
		}
		if e.Operator == ast.Less {
			return value.NativeBool(l < r), nil
		}
		return value.NativeBool(l > r), nil
	case ast.And, ast.Or:
		l, lerr := value.ToBoolean(left)
		r, rerr := value.ToBoolean(right)
		if lerr != nil || rerr != nil {
			return nil, operandError(e, left, right)
		}
		if e.Operator == ast.And {
			return value.NativeBool(l && r), nil
		}
		return value.NativeBool(l || r), nil
	}
	return nil, operandError(e, left, right)
}

func operandError(e *ast.BinaryExpression, left, right value.Value) error {
	return fault(e, "RUN-0002", map[string]any{
		"Op":    operatorNames[e.Operator],
		"Left":  value.Describe(left),
		"Right": value.Describe(right),
	})
}

// numeric reports the arithmetic value of operands that take part in
// arithmetic without a cast.
func numeric(v value.Value) (float64, bool) {
	switch v := v.(type) {
	case *value.Number:
		return v.Value, true
	case *value.Boolean, *value.Enum, *value.None:
		n, err := value.ToNumber(v)
		return n, err == nil
	}
	return 0, false
}

// add concatenates when the left operand is textual and sums otherwise.
// None on the left concatenates with text and counts as 0 with numbers.
func add(e *ast.BinaryExpression, left, right value.Value) (value.Value, error) {
	switch left.(type) {
	case *value.String, *value.Char, *value.Type:
		return concat(e, left, right)
	case *value.None:
		switch right.(type) {
		case *value.String, *value.Char:
			return concat(e, left, right)
		}
	}
	l, lok := numeric(left)
	r, rok := numeric(right)
	if !lok || !rok {
		return nil, operandError(e, left, right)
	}
	return &value.Number{Value: l + r}, nil
}

func concat(e *ast.BinaryExpression, left, right value.Value) (value.Value, error) {
	l, lerr := value.ToString(left)
	r, rerr := value.ToString(right)
	if lerr != nil || rerr != nil {
		return nil, operandError(e, left, right)
	}
	return &value.String{Value: l + r}, nil
}

func arithmetic(e *ast.BinaryExpression, left, right value.Value) (value.Value, error) {
	l, lok := numeric(left)
	r, rok := numeric(right)
	if !lok || !rok {
		return nil, operandError(e, left, right)
	}
	switch e.Operator {
	case ast.Minus:
		return &value.Number{Value: l - r}, nil
	case ast.Multiply:
		return &value.Number{Value: l * r}, nil
	}
	return &value.Number{Value: l / r}, nil
}

// typeOperand evaluates the right side of is/as. A bare name that is not a
// variable but names a structure or enum stands for that type.
func (in *Interpreter) typeOperand(expr ast.Expression) (value.Value, error) {
	if id, ok := expr.(*ast.Identifier); ok {
		if _, isVar := in.Variables.TryGet(id.Scope, id.Name); !isVar {
			if d, ok := in.Structures.TryGet(id.Scope, id.Name); ok {
				return &value.Type{Ref: ast.TypeRef{Kind: ast.KindStructure, Name: d.Name}}, nil
			}
			if d, ok := in.Enums.TryGet(id.Scope, id.Name); ok {
				return &value.Type{Ref: ast.TypeRef{Kind: ast.KindEnum, Name: d.Name}}, nil
			}
		}
	}
	return in.eval(expr)
}

// evalIs tests a type when the right side is a type and equality otherwise.
func (in *Interpreter) evalIs(e *ast.BinaryExpression) (value.Value, error) {
	left, err := in.eval(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := in.typeOperand(e.Right)
	if err != nil {
		return nil, err
	}
	if t, ok := right.(*value.Type); ok && left.Type() != ast.KindType {
		return value.NativeBool(value.IsType(left, t.Ref)), nil
	}
	return value.NativeBool(value.Equal(left, right)), nil
}

// evalCast implements `value as type`.
func (in *Interpreter) evalCast(e *ast.BinaryExpression) (value.Value, error) {
	left, err := in.eval(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := in.typeOperand(e.Right)
	if err != nil {
		return nil, err
	}
	target, ok := right.(*value.Type)
	if !ok {
		return nil, fault(e, "RUN-0019", map[string]any{"Op": "as", "Got": value.Describe(right)})
	}
	t := target.Ref

	if s, ok := left.(*value.Structure); ok {
		switch {
		case t.Kind == ast.KindAny:
			return s, nil
		case t.Kind == ast.KindStructure && (t.Name == "" || t.Name == s.Descriptor.Name):
			return value.Copy(s), nil
		}
		m, ok := s.Descriptor.CastableMember(t)
		if !ok {
			return nil, fault(e, "RUN-0009", map[string]any{"Structure": s.Descriptor.Name, "Type": t.String()})
		}
		return value.Copy(s.Fields[m.Name]), nil
	}

	if !value.CanCast(left.Type(), t.Kind) {
		return nil, fault(e, "RUN-0007", map[string]any{"From": value.Describe(left), "To": t.String()})
	}
	switch t.Kind {
	case ast.KindAny, ast.KindString:
		s, err := value.ToString(left)
		if err != nil {
			return nil, at(e, err)
		}
		return &value.String{Value: s}, nil
	case ast.KindNumber:
		n, err := value.ToNumber(left)
		if err != nil {
			return nil, at(e, err)
		}
		return &value.Number{Value: n}, nil
	case ast.KindBoolean:
		b, err := value.ToBoolean(left)
		if err != nil {
			return nil, at(e, err)
		}
		return value.NativeBool(b), nil
	case ast.KindChar:
		r, ok := value.ToChar(left)
		if !ok {
			text, _ := value.ToString(left)
			return nil, fault(e, "RUN-0008", map[string]any{"Value": text})
		}
		return &value.Char{Value: r}, nil
	case ast.KindNone:
		return value.NONE, nil
	}
	return value.Copy(left), nil
}
