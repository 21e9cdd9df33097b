package evaluator

import (
	"math"

	"github.com/sambeau/paganism/pkg/paganism/ast"
	"github.com/sambeau/paganism/pkg/paganism/value"
)

func (in *Interpreter) eval(expr ast.Expression) (value.Value, error) {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		return &value.Number{Value: e.Value}, nil
	case *ast.StringLiteral:
		return &value.String{Value: e.Value}, nil
	case *ast.CharLiteral:
		return &value.Char{Value: e.Value}, nil
	case *ast.BooleanLiteral:
		return value.NativeBool(e.Value), nil
	case *ast.NoneLiteral:
		return value.NONE, nil
	case *ast.TypeLiteral:
		return &value.Type{Ref: e.Type}, nil

	case *ast.ArrayLiteral:
		elements := make([]value.Value, len(e.Elements))
		for i, el := range e.Elements {
			v, err := in.eval(el)
			if err != nil {
				return nil, err
			}
			elements[i] = value.Copy(v)
		}
		return &value.Array{Elements: elements}, nil

	case *ast.Identifier:
		return in.lookup(e)

	case *ast.IndexExpression:
		v, err := in.lookup(&ast.Identifier{Position: e.Position, Name: e.Name})
		if err != nil {
			return nil, err
		}
		return in.index(e, e.Name, v, e.Indices)

	case *ast.CallExpression:
		return in.evalCall(e)

	case *ast.NewExpression:
		d, err := in.Structures.Get(e.Scope, e.Name)
		if err != nil {
			return nil, at(e, err)
		}
		return d.New(), nil

	case *ast.NotExpression:
		b, err := in.condition(e.Operand)
		if err != nil {
			return nil, err
		}
		return value.NativeBool(!b), nil

	case *ast.UnaryExpression:
		return in.evalUnary(e)

	case *ast.BinaryExpression:
		return in.evalBinary(e)

	case *ast.FunctionDeclaration:
		return value.NewFunction(e), nil
	}
	return nil, fault(expr, "PARSE-0001", map[string]any{"Token": expr.TokenLiteral()})
}

// lookup resolves a bare name: a variable first, then a function.
func (in *Interpreter) lookup(id *ast.Identifier) (value.Value, error) {
	if v, ok := in.Variables.TryGet(id.Scope, id.Name); ok {
		return v.Value, nil
	}
	if fn, ok := in.Functions.TryGet(id.Scope, id.Name); ok {
		return fn, nil
	}
	_, err := in.Variables.Get(id.Scope, id.Name)
	return nil, at(id, err)
}

// indexValue evaluates one subscript and checks it against length before
// it is converted to an int.
func (in *Interpreter) indexValue(node ast.Node, name string, expr ast.Expression, length int) (int, error) {
	v, err := in.eval(expr)
	if err != nil {
		return 0, err
	}
	n, ok := v.(*value.Number)
	if !ok || math.IsNaN(n.Value) || n.Value < 0 {
		return 0, fault(node, "RUN-0003", map[string]any{"Name": name})
	}
	if n.Value >= float64(length) {
		return 0, fault(node, "RUN-0004", map[string]any{"Index": value.FormatNumber(n.Value), "Name": name, "Length": length})
	}
	return int(n.Value), nil
}

// index applies subscripts to v. Strings index to a Char.
func (in *Interpreter) index(node ast.Node, name string, v value.Value, indices []ast.Expression) (value.Value, error) {
	for _, expr := range indices {
		switch c := v.(type) {
		case *value.Array:
			i, err := in.indexValue(node, name, expr, len(c.Elements))
			if err != nil {
				return nil, err
			}
			v = c.Elements[i]
		case *value.String:
			runes := []rune(c.Value)
			i, err := in.indexValue(node, name, expr, len(runes))
			if err != nil {
				return nil, err
			}
			v = &value.Char{Value: runes[i]}
		default:
			return nil, fault(node, "RUN-0005", map[string]any{"Name": name, "Got": value.Describe(v)})
		}
	}
	return v, nil
}

// setIndex stores v at container[indices...]. Only arrays are mutable.
func (in *Interpreter) setIndex(node ast.Node, name string, container value.Value, indices []ast.Expression, v value.Value) error {
	for n, expr := range indices {
		arr, ok := container.(*value.Array)
		if !ok {
			return fault(node, "RUN-0005", map[string]any{"Name": name, "Got": value.Describe(container)})
		}
		i, err := in.indexValue(node, name, expr, len(arr.Elements))
		if err != nil {
			return err
		}
		if n == len(indices)-1 {
			arr.Elements[i] = v
			return nil
		}
		container = arr.Elements[i]
	}
	return nil
}

func (in *Interpreter) evalUnary(e *ast.UnaryExpression) (value.Value, error) {
	if e.Operator == ast.Negate {
		v, err := in.eval(e.Operand)
		if err != nil {
			return nil, err
		}
		n, err := value.ToNumber(v)
		if err != nil {
			return nil, at(e, err)
		}
		return &value.Number{Value: -n}, nil
	}

	op := "++"
	delta := 1.0
	if e.Operator == ast.DecrementPrefix || e.Operator == ast.DecrementPostfix {
		op, delta = "--", -1
	}
	id, ok := e.Operand.(*ast.Identifier)
	if !ok {
		return nil, fault(e, "RUN-0024", map[string]any{"Op": op, "Got": e.Operand.String()})
	}
	variable, err := in.Variables.Get(id.Scope, id.Name)
	if err != nil {
		return nil, at(id, err)
	}
	old, ok := variable.Value.(*value.Number)
	if !ok {
		return nil, fault(e, "RUN-0024", map[string]any{"Op": op, "Got": value.Describe(variable.Value)})
	}
	if variable.ReadOnly {
		return nil, fault(e, "RUN-0018", map[string]any{"Name": id.Name})
	}
	updated := &value.Number{Value: old.Value + delta}
	variable.Value = updated
	if e.Operator == ast.IncrementPostfix || e.Operator == ast.DecrementPostfix {
		return &value.Number{Value: old.Value}, nil
	}
	return &value.Number{Value: updated.Value}, nil
}
