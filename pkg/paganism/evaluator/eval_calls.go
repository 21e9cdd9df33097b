package evaluator

import (
	"github.com/sambeau/paganism/pkg/paganism/ast"
	"github.com/sambeau/paganism/pkg/paganism/value"
)

func (in *Interpreter) evalCall(e *ast.CallExpression) (value.Value, error) {
	fn, err := in.resolveFunction(e)
	if err != nil {
		return nil, err
	}
	args, err := in.evalArgs(e.Arguments)
	if err != nil {
		return nil, err
	}
	return in.callFunction(e, fn, args)
}

// resolveFunction finds the callee of e: a declared function or built-in,
// then a variable holding a function value.
func (in *Interpreter) resolveFunction(e *ast.CallExpression) (*value.Function, error) {
	if fn, ok := in.Functions.TryGet(e.Scope, e.Name); ok {
		return fn, nil
	}
	if v, ok := in.Variables.TryGet(e.Scope, e.Name); ok {
		if fn, ok := v.Value.(*value.Function); ok {
			return fn, nil
		}
		return nil, fault(e, "RUN-0011", map[string]any{"Name": e.Name})
	}
	_, err := in.Functions.Get(e.Scope, e.Name)
	return nil, at(e, err)
}

// evalArgs evaluates arguments left to right. Arguments are passed by value.
func (in *Interpreter) evalArgs(exprs []ast.Expression) ([]value.Value, error) {
	args := make([]value.Value, len(exprs))
	for i, expr := range exprs {
		v, err := in.eval(expr)
		if err != nil {
			return nil, err
		}
		args[i] = value.Copy(v)
	}
	return args, nil
}

// checkArguments matches args against the declared parameters: count,
// required parameters and declared kinds. Missing optional arguments are
// filled with None.
func checkArguments(node ast.Node, fn *value.Function, args []value.Value) ([]value.Value, error) {
	params := fn.Parameters
	if len(args) > len(params) {
		return nil, fault(node, "RUN-0012", map[string]any{"Name": fn.Name, "Expected": len(params), "Got": len(args)})
	}
	full := make([]value.Value, len(params))
	for i, p := range params {
		if i >= len(args) {
			if p.Required {
				return nil, fault(node, "RUN-0014", map[string]any{"Arg": p.Name, "Name": fn.Name})
			}
			full[i] = value.NONE
			continue
		}
		a := args[i]
		if p.Array {
			if _, ok := a.(*value.Array); !ok && a.Type() != ast.KindNone {
				return nil, fault(node, "RUN-0013", map[string]any{"Arg": p.Name, "Name": fn.Name, "Expected": "Array", "Got": value.Describe(a)})
			}
		} else if !value.Accepts(p.Type, a) {
			return nil, fault(node, "RUN-0013", map[string]any{"Arg": p.Name, "Name": fn.Name, "Expected": p.Type.String(), "Got": value.Describe(a)})
		}
		full[i] = a
	}
	return full, nil
}

// callFunction invokes fn. A user function runs its body in a fresh
// activation with the parameters bound as locals; falling off the end
// returns None.
func (in *Interpreter) callFunction(node ast.Node, fn *value.Function, args []value.Value) (value.Value, error) {
	args, err := checkArguments(node, fn, args)
	if err != nil {
		return nil, err
	}

	if fn.Native != nil {
		v, err := fn.Native(args)
		if err != nil {
			return nil, at(node, err)
		}
		if v == nil {
			return value.VOID, nil
		}
		return v, nil
	}
	if fn.Decl == nil || fn.Decl.Body == nil {
		return nil, fault(node, "RUN-0011", map[string]any{"Name": fn.Name})
	}

	if in.depth >= MaxCallDepth {
		return nil, fault(node, "RUN-0031", map[string]any{"Name": fn.Name, "Depth": MaxCallDepth})
	}
	in.depth++
	defer func() { in.depth-- }()

	body := fn.Decl.Body
	id := in.arena.Push(body)
	defer in.arena.Pop(id)
	for i, p := range fn.Parameters {
		t := p.Type
		if p.Array {
			t = ast.TypeRef{Kind: ast.KindArray}
		}
		in.Variables.AddIn(id, p.Name, &Variable{Value: args[i], Type: t, Show: true, File: fn.Decl.File})
	}

	out, err := in.execStatements(body)
	if err != nil {
		return nil, err
	}
	var result value.Value = value.NONE
	if out.signal == signalReturn && out.value != nil {
		result = out.value
	}
	if fn.Return != nil && !value.Accepts(*fn.Return, result) {
		return nil, typeMismatch(node, *fn.Return, result)
	}
	return result, nil
}
