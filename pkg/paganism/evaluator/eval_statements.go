package evaluator

import (
	"github.com/sambeau/paganism/pkg/paganism/ast"
	"github.com/sambeau/paganism/pkg/paganism/scope"
	"github.com/sambeau/paganism/pkg/paganism/value"
)

// execStatements runs the statements of b in whatever frame is current and
// stops at the first break or return.
func (in *Interpreter) execStatements(b *ast.Block) (outcome, error) {
	for _, stmt := range b.Statements {
		out, err := in.execStatement(stmt)
		if err != nil {
			return next, err
		}
		if out.signal != signalContinue {
			return out, nil
		}
	}
	return next, nil
}

// runBlock activates b, lets bind add names to the new frame, and runs it.
// Clearing blocks drop their frame when they finish, whether or not they
// failed.
func (in *Interpreter) runBlock(b *ast.Block, bind func(id scope.FrameID)) (outcome, error) {
	if !b.Clearing && in.arena.Active(b) {
		return in.execStatements(b)
	}
	id := in.arena.Push(b)
	if b.Clearing {
		defer in.arena.Pop(id)
	}
	if bind != nil {
		bind(id)
	}
	return in.execStatements(b)
}

func (in *Interpreter) execStatement(stmt ast.Statement) (outcome, error) {
	switch s := stmt.(type) {
	case *ast.AssignStatement:
		return next, in.execAssign(s)

	case *ast.ReturnStatement:
		if s.Value == nil {
			return outcome{signal: signalReturn, value: value.VOID}, nil
		}
		v, err := in.eval(s.Value)
		if err != nil {
			return next, err
		}
		return outcome{signal: signalReturn, value: v}, nil

	case *ast.BreakStatement:
		return outcome{signal: signalBreak}, nil

	case *ast.IfStatement:
		out, err := in.execIf(s)
		return absorbBreak(s, out), err

	case *ast.TryStatement:
		out, err := in.execTry(s)
		return absorbBreak(s, out), err

	case *ast.ForStatement:
		return in.execFor(s)

	case *ast.FunctionDeclaration:
		in.declareFunction(s)
		return next, nil

	case *ast.StructureDeclaration:
		in.Structures.Add(s.Scope, s.Name, value.NewStructureDescriptor(s))
		return next, nil

	case *ast.EnumDeclaration:
		in.Enums.Add(s.Scope, s.Name, value.NewEnumDescriptor(s))
		return next, nil

	case *ast.AwaitStatement:
		_, err := in.evalCall(s.Call)
		return next, err

	case *ast.DirectiveStatement:
		return next, nil

	case *ast.CallExpression:
		_, err := in.evalCall(s)
		return next, err

	case *ast.BinaryExpression:
		_, err := in.evalBinary(s)
		return next, err

	case *ast.UnaryExpression:
		_, err := in.evalUnary(s)
		return next, err
	}
	return next, fault(stmt, "PARSE-0001", map[string]any{"Token": stmt.TokenLiteral()})
}

// absorbBreak stops a break raised inside an if or try body unless the
// statement itself sits in a loop body.
func absorbBreak(stmt ast.Node, out outcome) outcome {
	if out.signal != signalBreak {
		return out
	}
	if enclosing := stmt.Pos().Scope; enclosing != nil && enclosing.Loop {
		return out
	}
	return next
}

func (in *Interpreter) condition(expr ast.Expression) (bool, error) {
	v, err := in.eval(expr)
	if err != nil {
		return false, err
	}
	b, err := value.ToBoolean(v)
	if err != nil {
		return false, at(expr, err)
	}
	return b, nil
}

func (in *Interpreter) execIf(s *ast.IfStatement) (outcome, error) {
	ok, err := in.condition(s.Condition)
	if err != nil {
		return next, err
	}
	if ok {
		return in.runBlock(s.Consequence, nil)
	}
	for _, elif := range s.Elifs {
		ok, err := in.condition(elif.Condition)
		if err != nil {
			return next, err
		}
		if ok {
			return in.runBlock(elif.Body, nil)
		}
	}
	if s.Alternative != nil {
		return in.runBlock(s.Alternative, nil)
	}
	return next, nil
}

// execFor runs `for (init; condition; step) ... end`. A loop variable the
// init introduces lives in the enclosing scope while the loop runs and is
// removed once it ends.
func (in *Interpreter) execFor(s *ast.ForStatement) (outcome, error) {
	if s.Init != nil {
		if id, ok := s.Init.Left.(*ast.Identifier); ok {
			_, existed := in.Variables.TryGet(s.Scope, id.Name)
			if s.Init.Declared != nil || !existed {
				defer in.Variables.Remove(s.Scope, id.Name)
			}
		}
		if err := in.execAssign(s.Init); err != nil {
			return next, err
		}
	}

	for {
		if s.Condition != nil {
			ok, err := in.condition(s.Condition)
			if err != nil {
				return next, err
			}
			if !ok {
				return next, nil
			}
		}
		out, err := in.runBlock(s.Body, nil)
		if err != nil {
			return next, err
		}
		switch out.signal {
		case signalReturn:
			return out, nil
		case signalBreak:
			return next, nil
		}
		if s.Step != nil {
			if _, err := in.execStatement(s.Step); err != nil {
				return next, err
			}
		}
	}
}

// execTry runs the body and, on a fault, runs the catch block with an
// `exception` instance describing it.
func (in *Interpreter) execTry(s *ast.TryStatement) (outcome, error) {
	out, err := in.runBlock(s.Body, nil)
	if err == nil {
		return out, nil
	}
	exc := NewException(at(s, err))
	return in.runBlock(s.Catch, func(id scope.FrameID) {
		in.Variables.AddIn(id, ExceptionDescriptor.Name, &Variable{
			Value: exc,
			Type:  ast.TypeRef{Kind: ast.KindStructure, Name: ExceptionDescriptor.Name},
			Show:  true,
			File:  s.File,
		})
	})
}

// declareFunction registers a function, or an extension method when the
// declaration was marked with #extension.
func (in *Interpreter) declareFunction(fd *ast.FunctionDeclaration) {
	fn := value.NewFunction(fd)
	if fd.Extension != "" {
		table := in.extensions[fd.Extension]
		if table == nil {
			table = make(map[string]Extension)
			in.extensions[fd.Extension] = table
		}
		table[fd.Name] = scriptExtension{fn: fn}
		return
	}
	in.Functions.Add(fd.Scope, fd.Name, fn)
}
