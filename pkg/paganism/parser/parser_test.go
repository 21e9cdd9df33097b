package parser

import (
	"testing"

	"github.com/sambeau/paganism/pkg/paganism/ast"
	perrors "github.com/sambeau/paganism/pkg/paganism/errors"
	"github.com/sambeau/paganism/pkg/paganism/lexer"
)

func parseHelper(t *testing.T, input string) *ast.Block {
	t.Helper()
	p := New(lexer.NewWithFilename(input, "test.pgm"))
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) != 0 {
		t.Fatalf("parser errors for %q: %v", input, errs)
	}
	return program
}

func parseErrorHelper(t *testing.T, input string) *perrors.Fault {
	t.Helper()
	p := New(lexer.NewWithFilename(input, "test.pgm"))
	p.ParseProgram()
	errs := p.StructuredErrors()
	if len(errs) == 0 {
		t.Fatalf("expected a parse error for %q", input)
	}
	return errs[0]
}

func TestExpressionShapes(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"x = 1 + 2", "x = (1 + 2)"},
		// +/- recurse on the right: chains associate to the right.
		{"x = 10 - 4 - 3", "x = (10 - (4 - 3))"},
		{"x = 2 * 3 + 1", "x = ((2 * 3) + 1)"},
		{"x = 1 + 2 * 3", "x = (1 + (2 * 3))"},
		{"x = a and b or c", "x = (a and (b or c))"},
		{"x = a + 1 and b", "x = ((a + 1) and b)"},
		{"x = i < 3", "x = (i < 3)"},
		{"x = p.x + 1", "x = ((p.x) + 1)"},
		{"x = add(2, 3) as string", "x = (add(2, 3) as String)"},
		{"x = not y", "x = (not y)"},
		{"x = -y", "x = (-y)"},
		{"x = (1 + 2) * 3", "x = ((1 + 2) * 3)"},
		{"x = y is none", "x = (y is none)"},
		{"x = y is number", "x = (y is Number)"},
		{"x = p is structure_type Point", "x = (p is Structure Point)"},
		{"x = grid[1][j]", "x = grid[1][j]"},
		{`x = [1, "a", 'c', none, yes]`, `x = [1, "a", 'c', none, true]`},
		{"x = new Point", "x = new Point"},
		{"x = text.Replace(\"a\", \"b\")", "x = (text.Replace(\"a\", \"b\"))"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			program := parseHelper(t, tt.input)
			if len(program.Statements) != 1 {
				t.Fatalf("expected 1 statement, got %d", len(program.Statements))
			}
			if got := program.Statements[0].String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStatements(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, stmt ast.Statement)
	}{
		{
			name:  "typed declaration",
			input: "number x = 5",
			check: func(t *testing.T, stmt ast.Statement) {
				as := stmt.(*ast.AssignStatement)
				if as.Declared == nil || as.Declared.Kind != ast.KindNumber {
					t.Errorf("Declared = %v", as.Declared)
				}
			},
		},
		{
			name:  "declaration without initializer",
			input: "string s;",
			check: func(t *testing.T, stmt ast.Statement) {
				as := stmt.(*ast.AssignStatement)
				if as.Value != nil || as.Declared.Kind != ast.KindString {
					t.Errorf("got %s", as)
				}
			},
		},
		{
			name:  "readonly",
			input: "readonly number x = 5",
			check: func(t *testing.T, stmt ast.Statement) {
				as := stmt.(*ast.AssignStatement)
				if !as.ReadOnly || as.Declared == nil {
					t.Errorf("got %s", as)
				}
			},
		},
		{
			name:  "structure typed",
			input: "structure_type Point p = new Point",
			check: func(t *testing.T, stmt ast.Statement) {
				as := stmt.(*ast.AssignStatement)
				if as.Declared.Kind != ast.KindStructure || as.Declared.Name != "Point" {
					t.Errorf("Declared = %v", as.Declared)
				}
			},
		},
		{
			name:  "show declaration",
			input: "show number x = 1",
			check: func(t *testing.T, stmt ast.Statement) {
				if !stmt.(*ast.AssignStatement).Show {
					t.Error("expected Show")
				}
			},
		},
		{
			name:  "call statement",
			input: `println("hi")`,
			check: func(t *testing.T, stmt ast.Statement) {
				call := stmt.(*ast.CallExpression)
				if call.Name != "println" || len(call.Arguments) != 1 {
					t.Errorf("got %s", call)
				}
			},
		},
		{
			name:  "member call statement",
			input: "p.move(1, 2)",
			check: func(t *testing.T, stmt ast.Statement) {
				be := stmt.(*ast.BinaryExpression)
				if be.Operator != ast.Point {
					t.Errorf("got %s", be)
				}
			},
		},
		{
			name:  "member assignment",
			input: "p.x = 3",
			check: func(t *testing.T, stmt ast.Statement) {
				as := stmt.(*ast.AssignStatement)
				if as.Left.String() != "(p.x)" {
					t.Errorf("Left = %s", as.Left)
				}
			},
		},
		{
			name:  "postfix increment",
			input: "i++",
			check: func(t *testing.T, stmt ast.Statement) {
				ue := stmt.(*ast.UnaryExpression)
				if ue.Operator != ast.IncrementPostfix {
					t.Errorf("got %s", ue)
				}
			},
		},
		{
			name:  "postfix decrement",
			input: "i--",
			check: func(t *testing.T, stmt ast.Statement) {
				if stmt.(*ast.UnaryExpression).Operator != ast.DecrementPostfix {
					t.Errorf("got %s", stmt)
				}
			},
		},
		{
			name:  "prefix increment",
			input: "++i",
			check: func(t *testing.T, stmt ast.Statement) {
				if stmt.(*ast.UnaryExpression).Operator != ast.IncrementPrefix {
					t.Errorf("got %s", stmt)
				}
			},
		},
		{
			name:  "await",
			input: "await load(1)",
			check: func(t *testing.T, stmt ast.Statement) {
				if stmt.(*ast.AwaitStatement).Call.Name != "load" {
					t.Errorf("got %s", stmt)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program := parseHelper(t, tt.input)
			if len(program.Statements) != 1 {
				t.Fatalf("expected 1 statement, got %d: %s", len(program.Statements), program)
			}
			tt.check(t, program.Statements[0])
		})
	}
}

func TestFunctionDeclaration(t *testing.T) {
	program := parseHelper(t, `
number function add(required number a, number b, any rest[])
	return a + b
end
async function tick
	return
end`)

	if len(program.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(program.Statements))
	}
	fd := program.Statements[0].(*ast.FunctionDeclaration)
	if fd.Name != "add" || fd.ReturnType == nil || fd.ReturnType.Kind != ast.KindNumber {
		t.Fatalf("got %s", fd)
	}
	if len(fd.Parameters) != 3 {
		t.Fatalf("expected 3 parameters, got %d", len(fd.Parameters))
	}
	if !fd.Parameters[0].Required || fd.Parameters[1].Required {
		t.Errorf("required flags wrong: %v", fd.Parameters)
	}
	if !fd.Parameters[2].Array || fd.Parameters[2].Type.Kind != ast.KindAny {
		t.Errorf("array parameter wrong: %v", fd.Parameters[2])
	}
	if fd.Body.Clearing || fd.Body.Loop {
		t.Error("function bodies are neither clearing nor loop blocks")
	}
	ret := fd.Body.Statements[0].(*ast.ReturnStatement)
	if ret.Pos().Scope != fd.Body {
		t.Error("body statements must be scoped to the body block")
	}

	tick := program.Statements[1].(*ast.FunctionDeclaration)
	if !tick.Async || len(tick.Parameters) != 0 {
		t.Errorf("got %s", tick)
	}
	if tick.Body.Statements[0].(*ast.ReturnStatement).Value != nil {
		t.Error("expected bare return")
	}
}

func TestIfStatement(t *testing.T) {
	program := parseHelper(t, `
if (x < 1) then
	y = 1
elif (x < 2) then
	y = 2
else
	y = 3
end`)
	is := program.Statements[0].(*ast.IfStatement)
	if len(is.Elifs) != 1 || is.Alternative == nil {
		t.Fatalf("got %s", is)
	}
	if !is.Consequence.Clearing {
		t.Error("if bodies clear their locals")
	}
	if is.Consequence.Loop {
		t.Error("if body outside a loop is not a loop block")
	}
}

func TestForStatement(t *testing.T) {
	program := parseHelper(t, `
for (number i = 0; i < 3; i = i + 1)
	if (i is 1) then
		break
	end
end`)
	fs := program.Statements[0].(*ast.ForStatement)
	if fs.Init == nil || fs.Init.Declared == nil || fs.Condition == nil || fs.Step == nil {
		t.Fatalf("got %s", fs)
	}
	if fs.Init.Pos().Scope != nil {
		t.Error("loop initializer belongs to the enclosing scope")
	}
	if !fs.Body.Loop || !fs.Body.Clearing {
		t.Error("for body must be a clearing loop block")
	}
	inner := fs.Body.Statements[0].(*ast.IfStatement)
	if !inner.Consequence.Loop {
		t.Error("if inside a loop inherits the loop context")
	}
}

func TestFunctionInsideLoopResetsLoopContext(t *testing.T) {
	program := parseHelper(t, `
for (;;)
	function f
		if (yes) then
			break
		end
	end
	break
end`)
	fs := program.Statements[0].(*ast.ForStatement)
	fd := fs.Body.Statements[0].(*ast.FunctionDeclaration)
	if fd.Body.Statements[0].(*ast.IfStatement).Consequence.Loop {
		t.Error("function body inside a loop must not be a loop context")
	}
}

func TestTryStatement(t *testing.T) {
	program := parseHelper(t, `
try
	x = xs[5]
catch
	println(exception.name)
end`)
	ts := program.Statements[0].(*ast.TryStatement)
	if len(ts.Body.Statements) != 1 || len(ts.Catch.Statements) != 1 {
		t.Fatalf("got %s", ts)
	}
}

func TestStructureDeclaration(t *testing.T) {
	program := parseHelper(t, `
structure Point
	number x;
	hide number secret;
	readonly string label;
	castable structure_type Vector vec;
	delegate async number function move(number dx, number dy);
end`)
	sd := program.Statements[0].(*ast.StructureDeclaration)
	if sd.Name != "Point" || len(sd.Members) != 5 {
		t.Fatalf("got %s", sd)
	}
	x, secret, label, vec, move := sd.Members[0], sd.Members[1], sd.Members[2], sd.Members[3], sd.Members[4]
	if !x.Show || x.Type.Kind != ast.KindNumber {
		t.Errorf("x = %+v", x)
	}
	if secret.Show {
		t.Error("hide member must not be shown")
	}
	if !label.ReadOnly {
		t.Error("label must be readonly")
	}
	if !vec.Castable || vec.Type.Name != "Vector" {
		t.Errorf("vec = %+v", vec)
	}
	if !move.Callable || !move.Async || move.Type.Kind != ast.KindNumber || len(move.Parameters) != 2 {
		t.Errorf("move = %+v", move)
	}
}

func TestEnumDeclaration(t *testing.T) {
	program := parseHelper(t, `
enum Color
	red = 0;
	green = 1;
	blue = 2.5
end`)
	ed := program.Statements[0].(*ast.EnumDeclaration)
	if ed.Name != "Color" || len(ed.Members) != 3 {
		t.Fatalf("got %s", ed)
	}
	if ed.Members[1].Name != "green" || ed.Members[1].Value != 1 {
		t.Errorf("green = %+v", ed.Members[1])
	}
	if ed.Members[2].Value != 2.5 {
		t.Errorf("blue = %+v", ed.Members[2])
	}
}

func TestExtensionDirective(t *testing.T) {
	program := parseHelper(t, `
#extension StringExtension
function Shout(string s)
	return s
end
function plain
end`)
	if len(program.Statements) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(program.Statements))
	}
	shout := program.Statements[1].(*ast.FunctionDeclaration)
	if shout.Extension != "StringExtension" {
		t.Errorf("Extension = %q", shout.Extension)
	}
	plain := program.Statements[2].(*ast.FunctionDeclaration)
	if plain.Extension != "" {
		t.Error("extension flag must reset after one function")
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  string
	}{
		{"unknown expression", ") x", "PARSE-0001"},
		{"missing end", "if (x) then y = 1", "PARSE-0002"},
		{"enum needs number", "enum E a = b end", "PARSE-0004"},
		{"unknown extension", "#extension NumberExtension\nfunction f end", "PARSE-0006"},
		{"await non call", "await x", "PARSE-0007"},
		{"async non function", "async x", "PARSE-0008"},
		{"member needs semicolon", "structure S number x end", "PARSE-0002"},
		{"member needs type", "structure S x; end", "PARSE-0011"},
		{"bad target", "1 = 2", "PARSE-0001"},
		{"plain expression needs assignment", "x.y", "PARSE-0002"},
		{"lexer fault surfaces", `x = "open`, "LEX-0001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := parseErrorHelper(t, tt.input)
			if f.Code != tt.code {
				t.Errorf("Code = %s (%s), want %s", f.Code, f.Message, tt.code)
			}
			if f.File != "test.pgm" {
				t.Errorf("File = %q", f.File)
			}
		})
	}
}

func TestUnknownExpressionMessage(t *testing.T) {
	f := parseErrorHelper(t, "x = 1\n  )")
	if got := f.Error(); got != "Parser error: Unknown expression ). Line: 2, position: 3" {
		t.Errorf("Error() = %q", got)
	}
	if f.Kind != perrors.KindParse {
		t.Errorf("Kind = %s", f.Kind)
	}
}

func TestParse(t *testing.T) {
	if _, err := Parse("x = 1", "a.pgm"); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := Parse("x = ", "a.pgm"); err == nil {
		t.Fatal("expected error")
	}
}
