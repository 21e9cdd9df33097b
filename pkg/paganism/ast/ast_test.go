package ast

import "testing"

func TestString(t *testing.T) {
	num := func(v float64) Expression { return &NumberLiteral{Value: v} }
	ident := func(name string) Expression { return &Identifier{Name: name} }

	tests := []struct {
		name string
		node Node
		want string
	}{
		{
			name: "binary",
			node: &BinaryExpression{Operator: Minus, Left: num(10), Right: &BinaryExpression{Operator: Minus, Left: num(4), Right: num(3)}},
			want: "(10 - (4 - 3))",
		},
		{
			name: "member",
			node: &BinaryExpression{Operator: Point, Left: ident("p"), Right: ident("x")},
			want: "(p.x)",
		},
		{
			name: "cast",
			node: &BinaryExpression{Operator: As, Left: &CallExpression{Name: "add", Arguments: []Expression{num(2), num(3)}}, Right: &TypeLiteral{Type: TypeRef{Kind: KindString}}},
			want: "(add(2, 3) as String)",
		},
		{
			name: "declaration",
			node: &AssignStatement{Declared: &TypeRef{Kind: KindStructure, Name: "Point"}, Left: ident("p"), Value: &NewExpression{Name: "Point"}},
			want: "Structure Point p = new Point",
		},
		{
			name: "index",
			node: &IndexExpression{Name: "grid", Indices: []Expression{num(1), ident("j")}},
			want: "grid[1][j]",
		},
		{
			name: "postfix",
			node: &UnaryExpression{Operator: IncrementPostfix, Operand: ident("i")},
			want: "(i++)",
		},
		{
			name: "function",
			node: &FunctionDeclaration{Name: "add", ReturnType: &TypeRef{Kind: KindNumber}, Parameters: []Parameter{
				{Name: "a", Type: TypeRef{Kind: KindNumber}, Required: true},
				{Name: "xs", Type: AnyType, Array: true},
			}},
			want: "Number function add(required Number a, Any xs[])",
		},
		{
			name: "array",
			node: &ArrayLiteral{Elements: []Expression{num(1), &StringLiteral{Value: "a"}, &CharLiteral{Value: 'c'}, &NoneLiteral{}}},
			want: `[1, "a", 'c', none]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	if KindStructure.String() != "Structure" {
		t.Errorf("got %q", KindStructure.String())
	}
	if Kind(99).String() != "Unknown" {
		t.Errorf("got %q", Kind(99).String())
	}
}
