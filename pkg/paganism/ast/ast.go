// Package ast defines the syntax tree produced by the parser.
//
// Every node records the token it started at, the file it came from and
// the block that lexically encloses it. The enclosing block is what the
// evaluator uses to resolve names, so no separate scope pass is needed.
// Nodes with a nil Scope live at the top level of a program.
package ast

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/sambeau/paganism/pkg/paganism/lexer"
)

// Node represents any node in the AST
type Node interface {
	TokenLiteral() string
	String() string
	Pos() *Position
}

// Statement represents statement nodes
type Statement interface {
	Node
	statementNode()
}

// Expression represents expression nodes
type Expression interface {
	Node
	expressionNode()
}

// Position is embedded in every node.
type Position struct {
	Token lexer.Token
	File  string
	Scope *Block // enclosing block, nil at the top level
}

func (p *Position) TokenLiteral() string { return p.Token.Literal }
func (p *Position) Pos() *Position       { return p }

// Block is a statement sequence with its own scope. Loop marks blocks whose
// break must propagate to an enclosing loop; Clearing blocks drop their
// locals when they finish.
type Block struct {
	Position
	Statements []Statement
	Loop       bool
	Clearing   bool
}

func (b *Block) String() string {
	var out bytes.Buffer
	for i, s := range b.Statements {
		if i > 0 {
			out.WriteString("\n")
		}
		out.WriteString(s.String())
	}
	return out.String()
}

// Literals

type NumberLiteral struct {
	Position
	Value float64
}

func (n *NumberLiteral) expressionNode() {}
func (n *NumberLiteral) String() string {
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

type StringLiteral struct {
	Position
	Value string
}

func (s *StringLiteral) expressionNode() {}
func (s *StringLiteral) String() string  { return `"` + s.Value + `"` }

type CharLiteral struct {
	Position
	Value rune
}

func (c *CharLiteral) expressionNode() {}
func (c *CharLiteral) String() string  { return "'" + string(c.Value) + "'" }

type BooleanLiteral struct {
	Position
	Value bool
}

func (b *BooleanLiteral) expressionNode() {}
func (b *BooleanLiteral) String() string  { return strconv.FormatBool(b.Value) }

type NoneLiteral struct {
	Position
}

func (n *NoneLiteral) expressionNode() {}
func (n *NoneLiteral) String() string  { return "none" }

// TypeLiteral is a type used as a value, as in `x is number` or `x as string`.
type TypeLiteral struct {
	Position
	Type TypeRef
}

func (t *TypeLiteral) expressionNode() {}
func (t *TypeLiteral) String() string  { return t.Type.String() }

type ArrayLiteral struct {
	Position
	Elements []Expression
}

func (a *ArrayLiteral) expressionNode() {}
func (a *ArrayLiteral) String() string {
	return "[" + joinExpressions(a.Elements) + "]"
}

// Names and access

type Identifier struct {
	Position
	Name string
}

func (i *Identifier) expressionNode() {}
func (i *Identifier) String() string  { return i.Name }

// IndexExpression is name[i][j]...
type IndexExpression struct {
	Position
	Name    string
	Indices []Expression
}

func (ie *IndexExpression) expressionNode() {}
func (ie *IndexExpression) String() string {
	var out strings.Builder
	out.WriteString(ie.Name)
	for _, idx := range ie.Indices {
		out.WriteString("[" + idx.String() + "]")
	}
	return out.String()
}

type CallExpression struct {
	Position
	Name      string
	Arguments []Expression
}

func (ce *CallExpression) expressionNode() {}
func (ce *CallExpression) statementNode()  {}
func (ce *CallExpression) String() string {
	return ce.Name + "(" + joinExpressions(ce.Arguments) + ")"
}

type NewExpression struct {
	Position
	Name string
}

func (ne *NewExpression) expressionNode() {}
func (ne *NewExpression) String() string  { return "new " + ne.Name }

// Operators

type NotExpression struct {
	Position
	Operand Expression
}

func (ne *NotExpression) expressionNode() {}
func (ne *NotExpression) String() string  { return "(not " + ne.Operand.String() + ")" }

type UnaryOp int

const (
	Negate UnaryOp = iota
	IncrementPrefix
	DecrementPrefix
	IncrementPostfix
	DecrementPostfix
)

type UnaryExpression struct {
	Position
	Operator UnaryOp
	Operand  Expression
}

func (ue *UnaryExpression) expressionNode() {}
func (ue *UnaryExpression) statementNode()  {}
func (ue *UnaryExpression) String() string {
	operand := ue.Operand.String()
	switch ue.Operator {
	case IncrementPrefix:
		return "(++" + operand + ")"
	case DecrementPrefix:
		return "(--" + operand + ")"
	case IncrementPostfix:
		return "(" + operand + "++)"
	case DecrementPostfix:
		return "(" + operand + "--)"
	default:
		return "(-" + operand + ")"
	}
}

type BinaryOp int

const (
	Plus BinaryOp = iota
	Minus
	Multiply
	Divide
	Is
	And
	Or
	Less
	More
	Point
	As
)

var binaryOpNames = [...]string{
	Plus:     "+",
	Minus:    "-",
	Multiply: "*",
	Divide:   "/",
	Is:       "is",
	And:      "and",
	Or:       "or",
	Less:     "<",
	More:     ">",
	Point:    ".",
	As:       "as",
}

func (op BinaryOp) String() string { return binaryOpNames[op] }

// BinaryExpression is also a statement so that `text.Replace("a", "b")`
// and `p.method()` can stand on their own line.
type BinaryExpression struct {
	Position
	Operator BinaryOp
	Left     Expression
	Right    Expression
}

func (be *BinaryExpression) expressionNode() {}
func (be *BinaryExpression) statementNode()  {}
func (be *BinaryExpression) String() string {
	if be.Operator == Point {
		return "(" + be.Left.String() + "." + be.Right.String() + ")"
	}
	return "(" + be.Left.String() + " " + be.Operator.String() + " " + be.Right.String() + ")"
}

// Statements

// AssignStatement covers declarations (`number x = 1`, Declared set) and
// plain assignments to a variable, array element or structure member.
type AssignStatement struct {
	Position
	Left     Expression
	Value    Expression // nil for a declaration without initializer
	Declared *TypeRef
	Show     bool
	ReadOnly bool
}

func (as *AssignStatement) statementNode() {}
func (as *AssignStatement) String() string {
	var out strings.Builder
	if as.ReadOnly {
		out.WriteString("readonly ")
	}
	if as.Declared != nil {
		out.WriteString(as.Declared.String() + " ")
	}
	out.WriteString(as.Left.String())
	if as.Value != nil {
		out.WriteString(" = " + as.Value.String())
	}
	return out.String()
}

type FunctionDeclaration struct {
	Position
	Name       string
	Parameters []Parameter
	ReturnType *TypeRef
	Body       *Block
	Async      bool
	Show       bool
	Extension  string // extension table the function is registered in, if any
}

func (fd *FunctionDeclaration) expressionNode() {}
func (fd *FunctionDeclaration) statementNode()  {}
func (fd *FunctionDeclaration) String() string {
	var out strings.Builder
	if fd.Async {
		out.WriteString("async ")
	}
	if fd.ReturnType != nil {
		out.WriteString(fd.ReturnType.String() + " ")
	}
	out.WriteString("function " + fd.Name + "(")
	for i, p := range fd.Parameters {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(p.String())
	}
	out.WriteString(")")
	return out.String()
}

type StructureMember struct {
	Name       string
	Type       TypeRef // for delegates, the return type
	Show       bool
	ReadOnly   bool
	Castable   bool
	Callable   bool
	Async      bool
	Parameters []Parameter
}

type StructureDeclaration struct {
	Position
	Name    string
	Members []*StructureMember
	Show    bool
}

func (sd *StructureDeclaration) statementNode() {}
func (sd *StructureDeclaration) String() string {
	names := make([]string, len(sd.Members))
	for i, m := range sd.Members {
		names[i] = m.Type.String() + " " + m.Name
	}
	return "structure " + sd.Name + " {" + strings.Join(names, "; ") + "}"
}

type EnumMember struct {
	Name  string
	Value float64
}

type EnumDeclaration struct {
	Position
	Name    string
	Members []EnumMember
	Show    bool
}

func (ed *EnumDeclaration) statementNode() {}
func (ed *EnumDeclaration) String() string {
	parts := make([]string, len(ed.Members))
	for i, m := range ed.Members {
		parts[i] = m.Name + " = " + strconv.FormatFloat(m.Value, 'f', -1, 64)
	}
	return "enum " + ed.Name + " {" + strings.Join(parts, "; ") + "}"
}

type ElifBranch struct {
	Condition Expression
	Body      *Block
}

type IfStatement struct {
	Position
	Condition   Expression
	Consequence *Block
	Elifs       []*ElifBranch
	Alternative *Block
}

func (is *IfStatement) statementNode() {}
func (is *IfStatement) String() string {
	var out strings.Builder
	out.WriteString("if " + is.Condition.String() + " then " + is.Consequence.String())
	for _, e := range is.Elifs {
		out.WriteString(" elif " + e.Condition.String() + " then " + e.Body.String())
	}
	if is.Alternative != nil {
		out.WriteString(" else " + is.Alternative.String())
	}
	out.WriteString(" end")
	return out.String()
}

type ForStatement struct {
	Position
	Init      *AssignStatement
	Condition Expression
	Step      Statement
	Body      *Block
}

func (fs *ForStatement) statementNode() {}
func (fs *ForStatement) String() string {
	var out strings.Builder
	out.WriteString("for (")
	if fs.Init != nil {
		out.WriteString(fs.Init.String())
	}
	out.WriteString("; ")
	if fs.Condition != nil {
		out.WriteString(fs.Condition.String())
	}
	out.WriteString("; ")
	if fs.Step != nil {
		out.WriteString(fs.Step.String())
	}
	out.WriteString(") " + fs.Body.String() + " end")
	return out.String()
}

type TryStatement struct {
	Position
	Body  *Block
	Catch *Block
}

func (ts *TryStatement) statementNode() {}
func (ts *TryStatement) String() string {
	return "try " + ts.Body.String() + " catch " + ts.Catch.String() + " end"
}

type BreakStatement struct {
	Position
}

func (bs *BreakStatement) statementNode() {}
func (bs *BreakStatement) String() string  { return "break" }

type ReturnStatement struct {
	Position
	Value Expression // nil for a bare return
}

func (rs *ReturnStatement) statementNode() {}
func (rs *ReturnStatement) String() string {
	if rs.Value == nil {
		return "return"
	}
	return "return " + rs.Value.String()
}

type AwaitStatement struct {
	Position
	Call *CallExpression
}

func (as *AwaitStatement) statementNode() {}
func (as *AwaitStatement) String() string  { return "await " + as.Call.String() }

// DirectiveStatement is `#name argument`.
type DirectiveStatement struct {
	Position
	Name     string
	Argument string
}

func (ds *DirectiveStatement) statementNode() {}
func (ds *DirectiveStatement) String() string  { return "#" + ds.Name + " " + ds.Argument }

func joinExpressions(exprs []Expression) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}
