// Package parser builds a Paganism syntax tree from tokens.
//
// The parser is a hand-written recursive descent over the token slice. Only
// the first fault is kept; once it is recorded every parse function unwinds
// by returning nil.
//
// Operator handling is deliberately loose: +, -, is, and, or, < and > share
// one level and their right operand is parsed recursively, so chains such as
// `10 - 4 - 3` associate to the right. * and / bind tighter and are also
// right-recursive.
package parser

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sambeau/paganism/pkg/paganism/ast"
	perrors "github.com/sambeau/paganism/pkg/paganism/errors"
	"github.com/sambeau/paganism/pkg/paganism/lexer"
)

// Extensions lists the extension tables a function may be registered in with
// the #extension directive.
var Extensions = []string{"StringExtension"}

var typeKinds = map[lexer.TokenType]ast.Kind{
	lexer.STRING_TYPE:  ast.KindString,
	lexer.NUMBER_TYPE:  ast.KindNumber,
	lexer.BOOLEAN_TYPE: ast.KindBoolean,
	lexer.ANY_TYPE:     ast.KindAny,
	lexer.OBJECT_TYPE:  ast.KindAny,
	lexer.CHAR_TYPE:    ast.KindChar,
}

// Parser holds the token cursor and the lexical context of the statement
// being parsed.
type Parser struct {
	tokens   []lexer.Token
	pos      int
	filename string

	scope     *ast.Block // block new nodes belong to, nil at top level
	inLoop    bool
	extension string // pending #extension target

	structuredErrors []*perrors.Fault
}

// New creates a parser over the tokens of l. A tokenizer fault is kept as
// the parser's first error.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{filename: l.Filename()}
	tokens, err := l.Run()
	if err != nil {
		p.addFault(err)
	}
	p.tokens = tokens
	return p
}

// NewFromTokens creates a parser over an existing token sequence.
func NewFromTokens(tokens []lexer.Token, filename string) *Parser {
	return &Parser{tokens: tokens, filename: filename}
}

// Errors returns the recorded faults rendered as strings.
func (p *Parser) Errors() []string {
	result := make([]string, len(p.structuredErrors))
	for i, err := range p.structuredErrors {
		result[i] = err.Error()
	}
	return result
}

// StructuredErrors returns the recorded faults.
func (p *Parser) StructuredErrors() []*perrors.Fault {
	return p.structuredErrors
}

// Err returns the first fault, or nil.
func (p *Parser) Err() error {
	if len(p.structuredErrors) == 0 {
		return nil
	}
	return p.structuredErrors[0]
}

func (p *Parser) failed() bool {
	return len(p.structuredErrors) > 0
}

// addError records a catalog fault at tok. Only the first is kept.
func (p *Parser) addError(code string, tok lexer.Token, data map[string]any) {
	if p.failed() {
		return
	}
	p.structuredErrors = append(p.structuredErrors,
		perrors.NewAt(code, p.filename, tok.Line, tok.Column, data))
}

func (p *Parser) addFault(err error) {
	if p.failed() {
		return
	}
	f, ok := perrors.As(err)
	if !ok {
		f = perrors.Newf(perrors.KindParse, "%v", err)
	}
	p.structuredErrors = append(p.structuredErrors, f)
}

// Token cursor

func (p *Parser) peek(offset int) lexer.Token {
	i := p.pos + offset
	if i < len(p.tokens) {
		return p.tokens[i]
	}
	eof := lexer.Token{Type: lexer.EOF}
	if n := len(p.tokens); n > 0 {
		eof.Line = p.tokens[n-1].Line
		eof.Column = p.tokens[n-1].Column + len(p.tokens[n-1].Literal)
	}
	return eof
}

func (p *Parser) cur() lexer.Token { return p.peek(0) }

func (p *Parser) curIs(tt lexer.TokenType) bool { return p.cur().Type == tt }

func (p *Parser) peekIs(offset int, tt lexer.TokenType) bool { return p.peek(offset).Type == tt }

func (p *Parser) advance() lexer.Token {
	tok := p.cur()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// match consumes the current token when it has type tt.
func (p *Parser) match(tt lexer.TokenType) bool {
	if p.curIs(tt) {
		p.advance()
		return true
	}
	return false
}

// expect consumes a token of type tt or records a fault.
func (p *Parser) expect(tt lexer.TokenType, what string) (lexer.Token, bool) {
	tok := p.cur()
	if tok.Type != tt {
		p.addError("PARSE-0002", tok, map[string]any{"Expected": what, "Got": describe(tok)})
		return tok, false
	}
	p.advance()
	return tok, true
}

func (p *Parser) expectName(what string) (lexer.Token, bool) {
	tok := p.cur()
	if tok.Type != lexer.WORD {
		p.addError("PARSE-0003", tok, map[string]any{"What": what, "Got": describe(tok)})
		return tok, false
	}
	p.advance()
	return tok, true
}

func describe(tok lexer.Token) string {
	if tok.Type == lexer.EOF {
		return "end of input"
	}
	return tok.Literal
}

func (p *Parser) at(tok lexer.Token) ast.Position {
	return ast.Position{Token: tok, File: p.filename, Scope: p.scope}
}

func (p *Parser) newBlock(tok lexer.Token, loop, clearing bool) *ast.Block {
	return &ast.Block{Position: p.at(tok), Loop: loop, Clearing: clearing}
}

// ParseProgram parses the whole token sequence into the root block.
func (p *Parser) ParseProgram() *ast.Block {
	root := &ast.Block{Position: ast.Position{File: p.filename}}
	if len(p.tokens) > 0 {
		root.Token = p.tokens[0]
	}
	for !p.failed() && !p.curIs(lexer.EOF) {
		if stmt := p.parseStatement(); stmt != nil {
			root.Statements = append(root.Statements, stmt)
		}
	}
	return root
}

// parseStatementsUntil fills b until one of the terminators, which is
// consumed and returned.
func (p *Parser) parseStatementsUntil(b *ast.Block, terminators ...lexer.TokenType) lexer.TokenType {
	saved := p.scope
	p.scope = b
	defer func() { p.scope = saved }()

	for !p.failed() {
		tok := p.cur()
		for _, tt := range terminators {
			if tok.Type == tt {
				p.advance()
				return tt
			}
		}
		if tok.Type == lexer.EOF {
			p.addError("PARSE-0002", tok, map[string]any{"Expected": "'" + strings.ToLower(terminators[0].String()) + "'", "Got": describe(tok)})
			return lexer.EOF
		}
		if stmt := p.parseStatement(); stmt != nil {
			b.Statements = append(b.Statements, stmt)
		}
	}
	return lexer.ILLEGAL
}

func (p *Parser) parseStatement() ast.Statement {
	if p.failed() {
		return nil
	}
	tok := p.cur()

	switch tok.Type {
	case lexer.SEMICOLON:
		p.advance()
		return nil
	case lexer.PLUS, lexer.MINUS:
		if p.peekIs(1, tok.Type) {
			return p.statementExpression(p.parseUnary())
		}
	case lexer.IF:
		p.advance()
		return p.parseIf(tok)
	case lexer.FOR:
		p.advance()
		return p.parseFor(tok)
	case lexer.ASYNC:
		p.advance()
		if !p.match(lexer.FUNCTION) {
			p.addError("PARSE-0008", p.cur(), nil)
			return nil
		}
		return p.nilStatement(p.parseFunction(tok, true, false, nil))
	case lexer.AWAIT:
		p.advance()
		return p.parseAwait(tok)
	case lexer.FUNCTION:
		p.advance()
		return p.nilStatement(p.parseFunction(tok, false, false, nil))
	case lexer.STRUCTURE:
		p.advance()
		return p.parseStructure(tok, false)
	case lexer.RETURN:
		p.advance()
		return p.parseReturn(tok)
	case lexer.BREAK:
		p.advance()
		return &ast.BreakStatement{Position: p.at(tok)}
	case lexer.TRY:
		p.advance()
		return p.parseTry(tok)
	case lexer.ENUM:
		p.advance()
		return p.parseEnum(tok, false)
	case lexer.SHOW, lexer.HIDE:
		p.advance()
		return p.parseDeclaration(tok.Type == lexer.SHOW)
	case lexer.SHARP:
		p.advance()
		return p.parseDirective(tok)
	case lexer.READONLY:
		return p.parseAssignment(nil, false)
	case lexer.WORD:
		next := p.peek(1).Type
		switch {
		case (next == lexer.PLUS || next == lexer.MINUS) && p.peekIs(2, next):
			return p.statementExpression(p.parsePostfix())
		case next == lexer.LPAREN:
			call := p.parseCall()
			if call == nil {
				return nil
			}
			if p.curIs(lexer.DOT) || p.curIs(lexer.AS) {
				return p.statementExpression(p.parseBinaryFrom(call, false))
			}
			return call
		case next == lexer.ASSIGN || next == lexer.LBRACKET || next == lexer.DOT:
			return p.parseAssignment(nil, false)
		}
	}

	if p.isType(0) {
		return p.parseDeclaration(false)
	}

	p.addError("PARSE-0001", tok, map[string]any{"Token": describe(tok)})
	return nil
}

// nilStatement avoids a typed nil inside the Statement interface.
func (p *Parser) nilStatement(fd *ast.FunctionDeclaration) ast.Statement {
	if fd == nil {
		return nil
	}
	return fd
}

// statementExpression accepts an expression that may stand alone.
func (p *Parser) statementExpression(expr ast.Expression) ast.Statement {
	if expr == nil {
		return nil
	}
	if stmt, ok := expr.(ast.Statement); ok {
		return stmt
	}
	p.addError("PARSE-0001", expr.Pos().Token, map[string]any{"Token": expr.String()})
	return nil
}

// isType reports whether the token at offset starts a type.
func (p *Parser) isType(offset int) bool {
	tt := p.peek(offset).Type
	if _, ok := typeKinds[tt]; ok {
		return true
	}
	if tt == lexer.STRUCTURE_TYPE || tt == lexer.ENUM_TYPE {
		return p.peekIs(offset+1, lexer.WORD)
	}
	return false
}

// parseType consumes a type if one starts at the cursor.
func (p *Parser) parseType() (ast.TypeRef, bool) {
	tok := p.cur()
	if kind, ok := typeKinds[tok.Type]; ok {
		p.advance()
		return ast.TypeRef{Kind: kind}, true
	}
	switch tok.Type {
	case lexer.STRUCTURE_TYPE, lexer.ENUM_TYPE:
		if !p.peekIs(1, lexer.WORD) {
			return ast.AnyType, false
		}
		p.advance()
		name := p.advance()
		kind := ast.KindStructure
		if tok.Type == lexer.ENUM_TYPE {
			kind = ast.KindEnum
		}
		return ast.TypeRef{Kind: kind, Name: name.Literal}, true
	}
	return ast.AnyType, false
}

// parseDeclaration handles everything that may follow show/hide or a type:
// a typed function, a structure, an enum or a variable.
func (p *Parser) parseDeclaration(show bool) ast.Statement {
	start := p.cur()
	typ, typed := p.parseType()
	async := p.match(lexer.ASYNC)

	switch {
	case p.match(lexer.FUNCTION):
		var ret *ast.TypeRef
		if typed {
			ret = &typ
		}
		return p.nilStatement(p.parseFunction(start, async, show, ret))
	case async:
		p.addError("PARSE-0008", p.cur(), nil)
		return nil
	case p.curIs(lexer.STRUCTURE):
		return p.parseStructure(p.advance(), show)
	case p.curIs(lexer.ENUM):
		return p.parseEnum(p.advance(), show)
	}

	var declared *ast.TypeRef
	if typed {
		declared = &typ
	}
	return p.parseAssignment(declared, show)
}

// parseAssignment parses `[readonly] target [= value]`. A member call such
// as `p.move(1)` is returned as a statement on its own.
func (p *Parser) parseAssignment(declared *ast.TypeRef, show bool) ast.Statement {
	start := p.cur()
	readonly := p.match(lexer.READONLY)
	if readonly && declared == nil && p.isType(0) {
		typ, _ := p.parseType()
		declared = &typ
	}

	left := p.parseBinary(false)
	if left == nil {
		return nil
	}

	if be, ok := left.(*ast.BinaryExpression); ok && !p.curIs(lexer.ASSIGN) {
		if _, isCall := be.Right.(*ast.CallExpression); isCall && be.Operator == ast.Point {
			return be
		}
	}

	stmt := &ast.AssignStatement{Position: p.at(start), Left: left, Declared: declared, Show: show, ReadOnly: readonly}

	switch target := left.(type) {
	case *ast.Identifier:
	case *ast.IndexExpression, *ast.BinaryExpression:
		if declared != nil || (isBinary(target) && target.(*ast.BinaryExpression).Operator != ast.Point) {
			p.addError("PARSE-0010", start, map[string]any{"Target": left.String()})
			return nil
		}
	default:
		p.addError("PARSE-0010", start, map[string]any{"Target": left.String()})
		return nil
	}

	if p.match(lexer.ASSIGN) {
		stmt.Value = p.parseBinary(false)
		if stmt.Value == nil {
			return nil
		}
	} else if declared == nil {
		p.expect(lexer.ASSIGN, "'='")
		return nil
	}
	return stmt
}

func isBinary(e ast.Expression) bool {
	_, ok := e.(*ast.BinaryExpression)
	return ok
}

func (p *Parser) parseReturn(tok lexer.Token) ast.Statement {
	stmt := &ast.ReturnStatement{Position: p.at(tok)}
	switch p.cur().Type {
	case lexer.END, lexer.SEMICOLON, lexer.EOF, lexer.ELSE, lexer.ELIF, lexer.CATCH:
		return stmt
	}
	stmt.Value = p.parseBinary(false)
	if stmt.Value == nil {
		return nil
	}
	return stmt
}

// parseIf parses `if (cond) then ... [elif (cond) then ...] [else ...] end`.
func (p *Parser) parseIf(tok lexer.Token) ast.Statement {
	cond := p.parseCondition()
	if cond == nil {
		return nil
	}
	stmt := &ast.IfStatement{Position: p.at(tok), Condition: cond}
	stmt.Consequence = p.newBlock(tok, p.inLoop, true)
	term := p.parseStatementsUntil(stmt.Consequence, lexer.END, lexer.ELIF, lexer.ELSE)

	for term == lexer.ELIF {
		elifTok := p.tokens[p.pos-1]
		c := p.parseCondition()
		if c == nil {
			return nil
		}
		branch := &ast.ElifBranch{Condition: c, Body: p.newBlock(elifTok, p.inLoop, true)}
		stmt.Elifs = append(stmt.Elifs, branch)
		term = p.parseStatementsUntil(branch.Body, lexer.END, lexer.ELIF, lexer.ELSE)
	}
	if term == lexer.ELSE {
		stmt.Alternative = p.newBlock(p.tokens[p.pos-1], p.inLoop, true)
		term = p.parseStatementsUntil(stmt.Alternative, lexer.END)
	}
	if term != lexer.END {
		return nil
	}
	return stmt
}

// parseCondition parses the condition of an if or elif. The parentheses
// around it are ordinary grouping and then is optional.
func (p *Parser) parseCondition() ast.Expression {
	cond := p.parseBinary(false)
	if cond == nil {
		return nil
	}
	p.match(lexer.THEN)
	return cond
}

// parseFor parses `for (init; cond; step) ... end`.
func (p *Parser) parseFor(tok lexer.Token) ast.Statement {
	if _, ok := p.expect(lexer.LPAREN, "'('"); !ok {
		return nil
	}
	stmt := &ast.ForStatement{Position: p.at(tok)}

	if !p.curIs(lexer.SEMICOLON) {
		var declared *ast.TypeRef
		if typ, ok := p.parseType(); ok {
			declared = &typ
		}
		init, ok := p.parseAssignment(declared, false).(*ast.AssignStatement)
		if !ok {
			if !p.failed() {
				p.addError("PARSE-0010", tok, map[string]any{"Target": "loop initializer"})
			}
			return nil
		}
		stmt.Init = init
	}
	if _, ok := p.expect(lexer.SEMICOLON, "';'"); !ok {
		return nil
	}
	if !p.curIs(lexer.SEMICOLON) {
		if stmt.Condition = p.parseBinary(false); stmt.Condition == nil {
			return nil
		}
	}
	if _, ok := p.expect(lexer.SEMICOLON, "';'"); !ok {
		return nil
	}
	if !p.curIs(lexer.RPAREN) {
		if stmt.Step = p.parseStatement(); stmt.Step == nil {
			if !p.failed() {
				p.addError("PARSE-0001", p.cur(), map[string]any{"Token": describe(p.cur())})
			}
			return nil
		}
	}
	if _, ok := p.expect(lexer.RPAREN, "')'"); !ok {
		return nil
	}

	stmt.Body = p.newBlock(tok, true, true)
	saved := p.inLoop
	p.inLoop = true
	term := p.parseStatementsUntil(stmt.Body, lexer.END)
	p.inLoop = saved
	if term != lexer.END {
		return nil
	}
	return stmt
}

func (p *Parser) parseTry(tok lexer.Token) ast.Statement {
	stmt := &ast.TryStatement{Position: p.at(tok)}
	stmt.Body = p.newBlock(tok, p.inLoop, true)
	if p.parseStatementsUntil(stmt.Body, lexer.CATCH) != lexer.CATCH {
		return nil
	}
	stmt.Catch = p.newBlock(p.tokens[p.pos-1], p.inLoop, true)
	if p.parseStatementsUntil(stmt.Catch, lexer.END) != lexer.END {
		return nil
	}
	return stmt
}

func (p *Parser) parseAwait(tok lexer.Token) ast.Statement {
	expr := p.parsePrimary()
	call, ok := expr.(*ast.CallExpression)
	if !ok {
		if !p.failed() {
			p.addError("PARSE-0007", tok, nil)
		}
		return nil
	}
	return &ast.AwaitStatement{Position: p.at(tok), Call: call}
}

// parseFunction parses the rest of a function after the function keyword:
// name, parameters and body.
func (p *Parser) parseFunction(tok lexer.Token, async, show bool, ret *ast.TypeRef) *ast.FunctionDeclaration {
	name, ok := p.expectName("function")
	if !ok {
		return nil
	}
	fd := &ast.FunctionDeclaration{
		Position:   p.at(tok),
		Name:       name.Literal,
		ReturnType: ret,
		Async:      async,
		Show:       show,
	}

	if p.extension != "" {
		ext := p.extension
		p.extension = ""
		if !knownExtension(ext) {
			p.addError("PARSE-0006", tok, map[string]any{"Name": ext, "Suggestion": perrors.FindClosestMatch(ext, Extensions)})
			return nil
		}
		fd.Extension = ext
	}

	params, ok := p.parseParameters()
	if !ok {
		return nil
	}
	fd.Parameters = params

	// Function bodies start a fresh loop context: break inside a function
	// never reaches a loop around the call.
	fd.Body = p.newBlock(tok, false, false)
	saved := p.inLoop
	p.inLoop = false
	term := p.parseStatementsUntil(fd.Body, lexer.END)
	p.inLoop = saved
	if term != lexer.END {
		return nil
	}
	return fd
}

func knownExtension(name string) bool {
	for _, e := range Extensions {
		if e == name {
			return true
		}
	}
	return false
}

// parseParameters parses an optional `(required type name[], ...)` list.
func (p *Parser) parseParameters() ([]ast.Parameter, bool) {
	var params []ast.Parameter
	if !p.match(lexer.LPAREN) {
		return params, true
	}
	for !p.match(lexer.RPAREN) {
		if p.failed() {
			return nil, false
		}
		if p.curIs(lexer.EOF) {
			p.expect(lexer.RPAREN, "')'")
			return nil, false
		}
		if p.match(lexer.COMMA) {
			continue
		}
		param := ast.Parameter{Required: p.match(lexer.REQUIRED), Type: ast.AnyType}
		if p.isType(0) {
			param.Type, _ = p.parseType()
		}
		name, ok := p.expectName("argument")
		if !ok {
			return nil, false
		}
		param.Name = name.Literal
		if p.match(lexer.LBRACKET) {
			if _, ok := p.expect(lexer.RBRACKET, "']'"); !ok {
				return nil, false
			}
			param.Array = true
		}
		params = append(params, param)
	}
	return params, true
}

// parseStructure parses `structure Name members... end`.
func (p *Parser) parseStructure(tok lexer.Token, show bool) ast.Statement {
	name, ok := p.expectName("structure")
	if !ok {
		return nil
	}
	sd := &ast.StructureDeclaration{Position: p.at(tok), Name: name.Literal, Show: show}
	for !p.match(lexer.END) {
		if p.failed() {
			return nil
		}
		if p.curIs(lexer.EOF) {
			p.expect(lexer.END, "'end'")
			return nil
		}
		if p.match(lexer.SEMICOLON) {
			continue
		}
		m := p.parseStructureMember()
		if m == nil {
			return nil
		}
		sd.Members = append(sd.Members, m)
	}
	return sd
}

// parseStructureMember parses
//
//	[show|hide] [readonly] [castable] type name;
//	[show|hide] delegate [async] [type] function name(params);
//
// Members are visible unless marked hide.
func (p *Parser) parseStructureMember() *ast.StructureMember {
	m := &ast.StructureMember{Show: true}
	if !p.match(lexer.SHOW) && p.match(lexer.HIDE) {
		m.Show = false
	}
	m.ReadOnly = p.match(lexer.READONLY)
	m.Castable = p.match(lexer.CASTABLE)

	if p.match(lexer.DELEGATE) {
		m.Callable = true
		m.Async = p.match(lexer.ASYNC)
		m.Type, _ = p.parseType()
		if _, ok := p.expect(lexer.FUNCTION, "'function'"); !ok {
			return nil
		}
		name, ok := p.expectName("delegate")
		if !ok {
			return nil
		}
		m.Name = name.Literal
		if m.Parameters, ok = p.parseParameters(); !ok {
			return nil
		}
	} else {
		typ, ok := p.parseType()
		if !ok {
			p.addError("PARSE-0011", p.cur(), map[string]any{"Got": describe(p.cur())})
			return nil
		}
		m.Type = typ
		name, ok := p.expectName("member")
		if !ok {
			return nil
		}
		m.Name = name.Literal
	}
	if _, ok := p.expect(lexer.SEMICOLON, "';'"); !ok {
		return nil
	}
	return m
}

// parseEnum parses `enum Name a = 1; b = 2; end`.
func (p *Parser) parseEnum(tok lexer.Token, show bool) ast.Statement {
	name, ok := p.expectName("enum")
	if !ok {
		return nil
	}
	ed := &ast.EnumDeclaration{Position: p.at(tok), Name: name.Literal, Show: show}
	for !p.match(lexer.END) {
		if p.failed() {
			return nil
		}
		if p.curIs(lexer.EOF) {
			p.expect(lexer.END, "'end'")
			return nil
		}
		if p.match(lexer.SEMICOLON) {
			continue
		}
		member, ok := p.expectName("enum member")
		if !ok {
			return nil
		}
		if _, ok := p.expect(lexer.ASSIGN, "'='"); !ok {
			return nil
		}
		valTok := p.cur()
		if valTok.Type != lexer.NUMBER {
			p.addError("PARSE-0004", valTok, map[string]any{"Member": member.Literal})
			return nil
		}
		p.advance()
		v, err := strconv.ParseFloat(valTok.Literal, 64)
		if err != nil {
			p.addError("PARSE-0004", valTok, map[string]any{"Member": member.Literal})
			return nil
		}
		ed.Members = append(ed.Members, ast.EnumMember{Name: member.Literal, Value: v})
	}
	return ed
}

// parseDirective parses `#extension Name`, which marks the next function
// as an extension method.
func (p *Parser) parseDirective(tok lexer.Token) ast.Statement {
	if !p.match(lexer.EXTENSION) {
		p.addError("PARSE-0009", p.cur(), map[string]any{"Name": describe(p.cur())})
		return nil
	}
	name, ok := p.expectName("extension")
	if !ok {
		return nil
	}
	p.extension = name.Literal
	return &ast.DirectiveStatement{Position: p.at(tok), Name: "extension", Argument: name.Literal}
}

// Expressions

// parseBinary parses the loose operator level. When ignoreLogic is set, and
// and or are left for the caller.
func (p *Parser) parseBinary(ignoreLogic bool) ast.Expression {
	if p.failed() {
		return nil
	}
	if p.curIs(lexer.WORD) {
		next := p.peek(1).Type
		if (next == lexer.PLUS || next == lexer.MINUS) && p.peekIs(2, next) {
			return p.parsePostfix()
		}
	}
	left := p.parseMultiplicative()
	if left == nil {
		return nil
	}
	return p.parseBinaryFrom(left, ignoreLogic)
}

func (p *Parser) parseBinaryFrom(left ast.Expression, ignoreLogic bool) ast.Expression {
	for !p.failed() {
		tok := p.cur()
		var op ast.BinaryOp
		var right ast.Expression

		switch tok.Type {
		case lexer.PLUS, lexer.MINUS:
			if p.peekIs(1, tok.Type) {
				return left
			}
			op = ast.Plus
			if tok.Type == lexer.MINUS {
				op = ast.Minus
			}
			p.advance()
			right = p.parseBinary(true)
		case lexer.IS:
			op = ast.Is
			p.advance()
			right = p.parseBinary(false)
		case lexer.AND, lexer.OR:
			if ignoreLogic {
				return left
			}
			op = ast.And
			if tok.Type == lexer.OR {
				op = ast.Or
			}
			p.advance()
			right = p.parseBinary(false)
		case lexer.LT:
			op = ast.Less
			p.advance()
			right = p.parseBinary(false)
		case lexer.GT:
			op = ast.More
			p.advance()
			right = p.parseBinary(true)
		case lexer.DOT:
			op = ast.Point
			p.advance()
			right = p.parsePrimary()
		case lexer.AS:
			op = ast.As
			p.advance()
			right = p.parsePrimary()
		default:
			return left
		}

		if right == nil {
			return nil
		}
		left = &ast.BinaryExpression{Position: p.at(tok), Operator: op, Left: left, Right: right}
	}
	return nil
}

func (p *Parser) parseMultiplicative() ast.Expression {
	left := p.parseUnary()
	if left == nil {
		return nil
	}
	for p.curIs(lexer.ASTERISK) || p.curIs(lexer.SLASH) {
		tok := p.advance()
		op := ast.Multiply
		if tok.Type == lexer.SLASH {
			op = ast.Divide
		}
		right := p.parseMultiplicative()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpression{Position: p.at(tok), Operator: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expression {
	tok := p.cur()
	switch tok.Type {
	case lexer.PLUS:
		p.advance()
		if p.match(lexer.PLUS) {
			return p.unary(tok, ast.IncrementPrefix, p.parsePrimary())
		}
		return p.parsePrimary()
	case lexer.MINUS:
		p.advance()
		if p.match(lexer.MINUS) {
			return p.unary(tok, ast.DecrementPrefix, p.parsePrimary())
		}
		return p.unary(tok, ast.Negate, p.parsePrimary())
	}
	return p.parsePrimary()
}

func (p *Parser) unary(tok lexer.Token, op ast.UnaryOp, operand ast.Expression) ast.Expression {
	if operand == nil {
		return nil
	}
	return &ast.UnaryExpression{Position: p.at(tok), Operator: op, Operand: operand}
}

// parsePostfix parses `name++` or `name--`.
func (p *Parser) parsePostfix() ast.Expression {
	name := p.advance()
	first, second := p.advance(), p.advance()
	if first.Type != second.Type {
		p.addError("PARSE-0005", first, nil)
		return nil
	}
	op := ast.IncrementPostfix
	if first.Type == lexer.MINUS {
		op = ast.DecrementPostfix
	}
	ident := &ast.Identifier{Position: p.at(name), Name: name.Literal}
	return &ast.UnaryExpression{Position: p.at(name), Operator: op, Operand: ident}
}

func (p *Parser) parsePrimary() ast.Expression {
	if p.failed() {
		return nil
	}
	tok := p.cur()

	switch tok.Type {
	case lexer.NUMBER:
		p.advance()
		v, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			p.addFault(perrors.NewAt("LEX-0004", p.filename, tok.Line, tok.Column, nil))
			return nil
		}
		return &ast.NumberLiteral{Position: p.at(tok), Value: v}
	case lexer.STRING:
		p.advance()
		return &ast.StringLiteral{Position: p.at(tok), Value: tok.Literal}
	case lexer.CHAR:
		p.advance()
		r, _ := utf8.DecodeRuneInString(tok.Literal)
		return &ast.CharLiteral{Position: p.at(tok), Value: r}
	case lexer.TRUE, lexer.FALSE:
		p.advance()
		return &ast.BooleanLiteral{Position: p.at(tok), Value: tok.Type == lexer.TRUE}
	case lexer.NONE:
		p.advance()
		return &ast.NoneLiteral{Position: p.at(tok)}
	case lexer.WORD:
		switch {
		case p.peekIs(1, lexer.LBRACKET):
			return p.parseIndex()
		case p.peekIs(1, lexer.LPAREN):
			if call := p.parseCall(); call != nil {
				return call
			}
			return nil
		}
		p.advance()
		return &ast.Identifier{Position: p.at(tok), Name: tok.Literal}
	case lexer.LPAREN:
		p.advance()
		expr := p.parseBinary(false)
		if expr == nil {
			return nil
		}
		if _, ok := p.expect(lexer.RPAREN, "')'"); !ok {
			return nil
		}
		return expr
	case lexer.LBRACKET:
		p.advance()
		return p.parseArray(tok)
	case lexer.NOT:
		p.advance()
		operand := p.parseBinary(false)
		if operand == nil {
			return nil
		}
		return &ast.NotExpression{Position: p.at(tok), Operand: operand}
	case lexer.NEW:
		p.advance()
		name, ok := p.expectName("structure")
		if !ok {
			return nil
		}
		return &ast.NewExpression{Position: p.at(tok), Name: name.Literal}
	case lexer.FUNCTION:
		p.advance()
		if fd := p.parseFunction(tok, false, false, nil); fd != nil {
			return fd
		}
		return nil
	case lexer.ASYNC:
		if p.peekIs(1, lexer.FUNCTION) {
			p.advance()
			p.advance()
			if fd := p.parseFunction(tok, true, false, nil); fd != nil {
				return fd
			}
			return nil
		}
	}

	if p.isType(0) {
		typ, _ := p.parseType()
		if p.match(lexer.FUNCTION) {
			if fd := p.parseFunction(tok, false, false, &typ); fd != nil {
				return fd
			}
			return nil
		}
		return &ast.TypeLiteral{Position: p.at(tok), Type: typ}
	}

	p.addError("PARSE-0001", tok, map[string]any{"Token": describe(tok)})
	return nil
}

// parseCall parses `name(arg, ...)`.
func (p *Parser) parseCall() *ast.CallExpression {
	name := p.advance()
	call := &ast.CallExpression{Position: p.at(name), Name: name.Literal}
	p.advance() // (
	for !p.match(lexer.RPAREN) {
		if p.failed() {
			return nil
		}
		if p.curIs(lexer.EOF) {
			p.expect(lexer.RPAREN, "')'")
			return nil
		}
		if p.match(lexer.COMMA) {
			continue
		}
		arg := p.parseBinary(false)
		if arg == nil {
			return nil
		}
		call.Arguments = append(call.Arguments, arg)
	}
	return call
}

// parseIndex parses `name[i][j]...`.
func (p *Parser) parseIndex() ast.Expression {
	name := p.advance()
	ie := &ast.IndexExpression{Position: p.at(name), Name: name.Literal}
	for p.match(lexer.LBRACKET) {
		idx := p.parseBinary(false)
		if idx == nil {
			return nil
		}
		if _, ok := p.expect(lexer.RBRACKET, "']'"); !ok {
			return nil
		}
		ie.Indices = append(ie.Indices, idx)
	}
	return ie
}

func (p *Parser) parseArray(tok lexer.Token) ast.Expression {
	arr := &ast.ArrayLiteral{Position: p.at(tok)}
	for !p.match(lexer.RBRACKET) {
		if p.failed() {
			return nil
		}
		if p.curIs(lexer.EOF) {
			p.expect(lexer.RBRACKET, "']'")
			return nil
		}
		if p.match(lexer.COMMA) {
			continue
		}
		el := p.parseBinary(false)
		if el == nil {
			return nil
		}
		arr.Elements = append(arr.Elements, el)
	}
	return arr
}

// Parse is a convenience wrapper that tokenizes and parses source.
func Parse(source, filename string) (*ast.Block, error) {
	p := New(lexer.NewWithFilename(source, filename))
	program := p.ParseProgram()
	if err := p.Err(); err != nil {
		return nil, err
	}
	return program, nil
}
