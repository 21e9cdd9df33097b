package lexer

import "fmt"

// TokenType represents different types of tokens
type TokenType int

const (
	// Special tokens
	ILLEGAL TokenType = iota
	EOF

	// Identifiers and literals
	WORD   // add, x, Point
	NUMBER // 5, 3.14
	STRING // "text"
	CHAR   // 'c'

	// Keywords
	FUNCTION
	END
	STRING_TYPE  // string, str
	NUMBER_TYPE  // number, nbr, nmr
	BOOLEAN_TYPE // boolean, bool
	ANY_TYPE
	CHAR_TYPE
	OBJECT_TYPE
	RETURN
	NONE
	TRUE  // true, yes
	FALSE // false, no
	IF
	ELIF
	ELSE
	THEN
	IS
	AND
	OR
	NOT
	FOR
	BREAK
	STRUCTURE // structure, struct
	SHOW      // show, public
	HIDE      // hide, prvate
	CASTABLE
	ASYNC
	AWAIT
	REQUIRED // required, rqr
	STRUCTURE_TYPE
	ENUM_TYPE
	AS
	DELEGATE
	TRY
	CATCH
	ENUM
	NEW
	READONLY
	EXTENSION

	// Operators
	PLUS      // +
	MINUS     // -
	ASTERISK  // *
	SLASH     // /
	SEMICOLON // ;
	COLON     // :
	LPAREN    // (
	RPAREN    // )
	LBRACKET  // [
	RBRACKET  // ]
	COMMA     // ,
	ASSIGN    // =
	LT        // <
	GT        // >
	DOT       // .
	SHARP     // #
)

var tokenNames = map[TokenType]string{
	ILLEGAL:        "ILLEGAL",
	EOF:            "EOF",
	WORD:           "WORD",
	NUMBER:         "NUMBER",
	STRING:         "STRING",
	CHAR:           "CHAR",
	FUNCTION:       "FUNCTION",
	END:            "END",
	STRING_TYPE:    "STRING_TYPE",
	NUMBER_TYPE:    "NUMBER_TYPE",
	BOOLEAN_TYPE:   "BOOLEAN_TYPE",
	ANY_TYPE:       "ANY_TYPE",
	CHAR_TYPE:      "CHAR_TYPE",
	OBJECT_TYPE:    "OBJECT_TYPE",
	RETURN:         "RETURN",
	NONE:           "NONE",
	TRUE:           "TRUE",
	FALSE:          "FALSE",
	IF:             "IF",
	ELIF:           "ELIF",
	ELSE:           "ELSE",
	THEN:           "THEN",
	IS:             "IS",
	AND:            "AND",
	OR:             "OR",
	NOT:            "NOT",
	FOR:            "FOR",
	BREAK:          "BREAK",
	STRUCTURE:      "STRUCTURE",
	SHOW:           "SHOW",
	HIDE:           "HIDE",
	CASTABLE:       "CASTABLE",
	ASYNC:          "ASYNC",
	AWAIT:          "AWAIT",
	REQUIRED:       "REQUIRED",
	STRUCTURE_TYPE: "STRUCTURE_TYPE",
	ENUM_TYPE:      "ENUM_TYPE",
	AS:             "AS",
	DELEGATE:       "DELEGATE",
	TRY:            "TRY",
	CATCH:          "CATCH",
	ENUM:           "ENUM",
	NEW:            "NEW",
	READONLY:       "READONLY",
	EXTENSION:      "EXTENSION",
	PLUS:           "+",
	MINUS:          "-",
	ASTERISK:       "*",
	SLASH:          "/",
	SEMICOLON:      ";",
	COLON:          ":",
	LPAREN:         "(",
	RPAREN:         ")",
	LBRACKET:       "[",
	RBRACKET:       "]",
	COMMA:          ",",
	ASSIGN:         "=",
	LT:             "<",
	GT:             ">",
	DOT:            ".",
	SHARP:          "#",
}

// String returns a string representation of the token type
func (tt TokenType) String() string {
	if name, ok := tokenNames[tt]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Token represents a single token
type Token struct {
	Type    TokenType
	Literal string
	Line    int // 1-based
	Column  int // 1-based
}

// String returns a string representation of the token
func (t Token) String() string {
	return fmt.Sprintf("{Type: %s, Literal: %s, Line: %d, Column: %d}",
		t.Type.String(), t.Literal, t.Line, t.Column)
}

var keywords = map[string]TokenType{
	"function":       FUNCTION,
	"end":            END,
	"string":         STRING_TYPE,
	"str":            STRING_TYPE,
	"number":         NUMBER_TYPE,
	"nbr":            NUMBER_TYPE,
	"nmr":            NUMBER_TYPE,
	"boolean":        BOOLEAN_TYPE,
	"bool":           BOOLEAN_TYPE,
	"any":            ANY_TYPE,
	"char":           CHAR_TYPE,
	"object":         OBJECT_TYPE,
	"return":         RETURN,
	"none":           NONE,
	"true":           TRUE,
	"yes":            TRUE,
	"false":          FALSE,
	"no":             FALSE,
	"if":             IF,
	"elif":           ELIF,
	"else":           ELSE,
	"then":           THEN,
	"is":             IS,
	"and":            AND,
	"or":             OR,
	"not":            NOT,
	"for":            FOR,
	"break":          BREAK,
	"structure":      STRUCTURE,
	"struct":         STRUCTURE,
	"show":           SHOW,
	"public":         SHOW,
	"hide":           HIDE,
	"prvate":         HIDE,
	"castable":       CASTABLE,
	"async":          ASYNC,
	"await":          AWAIT,
	"required":       REQUIRED,
	"rqr":            REQUIRED,
	"structure_type": STRUCTURE_TYPE,
	"enum_type":      ENUM_TYPE,
	"as":             AS,
	"delegate":       DELEGATE,
	"try":            TRY,
	"catch":          CATCH,
	"enum":           ENUM,
	"new":            NEW,
	"readonly":       READONLY,
	"extension":      EXTENSION,
}

var operators = map[byte]TokenType{
	'+': PLUS,
	'-': MINUS,
	'*': ASTERISK,
	'/': SLASH,
	';': SEMICOLON,
	':': COLON,
	'(': LPAREN,
	')': RPAREN,
	'[': LBRACKET,
	']': RBRACKET,
	',': COMMA,
	'=': ASSIGN,
	'<': LT,
	'>': GT,
	'.': DOT,
	'#': SHARP,
}

// LookupKeyword reports whether word is a reserved word and its token type.
func LookupKeyword(word string) (TokenType, bool) {
	tt, ok := keywords[word]
	return tt, ok
}

// IsOperator reports whether ch starts an operator token.
func IsOperator(ch byte) bool {
	_, ok := operators[ch]
	return ok
}

// Keywords returns every reserved word, for completion and suggestions.
func Keywords() []string {
	words := make([]string, 0, len(keywords))
	for w := range keywords {
		words = append(words, w)
	}
	return words
}
