// Package lexer turns Paganism source text into tokens.
//
// The tokenizer walks the source line by line. Letters accumulate in a word
// buffer which is flushed when a space, an operator or the end of a line is
// reached; a flushed buffer that matches a reserved word becomes a keyword
// token, otherwise a WORD. Strings, chars and numbers have dedicated
// sub-scanners. Strings and chars may span lines and have no escapes.
package lexer

import (
	"strings"
	"unicode/utf8"

	perrors "github.com/sambeau/paganism/pkg/paganism/errors"
)

// Lexer represents the lexical analyzer
type Lexer struct {
	filename string
	lines    []string
	line     int // current line index
	pos      int // current byte offset within the line

	word      strings.Builder
	wordLine  int
	wordStart int
	tokens    []Token
}

// New creates a new lexer instance
func New(input string) *Lexer {
	return NewWithFilename(input, "<input>")
}

// NewWithFilename creates a new lexer instance with a specific filename
func NewWithFilename(input, filename string) *Lexer {
	input = strings.ReplaceAll(input, "\r\n", "\n")
	return NewFromLines(strings.Split(input, "\n"), filename)
}

// NewFromLines creates a lexer over pre-split source lines.
func NewFromLines(lines []string, filename string) *Lexer {
	l := &Lexer{filename: filename}
	for _, line := range lines {
		l.lines = append(l.lines, line+"\n")
	}
	l.lines = append(l.lines, "")
	return l
}

// Filename returns the name faults are reported against.
func (l *Lexer) Filename() string { return l.filename }

// Run tokenizes the whole input. The returned sequence does not include an
// EOF token; the parser synthesizes one.
func (l *Lexer) Run() ([]Token, error) {
	for l.line < len(l.lines) {
		text := l.lines[l.line]
		for l.pos < len(text) {
			if err := l.step(text); err != nil {
				return nil, err
			}
		}
		l.flushWord()
		l.line++
		l.pos = 0
	}
	return l.tokens, nil
}

func (l *Lexer) step(text string) error {
	ch := text[l.pos]

	if ch == '/' && l.pos+1 < len(text) && text[l.pos+1] == '/' {
		l.flushWord()
		l.pos = len(text)
		return nil
	}
	if ch == '\t' {
		l.pos++
		return nil
	}

	// A complete reserved word is only a keyword when a delimiter follows it,
	// so "format" does not split into "for" + "mat".
	if _, ok := LookupKeyword(l.word.String()); ok {
		if ch == ' ' || ch == '\n' || ch == '\r' || IsOperator(ch) {
			l.flushWord()
			return nil
		}
		l.appendByte(ch)
		return nil
	}

	switch {
	case IsOperator(ch):
		l.flushWord()
		l.readOperator(text)
	case ch == '"':
		l.flushWord()
		return l.readQuoted('"', STRING, "LEX-0001")
	case ch == '\'':
		l.flushWord()
		return l.readQuoted('\'', CHAR, "LEX-0002")
	case isDigit(ch) && l.word.Len() == 0:
		return l.readNumber()
	case ch == ' ' || ch == '\n' || ch == '\r':
		l.flushWord()
		l.pos++
	default:
		l.appendByte(ch)
	}
	return nil
}

func (l *Lexer) appendByte(ch byte) {
	if l.word.Len() == 0 {
		l.wordLine = l.line
		l.wordStart = l.pos
	}
	l.word.WriteByte(ch)
	l.pos++
}

// flushWord emits the buffered word as a keyword or WORD token.
func (l *Lexer) flushWord() {
	if l.word.Len() == 0 {
		return
	}
	word := l.word.String()
	l.word.Reset()
	tt, ok := LookupKeyword(word)
	if !ok {
		tt = WORD
	}
	l.emit(tt, word, l.wordLine, l.wordStart)
}

func (l *Lexer) emit(tt TokenType, literal string, line, pos int) {
	l.tokens = append(l.tokens, Token{Type: tt, Literal: literal, Line: line + 1, Column: pos + 1})
}

// readOperator emits a single-character operator token. Compound forms such
// as ++ are left to the parser, which sees two adjacent tokens.
func (l *Lexer) readOperator(text string) {
	ch := text[l.pos]
	l.emit(operators[ch], string(ch), l.line, l.pos)
	l.pos++
}

// readQuoted scans a string or char literal, which may continue over
// several lines. The closing quote is consumed.
func (l *Lexer) readQuoted(quote byte, tt TokenType, unterminated string) error {
	startLine, startPos := l.line, l.pos
	l.pos++

	var sb strings.Builder
	for l.line < len(l.lines) {
		text := l.lines[l.line]
		if idx := strings.IndexByte(text[l.pos:], quote); idx >= 0 {
			sb.WriteString(text[l.pos : l.pos+idx])
			l.pos += idx + 1
			literal := sb.String()
			if tt == CHAR && utf8.RuneCountInString(literal) != 1 {
				return perrors.NewAt("LEX-0005", l.filename, startLine+1, startPos+1,
					map[string]any{"Literal": literal})
			}
			l.emit(tt, literal, startLine, startPos)
			return nil
		}
		sb.WriteString(text[l.pos:])
		l.line++
		l.pos = 0
	}
	// Leave the cursor on the sentinel line so Run terminates.
	l.line = len(l.lines) - 1
	return perrors.NewAt(unterminated, l.filename, startLine+1, startPos+1, nil)
}

// readNumber scans digits with at most one decimal marker.
func (l *Lexer) readNumber() error {
	text := l.lines[l.line]
	start := l.pos
	dot := false
	for l.pos < len(text) {
		ch := text[l.pos]
		switch {
		case isDigit(ch):
		case ch == '.':
			if dot {
				return perrors.NewAt("LEX-0003", l.filename, l.line+1, l.pos+1, nil)
			}
			dot = true
		default:
			l.emit(NUMBER, text[start:l.pos], l.line, start)
			return nil
		}
		l.pos++
	}
	// Every real line ends in a newline, so only the sentinel gets here.
	return perrors.NewAt("LEX-0004", l.filename, l.line+1, start+1, nil)
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
