package errors

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func TestFault_Error(t *testing.T) {
	tests := []struct {
		name     string
		fault    *Fault
		expected string
	}{
		{
			name:     "unpositioned",
			fault:    &Fault{Kind: KindInterpreter, Message: "boom"},
			expected: "Interpreter error: boom",
		},
		{
			name:     "lexer",
			fault:    &Fault{Kind: KindLex, Message: "Two decimal markers in number.", Line: 3, Column: 7},
			expected: "Lexer error: Two decimal markers in number. Line: 3, position: 7",
		},
		{
			name:     "parser",
			fault:    &Fault{Kind: KindParse, Message: "Unknown expression ).", Line: 1, Column: 1},
			expected: "Parser error: Unknown expression ). Line: 1, position: 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fault.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestNew_Catalog(t *testing.T) {
	f := New("RUN-0002", map[string]any{"Op": "addition", "Left": "Boolean", "Right": "Number"})
	if f.Kind != KindInterpreter {
		t.Errorf("Kind = %q, want %q", f.Kind, KindInterpreter)
	}
	if f.Message != "You cant addition type Boolean and Number" {
		t.Errorf("Message = %q", f.Message)
	}
	if f.Code != "RUN-0002" {
		t.Errorf("Code = %q", f.Code)
	}
}

func TestNew_UnknownCode(t *testing.T) {
	f := New("NOPE-0001", map[string]any{"message": "custom"})
	if f.Message != "custom" {
		t.Errorf("Message = %q, want custom", f.Message)
	}
	if f.Kind != KindInterpreter {
		t.Errorf("Kind = %q", f.Kind)
	}
}

func TestNewNotFound_Suggestion(t *testing.T) {
	f := NewNotFound("Function", "pritnln", []string{"print", "println", "read"})
	if f.Message != "Function with 'pritnln' name not found" {
		t.Errorf("Message = %q", f.Message)
	}
	if len(f.Hints) != 1 || !strings.Contains(f.Hints[0], "println") {
		t.Errorf("Hints = %v, want suggestion for println", f.Hints)
	}

	f = NewNotFound("Variable", "zzz", []string{"alpha"})
	if len(f.Hints) != 0 {
		t.Errorf("expected no hints, got %v", f.Hints)
	}
	if strings.Contains(f.Message, "<no value>") {
		t.Errorf("unrendered placeholder in %q", f.Message)
	}
}

func TestNewAt(t *testing.T) {
	f := NewAt("LEX-0001", "main.pgm", 4, 2, nil)
	if f.File != "main.pgm" || f.Line != 4 || f.Column != 2 {
		t.Errorf("position = %s:%d:%d", f.File, f.Line, f.Column)
	}
	if !f.Positioned() {
		t.Error("expected Positioned() to be true")
	}
	moved := f.WithPosition("other.pgm", 9, 9)
	if f.Line != 4 || moved.Line != 9 || moved.File != "other.pgm" {
		t.Error("WithPosition must copy the fault")
	}
}

func TestAs(t *testing.T) {
	wrapped := fmt.Errorf("running: %w", New("RUN-0004", map[string]any{"Index": 3, "Name": "xs", "Length": 1}))
	f, ok := As(wrapped)
	if !ok {
		t.Fatal("expected As to find the fault")
	}
	if f.Code != "RUN-0004" {
		t.Errorf("Code = %q", f.Code)
	}
	if _, ok := As(fmt.Errorf("plain")); ok {
		t.Error("plain errors are not faults")
	}
}

func TestFault_ToJSON(t *testing.T) {
	f := NewAt("PARSE-0001", "a.pgm", 2, 5, map[string]any{"Token": ")"})
	data, err := f.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded["kind"] != "ParseError" {
		t.Errorf("kind = %v", decoded["kind"])
	}
	if decoded["line"] != float64(2) {
		t.Errorf("line = %v", decoded["line"])
	}
}

func TestPrettyString(t *testing.T) {
	f := NewAt("RUN-0001", "main.pgm", 3, 1, map[string]any{"Storage": "Variable", "Name": "x", "Suggestion": "y"})
	got := f.PrettyString()
	for _, want := range []string{"Interpreter error", "in: main.pgm", "line 3", "Did you mean `y`?"} {
		if !strings.Contains(got, want) {
			t.Errorf("PrettyString() missing %q in:\n%s", want, got)
		}
	}
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"abc", "abc", 0},
		{"abc", "abd", 1},
		{"kitten", "sitting", 3},
		{"pritn", "print", 2},
	}
	for _, tt := range tests {
		if got := levenshteinDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestFindClosestMatch(t *testing.T) {
	names := []string{"print", "println", "read", "millitime", "pgm_size", "pgm_resize", "import", "cs_call"}
	tests := []struct {
		input string
		want  string
	}{
		{"prnt", "print"},
		{"raed", "read"},
		{"millitme", "millitime"},
		{"pgm_siz", "pgm_size"},
		{"print", ""},
		{"xyz", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := FindClosestMatch(tt.input, names); got != tt.want {
			t.Errorf("FindClosestMatch(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
