// Package errors provides the fault type shared by the Paganism tokenizer,
// parser and evaluator.
//
// Every failure raised while running a program is a *Fault. A fault carries
// its kind (LexError, ParseError or InterpreterError), a catalog code, the
// rendered message and the 1-based source position it was raised at. Faults
// are ordinary Go errors and are the values surfaced to script code through
// try/catch.
package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// Kind names the stage that raised a fault.
type Kind string

const (
	KindLex         Kind = "LexError"
	KindParse       Kind = "ParseError"
	KindInterpreter Kind = "InterpreterError"
)

// Label is the human prefix used when a fault is printed.
func (k Kind) Label() string {
	switch k {
	case KindLex:
		return "Lexer"
	case KindParse:
		return "Parser"
	default:
		return "Interpreter"
	}
}

// Fault is a positioned error raised by any stage of the language.
type Fault struct {
	Kind    Kind           `json:"kind"`
	Code    string         `json:"code,omitempty"`
	Message string         `json:"message"`
	Hints   []string       `json:"hints,omitempty"`
	File    string         `json:"file,omitempty"`
	Line    int            `json:"line"`   // 1-based line (0 if unknown)
	Column  int            `json:"column"` // 1-based column (0 if unknown)
	Data    map[string]any `json:"data,omitempty"`
}

// Error renders the fault as "<Stage> error: <message> Line: L, position: P".
func (f *Fault) Error() string {
	var sb strings.Builder
	sb.WriteString(f.Kind.Label())
	sb.WriteString(" error: ")
	sb.WriteString(f.Message)
	if f.Line > 0 {
		fmt.Fprintf(&sb, " Line: %d, position: %d", f.Line, f.Column)
	}
	return sb.String()
}

// PrettyString returns a multi-line rendering with file and hints.
func (f *Fault) PrettyString() string {
	var sb strings.Builder
	sb.WriteString(f.Kind.Label())
	sb.WriteString(" error")
	if f.File != "" {
		sb.WriteString(":\n  in: ")
		sb.WriteString(f.File)
		if f.Line > 0 {
			fmt.Fprintf(&sb, "\n  at: line %d, position %d", f.Line, f.Column)
		}
		sb.WriteString("\n  ")
	} else if f.Line > 0 {
		fmt.Fprintf(&sb, ": line %d, position %d\n  ", f.Line, f.Column)
	} else {
		sb.WriteString(":\n  ")
	}
	sb.WriteString(f.Message)
	for _, hint := range f.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}
	return sb.String()
}

// ToJSON returns the fault as JSON bytes.
func (f *Fault) ToJSON() ([]byte, error) {
	return json.Marshal(f)
}

// WithPosition returns a copy of the fault positioned at file:line:column.
func (f *Fault) WithPosition(file string, line, column int) *Fault {
	c := *f
	c.File = file
	c.Line = line
	c.Column = column
	return &c
}

// Positioned reports whether the fault already carries a source line.
func (f *Fault) Positioned() bool {
	return f.Line > 0
}

// As extracts a *Fault from err.
func As(err error) (*Fault, bool) {
	var f *Fault
	if stderrors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// Def describes a catalog entry.
type Def struct {
	Kind     Kind
	Template string   // message template with {{.placeholders}}
	Hints    []string // hint templates
}

// Catalog maps fault codes to their definitions.
var Catalog = map[string]Def{
	// Tokenizer
	"LEX-0001": {Kind: KindLex, Template: "Unterminated string literal."},
	"LEX-0002": {Kind: KindLex, Template: "Unterminated char literal."},
	"LEX-0003": {Kind: KindLex, Template: "Two decimal markers in number."},
	"LEX-0004": {Kind: KindLex, Template: "Number is infinity"},
	"LEX-0005": {
		Kind:     KindLex,
		Template: "Char literal must contain exactly one character, got '{{.Literal}}'.",
		Hints:    []string{"use double quotes for strings"},
	},

	// Parser
	"PARSE-0001": {Kind: KindParse, Template: "Unknown expression {{.Token}}."},
	"PARSE-0002": {Kind: KindParse, Template: "Expected {{.Expected}}, got '{{.Got}}'."},
	"PARSE-0003": {Kind: KindParse, Template: "Expected {{.What}} name, got '{{.Got}}'."},
	"PARSE-0004": {Kind: KindParse, Template: "Enum member '{{.Member}}' must be assigned a number literal."},
	"PARSE-0005": {Kind: KindParse, Template: "Unary operator must have 2 pluses or minuses."},
	"PARSE-0006": {
		Kind:     KindParse,
		Template: "The Extension type {{.Name}} does not exist!",
		Hints:    []string{"{{if .Suggestion}}Did you mean `{{.Suggestion}}`?{{end}}"},
	},
	"PARSE-0007": {Kind: KindParse, Template: "await must be followed by a function call."},
	"PARSE-0008": {Kind: KindParse, Template: "async must be followed by function."},
	"PARSE-0009": {Kind: KindParse, Template: "Unknown directive #{{.Name}}."},
	"PARSE-0010": {Kind: KindParse, Template: "Cannot assign to {{.Target}}."},
	"PARSE-0011": {Kind: KindParse, Template: "Expected a type for structure member, got '{{.Got}}'."},

	// Evaluator
	"RUN-0001": {
		Kind:     KindInterpreter,
		Template: "{{.Storage}} with '{{.Name}}' name not found",
		Hints:    []string{"{{if .Suggestion}}Did you mean `{{.Suggestion}}`?{{end}}"},
	},
	"RUN-0002": {Kind: KindInterpreter, Template: "You cant {{.Op}} type {{.Left}} and {{.Right}}"},
	"RUN-0003": {Kind: KindInterpreter, Template: "Index must be a non-negative number, in array variable with {{.Name}} name"},
	"RUN-0004": {Kind: KindInterpreter, Template: "Index {{.Index}} out of range, in array variable with {{.Name}} name (length {{.Length}})"},
	"RUN-0005": {Kind: KindInterpreter, Template: "Variable with {{.Name}} name is {{.Got}}, not an array"},
	"RUN-0006": {Kind: KindInterpreter, Template: "You cant access the structure member '{{.Member}}' in '{{.Structure}}' structure"},
	"RUN-0007": {Kind: KindInterpreter, Template: "Cannot cast {{.From}} to {{.To}}"},
	"RUN-0008": {Kind: KindInterpreter, Template: "Cannot cast string to char, string must contain exactly one character, got '{{.Value}}'"},
	"RUN-0009": {Kind: KindInterpreter, Template: "Structure '{{.Structure}}' has no castable member of type '{{.Type}}'"},
	"RUN-0010": {Kind: KindInterpreter, Template: "Except {{.Expected}} type, got {{.Got}}"},
	"RUN-0011": {Kind: KindInterpreter, Template: "'{{.Name}}' is not callable"},
	"RUN-0012": {Kind: KindInterpreter, Template: "Function '{{.Name}}' takes {{.Expected}} arguments, got {{.Got}}"},
	"RUN-0013": {Kind: KindInterpreter, Template: "Argument '{{.Arg}}' of '{{.Name}}' must be {{.Expected}}, got {{.Got}}"},
	"RUN-0014": {Kind: KindInterpreter, Template: "Missing required argument '{{.Arg}}' of '{{.Name}}'"},
	"RUN-0015": {
		Kind:     KindInterpreter,
		Template: "Structure '{{.Structure}}' has no member '{{.Member}}'",
		Hints:    []string{"{{if .Suggestion}}Did you mean `{{.Suggestion}}`?{{end}}"},
	},
	"RUN-0016": {Kind: KindInterpreter, Template: "Member '{{.Member}}' of '{{.Structure}}' structure is readonly"},
	"RUN-0017": {
		Kind:     KindInterpreter,
		Template: "Enum '{{.Enum}}' has no member '{{.Member}}'",
		Hints:    []string{"{{if .Suggestion}}Did you mean `{{.Suggestion}}`?{{end}}"},
	},
	"RUN-0018": {Kind: KindInterpreter, Template: "Variable with '{{.Name}}' name is readonly"},
	"RUN-0019": {Kind: KindInterpreter, Template: "Right side of '{{.Op}}' must be a type, got {{.Got}}"},
	"RUN-0020": {Kind: KindInterpreter, Template: "Cannot import '{{.File}}': {{.Error}}"},
	"RUN-0021": {Kind: KindInterpreter, Template: "Host function {{.Namespace}}.{{.Method}} not found"},
	"RUN-0022": {Kind: KindInterpreter, Template: "Host function {{.Namespace}}.{{.Method}} failed: {{.Error}}"},
	"RUN-0023": {
		Kind:     KindInterpreter,
		Template: "Cannot call '{{.Method}}' on {{.Type}}",
		Hints:    []string{"{{if .Suggestion}}Did you mean `{{.Suggestion}}`?{{end}}"},
	},
	"RUN-0024": {Kind: KindInterpreter, Template: "Operator {{.Op}} needs a Number variable, got {{.Got}}"},
	"RUN-0025": {Kind: KindInterpreter, Template: "Cannot read input: {{.Error}}"},
	"RUN-0026": {Kind: KindInterpreter, Template: "Member access needs a structure, got {{.Got}}"},
	"RUN-0027": {Kind: KindInterpreter, Template: "{{.Method}} failed: {{.Error}}"},
	"RUN-0028": {Kind: KindInterpreter, Template: "Cannot convert {{.Value}} to {{.To}}"},
	"RUN-0029": {Kind: KindInterpreter, Template: "Structure '{{.Structure}}' is already imported from {{.File}}"},
	"RUN-0030": {Kind: KindInterpreter, Template: "Import cycle: '{{.File}}' is already being imported"},
	"RUN-0031": {Kind: KindInterpreter, Template: "Maximum call depth {{.Depth}} exceeded in '{{.Name}}'"},
	"RUN-0032": {Kind: KindInterpreter, Template: "Size must be a whole number from 0 to 16777216, got {{.Size}}"},
}

// New builds a fault from the catalog. Unknown codes become an
// InterpreterError whose message is data["message"] or the code itself.
func New(code string, data map[string]any) *Fault {
	def, ok := Catalog[code]
	if !ok {
		msg := code
		if m, ok := data["message"].(string); ok {
			msg = m
		}
		return &Fault{Kind: KindInterpreter, Code: code, Message: msg, Data: data}
	}

	var hints []string
	for _, h := range def.Hints {
		if rendered := renderTemplate(h, data); rendered != "" {
			hints = append(hints, rendered)
		}
	}
	return &Fault{
		Kind:    def.Kind,
		Code:    code,
		Message: renderTemplate(def.Template, data),
		Hints:   hints,
		Data:    data,
	}
}

// NewAt builds a positioned fault from the catalog.
func NewAt(code, file string, line, column int, data map[string]any) *Fault {
	f := New(code, data)
	f.File = file
	f.Line = line
	f.Column = column
	return f
}

// Newf builds an uncatalogued fault.
func Newf(kind Kind, format string, args ...any) *Fault {
	return &Fault{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func renderTemplate(tmplStr string, data map[string]any) string {
	if data == nil {
		return tmplStr
	}
	tmpl, err := template.New("").Option("missingkey=zero").Parse(tmplStr)
	if err != nil {
		return tmplStr
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return tmplStr
	}
	return strings.ReplaceAll(buf.String(), "<no value>", "")
}

// NewNotFound reports a missing name in one of the symbol tables and
// suggests the closest visible name.
func NewNotFound(storage, name string, visible []string) *Fault {
	return New("RUN-0001", map[string]any{
		"Storage":    storage,
		"Name":       name,
		"Suggestion": FindClosestMatch(name, visible),
	})
}

// levenshteinDistance computes the edit distance between a and b using two
// rolling rows.
func levenshteinDistance(a, b string) int {
	if a == "" {
		return len(b)
	}
	if b == "" {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// FindClosestMatch returns the candidate nearest to input, or "" when input
// is an exact match or nothing is close enough. Inputs of up to three
// characters allow one edit, up to six allow two, longer inputs three.
func FindClosestMatch(input string, candidates []string) string {
	if input == "" || len(candidates) == 0 {
		return ""
	}
	lower := strings.ToLower(input)

	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)

	best, bestDist := "", -1
	for _, c := range sorted {
		if c == input {
			return ""
		}
		d := levenshteinDistance(lower, strings.ToLower(c))
		if bestDist == -1 || d < bestDist {
			best, bestDist = c, d
		}
	}

	threshold := 1
	switch {
	case len(input) >= 7:
		threshold = 3
	case len(input) >= 4:
		threshold = 2
	}
	if bestDist > threshold {
		return ""
	}
	return best
}
