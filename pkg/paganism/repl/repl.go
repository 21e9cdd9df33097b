package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterh/liner"
	"github.com/sambeau/paganism/pkg/paganism/ast"
	perrors "github.com/sambeau/paganism/pkg/paganism/errors"
	"github.com/sambeau/paganism/pkg/paganism/evaluator"
	"github.com/sambeau/paganism/pkg/paganism/lexer"
	"github.com/sambeau/paganism/pkg/paganism/parser"
)

const PROMPT = ">> "
const CONTINUATION_PROMPT = ".. "

const LOGO = `
█▀█ ▄▀█ █▀▀ ▄▀█ █▄░█ █ █▀ █▀▄▀█
█▀▀ █▀█ █▄█ █▀█ █░▀█ █ ▄█ █░▀░█`

const replFile = "<repl>"

// Keywords and builtins for tab completion
var completionWords = func() []string {
	words := lexer.Keywords()
	words = append(words,
		"print", "println", "read", "millitime", "pgm_size", "pgm_resize", "import", "cs_call",
		"Replace", "Split", "Length", "Trim", "Contains", "Upper", "Lower", "Title",
		"FormatNumber", "FormatDate", "ToUnix", "Markdown",
		"exception", "StringExtension",
)
	sort.Strings(words)
	return words
}()

// blockOpeners are the tokens closed by a matching `end`.
var blockOpeners = map[lexer.TokenType]bool{
	lexer.FUNCTION:  true,
	lexer.IF:        true,
	lexer.FOR:       true,
	lexer.TRY:       true,
	lexer.STRUCTURE: true,
	lexer.ENUM:      true,
}

// Start starts the REPL with line editing, history, and tab completion
func Start(interp *evaluator.Interpreter, out io.Writer, version string) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(filterCompletions)

	historyFile := filepath.Join(os.TempDir(), ".paganism_history")
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Fprintf(out, "%s\n", LOGO)
	fmt.Fprintln(out, "v", version)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Type 'exit' or Ctrl+D to quit")
	fmt.Fprintln(out, "Type ':help' for REPL commands")
	fmt.Fprintln(out, "")

	var inputBuffer strings.Builder
	for {
		currentPrompt := PROMPT
		if inputBuffer.Len() > 0 {
			currentPrompt = CONTINUATION_PROMPT
		}
		input, err := line.Prompt(currentPrompt)
		if err != nil {
			if err == liner.ErrPromptAborted {
				if inputBuffer.Len() > 0 {
					fmt.Fprintln(out, "^C (cleared)")
				} else {
					fmt.Fprintln(out, "^C")
				}
				inputBuffer.Reset()
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(out, "\nGoodbye!")
				return
			}
			fmt.Fprintf(out, "Error reading input: %v\n", err)
			continue
		}

		trimmed := strings.TrimSpace(input)
		if inputBuffer.Len() == 0 && (trimmed == "exit" || trimmed == "quit") {
			fmt.Fprintln(out, "Goodbye!")
			return
		}
		if inputBuffer.Len() == 0 && strings.HasPrefix(trimmed, ":") {
			handleReplCommand(trimmed, interp, out)
			continue
		}
		if inputBuffer.Len() == 0 && trimmed == "" {
			continue
		}

		if inputBuffer.Len() > 0 {
			inputBuffer.WriteString("\n")
		}
		inputBuffer.WriteString(input)

		fullInput := inputBuffer.String()
		if needsMoreInput(fullInput) {
			continue
		}
		line.AppendHistory(fullInput)
		evalInput(interp, fullInput, out)
		inputBuffer.Reset()
	}
}

// evalInput runs one complete entry against the session's interpreter.
// A top-level return value is echoed.
func evalInput(interp *evaluator.Interpreter, input string, out io.Writer) {
	program, err := parser.Parse(input, replFile)
	if err != nil {
		printFault(out, err)
		return
	}
	result, err := interp.Run(program)
	if err != nil {
		printFault(out, err)
		return
	}
	if result != nil && result.Type() != ast.KindVoid {
		fmt.Fprintln(out, result.Inspect())
	}
}

func printFault(out io.Writer, err error) {
	if f, ok := perrors.As(err); ok {
		io.WriteString(out, f.PrettyString())
		io.WriteString(out, "\n")
		return
	}
	fmt.Fprintf(out, "Error: %v\n", err)
}

// handleReplCommand handles REPL meta-commands that start with ':'
func handleReplCommand(cmd string, interp *evaluator.Interpreter, out io.Writer) {
	switch cmd {
	case ":help", ":h", ":?":
		fmt.Fprintln(out, "REPL Commands:")
		fmt.Fprintln(out, "  :help, :h, :?   Show this help")
		fmt.Fprintln(out, "  :env            Show global variables")
		fmt.Fprintln(out, "  :clear          Forget all declarations")
		fmt.Fprintln(out, "  exit, quit      Exit the REPL")
	case ":env":
		printEnvironment(interp, out)
	case ":clear":
		interp.Reset()
		fmt.Fprintln(out, "Environment cleared")
	default:
		fmt.Fprintf(out, "Unknown command: %s (type :help for commands)\n", cmd)
	}
}

// printEnvironment lists the global variables with their declared types
func printEnvironment(interp *evaluator.Interpreter, out io.Writer) {
	vars := interp.Variables.Globals()
	if len(vars) == 0 {
		fmt.Fprintln(out, "(no user variables)")
		return
	}

	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v := vars[name]
		s := v.Value.Inspect()
		if len(s) > 60 {
			s = s[:57] + "..."
		}
		fmt.Fprintf(out, "  %s: %s = %s\n", name, v.Type, s)
	}
}

// filterCompletions returns completion suggestions for the word being typed
func filterCompletions(line string) []string {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	if last := line[len(line)-1]; last == ' ' || last == '\t' {
		return nil
	}

	// complete the trailing identifier, keeping everything before it
	start := strings.LastIndexFunc(line, func(r rune) bool {
		return !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	}) + 1
	prefix, word := line[:start], line[start:]
	if word == "" {
		return nil
	}

	var matches []string
	for _, candidate := range completionWords {
		if strings.HasPrefix(candidate, word) {
			matches = append(matches, prefix+candidate)
		}
	}
	return matches
}

// needsMoreInput reports whether input has unclosed blocks, brackets or
// parentheses. Input that does not lex is left for the parser to report.
func needsMoreInput(input string) bool {
	if strings.TrimSpace(input) == "" {
		return false
	}
	tokens, err := lexer.New(input).Run()
	if err != nil {
		return false
	}

	blocks, brackets, parens := 0, 0, 0
	for _, tok := range tokens {
		switch {
		case blockOpeners[tok.Type]:
			blocks++
		case tok.Type == lexer.END:
			blocks--
		case tok.Type == lexer.LBRACKET:
			brackets++
		case tok.Type == lexer.RBRACKET:
			brackets--
		case tok.Type == lexer.LPAREN:
			parens++
		case tok.Type == lexer.RPAREN:
			parens--
		}
	}
	return blocks > 0 || brackets > 0 || parens > 0
}
