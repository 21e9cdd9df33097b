package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/sambeau/paganism/config"
	"github.com/sambeau/paganism/pkg/paganism/ast"
	perrors "github.com/sambeau/paganism/pkg/paganism/errors"
	"github.com/sambeau/paganism/pkg/paganism/evaluator"
	"github.com/sambeau/paganism/pkg/paganism/loader"
	"github.com/sambeau/paganism/pkg/paganism/paganism"
	"github.com/sambeau/paganism/pkg/paganism/repl"
	"github.com/sambeau/paganism/runlog"
	"github.com/sambeau/paganism/watch"
)

// Version is set at compile time via -ldflags
var Version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.Getenv))
}

// app holds what every mode of the CLI shares.
type app struct {
	cfg    *config.Config
	loader *loader.Loader
	runs   *runlog.Store
	log    *diagLogger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer, getenv func(string) string) int {
	fs := flag.NewFlagSet("pgm", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printHelp(stderr) }

	var (
		helpFlag        = fs.Bool("h", false, "Show help message")
		helpLongFlag    = fs.Bool("help", false, "Show help message")
		versionFlag     = fs.Bool("V", false, "Show version information")
		versionLongFlag = fs.Bool("version", false, "Show version information")
		evalFlag        = fs.String("e", "", "Evaluate code string")
		evalLongFlag    = fs.String("eval", "", "Evaluate code string")
		checkFlag       = fs.Bool("check", false, "Check syntax without executing")
		watchFlag       = fs.Bool("watch", false, "Re-run the file when it changes")
		configFlag      = fs.String("config", "", "Configuration file")
		runlogFlag      = fs.String("runlog", "", "Record runs in this store")
		historyFlag     = fs.Int("history", 0, "Show the most recent recorded runs")
	)
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	if *helpFlag || *helpLongFlag {
		printHelp(stdout)
		return 0
	}
	if *versionFlag || *versionLongFlag {
		fmt.Fprintf(stdout, "pgm version %s\n", Version)
		return 0
	}

	cfg, cfgPath, err := config.LoadWithPath(*configFlag, getenv)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	diag, closeLog, err := newDiagLogger(cfg.Logging, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer closeLog()
	if cfgPath != "" {
		diag.debugf("config: %s", cfgPath)
	}

	a := &app{cfg: cfg, log: diag, stdin: stdin, stdout: stdout, stderr: stderr}
	a.loader = newLoader(cfg)
	defer a.loader.Close()

	dsn := *runlogFlag
	if dsn == "" && cfg.RunLog.Enabled {
		dsn = cfg.RunLog.DSN
	}
	if dsn != "" {
		a.runs, err = runlog.Open(dsn)
		if err != nil {
			diag.warnf("run log disabled: %v", err)
		} else {
			defer a.runs.Close()
		}
	}

	evalCode := *evalFlag
	if evalCode == "" {
		evalCode = *evalLongFlag
	}

	switch {
	case *historyFlag > 0:
		return a.printHistory(*historyFlag)
	case evalCode != "":
		return a.execute(evalCode, "<eval>", true)
	case *checkFlag:
		files := fs.Args()
		if len(files) == 0 {
			fmt.Fprintln(stderr, "Error: --check requires at least one file")
			return 2
		}
		return checkFiles(files, stderr)
	case len(fs.Args()) > 0:
		filename := fs.Args()[0]
		if *watchFlag {
			return a.watchFile(filename)
		}
		return a.executeFile(filename)
	default:
		repl.Start(a.interpreter(), stdout, Version)
		return 0
	}
}

func printHelp(w io.Writer) {
	fmt.Fprintf(w, `pgm - Paganism language interpreter version %s

Usage:
  pgm [options] [file]
  pgm -e "code"
  pgm --check <file>...

Options:
  -h, --help            Show this help message
  -V, --version         Show version information
  -e, --eval <code>     Evaluate code string
  --check               Check syntax without executing (can specify multiple files)
  --watch               Re-run the file whenever a source next to it changes
  --config <path>       Configuration file (default: paganism.yaml)
  --runlog <dsn>        Record runs (SQLite path, postgres:// or mysql:// URL)
  --history <n>         Show the n most recent recorded runs

Examples:
  pgm                        Start interactive REPL
  pgm script.pgm             Execute a script
  pgm -e 'return 1 + 2'      Evaluate inline code
  pgm --check *.pgm          Check multiple files
  pgm --watch script.pgm     Re-run on every save
`, Version)
}

func newLoader(cfg *config.Config) *loader.Loader {
	s := cfg.Imports.SFTP
	return loader.New(loader.Options{
		Dirs:    cfg.Imports.Dirs,
		Preload: cfg.Imports.Preload,
		SFTP: &loader.SFTPConfig{
			Host:       s.Host,
			Port:       s.Port,
			User:       s.User,
			Password:   s.Password,
			KeyFile:    s.KeyFile,
			Passphrase: s.Passphrase,
			KnownHosts: s.KnownHosts,
		},
	})
}

func (a *app) interpreter() *evaluator.Interpreter {
	return paganism.New(
		paganism.WithOutput(a.stdout),
		paganism.WithInput(a.stdin),
		paganism.WithLoader(a.loader),
		paganism.WithLocale(a.cfg.Locale),
	)
}

func (a *app) executeFile(filename string) int {
	abs, err := filepath.Abs(filename)
	if err != nil {
		abs = filename
	}
	content, err := loader.ReadFile(abs)
	if err != nil {
		fmt.Fprintf(a.stderr, "Error reading file '%s': %v\n", filename, err)
		return 1
	}
	return a.execute(string(content), abs, false)
}

// execute runs source and reports a fault with its source context. With
// echo set, a top-level return value is printed.
func (a *app) execute(source, filename string, echo bool) int {
	started := time.Now()
	result, err := a.interpreter().RunSource(source, filename)
	a.record(filename, started, err)

	if err != nil {
		a.printFault(filename, source, err)
		return 1
	}
	if echo && result != nil && result.Type() != ast.KindVoid {
		fmt.Fprintln(a.stdout, result.Inspect())
	}
	return 0
}

func (a *app) record(filename string, started time.Time, err error) {
	if a.runs == nil {
		return
	}
	ctx := context.Background()
	if rerr := a.runs.Record(ctx, runlog.NewRun(filename, started, err)); rerr != nil {
		a.log.warnf("%v", rerr)
		return
	}
	if keep := a.cfg.RunLog.MaxEntries; keep > 0 {
		if _, perr := a.runs.Prune(ctx, keep); perr != nil {
			a.log.warnf("%v", perr)
		}
	}
}

func (a *app) printHistory(limit int) int {
	if a.runs == nil {
		fmt.Fprintln(a.stderr, "Error: --history requires a run log (--runlog or runlog.enabled)")
		return 2
	}
	runs, err := a.runs.Recent(context.Background(), limit)
	if err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return 1
	}
	for _, r := range runs {
		fmt.Fprintf(a.stdout, "%s  %-5s %6dms  %s", r.StartedAt.Format(time.DateTime), r.Status, r.Duration.Milliseconds(), r.File)
		if r.Status == runlog.StatusFault {
			fmt.Fprintf(a.stdout, ":%d:%d  %s", r.Line, r.Column, r.Message)
		}
		fmt.Fprintln(a.stdout)
	}
	return 0
}

func (a *app) watchFile(filename string) int {
	a.executeFile(filename)

	w, err := watch.New(filename, func(string) { a.executeFile(filename) }, a.stdout, a.stderr,
		watch.WithDebounce(a.cfg.Watch.Debounce),
		watch.WithExtensions(a.cfg.Watch.Extensions...),
	)
	if err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return 1
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := w.Start(ctx); err != nil {
		return 1
	}
	a.log.infof("re-running %s on change (Ctrl+C to stop)", filename)
	<-ctx.Done()
	return 0
}

func checkFiles(files []string, stderr io.Writer) int {
	hasErrors := false

	for _, filename := range files {
		content, err := loader.ReadFile(filename)
		if err != nil {
			fmt.Fprintf(stderr, "Error reading %s: %v\n", filename, err)
			return 2
		}
		if err := paganism.Check(string(content), filename); err != nil {
			printFault(stderr, filename, string(content), err)
			hasErrors = true
		}
	}

	if hasErrors {
		return 1
	}
	return 0
}

func (a *app) printFault(filename, source string, err error) {
	printFault(a.stderr, filename, source, err)
}

// printFault prints a fault with the offending source line. Faults raised
// in an imported file show that file's source.
func printFault(w io.Writer, filename, source string, err error) {
	f, ok := perrors.As(err)
	if !ok {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(w, f.PrettyString())

	if f.File != "" && f.File != filename {
		content, rerr := loader.ReadFile(f.File)
		if rerr != nil {
			return
		}
		source = string(content)
	}
	printSourceContext(w, strings.Split(source, "\n"), f.Line, f.Column)
}

// printSourceContext prints the source line and a pointer to the column.
// Columns count a tab as one position; the pointer expands tabs to 8.
func printSourceContext(w io.Writer, lines []string, lineNum, colNum int) {
	if lineNum <= 0 || lineNum > len(lines) {
		return
	}
	sourceLine := lines[lineNum-1]

	trimCount := 0
	for i := 0; i < len(sourceLine); i++ {
		if sourceLine[i] == '\t' {
			trimCount += 8
		} else if sourceLine[i] == ' ' {
			trimCount++
		} else {
			break
		}
	}
	fmt.Fprintf(w, "    %s\n", strings.TrimLeft(sourceLine, " \t"))

	if colNum > 0 {
		visualCol := 0
		for i := 0; i < colNum-1 && i < len(sourceLine); i++ {
			if sourceLine[i] == '\t' {
				visualCol += 8
			} else {
				visualCol++
			}
		}
		pointer := strings.Repeat(" ", max(visualCol-trimCount, 0)) + "^"
		fmt.Fprintf(w, "    %s\n", pointer)
	}
}
