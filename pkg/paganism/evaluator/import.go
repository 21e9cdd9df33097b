package evaluator

import (
	"fmt"
	"os"
	"path/filepath"

	perrors "github.com/sambeau/paganism/pkg/paganism/errors"
	"github.com/sambeau/paganism/pkg/paganism/parser"
	"github.com/sambeau/paganism/pkg/paganism/value"
)

// Loader resolves the file named by import(name), as seen from the file
// doing the import, and returns its canonical path and source text.
type Loader interface {
	Load(name, from string) (path string, source string, err error)
}

// FileLoader reads imports from disk relative to the importing file.
type FileLoader struct{}

func (FileLoader) Load(name, from string) (string, string, error) {
	path := name
	if !filepath.IsAbs(path) && from != "" {
		path = filepath.Join(filepath.Dir(from), name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("reading %s: %w", name, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return abs, string(data), nil
}

// builtinImport runs another program in the global scope so that its
// declarations become visible to the importer. Each file runs once; host
// types named "<Name>.host" are materialized instead of loaded.
func (in *Interpreter) builtinImport(args []value.Value) (value.Value, error) {
	name, err := stringArg("import", "file", args[0])
	if err != nil {
		return nil, err
	}

	if host, ok := in.hostTypeName(name); ok {
		return value.VOID, in.importHostType(host)
	}

	if in.Loader == nil {
		in.Loader = FileLoader{}
	}
	path, source, err := in.Loader.Load(name, in.currentFile())
	if err != nil {
		return nil, perrors.New("RUN-0020", map[string]any{"File": name, "Error": err.Error()})
	}
	if in.imported[path] {
		return value.VOID, nil
	}
	if in.importing[path] {
		return nil, perrors.New("RUN-0030", map[string]any{"File": name})
	}
	in.importing[path] = true
	defer delete(in.importing, path)

	program, err := parser.Parse(source, path)
	if err != nil {
		return nil, err
	}
	in.files = append(in.files, path)
	defer func() { in.files = in.files[:len(in.files)-1] }()

	if _, err := in.execStatements(program); err != nil {
		return nil, err
	}
	in.imported[path] = true
	return value.VOID, nil
}
