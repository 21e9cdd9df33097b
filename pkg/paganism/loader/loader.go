// Package loader finds and reads Paganism source files.
//
// A Loader resolves the names passed to import() against the importing
// file, a list of import directories and a table of preloaded names. It
// reads gzip (.gz) and zstd (.zst) sources transparently and fetches
// sftp:// URLs over SSH.
package loader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Options configures a Loader.
type Options struct {
	Dirs    []string          // searched after the importing file's directory
	Preload map[string]string // import name -> path or sftp:// URL
	SFTP    *SFTPConfig       // credentials for sftp:// imports
}

// Loader resolves and reads sources. It is safe for concurrent use.
type Loader struct {
	dirs    []string
	preload map[string]string
	sftp    *SFTPConfig

	mu      sync.Mutex
	remotes map[string]*remote
}

// New creates a Loader.
func New(opts Options) *Loader {
	preload := make(map[string]string, len(opts.Preload))
	for k, v := range opts.Preload {
		preload[k] = v
	}
	return &Loader{
		dirs:    append([]string(nil), opts.Dirs...),
		preload: preload,
		sftp:    opts.SFTP,
		remotes: make(map[string]*remote),
	}
}

// Load returns the canonical path and text of the source called name, as
// imported from the file from.
func (l *Loader) Load(name, from string) (string, string, error) {
	if target, ok := l.preload[name]; ok {
		name = target
	}
	if isRemote(name) {
		return l.loadRemote(name)
	}
	if isRemote(from) && !filepath.IsAbs(name) {
		return l.loadRemote(joinRemote(from, name))
	}

	path, err := l.Resolve(name, from)
	if err != nil {
		return "", "", err
	}
	data, err := ReadFile(path)
	if err != nil {
		return "", "", err
	}
	return path, string(data), nil
}

// Resolve finds the local file called name: as given when absolute, else
// next to from, then in each import directory.
func (l *Loader) Resolve(name, from string) (string, error) {
	var candidates []string
	if filepath.IsAbs(name) {
		candidates = append(candidates, name)
	} else {
		if from != "" {
			candidates = append(candidates, filepath.Join(filepath.Dir(from), name))
		} else {
			candidates = append(candidates, name)
		}
		for _, dir := range l.dirs {
			candidates = append(candidates, filepath.Join(dir, name))
		}
	}

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			abs, err := filepath.Abs(c)
			if err != nil {
				return c, nil
			}
			return abs, nil
		}
	}
	return "", fmt.Errorf("%s not found (searched %s)", name, strings.Join(candidates, ", "))
}

// ReadFile reads a local source, decompressing .gz and .zst files.
func ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decode(path, f)
}

// decode reads r, choosing a decompressor from the extension of name.
func decode(name string, r io.Reader) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip %s: %w", name, err)
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case ".zst":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd %s: %w", name, err)
		}
		defer zr.Close()
		return io.ReadAll(zr)
	}
	return io.ReadAll(r)
}

// Close releases every open sftp connection.
func (l *Loader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var first error
	for key, r := range l.remotes {
		if err := r.close(); err != nil && first == nil {
			first = err
		}
		delete(l.remotes, key)
	}
	return first
}
