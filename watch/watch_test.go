package watch

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer is a bytes.Buffer safe for the watcher goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRelevant(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "main.pgm"), func(string) {}, io.Discard, io.Discard, WithExtensions(".TXT"))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	tests := []struct {
		path string
		want bool
	}{
		{"/src/main.pgm", true},
		{"/src/lib.PGM", true},
		{"/src/lib.pgm.gz", true},
		{"/src/lib.pgm.zst", true},
		{"/src/notes.txt", true},
		{"/src/data.json", false},
		{"/src/.main.pgm.swp", false},
		{"/src/.hidden.pgm", false},
		{"/src/archive.gz", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := w.relevant(tt.path); got != tt.want {
				t.Errorf("relevant(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestOptions(t *testing.T) {
	w, err := New("main.pgm", func(string) {}, io.Discard, io.Discard, WithDebounce(0))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if w.debounce != DefaultDebounce {
		t.Errorf("debounce = %s, want default", w.debounce)
	}
	if !filepath.IsAbs(w.path) {
		t.Errorf("path %q is not absolute", w.path)
	}

	w2, err := New("main.pgm", func(string) {}, io.Discard, io.Discard, WithDebounce(time.Second))
	if err != nil {
		t.Fatal(err)
	}
	defer w2.Close()
	if w2.debounce != time.Second {
		t.Errorf("debounce = %s", w2.debounce)
	}
}

func TestWatchRunsOnChange(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "main.pgm")
	if err := os.WriteFile(script, []byte(`println("v1")`), 0o644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan string, 10)
	var stdout, stderr syncBuffer
	w, err := New(script, func(path string) { changed <- path }, &stdout, &stderr)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// ignored: wrong extension
	if err := os.WriteFile(filepath.Join(dir, "data.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(script, []byte(`println("v2")`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case path := <-changed:
		if filepath.Base(path) != "main.pgm" {
			t.Errorf("changed %q, want main.pgm", path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	if w.ChangeSeq() == 0 {
		t.Error("change sequence not advanced")
	}
	if !strings.Contains(stdout.String(), "[WATCH] watching "+dir) {
		t.Errorf("stdout = %q", stdout.String())
	}
}
