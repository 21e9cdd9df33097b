package loader

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/sftp"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestResolveOrder(t *testing.T) {
	root := t.TempDir()
	lib := filepath.Join(root, "lib")
	main := filepath.Join(root, "app", "main.pgm")

	writeFile(t, main, "")
	writeFile(t, filepath.Join(root, "app", "local.pgm"), "local")
	writeFile(t, filepath.Join(lib, "local.pgm"), "lib copy")
	writeFile(t, filepath.Join(lib, "shared.pgm"), "shared")

	l := New(Options{Dirs: []string{lib}})

	tests := []struct {
		name     string
		expected string
	}{
		{"local.pgm", "local"},
		{"shared.pgm", "shared"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, src, err := l.Load(tt.name, main)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if src != tt.expected {
				t.Errorf("source = %q, want %q", src, tt.expected)
			}
			if !filepath.IsAbs(path) {
				t.Errorf("path %q is not absolute", path)
			}
		})
	}
}

func TestLoadNotFound(t *testing.T) {
	dir := t.TempDir()
	l := New(Options{Dirs: []string{dir}})
	_, _, err := l.Load("missing.pgm", filepath.Join(dir, "main.pgm"))
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "missing.pgm not found") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPreload(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "vendor", "strings.pgm")
	writeFile(t, target, "preloaded")

	l := New(Options{Preload: map[string]string{"std/strings": target}})
	path, src, err := l.Load("std/strings", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if src != "preloaded" {
		t.Errorf("source = %q", src)
	}
	if path != target {
		t.Errorf("path = %q, want %q", path, target)
	}
}

func TestCompressedSources(t *testing.T) {
	dir := t.TempDir()
	const source = "print(\"compressed\");"

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	if _, err := zw.Write([]byte(source)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "a.pgm.gz"), gz.String())

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "b.pgm.zst"), string(enc.EncodeAll([]byte(source), nil)))
	enc.Close()

	l := New(Options{Dirs: []string{dir}})
	for _, name := range []string{"a.pgm.gz", "b.pgm.zst"} {
		t.Run(name, func(t *testing.T) {
			_, src, err := l.Load(name, "")
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if src != source {
				t.Errorf("source = %q, want %q", src, source)
			}
		})
	}
}

func TestCorruptGzip(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bad.pgm.gz"), "not gzip")
	_, err := ReadFile(filepath.Join(dir, "bad.pgm.gz"))
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestParseTarget(t *testing.T) {
	l := New(Options{SFTP: &SFTPConfig{User: "deploy", Password: "secret", Port: 2222}})

	tests := []struct {
		raw      string
		user     string
		password string
		port     int
		path     string
		wantErr  bool
	}{
		{"sftp://example.com/srv/lib.pgm", "deploy", "secret", 2222, "/srv/lib.pgm", false},
		{"sftp://alice@example.com:22/lib.pgm", "alice", "secret", 22, "/lib.pgm", false},
		{"sftp://bob:pw@example.com/lib.pgm", "bob", "pw", 2222, "/lib.pgm", false},
		{"sftp://example.com", "", "", 0, "", true},
		{"sftp:///lib.pgm", "", "", 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := l.parseTarget(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseTarget: %v", err)
			}
			if got.user != tt.user || got.password != tt.password || got.port != tt.port || got.path != tt.path {
				t.Errorf("got %+v", got)
			}
			if got.host != "example.com" {
				t.Errorf("host = %q", got.host)
			}
		})
	}
}

func TestParseTargetNeedsUser(t *testing.T) {
	l := New(Options{})
	if _, err := l.parseTarget("sftp://example.com/lib.pgm"); err == nil {
		t.Fatal("expected an error for a url without a user")
	}
}

func TestClientConfigNeedsCredentials(t *testing.T) {
	l := New(Options{})
	_, err := l.clientConfig(target{user: "alice", host: "example.com", port: 22})
	if err == nil || !strings.Contains(err.Error(), "no sftp credentials") {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg, err := l.clientConfig(target{user: "alice", password: "pw", host: "example.com", port: 22})
	if err != nil {
		t.Fatalf("clientConfig: %v", err)
	}
	if cfg.User != "alice" || len(cfg.Auth) != 1 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Timeout == 0 {
		t.Error("expected a default timeout")
	}
}

func TestJoinRemote(t *testing.T) {
	got := joinRemote("sftp://alice@example.com:22/srv/app/main.pgm", "../lib/util.pgm")
	want := "sftp://alice@example.com:22/srv/lib/util.pgm"
	if got != want {
		t.Errorf("joinRemote = %q, want %q", got, want)
	}
}

type pipeConn struct {
	io.Reader
	io.WriteCloser
}

// pipeClient connects an sftp client to an in-process server that serves
// the local filesystem.
func pipeClient(t *testing.T) *sftp.Client {
	t.Helper()
	cr, sw := io.Pipe()
	sr, cw := io.Pipe()

	server, err := sftp.NewServer(pipeConn{sr, sw})
	if err != nil {
		t.Fatal(err)
	}
	go server.Serve()

	client, err := sftp.NewClientPipe(cr, cw)
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func TestLoadRemote(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.pgm"), "remote main")
	writeFile(t, filepath.Join(dir, "util.pgm"), "remote util")

	l := New(Options{})
	l.remotes["sftp:alice@example.com:22"] = &remote{client: pipeClient(t)}
	defer l.Close()

	url := "sftp://alice@example.com" + filepath.ToSlash(filepath.Join(dir, "main.pgm"))
	path, src, err := l.Load(url, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if src != "remote main" {
		t.Errorf("source = %q", src)
	}

	// relative imports from a remote file stay on the same host
	_, src, err = l.Load("util.pgm", path)
	if err != nil {
		t.Fatalf("Load relative: %v", err)
	}
	if src != "remote util" {
		t.Errorf("relative source = %q", src)
	}
}

func TestParseTargetDefaultHost(t *testing.T) {
	l := New(Options{SFTP: &SFTPConfig{Host: "files.internal", User: "deploy"}})
	got, err := l.parseTarget("sftp:///lib/util.pgm")
	if err != nil {
		t.Fatalf("parseTarget: %v", err)
	}
	if got.host != "files.internal" || got.path != "/lib/util.pgm" || got.port != 22 {
		t.Errorf("got %+v", got)
	}
}
