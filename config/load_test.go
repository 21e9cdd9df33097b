package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func noEnv(string) string { return "" }

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Watch.Debounce != 100*time.Millisecond {
		t.Errorf("expected default debounce 100ms, got %s", cfg.Watch.Debounce)
	}
	if cfg.Imports.SFTP.Port != 22 {
		t.Errorf("expected default sftp port 22, got %d", cfg.Imports.SFTP.Port)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level 'info', got %q", cfg.Logging.Level)
	}
	if cfg.Locale != "en-US" {
		t.Errorf("expected default locale 'en-US', got %q", cfg.Locale)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestInterpolateEnv(t *testing.T) {
	getenv := func(key string) string {
		switch key {
		case "SFTP_USER":
			return "deploy"
		case "SFTP_PORT":
			return "2222"
		default:
			return ""
		}
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple substitution", "user: ${SFTP_USER}", "user: deploy"},
		{"with default (env set)", "user: ${SFTP_USER:-root}", "user: deploy"},
		{"with default (env not set)", "user: ${UNSET_VAR:-root}", "user: root"},
		{"unset without default", "user: ${UNSET_VAR}", "user: "},
		{"multiple substitutions", "addr: ${SFTP_USER}:${SFTP_PORT}", "addr: deploy:2222"},
		{"no substitution needed", "static: value", "static: value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(interpolateEnv([]byte(tt.input), getenv))
			if got != tt.expected {
				t.Errorf("interpolateEnv(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLoadResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "paganism.yaml")
	content := `
imports:
  dirs:
    - lib
    - /opt/paganism/lib
  preload:
    util: vendor/util.pgm
    remote: sftp://files.example.com/lib/remote.pgm
  sftp:
    user: ${SFTP_USER:-deploy}
    key_file: keys/id_ed25519
runlog:
  enabled: true
  dsn: runs.db
watch:
  debounce: 250ms
  extensions: .txt
locale: de-DE
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, path, err := LoadWithPath(configPath, noEnv)
	if err != nil {
		t.Fatalf("LoadWithPath: %v", err)
	}
	if path != configPath {
		t.Errorf("path = %q, want %q", path, configPath)
	}
	if cfg.BaseDir != dir {
		t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, dir)
	}

	if got := cfg.Imports.Dirs[0]; got != filepath.Join(dir, "lib") {
		t.Errorf("dirs[0] = %q", got)
	}
	if got := cfg.Imports.Dirs[1]; got != "/opt/paganism/lib" {
		t.Errorf("dirs[1] = %q", got)
	}
	if got := cfg.Imports.Preload["util"]; got != filepath.Join(dir, "vendor", "util.pgm") {
		t.Errorf("preload util = %q", got)
	}
	if got := cfg.Imports.Preload["remote"]; got != "sftp://files.example.com/lib/remote.pgm" {
		t.Errorf("preload remote = %q", got)
	}
	if cfg.Imports.SFTP.User != "deploy" {
		t.Errorf("sftp user = %q", cfg.Imports.SFTP.User)
	}
	if got := cfg.Imports.SFTP.KeyFile; got != filepath.Join(dir, "keys", "id_ed25519") {
		t.Errorf("key_file = %q", got)
	}
	if cfg.Imports.SFTP.Port != 22 {
		t.Errorf("sftp port default lost: %d", cfg.Imports.SFTP.Port)
	}
	if got := cfg.RunLog.DSN; got != filepath.Join(dir, "runs.db") {
		t.Errorf("runlog dsn = %q", got)
	}
	if cfg.Watch.Debounce != 250*time.Millisecond {
		t.Errorf("debounce = %s", cfg.Watch.Debounce)
	}
	if !cfg.Watch.Extensions.Contains(".txt") {
		t.Errorf("extensions = %v", cfg.Watch.Extensions)
	}
	if cfg.Locale != "de-DE" {
		t.Errorf("locale = %q", cfg.Locale)
	}
}

func TestLoadKeepsServerDSN(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "paganism.yaml")
	content := "runlog:\n  dsn: postgres://pgm@localhost/runs?sslmode=disable\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(configPath, noEnv)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RunLog.DSN != "postgres://pgm@localhost/runs?sslmode=disable" {
		t.Errorf("dsn = %q", cfg.RunLog.DSN)
	}
}

func TestLoadExplicitMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), noEnv)
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadEnvPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(configPath, []byte("locale: fr-FR\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	getenv := func(key string) string {
		if key == "PAGANISM_CONFIG" {
			return configPath
		}
		return ""
	}
	cfg, err := Load("", getenv)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Locale != "fr-FR" {
		t.Errorf("locale = %q", cfg.Locale)
	}

	missing := func(key string) string {
		if key == "PAGANISM_CONFIG" {
			return filepath.Join(dir, "gone.yaml")
		}
		return ""
	}
	if _, err := Load("", missing); err == nil {
		t.Error("expected an error for a missing PAGANISM_CONFIG file")
	}
}

func TestLoadNoFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)
	t.Setenv("HOME", dir)

	cfg, path, err := LoadWithPath("", noEnv)
	if err != nil {
		t.Fatalf("LoadWithPath: %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want none", path)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected defaults, got %+v", cfg.Logging)
	}
}

func TestLoadParseError(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "paganism.yaml")
	if err := os.WriteFile(configPath, []byte("imports: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(configPath, noEnv)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	yamlData := `
imports:
  sftp:
    port: 70000
    passphrase: secret
runlog:
  max_entries: -1
watch:
  extensions: [txt]
logging:
  level: verbose
  format: xml
locale: "!!"
`
	cfg := Defaults()
	if err := yaml.Unmarshal([]byte(yamlData), cfg); err != nil {
		t.Fatalf("Failed to parse config: %v", err)
	}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "configuration errors:\n  - ") {
		t.Errorf("unexpected format: %q", msg)
	}
	for _, want := range []string{
		"invalid port: 70000",
		"passphrase requires key_file",
		"max_entries must not be negative",
		`extension "txt" must start with '.'`,
		"invalid log level: verbose",
		"invalid log format: xml",
		`invalid locale: "!!"`,
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("missing %q in:\n%s", want, msg)
		}
	}
}

func TestStringOrSlice(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"single", `extensions: ".txt"`, []string{".txt"}},
		{"list", "extensions:\n  - .txt\n  - .md\n", []string{".txt", ".md"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w WatchConfig
			if err := yaml.Unmarshal([]byte(tt.input), &w); err != nil {
				t.Fatalf("Failed to parse: %v", err)
			}
			if len(w.Extensions) != len(tt.want) {
				t.Fatalf("got %v, want %v", w.Extensions, tt.want)
			}
			for i := range tt.want {
				if w.Extensions[i] != tt.want[i] {
					t.Errorf("got %v, want %v", w.Extensions, tt.want)
				}
			}
		})
	}
}
