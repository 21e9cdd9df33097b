package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from a file with ENV interpolation.
// If configPath is empty, it searches default locations; when none exists
// the defaults are returned.
func Load(configPath string, getenv func(string) string) (*Config, error) {
	cfg, _, err := LoadWithPath(configPath, getenv)
	return cfg, err
}

// LoadWithPath reads configuration and returns both the config and the
// resolved path, which is empty when the defaults were used.
func LoadWithPath(configPath string, getenv func(string) string) (*Config, string, error) {
	path, err := resolveConfigPath(configPath, getenv)
	if err != nil {
		return nil, "", err
	}
	if path == "" {
		cfg := Defaults()
		if wd, err := os.Getwd(); err == nil {
			cfg.BaseDir = wd
		}
		return cfg, "", nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve config path: %w", err)
	}
	baseDir := filepath.Dir(absPath)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read config: %w", err)
	}

	data = interpolateEnv(data, getenv)

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.BaseDir = baseDir

	for i, dir := range cfg.Imports.Dirs {
		cfg.Imports.Dirs[i] = resolvePath(baseDir, dir)
	}
	for name, target := range cfg.Imports.Preload {
		if !strings.HasPrefix(target, "sftp://") {
			cfg.Imports.Preload[name] = resolvePath(baseDir, target)
		}
	}
	if cfg.Imports.SFTP.KeyFile != "" {
		cfg.Imports.SFTP.KeyFile = resolvePath(baseDir, expandHome(cfg.Imports.SFTP.KeyFile))
	}
	if cfg.Imports.SFTP.KnownHosts != "" {
		cfg.Imports.SFTP.KnownHosts = resolvePath(baseDir, expandHome(cfg.Imports.SFTP.KnownHosts))
	}
	if isFileDSN(cfg.RunLog.DSN) {
		cfg.RunLog.DSN = resolvePath(baseDir, cfg.RunLog.DSN)
	}
	if o := cfg.Logging.Output; o != "" && o != "stderr" && o != "stdout" {
		cfg.Logging.Output = resolvePath(baseDir, o)
	}

	if err := Validate(cfg); err != nil {
		return nil, "", err
	}
	return cfg, absPath, nil
}

func resolvePath(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// isFileDSN reports whether dsn names a SQLite file rather than a server URL.
func isFileDSN(dsn string) bool {
	return dsn != "" && dsn != ":memory:" && !strings.Contains(dsn, "://")
}

// resolveConfigPath finds the config file to use.
// Search order: explicit path > PAGANISM_CONFIG env > ./paganism.yaml > ~/.config/paganism/paganism.yaml
func resolveConfigPath(explicit string, getenv func(string) string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	if envPath := getenv("PAGANISM_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("PAGANISM_CONFIG file not found: %s", envPath)
		}
		return envPath, nil
	}

	if _, err := os.Stat("paganism.yaml"); err == nil {
		return "paganism.yaml", nil
	}

	home, err := os.UserHomeDir()
	if err == nil {
		xdgPath := filepath.Join(home, ".config", "paganism", "paganism.yaml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath, nil
		}
	}

	return "", nil
}

// envPattern matches ${VAR} or ${VAR:-default}
var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// interpolateEnv replaces ${VAR} and ${VAR:-default} patterns with environment values.
func interpolateEnv(data []byte, getenv func(string) string) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		parts := envPattern.FindSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := string(parts[1])
		value := getenv(varName)

		if value == "" && len(parts) >= 3 && len(parts[2]) > 0 {
			value = string(parts[2])
		}

		return []byte(value)
	})
}

// Validate collects every configuration problem into one error.
func Validate(cfg *Config) error {
	var errs []string

	if p := cfg.Imports.SFTP.Port; p < 1 || p > 65535 {
		errs = append(errs, fmt.Sprintf("imports.sftp: invalid port: %d (must be 1-65535)", p))
	}
	if cfg.Imports.SFTP.Passphrase != "" && cfg.Imports.SFTP.KeyFile == "" {
		errs = append(errs, "imports.sftp: passphrase requires key_file")
	}
	for name, target := range cfg.Imports.Preload {
		if name == "" || target == "" {
			errs = append(errs, fmt.Sprintf("imports.preload: entry %q must name a target", name))
		}
	}

	if cfg.RunLog.Enabled && cfg.RunLog.DSN == "" {
		errs = append(errs, "runlog: enabled requires dsn")
	}
	if cfg.RunLog.MaxEntries < 0 {
		errs = append(errs, fmt.Sprintf("runlog: max_entries must not be negative, got %d", cfg.RunLog.MaxEntries))
	}

	if cfg.Watch.Debounce < 0 {
		errs = append(errs, fmt.Sprintf("watch: debounce must not be negative, got %s", cfg.Watch.Debounce))
	}
	for _, ext := range cfg.Watch.Extensions {
		if !strings.HasPrefix(ext, ".") {
			errs = append(errs, fmt.Sprintf("watch: extension %q must start with '.'", ext))
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", cfg.Logging.Level))
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be json or text)", cfg.Logging.Format))
	}

	if _, err := language.Parse(cfg.Locale); err != nil {
		errs = append(errs, fmt.Sprintf("invalid locale: %q", cfg.Locale))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
