package config

import "time"

// Config represents the complete Paganism configuration
type Config struct {
	BaseDir string        `yaml:"-"` // Directory containing config file, for resolving relative paths
	Imports ImportsConfig `yaml:"imports"`
	RunLog  RunLogConfig  `yaml:"runlog"`
	Watch   WatchConfig   `yaml:"watch"`
	Logging LoggingConfig `yaml:"logging"`
	Locale  string        `yaml:"locale"` // Default locale of the string natives (default: "en-US")
}

// ImportsConfig controls how import() finds source files
type ImportsConfig struct {
	Dirs    []string          `yaml:"dirs"`    // Searched after the importing file's directory
	Preload map[string]string `yaml:"preload"` // Import name -> path or sftp:// URL
	SFTP    SFTPConfig        `yaml:"sftp"`
}

// SFTPConfig holds credentials for sftp:// imports
type SFTPConfig struct {
	Host       string `yaml:"host"` // Host for sftp:///path URLs
	Port       int    `yaml:"port"` // default: 22
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	KeyFile    string `yaml:"key_file"`
	Passphrase string `yaml:"passphrase"`
	KnownHosts string `yaml:"known_hosts"` // Host keys are not checked when empty
}

// RunLogConfig holds run history settings
type RunLogConfig struct {
	Enabled    bool   `yaml:"enabled"`
	DSN        string `yaml:"dsn"`         // SQLite path, postgres:// or mysql:// URL
	MaxEntries int    `yaml:"max_entries"` // Rows kept after each run (0 = unlimited)
}

// WatchConfig holds --watch settings
type WatchConfig struct {
	Debounce   time.Duration `yaml:"debounce"`   // default: 100ms
	Extensions StringOrSlice `yaml:"extensions"` // Extra extensions that trigger a re-run
}

// LoggingConfig holds logging settings for tool diagnostics
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
	Output string `yaml:"output"` // stderr, stdout, or file path
}

// StringOrSlice supports YAML fields that can be either a string or a slice of strings
type StringOrSlice []string

// UnmarshalYAML implements yaml.Unmarshaler to handle both string and []string
func (s *StringOrSlice) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var single string
	if err := unmarshal(&single); err == nil {
		*s = []string{single}
		return nil
	}

	var slice []string
	if err := unmarshal(&slice); err != nil {
		return err
	}
	*s = slice
	return nil
}

// Contains checks if the slice contains the given string
func (s StringOrSlice) Contains(str string) bool {
	for _, v := range s {
		if v == str {
			return true
		}
	}
	return false
}

// Defaults returns a Config with sensible defaults
func Defaults() *Config {
	return &Config{
		Imports: ImportsConfig{
			SFTP: SFTPConfig{Port: 22},
		},
		RunLog: RunLogConfig{
			DSN:        "paganism-runs.db",
			MaxEntries: 1000,
		},
		Watch: WatchConfig{
			Debounce: 100 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Locale: "en-US",
	}
}
