// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for running the bot from a checkout.
	Development Environment = "development"
	// Production is for the installed service.
	Production Environment = "production"
)

// Transport kinds.
const (
	TransportTelegram = "telegram"
	TransportMatrix   = "matrix"
)

// Snapshot compression names accepted in store.compression.
var compressionNames = []string{"none", "lz4", "zstd"}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"auto", "text", "json"}
)

// Config is the complete Scrivener configuration.
type Config struct {
	// Environment selects which override section applies.
	Environment Environment `yaml:"environment"`

	Paths     PathsConfig     `yaml:"paths"`
	Transport TransportConfig `yaml:"transport"`
	Store     StoreConfig     `yaml:"store"`
	Git       GitConfig       `yaml:"git"`
	Logging   LoggingConfig   `yaml:"logging"`

	Development *ConfigOverrides `yaml:"development,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides holds the fields an environment section may replace.
// Empty strings leave the base value alone.
type ConfigOverrides struct {
	Paths   *PathsConfig   `yaml:"paths,omitempty"`
	Store   *StoreConfig   `yaml:"store,omitempty"`
	Logging *LoggingConfig `yaml:"logging,omitempty"`
}

// PathsConfig configures filesystem locations.
type PathsConfig struct {
	// Root is the workspace. Relative file names in commands resolve
	// against it, /ls runs in it, and it is the git repository that
	// records edits.
	Root string `yaml:"root"`

	// State holds the register snapshot and the Matrix session.
	State string `yaml:"state"`

	// AllowedUsers is the allow-list file, one user ID per line.
	AllowedUsers string `yaml:"allowed_users"`

	// HelpMessage is the file sent in reply to /help.
	HelpMessage string `yaml:"help_message"`
}

// TransportConfig selects and configures the chat network.
type TransportConfig struct {
	// Kind is "telegram" or "matrix".
	Kind string `yaml:"kind"`

	// SendRate is the sustained reply rate in messages per second.
	SendRate float64 `yaml:"send_rate"`

	// SendBurst is how many replies may go out back to back.
	SendBurst int `yaml:"send_burst"`

	Telegram TelegramConfig `yaml:"telegram"`
	Matrix   MatrixConfig   `yaml:"matrix"`
}

// TelegramConfig configures the Telegram Bot API transport.
type TelegramConfig struct {
	// TokenFile holds the bot token from BotFather.
	TokenFile string `yaml:"token_file"`

	// PollTimeout is the long-poll timeout for getUpdates, in seconds.
	PollTimeout int `yaml:"poll_timeout"`

	// APIEndpoint overrides the Bot API URL format. Empty means the
	// public api.telegram.org endpoint.
	APIEndpoint string `yaml:"api_endpoint"`
}

// MatrixConfig configures the Matrix client-server transport.
type MatrixConfig struct {
	// HomeserverURL is the client-server API base URL.
	HomeserverURL string `yaml:"homeserver_url"`

	// SessionFile is where `scrivener login` stores the access token.
	SessionFile string `yaml:"session_file"`
}

// StoreConfig configures the register snapshot.
type StoreConfig struct {
	// File is the snapshot file name. Relative names resolve against
	// paths.state.
	File string `yaml:"file"`

	// Compression is "none", "lz4" or "zstd".
	Compression string `yaml:"compression"`

	// IdentityFile is an age identity. When set, snapshots are
	// encrypted to its recipient.
	IdentityFile string `yaml:"identity_file"`
}

// GitConfig configures the commit recorder.
type GitConfig struct {
	// Enabled turns on a commit after every file edit. paths.root must
	// then be a git work tree.
	Enabled bool `yaml:"enabled"`

	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`

	// Format is auto (text on a terminal, JSON otherwise), text or json.
	Format string `yaml:"format"`

	// Journal additionally sends records to the systemd journal.
	Journal bool `yaml:"journal"`
}

// Default returns the values a config file is merged onto.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, "notes")

	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Root:         defaultRoot,
			State:        "${SCRIVENER_ROOT}/.scrivener",
			AllowedUsers: "${SCRIVENER_ROOT}/.scrivener/allowed_users",
			HelpMessage:  "${SCRIVENER_ROOT}/.scrivener/help_message.md",
		},
		Transport: TransportConfig{
			Kind:      TransportTelegram,
			SendRate:  5,
			SendBurst: 10,
			Telegram: TelegramConfig{
				PollTimeout: 60,
			},
			Matrix: MatrixConfig{
				SessionFile: "${SCRIVENER_ROOT}/.scrivener/session.json",
			},
		},
		Store: StoreConfig{
			File:        "registers.cbor",
			Compression: "none",
		},
		Git: GitConfig{
			Enabled:     true,
			AuthorName:  "scrivener",
			AuthorEmail: "scrivener@localhost",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load loads the file named by SCRIVENER_CONFIG. It fails when the
// variable is unset.
func Load() (*Config, error) {
	configPath := os.Getenv("SCRIVENER_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("SCRIVENER_CONFIG environment variable not set; " +
			"set it to the path of your scrivener.yaml, or use --config")
	}
	return LoadFile(configPath)
}

// LoadFile loads path onto Default, applies the environment section,
// and expands variables in path fields. It does not validate.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
		if overrides == nil {
			overrides = &ConfigOverrides{
				Store:   &StoreConfig{Compression: "zstd"},
				Logging: &LoggingConfig{Format: "json"},
			}
		}
	}

	if overrides == nil {
		return
	}

	if paths := overrides.Paths; paths != nil {
		overrideString(&c.Paths.Root, paths.Root)
		overrideString(&c.Paths.State, paths.State)
		overrideString(&c.Paths.AllowedUsers, paths.AllowedUsers)
		overrideString(&c.Paths.HelpMessage, paths.HelpMessage)
	}
	if store := overrides.Store; store != nil {
		overrideString(&c.Store.File, store.File)
		overrideString(&c.Store.Compression, store.Compression)
		overrideString(&c.Store.IdentityFile, store.IdentityFile)
	}
	if logging := overrides.Logging; logging != nil {
		overrideString(&c.Logging.Level, logging.Level)
		overrideString(&c.Logging.Format, logging.Format)
		// Journal is a bool; a section that mentions logging decides it.
		c.Logging.Journal = logging.Journal
	}
}

func overrideString(target *string, value string) {
	if value != "" {
		*target = value
	}
}

func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["SCRIVENER_ROOT"] = c.Paths.Root

	for _, field := range []*string{
		&c.Paths.State,
		&c.Paths.AllowedUsers,
		&c.Paths.HelpMessage,
		&c.Transport.Telegram.TokenFile,
		&c.Transport.Matrix.SessionFile,
		&c.Store.File,
		&c.Store.IdentityFile,
	} {
		*field = expandVars(*field, vars)
	}
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars replaces ${VAR} and ${VAR:-default}. vars is consulted
// before the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name, defaultValue := parts[1], parts[2]
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %q", c.Environment))
	}

	if c.Paths.Root == "" {
		errs = append(errs, fmt.Errorf("paths.root is required"))
	}
	if c.Paths.State == "" {
		errs = append(errs, fmt.Errorf("paths.state is required"))
	}
	if c.Paths.AllowedUsers == "" {
		errs = append(errs, fmt.Errorf("paths.allowed_users is required"))
	}

	switch c.Transport.Kind {
	case TransportTelegram:
		if c.Transport.Telegram.TokenFile == "" {
			errs = append(errs, fmt.Errorf("transport.telegram.token_file is required for the telegram transport"))
		}
		if c.Transport.Telegram.PollTimeout < 0 {
			errs = append(errs, fmt.Errorf("transport.telegram.poll_timeout must not be negative"))
		}
	case TransportMatrix:
		if c.Transport.Matrix.HomeserverURL == "" {
			errs = append(errs, fmt.Errorf("transport.matrix.homeserver_url is required for the matrix transport"))
		}
		if c.Transport.Matrix.SessionFile == "" {
			errs = append(errs, fmt.Errorf("transport.matrix.session_file is required for the matrix transport"))
		}
	default:
		errs = append(errs, fmt.Errorf("transport.kind must be one of: %v", []string{TransportTelegram, TransportMatrix}))
	}
	if c.Transport.SendRate <= 0 {
		errs = append(errs, fmt.Errorf("transport.send_rate must be positive"))
	}
	if c.Transport.SendBurst < 1 {
		errs = append(errs, fmt.Errorf("transport.send_burst must be at least 1"))
	}

	if c.Store.File == "" {
		errs = append(errs, fmt.Errorf("store.file is required"))
	}
	if !slices.Contains(compressionNames, c.Store.Compression) {
		errs = append(errs, fmt.Errorf("store.compression must be one of: %v", compressionNames))
	}

	if c.Git.Enabled && (c.Git.AuthorName == "" || c.Git.AuthorEmail == "") {
		errs = append(errs, fmt.Errorf("git.author_name and git.author_email are required when git is enabled"))
	}

	if !slices.Contains(logLevels, c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level must be one of: %v", logLevels))
	}
	if !slices.Contains(logFormats, c.Logging.Format) {
		errs = append(errs, fmt.Errorf("logging.format must be one of: %v", logFormats))
	}

	return errors.Join(errs...)
}

// SnapshotPath returns the absolute snapshot file location.
func (c *Config) SnapshotPath() string {
	if filepath.IsAbs(c.Store.File) {
		return c.Store.File
	}
	return filepath.Join(c.Paths.State, c.Store.File)
}

// EnsurePaths creates the state directory. The workspace root must
// already exist; creating it silently would hide a typo in the config.
// A state directory inside the root gets a .gitignore that excludes
// everything in it, so commits of the work tree never pick up the
// snapshot or the Matrix session.
func (c *Config) EnsurePaths() error {
	info, err := os.Stat(c.Paths.Root)
	if err != nil {
		return fmt.Errorf("config: workspace root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("config: workspace root %s is not a directory", c.Paths.Root)
	}
	if err := os.MkdirAll(c.Paths.State, 0o700); err != nil {
		return fmt.Errorf("config: creating %s: %w", c.Paths.State, err)
	}
	if relative, inside := relativeToRoot(c.Paths.Root, c.Paths.State); inside && relative != "." {
		ignore := filepath.Join(c.Paths.State, ".gitignore")
		if err := os.WriteFile(ignore, []byte("*\n"), 0o644); err != nil {
			return fmt.Errorf("config: writing %s: %w", ignore, err)
		}
	}
	return nil
}

// PrivateFilesInRoot returns the state files that lie inside the
// workspace root, relative to it. None of them may ever be committed.
func (c *Config) PrivateFilesInRoot() []string {
	candidates := []string{c.SnapshotPath(), c.Paths.AllowedUsers}
	if c.Transport.Kind == TransportMatrix {
		candidates = append(candidates, c.Transport.Matrix.SessionFile)
	}
	var inside []string
	for _, path := range candidates {
		if relative, ok := relativeToRoot(c.Paths.Root, path); ok && relative != "." {
			inside = append(inside, relative)
		}
	}
	return inside
}

// relativeToRoot returns path relative to root and whether path lies
// within root.
func relativeToRoot(root, path string) (string, bool) {
	if root == "" || path == "" {
		return "", false
	}
	relative, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil || relative == ".." || strings.HasPrefix(relative, ".."+string(filepath.Separator)) {
		return "", false
	}
	return relative, true
}
