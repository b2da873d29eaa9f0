// Package config resolves tdt settings from defaults, config files, the
// environment and command line overrides.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/tailscale/hujson"
)

// Config file names looked up in the working directory.
const (
	ProjectJSONName = ".tdt.json"
	ProjectTOMLName = ".tdt.toml"
)

const appName = "tdt"

// Environment variables read by Load.
const (
	EnvTodoFile = "TODO_FILE"
	EnvLogLevel = "TDT_LOG_LEVEL"
)

// Config holds all configuration options.
type Config struct {
	TodoFile      string `json:"todo_file" toml:"todo_file"`
	StateDB       string `json:"state_db" toml:"state_db"`
	LogFile       string `json:"log_file" toml:"log_file"`
	LogLevel      string `json:"log_level" toml:"log_level"`
	ShowCompleted bool   `json:"show_completed" toml:"show_completed"`
	Lock          bool   `json:"lock" toml:"lock"`

	// Resolved values, not serialized.
	EffectiveCwd string  `json:"-" toml:"-"`
	TodoFileAbs  string  `json:"-" toml:"-"`
	Sources      Sources `json:"-" toml:"-"`
}

// Sources tracks which config files were loaded.
type Sources struct {
	Global   string
	Project  string
	Explicit string
}

// Empty reports whether only defaults were used.
func (s Sources) Empty() bool {
	return s.Global == "" && s.Project == "" && s.Explicit == ""
}

// fileConfig is the on-disk shape. Pointers tell "unset" from "zero".
type fileConfig struct {
	TodoFile      *string `json:"todo_file" toml:"todo_file"`
	StateDB       *string `json:"state_db" toml:"state_db"`
	LogFile       *string `json:"log_file" toml:"log_file"`
	LogLevel      *string `json:"log_level" toml:"log_level"`
	ShowCompleted *bool   `json:"show_completed" toml:"show_completed"`
	Lock          *bool   `json:"lock" toml:"lock"`
}

// Default returns the default configuration. State and log paths follow the
// XDG base directory layout and are empty when no home directory is known.
func Default(env map[string]string) Config {
	cfg := Config{
		TodoFile: "todo.txt",
		LogLevel: "info",
		Lock:     true,
	}
	if dir := xdgDir(env, "XDG_DATA_HOME", ".local", "share"); dir != "" {
		cfg.StateDB = filepath.Join(dir, appName, "state.db")
	}
	if dir := xdgDir(env, "XDG_STATE_HOME", ".local", "state"); dir != "" {
		cfg.LogFile = filepath.Join(dir, appName, appName+".log")
	}
	return cfg
}

// LoadInput holds the inputs for Load.
type LoadInput struct {
	WorkDirOverride  string // -C/--cwd; os.Getwd() when empty
	ConfigPath       string // -c/--config
	TodoFileOverride string // -f/--file
	LogLevelOverride string // --log-level
	Env              map[string]string
}

// Load resolves the configuration. Precedence, highest wins:
//  1. CLI overrides
//  2. environment (TODO_FILE, TDT_LOG_LEVEL)
//  3. explicit config file via ConfigPath, which must exist
//  4. project config (.tdt.json or .tdt.toml in the working directory)
//  5. global config ($XDG_CONFIG_HOME/tdt/config.json or config.toml)
//  6. defaults
func Load(in LoadInput) (Config, error) {
	workDir := in.WorkDirOverride
	if workDir == "" {
		var err error
		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}
	workDir, err := filepath.Abs(workDir)
	if err != nil {
		return Config{}, fmt.Errorf("resolve working directory: %w", err)
	}

	cfg := Default(in.Env)

	for _, path := range globalConfigPaths(in.Env) {
		loaded, err := loadOptional(&cfg, path)
		if err != nil {
			return Config{}, err
		}
		if loaded {
			cfg.Sources.Global = path
			break
		}
	}

	for _, name := range []string{ProjectJSONName, ProjectTOMLName} {
		path := filepath.Join(workDir, name)
		loaded, err := loadOptional(&cfg, path)
		if err != nil {
			return Config{}, err
		}
		if loaded {
			cfg.Sources.Project = path
			break
		}
	}

	if in.ConfigPath != "" {
		path := in.ConfigPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, path)
		}
		if _, err := os.Stat(path); err != nil {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigFileNotFound, in.ConfigPath)
		}
		if _, err := loadOptional(&cfg, path); err != nil {
			return Config{}, err
		}
		cfg.Sources.Explicit = path
	}

	if v := in.Env[EnvTodoFile]; v != "" {
		cfg.TodoFile = v
	}
	if v := in.Env[EnvLogLevel]; v != "" {
		cfg.LogLevel = v
	}

	if in.TodoFileOverride != "" {
		cfg.TodoFile = in.TodoFileOverride
	}
	if in.LogLevelOverride != "" {
		cfg.LogLevel = in.LogLevelOverride
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	cfg.EffectiveCwd = workDir
	cfg.TodoFileAbs = resolve(workDir, cfg.TodoFile)
	if cfg.StateDB != "" {
		cfg.StateDB = resolve(workDir, cfg.StateDB)
	}
	if cfg.LogFile != "" {
		cfg.LogFile = resolve(workDir, cfg.LogFile)
	}

	return cfg, nil
}

// Format renders the serializable part of cfg as TOML.
func Format(cfg Config) (string, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return "", fmt.Errorf("format config: %w", err)
	}
	return buf.String(), nil
}

// loadOptional merges the file at path into cfg. A missing file is skipped.
func loadOptional(cfg *Config, path string) (bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrConfigFileRead, path, err)
	}

	fc, err := parse(path, data)
	if err != nil {
		return false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}
	if fc.TodoFile != nil && strings.TrimSpace(*fc.TodoFile) == "" {
		return false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, ErrTodoFileEmpty)
	}

	merge(cfg, fc)
	return true, nil
}

func parse(path string, data []byte) (fileConfig, error) {
	var fc fileConfig

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		md, err := toml.Decode(string(data), &fc)
		if err != nil {
			return fileConfig{}, fmt.Errorf("invalid TOML: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fileConfig{}, fmt.Errorf("unknown key %q", undecoded[0].String())
		}
		return fc, nil
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fileConfig{}, fmt.Errorf("invalid JSONC: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fc); err != nil {
		return fileConfig{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return fc, nil
}

func merge(cfg *Config, fc fileConfig) {
	if fc.TodoFile != nil {
		cfg.TodoFile = *fc.TodoFile
	}
	if fc.StateDB != nil {
		cfg.StateDB = *fc.StateDB
	}
	if fc.LogFile != nil {
		cfg.LogFile = *fc.LogFile
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = *fc.LogLevel
	}
	if fc.ShowCompleted != nil {
		cfg.ShowCompleted = *fc.ShowCompleted
	}
	if fc.Lock != nil {
		cfg.Lock = *fc.Lock
	}
}

func validate(cfg Config) error {
	if strings.TrimSpace(cfg.TodoFile) == "" {
		return ErrTodoFileEmpty
	}
	if _, err := log.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, cfg.LogLevel)
	}
	return nil
}

func globalConfigPaths(env map[string]string) []string {
	dir := xdgDir(env, "XDG_CONFIG_HOME", ".config")
	if dir == "" {
		return nil
	}
	return []string{
		filepath.Join(dir, appName, "config.json"),
		filepath.Join(dir, appName, "config.toml"),
	}
}

// xdgDir returns $key, or $HOME joined with fallback.
func xdgDir(env map[string]string, key string, fallback ...string) string {
	if dir := env[key]; dir != "" {
		return dir
	}
	if home := env["HOME"]; home != "" {
		return filepath.Join(append([]string{home}, fallback...)...)
	}
	return ""
}

func resolve(workDir, path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(workDir, path)
}
