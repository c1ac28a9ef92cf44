// Package config loads hepc-tui settings from a TOML file, MRVA_* environment
// variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// EnvPrefix is shared with the shell tooling around gh-mrva, so
// MRVA_METADATA_DB and friends keep working.
const EnvPrefix = "MRVA"

// LogConfig controls the diagnostic log file.
type LogConfig struct {
	File      string `mapstructure:"file" toml:"file"`
	MaxSizeMB int    `mapstructure:"max_size_mb" toml:"max_size_mb"`
	Debug     bool   `mapstructure:"debug" toml:"debug"`
}

// ServeConfig controls the HTTP API.
type ServeConfig struct {
	Addr      string `mapstructure:"addr" toml:"addr"`
	CacheSize int    `mapstructure:"cache_size" toml:"cache_size"`
}

// TranscriptConfig controls where workflow step output is kept and for how long.
type TranscriptConfig struct {
	Dir       string        `mapstructure:"dir" toml:"dir"`
	MaxAge    time.Duration `mapstructure:"max_age" toml:"max_age"`
	MaxSizeMB int           `mapstructure:"max_size_mb" toml:"max_size_mb"`
}

// Config holds all runtime configuration.
type Config struct {
	GhMrvaDir     string           `mapstructure:"gh_mrva_dir" toml:"gh_mrva_dir"`
	HepcDir       string           `mapstructure:"hepc_dir" toml:"hepc_dir"`
	MetadataDB    string           `mapstructure:"metadata_db" toml:"metadata_db"`
	SelectionJSON string           `mapstructure:"selection_json" toml:"selection_json"`
	Container     string           `mapstructure:"container" toml:"container"`
	Log           LogConfig        `mapstructure:"log" toml:"log"`
	Serve         ServeConfig      `mapstructure:"serve" toml:"serve"`
	Transcript    TranscriptConfig `mapstructure:"transcript" toml:"transcript"`
}

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("gh_mrva_dir", "~/work-gh/mrva/gh-mrva")
	v.SetDefault("hepc_dir", "~/work-gh/mrva/mrvahepc")
	v.SetDefault("metadata_db", "db-collection-host.tmp/metadata.sql")
	v.SetDefault("selection_json", "~/work-gh/mrva/gh-mrva/gh-mrva-selection.json")
	v.SetDefault("container", "mrva-ghmrva")
	v.SetDefault("log.file", filepath.Join(stateDir(), "hepc-tui.log"))
	v.SetDefault("log.max_size_mb", 5)
	v.SetDefault("log.debug", false)
	v.SetDefault("serve.addr", "127.0.0.1:8070")
	v.SetDefault("serve.cache_size", 128)
	v.SetDefault("transcript.dir", filepath.Join(stateDir(), "transcripts"))
	v.SetDefault("transcript.max_age", "168h")
	v.SetDefault("transcript.max_size_mb", 50)
}

// Load reads the configuration. An explicit file must exist; otherwise
// hepc-tui.toml is looked up in the working directory and $HOME and may be
// absent.
func Load(v *viper.Viper, file string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("hepc-tui")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Validate reports settings that would make every command fail.
func (c Config) Validate() error {
	var errs []error
	if c.MetadataDB == "" {
		errs = append(errs, errors.New("metadata_db is required"))
	}
	if c.Container == "" {
		errs = append(errs, errors.New("container is required"))
	}
	if c.Log.MaxSizeMB < 0 {
		errs = append(errs, fmt.Errorf("log.max_size_mb must not be negative, got %d", c.Log.MaxSizeMB))
	}
	if c.Serve.CacheSize <= 0 {
		errs = append(errs, fmt.Errorf("serve.cache_size must be positive, got %d", c.Serve.CacheSize))
	}
	if c.Transcript.MaxAge < 0 {
		errs = append(errs, fmt.Errorf("transcript.max_age must not be negative, got %s", c.Transcript.MaxAge))
	}
	return errors.Join(errs...)
}

// Save writes c to path as TOML, refusing to replace an existing file.
func Save(path string, c Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	enc.Indent = ""
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Resolve expands "~" and makes path absolute.
func Resolve(path string) string {
	path = ExpandHome(path)
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func stateDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "hepc-tui")
	}
	return filepath.Join(os.TempDir(), "hepc-tui")
}
