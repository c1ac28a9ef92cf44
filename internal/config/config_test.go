package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"GhMrvaDir", cfg.GhMrvaDir, "~/work-gh/mrva/gh-mrva"},
		{"HepcDir", cfg.HepcDir, "~/work-gh/mrva/mrvahepc"},
		{"MetadataDB", cfg.MetadataDB, "db-collection-host.tmp/metadata.sql"},
		{"SelectionJSON", cfg.SelectionJSON, "~/work-gh/mrva/gh-mrva/gh-mrva-selection.json"},
		{"Container", cfg.Container, "mrva-ghmrva"},
		{"Log.MaxSizeMB", cfg.Log.MaxSizeMB, 5},
		{"Serve.Addr", cfg.Serve.Addr, "127.0.0.1:8070"},
		{"Serve.CacheSize", cfg.Serve.CacheSize, 128},
		{"Transcript.MaxAge", cfg.Transcript.MaxAge, 168 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	tests := []struct {
		name   string
		envKey string
		envVal string
		field  func(Config) any
		want   any
	}{
		{
			name:   "metadata_db",
			envKey: "MRVA_METADATA_DB",
			envVal: "/data/metadata.sql",
			field:  func(c Config) any { return c.MetadataDB },
			want:   "/data/metadata.sql",
		},
		{
			name:   "gh_mrva_dir",
			envKey: "MRVA_GH_MRVA_DIR",
			envVal: "/work/gh-mrva",
			field:  func(c Config) any { return c.GhMrvaDir },
			want:   "/work/gh-mrva",
		},
		{
			name:   "selection_json",
			envKey: "MRVA_SELECTION_JSON",
			envVal: "/tmp/sel.json",
			field:  func(c Config) any { return c.SelectionJSON },
			want:   "/tmp/sel.json",
		},
		{
			name:   "nested serve.addr",
			envKey: "MRVA_SERVE_ADDR",
			envVal: ":9000",
			field:  func(c Config) any { return c.Serve.Addr },
			want:   ":9000",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(tt.envKey, tt.envVal)

			cfg, err := Load(viper.New(), "")
			if err != nil {
				t.Fatalf("Load() returned unexpected error: %v", err)
			}
			if got := tt.field(cfg); got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	content := `container = "other"
metadata_db = "/srv/meta.sql"

[transcript]
max_age = "2h"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.Container != "other" || cfg.MetadataDB != "/srv/meta.sql" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Transcript.MaxAge != 2*time.Hour {
		t.Errorf("Transcript.MaxAge = %v, want 2h", cfg.Transcript.MaxAge)
	}
	if cfg.HepcDir != "~/work-gh/mrva/mrvahepc" {
		t.Errorf("unset key lost its default: %q", cfg.HepcDir)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Fatal("Load() with a missing explicit file should fail")
	}
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	base, err := Load(viper.New(), "")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "no metadata db", mutate: func(c *Config) { c.MetadataDB = "" }, wantErr: "metadata_db"},
		{name: "no container", mutate: func(c *Config) { c.Container = "" }, wantErr: "container"},
		{name: "zero cache", mutate: func(c *Config) { c.Serve.CacheSize = 0 }, wantErr: "cache_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tt.wantErr)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Container = "saved"

	path := filepath.Join(t.TempDir(), "sub", "hepc-tui.toml")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := Save(path, cfg); err == nil {
		t.Error("Save() must not overwrite an existing file")
	}

	got, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load saved file: %v", err)
	}
	if got != cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, cfg)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := []struct {
		in, want string
	}{
		{"~", home},
		{"~/work", filepath.Join(home, "work")},
		{"/abs/path", "/abs/path"},
		{"rel/~x", "rel/~x"},
	}
	for _, tt := range tests {
		if got := ExpandHome(tt.in); got != tt.want {
			t.Errorf("ExpandHome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
