package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// AppConfig is the contents of config.toml.
type AppConfig struct {
	Server ServerConfig `toml:"server"`
	Data   DataConfig   `toml:"data"`
	Import ImportConfig `toml:"import"`
	Log    LogConfig    `toml:"log"`
}

// ServerConfig HTTP server settings.
type ServerConfig struct {
	Port        int  `toml:"port" env:"KIDBLOOM_PORT"`
	DevMode     bool `toml:"dev_mode" env:"KIDBLOOM_DEV"`
	OpenBrowser bool `toml:"open_browser"`
}

// DataConfig locates the local collection store.
type DataConfig struct {
	DataDir string `toml:"data_dir" env:"KIDBLOOM_DATA_DIR"`
	DBName  string `toml:"db_name"`
}

// ImportConfig tunes the spreadsheet import flow.
type ImportConfig struct {
	PreviewLimit      int    `toml:"preview_limit"`
	ErrorDisplayLimit int    `toml:"error_display_limit"`
	PendingTTL        string `toml:"pending_ttl"`
	MaxUploadMB       int    `toml:"max_upload_mb"`

	// SnapshotBeforeReplace exports a collection into the exports directory
	// before a replace import deletes it.
	SnapshotBeforeReplace bool `toml:"snapshot_before_replace" env:"KIDBLOOM_SNAPSHOT_BEFORE_REPLACE"`
}

// LogConfig selects logrus level and formatter.
type LogConfig struct {
	Level  string `toml:"level" env:"KIDBLOOM_LOG_LEVEL"`
	Format string `toml:"format" env:"KIDBLOOM_LOG_FORMAT"` // text/json
}

// LoadConfigInfo reports what the config file set explicitly.
type LoadConfigInfo struct {
	Path          string
	PortSpecified bool
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20262,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
			DBName:  "kidbloom.db",
		},
		Import: ImportConfig{
			PreviewLimit:          10,
			ErrorDisplayLimit:     5,
			PendingTTL:            "30m",
			MaxUploadMB:           10,
			SnapshotBeforeReplace: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// PendingTTLDuration parses Import.PendingTTL, falling back to 30 minutes.
func (c *AppConfig) PendingTTLDuration() time.Duration {
	d, err := time.ParseDuration(c.Import.PendingTTL)
	if err != nil || d <= 0 {
		return 30 * time.Minute
	}
	return d
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverMap, ok := raw["server"].(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir returns the directory holding the running executable.
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// DefaultConfigPath is config.toml next to the executable.
func DefaultConfigPath() string {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	return filepath.Join(exeDir, "config.toml")
}

// LoadConfigWithInfo reads config.toml next to the executable.
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	return LoadFile(DefaultConfigPath())
}

// LoadFile reads a TOML config file and applies environment overrides.
// A missing file is not an error: defaults are used.
func LoadFile(path string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: path}
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, info, errors.Wrapf(err, "parse %s", path)
		}
	case os.IsNotExist(err):
	default:
		return nil, info, errors.Wrapf(err, "read %s", path)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, info, errors.Wrap(err, "parse environment overrides")
	}
	if _, ok := os.LookupEnv("KIDBLOOM_PORT"); ok {
		info.PortSpecified = true
	}

	return cfg, info, nil
}

// SaveConfig writes cfg to path as TOML.
func SaveConfig(cfg *AppConfig, path string) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// EnsureDataDir creates the data directory (relative paths resolve against the
// executable directory) with its uploads and exports subdirectories.
func EnsureDataDir(cfg *AppConfig) (string, error) {
	dataDir := resolveDataDir(cfg)

	for _, dir := range []string{dataDir, filepath.Join(dataDir, "uploads"), filepath.Join(dataDir, "exports")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", errors.Wrapf(err, "create %s", dir)
		}
	}

	return dataDir, nil
}

// DBPath is the SQLite file inside the data directory.
func DBPath(cfg *AppConfig) string {
	return filepath.Join(resolveDataDir(cfg), cfg.Data.DBName)
}

// ExportsDir is where collection exports and snapshots are written.
func ExportsDir(cfg *AppConfig) string {
	return filepath.Join(resolveDataDir(cfg), "exports")
}

func resolveDataDir(cfg *AppConfig) string {
	if filepath.IsAbs(cfg.Data.DataDir) {
		return cfg.Data.DataDir
	}
	exeDir, err := GetExeDir()
	if err != nil || exeDir == "" {
		exeDir = "."
	}
	return filepath.Join(exeDir, cfg.Data.DataDir)
}
