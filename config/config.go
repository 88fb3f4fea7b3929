package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
)

type SystemConfig struct {
	DataDirectory string `toml:"data_directory"`
}

type StorageConfig struct {
	Backend     string `toml:"backend"` // memory, file, sqlite, redis
	Path        string `toml:"path,omitempty"`
	RedisAddr   string `toml:"redis_addr,omitempty"`
	RedisPrefix string `toml:"redis_prefix,omitempty"`
	QuotaBytes  int64  `toml:"quota_bytes,omitempty"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type DefaultsConfig struct {
	Model         string `toml:"model"`
	Style         string `toml:"style"`
	ImageTemplate string `toml:"image_template,omitempty"`
}

type SecurityConfig struct {
	CredentialStorage string `toml:"credential_storage"` // plaintext or ssh_key
	SSHKeyPath        string `toml:"ssh_key_path,omitempty"`
}

// ModelEntry seeds a model configuration from config.toml. API keys are not
// stored here; they come from the credential store keyed by provider id.
type ModelEntry struct {
	Provider string            `toml:"provider"`
	Model    string            `toml:"model"`
	Name     string            `toml:"name,omitempty"`
	BaseURL  string            `toml:"base_url,omitempty"`
	Params   map[string]any    `toml:"params,omitempty"`
	Extra    map[string]string `toml:"extra,omitempty"`
}

type UserConfig struct {
	Storage  StorageConfig  `toml:"storage"`
	Server   ServerConfig   `toml:"server"`
	Defaults DefaultsConfig `toml:"defaults"`
	Security SecurityConfig `toml:"security"`
	Models   []ModelEntry   `toml:"models"`
}

type Config struct {
	DataDirectory string
	Storage       StorageConfig
	Server        ServerConfig
	Defaults      DefaultsConfig
	Security      SecurityConfig
	Models        []ModelEntry

	CredentialStore *CredentialStore
}

var Debug = false
var DebugLog *log.Logger

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

// StoragePath resolves the storage location for file and sqlite backends.
func (c *Config) StoragePath() string {
	if c.Storage.Path != "" {
		return ExpandPath(c.Storage.Path)
	}
	switch c.Storage.Backend {
	case "sqlite":
		return filepath.Join(c.DataDir(), "promptsmith.db")
	default:
		return filepath.Join(c.DataDir(), "store")
	}
}

func (c *Config) applyUserConfig(u *UserConfig) {
	c.Storage = u.Storage
	c.Server = u.Server
	c.Defaults = u.Defaults
	c.Security = u.Security
	c.Models = u.Models
}

func (c *Config) applyEnvOverrides() {
	if dataDir := os.Getenv("PROMPTSMITH_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
	if backend := os.Getenv("PROMPTSMITH_STORAGE"); backend != "" {
		c.Storage.Backend = backend
	}
	if addr := os.Getenv("PROMPTSMITH_REDIS_ADDR"); addr != "" {
		c.Storage.RedisAddr = addr
	}
	if addr := os.Getenv("PROMPTSMITH_SERVER_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if model := os.Getenv("PROMPTSMITH_MODEL"); model != "" {
		c.Defaults.Model = model
	}
	if quota := os.Getenv("PROMPTSMITH_QUOTA_BYTES"); quota != "" {
		if n, err := strconv.ParseInt(quota, 10, 64); err == nil {
			c.Storage.QuotaBytes = n
		}
	}
}

func CheckDebug() bool {
	debug := os.Getenv("PROMPTSMITH_DEBUG")
	return debug == "true" || debug == "1"
}

func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	Debug = true
	logPath := filepath.Join(dataDir, "debug.log")

	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	DebugLog = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	DebugLog.Printf("=== Debug logging started (PROMPTSMITH_DEBUG=%s) ===", os.Getenv("PROMPTSMITH_DEBUG"))
	DebugLog.Printf("Log path: %s", logPath)
}

// Logf writes to the debug log when debugging is enabled.
func Logf(format string, args ...any) {
	if Debug && DebugLog != nil {
		DebugLog.Printf(format, args...)
	}
}

func Load() (*Config, error) {
	cfg := &Config{
		DataDirectory: GetDefaultDataDir(),
	}

	systemCfg, err := LoadSystemConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load system config: %w", err)
	}
	if systemCfg.DataDirectory != "" {
		cfg.DataDirectory = systemCfg.DataDirectory
	}
	if dataDir := os.Getenv("PROMPTSMITH_DATA_DIR"); dataDir != "" {
		cfg.DataDirectory = dataDir
	}

	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, fmt.Errorf("failed to set data directory permissions: %w", err)
	}

	userCfg, err := LoadUserConfig(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}
	cfg.applyUserConfig(userCfg)
	cfg.applyEnvOverrides()

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "file"
	}
	if cfg.Defaults.Style == "" {
		cfg.Defaults.Style = "general"
	}

	method := SecurityMethod(cfg.Security.CredentialStorage)
	if method == "" {
		method = SecurityPlainText
	}
	cfg.CredentialStore = NewCredentialStore(method, ExpandPath(cfg.Security.SSHKeyPath))

	return cfg, nil
}
